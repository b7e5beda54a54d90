package main

import (
	"reel-digest/cmd/reeldigest/cmd"
)

func main() {
	cmd.Execute()
}
