package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"reel-digest/cmd/reeldigest/cmd/export"
	"reel-digest/cmd/reeldigest/cmd/migrate"
	"reel-digest/cmd/reeldigest/cmd/process"
	"reel-digest/cmd/reeldigest/cmd/replay"
	"reel-digest/cmd/reeldigest/cmd/serve"
	"reel-digest/cmd/reeldigest/cmd/version"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "reeldigest",
	Short: "Summarize Instagram reels sent to a Telegram bot",
	Long: `Summarize Instagram reels sent to a Telegram bot.
- serve runs the webhook server and the pipeline workers
- process runs one reel through the pipeline from the command line
- replay resumes records that were left unfinished
- Results are stored in sqlite, postgres or redis and can be exported to excel.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(process.Cmd)
	rootCmd.AddCommand(replay.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(migrate.Cmd)
	rootCmd.AddCommand(version.Cmd)
}
