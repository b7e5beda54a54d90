package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"reel-digest/internal/app"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/config"
)

var fromDriver, fromURL string
var toDriver, toURL string

func init() {
	Cmd.Flags().StringVar(&fromDriver, "from", "sqlite", "source store driver: sqlite, postgres or redis")
	Cmd.Flags().StringVar(&fromURL, "from-url", config.DefaultSQLitePath, "source database path, DSN or redis address")
	Cmd.Flags().StringVar(&toDriver, "to", "postgres", "destination store driver: sqlite, postgres or redis")
	Cmd.Flags().StringVar(&toURL, "to-url", "", "destination database path, DSN or redis address")

	Cmd.MarkFlagRequired("to-url")
}

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy records from one result store to another",
	Long: `Copy records from one result store to another

- Records already present in the destination are left untouched
- Safe to run again after an interruption`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		src, err := app.OpenStore(ctx, storeConfig(fromDriver, fromURL))
		if err != nil {
			return fmt.Errorf("open source: %w", err)
		}
		defer src.Close()

		dst, err := app.OpenStore(ctx, storeConfig(toDriver, toURL))
		if err != nil {
			return fmt.Errorf("open destination: %w", err)
		}
		defer dst.Close()

		n, err := repository.Copy(ctx, src, dst)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migration finished, %d records copied\n", n)
		return nil
	},
}

func storeConfig(driver, url string) config.StoreConfig {
	sc := config.StoreConfig{Driver: driver, DatabaseURL: url, RedisPrefix: config.DefaultRedisPrefix}
	if driver == "redis" {
		sc.RedisAddr = url
	}
	return sc
}
