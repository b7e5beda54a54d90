package serve

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"reel-digest/internal/app"
	"reel-digest/internal/config"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram webhook server and the pipeline workers",
	Long: `Run the Telegram webhook server and the pipeline workers

- POST /telegram/webhook receives bot updates
- GET /records and /records/:key expose persisted results
- GET /metrics serves Prometheus metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, cleanup, err := app.InitializeApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		application.Runner.Start(ctx)
		defer application.Runner.Stop()

		application.Logger.Info("reeldigest serving",
			zap.String("store", cfg.Store.Driver),
			zap.String("notifier", cfg.Notifier),
			zap.String("llm", cfg.LLM.Provider),
		)
		return application.Server.Run(ctx)
	},
}
