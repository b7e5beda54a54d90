package replay

import (
	"encoding/json"
	"time"

	"github.com/spf13/cobra"
	"reel-digest/internal/app"
	"reel-digest/internal/app/pipeline"
	"reel-digest/internal/config"
)

var force bool
var staleAfter time.Duration
var limit int

func init() {
	Cmd.Flags().BoolVar(&force, "force", false, "also reclaim pending and notifying records left by a dead worker")
	Cmd.Flags().DurationVar(&staleAfter, "stale", 30*time.Minute, "with --force, how long a record must sit untouched to be reclaimed")
	Cmd.Flags().IntVarP(&limit, "limit", "n", 0, "max records per status, 0 for all")
}

// Cmd represents the replay command
var Cmd = &cobra.Command{
	Use:   "replay",
	Short: "Resume records that were left unfinished",
	Long: `Resume records that were left unfinished

- Summaries that were stored but never delivered are sent again
- Transiently failed records are resumed from their stored transcript
- Records that used up their resumes are marked failed and the chat is told`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		application, cleanup, err := app.InitializeApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		opts := pipeline.ReplayOptions{Limit: limit}
		if force {
			opts.StaleAfter = staleAfter
		}
		report, err := application.Orchestrator.Replay(cmd.Context(), opts)

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(report); encErr != nil {
			return encErr
		}
		return err
	},
}
