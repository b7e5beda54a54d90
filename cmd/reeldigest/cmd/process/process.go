package process

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"reel-digest/internal/app"
	"reel-digest/internal/app/pipeline"
	"reel-digest/internal/app/reel"
	"reel-digest/internal/config"
)

var recipient string
var transcript string
var transcriptFile string
var caption string
var mediaPath string

func init() {
	Cmd.Flags().StringVarP(&recipient, "chat", "c", "", "chat id the result is sent to")
	Cmd.Flags().StringVarP(&transcript, "transcript", "t", "", "use this transcript instead of transcribing")
	Cmd.Flags().StringVarP(&transcriptFile, "transcriptFile", "f", "", "read the transcript from a file")
	Cmd.Flags().StringVar(&caption, "caption", "", "reel caption; fetched from the reel page when empty")
	Cmd.Flags().StringVarP(&mediaPath, "media", "m", "", "media file to transcribe; looked up in MEDIA_DIR when empty")

	Cmd.MarkFlagRequired("chat")
	Cmd.MarkFlagsMutuallyExclusive("transcript", "transcriptFile")
}

// Cmd represents the process command
var Cmd = &cobra.Command{
	Use:   "process <reel-url>",
	Short: "Run one reel through the pipeline and print the outcome",
	Long: `Run one reel through the pipeline and print the outcome

- The reel is identified by its shortcode, so processing the same reel twice is a no-op
- The result is sent to --chat like a webhook request`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity, sourceURL, err := reel.IdentityFromText(args[0])
		if err != nil {
			return err
		}
		text := transcript
		if transcriptFile != "" {
			data, err := os.ReadFile(transcriptFile)
			if err != nil {
				return fmt.Errorf("read transcript: %w", err)
			}
			text = string(data)
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		application, cleanup, err := app.InitializeApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		out, handleErr := application.Orchestrator.Handle(cmd.Context(), pipeline.Submission{
			Identity:   identity,
			Recipient:  recipient,
			SourceURL:  sourceURL,
			Transcript: text,
			Caption:    caption,
			MediaPath:  mediaPath,
		})

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
		return handleErr
	},
}
