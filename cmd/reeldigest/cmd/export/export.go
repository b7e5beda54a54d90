package export

import (
	"fmt"

	"github.com/spf13/cobra"
	"reel-digest/internal/app"
	"reel-digest/internal/app/export"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
	"reel-digest/internal/config"
)

var recipient string
var status string
var outputFilePath string

func init() {
	Cmd.Flags().StringVarP(&recipient, "chat", "c", "", "only export records of this chat id")
	Cmd.Flags().StringVarP(&status, "status", "s", "", "only export records with this status")
	Cmd.Flags().StringVarP(&outputFilePath, "outputFilePath", "o", "", "set outputFilePath")

	Cmd.MarkFlagRequired("outputFilePath")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export persisted records to excel",
	Long: `Export persisted records to excel

- One row per reel with status, category, companies, tags and the summary JSON
- Transcripts are not exported`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadUnvalidated()
		if err != nil {
			return err
		}
		store, err := app.OpenStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List(cmd.Context(), repository.ListFilter{
			Status:    model.Status(status),
			Recipient: recipient,
		})
		if err != nil {
			return err
		}

		if err := export.ToExcel(records, outputFilePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "export finished, %d records, exported file path: %v\n", len(records), outputFilePath)
		return nil
	},
}
