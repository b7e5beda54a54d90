// Package export writes persisted records to a spreadsheet.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/tealeg/xlsx"
	"reel-digest/internal/app/model"
)

// SheetName is the name of the single worksheet written.
const SheetName = "Records"

var header = []string{
	"Key",
	"Platform",
	"Content ID",
	"Recipient",
	"Source URL",
	"Status",
	"Category",
	"Title",
	"Companies",
	"Tags",
	"Attempts",
	"Last Error",
	"Created At",
	"Updated At",
	"Summary JSON",
}

// Build lays out records one per row below a header row.
func Build(records []*model.Record) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, name := range header {
		headerRow.AddCell().Value = name
	}

	for _, r := range records {
		summaryJSON := ""
		var title string
		var companies, tags []string
		if r.Summary != nil {
			data, err := json.Marshal(r.Summary)
			if err != nil {
				return nil, fmt.Errorf("encode summary of %s: %w", r.Key(), err)
			}
			summaryJSON = string(data)
			title = r.Summary.Title
			companies = r.Summary.Companies
			tags = r.Summary.Tags
		}

		row := sheet.AddRow()
		row.AddCell().Value = r.Key()
		row.AddCell().Value = r.Identity.Platform
		row.AddCell().Value = r.Identity.ContentID
		row.AddCell().Value = r.Recipient
		row.AddCell().Value = r.SourceURL
		row.AddCell().Value = string(r.Status)
		row.AddCell().Value = string(r.Category)
		row.AddCell().Value = title
		row.AddCell().Value = strings.Join(companies, ", ")
		row.AddCell().Value = strings.Join(tags, ", ")
		row.AddCell().SetInt(r.Attempts)
		row.AddCell().Value = r.LastError
		row.AddCell().Value = r.CreatedAt.UTC().Format(time.RFC3339)
		row.AddCell().Value = r.UpdatedAt.UTC().Format(time.RFC3339)
		row.AddCell().Value = summaryJSON
	}
	return file, nil
}

// ToExcel writes records to outputFilePath.
func ToExcel(records []*model.Record, outputFilePath string) error {
	file, err := Build(records)
	if err != nil {
		return err
	}
	if err := file.Save(outputFilePath); err != nil {
		return fmt.Errorf("save %s: %w", outputFilePath, err)
	}
	return nil
}

// Write streams the workbook to w.
func Write(w io.Writer, records []*model.Record) error {
	file, err := Build(records)
	if err != nil {
		return err
	}
	return file.Write(w)
}
