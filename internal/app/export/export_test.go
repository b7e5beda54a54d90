package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"reel-digest/internal/app/model"
)

func sampleRecords() []*model.Record {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	done := model.NewPendingRecord(model.Identity{Platform: model.PlatformInstagram, ContentID: "C8xYz"}, "chat-1", "https://www.instagram.com/reel/C8xYz/", created)
	done.Status = model.StatusSucceeded
	done.Category = model.CategoryCompany
	done.Summary = &model.StructuredSummary{
		Type:      model.TypeCompanies,
		Tags:      []string{"climate", "funding"},
		Summaries: []model.CompanySummary{{CompanyName: "Crux", Notes: "Raised a seed round."}},
		Companies: []string{"Crux"},
	}
	done.UpdatedAt = created.Add(time.Minute)

	failed := model.NewPendingRecord(model.Identity{Platform: model.PlatformInstagram, ContentID: "D1"}, "chat-2", "", created)
	failed.Status = model.StatusFailedPermanent
	failed.Attempts = 2
	failed.LastError = "transcript is empty"

	return []*model.Record{done, failed}
}

func TestToExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.xlsx")
	require.NoError(t, ToExcel(sampleRecords(), path))

	file, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	assert.Equal(t, SheetName, sheet.Name)
	require.Len(t, sheet.Rows, 3)

	cell := func(row, col int) string { return sheet.Rows[row].Cells[col].Value }

	assert.Equal(t, "Key", cell(0, 0))
	assert.Equal(t, "Summary JSON", cell(0, len(header)-1))

	assert.Equal(t, "instagram:C8xYz", cell(1, 0))
	assert.Equal(t, "succeeded", cell(1, 5))
	assert.Equal(t, "company", cell(1, 6))
	assert.Equal(t, "Crux", cell(1, 8))
	assert.Equal(t, "climate, funding", cell(1, 9))
	assert.Equal(t, "2025-03-01T12:01:00Z", cell(1, 13))
	assert.Contains(t, cell(1, 14), `"company_name":"Crux"`)

	assert.Equal(t, "instagram:D1", cell(2, 0))
	assert.Equal(t, "failed-permanent", cell(2, 5))
	assert.Equal(t, "2", cell(2, 10))
	assert.Equal(t, "transcript is empty", cell(2, 11))
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	assert.Len(t, file.Sheets[0].Rows, 1)
}
