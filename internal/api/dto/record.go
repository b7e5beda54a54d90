package dto

import (
	"time"

	"reel-digest/internal/api/errors"
	"reel-digest/internal/app/model"
)

// RecordResponse represents a persisted record in API responses
type RecordResponse struct {
	Key       string                   `json:"key"`
	Platform  string                   `json:"platform"`
	ContentID string                   `json:"content_id"`
	Recipient string                   `json:"recipient"`
	SourceURL string                   `json:"source_url,omitempty"`
	Status    model.Status             `json:"status"`
	Category  model.Category           `json:"category,omitempty"`
	Summary   *model.StructuredSummary `json:"summary,omitempty"`
	Attempts  int                      `json:"attempts"`
	LastError string                   `json:"last_error,omitempty"`
	CreatedAt time.Time                `json:"created_at"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// NewRecordResponse converts a record. The transcript is left out.
func NewRecordResponse(r *model.Record) RecordResponse {
	return RecordResponse{
		Key:       r.Key(),
		Platform:  r.Identity.Platform,
		ContentID: r.Identity.ContentID,
		Recipient: r.Recipient,
		SourceURL: r.SourceURL,
		Status:    r.Status,
		Category:  r.Category,
		Summary:   r.Summary,
		Attempts:  r.Attempts,
		LastError: r.LastError,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ListRecordsQuery filters GET /records
type ListRecordsQuery struct {
	Status    string `form:"status"`
	Recipient string `form:"recipient"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

var listableStatuses = map[model.Status]bool{
	model.StatusPending:              true,
	model.StatusSucceededNotNotified: true,
	model.StatusNotifying:            true,
	model.StatusSucceeded:            true,
	model.StatusSucceededEmpty:       true,
	model.StatusFailedTransient:      true,
	model.StatusFailedPermanent:      true,
}

// Validate performs domain-specific validation
func (q *ListRecordsQuery) Validate() error {
	if q.Status != "" && !listableStatuses[model.Status(q.Status)] {
		return errors.NewValidationError("Invalid records query", map[string]string{
			"status": "unknown status",
		})
	}
	return nil
}

// ListRecordsResponse is the body of GET /records
type ListRecordsResponse struct {
	Records []RecordResponse `json:"records"`
	Count   int              `json:"count"`
}
