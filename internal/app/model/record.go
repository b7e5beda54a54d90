package model

import "time"

// Status is the processing state persisted with a Record.
type Status string

const (
	StatusPending              Status = "pending"
	StatusSucceededNotNotified Status = "succeeded-not-notified"
	StatusNotifying            Status = "notifying"
	StatusSucceeded            Status = "succeeded"
	StatusSucceededEmpty       Status = "succeeded-empty"
	StatusFailedTransient      Status = "failed-transient"
	StatusFailedPermanent      Status = "failed-permanent"
)

// Terminal reports whether no further processing will happen for the record.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusSucceededEmpty, StatusFailedPermanent:
		return true
	}
	return false
}

// Record is the persisted state of one Request identity.
type Record struct {
	Identity   Identity           `json:"identity"`
	Recipient  string             `json:"recipient"`
	SourceURL  string             `json:"source_url,omitempty"`
	Category   Category           `json:"category,omitempty"`
	Summary    *StructuredSummary `json:"summary,omitempty"`
	Transcript string             `json:"transcript,omitempty"`
	Caption    string             `json:"caption,omitempty"`
	Status     Status             `json:"status"`
	Attempts   int                `json:"attempts"`
	LastError  string             `json:"last_error,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Key returns the store key of the record.
func (r *Record) Key() string {
	return r.Identity.Key()
}

// NewPendingRecord builds the claim written by the dedup gate.
func NewPendingRecord(id Identity, recipient, sourceURL string, now time.Time) *Record {
	return &Record{
		Identity:  id,
		Recipient: recipient,
		SourceURL: sourceURL,
		Status:    StatusPending,
		Attempts:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
