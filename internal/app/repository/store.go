// Package repository defines the result store the pipeline persists
// request state to.
package repository

import (
	"context"

	"reel-digest/internal/app/model"
)

// ResultStore persists one Record per request identity. Implementations
// return errors of kind StoreUnavailable for backend failures and
// apperrors.ErrRecordNotFound when an update targets a missing record.
type ResultStore interface {
	// Get returns the record for key, or nil and no error when absent.
	Get(ctx context.Context, key string) (*model.Record, error)

	// InsertIfAbsent atomically writes rec unless a record with the same
	// key exists. It reports whether rec was written.
	InsertIfAbsent(ctx context.Context, rec *model.Record) (bool, error)

	// CompareAndSwapStatus moves the record from one status to another only
	// if it is currently in from. Moving a record back to pending counts as
	// a new attempt.
	CompareAndSwapStatus(ctx context.Context, key string, from, to model.Status) (bool, error)

	// SetStatus unconditionally sets the status and last error.
	SetStatus(ctx context.Context, key string, status model.Status, lastErr string) error

	// SaveTranscript stores the transcript and caption so a resumed
	// request does not transcribe again.
	SaveTranscript(ctx context.Context, key, transcript, caption string) error

	// SaveSummary stores the category and validated summary together with
	// the new status. summary is nil for the empty company result.
	SaveSummary(ctx context.Context, key string, category model.Category, summary *model.StructuredSummary, status model.Status) error

	// List returns records ordered by creation time, oldest first.
	List(ctx context.Context, filter ListFilter) ([]*model.Record, error)

	Close() error
}

// ListFilter narrows List. Zero values match everything.
type ListFilter struct {
	Status    model.Status
	Recipient string
	Limit     int
}

// Match reports whether rec passes the filter.
func (f ListFilter) Match(rec *model.Record) bool {
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	if f.Recipient != "" && rec.Recipient != f.Recipient {
		return false
	}
	return true
}
