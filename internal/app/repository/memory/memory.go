// Package memory is an in-process ResultStore for tests and single-run CLI
// use. Records do not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
)

var _ repository.ResultStore = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	records map[string]*model.Record
	now     func() time.Time
}

func New() *Store {
	return &Store{
		records: make(map[string]*model.Record),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Get(_ context.Context, key string) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	return clone(rec), nil
}

func (s *Store) InsertIfAbsent(_ context.Context, rec *model.Record) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.Key()]; ok {
		return false, nil
	}
	s.records[rec.Key()] = clone(rec)
	return true, nil
}

func (s *Store) CompareAndSwapStatus(_ context.Context, key string, from, to model.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	if to == model.StatusPending {
		rec.Attempts++
	}
	rec.UpdatedAt = s.now()
	return true, nil
}

func (s *Store) SetStatus(_ context.Context, key string, status model.Status, lastErr string) error {
	return s.update(key, func(rec *model.Record) {
		rec.Status = status
		rec.LastError = lastErr
	})
}

func (s *Store) SaveTranscript(_ context.Context, key, transcript, caption string) error {
	return s.update(key, func(rec *model.Record) {
		rec.Transcript = transcript
		rec.Caption = caption
	})
}

func (s *Store) SaveSummary(_ context.Context, key string, category model.Category, summary *model.StructuredSummary, status model.Status) error {
	return s.update(key, func(rec *model.Record) {
		rec.Category = category
		rec.Summary = cloneSummary(summary)
		rec.Status = status
		rec.LastError = ""
	})
}

func (s *Store) List(_ context.Context, filter repository.ListFilter) ([]*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.Record, 0, len(s.records))
	for _, rec := range s.records {
		if filter.Match(rec) {
			out = append(out, clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Key() < out[j].Key()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) update(key string, fn func(rec *model.Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return apperrors.ErrRecordNotFound
	}
	fn(rec)
	rec.UpdatedAt = s.now()
	return nil
}

func clone(rec *model.Record) *model.Record {
	c := *rec
	c.Summary = cloneSummary(rec.Summary)
	return &c
}

func cloneSummary(s *model.StructuredSummary) *model.StructuredSummary {
	if s == nil {
		return nil
	}
	c := *s
	c.Tags = append([]string(nil), s.Tags...)
	c.Summaries = append([]model.CompanySummary(nil), s.Summaries...)
	c.Companies = append([]string(nil), s.Companies...)
	c.Normalize()
	return &c
}
