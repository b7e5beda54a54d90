// Package storetest holds the behaviour every ResultStore implementation
// must share. Backend packages call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/repository"
)

// Factory returns an empty store. Cleanup is registered on t.
type Factory func(t *testing.T) repository.ResultStore

// Run executes the shared suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("get missing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("insert if absent", func(t *testing.T) { testInsertIfAbsent(t, newStore(t)) })
	t.Run("concurrent insert has one winner", func(t *testing.T) { testConcurrentInsert(t, newStore(t)) })
	t.Run("compare and swap", func(t *testing.T) { testCompareAndSwap(t, newStore(t)) })
	t.Run("save transcript and summary", func(t *testing.T) { testSaveSummary(t, newStore(t)) })
	t.Run("empty summary", func(t *testing.T) { testEmptySummary(t, newStore(t)) })
	t.Run("updates on missing record", func(t *testing.T) { testMissingUpdates(t, newStore(t)) })
	t.Run("list", func(t *testing.T) { testList(t, newStore(t)) })
}

// NewRecord builds a pending record with a fixed creation time.
func NewRecord(contentID string, created time.Time) *model.Record {
	id := model.Identity{Platform: model.PlatformInstagram, ContentID: contentID}
	return model.NewPendingRecord(id, "chat-1", "https://www.instagram.com/reel/"+contentID+"/", created)
}

func companySummary() *model.StructuredSummary {
	return &model.StructuredSummary{
		Type: model.TypeCompanies,
		Tags: []string{"climate", "funding"},
		Summaries: []model.CompanySummary{{
			CompanyName: "Crux",
			Location:    "San Francisco",
			Industry:    "Clean Energy",
			Funding:     "Seed - $5M",
			Notes:       "Raised a seed round.",
		}},
		Companies: []string{"Crux"},
	}
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testGetMissing(t *testing.T, s repository.ResultStore) {
	rec, err := s.Get(context.Background(), "instagram:missing")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func testInsertIfAbsent(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	rec := NewRecord("abc", base)

	inserted, err := s.InsertIfAbsent(ctx, rec)
	require.NoError(t, err)
	assert.True(t, inserted)

	again := NewRecord("abc", base.Add(time.Hour))
	again.Recipient = "chat-2"
	inserted, err = s.InsertIfAbsent(ctx, again)
	require.NoError(t, err)
	assert.False(t, inserted)

	got, err := s.Get(ctx, rec.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "chat-1", got.Recipient, "first writer wins")
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 1, got.Attempts)
	assert.Equal(t, rec.Identity, got.Identity)
	assert.Equal(t, rec.SourceURL, got.SourceURL)
	assert.True(t, base.Equal(got.CreatedAt))
}

func testConcurrentInsert(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	const workers = 8

	var wg sync.WaitGroup
	wins := make(chan int, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := NewRecord("race", base)
			rec.Recipient = fmt.Sprintf("chat-%d", i)
			inserted, err := s.InsertIfAbsent(ctx, rec)
			assert.NoError(t, err)
			if inserted {
				wins <- i
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	assert.Equal(t, 1, count)
}

func testCompareAndSwap(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	rec := NewRecord("cas", base)
	_, err := s.InsertIfAbsent(ctx, rec)
	require.NoError(t, err)

	swapped, err := s.CompareAndSwapStatus(ctx, rec.Key(), model.StatusSucceededNotNotified, model.StatusNotifying)
	require.NoError(t, err)
	assert.False(t, swapped, "status does not match")

	require.NoError(t, s.SetStatus(ctx, rec.Key(), model.StatusFailedTransient, "provider timeout"))

	swapped, err = s.CompareAndSwapStatus(ctx, rec.Key(), model.StatusFailedTransient, model.StatusPending)
	require.NoError(t, err)
	assert.True(t, swapped)

	swapped, err = s.CompareAndSwapStatus(ctx, rec.Key(), model.StatusFailedTransient, model.StatusPending)
	require.NoError(t, err)
	assert.False(t, swapped, "second claimant loses")

	got, err := s.Get(ctx, rec.Key())
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, 2, got.Attempts, "resuming counts as a new attempt")
	assert.Equal(t, "provider timeout", got.LastError)

	swapped, err = s.CompareAndSwapStatus(ctx, "instagram:nope", model.StatusPending, model.StatusSucceeded)
	require.NoError(t, err)
	assert.False(t, swapped)
}

func testSaveSummary(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	rec := NewRecord("sum", base)
	_, err := s.InsertIfAbsent(ctx, rec)
	require.NoError(t, err)

	require.NoError(t, s.SaveTranscript(ctx, rec.Key(), "we raised a seed round", "#climate"))
	require.NoError(t, s.SetStatus(ctx, rec.Key(), model.StatusFailedTransient, "boom"))
	require.NoError(t, s.SaveSummary(ctx, rec.Key(), model.CategoryCompany, companySummary(), model.StatusSucceededNotNotified))

	got, err := s.Get(ctx, rec.Key())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "we raised a seed round", got.Transcript)
	assert.Equal(t, "#climate", got.Caption)
	assert.Equal(t, model.CategoryCompany, got.Category)
	assert.Equal(t, model.StatusSucceededNotNotified, got.Status)
	assert.Empty(t, got.LastError)
	assert.Equal(t, companySummary(), got.Summary)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))
}

func testEmptySummary(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	rec := NewRecord("empty", base)
	_, err := s.InsertIfAbsent(ctx, rec)
	require.NoError(t, err)

	require.NoError(t, s.SaveSummary(ctx, rec.Key(), model.CategoryCompany, nil, model.StatusSucceededEmpty))

	got, err := s.Get(ctx, rec.Key())
	require.NoError(t, err)
	assert.Nil(t, got.Summary)
	assert.Equal(t, model.StatusSucceededEmpty, got.Status)
	assert.Equal(t, model.CategoryCompany, got.Category)
}

func testMissingUpdates(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	key := "instagram:ghost"

	assert.ErrorIs(t, s.SetStatus(ctx, key, model.StatusSucceeded, ""), apperrors.ErrRecordNotFound)
	assert.ErrorIs(t, s.SaveTranscript(ctx, key, "t", ""), apperrors.ErrRecordNotFound)
	assert.ErrorIs(t, s.SaveSummary(ctx, key, model.CategoryGeneral, nil, model.StatusSucceeded), apperrors.ErrRecordNotFound)
}

func testList(t *testing.T, s repository.ResultStore) {
	ctx := context.Background()
	for i, id := range []string{"c", "a", "b"} {
		rec := NewRecord(id, base.Add(time.Duration(i)*time.Minute))
		_, err := s.InsertIfAbsent(ctx, rec)
		require.NoError(t, err)
	}
	require.NoError(t, s.SetStatus(ctx, "instagram:a", model.StatusSucceeded, ""))

	all, err := s.List(ctx, repository.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "instagram:c", all[0].Key())
	assert.Equal(t, "instagram:a", all[1].Key())
	assert.Equal(t, "instagram:b", all[2].Key())

	pending, err := s.List(ctx, repository.ListFilter{Status: model.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	limited, err := s.List(ctx, repository.ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "instagram:c", limited[0].Key())

	none, err := s.List(ctx, repository.ListFilter{Recipient: "someone-else"})
	require.NoError(t, err)
	assert.Empty(t, none)
}
