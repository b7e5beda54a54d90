package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityKeyRoundTrip(t *testing.T) {
	id := Identity{Platform: PlatformInstagram, ContentID: "C8xYz"}
	assert.Equal(t, "instagram:C8xYz", id.Key())

	parsed, err := ParseIdentity(id.Key())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	for _, bad := range []string{"", "instagram", "instagram:", ":abc"} {
		_, err := ParseIdentity(bad)
		assert.Error(t, err, bad)
	}
}

func TestRequestInput(t *testing.T) {
	r := Request{Transcript: "hello"}
	assert.Equal(t, "hello", r.Input())

	r.Caption = "#startup"
	assert.Equal(t, "hello Caption: #startup", r.Input())
}

func TestParseCategory(t *testing.T) {
	tests := map[string]Category{
		"company":      CategoryCompany,
		"companies":    CategoryCompany,
		" Technology ": CategoryTechnology,
		"TIPS":         CategoryTips,
		"general":      CategoryGeneral,
	}
	for in, want := range tests {
		got, err := ParseCategory(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCategory("music")
	assert.Error(t, err)
}

func TestCategorySummaryType(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid())
		s := &StructuredSummary{Type: c.SummaryType()}
		assert.Equal(t, c, s.Category(), "category %s must round trip through its type tag", c)
	}
	assert.Equal(t, TypeCompanies, CategoryCompany.SummaryType())
	assert.False(t, Category("music").Valid())
}

func TestStructuredSummaryNormalize(t *testing.T) {
	s := &StructuredSummary{Type: TypeTechnology, Title: "t", Summary: "s"}
	s.Normalize()

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"technology","title":"t","summary":"s","tags":[],"summaries":[],"companies":[]}`, string(data))
}

func TestStructuredSummaryIsEmpty(t *testing.T) {
	empty := &StructuredSummary{Type: TypeCompanies}
	assert.True(t, empty.IsEmpty())

	found := &StructuredSummary{Type: TypeCompanies, Companies: []string{"Crux"}, Summaries: []CompanySummary{{CompanyName: "Crux", Notes: "n"}}}
	assert.False(t, found.IsEmpty())

	text := &StructuredSummary{Type: TypeGeneral}
	assert.False(t, text.IsEmpty())
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusSucceeded, StatusSucceededEmpty, StatusFailedPermanent}
	open := []Status{StatusPending, StatusSucceededNotNotified, StatusNotifying, StatusFailedTransient}
	for _, s := range terminal {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range open {
		assert.False(t, s.Terminal(), s)
	}
}

func TestNewPendingRecord(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	id := Identity{Platform: PlatformInstagram, ContentID: "abc"}

	r := NewPendingRecord(id, "42", "https://www.instagram.com/reel/abc/", now)

	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, 1, r.Attempts)
	assert.Equal(t, "instagram:abc", r.Key())
	assert.Equal(t, now, r.CreatedAt)
	assert.Equal(t, now, r.UpdatedAt)
}
