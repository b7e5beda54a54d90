package summary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"reel-digest/internal/app/api"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
	"reel-digest/internal/app/retry"
	"reel-digest/internal/app/testutil"
)

func fastRetrier() *retry.Retrier {
	return retry.New(retry.Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
		Multiplier:      2,
	}, nil)
}

func TestDefaultPrompts(t *testing.T) {
	p, err := DefaultPrompts()
	require.NoError(t, err)

	assert.Contains(t, p.Classification, "companies")
	for _, c := range model.Categories {
		contract, err := p.Contract(c)
		require.NoError(t, err)
		assert.Equal(t, c, contract.Category)
		assert.Contains(t, contract.Prompt, `"type": "`+string(c.SummaryType())+`"`)
	}
}

func TestParsePromptsRejectsIncompleteDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "not yaml", doc: "classification: [unclosed"},
		{name: "no classification", doc: "contracts: {}"},
		{
			name: "missing contract",
			doc: `classification: label it
contracts:
  company: {prompt: a}
  technology: {prompt: b}
  tips: {prompt: c}
`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePrompts([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadPromptsFromFile(t *testing.T) {
	doc := `classification: label it
reformulation: "fix {{violation}}"
contracts:
  company: {prompt: a}
  technology: {prompt: b}
  tips: {prompt: c}
  general: {prompt: d}
`
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	p, err := LoadPrompts(path)
	require.NoError(t, err)
	assert.Equal(t, "label it", p.Classification)

	contract, err := p.Contract(model.CategoryTips)
	require.NoError(t, err)
	assert.Equal(t, "c", contract.Prompt)

	_, err = LoadPrompts(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestReformulate(t *testing.T) {
	p, err := DefaultPrompts()
	require.NoError(t, err)

	out := p.Reformulate("base prompt", apperrors.RequiredField("summaries[0].notes"))
	assert.True(t, len(out) > len("base prompt"))
	assert.Contains(t, out, "base prompt")
	assert.Contains(t, out, "summaries[0].notes: is required")
	assert.NotContains(t, out, "{{violation}}")
}

func TestSummarize(t *testing.T) {
	prompts, err := DefaultPrompts()
	require.NoError(t, err)

	completer := testutil.NewMockCompleter(t)
	completer.On("Complete", mock.Anything, testutil.SummaryCall()).
		Return(testutil.CompanySummaryJSON, nil).Once()

	set, err := NewSet(prompts, completer, fastRetrier())
	require.NoError(t, err)

	s, err := set.For(model.CategoryCompany)
	require.NoError(t, err)
	assert.Equal(t, model.CategoryCompany, s.Category())

	raw, err := s.Summarize(context.Background(), Input{Transcript: testutil.CompanyTranscript, Caption: "#climate"})
	require.NoError(t, err)
	assert.Equal(t, testutil.CompanySummaryJSON, raw)

	req := completer.Calls[0].Arguments.Get(1).(api.CompletionRequest)
	contract, _ := prompts.Contract(model.CategoryCompany)
	assert.Equal(t, contract.Prompt, req.Prompt)
	assert.Equal(t, testutil.CompanyTranscript+" Caption: #climate", req.Input)
	assert.True(t, req.JSON)
}

func TestSummarizeReformulation(t *testing.T) {
	prompts, err := DefaultPrompts()
	require.NoError(t, err)

	completer := testutil.NewMockCompleter(t)
	completer.On("Complete", mock.Anything, mock.Anything).Return(testutil.TechnologySummaryJSON, nil).Once()

	set, err := NewSet(prompts, completer, fastRetrier())
	require.NoError(t, err)
	s, err := set.For(model.CategoryTechnology)
	require.NoError(t, err)

	violation := apperrors.InvalidField("summary", "expected 4 lines")
	_, err = s.Summarize(context.Background(), Input{Transcript: testutil.TechTranscript, Violation: violation})
	require.NoError(t, err)

	req := completer.Calls[0].Arguments.Get(1).(api.CompletionRequest)
	assert.Contains(t, req.Prompt, "expected 4 lines")
}

func TestSummarizeErrors(t *testing.T) {
	prompts, err := DefaultPrompts()
	require.NoError(t, err)

	t.Run("empty transcript", func(t *testing.T) {
		completer := testutil.NewMockCompleter(t)
		set, err := NewSet(prompts, completer, fastRetrier())
		require.NoError(t, err)
		s, _ := set.For(model.CategoryGeneral)

		_, err = s.Summarize(context.Background(), Input{Transcript: " "})
		assert.ErrorIs(t, err, apperrors.ErrEmptyTranscript)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("transient retried then exhausted", func(t *testing.T) {
		completer := testutil.NewMockCompleter(t)
		completer.On("Complete", mock.Anything, mock.Anything).
			Return("", apperrors.Transient(errors.New("503"), "chat")).Times(3)
		set, err := NewSet(prompts, completer, fastRetrier())
		require.NoError(t, err)
		s, _ := set.For(model.CategoryTips)

		_, err = s.Summarize(context.Background(), Input{Transcript: "tip one"})
		assert.Equal(t, apperrors.KindTransientProvider, apperrors.KindOf(err))
		completer.AssertExpectations(t)
	})

	t.Run("permanent not retried", func(t *testing.T) {
		completer := testutil.NewMockCompleter(t)
		completer.On("Complete", mock.Anything, mock.Anything).
			Return("", apperrors.Permanent(errors.New("400"), "chat")).Once()
		set, err := NewSet(prompts, completer, fastRetrier())
		require.NoError(t, err)
		s, _ := set.For(model.CategoryTips)

		_, err = s.Summarize(context.Background(), Input{Transcript: "tip one"})
		assert.Equal(t, apperrors.KindPermanentProvider, apperrors.KindOf(err))
		completer.AssertExpectations(t)
	})

	t.Run("unknown category", func(t *testing.T) {
		set := Set{}
		_, err := set.For(model.Category("music"))
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	})
}
