package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"reel-digest/internal/app/api"
)

// MockTranscriber is a testify mock of api.Transcriber.
type MockTranscriber struct {
	mock.Mock
}

// NewMockTranscriber creates a MockTranscriber bound to t.
func NewMockTranscriber(t *testing.T) *MockTranscriber {
	m := &MockTranscriber{}
	m.Test(t)
	return m
}

func (m *MockTranscriber) Transcript(ctx context.Context, inputFilePath string) (string, error) {
	args := m.Called(ctx, inputFilePath)
	return args.String(0), args.Error(1)
}

// MockCompleter is a testify mock of api.Completer.
type MockCompleter struct {
	mock.Mock
}

// NewMockCompleter creates a MockCompleter bound to t.
func NewMockCompleter(t *testing.T) *MockCompleter {
	m := &MockCompleter{}
	m.Test(t)
	return m
}

func (m *MockCompleter) Complete(ctx context.Context, req api.CompletionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// ClassificationCall matches the plain-text classification request.
func ClassificationCall() interface{} {
	return mock.MatchedBy(func(req api.CompletionRequest) bool { return !req.JSON })
}

// SummaryCall matches a JSON summary request.
func SummaryCall() interface{} {
	return mock.MatchedBy(func(req api.CompletionRequest) bool { return req.JSON })
}

// MockNotifier is a testify mock of notify.Notifier that also records what
// was sent.
type MockNotifier struct {
	mock.Mock
	mu   sync.Mutex
	sent []SentMessage
}

// SentMessage is one delivered notification.
type SentMessage struct {
	Recipient string
	Text      string
}

// NewMockNotifier creates a MockNotifier bound to t.
func NewMockNotifier(t *testing.T) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	return m
}

func (m *MockNotifier) Send(ctx context.Context, recipient, text string) error {
	args := m.Called(ctx, recipient, text)
	if err := args.Error(0); err != nil {
		return err
	}
	m.mu.Lock()
	m.sent = append(m.sent, SentMessage{Recipient: recipient, Text: text})
	m.mu.Unlock()
	return nil
}

// Sent returns the successfully delivered messages in order.
func (m *MockNotifier) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.sent))
	copy(out, m.sent)
	return out
}
