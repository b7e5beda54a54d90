package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	apperrors "reel-digest/internal/app/errors"
)

func TestTelegramNotifierSend(t *testing.T) {
	var got sendMessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	n, err := NewTelegramNotifier(server.URL+"/", "TOKEN", server.Client())
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), "42", "*hello*"))
	assert.Equal(t, "42", got.ChatID)
	assert.Equal(t, "*hello*", got.Text)
	assert.Equal(t, "Markdown", got.ParseMode)
}

func TestTelegramNotifierErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   apperrors.Kind
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, body: `{"ok":false,"error_code":429,"description":"Too Many Requests"}`, want: apperrors.KindTransientProvider},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`, want: apperrors.KindTransientProvider},
		{name: "chat not found", status: http.StatusBadRequest, body: `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`, want: apperrors.KindPermanentProvider},
		{name: "blocked", status: http.StatusForbidden, body: `{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`, want: apperrors.KindPermanentProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			n, err := NewTelegramNotifier(server.URL, "TOKEN", server.Client())
			require.NoError(t, err)

			err = n.Send(context.Background(), "42", "hi")
			require.Error(t, err)
			assert.Equal(t, tt.want, apperrors.KindOf(err))
		})
	}
}

func TestTelegramNotifierFallsBackToPlainText(t *testing.T) {
	var (
		mu    sync.Mutex
		modes []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var msg sendMessageRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		mu.Lock()
		modes = append(modes, msg.ParseMode)
		mu.Unlock()
		if msg.ParseMode != "" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: can't parse entities: Can't find end of the entity"}`))
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	n, err := NewTelegramNotifier(server.URL, "TOKEN", server.Client())
	require.NoError(t, err)

	require.NoError(t, n.Send(context.Background(), "42", "*broken"))
	assert.Equal(t, []string{"Markdown", ""}, modes)
}

func TestNewTelegramNotifierRequiresToken(t *testing.T) {
	_, err := NewTelegramNotifier("", "", nil)
	assert.ErrorIs(t, err, apperrors.ErrMissingAPIKey)
}

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subject = subject
	p.data = data
	return nil
}

func TestNATSNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := NewNATSNotifier(pub, "")

	require.NoError(t, n.Send(context.Background(), "42", "hello"))
	assert.Equal(t, DefaultSubject, pub.subject)

	var msg Message
	require.NoError(t, json.Unmarshal(pub.data, &msg))
	assert.Equal(t, "42", msg.Recipient)
	assert.Equal(t, "hello", msg.Text)
	assert.False(t, msg.SentAt.IsZero())
}

func TestNATSNotifierErrors(t *testing.T) {
	n := NewNATSNotifier(&fakePublisher{err: nats.ErrConnectionClosed}, "reels.out")
	err := n.Send(context.Background(), "42", "hello")
	assert.Equal(t, apperrors.KindTransientProvider, apperrors.KindOf(err))

	n = NewNATSNotifier(&fakePublisher{err: nats.ErrMaxPayload}, "reels.out")
	err = n.Send(context.Background(), "42", "hello")
	assert.Equal(t, apperrors.KindPermanentProvider, apperrors.KindOf(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = NewNATSNotifier(&fakePublisher{}, "").Send(ctx, "42", "hello")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Send(context.Background(), "42", "hello"))

	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].ContextMap()["recipient"])
}
