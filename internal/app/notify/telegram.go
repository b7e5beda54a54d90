package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "reel-digest/internal/app/errors"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramNotifier sends messages with the Bot API sendMessage method.
type TelegramNotifier struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewTelegramNotifier creates a notifier for the bot token. An empty baseURL
// uses DefaultTelegramAPI.
func NewTelegramNotifier(baseURL, token string, client *http.Client) (*TelegramNotifier, error) {
	if token == "" {
		return nil, apperrors.ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultTelegramAPI
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TelegramNotifier{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  client,
	}, nil
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// Send delivers text as Markdown. When Telegram rejects the Markdown the
// message is sent again as plain text.
func (n *TelegramNotifier) Send(ctx context.Context, recipient, text string) error {
	err := n.send(ctx, sendMessageRequest{ChatID: recipient, Text: text, ParseMode: "Markdown"})
	if err != nil && isEntityParseError(err) {
		return n.send(ctx, sendMessageRequest{ChatID: recipient, Text: text})
	}
	return err
}

func (n *TelegramNotifier) send(ctx context.Context, msg sendMessageRequest) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "encode telegram message")
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "build telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.Transient(err, "telegram sendMessage")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Transient(err, "read telegram response")
	}

	var result telegramResponse
	_ = json.Unmarshal(data, &result)
	if resp.StatusCode == http.StatusOK && result.OK {
		return nil
	}

	cause := fmt.Errorf("telegram status %d: %s", resp.StatusCode, result.Description)
	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode >= 500:
		return apperrors.Transient(cause, "telegram sendMessage")
	default:
		return apperrors.Permanent(cause, "telegram sendMessage")
	}
}

func isEntityParseError(err error) bool {
	return apperrors.IsKind(err, apperrors.KindPermanentProvider) &&
		strings.Contains(err.Error(), "can't parse entities")
}
