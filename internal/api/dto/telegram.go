package dto

import (
	"strconv"
	"strings"
)

// Update is the subset of a Telegram webhook update the bot reads.
type Update struct {
	UpdateID int64    `json:"update_id" binding:"required"`
	Message  *Message `json:"message,omitempty"`
}

// Message is an incoming chat message.
type Message struct {
	MessageID int64  `json:"message_id"`
	Chat      Chat   `json:"chat"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`
}

// Chat identifies the conversation a message belongs to.
type Chat struct {
	ID   int64  `json:"id" binding:"required"`
	Type string `json:"type,omitempty"`
}

// Recipient is the chat id in the form the notifiers take.
func (m *Message) Recipient() string {
	return strconv.FormatInt(m.Chat.ID, 10)
}

// Body returns the message text, falling back to the media caption.
func (m *Message) Body() string {
	if strings.TrimSpace(m.Text) != "" {
		return strings.TrimSpace(m.Text)
	}
	return strings.TrimSpace(m.Caption)
}

// IsStart reports the /start command, with or without a bot mention.
func (m *Message) IsStart() bool {
	cmd, _, _ := strings.Cut(m.Body(), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	return cmd == "/start"
}

// WebhookResponse acknowledges a webhook update.
type WebhookResponse struct {
	Action string `json:"action"`
	Key    string `json:"key,omitempty"`
}

// Webhook actions.
const (
	ActionIgnored  = "ignored"
	ActionGreeted  = "greeted"
	ActionEchoed   = "echoed"
	ActionRejected = "rejected"
	ActionQueued   = "queued"
)
