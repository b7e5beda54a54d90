package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	apperrors "reel-digest/internal/app/errors"
)

// DefaultSubject is the subject results are published on.
const DefaultSubject = "reels.notifications"

// Publisher is the part of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON payload published for each notification.
type Message struct {
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// NATSNotifier publishes notifications for another service to deliver.
type NATSNotifier struct {
	pub     Publisher
	subject string
}

func NewNATSNotifier(pub Publisher, subject string) *NATSNotifier {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSNotifier{pub: pub, subject: subject}
}

// ConnectNATS dials url with the options the service uses.
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("reel-digest"),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	return conn, nil
}

func (n *NATSNotifier) Send(ctx context.Context, recipient, text string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Transient(err, "nats publish")
	}
	data, err := json.Marshal(Message{Recipient: recipient, Text: text, SentAt: time.Now().UTC()})
	if err != nil {
		return apperrors.Wrap(err, apperrors.KindInternal, "encode notification")
	}
	if err := n.pub.Publish(n.subject, data); err != nil {
		if err == nats.ErrBadSubject || err == nats.ErrMaxPayload {
			return apperrors.Permanent(err, "nats publish")
		}
		return apperrors.Transient(err, "nats publish")
	}
	return nil
}
