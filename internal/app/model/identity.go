package model

import (
	"fmt"
	"strings"
	"time"
)

const PlatformInstagram = "instagram"

// Identity uniquely names one video across submissions and is the
// partition key of the result store.
type Identity struct {
	Platform  string `json:"platform"`
	ContentID string `json:"content_id"`
}

// Key returns the store key, e.g. "instagram:C8xYz".
func (id Identity) Key() string {
	return id.Platform + ":" + id.ContentID
}

func (id Identity) String() string {
	return id.Key()
}

// Valid reports whether both parts are set.
func (id Identity) Valid() bool {
	return strings.TrimSpace(id.Platform) != "" && strings.TrimSpace(id.ContentID) != ""
}

// ParseIdentity is the inverse of Identity.Key.
func ParseIdentity(key string) (Identity, error) {
	platform, content, ok := strings.Cut(key, ":")
	id := Identity{Platform: platform, ContentID: content}
	if !ok || !id.Valid() {
		return Identity{}, fmt.Errorf("invalid identity key %q", key)
	}
	return id, nil
}

// Request is one submitted video-to-summary job. It is immutable once built.
type Request struct {
	Identity   Identity
	Recipient  string
	SourceURL  string
	Transcript string
	Caption    string
	ReceivedAt time.Time
}

// Input returns the text handed to the summarizers: the transcript followed
// by the caption when one is present.
func (r Request) Input() string {
	if strings.TrimSpace(r.Caption) == "" {
		return r.Transcript
	}
	return r.Transcript + " Caption: " + r.Caption
}
