package reel

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	apperrors "reel-digest/internal/app/errors"
)

// CaptionFetcher reads a reel's caption from the Open Graph description of
// its public page.
type CaptionFetcher struct {
	client    *http.Client
	userAgent string
}

// NewCaptionFetcher creates a fetcher. A nil client gets a 10s timeout.
func NewCaptionFetcher(client *http.Client) *CaptionFetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &CaptionFetcher{
		client:    client,
		userAgent: "Mozilla/5.0 (compatible; reel-digest/1.0)",
	}
}

// Caption returns the og:description of pageURL, or "" when the page has
// none.
func (f *CaptionFetcher) Caption(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindPermanentProvider, "build caption request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", apperrors.Transient(err, "fetch caption")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("status %d from %s", resp.StatusCode, pageURL)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", apperrors.Transient(err, "fetch caption")
		}
		return "", apperrors.Permanent(err, "fetch caption")
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", apperrors.Transient(err, "parse caption page")
	}

	for _, sel := range []string{`meta[property="og:description"]`, `meta[name="description"]`} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok && strings.TrimSpace(content) != "" {
			return strings.TrimSpace(content), nil
		}
	}
	return "", nil
}
