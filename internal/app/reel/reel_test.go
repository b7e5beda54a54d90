package reel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
)

func TestShortcode(t *testing.T) {
	tests := []struct {
		text string
		code string
		ok   bool
	}{
		{text: "https://www.instagram.com/reel/C8xYz_1-a/", code: "C8xYz_1-a", ok: true},
		{text: "look at this https://www.instagram.com/reel/ABC123?igsh=xyz", code: "ABC123", ok: true},
		{text: "https://instagram.com/reel/ABC123/", ok: false},
		{text: "https://www.instagram.com/p/ABC123/", ok: false},
		{text: "hello there", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			code, ok := Shortcode(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.code, code)
		})
	}
}

func TestIsReelLink(t *testing.T) {
	assert.True(t, IsReelLink("https://instagram.com/reel/ABC/"))
	assert.False(t, IsReelLink("just text"))
}

func TestIdentityFromText(t *testing.T) {
	id, url, err := IdentityFromText("https://www.instagram.com/reel/C8xYz/?utm=1")
	require.NoError(t, err)
	assert.Equal(t, model.Identity{Platform: model.PlatformInstagram, ContentID: "C8xYz"}, id)
	assert.Equal(t, "https://www.instagram.com/reel/C8xYz/", url)

	_, _, err = IdentityFromText("https://instagram.com/reel/")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidIdentity)
	assert.Equal(t, apperrors.KindPermanentProvider, apperrors.KindOf(err))
}

func TestMediaLocator(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("media"), 0o644))
		return path
	}
	downloaded := write("2025-01-0112:00:00_creator_reel_C8xYz.mp4")
	plain := write("ABC.m4a")
	write("other.mp4")

	l := MediaLocator{Dir: dir}

	got, err := l.Find("C8xYz")
	require.NoError(t, err)
	assert.Equal(t, downloaded, got)

	got, err = l.Find("ABC")
	require.NoError(t, err)
	assert.Equal(t, plain, got)

	_, err = l.Find("missing")
	require.Error(t, err)
	assert.Equal(t, apperrors.KindPermanentProvider, apperrors.KindOf(err))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = MediaLocator{}.Find("C8xYz")
	assert.Error(t, err)
}

func TestCaption(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr apperrors.Kind
	}{
		{
			name:   "og description",
			status: http.StatusOK,
			body:   `<html><head><meta property="og:description" content=" 12 likes - crux on Instagram: Seed round! "></head></html>`,
			want:   "12 likes - crux on Instagram: Seed round!",
		},
		{
			name:   "falls back to description",
			status: http.StatusOK,
			body:   `<html><head><meta name="description" content="plain description"></head></html>`,
			want:   "plain description",
		},
		{
			name:   "no caption",
			status: http.StatusOK,
			body:   `<html><head><title>x</title></head></html>`,
			want:   "",
		},
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: apperrors.KindTransientProvider},
		{name: "not found", status: http.StatusNotFound, wantErr: apperrors.KindPermanentProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.NotEmpty(t, r.Header.Get("User-Agent"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			got, err := NewCaptionFetcher(server.Client()).Caption(context.Background(), server.URL)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, apperrors.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
