// Package reel turns Instagram reel links into request identities and
// gathers the context the pipeline needs for them: the caption and the
// locally downloaded media file.
package reel

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	apperrors "reel-digest/internal/app/errors"
	"reel-digest/internal/app/model"
)

var shortcodePattern = regexp.MustCompile(`https://www\.instagram\.com/reel/([a-zA-Z0-9_-]+)`)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// mediaExtensions are the file types the transcriber accepts.
var mediaExtensions = []string{".mp4", ".m4a", ".mp3", ".wav", ".webm"}

// IsReelLink reports whether text mentions a reel at all. A link can pass
// this check and still fail Shortcode.
func IsReelLink(text string) bool {
	return strings.Contains(text, "instagram.com/reel")
}

// Shortcode extracts the reel code from the first reel URL in text.
func Shortcode(text string) (string, bool) {
	m := shortcodePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IdentityFromText returns the identity and canonical URL of the reel
// linked in text.
func IdentityFromText(text string) (model.Identity, string, error) {
	code, ok := Shortcode(text)
	if !ok {
		return model.Identity{}, "", apperrors.Wrapf(apperrors.ErrInvalidIdentity, apperrors.KindPermanentProvider, "no reel shortcode in %q", text)
	}
	return model.Identity{Platform: model.PlatformInstagram, ContentID: code}, CanonicalURL(code), nil
}

// CanonicalURL is the public page of a reel.
func CanonicalURL(code string) string {
	return "https://www.instagram.com/reel/" + code + "/"
}

// SafeName replaces characters that are unsafe in file names.
func SafeName(code string) string {
	return unsafeChars.ReplaceAllString(code, "_")
}

// MediaLocator finds pre-downloaded reel media in a directory. Files are
// matched by the shortcode either as the whole base name or as the
// "_reel_<code>" suffix written by the downloader.
type MediaLocator struct {
	Dir string
}

// Find returns the path of the media file for code.
func (l MediaLocator) Find(code string) (string, error) {
	if l.Dir == "" {
		return "", apperrors.New(apperrors.KindPermanentProvider, "media directory is not configured")
	}
	name := SafeName(code)

	var matches []string
	for _, ext := range mediaExtensions {
		for _, pattern := range []string{name + ext, "*_reel_" + name + ext} {
			found, err := filepath.Glob(filepath.Join(l.Dir, pattern))
			if err != nil {
				return "", apperrors.Wrap(err, apperrors.KindInternal, "glob media")
			}
			matches = append(matches, found...)
		}
	}
	if len(matches) == 0 {
		return "", apperrors.Wrap(os.ErrNotExist, apperrors.KindPermanentProvider, fmt.Sprintf("no media for reel %s in %s", code, l.Dir))
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
