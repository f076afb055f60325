package audio

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"audiobook-studio/internal/models"
)

const (
	maxTitleSlug = 50
	maxLabelSlug = 30
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespace   = regexp.MustCompile(`\s+`)

	now = time.Now
)

// Slugify lowercases s, drops everything outside [a-z0-9\s-], turns runs of
// whitespace into single hyphens and truncates to max bytes.
func Slugify(s string, max int) string {
	s = nonSlugChars.ReplaceAllString(strings.ToLower(s), "")
	s = whitespace.ReplaceAllString(strings.TrimSpace(s), "-")
	if len(s) > max {
		s = s[:max]
	}
	return s
}

func titleSlug(title string) string {
	if s := Slugify(title, maxTitleSlug); s != "" {
		return s
	}
	return "audiobook"
}

// AudioKey names a single generation: audio/<title>-<label>-<unix_ms>.<ext>.
func AudioKey(title, label, ext string, at time.Time) string {
	return fmt.Sprintf("audio/%s-%s-%d.%s", titleSlug(title), Slugify(label, maxLabelSlug), at.UnixMilli(), ext)
}

// MergedKey names a full-book merge: audio/<title>-merged-<unix_ms>.mp3.
func MergedKey(title string, at time.Time) string {
	return fmt.Sprintf("audio/%s-merged-%d.mp3", titleSlug(title), at.UnixMilli())
}

// SlotLabel is the human part of a file name for the slot a job fills.
func SlotLabel(contentType models.ContentType, chapter *models.Chapter) string {
	switch contentType {
	case models.ContentTypeIntroduction:
		return "introduction"
	case models.ContentTypeFullBook:
		return "full-book"
	}
	if chapter == nil {
		return "chapter"
	}
	return fmt.Sprintf("chapter-%d", chapter.Order)
}
