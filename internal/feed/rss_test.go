package feed

import (
	"strings"
	"testing"
	"time"

	"audiobook-studio/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBookFeed(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	book := models.Book{ID: "b", Title: "Sea Stories", FeedToken: "tok", CreatedAt: created, UpdatedAt: created}
	chapters := []models.ChapterAudio{
		{ChapterTitle: "Calm", ChapterOrder: 1, AudioURL: "https://cdn.test/one.mp3", UpdatedAt: created.Add(time.Hour)},
		{ChapterTitle: "Storm", ChapterOrder: 2, AudioURL: "https://cdn.test/two.mp3", UpdatedAt: created.Add(2 * time.Hour)},
	}
	full := &models.AudioGeneration{Status: models.AudioStatusCompleted, AudioURL: strPtr("https://cdn.test/full.mp3"), UpdatedAt: created.Add(3 * time.Hour)}

	rss, err := GenerateBookFeed(book, chapters, full, "https://studio.test")
	require.NoError(t, err)

	assert.Contains(t, rss, "<title>Sea Stories</title>")
	assert.Contains(t, rss, "https://studio.test/rss/tok")
	assert.Contains(t, rss, "Chapter 1: Calm")
	assert.Contains(t, rss, `type="audio/mpeg"`)
	one := strings.Index(rss, "one.mp3")
	two := strings.Index(rss, "two.mp3")
	whole := strings.Index(rss, "full.mp3")
	assert.True(t, one < two && two < whole, "items keep narration order with the full book last")
}

func TestGenerateBookFeed_SkipsUnfinishedFullBook(t *testing.T) {
	book := models.Book{Title: "Draft", FeedToken: "tok"}
	full := &models.AudioGeneration{Status: models.AudioStatusProcessing}

	rss, err := GenerateBookFeed(book, nil, full, "https://studio.test")
	require.NoError(t, err)
	assert.NotContains(t, rss, "<item>")
}

func TestUpdated(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	book := models.Book{UpdatedAt: base}
	chapters := []models.ChapterAudio{{UpdatedAt: base.Add(time.Minute)}}

	assert.Equal(t, base.Add(time.Minute), Updated(book, chapters, nil))
	assert.Equal(t, base.Add(time.Hour), Updated(book, chapters, &models.AudioGeneration{UpdatedAt: base.Add(time.Hour)}))
}

func strPtr(s string) *string { return &s }
