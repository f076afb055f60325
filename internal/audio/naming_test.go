package audio

import (
	"strings"
	"testing"
	"time"

	"audiobook-studio/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"The Storm: A Novel!", 50, "the-storm-a-novel"},
		{"  Many   spaces\tand\ttabs ", 50, "many-spaces-and-tabs"},
		{"Already-hyphenated title", 50, "already-hyphenated-title"},
		{"Ünïcödé Tïtle", 50, "ncd-ttle"},
		{"Chapter 12", 30, "chapter-12"},
		{strings.Repeat("abc ", 20), 50, "abc-abc-abc-abc-abc-abc-abc-abc-abc-abc-abc-abc-ab"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Slugify(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), tt.max)
			assert.Regexp(t, `^[a-z0-9-]*$`, got)
		})
	}
}

func TestAudioKey(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	assert.Equal(t, "audio/my-book-chapter-2-1700000000123.mp3", AudioKey("My Book", "chapter-2", "mp3", at))
	assert.Equal(t, "audio/audiobook-introduction-1700000000123.mp3", AudioKey("???", "introduction", "mp3", at))
	assert.Equal(t, "audio/my-book-merged-1700000000123.mp3", MergedKey("My Book", at))

	long := AudioKey(strings.Repeat("t", 80), strings.Repeat("l", 80), "mp3", at)
	assert.Equal(t, "audio/"+strings.Repeat("t", 50)+"-"+strings.Repeat("l", 30)+"-1700000000123.mp3", long)
}

func TestSlotLabel(t *testing.T) {
	assert.Equal(t, "introduction", SlotLabel(models.ContentTypeIntroduction, nil))
	assert.Equal(t, "full-book", SlotLabel(models.ContentTypeFullBook, nil))
	assert.Equal(t, "chapter-4", SlotLabel(models.ContentTypeChapter, &models.Chapter{Order: 4}))
	assert.Equal(t, "chapter", SlotLabel(models.ContentTypeChapter, nil))
}
