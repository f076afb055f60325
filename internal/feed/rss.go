package feed

import (
	"fmt"
	"time"

	"audiobook-studio/internal/models"

	"github.com/eduncan911/podcast"
)

// GenerateBookFeed renders the book's finished narration as a podcast feed.
// chapters must already be in narration order; fullBook may be nil.
func GenerateBookFeed(book models.Book, chapters []models.ChapterAudio, fullBook *models.AudioGeneration, baseURL string) (string, error) {
	updated := Updated(book, chapters, fullBook)
	p := podcast.New(
		book.Title,
		fmt.Sprintf("%s/rss/%s", baseURL, book.FeedToken),
		fmt.Sprintf("Narration of %q.", book.Title),
		&book.CreatedAt, &updated,
	)

	for _, c := range chapters {
		pubDate := c.UpdatedAt
		item := podcast.Item{
			Title:       fmt.Sprintf("Chapter %d: %s", c.ChapterOrder, c.ChapterTitle),
			Description: fmt.Sprintf("%s, chapter %d.", book.Title, c.ChapterOrder),
			PubDate:     &pubDate,
		}
		item.AddEnclosure(c.AudioURL, podcast.MP3, 0)
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	if fullBook != nil && fullBook.Status == models.AudioStatusCompleted && fullBook.AudioURL != nil {
		pubDate := fullBook.UpdatedAt
		item := podcast.Item{
			Title:       fmt.Sprintf("%s (full book)", book.Title),
			Description: fmt.Sprintf("All chapters of %s in one track.", book.Title),
			PubDate:     &pubDate,
		}
		item.AddEnclosure(*fullBook.AudioURL, podcast.MP3, 0)
		if _, err := p.AddItem(item); err != nil {
			return "", err
		}
	}

	return p.String(), nil
}

// Updated is the latest change across the feed items, used for caching headers.
func Updated(book models.Book, chapters []models.ChapterAudio, fullBook *models.AudioGeneration) time.Time {
	latest := book.UpdatedAt
	for _, c := range chapters {
		if c.UpdatedAt.After(latest) {
			latest = c.UpdatedAt
		}
	}
	if fullBook != nil && fullBook.UpdatedAt.After(latest) {
		latest = fullBook.UpdatedAt
	}
	return latest
}
