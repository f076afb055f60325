package test

import (
	"database/sql/driver"
	"time"

	"audiobook-studio/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
)

var (
	BookColumns         = []string{"id", "user_id", "title", "introduction", "feed_token", "created_at", "updated_at"}
	ChapterColumns      = []string{"id", "book_id", "title", "content", "chapter_order", "created_at", "updated_at"}
	AudioJobColumns     = []string{"id", "job_id", "status", "voice_id", "voice_name", "text", "content_type", "book_id", "chapter_id", "audio_url", "error_message", "created_at", "updated_at"}
	GenerationColumns   = []string{"id", "status", "voice_id", "voice_name", "text_length", "job_id", "audio_url", "error_message", "content_type", "book_id", "chapter_id", "created_at", "updated_at"}
	ChapterAudioColumns = []string{"generation_id", "chapter_id", "chapter_title", "chapter_order", "chapter_created_at", "audio_url", "updated_at"}
)

func BookRows(books ...models.Book) *sqlmock.Rows {
	rows := sqlmock.NewRows(BookColumns)
	for _, b := range books {
		rows.AddRow(b.ID, b.UserID, b.Title, str(b.Introduction), b.FeedToken, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

func ChapterRows(chapters ...models.Chapter) *sqlmock.Rows {
	rows := sqlmock.NewRows(ChapterColumns)
	for _, c := range chapters {
		rows.AddRow(c.ID, c.BookID, c.Title, c.Content, c.Order, c.CreatedAt, c.UpdatedAt)
	}
	return rows
}

func AudioJobRows(jobs ...models.AudioJob) *sqlmock.Rows {
	rows := sqlmock.NewRows(AudioJobColumns)
	for _, j := range jobs {
		rows.AddRow(j.ID, j.JobID, string(j.Status), j.VoiceID, j.VoiceName, j.Text, string(j.ContentType), j.BookID, str(j.ChapterID), str(j.AudioURL), str(j.ErrorMessage), j.CreatedAt, j.UpdatedAt)
	}
	return rows
}

func GenerationRows(gens ...models.AudioGeneration) *sqlmock.Rows {
	rows := sqlmock.NewRows(GenerationColumns)
	for _, g := range gens {
		rows.AddRow(g.ID, string(g.Status), g.VoiceID, g.VoiceName, g.TextLength, str(g.JobID), str(g.AudioURL), str(g.ErrorMessage), string(g.ContentType), g.BookID, str(g.ChapterID), g.CreatedAt, g.UpdatedAt)
	}
	return rows
}

func ChapterAudioRows(audios ...models.ChapterAudio) *sqlmock.Rows {
	rows := sqlmock.NewRows(ChapterAudioColumns)
	for _, a := range audios {
		rows.AddRow(a.GenerationID, a.ChapterID, a.ChapterTitle, a.ChapterOrder, a.ChapterCreatedAt, a.AudioURL, a.UpdatedAt)
	}
	return rows
}

// str turns a nullable column into a driver value.
func str(p *string) driver.Value {
	if p == nil {
		return nil
	}
	return *p
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}

// Fixed is a stable timestamp for rows built in tests.
var Fixed = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
