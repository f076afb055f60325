package db

import (
	"context"
	"time"

	"audiobook-studio/internal/models"
)

// UpsertAudioGeneration creates the slot row or overwrites it in place. The
// conflict target is the slot key, so the row id is stable across
// regenerations.
func UpsertAudioGeneration(ctx context.Context, g models.AudioGeneration) (models.AudioGeneration, error) {
	saved := models.AudioGeneration{}
	err := DB.GetContext(ctx, &saved, `
		INSERT INTO audio_generations (book_id, chapter_id, content_type, status, voice_id, voice_name, text_length, job_id, audio_url, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (book_id, (COALESCE(chapter_id, '')), content_type) DO UPDATE SET
			status = EXCLUDED.status,
			voice_id = EXCLUDED.voice_id,
			voice_name = EXCLUDED.voice_name,
			text_length = EXCLUDED.text_length,
			job_id = EXCLUDED.job_id,
			audio_url = EXCLUDED.audio_url,
			error_message = EXCLUDED.error_message,
			updated_at = NOW()
		RETURNING *`,
		g.BookID, g.ChapterID, g.ContentType, g.Status, g.VoiceID, g.VoiceName, g.TextLength, g.JobID, g.AudioURL, g.ErrorMessage)
	return saved, err
}

func GetAudioGenerationForSlot(ctx context.Context, bookID string, chapterID *string, contentType models.ContentType) (models.AudioGeneration, error) {
	chapterKey := ""
	if chapterID != nil {
		chapterKey = *chapterID
	}
	g := models.AudioGeneration{}
	err := DB.GetContext(ctx, &g, `
		SELECT * FROM audio_generations
		WHERE book_id = $1 AND COALESCE(chapter_id, '') = $2 AND content_type = $3`,
		bookID, chapterKey, contentType)
	return g, err
}

func GetAudioGenerationsByBookID(ctx context.Context, bookID string) ([]models.AudioGeneration, error) {
	var generations []models.AudioGeneration
	err := DB.SelectContext(ctx, &generations, "SELECT * FROM audio_generations WHERE book_id = $1 ORDER BY content_type, id", bookID)
	return generations, err
}

// UpdateAudioGenerationStatusByJobID only touches the slot while it still
// belongs to jobID. The returned count is zero once a newer job owns it.
func UpdateAudioGenerationStatusByJobID(ctx context.Context, jobID string, status models.AudioStatus) (int64, error) {
	res, err := DB.ExecContext(ctx, "UPDATE audio_generations SET status = $1, updated_at = NOW() WHERE job_id = $2", status, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func CompleteAudioGenerationByJobID(ctx context.Context, jobID string, audioURL string) (int64, error) {
	res, err := DB.ExecContext(ctx, `
		UPDATE audio_generations
		SET status = 'COMPLETED', audio_url = $1, error_message = NULL, updated_at = NOW()
		WHERE job_id = $2`,
		audioURL, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func FailAudioGenerationByJobID(ctx context.Context, jobID string, errorMessage string) (int64, error) {
	res, err := DB.ExecContext(ctx, `
		UPDATE audio_generations
		SET status = 'FAILED', error_message = $1, updated_at = NOW()
		WHERE job_id = $2`,
		errorMessage, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// FailFullBookGeneration marks the book's FULL_BOOK slot FAILED. A missing
// row is not an error.
func FailFullBookGeneration(ctx context.Context, bookID string, errorMessage string) (int64, error) {
	res, err := DB.ExecContext(ctx, `
		UPDATE audio_generations
		SET status = 'FAILED', error_message = $1, updated_at = NOW()
		WHERE book_id = $2 AND chapter_id IS NULL AND content_type = 'FULL_BOOK'`,
		errorMessage, bookID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetCompletedChapterAudio returns the book's COMPLETED chapter generations
// whose chapter still exists. Callers sort; the query order is incidental.
func GetCompletedChapterAudio(ctx context.Context, bookID string) ([]models.ChapterAudio, error) {
	var audios []models.ChapterAudio
	err := DB.SelectContext(ctx, &audios, `
		SELECT g.id AS generation_id, c.id AS chapter_id, c.title AS chapter_title,
			c.chapter_order, c.created_at AS chapter_created_at, g.audio_url, g.updated_at
		FROM audio_generations g
		JOIN chapters c ON c.id = g.chapter_id
		WHERE g.book_id = $1 AND g.content_type = 'CHAPTER' AND g.status = 'COMPLETED' AND g.audio_url IS NOT NULL`,
		bookID)
	return audios, err
}

func FailStaleAudioGenerations(ctx context.Context, before time.Time, errorMessage string) (int64, error) {
	res, err := DB.ExecContext(ctx, `
		UPDATE audio_generations
		SET status = 'FAILED', error_message = $1, updated_at = NOW()
		WHERE status IN ('PENDING', 'PROCESSING') AND updated_at < $2`,
		errorMessage, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
