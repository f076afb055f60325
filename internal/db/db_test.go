package db_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/models"
	"audiobook-studio/internal/test"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("ON audio_generations (book_id, (COALESCE(chapter_id, '')), content_type)")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, db.Migrate())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertAudioGeneration_ConflictsOnSlot(t *testing.T) {
	_, mock := test.NewMockDB(t)
	jobID := "job-1"
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (book_id, (COALESCE(chapter_id, '')), content_type) DO UPDATE")).
		WithArgs("book-1", nil, models.ContentTypeIntroduction, models.AudioStatusPending, "onyx", "Onyx", 12, jobID, nil, nil).
		WillReturnRows(test.GenerationRows(models.AudioGeneration{ID: 9, Status: models.AudioStatusPending, JobID: &jobID, ContentType: models.ContentTypeIntroduction, BookID: "book-1"}))

	got, err := db.UpsertAudioGeneration(context.Background(), models.AudioGeneration{
		BookID:      "book-1",
		ContentType: models.ContentTypeIntroduction,
		Status:      models.AudioStatusPending,
		VoiceID:     "onyx",
		VoiceName:   "Onyx",
		TextLength:  12,
		JobID:       &jobID,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(9), got.ID)
	assert.Equal(t, "job-1", *got.JobID)
	assert.Nil(t, got.ChapterID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAudioGenerationForSlot_FoldsNullChapter(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("COALESCE(chapter_id, '') = $2")).
		WithArgs("book-1", "", models.ContentTypeFullBook).
		WillReturnRows(test.GenerationRows())

	_, err := db.GetAudioGenerationForSlot(context.Background(), "book-1", nil, models.ContentTypeFullBook)

	assert.Error(t, err, "an empty slot is sql.ErrNoRows")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCompleteAudioGenerationByJobID_ReportsSupersededSlot(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("WHERE job_id = $2")).
		WithArgs("https://cdn.test/a.mp3", "old-job").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := db.CompleteAudioGenerationByJobID(context.Background(), "old-job", "https://cdn.test/a.mp3")

	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFailStaleAudioJobs(t *testing.T) {
	_, mock := test.NewMockDB(t)
	before := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("WHERE status IN ('PENDING', 'PROCESSING') AND updated_at < $2")).
		WithArgs("generation timed out", before).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := db.FailStaleAudioJobs(context.Background(), before, "generation timed out")

	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAudioJobTerminalUpdatesSkipFinishedJobs(t *testing.T) {
	_, mock := test.NewMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'COMPLETED', audio_url = $1, error_message = NULL, updated_at = NOW() WHERE job_id = $2 AND status NOT IN ('COMPLETED', 'FAILED')")).
		WithArgs("https://cdn.test/a.mp3", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SET status = 'FAILED', error_message = $1, updated_at = NOW() WHERE job_id = $2 AND status NOT IN ('COMPLETED', 'FAILED')")).
		WithArgs("boom", "job-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := db.UpdateAudioJobCompleted(context.Background(), "job-1", "https://cdn.test/a.mp3")
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NoError(t, db.UpdateAudioJobFailed(context.Background(), "job-2", "boom"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
