package audio

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"testing"
	"time"

	"audiobook-studio/internal/models"
	"audiobook-studio/internal/test"
	"audiobook-studio/internal/tts"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.UnixMilli(1700000000000)

func freezeClock(t *testing.T) {
	t.Helper()
	original := now
	now = func() time.Time { return fixedNow }
	t.Cleanup(func() { now = original })
}

func pendingChapterJob() models.AudioJob {
	return models.AudioJob{
		ID:          1,
		JobID:       "job-1",
		Status:      models.AudioStatusPending,
		VoiceID:     "onyx",
		VoiceName:   "Onyx",
		Text:        "It was a dark and stormy night.",
		ContentType: models.ContentTypeChapter,
		BookID:      "book-1",
		ChapterID:   test.Ptr("ch-3"),
		CreatedAt:   test.Fixed,
		UpdatedAt:   test.Fixed,
	}
}

func expectStartProcessing(mock sqlmock.Sqlmock, job models.AudioJob) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM audio_jobs WHERE job_id = $1")).
		WithArgs(job.JobID).
		WillReturnRows(test.AudioJobRows(job))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_jobs SET status = $1, updated_at = NOW() WHERE job_id = $2")).
		WithArgs(models.AudioStatusProcessing, job.JobID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_generations SET status = $1, updated_at = NOW() WHERE job_id = $2")).
		WithArgs(models.AudioStatusProcessing, job.JobID).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

func TestRunner_Success(t *testing.T) {
	freezeClock(t)
	_, mock := test.NewMockDB(t)
	store := &test.FakeStore{}
	provider := &test.FakeProvider{Audio: []byte("narration")}
	runner := NewRunner(store, "audiobooks", tts.Options{Format: "mp3", SampleRate: 44100})

	job := pendingChapterJob()
	expectStartProcessing(mock, job)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM books WHERE id = $1")).
		WithArgs("book-1").
		WillReturnRows(test.BookRows(models.Book{ID: "book-1", UserID: 7, Title: "The Storm: A Novel!", FeedToken: "tok"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM chapters WHERE id = $1")).
		WithArgs("ch-3").
		WillReturnRows(test.ChapterRows(models.Chapter{ID: "ch-3", BookID: "book-1", Title: "Rain", Order: 3}))

	wantURL := test.FakeStoreBaseURL + "/audio/the-storm-a-novel-chapter-3-1700000000000.mp3"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_jobs SET status = 'COMPLETED'")).
		WithArgs(wantURL, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_generations SET status = 'COMPLETED'")).
		WithArgs(wantURL, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := runner.Run(context.Background(), provider, "job-1", "en")

	require.NoError(t, err)
	require.Len(t, store.Uploads, 1)
	assert.Equal(t, "audio/the-storm-a-novel-chapter-3-1700000000000.mp3", store.Uploads[0].Key)
	assert.Equal(t, "narration", string(store.Uploads[0].Data))
	assert.Equal(t, "audio/mpeg", store.Uploads[0].ContentType)
	assert.Equal(t, "onyx", provider.LastVoice)
	assert.Equal(t, "en", provider.LastOpts.Language)
	assert.Equal(t, 44100, provider.LastOpts.SampleRate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_ProviderFailure(t *testing.T) {
	_, mock := test.NewMockDB(t)
	store := &test.FakeStore{}
	provider := &test.FakeProvider{Err: &tts.ProviderError{Provider: "fake", StatusCode: http.StatusUnauthorized, Message: "invalid api key"}}
	runner := NewRunner(store, "audiobooks", tts.Options{Format: "mp3"})

	job := pendingChapterJob()
	expectStartProcessing(mock, job)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_jobs SET status = 'FAILED'")).
		WithArgs("fake tts error (status 401): invalid api key", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_generations SET status = 'FAILED'")).
		WithArgs("fake tts error (status 401): invalid api key", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := runner.Run(context.Background(), provider, "job-1", "")

	var perr *tts.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, store.Uploads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_UploadFailure(t *testing.T) {
	freezeClock(t)
	_, mock := test.NewMockDB(t)
	store := &test.FakeStore{UploadErr: errors.New("bucket unreachable")}
	provider := &test.FakeProvider{Audio: []byte("narration")}
	runner := NewRunner(store, "audiobooks", tts.Options{Format: "mp3"})

	job := pendingChapterJob()
	job.ContentType = models.ContentTypeIntroduction
	job.ChapterID = nil
	expectStartProcessing(mock, job)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM books WHERE id = $1")).
		WithArgs("book-1").
		WillReturnRows(test.BookRows(models.Book{ID: "book-1", UserID: 7, Title: "Tides", FeedToken: "tok"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_jobs SET status = 'FAILED'")).
		WithArgs(sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_generations SET status = 'FAILED'")).
		WithArgs(sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := runner.Run(context.Background(), provider, "job-1", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio/tides-introduction-1700000000000.mp3")
	assert.Empty(t, store.Uploads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_SupersededSlotStillFinalizesJob(t *testing.T) {
	freezeClock(t)
	_, mock := test.NewMockDB(t)
	store := &test.FakeStore{}
	provider := &test.FakeProvider{Audio: []byte("a")}
	runner := NewRunner(store, "audiobooks", tts.Options{Format: "mp3"})

	job := pendingChapterJob()
	job.ContentType = models.ContentTypeIntroduction
	job.ChapterID = nil
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM audio_jobs WHERE job_id = $1")).
		WithArgs(job.JobID).
		WillReturnRows(test.AudioJobRows(job))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_jobs SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// A newer job owns the slot.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_generations SET status = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM books WHERE id = $1")).
		WillReturnRows(test.BookRows(models.Book{ID: "book-1", Title: "Tides", FeedToken: "tok"}))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_jobs SET status = 'COMPLETED'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE audio_generations SET status = 'COMPLETED'")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, runner.Run(context.Background(), provider, "job-1", ""))
	assert.Len(t, store.Uploads, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_ReapedJobKeepsFailedState(t *testing.T) {
	freezeClock(t)
	_, mock := test.NewMockDB(t)
	store := &test.FakeStore{}
	provider := &test.FakeProvider{Audio: []byte("late")}
	runner := NewRunner(store, "audiobooks", tts.Options{Format: "mp3"})

	job := pendingChapterJob()
	job.ContentType = models.ContentTypeIntroduction
	job.ChapterID = nil
	expectStartProcessing(mock, job)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM books WHERE id = $1")).
		WillReturnRows(test.BookRows(models.Book{ID: "book-1", Title: "Tides", FeedToken: "tok"}))
	// The reaper got there first, so the guarded update matches nothing.
	mock.ExpectExec(regexp.QuoteMeta("AND status NOT IN ('COMPLETED', 'FAILED')")).
		WithArgs(test.FakeStoreBaseURL+"/audio/tides-introduction-1700000000000.mp3", "job-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := runner.Run(context.Background(), provider, "job-1", "")

	assert.ErrorIs(t, err, ErrJobFinalized)
	require.Len(t, store.Uploads, 1)
	assert.Equal(t, []string{test.FakeStoreBaseURL + "/audio/tides-introduction-1700000000000.mp3"}, store.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunner_SkipsTerminalJob(t *testing.T) {
	_, mock := test.NewMockDB(t)
	provider := &test.FakeProvider{}
	runner := NewRunner(&test.FakeStore{}, "audiobooks", tts.Options{})

	job := pendingChapterJob()
	job.Status = models.AudioStatusCompleted
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM audio_jobs WHERE job_id = $1")).
		WithArgs(job.JobID).
		WillReturnRows(test.AudioJobRows(job))

	require.NoError(t, runner.Run(context.Background(), provider, "job-1", ""))
	assert.Zero(t, provider.Calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
