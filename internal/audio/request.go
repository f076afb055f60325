package audio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/models"
	"audiobook-studio/internal/storage"
	"audiobook-studio/pkg/tasks"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// GenerateRequest asks for narration of one slot.
type GenerateRequest struct {
	VoiceID     string
	VoiceName   string
	Text        string
	BookID      string
	ChapterID   *string
	ContentType models.ContentType
	Language    string
}

// Requester accepts generation requests: it clears the slot's previous
// artifact, records the job and hands it to the queue.
type Requester struct {
	store      storage.ObjectStore
	bucket     string
	enqueuer   tasks.TaskEnqueuer
	jobTimeout time.Duration
}

func NewRequester(store storage.ObjectStore, bucket string, enqueuer tasks.TaskEnqueuer, jobTimeout time.Duration) *Requester {
	return &Requester{store: store, bucket: bucket, enqueuer: enqueuer, jobTimeout: jobTimeout}
}

func (r *Requester) Request(ctx context.Context, req GenerateRequest) (models.AudioJob, models.AudioGeneration, error) {
	if req.ContentType != models.ContentTypeChapter {
		req.ChapterID = nil
	}
	logger := log.WithFields(log.Fields{"book_id": req.BookID, "content_type": req.ContentType})

	// The old object goes before the new job exists so the slot never points
	// at two live objects.
	prev, err := db.GetAudioGenerationForSlot(ctx, req.BookID, req.ChapterID, req.ContentType)
	switch {
	case err == nil:
		if prev.AudioURL != nil && *prev.AudioURL != "" {
			r.store.DeleteByURL(ctx, r.bucket, *prev.AudioURL)
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		return models.AudioJob{}, models.AudioGeneration{}, fmt.Errorf("failed to load audio generation: %w", err)
	}

	jobID := uuid.NewString()
	job, err := db.CreateAudioJob(ctx, models.AudioJob{
		JobID:       jobID,
		Status:      models.AudioStatusPending,
		VoiceID:     req.VoiceID,
		VoiceName:   req.VoiceName,
		Text:        req.Text,
		ContentType: req.ContentType,
		BookID:      req.BookID,
		ChapterID:   req.ChapterID,
	})
	if err != nil {
		return models.AudioJob{}, models.AudioGeneration{}, fmt.Errorf("failed to create audio job: %w", err)
	}

	gen, err := db.UpsertAudioGeneration(ctx, models.AudioGeneration{
		Status:      models.AudioStatusPending,
		VoiceID:     req.VoiceID,
		VoiceName:   req.VoiceName,
		TextLength:  utf8.RuneCountInString(req.Text),
		JobID:       &jobID,
		ContentType: req.ContentType,
		BookID:      req.BookID,
		ChapterID:   req.ChapterID,
	})
	if err != nil {
		r.abandon(ctx, logger, jobID, err)
		return models.AudioJob{}, models.AudioGeneration{}, fmt.Errorf("failed to upsert audio generation: %w", err)
	}

	task, err := tasks.NewGenerateAudioTask(jobID, req.Language, r.jobTimeout)
	if err == nil {
		_, err = r.enqueuer.Enqueue(task)
	}
	if err != nil {
		r.abandon(ctx, logger, jobID, err)
		return models.AudioJob{}, models.AudioGeneration{}, fmt.Errorf("failed to enqueue audio job: %w", err)
	}

	logger.WithField("job_id", jobID).Info("Audio job queued")
	return job, gen, nil
}

// abandon fails a job that never reached the queue.
func (r *Requester) abandon(ctx context.Context, logger *log.Entry, jobID string, cause error) {
	msg := "failed to schedule audio job: " + cause.Error()
	if err := db.UpdateAudioJobFailed(ctx, jobID, msg); err != nil {
		logger.Errorf("Failed to mark job %s failed: %v", jobID, err)
	}
	if _, err := db.FailAudioGenerationByJobID(ctx, jobID, msg); err != nil {
		logger.Errorf("Failed to mark generation of job %s failed: %v", jobID, err)
	}
}
