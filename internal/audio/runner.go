package audio

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/metrics"
	"audiobook-studio/internal/models"
	"audiobook-studio/internal/storage"
	"audiobook-studio/internal/tts"

	log "github.com/sirupsen/logrus"
)

// Runner drives a single AudioJob from PENDING to COMPLETED or FAILED. It
// never retries; a retry is a new job.
type Runner struct {
	store    storage.ObjectStore
	bucket   string
	defaults tts.Options
}

func NewRunner(store storage.ObjectStore, bucket string, defaults tts.Options) *Runner {
	return &Runner{store: store, bucket: bucket, defaults: defaults}
}

// Run executes the job identified by jobID. The returned error is the reason
// the job failed; by then both rows already reflect it.
func (r *Runner) Run(ctx context.Context, provider tts.VoiceProvider, jobID, language string) error {
	job, err := db.GetAudioJobByJobID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.WithField("job_id", jobID).Warn("Audio job no longer exists, skipping")
			return nil
		}
		return fmt.Errorf("failed to load audio job: %w", err)
	}
	logger := log.WithFields(log.Fields{"job_id": jobID, "book_id": job.BookID, "provider": provider.Name()})
	if job.Status.Terminal() {
		logger.Infof("Audio job already %s, skipping", job.Status)
		return nil
	}

	start := time.Now()
	if err := db.UpdateAudioJobStatus(ctx, jobID, models.AudioStatusProcessing); err != nil {
		return r.fail(ctx, logger, provider, job, fmt.Errorf("failed to mark job processing: %w", err))
	}
	if n, err := db.UpdateAudioGenerationStatusByJobID(ctx, jobID, models.AudioStatusProcessing); err != nil {
		logger.Warnf("Failed to mark generation processing: %v", err)
	} else if n == 0 {
		logger.Info("Generation slot already belongs to a newer job")
	}

	opts := r.defaults
	opts.Language = language

	logger.Infof("Synthesizing %d characters", len(job.Text))
	data, err := provider.GenerateSpeech(ctx, job.VoiceID, job.Text, opts)
	if err != nil {
		return r.fail(ctx, logger, provider, job, err)
	}

	key, err := r.objectKey(ctx, job)
	if err != nil {
		return r.fail(ctx, logger, provider, job, err)
	}

	ext := tts.FileExtension(opts.Format)
	url, err := r.store.Upload(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), tts.ContentTypeFor(ext))
	if err != nil {
		return r.fail(ctx, logger, provider, job, err)
	}

	// Finalize even if the task deadline hit right after the upload.
	finalCtx := context.WithoutCancel(ctx)
	n, err := db.UpdateAudioJobCompleted(finalCtx, jobID, url)
	if err != nil {
		r.store.DeleteByURL(finalCtx, r.bucket, url)
		return r.fail(ctx, logger, provider, job, fmt.Errorf("failed to mark job completed: %w", err))
	}
	if n == 0 {
		// Failed by the reaper while synthesizing; the slot was failed with it.
		r.store.DeleteByURL(finalCtx, r.bucket, url)
		metrics.AudioJobsTotal.WithLabelValues(provider.Name(), string(models.AudioStatusFailed)).Inc()
		return ErrJobFinalized
	}
	if n, err := db.CompleteAudioGenerationByJobID(finalCtx, jobID, url); err != nil {
		logger.Errorf("Failed to mark generation completed: %v", err)
	} else if n == 0 {
		logger.Info("Generation slot was superseded, leaving it to the newer job")
	}

	metrics.AudioJobsTotal.WithLabelValues(provider.Name(), string(models.AudioStatusCompleted)).Inc()
	metrics.AudioJobDuration.WithLabelValues(provider.Name()).Observe(time.Since(start).Seconds())
	logger.WithField("audio_url", url).Info("Audio job completed")
	return nil
}

func (r *Runner) objectKey(ctx context.Context, job models.AudioJob) (string, error) {
	book, err := db.GetBookByID(ctx, job.BookID)
	if err != nil {
		return "", fmt.Errorf("failed to load book: %w", err)
	}
	var chapter *models.Chapter
	if job.ChapterID != nil {
		c, err := db.GetChapterByID(ctx, *job.ChapterID)
		if err != nil {
			return "", fmt.Errorf("failed to load chapter: %w", err)
		}
		chapter = &c
	}
	ext := tts.FileExtension(r.defaults.Format)
	return AudioKey(book.Title, SlotLabel(job.ContentType, chapter), ext, now()), nil
}

func (r *Runner) fail(ctx context.Context, logger *log.Entry, provider tts.VoiceProvider, job models.AudioJob, cause error) error {
	ctx = context.WithoutCancel(ctx)
	msg := cause.Error()
	logger.Errorf("Audio job failed: %s", msg)

	if err := db.UpdateAudioJobFailed(ctx, job.JobID, msg); err != nil {
		logger.Errorf("Failed to mark job failed: %v", err)
	}
	if _, err := db.FailAudioGenerationByJobID(ctx, job.JobID, msg); err != nil {
		logger.Errorf("Failed to mark generation failed: %v", err)
	}
	metrics.AudioJobsTotal.WithLabelValues(provider.Name(), string(models.AudioStatusFailed)).Inc()
	return cause
}
