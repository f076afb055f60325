package db

import (
	"context"
	"time"

	"audiobook-studio/internal/models"
)

func CreateAudioJob(ctx context.Context, job models.AudioJob) (models.AudioJob, error) {
	created := models.AudioJob{}
	err := DB.GetContext(ctx, &created, `
		INSERT INTO audio_jobs (job_id, status, voice_id, voice_name, text, content_type, book_id, chapter_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING *`,
		job.JobID, job.Status, job.VoiceID, job.VoiceName, job.Text, job.ContentType, job.BookID, job.ChapterID)
	return created, err
}

func GetAudioJobByJobID(ctx context.Context, jobID string) (models.AudioJob, error) {
	job := models.AudioJob{}
	err := DB.GetContext(ctx, &job, "SELECT * FROM audio_jobs WHERE job_id = $1", jobID)
	return job, err
}

func UpdateAudioJobStatus(ctx context.Context, jobID string, status models.AudioStatus) error {
	_, err := DB.ExecContext(ctx, "UPDATE audio_jobs SET status = $1, updated_at = NOW() WHERE job_id = $2", status, jobID)
	return err
}

// UpdateAudioJobCompleted only moves a live job. It returns zero rows when the
// job already reached a terminal state, e.g. after the reaper failed it.
func UpdateAudioJobCompleted(ctx context.Context, jobID string, audioURL string) (int64, error) {
	res, err := DB.ExecContext(ctx, `
		UPDATE audio_jobs
		SET status = 'COMPLETED', audio_url = $1, error_message = NULL, updated_at = NOW()
		WHERE job_id = $2 AND status NOT IN ('COMPLETED', 'FAILED')`,
		audioURL, jobID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func UpdateAudioJobFailed(ctx context.Context, jobID string, errorMessage string) error {
	_, err := DB.ExecContext(ctx, `
		UPDATE audio_jobs
		SET status = 'FAILED', error_message = $1, updated_at = NOW()
		WHERE job_id = $2 AND status NOT IN ('COMPLETED', 'FAILED')`,
		errorMessage, jobID)
	return err
}

// FailStaleAudioJobs fails every job still PENDING or PROCESSING that has not
// been touched since before.
func FailStaleAudioJobs(ctx context.Context, before time.Time, errorMessage string) (int64, error) {
	res, err := DB.ExecContext(ctx, `
		UPDATE audio_jobs
		SET status = 'FAILED', error_message = $1, updated_at = NOW()
		WHERE status IN ('PENDING', 'PROCESSING') AND updated_at < $2`,
		errorMessage, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
