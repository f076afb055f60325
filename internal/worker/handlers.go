package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"audiobook-studio/internal/audio"
	"audiobook-studio/internal/tts"
	"audiobook-studio/pkg/tasks"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// JobRunner is the part of audio.Runner the worker depends on.
type JobRunner interface {
	Run(ctx context.Context, provider tts.VoiceProvider, jobID, language string) error
}

type TaskHandler struct {
	runner     JobRunner
	provider   tts.VoiceProvider
	staleAfter time.Duration
}

func NewTaskHandler(runner JobRunner, provider tts.VoiceProvider, staleAfter time.Duration) *TaskHandler {
	return &TaskHandler{runner: runner, provider: provider, staleAfter: staleAfter}
}

// HandleGenerateAudioTask runs one audio job. Failures are already recorded
// on the job, so the task is never retried.
func (h *TaskHandler) HandleGenerateAudioTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.GenerateAudioTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
	}

	log.WithField("job_id", p.JobID).Info("Processing audio job")

	if err := h.runner.Run(ctx, h.provider, p.JobID, p.Language); err != nil {
		return fmt.Errorf("audio job %s failed: %v: %w", p.JobID, err, asynq.SkipRetry)
	}
	return nil
}

func (h *TaskHandler) HandleReapStaleAudioTask(ctx context.Context, t *asynq.Task) error {
	log.Debug("Reaping stale audio jobs...")
	return audio.ReapStale(ctx, h.staleAfter)
}
