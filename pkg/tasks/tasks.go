package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateAudio  = "audio:generate"
	TypeReapStaleAudio = "audio:reap-stale"

	// QueueAudio carries synthesis jobs so they don't starve periodic work.
	QueueAudio = "audio"
)

type GenerateAudioTaskPayload struct {
	JobID    string
	Language string
}

// NewGenerateAudioTask never retries: a failed job is terminal and a retry is
// a new job created by a fresh request.
func NewGenerateAudioTask(jobID, language string, timeout time.Duration) (*asynq.Task, error) {
	payload, err := json.Marshal(GenerateAudioTaskPayload{JobID: jobID, Language: language})
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(0), asynq.Queue(QueueAudio)}
	if timeout > 0 {
		opts = append(opts, asynq.Timeout(timeout))
	}
	return asynq.NewTask(TypeGenerateAudio, payload, opts...), nil
}

func NewReapStaleAudioTask() (*asynq.Task, error) {
	return asynq.NewTask(TypeReapStaleAudio, nil, asynq.MaxRetry(0)), nil
}
