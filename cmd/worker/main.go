package main

import (
	"context"

	"audiobook-studio/internal/audio"
	"audiobook-studio/internal/config"
	"audiobook-studio/internal/db"
	"audiobook-studio/internal/storage"
	"audiobook-studio/internal/tts"
	"audiobook-studio/internal/worker"
	"audiobook-studio/pkg/tasks"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	db.InitDB(cfg.DatabaseURL)

	provider, err := tts.NewProviderFromConfig(cfg.TTS)
	if err != nil {
		log.Fatalf("could not create voice provider: %v", err)
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		log.Fatalf("could not create object store: %v", err)
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				tasks.QueueAudio: 3,
				"default":        1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.WithField("task", task.Type()).Errorf("Task failed: %v", err)
			}),
		},
	)

	runner := audio.NewRunner(store, cfg.Storage.Bucket, tts.Options{
		Format:     cfg.TTS.Format,
		SampleRate: cfg.TTS.SampleRate,
	})

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(runner, provider, cfg.Jobs.StaleAfter)

	mux.HandleFunc(tasks.TypeGenerateAudio, taskHandler.HandleGenerateAudioTask)
	mux.HandleFunc(tasks.TypeReapStaleAudio, taskHandler.HandleReapStaleAudioTask)

	log.Printf("Worker starting with %s voices (commit: %s)", provider.Name(), CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatalf("could not run server: %v", err)
	}
}
