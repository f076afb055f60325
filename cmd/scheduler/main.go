package main

import (
	"audiobook-studio/internal/config"
	"audiobook-studio/pkg/tasks"

	"github.com/hibiken/asynq"
	log "github.com/sirupsen/logrus"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg := config.Load()
	cfg.SetupLogging()

	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		&asynq.SchedulerOpts{},
	)

	task, err := tasks.NewReapStaleAudioTask()
	if err != nil {
		log.Fatalf("could not create task: %v", err)
	}

	_, err = scheduler.Register("@every 5m", task)
	if err != nil {
		log.Fatalf("could not register task: %v", err)
	}

	log.Printf("Scheduler starting (commit: %s)", CommitSHA)
	if err := scheduler.Run(); err != nil {
		log.Fatalf("could not run scheduler: %v", err)
	}
}
