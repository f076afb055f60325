package audio

import (
	"context"
	"fmt"
	"time"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/metrics"

	log "github.com/sirupsen/logrus"
)

const staleMessage = "generation timed out"

// ReapStale fails jobs and generations stuck in PENDING or PROCESSING for
// longer than staleAfter, including FULL_BOOK slots whose callback never came.
func ReapStale(ctx context.Context, staleAfter time.Duration) error {
	before := now().Add(-staleAfter)

	jobs, err := db.FailStaleAudioJobs(ctx, before, staleMessage)
	if err != nil {
		return fmt.Errorf("failed to reap stale audio jobs: %w", err)
	}
	gens, err := db.FailStaleAudioGenerations(ctx, before, staleMessage)
	if err != nil {
		return fmt.Errorf("failed to reap stale audio generations: %w", err)
	}

	metrics.StaleJobsReaped.Add(float64(jobs))
	if jobs > 0 || gens > 0 {
		log.Printf("Reaped %d stale audio jobs and %d stale generations", jobs, gens)
	}
	return nil
}
