package audio

import (
	"context"
	"fmt"
	"strings"

	"audiobook-studio/internal/db"
	"audiobook-studio/internal/metrics"
	"audiobook-studio/internal/models"

	log "github.com/sirupsen/logrus"
)

// CallbackPayload is what the remote merge worker posts when it is done.
type CallbackPayload struct {
	BookID   string  `json:"bookId"`
	AudioURL *string `json:"audioUrl,omitempty"`
	Error    *string `json:"error,omitempty"`
}

// HandleMergeCallback finalizes the FULL_BOOK slot. A failure report for a
// book without a FULL_BOOK row is accepted silently so the worker never
// retries it.
func HandleMergeCallback(ctx context.Context, p CallbackPayload) error {
	if strings.TrimSpace(p.BookID) == "" {
		return ErrMalformedCallback
	}
	logger := log.WithField("book_id", p.BookID)

	if p.Error != nil && *p.Error != "" {
		n, err := db.FailFullBookGeneration(ctx, p.BookID, *p.Error)
		if err != nil {
			return fmt.Errorf("failed to mark full book failed: %w", err)
		}
		if n == 0 {
			logger.Info("Merge failure reported for a book without a full book generation")
		}
		metrics.AudioMergesTotal.WithLabelValues("remote", "failed").Inc()
		logger.Warnf("Remote merge failed: %s", *p.Error)
		return nil
	}

	if p.AudioURL == nil || strings.TrimSpace(*p.AudioURL) == "" {
		return ErrMalformedCallback
	}

	if _, err := db.UpsertAudioGeneration(ctx, models.AudioGeneration{
		Status:      models.AudioStatusCompleted,
		ContentType: models.ContentTypeFullBook,
		BookID:      p.BookID,
		AudioURL:    p.AudioURL,
	}); err != nil {
		return fmt.Errorf("failed to record merged audio: %w", err)
	}
	metrics.AudioMergesTotal.WithLabelValues("remote", "completed").Inc()
	logger.WithField("audio_url", *p.AudioURL).Info("Remote merge completed")
	return nil
}
