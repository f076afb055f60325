package tts

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	log "github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 5
	defaultMaxDelay    = 30 * time.Second
)

// RetryPolicy retries transient provider failures with exponential backoff
// plus random jitter.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
	MaxJitter   time.Duration
	// Retryable overrides IsRetryable when set.
	Retryable func(error) bool
}

// Do runs fn until it succeeds, returns a non-retryable error, the attempts
// run out or ctx is done. Only the last error is returned.
func (p RetryPolicy) Do(ctx context.Context, provider string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts == 0 {
		attempts = defaultMaxAttempts
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRetryable
	}

	delayType := retry.BackOffDelay
	if p.MaxJitter > 0 {
		delayType = retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)
	}

	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(p.BaseDelay),
		retry.MaxJitter(p.MaxJitter),
		retry.MaxDelay(defaultMaxDelay),
		retry.DelayType(delayType),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.WithField("provider", provider).Warnf("TTS attempt %d failed, retrying: %v", n+1, err)
		}),
	)
}

// IsRetryable reports whether err is a transient failure: a server error,
// rate limiting, a request timeout or a network timeout.
func IsRetryable(err error) bool {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Retryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

// retryableStatus is the status predicate shared by the HTTP providers.
func retryableStatus(code int) bool {
	return code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500
}
