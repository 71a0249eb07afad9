package gmail

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

// Gmail allows bursts but sustained traffic gets throttled, so requests
// are paced client-side before the API does it for us.
const (
	requestsPerSecond = 25
	requestBurst      = 5

	maxRetries      = 4
	initialInterval = 500 * time.Millisecond
)

func newLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(requestsPerSecond), requestBurst)
}

// isRetryable reports whether a Gmail API error is worth retrying.
// Rate limiting (429) and server errors (5xx) are transient; any other
// 4xx is a caller mistake and fails immediately.
func isRetryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == 429 || apiErr.Code >= 500
}

// withRetry runs fn, retrying transient failures with exponential
// backoff. The context bounds the total retry time.
func withRetry(ctx context.Context, fn func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialInterval

	return backoff.Retry(func() error {
		if err := fn(); err != nil {
			if isRetryable(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}
