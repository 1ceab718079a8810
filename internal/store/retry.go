// internal/store/retry.go
package store

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"time"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/smithy-go"

	apperrors "ecomlisting-ai/internal/common/errors"
)

// RetryPolicy retries transient store failures with exponential backoff and
// jitter. Permanent failures propagate immediately.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
	JitterMax   time.Duration

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: apperrors.GetRetryCount(apperrors.ErrCodeStoreTransient),
		BackoffBase: 1500 * time.Millisecond,
		JitterMax:   500 * time.Millisecond,
	}
}

// Do runs fn up to MaxAttempts times. The delay doubles after every failed
// attempt and carries a uniform jitter in [0, JitterMax).
func (p RetryPolicy) Do(ctx context.Context, operation string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = sleepContext
	}

	delay := p.BackoffBase
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsTransient(lastErr) {
			return apperrors.NewStorePermanentError(operation, lastErr)
		}

		if attempt == attempts {
			break
		}

		wait := delay
		if p.JitterMax > 0 {
			wait += time.Duration(rand.Int63n(int64(p.JitterMax)))
		}
		if err := sleep(ctx, wait); err != nil {
			return apperrors.NewStoreTransientError(operation, err)
		}
		delay *= 2
	}

	return apperrors.NewStoreTransientError(operation, lastErr)
}

// IsTransient reports whether err looks like a retryable store failure:
// throttling or a 429/5xx-class response.
func IsTransient(err error) bool {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		return status == http.StatusTooManyRequests || status >= 500
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "SlowDown", "InternalError", "ServiceUnavailable",
			"RequestTimeout", "Throttling", "ThrottlingException":
			return true
		}
	}

	var transient interface{ Transient() bool }
	if errors.As(err, &transient) {
		return transient.Transient()
	}

	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
