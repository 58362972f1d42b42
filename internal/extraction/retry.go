package extraction

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

const (
	MessageOverloaded  = "AI service is currently overloaded. Please try again in a few moments."
	MessageRateLimited = "AI service rate limit reached. Please try again later."
	MessageTechnical   = "AI service is experiencing technical difficulties. Please try again later."
	MessageGeneric     = "Failed to process document using AI service."
)

// UpstreamError is returned once the extraction model could not be used.
// Message is safe to show to end users; Err keeps the original failure.
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string { return e.Message }

func (e *UpstreamError) Unwrap() error { return e.Err }

// Reason is a short label for the failure class, used for metrics.
func (e *UpstreamError) Reason() string {
	switch e.Status {
	case http.StatusServiceUnavailable:
		return "overloaded"
	case http.StatusTooManyRequests:
		return "rate_limited"
	case http.StatusInternalServerError, http.StatusBadGateway:
		return "upstream_error"
	default:
		return "failed"
	}
}

// UserMessage maps an upstream HTTP status to the message surfaced to users.
func UserMessage(status int) string {
	switch status {
	case http.StatusServiceUnavailable:
		return MessageOverloaded
	case http.StatusTooManyRequests:
		return MessageRateLimited
	case http.StatusInternalServerError, http.StatusBadGateway:
		return MessageTechnical
	default:
		return MessageGeneric
	}
}

// IsRetryable reports whether a failure with the given upstream status is
// transient.
func IsRetryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}

// StatusOf returns the HTTP status carried by a model client error, or 0.
func StatusOf(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr.Status
	}
	return 0
}

// RetryPolicy bounds the retry loop around the model call.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	MaxJitter    time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  3,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		MaxJitter:    time.Second,
	}
}

// NextDelay computes min(prev*2 + jitter, MaxDelay).
func (p RetryPolicy) NextDelay(prev, jitter time.Duration) time.Duration {
	next := prev*2 + jitter
	if p.MaxDelay > 0 && next > p.MaxDelay {
		return p.MaxDelay
	}
	return next
}

// Retrier runs an operation under a RetryPolicy. Waits between attempts
// end early when the context is cancelled.
type Retrier struct {
	policy  RetryPolicy
	logger  zerolog.Logger
	jitter  func(max time.Duration) time.Duration
	onRetry func()
}

func NewRetrier(policy RetryPolicy, logger zerolog.Logger) *Retrier {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrier{
		policy: policy,
		logger: logger,
		jitter: func(max time.Duration) time.Duration {
			if max <= 0 {
				return 0
			}
			return time.Duration(rand.Int63n(int64(max)))
		},
	}
}

// Do calls op until it succeeds, fails with a non-transient error or the
// attempt budget is spent. Failures are returned as *UpstreamError.
func (r *Retrier) Do(ctx context.Context, name string, op func(ctx context.Context) error) error {
	delay := r.policy.InitialDelay
	for attempt := 1; ; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}

		status := StatusOf(err)
		if !IsRetryable(status) || attempt >= r.policy.MaxAttempts {
			return &UpstreamError{Status: status, Message: UserMessage(status), Err: err}
		}

		r.logger.Warn().
			Err(err).
			Str("operation", name).
			Int("attempt", attempt).
			Int("status", status).
			Dur("delay", delay).
			Msg("transient upstream failure, retrying")
		if r.onRetry != nil {
			r.onRetry()
		}

		if werr := wait(ctx, delay); werr != nil {
			return &UpstreamError{
				Status:  status,
				Message: UserMessage(status),
				Err:     fmt.Errorf("%s cancelled after %d attempt(s): %w", name, attempt, werr),
			}
		}
		delay = r.policy.NextDelay(delay, r.jitter(r.policy.MaxJitter))
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
