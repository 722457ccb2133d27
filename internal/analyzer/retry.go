package analyzer

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// RetryPolicy controls how rate-limited model calls are retried. The wait
// before attempt n+1 is min(Max, max(Min, Multiplier*2^(n-1))) Units.
type RetryPolicy struct {
	MaxAttempts int
	Multiplier  float64
	Min         float64
	Max         float64
	Unit        time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		Multiplier:  2,
		Min:         4,
		Max:         60,
		Unit:        time.Second,
	}
}

// Wait returns the pause that follows the n-th failed attempt (n starts at 1).
func (p RetryPolicy) Wait(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	units := p.Multiplier * math.Pow(2, float64(n-1))
	units = math.Min(p.Max, math.Max(p.Min, units))
	return time.Duration(units * float64(p.Unit))
}

// policyBackOff adapts RetryPolicy to backoff.BackOff.
type policyBackOff struct {
	policy  RetryPolicy
	attempt int
}

func (b *policyBackOff) NextBackOff() time.Duration {
	b.attempt++
	return b.policy.Wait(b.attempt)
}

func (b *policyBackOff) Reset() { b.attempt = 0 }

type ErrorKind string

const (
	KindNonRetryable     ErrorKind = "non_retryable"
	KindExhaustedRetries ErrorKind = "exhausted_retries"
	KindCanceled         ErrorKind = "canceled"
)

// AnalysisError is returned when the model call could not produce text.
// Its message is the underlying error's message.
type AnalysisError struct {
	Kind     ErrorKind
	Attempts int
	Err      error
}

func (e *AnalysisError) Error() string { return e.Err.Error() }

func (e *AnalysisError) Unwrap() error { return e.Err }

type httpStatusError interface {
	HTTPStatus() int
}

// IsRateLimit reports whether err looks like a quota or throttling failure.
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}
	var se httpStatusError
	if errors.As(err, &se) && se.HTTPStatus() == 429 {
		return true
	}
	msg := err.Error()
	if strings.Contains(msg, "429") || strings.Contains(msg, "RATELIMIT_EXCEEDED") {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") || strings.Contains(lower, "rate limit")
}

func (a *Analyzer) invoke(ctx context.Context, image []byte, mimeType string) (string, error) {
	attempts := 0
	var text string
	op := func() error {
		attempts++
		out, err := a.model.Generate(ctx, analysisPrompt, image, mimeType)
		if err != nil {
			if IsRateLimit(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		text = out
		return nil
	}

	maxRetries := 0
	if a.policy.MaxAttempts > 1 {
		maxRetries = a.policy.MaxAttempts - 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&policyBackOff{policy: a.policy}, uint64(maxRetries)), ctx)
	notify := func(err error, wait time.Duration) {
		a.logger.Warn("vision model rate limited, retrying",
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err),
		)
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		kind := KindNonRetryable
		switch {
		case ctx.Err() != nil && errors.Is(err, ctx.Err()):
			kind = KindCanceled
		case IsRateLimit(err):
			kind = KindExhaustedRetries
		}
		return "", &AnalysisError{Kind: kind, Attempts: attempts, Err: err}
	}
	return text, nil
}
