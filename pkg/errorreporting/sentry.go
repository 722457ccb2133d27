// Package errorreporting wires Sentry for panics and failed analyses.
package errorreporting

import (
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"
)

type Options struct {
	DSN         string
	Environment string
	SampleRate  float64
}

// Setup initialises the Sentry client. An empty DSN leaves the SDK in
// no-op mode and reports false.
func Setup(opts Options) bool {
	if opts.DSN == "" {
		zap.L().Info("SENTRY_DSN not set, error reporting disabled")
		return false
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Environment:      opts.Environment,
		EnableTracing:    true,
		TracesSampleRate: opts.SampleRate,
	}); err != nil {
		zap.L().Error("Sentry initialization failed", zap.Error(err))
		return false
	}
	return true
}

func Flush() {
	sentry.Flush(2 * time.Second)
}
