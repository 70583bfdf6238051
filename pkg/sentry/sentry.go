// Package sentry wraps the Sentry SDK so the rest of the service can report
// errors without caring whether a DSN is configured.
package sentry

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/anubhav0108/timetable-ace-api/pkg/config"
)

// Initialize sets up the SDK. An empty DSN disables reporting and returns nil.
func Initialize(cfg config.SentryConfig, env string) error {
	if cfg.DSN == "" {
		return nil
	}

	sampleRate := cfg.SampleRate
	if sampleRate <= 0 {
		sampleRate = 1.0
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      env,
		Release:          cfg.Release,
		SampleRate:       sampleRate,
		AttachStacktrace: true,
	})
}

// Flush waits for buffered events to be sent.
func Flush(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}

// IsEnabled reports whether a client is bound to the current hub.
func IsEnabled() bool {
	return sentry.CurrentHub().Client() != nil
}

// Reporter captures errors with request scoped tags.
type Reporter struct{}

// NewReporter returns a Reporter bound to the global hub.
func NewReporter() *Reporter {
	return &Reporter{}
}

// CaptureError sends err with the given tags. It is a no-op while Sentry is disabled.
func (r *Reporter) CaptureError(ctx context.Context, err error, tags map[string]string) {
	if err == nil || !IsEnabled() {
		return
	}
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		hub.CaptureException(err)
	})
}
