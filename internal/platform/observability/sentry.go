// Package observability wires error capture and tracing.
package observability

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"

	"oncofeliz/pkg/requestcontext"
)

// InitSentry initializes the global Sentry hub. With an empty DSN it is a
// no-op and the returned flush function does nothing.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err with the request id and actor attached.
func CaptureErr(ctx context.Context, err error) {
	if err == nil {
		return
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		if reqID := requestcontext.RequestID(ctx); reqID != "" {
			scope.SetTag("request_id", reqID)
		}
		if actor := requestcontext.UserID(ctx); !actor.IsZero() {
			scope.SetUser(sentry.User{ID: actor.String()})
		}
	})
	hub.CaptureException(err)
}
