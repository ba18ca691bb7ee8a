package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"oncofeliz/internal/platform/observability"
	dErrors "oncofeliz/pkg/domain-errors"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/requestcontext"
)

// Recover turns a panic in a handler into a 500 envelope, logs the stack and
// reports it to Sentry.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				err := fmt.Errorf("panic: %v", rec)
				logger.ErrorContext(ctx, "handler panic",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
					"error", err,
					"stack", string(debug.Stack()),
				)
				observability.CaptureErr(ctx, err)
				httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal error"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
