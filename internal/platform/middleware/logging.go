package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"oncofeliz/internal/platform/metrics"
	"oncofeliz/pkg/requestcontext"
)

// AccessLog logs one line per request and feeds the HTTP metrics. The route
// label is the chi pattern, never the raw path, to keep cardinality bounded.
func AccessLog(logger *slog.Logger, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			duration := time.Since(start)
			m.ObserveRequest(route, r.Method, status, duration)

			ctx := r.Context()
			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(ctx, level, "http request",
				"request_id", requestcontext.RequestID(ctx),
				"method", r.Method,
				"route", route,
				"status", status,
				"bytes", ww.BytesWritten(),
				"channel", requestcontext.Channel(ctx),
				"client_ip", requestcontext.ClientIP(ctx),
				"user_agent", requestcontext.UserAgent(ctx),
				"actor_id", requestcontext.UserID(ctx),
				"duration_ms", duration.Milliseconds(),
			)
		})
	}
}
