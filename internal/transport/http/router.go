// Package httptransport composes the module handlers into one chi router
// with the shared middleware chain.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"oncofeliz/internal/platform/metrics"
	"oncofeliz/internal/platform/middleware"
	"oncofeliz/pkg/platform/httputil"
	"oncofeliz/pkg/platform/middleware/auth"
	"oncofeliz/pkg/platform/middleware/metadata"
	"oncofeliz/pkg/platform/middleware/request"
	"oncofeliz/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// Module is a handler that mounts its routes.
type Module interface {
	Register(r chi.Router)
}

// HealthCheck checks one backing service.
type HealthCheck func(ctx context.Context) error

type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator auth.JWTValidator
	// Checks are keyed by service name, e.g. "postgres" or "redis".
	Checks map[string]HealthCheck
}

// NewRouter serves /health and /metrics without authentication and every
// module route behind bearer token verification.
func NewRouter(deps Deps, modules ...Module) http.Handler {
	r := chi.NewRouter()
	r.Use(
		request.RequestID,
		requesttime.Middleware,
		metadata.ClientMetadata,
		middleware.Recover(deps.Logger),
		middleware.AccessLog(deps.Logger, deps.Metrics),
	)

	r.Get("/health", healthHandler(deps.Checks))
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		for _, m := range modules {
			m.Register(r)
		}
	})
	return r
}

// HealthResponse reports each dependency as "healthy" or the check error.
type HealthResponse struct {
	Status   string            `json:"status"`
	Time     time.Time         `json:"timestamp"`
	Services map[string]string `json:"services"`
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		res := HealthResponse{Status: "healthy", Time: time.Now().UTC(), Services: make(map[string]string, len(checks))}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				res.Status = "unhealthy"
				res.Services[name] = "unhealthy: " + err.Error()
				continue
			}
			res.Services[name] = "healthy"
		}
		status := http.StatusOK
		if res.Status != "healthy" {
			status = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, status, res)
	}
}
