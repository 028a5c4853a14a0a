package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"custody/internal/platform/metrics"
	"custody/pkg/platform/httputil"
	auth "custody/pkg/platform/middleware/auth"
	"custody/pkg/platform/middleware/metadata"
	request "custody/pkg/platform/middleware/request"
	"custody/pkg/platform/middleware/requesttime"
)

// Registrar mounts a module's routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	Logger    *slog.Logger
	Validator auth.JWTValidator
	Modules   []Registrar
	Checks    map[string]HealthCheck
}

// NewRouter wires the public endpoints. Module routes sit behind caller
// authentication; health and metrics do not.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(deps.Logger))
	r.Use(request.Logger(deps.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readiness(deps))
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireCaller(deps.Validator, deps.Logger))
		for _, m := range deps.Modules {
			m.Register(r)
		}
	})
	return r
}

func readiness(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		status := http.StatusOK
		results := make(map[string]string, len(deps.Checks))
		for name, check := range deps.Checks {
			if err := check(ctx); err != nil {
				deps.Logger.WarnContext(ctx, "readiness check failed",
					"check", name,
					"error", err,
					"request_id", request.GetRequestID(ctx),
				)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, results)
	}
}
