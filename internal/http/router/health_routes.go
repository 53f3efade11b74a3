package router

import (
	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/health"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
)

// HealthRouterDeps contiene las dependencias para el router de health.
type HealthRouterDeps struct {
	Controllers *ctrl.Controllers
	Metrics     *metrics.Metrics // opcional
}

// RegisterHealthRoutes registra rutas de health check y /metrics.
// Son públicas, sin auth.
func RegisterHealthRoutes(r chi.Router, deps HealthRouterDeps) {
	c := deps.Controllers

	// GET /healthz - liveness
	r.Get("/healthz", c.Health.Live)

	// GET /readyz - readiness con ping a dependencias
	r.Get("/readyz", c.Health.Ready)

	if deps.Metrics != nil {
		r.Method("GET", "/metrics", deps.Metrics.Handler())
	}
}
