// Package health contiene los controllers de health check.
package health

import (
	"net/http"

	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/health"
)

// Controllers agrupa todos los controllers del dominio health.
type Controllers struct {
	Health *HealthController
}

// NewControllers crea el agregador de controllers health.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{
		Health: NewHealthController(s.Health),
	}
}

// HealthController liveness y readiness.
type HealthController struct {
	service svc.HealthService
}

func NewHealthController(service svc.HealthService) *HealthController {
	return &HealthController{service: service}
}

// Live maneja GET /healthz. No toca dependencias.
func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	helpers.WriteSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready maneja GET /readyz. 503 si algún componente falla.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	res := c.service.Check(r.Context())
	status := http.StatusOK
	if res.Status != "ready" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteSuccess(w, r, status, res)
}
