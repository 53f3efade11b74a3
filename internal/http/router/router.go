// Package router arma el árbol de rutas chi y el pipeline global de middlewares.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/health"
	projectsctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/projects"
	usersctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/users"
	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	mw "github.com/dropDatabas3/hellousers/internal/http/middlewares"
	"github.com/dropDatabas3/hellousers/internal/http/schemas"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
	"github.com/dropDatabas3/hellousers/internal/rate"
)

// Paths siempre fuera del rate limit.
var rateWhitelist = []string{"/healthz", "/readyz", "/metrics"}

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Bundle  *i18n.Bundle
	Metrics *metrics.Metrics
	Issuer  *jwtx.Issuer
	Checks  schemas.Checks

	CORSOrigins     []string
	RateWhitelist   []string
	RefreshCookie   string
	ManageRoles     []string
	RegistrationKey string

	// Limiters opcionales: global, login y códigos.
	Limiter      rate.Limiter
	LoginLimiter rate.Limiter
	CodeLimiter  rate.Limiter

	Health   *healthctrl.Controllers
	Auth     *authctrl.Controllers
	Users    *usersctrl.Controllers
	Projects *projectsctrl.Controllers
}

// New construye el handler raíz.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	// ─── Pipeline global ───
	// Recover primero; idioma antes de logging para que los errores salgan localizados.
	r.Use(
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithClientIP(),
		mw.WithLanguage(deps.Bundle),
		mw.WithLogging(),
		mw.WithMetrics(deps.Metrics),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSOrigins, deps.Metrics),
		mw.WithRateLimit(mw.RateLimitConfig{
			Limiter:   deps.Limiter,
			KeyFunc:   mw.IPPathRateKey,
			Whitelist: append(append([]string{}, rateWhitelist...), deps.RateWhitelist...),
		}),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteError(w, r, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		helpers.WriteError(w, r, httperrors.ErrMethodNotAllowed)
	})

	if deps.Health != nil {
		RegisterHealthRoutes(r, HealthRouterDeps{Controllers: deps.Health, Metrics: deps.Metrics})
	}
	if deps.Auth != nil {
		RegisterAuthRoutes(r, AuthRouterDeps{
			Controllers:   deps.Auth,
			Issuer:        deps.Issuer,
			Checks:        deps.Checks,
			RefreshCookie: deps.RefreshCookie,
			LoginLimiter:  deps.LoginLimiter,
			CodeLimiter:   deps.CodeLimiter,
		})
	}
	if deps.Users != nil {
		RegisterUsersRoutes(r, UsersRouterDeps{
			Controllers: deps.Users,
			Issuer:      deps.Issuer,
			Checks:      deps.Checks,
			ManageRoles: deps.ManageRoles,
		})
	}
	if deps.Projects != nil {
		RegisterProjectsRoutes(r, ProjectsRouterDeps{
			Controllers:     deps.Projects,
			Checks:          deps.Checks,
			RegistrationKey: deps.RegistrationKey,
		})
	}
	return r
}
