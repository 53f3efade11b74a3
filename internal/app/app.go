// Package app arma services, controllers y router a partir de dependencias
// ya construidas. No abre conexiones: eso lo hace server.Build.
package app

import (
	"errors"
	"net/http"
	"time"

	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/email"
	authctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/auth"
	healthctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/health"
	projectsctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/projects"
	usersctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/users"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	"github.com/dropDatabas3/hellousers/internal/http/router"
	"github.com/dropDatabas3/hellousers/internal/http/schemas"
	authsvc "github.com/dropDatabas3/hellousers/internal/http/services/auth"
	healthsvc "github.com/dropDatabas3/hellousers/internal/http/services/health"
	projectssvc "github.com/dropDatabas3/hellousers/internal/http/services/projects"
	userssvc "github.com/dropDatabas3/hellousers/internal/http/services/users"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/identity"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
	"github.com/dropDatabas3/hellousers/internal/rate"
	"github.com/dropDatabas3/hellousers/internal/security/secretbox"
	"github.com/dropDatabas3/hellousers/internal/storage"
	"github.com/dropDatabas3/hellousers/internal/store"
)

// Config parámetros de comportamiento (no conexiones).
type Config struct {
	Version          string
	CORSOrigins      []string
	RateWhitelist    []string
	Cookie           helpers.CookieConfig
	ManageRoles      []string
	RegistrationKey  string
	AdminEmailDomain string
	CodeTTL          time.Duration
	RotateRefresh    bool
}

// Deps dependencias crudas ya inicializadas.
type Deps struct {
	Store    *store.Facade
	Cache    cache.Client
	Identity identity.Provider
	Bucket   storage.Bucket
	Mailer   *email.Mailer
	Issuer   *jwtx.Issuer
	Box      *secretbox.Box
	Metrics  *metrics.Metrics
	Bundle   *i18n.Bundle

	// ─── Rate limit (opcionales) ───
	Limiter      rate.Limiter
	LoginLimiter rate.Limiter
	CodeLimiter  rate.Limiter

	// Now reloj de los services (tests).
	Now func() time.Time
}

// App aplicación cableada.
type App struct {
	Handler http.Handler
	Auth    authsvc.Services
	Users   userssvc.Services
}

// New valida deps y cablea services, controllers y rutas.
func New(cfg Config, deps Deps) (*App, error) {
	if deps.Store == nil || deps.Identity == nil || deps.Issuer == nil {
		return nil, errors.New("app: store, identity and issuer are required")
	}
	if deps.Mailer == nil || deps.Bucket == nil || deps.Box == nil {
		return nil, errors.New("app: mailer, bucket and secretbox are required")
	}
	if deps.Bundle == nil {
		deps.Bundle = i18n.Default()
	}

	// El breaker se expone a readiness si el provider viene envuelto.
	breaker, _ := deps.Identity.(*identity.Breaker)

	// 1. Services
	auth := authsvc.NewServices(authsvc.Deps{
		Store:         deps.Store,
		Identity:      deps.Identity,
		Issuer:        deps.Issuer,
		Mailer:        deps.Mailer,
		Metrics:       deps.Metrics,
		CodeTTL:       cfg.CodeTTL,
		RotateRefresh: cfg.RotateRefresh,
		Now:           deps.Now,
	})
	users := userssvc.NewServices(userssvc.Deps{
		Store:    deps.Store,
		Identity: deps.Identity,
		Bucket:   deps.Bucket,
		Mailer:   deps.Mailer,
		Box:      deps.Box,
	})
	projects := projectssvc.NewServices(projectssvc.Deps{
		Store:            deps.Store,
		Identity:         deps.Identity,
		AdminEmailDomain: cfg.AdminEmailDomain,
	})
	health := healthsvc.NewServices(healthsvc.Deps{
		Store:   deps.Store,
		Cache:   deps.Cache,
		Bucket:  deps.Bucket,
		Breaker: breaker,
		Version: cfg.Version,
	})

	// 2. Router (controllers inline)
	handler := router.New(router.Deps{
		Bundle:  deps.Bundle,
		Metrics: deps.Metrics,
		Issuer:  deps.Issuer,
		Checks:  schemas.Checks{Store: deps.Store, Identity: deps.Identity},

		CORSOrigins:     cfg.CORSOrigins,
		RateWhitelist:   cfg.RateWhitelist,
		RefreshCookie:   cfg.Cookie.Name,
		ManageRoles:     cfg.ManageRoles,
		RegistrationKey: cfg.RegistrationKey,

		Limiter:      deps.Limiter,
		LoginLimiter: deps.LoginLimiter,
		CodeLimiter:  deps.CodeLimiter,

		Health:   healthctrl.NewControllers(health),
		Auth:     authctrl.NewControllers(auth, cfg.Cookie),
		Users:    usersctrl.NewControllers(users),
		Projects: projectsctrl.NewControllers(projects),
	})

	return &App{Handler: handler, Auth: auth, Users: users}, nil
}
