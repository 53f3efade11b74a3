package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/auth"
	mw "github.com/dropDatabas3/hellousers/internal/http/middlewares"
	"github.com/dropDatabas3/hellousers/internal/http/schemas"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/rate"
)

// AuthRouterDeps contiene las dependencias para el router de auth.
type AuthRouterDeps struct {
	Controllers   *ctrl.Controllers
	Issuer        *jwtx.Issuer
	Checks        schemas.Checks
	RefreshCookie string

	// Límites extra por ruta, opcionales.
	LoginLimiter rate.Limiter
	CodeLimiter  rate.Limiter
}

// RegisterAuthRoutes registra rutas de sesión y recuperación de contraseña.
func RegisterAuthRoutes(r chi.Router, deps AuthRouterDeps) {
	c := deps.Controllers
	refresh := mw.RequireRefreshToken(deps.Issuer, deps.RefreshCookie)
	loginLimit := mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.LoginLimiter, KeyFunc: mw.IPOnlyRateKey})
	codeLimit := mw.WithRateLimit(mw.RateLimitConfig{Limiter: deps.CodeLimiter, KeyFunc: mw.IPPathRateKey})

	r.Route("/auth", func(r chi.Router) {
		r.Use(mw.WithNoStore())

		// ─── Sesión ───

		// POST /auth/login
		r.Method(http.MethodPost, "/login", mw.ChainFunc(c.Session.Login, loginLimit, mw.Validate(schemas.Login())))

		// POST /auth/logout (cookie de refresh)
		r.Method(http.MethodPost, "/logout", mw.ChainFunc(c.Session.Logout, refresh))

		// GET /auth/refreshToken (cookie de refresh)
		r.Method(http.MethodGet, "/refreshToken", mw.ChainFunc(c.Session.Refresh, refresh))

		// ─── Password ───

		// POST /auth/password/code
		r.Method(http.MethodPost, "/password/code", mw.ChainFunc(c.Password.SendCode, codeLimit, mw.Validate(deps.Checks.PasswordCode())))

		// POST /auth/reset/password
		r.Method(http.MethodPost, "/reset/password", mw.ChainFunc(c.Password.ResetPassword, codeLimit, mw.Validate(schemas.ResetPassword())))

		// POST /auth/reset/password/confirm (solo si el provider confirma resets)
		if c.Password.CanConfirm() {
			r.Method(http.MethodPost, "/reset/password/confirm", mw.ChainFunc(c.Password.ConfirmReset, mw.Validate(schemas.ConfirmReset())))
		}

		// POST /auth/identity/token (solo provider local)
		if c.Identity != nil && c.Identity.Supported() {
			r.Method(http.MethodPost, "/identity/token", mw.ChainFunc(c.Identity.Token, mw.Validate(schemas.IdentityToken())))
		}
	})
}
