package auth

import (
	"net/http"
	"time"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	mw "github.com/dropDatabas3/hellousers/internal/http/middlewares"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/auth"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// SessionController login, logout y refresh.
type SessionController struct {
	service svc.SessionService
	cookie  helpers.CookieConfig
}

// NewSessionController crea el controller de sesiones.
func NewSessionController(service svc.SessionService, cookie helpers.CookieConfig) *SessionController {
	return &SessionController{service: service, cookie: cookie}
}

func origin(r *http.Request) dto.Origin {
	return dto.Origin{ClientIP: mw.GetClientIP(r.Context()), UserAgent: r.UserAgent()}
}

func (c *SessionController) setRefreshCookie(w http.ResponseWriter, res *dto.SessionResult) {
	if res.RefreshToken == "" {
		return
	}
	http.SetCookie(w, helpers.BuildCookie(c.cookie, res.RefreshToken, time.Until(res.RefreshExpires)))
}

// Login maneja POST /auth/login
func (c *SessionController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	res, err := c.service.Login(ctx, req, origin(r))
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}

	c.setRefreshCookie(w, res)
	helpers.WriteSuccess(w, r, http.StatusOK, dto.LoginResponse{TokenInfo: res.Access})
}

// Logout maneja POST /auth/logout. Requiere la cookie (RequireRefreshToken).
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Logout"))

	err := c.service.Logout(ctx, mw.GetClaims(ctx), mw.GetRefreshToken(ctx))
	if err != nil {
		log.Debug("logout failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}

	http.SetCookie(w, helpers.BuildDeletionCookie(c.cookie))
	helpers.WriteMessage(w, r, http.StatusOK, "UserLoggedOut", nil)
}

// Refresh maneja GET /auth/refreshToken. Requiere la cookie.
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Refresh"))

	res, err := c.service.Refresh(ctx, mw.GetClaims(ctx), mw.GetRefreshToken(ctx), origin(r))
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}

	c.setRefreshCookie(w, res)
	helpers.WriteSuccess(w, r, http.StatusOK, dto.LoginResponse{TokenInfo: res.Access})
}
