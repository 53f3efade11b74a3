package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/auth"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// PasswordController códigos de verificación y reset de contraseña.
type PasswordController struct {
	service svc.PasswordService
}

// NewPasswordController crea el controller de password.
func NewPasswordController(service svc.PasswordService) *PasswordController {
	return &PasswordController{service: service}
}

// SendCode maneja POST /auth/password/code
func (c *PasswordController) SendCode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.SendCode"))

	var req dto.PasswordCodeRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.SendCode(ctx, req, i18n.FromContext(ctx).Prefer(req.Lang)); err != nil {
		log.Warn("send code failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}
	helpers.WriteMessage(w, r, http.StatusOK, "codeSent", nil)
}

// ResetPassword maneja POST /auth/reset/password
func (c *PasswordController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PasswordController.ResetPassword"))

	var req dto.ResetPasswordRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.ResetPassword(ctx, req, i18n.FromContext(ctx).Prefer(req.Lang)); err != nil {
		log.Debug("reset password failed", logger.Err(err))
		writeAuthError(w, r, err)
		return
	}
	helpers.WriteMessage(w, r, http.StatusOK, "emailSent", nil)
}

// ConfirmReset maneja POST /auth/reset/password/confirm
func (c *PasswordController) ConfirmReset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req dto.ConfirmResetRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	if err := c.service.ConfirmReset(ctx, req); err != nil {
		logger.From(ctx).Debug("confirm reset failed",
			logger.Layer("controller"),
			logger.Op("PasswordController.ConfirmReset"),
			logger.Err(err),
		)
		writeAuthError(w, r, err)
		return
	}
	helpers.WriteMessage(w, r, http.StatusOK, "passwordUpdated", nil)
}

// CanConfirm indica si la ruta de confirmación debe montarse.
func (c *PasswordController) CanConfirm() bool { return c.service.CanConfirm() }
