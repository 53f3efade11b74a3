package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/auth"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/auth"
)

// IdentityController sign-in con email/password contra el proveedor local.
type IdentityController struct {
	service svc.IdentityService
}

// NewIdentityController crea el controller.
func NewIdentityController(service svc.IdentityService) *IdentityController {
	return &IdentityController{service: service}
}

// Token maneja POST /auth/identity/token
func (c *IdentityController) Token(w http.ResponseWriter, r *http.Request) {
	var req dto.IdentityTokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.SignIn(r.Context(), req)
	if err != nil {
		writeAuthError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, r, http.StatusOK, res)
}

// Supported indica si la ruta debe montarse.
func (c *IdentityController) Supported() bool { return c.service.Supported() }
