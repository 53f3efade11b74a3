// Package projects contiene el controller de alta de proyectos.
package projects

import (
	"errors"
	"net/http"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/projects"
	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/projects"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// Controllers agrupa los controllers del dominio projects.
type Controllers struct {
	Projects *ProjectsController
}

// NewControllers crea el agregador.
func NewControllers(s svc.Services) *Controllers {
	return &Controllers{Projects: NewProjectsController(s.Projects)}
}

// ProjectsController alta de proyectos.
type ProjectsController struct {
	service svc.ProjectService
}

// NewProjectsController crea el controller.
func NewProjectsController(service svc.ProjectService) *ProjectsController {
	return &ProjectsController{service: service}
}

// Register maneja POST /projects/register/projects (X-Registration-Key).
func (c *ProjectsController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("ProjectsController.Register"))

	var req dto.RegisterRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	res, err := c.service.Register(ctx, req)
	if err != nil {
		log.Warn("project registration failed", logger.Err(err))
		switch {
		case errors.Is(err, identity.ErrEmailExists):
			helpers.WriteError(w, r, httperrors.ErrEmailAlreadyRegistered)
		case errors.Is(err, identity.ErrWeakPassword):
			helpers.WriteError(w, r, httperrors.ErrWeakPassword)
		case errors.Is(err, identity.ErrUnavailable):
			helpers.WriteError(w, r, httperrors.ErrServiceUnavailable.WithCause(err))
		default:
			helpers.WriteError(w, r, err)
		}
		return
	}
	res.Message = i18n.FromContext(ctx).T("ProjectRegistered", nil)
	helpers.WriteSuccess(w, r, http.StatusCreated, res)
}
