package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/projects"
	mw "github.com/dropDatabas3/hellousers/internal/http/middlewares"
	"github.com/dropDatabas3/hellousers/internal/http/schemas"
)

// ProjectsRouterDeps contiene las dependencias para el router de projects.
type ProjectsRouterDeps struct {
	Controllers     *ctrl.Controllers
	Checks          schemas.Checks
	RegistrationKey string // vacío = ruta cerrada
}

// RegisterProjectsRoutes registra el alta de proyectos.
func RegisterProjectsRoutes(r chi.Router, deps ProjectsRouterDeps) {
	c := deps.Controllers

	// POST /projects/register/projects
	r.Method(http.MethodPost, "/projects/register/projects", mw.ChainFunc(c.Projects.Register,
		mw.WithNoStore(),
		mw.RequireRegistrationKey(deps.RegistrationKey),
		mw.Validate(deps.Checks.RegisterProject()),
	))
}
