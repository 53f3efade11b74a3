package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	ctrl "github.com/dropDatabas3/hellousers/internal/http/controllers/users"
	mw "github.com/dropDatabas3/hellousers/internal/http/middlewares"
	"github.com/dropDatabas3/hellousers/internal/http/schemas"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
)

// UsersRouterDeps contiene las dependencias para el router de users.
type UsersRouterDeps struct {
	Controllers *ctrl.Controllers
	Issuer      *jwtx.Issuer
	Checks      schemas.Checks
	ManageRoles []string // vacío = cualquier usuario autenticado
}

// RegisterUsersRoutes registra el CRUD de users.
func RegisterUsersRoutes(r chi.Router, deps UsersRouterDeps) {
	c := deps.Controllers
	checks := deps.Checks

	// managed: bearer + rol + esquema, en ese orden
	managed := func(h http.HandlerFunc, schema mw.Middleware) http.Handler {
		return mw.ChainFunc(h,
			mw.RequireAccessToken(deps.Issuer),
			mw.RequireRole(deps.ManageRoles...),
			schema,
		)
	}

	r.Route("/users", func(r chi.Router) {
		// POST /users/create/user
		r.Method(http.MethodPost, "/create/user", managed(c.Users.Create, mw.Validate(checks.CreateUser())))

		// PUT /users/update/user
		r.Method(http.MethodPut, "/update/user", managed(c.Users.Update, mw.Validate(checks.UpdateUser())))

		// GET /users/get/user
		r.Method(http.MethodGet, "/get/user", managed(c.Users.Get, mw.Validate(checks.GetUser())))

		// DELETE /users/delete/user?id=
		r.Method(http.MethodDelete, "/delete/user", managed(c.Users.Delete, mw.Validate(checks.UserID())))

		// POST /users/upload/user/picture?id= (cualquier usuario autenticado)
		r.Method(http.MethodPost, "/upload/user/picture", mw.ChainFunc(c.Picture.Upload,
			mw.RequireAccessToken(deps.Issuer),
			mw.Validate(checks.UserID()),
		))

		// POST /users/create/public/user (sin auth)
		r.Method(http.MethodPost, "/create/public/user", mw.ChainFunc(c.Users.CreatePublic, mw.Validate(checks.PublicCreateUser())))
	})
}
