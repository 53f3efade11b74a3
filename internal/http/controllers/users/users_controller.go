package users

import (
	"context"
	"net/http"
	"strings"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/users"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	svc "github.com/dropDatabas3/hellousers/internal/http/services/users"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/store"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

// UsersController CRUD de users.
type UsersController struct {
	service svc.UserService
}

// NewUsersController crea el controller.
func NewUsersController(service svc.UserService) *UsersController {
	return &UsersController{service: service}
}

type createFunc func(ctx context.Context, in dto.CreateUserRequest, lang string) (*store.Document, error)

// Create maneja POST /users/create/user
func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	c.create(w, r, c.service.Create, "UsersController.Create")
}

// CreatePublic maneja POST /users/create/public/user
func (c *UsersController) CreatePublic(w http.ResponseWriter, r *http.Request) {
	c.create(w, r, c.service.CreatePublic, "UsersController.CreatePublic")
}

func (c *UsersController) create(w http.ResponseWriter, r *http.Request, fn createFunc, op string) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op(op))

	var req dto.CreateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	doc, err := fn(ctx, req, i18n.FromContext(ctx).Prefer(req.Lang))
	if err != nil {
		log.Warn("create user failed", logger.Err(err))
		writeUsersError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, r, http.StatusCreated, doc)
}

// Update maneja PUT /users/update/user
func (c *UsersController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Update"))

	var req dto.UpdateUserRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	doc, err := c.service.Update(ctx, req)
	if err != nil {
		log.Warn("update user failed", logger.Err(err))
		writeUsersError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, r, http.StatusOK, doc)
}

// Get maneja GET /users/get/user?id | ?itemsPerPage&lastDocId&role&status
func (c *UsersController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	qs := r.URL.Query()
	q := dto.ListQuery{
		ID:        strings.TrimSpace(qs.Get("id")),
		LastDocID: strings.TrimSpace(qs.Get("lastDocId")),
		Role:      strings.TrimSpace(qs.Get("role")),
		Status:    strings.TrimSpace(qs.Get("status")),
	}
	if ipp, ok := validation.AsInt(qs.Get("itemsPerPage")); ok {
		q.ItemsPerPage = ipp
	}

	data, err := c.service.Get(ctx, q)
	if err != nil {
		logger.From(ctx).Debug("get users failed",
			logger.Layer("controller"),
			logger.Op("UsersController.Get"),
			logger.Err(err),
		)
		writeUsersError(w, r, err)
		return
	}
	helpers.WriteSuccess(w, r, http.StatusOK, data)
}

// Delete maneja DELETE /users/delete/user?id=
func (c *UsersController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("UsersController.Delete"))

	if err := c.service.Delete(ctx, strings.TrimSpace(r.URL.Query().Get("id"))); err != nil {
		log.Warn("delete user failed", logger.Err(err))
		writeUsersError(w, r, err)
		return
	}
	helpers.WriteMessage(w, r, http.StatusOK, "UserDeleted", nil)
}
