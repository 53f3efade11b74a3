package users

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dropDatabas3/hellousers/internal/audit"
	"github.com/dropDatabas3/hellousers/internal/email"
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/users"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/saga"
	"github.com/dropDatabas3/hellousers/internal/storage"
	"github.com/dropDatabas3/hellousers/internal/store"
)

const (
	fieldFirstName      = "firstName"
	fieldLastName       = "lastName"
	fieldEmail          = "email"
	fieldRole           = "role"
	fieldStatus         = "status"
	fieldProfilePicture = "profilePicture"

	claimRole = "role"
)

var updatable = func() map[string]bool {
	m := make(map[string]bool, len(dto.UpdatableFields))
	for _, f := range dto.UpdatableFields {
		m[f] = true
	}
	return m
}()

type userService struct {
	deps Deps
}

// NewUserService crea el service de usuarios.
func NewUserService(deps Deps) UserService {
	return &userService{deps: deps}
}

// ─── Alta ───

func (s *userService) Create(ctx context.Context, in dto.CreateUserRequest, lang string) (*store.Document, error) {
	return s.create(ctx, in, lang, "users.create")
}

func (s *userService) CreatePublic(ctx context.Context, in dto.CreateUserRequest, lang string) (*store.Document, error) {
	in.User.Role = PublicRole
	in.User.Status = PublicStatus
	return s.create(ctx, in, lang, "users.create_public")
}

// create: cuenta en el proveedor, claim de rol, documento users/{uid}.
// Link de reset y email de bienvenida son best-effort.
func (s *userService) create(ctx context.Context, in dto.CreateUserRequest, lang, name string) (*store.Document, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component(name),
		logger.Op("Create"),
	)

	plain, err := s.deps.Box.Decrypt(in.Auth)
	if err != nil {
		log.Debug("auth payload rejected", logger.Err(err))
		return nil, ErrInvalidAuthPayload
	}

	u := in.User
	u.Email = identity.NormalizeEmail(u.Email)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)

	var (
		account *identity.User
		doc     *store.Document
	)
	err = saga.New(name).
		Add("identity.create", func(ctx context.Context) error {
			var err error
			account, err = s.deps.Identity.CreateUser(ctx, identity.UserToCreate{
				Email:       u.Email,
				Password:    plain,
				DisplayName: identity.DisplayName(u.FirstName, u.LastName),
			})
			return err
		}, func(ctx context.Context) error {
			return s.deps.Identity.DeleteUser(ctx, account.UID)
		}).
		Add("identity.claims", func(ctx context.Context) error {
			return s.deps.Identity.SetCustomClaims(ctx, account.UID, map[string]any{claimRole: u.Role})
		}, nil).
		Add("document.create", func(ctx context.Context) error {
			var err error
			doc, err = s.deps.Store.Create(ctx, Collection, u.Fields(), account.UID)
			return err
		}, func(ctx context.Context) error {
			_, err := s.deps.Store.Delete(ctx, Collection, account.UID)
			return err
		}).
		Run(ctx)
	if err != nil {
		return nil, err
	}

	s.welcome(ctx, u, lang)
	log.Info("user created", logger.UserID(doc.ID), logger.String("role", u.Role))
	audit.Log(ctx, audit.UserCreated, logger.UserID(doc.ID), logger.Email(u.Email), logger.String("role", u.Role))
	return doc, nil
}

func (s *userService) welcome(ctx context.Context, u dto.UserInput, lang string) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("welcome"), logger.Email(u.Email))
	link, err := s.deps.Identity.PasswordResetLink(ctx, u.Email)
	if err != nil {
		log.Warn("reset link for new user failed", logger.Err(err))
		return
	}
	if s.deps.Mailer == nil {
		return
	}
	err = s.deps.Mailer.Send(u.Email, email.TemplateAccountCreated, lang, email.Vars{
		Name: identity.DisplayName(u.FirstName, u.LastName),
		Link: link,
	})
	if err != nil {
		log.Warn("welcome email failed", logger.Err(err))
	}
}

// ─── Edición ───

// Update mergea los campos de in.User (solo dto.UpdatableFields) en users/{id} y sincroniza email,
// nombre y rol con el proveedor. Si la sincronización falla, el documento
// vuelve a sus valores previos.
func (s *userService) Update(ctx context.Context, in dto.UpdateUserRequest) (*store.Document, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("users.update"),
		logger.Op("Update"),
	)

	id, _ := in.User["id"].(string)
	current, err := s.deps.Store.Get(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrUserNotFound
	}

	patch := make(map[string]any, len(in.User))
	for k, v := range in.User {
		if !updatable[k] {
			continue
		}
		switch k {
		case fieldEmail:
			if e, ok := v.(string); ok {
				v = identity.NormalizeEmail(e)
			}
		case fieldFirstName, fieldLastName:
			if n, ok := v.(string); ok {
				v = strings.TrimSpace(n)
			}
		}
		patch[k] = v
	}
	if len(patch) == 0 {
		return current, nil
	}

	// campos ausentes antes del update se borran al compensar
	previous := make(map[string]any, len(patch))
	for k := range patch {
		if v, ok := current.Data[k]; ok {
			previous[k] = v
		} else {
			previous[k] = store.Unset
		}
	}

	var updated *store.Document
	err = saga.New("users.update").
		Add("document.update", func(ctx context.Context) error {
			var err error
			updated, err = s.deps.Store.Update(ctx, Collection, id, patch)
			return err
		}, func(ctx context.Context) error {
			_, err := s.deps.Store.Update(ctx, Collection, id, previous)
			return err
		}).
		Add("identity.sync", func(ctx context.Context) error {
			return s.syncIdentity(ctx, id, current, updated, patch)
		}, nil).
		Run(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("user updated", logger.UserID(id), logger.Count(len(patch)))
	audit.Log(ctx, audit.UserUpdated, logger.UserID(id), logger.Any("fields", patchKeys(patch)))
	return updated, nil
}

func (s *userService) syncIdentity(ctx context.Context, id string, before, after *store.Document, patch map[string]any) error {
	var upd identity.UserToUpdate
	if e := after.String(fieldEmail); e != before.String(fieldEmail) {
		upd.Email = &e
	}
	_, first := patch[fieldFirstName]
	_, last := patch[fieldLastName]
	if first || last {
		name := identity.DisplayName(after.String(fieldFirstName), after.String(fieldLastName))
		upd.DisplayName = &name
	}
	if !upd.Empty() {
		if _, err := s.deps.Identity.UpdateUser(ctx, id, upd); err != nil {
			return err
		}
	}

	if role, ok := patch[fieldRole]; ok && role != before.Data[fieldRole] {
		account, err := s.deps.Identity.GetUser(ctx, id)
		if err != nil {
			return err
		}
		claims := make(map[string]any, len(account.CustomClaims)+1)
		for k, v := range account.CustomClaims {
			claims[k] = v
		}
		claims[claimRole] = role
		if err := s.deps.Identity.SetCustomClaims(ctx, id, claims); err != nil {
			return err
		}
	}
	return nil
}

// ─── Consulta ───

func (s *userService) Get(ctx context.Context, q dto.ListQuery) (any, error) {
	if q.ID != "" {
		doc, err := s.deps.Store.Get(ctx, Collection, q.ID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrUserNotFound
		}
		return doc, nil
	}

	var filters []store.Filter
	if q.Role != "" {
		filters = append(filters, store.Where(fieldRole, store.OpEqual, q.Role))
	}
	if q.Status != "" {
		filters = append(filters, store.Where(fieldStatus, store.OpEqual, q.Status))
	}
	order := store.OrderBy(store.FieldCreatedAt, store.Asc)

	if q.ItemsPerPage > 0 {
		return s.page(ctx, filters, order, q)
	}
	if len(filters) == 0 {
		docs, err := s.deps.Store.List(ctx, Collection, nil, order)
		if err != nil {
			return nil, err
		}
		return nonNil(docs), nil
	}
	// con filtros: una sola página del tamaño del total
	n, err := s.deps.Store.CountWithFilters(ctx, Collection, filters, nil)
	if err != nil || n == 0 {
		return []store.Document{}, err
	}
	page, err := s.deps.Store.Paginate(ctx, Collection, store.PageRequest{Filters: filters, Order: order, PageSize: int(n)})
	if err != nil {
		return nil, err
	}
	return nonNil(page.Documents), nil
}

func (s *userService) page(ctx context.Context, filters []store.Filter, order *store.Order, q dto.ListQuery) (*dto.PageResponse, error) {
	total, err := s.deps.Store.CountWithFilters(ctx, Collection, filters, nil)
	if err != nil {
		return nil, err
	}
	page, err := s.deps.Store.Paginate(ctx, Collection, store.PageRequest{
		Filters:  filters,
		Order:    order,
		PageSize: q.ItemsPerPage,
		Cursor:   q.LastDocID,
	})
	if err != nil {
		if errors.Is(err, store.ErrCursorNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	ipp := int64(q.ItemsPerPage)
	return &dto.PageResponse{
		Page:       nonNil(page.Documents),
		TotalPages: int((total + ipp - 1) / ipp),
		LastDocID:  page.LastDocID,
	}, nil
}

func nonNil(docs []store.Document) []store.Document {
	if docs == nil {
		return []store.Document{}
	}
	return docs
}

// ─── Baja ───

// Delete borra la cuenta, las sesiones, el documento y los archivos del
// usuario. Una cuenta que ya no existe en el proveedor no es error.
func (s *userService) Delete(ctx context.Context, id string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("users.delete"),
		logger.Op("Delete"),
		logger.UserID(id),
	)

	doc, err := s.deps.Store.Get(ctx, Collection, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrUserNotFound
	}

	if err := s.deps.Identity.DeleteUser(ctx, id); err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		return fmt.Errorf("delete identity: %w", err)
	}

	sessions, err := s.deps.Store.List(ctx, SessionsCollection(id), nil, nil)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if _, err := s.deps.Store.Delete(ctx, SessionsCollection(id), sess.ID); err != nil {
			return err
		}
	}

	if _, err := s.deps.Store.Delete(ctx, Collection, id); err != nil {
		return err
	}

	if s.deps.Bucket != nil {
		if err := s.deps.Bucket.DeletePrefix(ctx, storage.UserPrefix(id)); err != nil {
			return fmt.Errorf("delete user files: %w", err)
		}
	}

	log.Info("user deleted", logger.Count(len(sessions)))
	audit.Log(ctx, audit.UserDeleted, logger.UserID(id))
	return nil
}

func patchKeys(patch map[string]any) []string {
	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ─── Foto de perfil ───

func (s *userService) UploadPicture(ctx context.Context, id string, up dto.Upload) (*store.Document, error) {
	doc, err := s.deps.Store.Get(ctx, Collection, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrUserNotFound
	}

	thumb, err := storage.Thumbnail(up.Data)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidImage) {
			return nil, ErrInvalidImage
		}
		return nil, err
	}
	url, err := s.deps.Bucket.Put(ctx, storage.ProfileKey(id), "image/jpeg", thumb)
	if err != nil {
		return nil, err
	}

	updated, err := s.deps.Store.Update(ctx, Collection, id, map[string]any{
		fieldProfilePicture: map[string]any{"url": url, "fileName": up.FileName},
	})
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("profile picture uploaded",
		logger.Layer("service"),
		logger.Component("users.picture"),
		logger.UserID(id),
		logger.Bytes(len(thumb)),
	)
	audit.Log(ctx, audit.PictureUploaded, logger.UserID(id), logger.String("file", up.FileName))
	return updated, nil
}
