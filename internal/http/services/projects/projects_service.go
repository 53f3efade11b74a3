// Package projects contiene el alta de proyectos (tenants): proyecto,
// compañía inicial y super usuario administrador.
package projects

import (
	"context"
	"errors"
	"fmt"
	"github.com/dropDatabas3/hellousers/internal/audit"
	"strings"

	dto "github.com/dropDatabas3/hellousers/internal/http/dto/projects"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/saga"
	tokens "github.com/dropDatabas3/hellousers/internal/security/token"
	"github.com/dropDatabas3/hellousers/internal/store"
)

// Colecciones.
const (
	Collection      = "projects"
	UsersCollection = "users"
	companiesName   = "companies"
)

const (
	adminRole          = "admin"
	defaultEmailDomain = "hellousers.local"
	passwordBytes      = 12
)

// campos de la compañía que se heredan del proyecto si no vienen
var inheritedCompanyFields = []string{"name", "state", "address", "roles"}

// ProjectService alta de proyectos.
type ProjectService interface {
	Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error)
}

// Deps dependencias del service.
type Deps struct {
	Store    *store.Facade
	Identity identity.Provider
	// AdminEmailDomain dominio del email por defecto del super usuario.
	AdminEmailDomain string
}

// Services agrupa los services del dominio projects.
type Services struct {
	Projects ProjectService
}

// NewServices crea el agregador de services projects.
func NewServices(d Deps) Services {
	return Services{Projects: NewProjectService(d)}
}

// ErrInvalidProject el body no trae project.
var ErrInvalidProject = errors.New("project is required")

type projectService struct {
	deps Deps
}

// NewProjectService crea el service de proyectos.
func NewProjectService(deps Deps) ProjectService {
	if strings.TrimSpace(deps.AdminEmailDomain) == "" {
		deps.AdminEmailDomain = defaultEmailDomain
	}
	return &projectService{deps: deps}
}

// CompaniesCollection projects/{pid}/companies.
func CompaniesCollection(projectID string) string {
	return store.SubCollection(Collection, projectID, companiesName)
}

// Register crea proyecto, compañía, cuenta del super usuario y su documento
// en users. Cualquier falla deshace lo anterior.
func (s *projectService) Register(ctx context.Context, in dto.RegisterRequest) (*dto.RegisterResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("projects.register"),
		logger.Op("Register"),
	)
	if len(in.Project) == 0 {
		return nil, ErrInvalidProject
	}
	var err error

	// sin password en el request se genera uno y se devuelve una sola vez
	pass, generated := "", false
	if in.SuperUser != nil && in.SuperUser.Password != "" {
		pass = in.SuperUser.Password
	} else {
		if pass, err = tokens.GenerateOpaqueToken(passwordBytes); err != nil {
			return nil, err
		}
		generated = true
	}

	var (
		project *store.Document
		company *store.Document
		account *identity.User
		super   dto.SuperUser
	)
	err = saga.New("projects.register").
		Add("project.create", func(ctx context.Context) error {
			var err error
			project, err = s.deps.Store.Create(ctx, Collection, in.Project, "")
			return err
		}, func(ctx context.Context) error {
			_, err := s.deps.Store.Delete(ctx, Collection, project.ID)
			return err
		}).
		Add("company.create", func(ctx context.Context) error {
			var err error
			company, err = s.deps.Store.Create(ctx, CompaniesCollection(project.ID), companyFields(in.Company, in.Project), "")
			return err
		}, func(ctx context.Context) error {
			_, err := s.deps.Store.Delete(ctx, CompaniesCollection(project.ID), company.ID)
			return err
		}).
		Add("identity.create", func(ctx context.Context) error {
			super = dto.SuperUser{Email: s.superEmail(in.SuperUser, project.ID)}
			if generated {
				super.Password = pass
			}
			var err error
			account, err = s.deps.Identity.CreateUser(ctx, identity.UserToCreate{
				Email:       super.Email,
				Password:    pass,
				DisplayName: identity.DisplayName("Admin", project.String("name")),
			})
			return err
		}, func(ctx context.Context) error {
			return s.deps.Identity.DeleteUser(ctx, account.UID)
		}).
		Add("user.create", func(ctx context.Context) error {
			_, err := s.deps.Store.Create(ctx, UsersCollection, map[string]any{
				"firstName": "Admin",
				"lastName":  project.String("name"),
				"email":     super.Email,
				"phone":     "",
				"role":      adminRole,
				"status":    "inactive",
				"projectId": project.ID,
				"companyId": company.ID,
			}, account.UID)
			return err
		}, func(ctx context.Context) error {
			_, err := s.deps.Store.Delete(ctx, UsersCollection, account.UID)
			return err
		}).
		Add("identity.claims", func(ctx context.Context) error {
			return s.deps.Identity.SetCustomClaims(ctx, account.UID, map[string]any{
				"role":      adminRole,
				"projectId": project.ID,
				"companyId": company.ID,
			})
		}, nil).
		Run(ctx)
	if err != nil {
		return nil, err
	}

	log.Info("project registered",
		logger.ProjectID(project.ID),
		logger.UserID(account.UID),
	)
	audit.Log(ctx, audit.ProjectCreated,
		logger.ProjectID(project.ID),
		logger.UserID(account.UID),
		logger.Email(super.Email),
	)
	return &dto.RegisterResult{
		Project:   withID(project),
		Company:   withID(company),
		SuperUser: super,
	}, nil
}

func (s *projectService) superEmail(su *dto.SuperUser, projectID string) string {
	if su != nil && strings.TrimSpace(su.Email) != "" {
		return identity.NormalizeEmail(su.Email)
	}
	return fmt.Sprintf("admin_%s@%s", strings.ToLower(projectID), s.deps.AdminEmailDomain)
}

func companyFields(company, project map[string]any) map[string]any {
	out := make(map[string]any, len(company)+len(inheritedCompanyFields))
	for k, v := range company {
		out[k] = v
	}
	for _, k := range inheritedCompanyFields {
		if _, ok := out[k]; ok {
			continue
		}
		if v, ok := project[k]; ok {
			out[k] = v
		}
	}
	return out
}

func withID(d *store.Document) map[string]any {
	out := d.Fields()
	out[store.FieldID] = d.ID
	return out
}
