// Package bootstrap crea el primer usuario admin cuando la colección users
// no tiene ninguno.
package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/dropDatabas3/hellousers/internal/audit"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/saga"
	"github.com/dropDatabas3/hellousers/internal/store"
)

const (
	usersCollection = "users"
	adminRole       = "admin"
	minPasswordLen  = 10
)

// AdminConfig parámetros del bootstrap.
type AdminConfig struct {
	Store    *store.Facade
	Identity identity.Provider

	// SkipPrompt usa Email/Password sin preguntar (CI, tests).
	SkipPrompt bool
	Email      string
	Password   string
	FirstName  string
	LastName   string

	In  io.Reader // default os.Stdin
	Out io.Writer // default os.Stdout
}

// ErrAdminExists ya hay al menos un admin.
var ErrAdminExists = errors.New("bootstrap: admin already exists")

// HasAdmin reporta si existe algún users/{id} con role admin.
func HasAdmin(ctx context.Context, s *store.Facade) (bool, error) {
	n, err := s.CountWithFilters(ctx, usersCollection, []store.Filter{
		store.Where("role", store.OpEqual, adminRole),
	}, nil)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureAdmin crea el admin si no hay ninguno. Retorna el id creado o
// ErrAdminExists.
func EnsureAdmin(ctx context.Context, cfg AdminConfig) (string, error) {
	if cfg.In == nil {
		cfg.In = os.Stdin
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	log := logger.From(ctx).With(logger.Component("bootstrap"), logger.Op("EnsureAdmin"))

	ok, err := HasAdmin(ctx, cfg.Store)
	if err != nil {
		return "", fmt.Errorf("check admins: %w", err)
	}
	if ok {
		return "", ErrAdminExists
	}

	if !cfg.SkipPrompt {
		if cfg.Email, cfg.Password, err = prompt(cfg.In, cfg.Out); err != nil {
			return "", err
		}
	}
	cfg.Email = identity.NormalizeEmail(cfg.Email)
	if !strings.Contains(cfg.Email, "@") {
		return "", errors.New("invalid email format")
	}
	if len(cfg.Password) < minPasswordLen {
		return "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if cfg.FirstName == "" {
		cfg.FirstName = "Admin"
	}

	id, err := createAdmin(ctx, cfg)
	if err != nil {
		return "", err
	}
	log.Info("admin created", logger.UserID(id), logger.Email(cfg.Email))
	audit.Log(ctx, audit.AdminCreated, logger.UserID(id), logger.Email(cfg.Email))
	return id, nil
}

func createAdmin(ctx context.Context, cfg AdminConfig) (string, error) {
	var account *identity.User
	err := saga.New("bootstrap.admin").
		Add("identity.create", func(ctx context.Context) error {
			var err error
			account, err = cfg.Identity.CreateUser(ctx, identity.UserToCreate{
				Email:       cfg.Email,
				Password:    cfg.Password,
				DisplayName: identity.DisplayName(cfg.FirstName, cfg.LastName),
			})
			return err
		}, func(ctx context.Context) error {
			return cfg.Identity.DeleteUser(ctx, account.UID)
		}).
		Add("identity.claims", func(ctx context.Context) error {
			return cfg.Identity.SetCustomClaims(ctx, account.UID, map[string]any{"role": adminRole})
		}, nil).
		Add("document.create", func(ctx context.Context) error {
			_, err := cfg.Store.Create(ctx, usersCollection, map[string]any{
				"firstName": cfg.FirstName,
				"lastName":  cfg.LastName,
				"email":     cfg.Email,
				"role":      adminRole,
				"status":    "inactive",
			}, account.UID)
			return err
		}, nil).
		Run(ctx)
	if err != nil {
		return "", err
	}
	return account.UID, nil
}

// prompt pide email y password; el password sin eco si stdin es terminal.
func prompt(in io.Reader, out io.Writer) (email, password string, err error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Admin Email: ")
	email, err = reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", "", errors.New("email cannot be empty")
	}

	fmt.Fprintf(out, "Admin Password (min %d chars): ", minPasswordLen)
	if password, err = readSecret(reader, in); err != nil {
		return "", "", err
	}
	fmt.Fprint(out, "\nConfirm Password: ")
	confirm, err := readSecret(reader, in)
	if err != nil {
		return "", "", err
	}
	fmt.Fprintln(out)

	if password != confirm {
		return "", "", errors.New("passwords do not match")
	}
	return email, password, nil
}

func readSecret(reader *bufio.Reader, in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
