// Package firebase implementa identity.Provider con el Admin SDK.
package firebase

import (
	"context"
	"errors"
	"fmt"

	fb "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/dropDatabas3/hellousers/internal/identity"
)

// Config credenciales del proyecto. CredentialsFile vacío usa las
// credenciales por defecto del entorno (GOOGLE_APPLICATION_CREDENTIALS).
type Config struct {
	CredentialsFile string
	ProjectID       string
}

// authClient subset de *auth.Client que usamos.
type authClient interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*auth.UserRecord, error)
	CreateUser(ctx context.Context, user *auth.UserToCreate) (*auth.UserRecord, error)
	UpdateUser(ctx context.Context, uid string, user *auth.UserToUpdate) (*auth.UserRecord, error)
	DeleteUser(ctx context.Context, uid string) error
	SetCustomUserClaims(ctx context.Context, uid string, customClaims map[string]interface{}) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// Provider firebase auth.
type Provider struct {
	client authClient
}

// New inicializa la app y el cliente de auth.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	var appCfg *fb.Config
	if cfg.ProjectID != "" {
		appCfg = &fb.Config{ProjectID: cfg.ProjectID}
	}
	app, err := fb.NewApp(ctx, appCfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("identity/firebase: init app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("identity/firebase: auth client: %w", err)
	}
	return &Provider{client: client}, nil
}

func (p *Provider) Name() string { return "firebase" }

func (p *Provider) VerifyIDToken(ctx context.Context, idToken string) (*identity.Token, error) {
	tok, err := p.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		if auth.IsIDTokenInvalid(err) || auth.IsIDTokenExpired(err) || auth.IsIDTokenRevoked(err) {
			return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
		}
		return nil, mapErr(err)
	}
	email, _ := tok.Claims["email"].(string)
	return &identity.Token{UID: tok.UID, Email: email, Claims: tok.Claims}, nil
}

func (p *Provider) GetUser(ctx context.Context, uid string) (*identity.User, error) {
	rec, err := p.client.GetUser(ctx, uid)
	if err != nil {
		return nil, mapErr(err)
	}
	return toUser(rec), nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	rec, err := p.client.GetUserByEmail(ctx, identity.NormalizeEmail(email))
	if err != nil {
		return nil, mapErr(err)
	}
	return toUser(rec), nil
}

func (p *Provider) CreateUser(ctx context.Context, u identity.UserToCreate) (*identity.User, error) {
	params := (&auth.UserToCreate{}).
		Email(identity.NormalizeEmail(u.Email)).
		Password(u.Password)
	if u.UID != "" {
		params = params.UID(u.UID)
	}
	if u.DisplayName != "" {
		params = params.DisplayName(u.DisplayName)
	}
	rec, err := p.client.CreateUser(ctx, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toUser(rec), nil
}

func (p *Provider) UpdateUser(ctx context.Context, uid string, u identity.UserToUpdate) (*identity.User, error) {
	if u.Empty() {
		return p.GetUser(ctx, uid)
	}
	params := &auth.UserToUpdate{}
	if u.Email != nil {
		params = params.Email(identity.NormalizeEmail(*u.Email))
	}
	if u.DisplayName != nil {
		params = params.DisplayName(*u.DisplayName)
	}
	if u.Password != nil {
		params = params.Password(*u.Password)
	}
	if u.Disabled != nil {
		params = params.Disabled(*u.Disabled)
	}
	rec, err := p.client.UpdateUser(ctx, uid, params)
	if err != nil {
		return nil, mapErr(err)
	}
	return toUser(rec), nil
}

func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	return mapErr(p.client.DeleteUser(ctx, uid))
}

func (p *Provider) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	return mapErr(p.client.SetCustomUserClaims(ctx, uid, claims))
}

func (p *Provider) PasswordResetLink(ctx context.Context, email string) (string, error) {
	link, err := p.client.PasswordResetLink(ctx, identity.NormalizeEmail(email))
	if err != nil {
		return "", mapErr(err)
	}
	return link, nil
}

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case auth.IsUserNotFound(err):
		return fmt.Errorf("%w: %v", identity.ErrUserNotFound, err)
	case auth.IsEmailAlreadyExists(err):
		return fmt.Errorf("%w: %v", identity.ErrEmailExists, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("identity/firebase: %w", err)
}

func toUser(rec *auth.UserRecord) *identity.User {
	u := &identity.User{Disabled: rec.Disabled, CustomClaims: rec.CustomClaims}
	if rec.UserInfo != nil {
		u.UID = rec.UID
		u.Email = rec.Email
		u.DisplayName = rec.DisplayName
	}
	if u.CustomClaims == nil {
		u.CustomClaims = map[string]any{}
	}
	return u
}
