// Package local implementa identity.Provider sobre el store de documentos.
//
// Las cuentas viven en la colección "identities" ({email, passwordHash,
// displayName, disabled, claims}). Los ID tokens son HS256 propios o, si hay
// un issuer OIDC configurado, tokens externos verificados con go-oidc y
// resueltos a la cuenta local por email.
package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/security/password"
	tokens "github.com/dropDatabas3/hellousers/internal/security/token"
	"github.com/dropDatabas3/hellousers/internal/store"
)

const (
	// Collection donde se guardan las cuentas.
	Collection = "identities"

	// TokenIssuer iss de los ID tokens locales.
	TokenIssuer = "hellousers-identity"

	resetPrefix      = "identity:reset:"
	defaultTokenTTL  = time.Hour
	defaultResetTTL  = time.Hour
	defaultResetURL  = "http://localhost:3000/reset-password"
	fieldEmail       = "email"
	fieldHash        = "passwordHash"
	fieldDisplayName = "displayName"
	fieldDisabled    = "disabled"
	fieldClaims      = "claims"
)

// Options dependencias y parámetros del proveedor.
type Options struct {
	Store *store.Facade
	Cache cache.Client

	// TokenSecret firma los ID tokens locales (HS256).
	TokenSecret []byte
	TokenTTL    time.Duration

	// ResetURL página que recibe ?mode=resetPassword&oobCode=...
	ResetURL string
	ResetTTL time.Duration

	Policy password.Policy
	Hash   password.Params

	// Verifier opcional para ID tokens de un issuer OIDC externo.
	Verifier *oidc.IDTokenVerifier

	Now func() time.Time
}

// Provider identidad local.
type Provider struct {
	opts Options
}

// New valida las opciones y completa defaults.
func New(opts Options) (*Provider, error) {
	if opts.Store == nil || opts.Cache == nil {
		return nil, errors.New("identity/local: store and cache are required")
	}
	if len(opts.TokenSecret) == 0 {
		return nil, errors.New("identity/local: token secret is required")
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = defaultTokenTTL
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = defaultResetTTL
	}
	if opts.ResetURL == "" {
		opts.ResetURL = defaultResetURL
	}
	if opts.Policy.MinLength == 0 {
		opts.Policy.MinLength = password.DefaultPolicy.MinLength
	}
	if opts.Policy.MaxLength == 0 {
		opts.Policy.MaxLength = password.DefaultPolicy.MaxLength
	}
	if opts.Hash.KeyLen == 0 {
		opts.Hash = password.Default
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Provider{opts: opts}, nil
}

// NewOIDCVerifier descubre el issuer y arma el verificador para clientID.
func NewOIDCVerifier(ctx context.Context, issuer, clientID string) (*oidc.IDTokenVerifier, error) {
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("identity/local: discover oidc provider: %w", err)
	}
	return p.Verifier(&oidc.Config{ClientID: clientID}), nil
}

func (p *Provider) Name() string { return "local" }

// ─── Tokens ───

type idClaims struct {
	Email string `json:"email"`
	jwtv5.RegisteredClaims
}

// SignIDToken emite un ID token local para uid.
func (p *Provider) SignIDToken(uid, email string) (string, error) {
	now := p.opts.Now()
	claims := idClaims{
		Email: email,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   uid,
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(p.opts.TokenTTL)),
		},
	}
	return jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims).SignedString(p.opts.TokenSecret)
}

// VerifyIDToken acepta tokens locales y, si hay Verifier, tokens OIDC externos.
func (p *Provider) VerifyIDToken(ctx context.Context, idToken string) (*identity.Token, error) {
	if idToken == "" {
		return nil, identity.ErrInvalidToken
	}
	if tok, err := p.verifyLocal(ctx, idToken); err == nil {
		return tok, nil
	} else if p.opts.Verifier == nil {
		return nil, err
	}
	return p.verifyOIDC(ctx, idToken)
}

func (p *Provider) verifyLocal(ctx context.Context, raw string) (*identity.Token, error) {
	var claims idClaims
	_, err := jwtv5.ParseWithClaims(raw, &claims, func(*jwtv5.Token) (any, error) {
		return p.opts.TokenSecret, nil
	},
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithIssuer(TokenIssuer),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(p.opts.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	u, err := p.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidToken
		}
		return nil, err
	}
	if u.Disabled {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Token{UID: u.UID, Email: u.Email, Claims: u.CustomClaims}, nil
}

func (p *Provider) verifyOIDC(ctx context.Context, raw string) (*identity.Token, error) {
	idt, err := p.opts.Verifier.Verify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", identity.ErrInvalidToken, err)
	}
	var c struct {
		Email string `json:"email"`
	}
	if err := idt.Claims(&c); err != nil || c.Email == "" {
		return nil, identity.ErrInvalidToken
	}
	u, err := p.GetUserByEmail(ctx, c.Email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return nil, identity.ErrInvalidToken
		}
		return nil, err
	}
	if u.Disabled {
		return nil, identity.ErrInvalidToken
	}
	return &identity.Token{UID: u.UID, Email: u.Email, Claims: u.CustomClaims}, nil
}

// SignInWithPassword verifica email/password y emite un ID token local.
func (p *Provider) SignInWithPassword(ctx context.Context, email, plain string) (string, error) {
	doc, err := p.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, identity.ErrUserNotFound) {
			return "", identity.ErrInvalidCredentials
		}
		return "", err
	}
	if disabled, _ := doc.Data[fieldDisabled].(bool); disabled {
		return "", identity.ErrInvalidCredentials
	}
	if !password.Verify(plain, doc.String(fieldHash)) {
		return "", identity.ErrInvalidCredentials
	}
	return p.SignIDToken(doc.ID, doc.String(fieldEmail))
}

// ─── Cuentas ───

func (p *Provider) GetUser(ctx context.Context, uid string) (*identity.User, error) {
	if uid == "" {
		return nil, identity.ErrUserNotFound
	}
	doc, err := p.opts.Store.Get(ctx, Collection, uid)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, identity.ErrUserNotFound
	}
	return toUser(doc), nil
}

func (p *Provider) GetUserByEmail(ctx context.Context, email string) (*identity.User, error) {
	doc, err := p.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return toUser(doc), nil
}

func (p *Provider) findByEmail(ctx context.Context, email string) (*store.Document, error) {
	email = identity.NormalizeEmail(email)
	if email == "" {
		return nil, identity.ErrUserNotFound
	}
	f := store.Where(fieldEmail, store.OpEqual, email)
	docs, err := p.opts.Store.List(ctx, Collection, &f, nil)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, identity.ErrUserNotFound
	}
	return &docs[0], nil
}

// CreateUser. La unicidad del email se chequea antes de escribir; dos altas
// concurrentes con el mismo email pueden pasar ambas.
func (p *Provider) CreateUser(ctx context.Context, u identity.UserToCreate) (*identity.User, error) {
	email := identity.NormalizeEmail(u.Email)
	if email == "" {
		return nil, errors.New("identity/local: email is required")
	}
	if _, err := p.findByEmail(ctx, email); err == nil {
		return nil, identity.ErrEmailExists
	} else if !errors.Is(err, identity.ErrUserNotFound) {
		return nil, err
	}
	hash, err := p.hash(u.Password)
	if err != nil {
		return nil, err
	}
	uid := u.UID
	if uid == "" {
		uid = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	doc, err := p.opts.Store.Create(ctx, Collection, map[string]any{
		fieldEmail:       email,
		fieldHash:        hash,
		fieldDisplayName: u.DisplayName,
		fieldDisabled:    false,
		fieldClaims:      map[string]any{},
	}, uid)
	if err != nil {
		return nil, err
	}
	logger.From(ctx).Info("identity created",
		logger.Layer("identity"), logger.Backend("local"), logger.UserID(uid))
	return toUser(doc), nil
}

func (p *Provider) UpdateUser(ctx context.Context, uid string, u identity.UserToUpdate) (*identity.User, error) {
	current, err := p.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	if u.Empty() {
		return current, nil
	}
	patch := map[string]any{}
	if u.Email != nil {
		email := identity.NormalizeEmail(*u.Email)
		if email != current.Email {
			if other, err := p.findByEmail(ctx, email); err == nil && other.ID != uid {
				return nil, identity.ErrEmailExists
			} else if err != nil && !errors.Is(err, identity.ErrUserNotFound) {
				return nil, err
			}
		}
		patch[fieldEmail] = email
	}
	if u.DisplayName != nil {
		patch[fieldDisplayName] = *u.DisplayName
	}
	if u.Disabled != nil {
		patch[fieldDisabled] = *u.Disabled
	}
	if u.Password != nil {
		hash, err := p.hash(*u.Password)
		if err != nil {
			return nil, err
		}
		patch[fieldHash] = hash
	}
	doc, err := p.opts.Store.Update(ctx, Collection, uid, patch)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, identity.ErrUserNotFound
		}
		return nil, err
	}
	return toUser(doc), nil
}

func (p *Provider) DeleteUser(ctx context.Context, uid string) error {
	if _, err := p.GetUser(ctx, uid); err != nil {
		return err
	}
	_, err := p.opts.Store.Delete(ctx, Collection, uid)
	return err
}

// SetCustomClaims reemplaza el set completo de claims.
func (p *Provider) SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error {
	if claims == nil {
		claims = map[string]any{}
	}
	_, err := p.opts.Store.Update(ctx, Collection, uid, map[string]any{fieldClaims: claims})
	if store.IsNotFound(err) {
		return identity.ErrUserNotFound
	}
	return err
}

// ─── Reset ───

// PasswordResetLink genera un oobCode de un solo uso (ResetTTL) y arma el link.
func (p *Provider) PasswordResetLink(ctx context.Context, email string) (string, error) {
	doc, err := p.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	code, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return "", err
	}
	if err := p.opts.Cache.Set(ctx, resetPrefix+code, doc.ID, p.opts.ResetTTL); err != nil {
		return "", fmt.Errorf("identity/local: store reset code: %w", err)
	}
	u, err := url.Parse(p.opts.ResetURL)
	if err != nil {
		return "", fmt.Errorf("identity/local: reset url: %w", err)
	}
	q := u.Query()
	q.Set("mode", "resetPassword")
	q.Set("oobCode", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ConfirmPasswordReset consume el oobCode y cambia la password. Una password
// que no cumple la política no consume el código.
func (p *Provider) ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error {
	if err := p.checkPolicy(newPassword); err != nil {
		return err
	}
	uid, err := p.opts.Cache.Take(ctx, resetPrefix+oobCode)
	if err != nil {
		if cache.IsNotFound(err) {
			return identity.ErrInvalidResetCode
		}
		return err
	}
	_, err = p.UpdateUser(ctx, uid, identity.UserToUpdate{Password: &newPassword})
	if errors.Is(err, identity.ErrUserNotFound) {
		return identity.ErrInvalidResetCode
	}
	return err
}

func (p *Provider) hash(plain string) (string, error) {
	if err := p.checkPolicy(plain); err != nil {
		return "", err
	}
	return password.Hash(p.opts.Hash, plain)
}

// checkPolicy traduce las violaciones de la política a ErrWeakPassword sin
// perder el *password.PolicyError.
func (p *Provider) checkPolicy(plain string) error {
	if err := p.opts.Policy.Check(plain); err != nil {
		return fmt.Errorf("%w: %w", identity.ErrWeakPassword, err)
	}
	return nil
}

func toUser(doc *store.Document) *identity.User {
	u := &identity.User{
		UID:         doc.ID,
		Email:       doc.String(fieldEmail),
		DisplayName: doc.String(fieldDisplayName),
	}
	u.Disabled, _ = doc.Data[fieldDisabled].(bool)
	if c, ok := doc.Data[fieldClaims].(map[string]any); ok {
		u.CustomClaims = c
	} else {
		u.CustomClaims = map[string]any{}
	}
	return u
}
