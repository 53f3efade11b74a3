// Package identity abstrae el proveedor de identidades (credenciales y
// custom claims). Los documentos de usuario viven en el store; acá solo la
// cuenta de login.
package identity

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrUserNotFound el uid o email no existe en el proveedor.
	ErrUserNotFound = errors.New("identity: user not found")

	// ErrInvalidToken el ID token no verifica (firma, issuer, expiración).
	ErrInvalidToken = errors.New("identity: invalid id token")

	// ErrEmailExists ya hay una cuenta con ese email.
	ErrEmailExists = errors.New("identity: email already exists")

	// ErrInvalidCredentials email o password incorrectos (sign-in local).
	ErrInvalidCredentials = errors.New("identity: invalid credentials")

	// ErrWeakPassword la password no cumple la política.
	ErrWeakPassword = errors.New("identity: weak password")

	// ErrInvalidResetCode oobCode inexistente, vencido o ya usado.
	ErrInvalidResetCode = errors.New("identity: invalid reset code")

	// ErrUnavailable el breaker está abierto.
	ErrUnavailable = errors.New("identity: provider unavailable")
)

// IsClientError reporta errores que son respuesta válida del proveedor y no
// una falla del mismo.
func IsClientError(err error) bool {
	for _, e := range []error{ErrUserNotFound, ErrInvalidToken, ErrEmailExists, ErrInvalidCredentials, ErrWeakPassword, ErrInvalidResetCode} {
		if errors.Is(err, e) {
			return true
		}
	}
	return false
}

// User cuenta en el proveedor.
type User struct {
	UID          string
	Email        string
	DisplayName  string
	Disabled     bool
	CustomClaims map[string]any
}

// Token resultado de verificar un ID token.
type Token struct {
	UID    string
	Email  string
	Claims map[string]any
}

// UserToCreate datos de alta. UID vacío: lo asigna el proveedor.
type UserToCreate struct {
	UID         string
	Email       string
	Password    string
	DisplayName string
}

// UserToUpdate cambios parciales; nil = sin cambio.
type UserToUpdate struct {
	Email       *string
	DisplayName *string
	Password    *string
	Disabled    *bool
}

// Empty reporta si no hay cambios.
func (u UserToUpdate) Empty() bool {
	return u.Email == nil && u.DisplayName == nil && u.Password == nil && u.Disabled == nil
}

// Provider contrato común de firebase y local.
type Provider interface {
	Name() string
	VerifyIDToken(ctx context.Context, idToken string) (*Token, error)
	GetUser(ctx context.Context, uid string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, u UserToCreate) (*User, error)
	UpdateUser(ctx context.Context, uid string, u UserToUpdate) (*User, error)
	DeleteUser(ctx context.Context, uid string) error
	SetCustomClaims(ctx context.Context, uid string, claims map[string]any) error
	PasswordResetLink(ctx context.Context, email string) (string, error)
}

// ResetConfirmer lo implementan los proveedores que resuelven el oobCode
// del link de reset (firebase lo hace en su propia UI).
type ResetConfirmer interface {
	ConfirmPasswordReset(ctx context.Context, oobCode, newPassword string) error
}

// PasswordSigner emite ID tokens a partir de email/password. Solo local:
// con firebase el cliente obtiene el token con el SDK web.
type PasswordSigner interface {
	SignInWithPassword(ctx context.Context, email, password string) (string, error)
}

// NormalizeEmail trim + lower.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// DisplayName arma "first last" ignorando vacíos.
func DisplayName(first, last string) string {
	return strings.TrimSpace(strings.TrimSpace(first) + " " + strings.TrimSpace(last))
}
