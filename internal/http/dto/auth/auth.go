// Package auth contiene DTOs de los endpoints /auth.
package auth

import "time"

// LoginRequest body de POST /auth/login.
type LoginRequest struct {
	// TokenAuth ID token emitido por el proveedor de identidad.
	TokenAuth string `json:"tokenAuth"`
}

// Origin datos del request que se guardan en la sesión.
type Origin struct {
	ClientIP  string
	UserAgent string
}

// TokenInfo access token entregado al cliente.
type TokenInfo struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// LoginResponse data de login y refresh.
type LoginResponse struct {
	TokenInfo TokenInfo `json:"tokenInfo"`
}

// SessionResult resultado interno de login/refresh. RefreshToken vacío
// significa que la cookie no cambia.
type SessionResult struct {
	Access         TokenInfo
	RefreshToken   string
	RefreshExpires time.Time
}

// PasswordCodeRequest body de POST /auth/password/code.
type PasswordCodeRequest struct {
	Email string `json:"email"`
	Lang  string `json:"lang,omitempty"`
}

// ResetPasswordRequest body de POST /auth/reset/password.
type ResetPasswordRequest struct {
	Code string `json:"code"`
	Lang string `json:"lang,omitempty"`
}

// ConfirmResetRequest body de POST /auth/reset/password/confirm.
type ConfirmResetRequest struct {
	OOBCode     string `json:"oobCode"`
	NewPassword string `json:"newPassword"`
}

// IdentityTokenRequest body de POST /auth/identity/token.
type IdentityTokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IdentityTokenResponse ID token para usar como tokenAuth en login.
type IdentityTokenResponse struct {
	IDToken string `json:"idToken"`
}
