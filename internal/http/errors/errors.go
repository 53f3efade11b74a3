// Package errors define el error de aplicación que viaja hasta la capa HTTP.
//
// El mensaje no se guarda resuelto: AppError lleva una message key del
// diccionario i18n y se localiza recién al renderizar, con el idioma del
// request.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError error con status HTTP y message key localizable.
type AppError struct {
	Status int
	Key    string
	Args   map[string]any
	Err    error // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d %s] %v", e.Status, e.Key, e.Err)
	}
	return fmt.Sprintf("[%d %s]", e.Status, e.Key)
}

func (e *AppError) Unwrap() error { return e.Err }

// New crea un AppError.
func New(status int, key string) *AppError {
	return &AppError{Status: status, Key: key}
}

// WithCause devuelve una COPIA con la causa adjunta.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// WithArgs devuelve una COPIA con argumentos de interpolación.
func (e *AppError) WithArgs(args map[string]any) *AppError {
	cp := *e
	cp.Args = args
	return &cp
}

// As extrae el AppError de la cadena de err.
func As(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// ─── Predefinidos ───

var ErrInvalidJSON = New(http.StatusBadRequest, "InvalidJSON")

var (
	ErrTokenNotFound          = New(http.StatusUnauthorized, "TokenNotFound")
	ErrInvalidOrExpiredToken  = New(http.StatusUnauthorized, "InvalidOrExpiredToken")
	ErrRefreshTokenNotFound   = New(http.StatusUnauthorized, "RefreshTokenNotFound")
	ErrInvalidTokenOrPwdEmail = New(http.StatusUnauthorized, "InvalidTokenOrPwdEmail")
	ErrSessionNotFound        = New(http.StatusUnauthorized, "SessionNotFound")
	ErrInvalidRegistrationKey = New(http.StatusUnauthorized, "InvalidRegistrationKey")
)

var (
	ErrForbidden        = New(http.StatusForbidden, "Forbidden")
	ErrOriginNotAllowed = New(http.StatusForbidden, "OriginNotAllowed")
)

var (
	ErrUserNotFound     = New(http.StatusNotFound, "UserNotFound")
	ErrUserIDInvalid    = New(http.StatusNotFound, "UserIDInvalid")
	ErrRouteNotFound    = New(http.StatusNotFound, "RouteNotFound")
	ErrCodeDoesNotExist = New(http.StatusNotFound, "codeDoesNotExist")
)

var (
	ErrInvalidOrExpiredCode = New(http.StatusBadRequest, "invalidOrExpiredCode")
	ErrInvalidResetCode     = New(http.StatusBadRequest, "InvalidResetCode")
	ErrFileRequired         = New(http.StatusBadRequest, "FileRequired")
)

var ErrEmailAlreadyRegistered = New(http.StatusConflict, "EmailAlreadyRegistered")

var ErrMethodNotAllowed = New(http.StatusMethodNotAllowed, "MethodNotAllowed")

var ErrFileTooLarge = New(http.StatusRequestEntityTooLarge, "FileTooLarge")

var (
	ErrInvalidAuthPayload = New(http.StatusUnprocessableEntity, "InvalidAuthPayload")
	ErrInvalidImage       = New(http.StatusUnprocessableEntity, "InvalidImage")
	ErrWeakPassword       = New(http.StatusUnprocessableEntity, "WeakPassword")
)

var ErrTooManyRequests = New(http.StatusTooManyRequests, "TooManyRequests")

var (
	ErrInternal           = New(http.StatusInternalServerError, "InternalError")
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "ServiceUnavailable")
)
