package middlewares

import (
	"context"
	"net/http"

	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
)

type ctxKey string

const (
	ctxRequestIDKey ctxKey = "request_id"
	ctxClientIPKey  ctxKey = "client_ip"
	ctxClaimsKey    ctxKey = "claims"
	ctxRefreshKey   ctxKey = "refresh_token"
)

func setRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, id)
}

// WithClaims inyecta las claims validadas.
func WithClaims(ctx context.Context, c *jwtx.Claims) context.Context {
	return context.WithValue(ctx, ctxClaimsKey, c)
}

func withRefreshToken(ctx context.Context, raw string) context.Context {
	return context.WithValue(ctx, ctxRefreshKey, raw)
}

// GetRequestID retorna "" si WithRequestID no corrió.
func GetRequestID(ctx context.Context) string {
	s, _ := ctx.Value(ctxRequestIDKey).(string)
	return s
}

// GetClientIP IP resuelta por WithClientIP.
func GetClientIP(ctx context.Context) string {
	s, _ := ctx.Value(ctxClientIPKey).(string)
	return s
}

// GetClaims claims del access o refresh token validado (nil si no hubo).
func GetClaims(ctx context.Context) *jwtx.Claims {
	c, _ := ctx.Value(ctxClaimsKey).(*jwtx.Claims)
	return c
}

// GetRefreshToken token crudo leído de la cookie por RequireRefreshToken.
func GetRefreshToken(ctx context.Context) string {
	s, _ := ctx.Value(ctxRefreshKey).(string)
	return s
}

// GetUserID id del usuario autenticado.
func GetUserID(ctx context.Context) string {
	if c := GetClaims(ctx); c != nil {
		return c.ID
	}
	return ""
}

func contextWithBody(r *http.Request, body map[string]any) context.Context {
	return context.WithValue(r.Context(), ctxBodyKey{}, body)
}

// GetBody body JSON ya validado por Validate (nil fuera de Validate).
func GetBody(ctx context.Context) map[string]any {
	m, _ := ctx.Value(ctxBodyKey{}).(map[string]any)
	return m
}
