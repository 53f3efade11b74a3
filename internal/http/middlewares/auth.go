package middlewares

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// bearerToken extrae el token de "Authorization: Bearer <JWT>".
func bearerToken(r *http.Request) string {
	ah := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(ah) < len("bearer ") || !strings.EqualFold(ah[:len("bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("bearer "):])
}

// RequireAccessToken valida el access token y guarda las claims en el contexto.
// Sin token: 401 TokenNotFound. Inválido o vencido: 401 InvalidOrExpiredToken.
func RequireAccessToken(issuer *jwtx.Issuer) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				helpers.WriteError(w, r, httperrors.ErrTokenNotFound)
				return
			}
			claims, err := issuer.Parse(jwtx.KindAccess, raw)
			if err != nil {
				logger.From(r.Context()).Debug("access token rejected", logger.Err(err))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				helpers.WriteError(w, r, httperrors.ErrInvalidOrExpiredToken.WithCause(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// RequireRefreshToken valida la cookie del refresh token. Sin cookie:
// 401 RefreshTokenNotFound. Deja claims y token crudo en el contexto.
func RequireRefreshToken(issuer *jwtx.Issuer, cookieName string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ck, err := r.Cookie(cookieName)
			if errors.Is(err, http.ErrNoCookie) || ck == nil || strings.TrimSpace(ck.Value) == "" {
				helpers.WriteError(w, r, httperrors.ErrRefreshTokenNotFound)
				return
			}
			claims, err := issuer.Parse(jwtx.KindRefresh, ck.Value)
			if err != nil {
				logger.From(r.Context()).Debug("refresh token rejected", logger.Err(err))
				helpers.WriteError(w, r, httperrors.ErrInvalidOrExpiredToken.WithCause(err))
				return
			}
			ctx := WithClaims(r.Context(), claims)
			ctx = withRefreshToken(ctx, ck.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole exige que el rol del token esté en roles. Lista vacía: basta
// con estar autenticado. Debe ir después de RequireAccessToken.
func RequireRole(roles ...string) Middleware {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			allowed[r] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := GetClaims(r.Context())
			if c == nil {
				helpers.WriteError(w, r, httperrors.ErrTokenNotFound)
				return
			}
			if len(allowed) > 0 {
				if _, ok := allowed[c.Role]; !ok {
					helpers.WriteError(w, r, httperrors.ErrForbidden)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RegistrationKeyHeader header con la clave de alta de proyectos.
const RegistrationKeyHeader = "X-Registration-Key"

// RequireRegistrationKey exige X-Registration-Key == key. Con key vacía la
// ruta queda cerrada.
func RequireRegistrationKey(key string) Middleware {
	want := []byte(key)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := []byte(strings.TrimSpace(r.Header.Get(RegistrationKeyHeader)))
			if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
				helpers.WriteError(w, r, httperrors.ErrInvalidRegistrationKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
