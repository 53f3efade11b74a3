package middlewares

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/i18n"
	jwtx "github.com/dropDatabas3/hellousers/internal/jwt"
	"github.com/dropDatabas3/hellousers/internal/rate"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
})

func message(t *testing.T, rec *httptest.ResponseRecorder) any {
	t.Helper()
	var env struct {
		Meta struct {
			Error   bool `json:"error"`
			Message any  `json:"message"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(t, env.Meta.Error)
	return env.Meta.Message
}

func testIssuer(t *testing.T) *jwtx.Issuer {
	t.Helper()
	iss, err := jwtx.NewIssuer(jwtx.Config{Issuer: "test", AccessSecret: "a", RefreshSecret: "r"})
	require.NoError(t, err)
	return iss
}

func TestCORS(t *testing.T) {
	h := Chain(okHandler, WithCORS([]string{"https://app.example.com/"}, nil))

	t.Run("allowed origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("preflight", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodOptions, "/", nil)
		r.Header.Set("Origin", "https://app.example.com")
		r.Header.Set("Access-Control-Request-Method", "POST")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("rejected origin", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Origin", "https://evil.example.com")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Origin not allowed", message(t, rec))
	})

	t.Run("no origin passes", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}

func TestLanguage(t *testing.T) {
	var got string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = i18n.FromContext(r.Context()).Lang()
	}), WithLanguage(nil))

	r := httptest.NewRequest(http.MethodGet, "/?lang=es", nil)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "es", got)

	r = httptest.NewRequest(http.MethodGet, "/?lang=fr", nil)
	r.Header.Set("Accept-Language", "es-AR")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "en", got, "explicit unsupported lang falls back to default")

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Accept-Language", "es-AR,es;q=0.9")
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, "es", got)
}

func TestRequireAccessToken(t *testing.T) {
	iss := testIssuer(t)
	var uid string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid = GetUserID(r.Context())
	}), RequireAccessToken(iss))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Token not found", message(t, rec))

	rec = httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer garbage")
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid or expired token", message(t, rec))

	refresh, _, err := iss.SignRefresh(jwtx.Subject{UserID: "u1"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+refresh)
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "refresh token is not an access token")

	access, _, err := iss.SignAccess(jwtx.Subject{UserID: "u1", Role: "admin"})
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer "+access)
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", uid)
}

func TestRequireRefreshToken(t *testing.T) {
	iss := testIssuer(t)
	var raw string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw = GetRefreshToken(r.Context())
	}), RequireRefreshToken(iss, "refreshToken"))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token not found", message(t, rec))

	tok, _, err := iss.SignRefresh(jwtx.Subject{UserID: "u1"})
	require.NoError(t, err)
	r := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	r.AddCookie(&http.Cookie{Name: "refreshToken", Value: tok})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tok, raw)
}

func TestRequireRole(t *testing.T) {
	iss := testIssuer(t)
	h := Chain(okHandler, RequireAccessToken(iss), RequireRole("admin"))

	userTok, _, _ := iss.SignAccess(jwtx.Subject{UserID: "u1", Role: "user"})
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+userTok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	open := Chain(okHandler, RequireAccessToken(iss), RequireRole())
	rec = httptest.NewRecorder()
	open.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRegistrationKey(t *testing.T) {
	h := Chain(okHandler, RequireRegistrationKey("s3cret"))

	r := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid registration key", message(t, rec))

	r.Header.Set(RegistrationKeyHeader, "s3cret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	closed := Chain(okHandler, RequireRegistrationKey(""))
	r.Header.Set(RegistrationKeyHeader, "")
	rec = httptest.NewRecorder()
	closed.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidate(t *testing.T) {
	schema := validation.Schema{
		{Path: "email", In: validation.Body, Rules: []validation.Rule{validation.NotEmpty(), validation.IsEmail()}},
	}
	var body string
	var parsed map[string]any
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		parsed = GetBody(r.Context())
	}), Validate(schema))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope"}`)))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	groups, ok := message(t, rec).(map[string]any)
	require.True(t, ok)
	assert.Contains(t, groups, "422")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"email":"a@b.co"}`, body)
	assert.Equal(t, "a@b.co", parsed["email"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimit(t *testing.T) {
	h := Chain(okHandler, WithClientIP(), WithRateLimit(RateLimitConfig{
		Limiter: rate.NewMemoryLimiter(1, time.Minute),
	}))

	r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRequestID(t *testing.T) {
	var got string
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestID(r.Context())
	}), WithRequestID(), WithLogging())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Request-ID", "rid-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	assert.Equal(t, "rid-1", got)
	assert.Equal(t, "rid-1", rec.Header().Get("X-Request-ID"))
}

func TestRecover(t *testing.T) {
	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), WithRecover())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
