package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

type envelope struct {
	Meta struct {
		Error   bool            `json:"error"`
		Count   *int            `json:"count"`
		Status  int             `json:"status"`
		URL     string          `json:"url"`
		Message json.RawMessage `json:"message"`
	} `json:"meta"`
	Data json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestWriteSuccess_CountsSlices(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://api.local/users/get/user?itemsPerPage=2", nil)
	rec := httptest.NewRecorder()

	WriteSuccess(rec, r, http.StatusOK, []map[string]any{{"id": "a"}, {"id": "b"}})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decode(t, rec)
	assert.False(t, env.Meta.Error)
	require.NotNil(t, env.Meta.Count)
	assert.Equal(t, 2, *env.Meta.Count)
	assert.Equal(t, "http://api.local/users/get/user?itemsPerPage=2", env.Meta.URL)
}

func TestCount(t *testing.T) {
	assert.Equal(t, 0, Count(nil))
	assert.Equal(t, 1, Count(map[string]any{"a": 1}))
	assert.Equal(t, 3, Count([]int{1, 2, 3}))
	var m map[string]any
	assert.Equal(t, 0, Count(m))
}

func TestWriteError_AppErrorLocalized(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "https://api.local/auth/logout", nil)
	r = r.WithContext(i18n.WithLocalizer(r.Context(), i18n.Default().For("es")))
	rec := httptest.NewRecorder()

	WriteError(rec, r, httperrors.ErrRefreshTokenNotFound)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	assert.True(t, env.Meta.Error)
	assert.Nil(t, env.Meta.Count)
	assert.Equal(t, "https://api.local/auth/logout", env.Meta.URL)
	var msg string
	require.NoError(t, json.Unmarshal(env.Meta.Message, &msg))
	assert.Equal(t, i18n.Default().T("es", "RefreshTokenNotFound", nil), msg)
}

func TestWriteError_UnknownIsInternal(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	rec := httptest.NewRecorder()

	WriteError(rec, r, errors.New("mongo: connection refused at 10.0.0.3"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	env := decode(t, rec)
	var msg string
	require.NoError(t, json.Unmarshal(env.Meta.Message, &msg))
	assert.Equal(t, "Internal server error", msg)
}

func TestWriteError_ValidationGroups(t *testing.T) {
	s := validation.Schema{
		{Path: "id", In: validation.Query, Rules: []validation.Rule{validation.IsAlphanumeric()}},
	}
	res := s.Validate(context.Background(), validation.Input{Query: url.Values{"id": {""}}})
	require.NotNil(t, res)

	r := httptest.NewRequest(http.MethodGet, "/users/get/user?id=", nil)
	rec := httptest.NewRecorder()
	WriteError(rec, r, res)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decode(t, rec)
	var groups map[string][]validation.FieldError
	require.NoError(t, json.Unmarshal(env.Meta.Message, &groups))
	require.Len(t, groups["422"], 1)
	assert.Equal(t, "Must be alphanumeric", groups["422"][0].Msg)
	assert.Equal(t, "field", groups["422"][0].Type)
	assert.Equal(t, validation.Query, groups["422"][0].Location)
}

func TestReadJSON(t *testing.T) {
	var out map[string]any
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`))
	assert.True(t, ReadJSON(httptest.NewRecorder(), r, &out))
	assert.Equal(t, 1.0, out["a"])

	rec := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	assert.False(t, ReadJSON(rec, r, &out))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCookies(t *testing.T) {
	cfg := CookieConfig{Name: "refreshToken", SameSite: "strict", Secure: true}
	ck := BuildCookie(cfg, "tok", time.Hour)
	assert.True(t, ck.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, ck.SameSite)
	assert.Equal(t, 3600, ck.MaxAge)

	del := BuildDeletionCookie(cfg)
	assert.Equal(t, -1, del.MaxAge)
	assert.Empty(t, del.Value)
	assert.Equal(t, http.SameSiteLaxMode, ParseSameSite("whatever"))
}

func TestReadJSON_BodyLimit(t *testing.T) {
	SetMaxJSONBody(16)
	t.Cleanup(func() { SetMaxJSONBody(0) })

	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"name":"a very long value here"}`))
	rec := httptest.NewRecorder()
	var out map[string]any
	assert.False(t, ReadJSON(rec, r, &out))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, DefaultMaxJSONBody, func() int64 { SetMaxJSONBody(0); return MaxJSONBody() }())
}
