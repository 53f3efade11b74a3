package schemas

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/cache"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/identity/local"
	"github.com/dropDatabas3/hellousers/internal/security/password"
	"github.com/dropDatabas3/hellousers/internal/store"
	"github.com/dropDatabas3/hellousers/internal/store/adapters/memory"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

func newChecks(t *testing.T) Checks {
	t.Helper()
	fc := memory.NewFacade(store.Options{})
	idp, err := local.New(local.Options{
		Store:       fc,
		Cache:       cache.NewMemory("t:", time.Minute),
		TokenSecret: []byte("k"),
		Hash:        password.Params{Memory: 1024, Time: 1, Parallelism: 1, KeyLen: 16},
	})
	require.NoError(t, err)
	return Checks{Store: fc, Identity: idp}
}

func seedUser(t *testing.T, c Checks, phone, email string) string {
	t.Helper()
	doc, err := c.Store.Create(context.Background(), UsersCollection, map[string]any{
		"firstName": "Ana", "lastName": "Diaz", "phone": phone, "email": email,
		"role": "user", "status": StatusActive,
	}, "")
	require.NoError(t, err)
	return doc.ID
}

func userBody(phone, email string) map[string]any {
	return map[string]any{
		"user": map[string]any{
			"firstName": "John", "lastName": "Doe", "phone": phone, "email": email,
			"role": "admin", "status": StatusActive,
		},
		"auth": "cipher",
	}
}

func TestCreateUser_OK(t *testing.T) {
	c := newChecks(t)
	res := c.CreateUser().Validate(context.Background(), validation.Input{Body: userBody("555", "john@example.com")})
	assert.Nil(t, res)
}

func TestCreateUser_DuplicatePhone(t *testing.T) {
	c := newChecks(t)
	seedUser(t, c, "555", "ana@example.com")

	res := c.CreateUser().Validate(context.Background(), validation.Input{Body: userBody("555", "john@example.com")})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusConflict, res.Status())
	g := res.Grouped()
	require.Len(t, g[http.StatusConflict], 1)
	assert.Equal(t, KeyPhoneTaken, g[http.StatusConflict][0].Key)
}

func TestCreateUser_EmailTakenInIdentity(t *testing.T) {
	c := newChecks(t)
	_, err := c.Identity.CreateUser(context.Background(), identity.UserToCreate{Email: "john@example.com", Password: "secret1"})
	require.NoError(t, err)

	res := c.CreateUser().Validate(context.Background(), validation.Input{Body: userBody("555", "John@Example.com")})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusConflict, res.Status())
	assert.Equal(t, KeyEmailTaken, res.Grouped()[http.StatusConflict][0].Key)
}

func TestCreateUser_BadRequestBeatsConflict(t *testing.T) {
	c := newChecks(t)
	seedUser(t, c, "555", "ana@example.com")

	b := userBody("555", "john@example.com")
	delete(b["user"].(map[string]any), "firstName")
	res := c.CreateUser().Validate(context.Background(), validation.Input{Body: b})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.Status())
	assert.Len(t, res.Grouped()[http.StatusConflict], 1)
}

func TestCreateUser_AuthIsSensitive(t *testing.T) {
	c := newChecks(t)
	b := userBody("555", "john@example.com")
	b["auth"] = 42.0
	res := c.CreateUser().Validate(context.Background(), validation.Input{Body: b})
	require.NotNil(t, res)
	fe := res.Grouped()[http.StatusUnprocessableEntity]
	require.Len(t, fe, 1)
	assert.Equal(t, "auth", fe[0].Path)
	assert.Nil(t, fe[0].Value)
}

func TestUpdateUser_UniquenessExcludesSelf(t *testing.T) {
	c := newChecks(t)
	id := seedUser(t, c, "555", "ana@example.com")

	res := c.UpdateUser().Validate(context.Background(), validation.Input{Body: map[string]any{
		"user": map[string]any{"id": id, "phone": "555", "email": "ana@example.com"},
	}})
	assert.Nil(t, res)

	other := seedUser(t, c, "777", "bob@example.com")
	res = c.UpdateUser().Validate(context.Background(), validation.Input{Body: map[string]any{
		"user": map[string]any{"id": other, "phone": "555"},
	}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusConflict, res.Status())
}

func TestUpdateUser_RejectsUnknownKeys(t *testing.T) {
	c := newChecks(t)
	id := seedUser(t, c, "555", "ana@example.com")

	for _, key := range []string{"nickname", "profile.url", "$set"} {
		t.Run(key, func(t *testing.T) {
			res := c.UpdateUser().Validate(context.Background(), validation.Input{Body: map[string]any{
				"user": map[string]any{"id": id, key: "x"},
			}})
			require.NotNil(t, res)
			assert.Equal(t, http.StatusBadRequest, res.Status())
			errs := res.Grouped()[http.StatusBadRequest]
			require.Len(t, errs, 1)
			assert.Equal(t, "user", errs[0].Path)
			assert.Equal(t, validation.KeyUnknownFields, errs[0].Key)
		})
	}
}

func TestUpdateUser_UnknownID(t *testing.T) {
	c := newChecks(t)
	res := c.UpdateUser().Validate(context.Background(), validation.Input{Body: map[string]any{
		"user": map[string]any{"id": "abc123"},
	}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.Status())
	assert.Equal(t, KeyUserIDValid, res.Grouped()[http.StatusNotFound][0].Key)
}

func TestGetUser_Query(t *testing.T) {
	c := newChecks(t)
	id := seedUser(t, c, "555", "ana@example.com")

	cases := []struct {
		name   string
		query  url.Values
		status int
	}{
		{"no params", url.Values{}, 0},
		{"existing id", url.Values{"id": {id}}, 0},
		{"empty id", url.Values{"id": {""}}, http.StatusUnprocessableEntity},
		{"unknown id", url.Values{"id": {"zzz999"}}, http.StatusNotFound},
		{"ipp not numeric", url.Values{"itemsPerPage": {"two"}}, http.StatusUnprocessableEntity},
		{"ipp zero", url.Values{"itemsPerPage": {"0"}}, http.StatusUnprocessableEntity},
		{"cursor", url.Values{"itemsPerPage": {"2"}, "lastDocId": {id}}, 0},
		{"bad status", url.Values{"status": {"gone"}}, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := c.GetUser().Validate(context.Background(), validation.Input{Query: tc.query})
			if tc.status == 0 {
				assert.Nil(t, res)
				return
			}
			require.NotNil(t, res)
			assert.Equal(t, tc.status, res.Status())
		})
	}
}

func TestUserID_Missing(t *testing.T) {
	c := newChecks(t)
	res := c.UserID().Validate(context.Background(), validation.Input{Query: url.Values{}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.Status())
}

func TestPasswordCode(t *testing.T) {
	c := newChecks(t)
	_, err := c.Identity.CreateUser(context.Background(), identity.UserToCreate{Email: "ana@example.com", Password: "secret1"})
	require.NoError(t, err)

	assert.Nil(t, c.PasswordCode().Validate(context.Background(), validation.Input{Body: map[string]any{"email": "ana@example.com"}}))

	res := c.PasswordCode().Validate(context.Background(), validation.Input{Body: map[string]any{"email": "bob@example.com"}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusNotFound, res.Status())

	res = c.PasswordCode().Validate(context.Background(), validation.Input{Body: map[string]any{"email": "nope"}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status())
}

type failingIdentity struct{ identity.Provider }

func (failingIdentity) GetUserByEmail(context.Context, string) (*identity.User, error) {
	return nil, errors.New("boom")
}

func TestAsyncIOErrorIs500(t *testing.T) {
	c := newChecks(t)
	c.Identity = failingIdentity{c.Identity}
	res := c.PasswordCode().Validate(context.Background(), validation.Input{Body: map[string]any{"email": "ana@example.com"}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusInternalServerError, res.Status())
}

func TestRegisterProject(t *testing.T) {
	c := newChecks(t)
	assert.Nil(t, c.RegisterProject().Validate(context.Background(), validation.Input{Body: map[string]any{
		"project": map[string]any{"name": "Acme"},
	}}))

	res := c.RegisterProject().Validate(context.Background(), validation.Input{Body: map[string]any{
		"project":   map[string]any{},
		"superUser": map[string]any{"email": "bad"},
	}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.Status())
	assert.Len(t, res.Grouped()[http.StatusUnprocessableEntity], 1)
}
