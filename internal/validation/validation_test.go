package validation

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/hellousers/internal/i18n"
)

func phoneTaken(taken string) Rule {
	return Custom("uniquePhone", http.StatusConflict, "PhoneAlreadyRegistered", func(_ context.Context, v any, _ Input) (bool, error) {
		return v != taken, nil
	})
}

func userSchema(taken string) Schema {
	return Schema{
		{Path: "user.firstName", In: Body, Rules: []Rule{NotEmpty(), IsString(), MaxLength(20)}},
		{Path: "user.phone", In: Body, Rules: []Rule{NotEmpty(), IsString(), phoneTaken(taken)}},
		{Path: "user.email", In: Body, Rules: []Rule{NotEmpty(), IsEmail()}},
		{Path: "user.profilePicture", In: Body, Optional: true, Rules: []Rule{IsObject()}},
	}
}

func TestValidate_OK(t *testing.T) {
	res := userSchema("999").Validate(context.Background(), Input{Body: map[string]any{
		"user": map[string]any{"firstName": "John", "phone": "123", "email": "john@example.com"},
	}})
	assert.Nil(t, res)
}

func TestValidate_BadRequestWinsOverConflict(t *testing.T) {
	res := userSchema("123").Validate(context.Background(), Input{Body: map[string]any{
		"user": map[string]any{"phone": "123", "email": "john@example.com"},
	}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusBadRequest, res.Status())

	g := res.Grouped()
	require.Len(t, g[http.StatusBadRequest], 1)
	assert.Equal(t, "user.firstName", g[http.StatusBadRequest][0].Path)
	require.Len(t, g[http.StatusConflict], 1)
	assert.Equal(t, "user.phone", g[http.StatusConflict][0].Path)
}

func TestValidate_CollectsAllAndBails(t *testing.T) {
	res := userSchema("").Validate(context.Background(), Input{Body: map[string]any{
		"user": map[string]any{
			"firstName":      "A name that is way longer than twenty",
			"phone":          42.0,
			"email":          "nope",
			"profilePicture": "x",
		},
	}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status())

	var rules []string
	for _, e := range res.Errors {
		rules = append(rules, e.Path+":"+e.Rule)
	}
	// phone falla isString y corta: no se consulta unicidad.
	assert.Equal(t, []string{
		"user.firstName:maxLength",
		"user.phone:isString",
		"user.email:isEmail",
		"user.profilePicture:isObject",
	}, rules)
}

func TestValidate_AsyncErrorReportsInternal(t *testing.T) {
	boom := Custom("exists", http.StatusNotFound, "UserIDInvalid", func(context.Context, any, Input) (bool, error) {
		return false, errors.New("db down")
	})
	s := Schema{
		{Path: "id", In: Query, Rules: []Rule{IsAlphanumeric(), boom}},
		{Path: "itemsPerPage", In: Query, Optional: true, Rules: []Rule{IsNumeric()}},
	}
	res := s.Validate(context.Background(), Input{Query: url.Values{"id": {"abc"}, "itemsPerPage": {"x"}}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusInternalServerError, res.Status())
	assert.Len(t, res.Grouped()[http.StatusUnprocessableEntity], 1)
}

func TestValidate_QueryPresenceAndOptional(t *testing.T) {
	s := Schema{
		{Path: "id", In: Query, Optional: true, Rules: []Rule{IsAlphanumeric()}},
		{Path: "lastDocId", In: Query, Optional: true, Rules: []Rule{IsAlphanumeric()}},
	}
	assert.Nil(t, s.Validate(context.Background(), Input{Query: url.Values{}}))

	res := s.Validate(context.Background(), Input{Query: url.Values{"id": {""}}})
	require.NotNil(t, res)
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status())
	assert.Equal(t, "id", res.Errors[0].Path)
}

func TestValidate_SensitiveHidesValue(t *testing.T) {
	s := Schema{{Path: "auth", In: Body, Sensitive: true, Rules: []Rule{NotEmpty(), IsString()}}}
	res := s.Validate(context.Background(), Input{Body: map[string]any{"auth": 1234.0}})
	require.NotNil(t, res)
	assert.Nil(t, res.Errors[0].Value)
}

func TestResult_Localize(t *testing.T) {
	s := Schema{
		{Path: "id", In: Query, Rules: []Rule{IsAlphanumeric()}},
		{Path: "name", In: Body, Rules: []Rule{NotEmpty(), MaxLength(3)}},
	}
	res := s.Validate(context.Background(), Input{
		Query: url.Values{"id": {"a-b"}},
		Body:  map[string]any{"name": "abcd"},
	})
	require.NotNil(t, res)

	es := res.Localize(i18n.Default().For("es"))
	require.Len(t, es["422"], 2)
	assert.Equal(t, "Debe ser alfanumérico", es["422"][0].Msg)
	assert.Equal(t, 422, es["422"][0].Status)
	assert.Equal(t, "No puede tener más de 3 caracteres", es["422"][1].Msg)
}

func TestResult_StatusOutsidePriority(t *testing.T) {
	r := &Result{Errors: []FieldError{{Status: 418}, {Status: 413}}}
	assert.Equal(t, 413, r.Status())
}

func TestAsInt(t *testing.T) {
	n, ok := AsInt("12")
	assert.True(t, ok)
	assert.Equal(t, 12, n)
	_, ok = AsInt(1.5)
	assert.False(t, ok)
	_, ok = AsInt("abc")
	assert.False(t, ok)
}

func TestIsEmail(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{"john@example.com", true},
		{" ana.diaz+tag@mail.co.uk ", true},
		{"admin_ab12@hellousers.local", true},
		{"a@b..c", false},
		{"john..doe@example.com", false},
		{"a@-x.com", false},
		{"a@x-.com", false},
		{"<x>@y.z", false},
		{"a@b.c.", false},
		{"nope", false},
		{"a@b", false},
		{"", false},
		{42.0, false},
	}
	rule := IsEmail()
	for _, tt := range tests {
		assert.Equal(t, tt.want, rule.Check(tt.in), "%v", tt.in)
	}
}

func TestFormatRules(t *testing.T) {
	alnum := IsAlphanumeric()
	assert.True(t, alnum.Check("abc123"))
	assert.False(t, alnum.Check(""))
	assert.False(t, alnum.Check("ab-12"))
	assert.False(t, alnum.Check(12.0))

	num := IsNumeric()
	assert.True(t, num.Check("12"))
	assert.True(t, num.Check("-1.5"))
	assert.True(t, num.Check(3.0))
	assert.False(t, num.Check("two"))
	assert.False(t, num.Check(true))

	max := MaxLength(3)
	assert.True(t, max.Check("ñañ"))
	assert.False(t, max.Check("abcd"))
	assert.False(t, max.Check(3.0))

	status := OneOf("active", "inactive")
	assert.True(t, status.Check("active"))
	assert.False(t, status.Check("Active"))
	assert.False(t, status.Check(""))
	assert.False(t, status.Check(1.0))
}

func TestKnownKeys(t *testing.T) {
	rule := KnownKeys("id", "email")
	assert.True(t, rule.Check(map[string]any{"id": "x"}))
	assert.False(t, rule.Check(map[string]any{"id": "x", "a.b": 1}))
	assert.False(t, rule.Check("x"))
	assert.Equal(t, "email, id", rule.Args["allowed"])
}
