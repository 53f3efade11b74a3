package validation

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Message keys (se localizan al renderizar).
const (
	KeyNotEmpty      = "MustNotBeEmpty"
	KeyString        = "MustBeAString"
	KeyAlphanumeric  = "MustBeAlphanumeric"
	KeyNumeric       = "MustBeNumeric"
	KeyObject        = "MustBeAnObject"
	KeyEmail         = "MustBeAValidEmail"
	KeyPositive      = "MustBePositive"
	KeyMaxLength     = "MaxLength"
	KeyOneOf         = "InvalidStatus"
	KeyUnknownFields = "UnknownFields"
	KeyInternalError = "InternalError"
)

// validate instancia compartida; es segura para uso concurrente y cachea
// los tags parseados.
var validate = validator.New()

// is corre un tag de validator sobre un valor suelto.
func is(v any, tag string) bool {
	return validate.Var(v, tag) == nil
}

// Check es un predicado síncrono sobre el valor del campo.
type Check func(v any) bool

// AsyncCheck es un predicado que hace I/O (unicidad, existencia). Un error
// se reporta como fallo 500, no como fallo de la regla.
type AsyncCheck func(ctx context.Context, v any, in Input) (bool, error)

// Rule es un descriptor de regla: predicado + status y message key del fallo.
type Rule struct {
	Name   string
	Status int
	Key    string
	Args   map[string]any
	Check  Check
	Async  AsyncCheck
	// Bail corta la cadena del campo cuando la regla falla.
	Bail bool
}

// NotEmpty: presente y no vacío. Corta la cadena.
func NotEmpty() Rule {
	return Rule{Name: "notEmpty", Status: http.StatusBadRequest, Key: KeyNotEmpty, Bail: true, Check: func(v any) bool {
		switch t := v.(type) {
		case nil:
			return false
		case string:
			return strings.TrimSpace(t) != ""
		case []any:
			return len(t) > 0
		case map[string]any:
			return len(t) > 0
		}
		return true
	}}
}

// IsString corta la cadena: las reglas siguientes asumen string.
func IsString() Rule {
	return Rule{Name: "isString", Status: http.StatusUnprocessableEntity, Key: KeyString, Bail: true, Check: func(v any) bool {
		_, ok := v.(string)
		return ok
	}}
}

// MaxLength cuenta runas (max=N de validator sobre strings).
func MaxLength(n int) Rule {
	tag := fmt.Sprintf("max=%d", n)
	return Rule{Name: "maxLength", Status: http.StatusUnprocessableEntity, Key: KeyMaxLength, Args: map[string]any{"max": n}, Check: func(v any) bool {
		s, ok := v.(string)
		return ok && is(s, tag)
	}}
}

// IsEmail usa el tag "email" y además exige un dominio sin labels vacíos
// ni punto final ("a@b..c", "a@b.c.").
func IsEmail() Rule {
	return Rule{Name: "isEmail", Status: http.StatusUnprocessableEntity, Key: KeyEmail, Bail: true, Check: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		return validEmail(strings.TrimSpace(s))
	}}
}

func validEmail(s string) bool {
	if len(s) > 254 || !is(s, "email") {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	if strings.HasSuffix(domain, ".") || strings.Contains(domain, "..") {
		return false
	}
	for _, label := range strings.Split(domain, ".") {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
	}
	return true
}

func IsAlphanumeric() Rule {
	return Rule{Name: "isAlphanumeric", Status: http.StatusUnprocessableEntity, Key: KeyAlphanumeric, Bail: true, Check: func(v any) bool {
		s, ok := v.(string)
		return ok && is(s, "alphanum")
	}}
}

// IsNumeric acepta números JSON o strings numéricos (query params).
func IsNumeric() Rule {
	return Rule{Name: "isNumeric", Status: http.StatusUnprocessableEntity, Key: KeyNumeric, Bail: true, Check: func(v any) bool {
		switch t := v.(type) {
		case float64, int, int64:
			return true
		case string:
			return is(strings.TrimSpace(t), "numeric")
		}
		return false
	}}
}

// IsPositiveInt exige un entero >= 1.
func IsPositiveInt() Rule {
	return Rule{Name: "isPositiveInt", Status: http.StatusUnprocessableEntity, Key: KeyPositive, Check: func(v any) bool {
		n, ok := AsInt(v)
		return ok && n >= 1
	}}
}

func IsObject() Rule {
	return Rule{Name: "isObject", Status: http.StatusUnprocessableEntity, Key: KeyObject, Bail: true, Check: func(v any) bool {
		_, ok := v.(map[string]any)
		return ok
	}}
}

// OneOf restringe a un conjunto cerrado de strings sin espacios
// (oneof de validator).
func OneOf(values ...string) Rule {
	tag := "oneof=" + strings.Join(values, " ")
	return Rule{Name: "oneOf", Status: http.StatusUnprocessableEntity, Key: KeyOneOf, Args: map[string]any{"values": strings.Join(values, ", ")}, Check: func(v any) bool {
		s, ok := v.(string)
		return ok && s != "" && is(s, tag)
	}}
}

// KnownKeys falla (400) si el objeto trae claves fuera de allowed.
func KnownKeys(allowed ...string) Rule {
	set := make(map[string]bool, len(allowed))
	for _, k := range allowed {
		set[k] = true
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return Rule{Name: "knownKeys", Status: http.StatusBadRequest, Key: KeyUnknownFields, Args: map[string]any{"allowed": strings.Join(sorted, ", ")}, Check: func(v any) bool {
		m, ok := v.(map[string]any)
		if !ok {
			return false
		}
		for k := range m {
			if !set[k] {
				return false
			}
		}
		return true
	}}
}

// Custom arma una regla asíncrona con status y key propios
// (ej: 409 PhoneAlreadyRegistered, 404 UserIDInvalid).
func Custom(name string, status int, key string, fn AsyncCheck) Rule {
	return Rule{Name: name, Status: status, Key: key, Async: fn}
}

// AsInt convierte números JSON y strings numéricos enteros.
func AsInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		if t != float64(int(t)) {
			return 0, false
		}
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		return n, err == nil
	}
	return 0, false
}
