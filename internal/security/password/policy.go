package password

import (
	"errors"
	"strings"
	"unicode"
)

// ErrPolicy toda violación de la política matchea con errors.Is.
var ErrPolicy = errors.New("password: policy violation")

// Violation identifica una regla incumplida.
type Violation string

const (
	Blank         Violation = "blank"
	TooShort      Violation = "too_short"
	TooLong       Violation = "too_long"
	MissingUpper  Violation = "missing_upper"
	MissingLower  Violation = "missing_lower"
	MissingDigit  Violation = "missing_digit"
	MissingSymbol Violation = "missing_symbol"
)

// Policy reglas para passwords nuevas. Los largos se cuentan en runes;
// MaxLength 0 no limita.
type Policy struct {
	MinLength     int
	MaxLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPolicy la que usa el provider local cuando no se configura otra.
var DefaultPolicy = Policy{MinLength: 6, MaxLength: 128}

// PolicyError junta todas las violaciones de una password.
type PolicyError struct {
	Violations []Violation
}

func (e *PolicyError) Error() string {
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = string(v)
	}
	return "password: " + strings.Join(parts, ",")
}

func (e *PolicyError) Unwrap() error { return ErrPolicy }

// Has indica si la violación v está entre las reportadas.
func (e *PolicyError) Has(v Violation) bool {
	for _, got := range e.Violations {
		if got == v {
			return true
		}
	}
	return false
}

// Check devuelve nil si s cumple la política o un *PolicyError con todas las
// reglas incumplidas, en orden fijo.
func (p Policy) Check(s string) error {
	if strings.TrimSpace(s) == "" {
		return &PolicyError{Violations: []Violation{Blank}}
	}
	var out []Violation
	n := len([]rune(s))
	if n < p.MinLength {
		out = append(out, TooShort)
	}
	if p.MaxLength > 0 && n > p.MaxLength {
		out = append(out, TooLong)
	}
	var hasU, hasL, hasD, hasS bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			hasU = true
		case unicode.IsLower(r):
			hasL = true
		case unicode.IsDigit(r):
			hasD = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasS = true
		}
	}
	if p.RequireUpper && !hasU {
		out = append(out, MissingUpper)
	}
	if p.RequireLower && !hasL {
		out = append(out, MissingLower)
	}
	if p.RequireDigit && !hasD {
		out = append(out, MissingDigit)
	}
	if p.RequireSymbol && !hasS {
		out = append(out, MissingSymbol)
	}
	if len(out) == 0 {
		return nil
	}
	return &PolicyError{Violations: out}
}
