// Package validation evalúa esquemas declarativos de reglas por campo y
// agrupa los fallos por status HTTP.
//
// Se recolectan todos los fallos (no solo el primero). El status reportado
// es el primero presente en Priority; el resto de los grupos viaja igual en
// el cuerpo, cada uno bajo su propia clave.
package validation

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// Priority orden en que se elige el status de respuesta.
var Priority = []int{
	http.StatusInternalServerError,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusConflict,
	http.StatusUnprocessableEntity,
}

// asyncLimit cota de checks asíncronos concurrentes por request.
const asyncLimit = 8

// Location de dónde se lee el campo.
type Location string

const (
	Body  Location = "body"
	Query Location = "query"
)

// Input datos del request que leen las reglas.
type Input struct {
	Body  map[string]any
	Query url.Values
}

// Lookup resuelve path ("user.firstName") en la ubicación indicada.
func (in Input) Lookup(loc Location, path string) (any, bool) {
	if loc == Query {
		if in.Query == nil || !in.Query.Has(path) {
			return nil, false
		}
		return in.Query.Get(path), true
	}
	var cur any = in.Body
	for _, seg := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[seg]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Field cadena de reglas de un campo.
type Field struct {
	Path string
	In   Location
	// Optional: si el campo no viene, no se evalúa.
	Optional bool
	// Sensitive: el valor no se devuelve en el error.
	Sensitive bool
	Rules     []Rule
}

// Schema lista ordenada de campos.
type Schema []Field

// FieldError es un fallo de regla. Msg se completa al localizar.
type FieldError struct {
	Type     string         `json:"type"`
	Value    any            `json:"value"`
	Msg      string         `json:"msg"`
	Path     string         `json:"path"`
	Location Location       `json:"location"`
	Status   int            `json:"status"`
	Rule     string         `json:"-"`
	Key      string         `json:"-"`
	Args     map[string]any `json:"-"`
}

type asyncJob struct {
	field int
	rule  Rule
	value any
}

// Validate evalúa el esquema. Retorna nil si no hubo fallos.
func (s Schema) Validate(ctx context.Context, in Input) *Result {
	perField := make([][]FieldError, len(s))
	var jobs []asyncJob

	for i, f := range s {
		v, present := in.Lookup(f.In, f.Path)
		if !present && f.Optional {
			continue
		}
		failed := false
		for _, r := range f.Rules {
			if r.Async != nil {
				if !failed {
					jobs = append(jobs, asyncJob{field: i, rule: r, value: v})
				}
				continue
			}
			if r.Check(v) {
				continue
			}
			failed = true
			perField[i] = append(perField[i], s.newError(i, r, v))
			if r.Bail {
				break
			}
		}
	}

	if len(jobs) > 0 {
		asyncErrs := make([]*FieldError, len(jobs))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(asyncLimit)
		for j := range jobs {
			j := j
			g.Go(func() error {
				job := jobs[j]
				ok, err := job.rule.Async(gctx, job.value, in)
				if err != nil {
					logger.From(ctx).Error("async validation failed",
						logger.Layer("validation"),
						logger.String("field", s[job.field].Path),
						logger.String("rule", job.rule.Name),
						logger.Err(err),
					)
					fe := s.newError(job.field, Rule{Name: job.rule.Name, Status: http.StatusInternalServerError, Key: KeyInternalError}, job.value)
					asyncErrs[j] = &fe
					return nil
				}
				if !ok {
					fe := s.newError(job.field, job.rule, job.value)
					asyncErrs[j] = &fe
				}
				return nil
			})
		}
		_ = g.Wait()
		for j, fe := range asyncErrs {
			if fe != nil {
				perField[jobs[j].field] = append(perField[jobs[j].field], *fe)
			}
		}
	}

	var all []FieldError
	for _, errs := range perField {
		all = append(all, errs...)
	}
	if len(all) == 0 {
		return nil
	}
	return &Result{Errors: all}
}

func (s Schema) newError(field int, r Rule, v any) FieldError {
	f := s[field]
	if f.Sensitive {
		v = nil
	}
	return FieldError{
		Type:     "field",
		Value:    v,
		Path:     f.Path,
		Location: f.In,
		Status:   r.Status,
		Rule:     r.Name,
		Key:      r.Key,
		Args:     r.Args,
	}
}

// Result conjunto de fallos de un request. Implementa error.
type Result struct {
	Errors []FieldError
}

func (r *Result) Error() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s:%s(%d)", e.Path, e.Rule, e.Status))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Status elige el status a reportar según Priority. Un status fuera de la
// lista solo gana si no hay ninguno de la lista; entre esos, el menor.
func (r *Result) Status() int {
	present := make(map[int]bool, len(r.Errors))
	for _, e := range r.Errors {
		present[e.Status] = true
	}
	for _, st := range Priority {
		if present[st] {
			return st
		}
	}
	others := make([]int, 0, len(present))
	for st := range present {
		others = append(others, st)
	}
	sort.Ints(others)
	if len(others) == 0 {
		return http.StatusUnprocessableEntity
	}
	return others[0]
}

// Grouped agrupa por status preservando el orden de evaluación.
func (r *Result) Grouped() map[int][]FieldError {
	out := make(map[int][]FieldError)
	for _, e := range r.Errors {
		out[e.Status] = append(out[e.Status], e)
	}
	return out
}

// Localize agrupa por status ("400", "409", ...) y resuelve msg en el idioma de l.
func (r *Result) Localize(l i18n.Localizer) map[string][]FieldError {
	out := make(map[string][]FieldError)
	for st, errs := range r.Grouped() {
		key := strconv.Itoa(st)
		for _, e := range errs {
			e.Msg = l.T(e.Key, e.Args)
			out[key] = append(out[key], e)
		}
	}
	return out
}
