package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Campos reservados que la fachada administra.
const (
	FieldID          = "id"
	FieldCollections = "collections"
	FieldCreatedAt   = "createdAt"
	FieldUpdatedAt   = "updatedAt"

	// DiscriminatorField es el campo sobre el que ExcludeTypes arma el NOT-IN.
	DiscriminatorField = "type"
)

// Op operador de comparación de un filtro.
type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpLess          Op = "<"
	OpLessEqual     Op = "<="
	OpGreater       Op = ">"
	OpGreaterEqual  Op = ">="
	OpIn            Op = "in"
	OpArrayContains Op = "array-contains"
)

// Valid reporta si el operador es conocido.
func (o Op) Valid() bool {
	switch o {
	case OpEqual, OpNotEqual, OpLess, OpLessEqual, OpGreater, OpGreaterEqual, OpIn, OpArrayContains:
		return true
	}
	return false
}

// Filter es una tripla (campo, operador, valor). Varios filtros se combinan con AND.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Where construye un Filter.
func Where(field string, op Op, value any) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

// Exclusion descarta los documentos cuyo Field está en Values (NOT-IN).
// Los documentos sin el campo no se excluyen.
type Exclusion struct {
	Field  string
	Values []any
}

// ExcludeTypes arma la exclusión sobre el campo discriminador "type".
func ExcludeTypes(values ...any) Exclusion {
	return Exclusion{Field: DiscriminatorField, Values: values}
}

// Direction sentido del orden.
type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// ParseDirection acepta "asc"/"desc" (default asc).
func ParseDirection(s string) Direction {
	if strings.EqualFold(strings.TrimSpace(s), "desc") {
		return Desc
	}
	return Asc
}

// Order especifica el campo de orden. El desempate siempre es por id asc.
type Order struct {
	Field     string
	Direction Direction
}

// OrderBy construye un *Order.
func OrderBy(field string, dir Direction) *Order {
	return &Order{Field: field, Direction: dir}
}

// Query es lo que la fachada le pide a una Connection.
type Query struct {
	Filters    []Filter
	Exclusions []Exclusion
	Order      *Order
	// After es el documento cursor; el resultado empieza estrictamente después.
	After *Snapshot
	// Limit <= 0 significa sin límite.
	Limit int
}

// Snapshot es un documento crudo tal como lo devuelve un backend.
type Snapshot struct {
	ID   string
	Data map[string]any
}

// Document es un documento con su id y, cuando se leyó con Get/List/Paginate,
// los nombres de sus sub-colecciones.
type Document struct {
	ID          string
	Data        map[string]any
	Collections []string
}

// MarshalJSON aplana Data junto a id (y collections si fueron cargadas).
func (d Document) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(d.Data)+2)
	for k, v := range d.Data {
		out[k] = v
	}
	out[FieldID] = d.ID
	if d.Collections != nil {
		out[FieldCollections] = d.Collections
	}
	return json.Marshal(out)
}

// Fields retorna una copia de Data sin los campos de bookkeeping
// (id, collections), lista para re-persistir.
func (d *Document) Fields() map[string]any {
	out := make(map[string]any, len(d.Data))
	for k, v := range d.Data {
		if k == FieldID || k == FieldCollections {
			continue
		}
		out[k] = v
	}
	return out
}

// String retorna Data[field] si es string.
func (d *Document) String(field string) string {
	s, _ := d.Data[field].(string)
	return s
}

// Time retorna Data[field] si es un timestamp.
func (d *Document) Time(field string) (time.Time, bool) {
	return AsTime(d.Data[field])
}

// AsTime convierte los timestamps que guardan los backends.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

// Page es una página de Paginate. LastDocID es el cursor para la siguiente
// llamada ("" si la página vino vacía).
type Page struct {
	Documents []Document
	LastDocID string
}

// PageRequest parámetros de Paginate.
type PageRequest struct {
	Filters    []Filter
	Exclusions []Exclusion
	// Order nil = updatedAt desc.
	Order    *Order
	PageSize int
	// Cursor id del último documento de la página anterior ("" = inicio).
	Cursor string
}

// ValidateCollectionPath exige un número impar de segmentos no vacíos:
// "users", "users/{id}/authentication".
func ValidateCollectionPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty collection path", ErrInvalidPath)
	}
	segs := strings.Split(path, "/")
	if len(segs)%2 == 0 {
		return fmt.Errorf("%w: %q is a document path", ErrInvalidPath, path)
	}
	for _, s := range segs {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%w: %q has an empty segment", ErrInvalidPath, path)
		}
	}
	return nil
}

// Unset como valor en un patch de Update borra el campo en lugar de escribirlo.
var Unset any = unset{}

type unset struct{}

// IsUnset reporta si v es el marcador Unset.
func IsUnset(v any) bool {
	_, ok := v.(unset)
	return ok
}

// ValidateFieldName rechaza nombres que un backend interpretaría como
// path anidado ("a.b") u operador ("$set").
func ValidateFieldName(name string) error {
	if strings.TrimSpace(name) == "" || strings.Contains(name, ".") || strings.HasPrefix(name, "$") {
		return fmt.Errorf("%w: %q", ErrInvalidField, name)
	}
	return nil
}

func validateFields(data map[string]any) error {
	for k := range data {
		if err := ValidateFieldName(k); err != nil {
			return err
		}
	}
	return nil
}

// DocPath une colección e id.
func DocPath(collection, id string) string {
	return collection + "/" + id
}

// SubCollection arma "collection/id/name".
func SubCollection(collection, id, name string) string {
	return collection + "/" + id + "/" + name
}
