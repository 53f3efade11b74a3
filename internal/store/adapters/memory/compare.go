package memory

import (
	"reflect"
	"strings"
	"time"

	"github.com/dropDatabas3/hellousers/internal/store"
)

// Orden entre tipos cuando un campo mezcla tipos; ausente/null va primero,
// igual que en mongo.
const (
	rankNull = iota
	rankNumber
	rankString
	rankBool
	rankTime
	rankOther
)

func rankOf(v any) int {
	switch v.(type) {
	case nil:
		return rankNull
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rankNumber
	case string:
		return rankString
	case bool:
		return rankBool
	case time.Time:
		return rankTime
	}
	return rankOther
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	}
	return 0
}

// compare ordena a y b. El bool es false cuando los tipos difieren; en ese
// caso el resultado sigue siendo un orden total (por rango de tipo).
func compare(a, b any) (int, bool) {
	ra, rb := rankOf(a), rankOf(b)
	if ra != rb {
		if ra < rb {
			return -1, false
		}
		return 1, false
	}
	switch ra {
	case rankNull:
		return 0, true
	case rankNumber:
		fa, fb := toFloat(a), toFloat(b)
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	case rankString:
		return strings.Compare(a.(string), b.(string)), true
	case rankBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0, true
		case !ba:
			return -1, true
		}
		return 1, true
	case rankTime:
		ta, tb := a.(time.Time), b.(time.Time)
		switch {
		case ta.Before(tb):
			return -1, true
		case ta.After(tb):
			return 1, true
		}
		return 0, true
	}
	if reflect.DeepEqual(a, b) {
		return 0, true
	}
	return 0, false
}

func equal(a, b any) bool {
	c, ok := compare(a, b)
	return ok && c == 0
}

func toSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func contains(list []any, v any) bool {
	for _, item := range list {
		if equal(item, v) {
			return true
		}
	}
	return false
}

func matchFilter(data map[string]any, f store.Filter) bool {
	v, present := data[f.Field]
	switch f.Op {
	case store.OpEqual:
		return present && equal(v, f.Value)
	case store.OpNotEqual:
		return !present || !equal(v, f.Value)
	case store.OpIn:
		return present && contains(toSlice(f.Value), v)
	case store.OpArrayContains:
		return present && contains(toSlice(v), f.Value)
	}
	if !present {
		return false
	}
	c, ok := compare(v, f.Value)
	if !ok {
		return false
	}
	switch f.Op {
	case store.OpLess:
		return c < 0
	case store.OpLessEqual:
		return c <= 0
	case store.OpGreater:
		return c > 0
	case store.OpGreaterEqual:
		return c >= 0
	}
	return false
}

func matches(data map[string]any, q store.Query) bool {
	for _, f := range q.Filters {
		if !matchFilter(data, f) {
			return false
		}
	}
	for _, ex := range q.Exclusions {
		if v, present := data[ex.Field]; present && contains(ex.Values, v) {
			return false
		}
	}
	return true
}

// position compara dos documentos según order y desempata por id asc.
func position(a, b store.Snapshot, order *store.Order) int {
	if order != nil {
		c, _ := compare(a.Data[order.Field], b.Data[order.Field])
		if order.Direction == store.Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return strings.Compare(a.ID, b.ID)
}
