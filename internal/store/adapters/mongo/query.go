package mongo

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dropDatabas3/hellousers/internal/store"
)

func dataField(f string) string { return "data." + f }

// buildFilter traduce la Query a un filtro mongo. El cursor se expresa como
// "posición estrictamente mayor" sobre (campo de orden, docId asc); null y
// ausente ordenan primero, igual que el sort de mongo.
func buildFilter(collection string, q store.Query) (bson.M, error) {
	and := bson.A{bson.M{"collection": collection}}

	for _, f := range q.Filters {
		cond, err := filterCond(f)
		if err != nil {
			return nil, err
		}
		and = append(and, cond)
	}
	for _, ex := range q.Exclusions {
		if len(ex.Values) == 0 {
			continue
		}
		and = append(and, bson.M{dataField(ex.Field): bson.M{"$nin": ex.Values}})
	}
	if q.After != nil {
		and = append(and, afterCond(q.Order, *q.After))
	}

	if len(and) == 1 {
		return and[0].(bson.M), nil
	}
	return bson.M{"$and": and}, nil
}

func filterCond(f store.Filter) (bson.M, error) {
	field := dataField(f.Field)
	switch f.Op {
	case store.OpEqual:
		return bson.M{field: f.Value}, nil
	case store.OpNotEqual:
		return bson.M{field: bson.M{"$ne": f.Value}}, nil
	case store.OpLess:
		return bson.M{field: bson.M{"$lt": f.Value}}, nil
	case store.OpLessEqual:
		return bson.M{field: bson.M{"$lte": f.Value}}, nil
	case store.OpGreater:
		return bson.M{field: bson.M{"$gt": f.Value}}, nil
	case store.OpGreaterEqual:
		return bson.M{field: bson.M{"$gte": f.Value}}, nil
	case store.OpIn:
		return bson.M{field: bson.M{"$in": f.Value}}, nil
	case store.OpArrayContains:
		// mongo compara contra cada elemento del array
		return bson.M{field: f.Value}, nil
	}
	return nil, fmt.Errorf("%w: unknown operator %q", store.ErrInvalidQuery, f.Op)
}

func afterCond(order *store.Order, cursor store.Snapshot) bson.M {
	idAfter := bson.M{"docId": bson.M{"$gt": cursor.ID}}
	if order == nil {
		return idAfter
	}

	field := dataField(order.Field)
	v, present := cursor.Data[order.Field]
	if !present || v == nil {
		sameAndAfter := bson.M{field: nil, "docId": bson.M{"$gt": cursor.ID}}
		if order.Direction == store.Desc {
			return sameAndAfter
		}
		return bson.M{"$or": bson.A{
			bson.M{field: bson.M{"$ne": nil}},
			sameAndAfter,
		}}
	}

	cmp := "$gt"
	if order.Direction == store.Desc {
		cmp = "$lt"
	}
	or := bson.A{
		bson.M{field: bson.M{cmp: v}},
		bson.M{field: v, "docId": bson.M{"$gt": cursor.ID}},
	}
	if order.Direction == store.Desc {
		or = append(or, bson.M{field: nil})
	}
	return bson.M{"$or": or}
}

func sortSpec(order *store.Order) bson.D {
	if order == nil {
		return bson.D{{Key: "docId", Value: 1}}
	}
	dir := 1
	if order.Direction == store.Desc {
		dir = -1
	}
	return bson.D{{Key: dataField(order.Field), Value: dir}, {Key: "docId", Value: 1}}
}

// normalizeMap convierte los tipos bson decodificados a tipos Go planos
// (time.Time, map[string]any, []any) para que el resto del sistema no dependa
// del driver.
func normalizeMap(m bson.M) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

func normalize(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.M:
		return normalizeMap(bson.M(t))
	case map[string]any:
		return normalizeMap(bson.M(t))
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i := range t {
			out[i] = normalize(t[i])
		}
		return out
	case primitive.ObjectID:
		return t.Hex()
	case primitive.Null, primitive.Undefined:
		return nil
	}
	if rv := reflect.ValueOf(v); rv.IsValid() && rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Interface {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}
