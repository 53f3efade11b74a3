package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultFanOutLimit cota de lecturas concurrentes de sub-colecciones.
const DefaultFanOutLimit = 16

// Options configura la Facade.
type Options struct {
	// FanOutLimit cota de goroutines al resolver sub-colecciones por documento.
	FanOutLimit int
	// Now reloj para createdAt/updatedAt (tests).
	Now func() time.Time
}

// Facade expone get/list/create/update/delete/count/paginate sobre una
// Connection. Todas las fallas de I/O salen como ErrOperationFailed.
type Facade struct {
	conn   Connection
	fanOut int
	now    func() time.Time
}

// NewFacade construye la fachada sobre conn.
func NewFacade(conn Connection, opts Options) *Facade {
	if opts.FanOutLimit <= 0 {
		opts.FanOutLimit = DefaultFanOutLimit
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Facade{conn: conn, fanOut: opts.FanOutLimit, now: opts.Now}
}

// Backend retorna el nombre del backend ("mongo", "memory").
func (f *Facade) Backend() string { return f.conn.Name() }

// Ping verifica el backend.
func (f *Facade) Ping(ctx context.Context) error { return f.conn.Ping(ctx) }

// Close cierra el backend.
func (f *Facade) Close(ctx context.Context) error { return f.conn.Close(ctx) }

// stamp trunca a milisegundos: es la resolución que guarda mongo.
func (f *Facade) stamp() time.Time {
	return f.now().UTC().Truncate(time.Millisecond)
}

// Get retorna el documento con sus sub-colecciones, o (nil, nil) si no existe.
func (f *Facade) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	snap, err := f.conn.Get(ctx, collection, id)
	if err != nil {
		return nil, f.fail(ctx, "get", collection, err)
	}
	if snap == nil {
		return nil, nil
	}
	cols, err := f.conn.Collections(ctx, collection, id)
	if err != nil {
		return nil, f.fail(ctx, "get.collections", collection, err)
	}
	return &Document{ID: snap.ID, Data: snap.Data, Collections: nonNil(cols)}, nil
}

// List retorna todos los documentos que cumplen filter o, alternativamente,
// ordenados por order. Pasar ambos es ErrInvalidQuery.
func (f *Facade) List(ctx context.Context, collection string, filter *Filter, order *Order) ([]Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if filter != nil && order != nil {
		return nil, fmt.Errorf("%w: list accepts a filter or an order, not both", ErrInvalidQuery)
	}
	var q Query
	if filter != nil {
		if !filter.Op.Valid() {
			return nil, fmt.Errorf("%w: unknown operator %q", ErrInvalidQuery, filter.Op)
		}
		q.Filters = []Filter{*filter}
	}
	q.Order = order

	snaps, err := f.conn.Find(ctx, collection, q)
	if err != nil {
		return nil, f.fail(ctx, "list", collection, err)
	}
	docs, err := f.withCollections(ctx, collection, snaps)
	if err != nil {
		return nil, f.fail(ctx, "list.collections", collection, err)
	}
	return docs, nil
}

// Create guarda data con createdAt/updatedAt del momento. Con id vacío el
// backend asigna uno; con id explícito hace upsert en ese id.
func (f *Facade) Create(ctx context.Context, collection string, data map[string]any, id string) (*Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if err := validateFields(data); err != nil {
		return nil, err
	}
	ts := f.stamp()
	stored := stripReserved(data)
	for k, v := range stored {
		if IsUnset(v) {
			delete(stored, k)
		}
	}
	stored[FieldCreatedAt] = ts
	stored[FieldUpdatedAt] = ts

	if id == "" {
		newID, err := f.conn.Insert(ctx, collection, stored)
		if err != nil {
			return nil, f.fail(ctx, "create", collection, err)
		}
		return &Document{ID: newID, Data: stored}, nil
	}
	if err := f.conn.Set(ctx, collection, id, stored); err != nil {
		return nil, f.fail(ctx, "create", collection, err)
	}
	return &Document{ID: id, Data: stored}, nil
}

// Update mergea data, refresca updatedAt (estrictamente mayor al anterior)
// y retorna el documento releído. ErrNotFound si id no existe. Los campos
// con valor Unset se borran.
func (f *Facade) Update(ctx context.Context, collection, id string, data map[string]any) (*Document, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if err := validateFields(data); err != nil {
		return nil, err
	}
	current, err := f.conn.Get(ctx, collection, id)
	if err != nil {
		return nil, f.fail(ctx, "update.read", collection, err)
	}
	if current == nil {
		return nil, ErrNotFound
	}

	ts := f.stamp()
	if prev, ok := AsTime(current.Data[FieldUpdatedAt]); ok && !ts.After(prev) {
		ts = prev.Add(time.Millisecond)
	}
	patch := stripReserved(data)
	delete(patch, FieldCreatedAt)
	patch[FieldUpdatedAt] = ts

	if err := f.conn.Merge(ctx, collection, id, patch); err != nil {
		return nil, f.fail(ctx, "update", collection, err)
	}

	doc, err := f.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		// borrado entre el merge y la relectura
		return nil, ErrNotFound
	}
	return doc, nil
}

// Delete borra el documento. Retorna false y el error si falló.
func (f *Facade) Delete(ctx context.Context, collection, id string) (bool, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return false, err
	}
	if err := f.conn.Delete(ctx, collection, id); err != nil {
		return false, f.fail(ctx, "delete", collection, err)
	}
	return true, nil
}

// CountWithFilters cuenta con la misma semántica de filtros/exclusiones que Paginate.
func (f *Facade) CountWithFilters(ctx context.Context, collection string, filters []Filter, exclusions []Exclusion) (int64, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return 0, err
	}
	if err := validateFilters(filters); err != nil {
		return 0, err
	}
	n, err := f.conn.Count(ctx, collection, Query{Filters: filters, Exclusions: exclusions})
	if err != nil {
		return 0, f.fail(ctx, "count", collection, err)
	}
	return n, nil
}

// Paginate retorna hasta PageSize documentos estrictamente después del
// documento Cursor, según Order (default updatedAt desc, desempate id asc).
func (f *Facade) Paginate(ctx context.Context, collection string, req PageRequest) (*Page, error) {
	if err := ValidateCollectionPath(collection); err != nil {
		return nil, err
	}
	if req.PageSize < 1 {
		return nil, fmt.Errorf("%w: page size must be >= 1", ErrInvalidQuery)
	}
	if err := validateFilters(req.Filters); err != nil {
		return nil, err
	}
	order := req.Order
	if order == nil {
		order = OrderBy(FieldUpdatedAt, Desc)
	}

	q := Query{
		Filters:    req.Filters,
		Exclusions: req.Exclusions,
		Order:      order,
		Limit:      req.PageSize,
	}
	if req.Cursor != "" {
		cursor, err := f.conn.Get(ctx, collection, req.Cursor)
		if err != nil {
			return nil, f.fail(ctx, "paginate.cursor", collection, err)
		}
		if cursor == nil {
			return nil, ErrCursorNotFound
		}
		q.After = cursor
	}

	snaps, err := f.conn.Find(ctx, collection, q)
	if err != nil {
		return nil, f.fail(ctx, "paginate", collection, err)
	}
	docs, err := f.withCollections(ctx, collection, snaps)
	if err != nil {
		return nil, f.fail(ctx, "paginate.collections", collection, err)
	}

	page := &Page{Documents: docs}
	if len(docs) > 0 {
		page.LastDocID = docs[len(docs)-1].ID
	}
	return page, nil
}

// PaginateAll es Paginate sin filtros ni exclusiones.
func (f *Facade) PaginateAll(ctx context.Context, collection string, order *Order, pageSize int, cursor string) (*Page, error) {
	return f.Paginate(ctx, collection, PageRequest{Order: order, PageSize: pageSize, Cursor: cursor})
}

// withCollections resuelve las sub-colecciones de cada snapshot con
// concurrencia acotada; el orden de salida es el de entrada.
func (f *Facade) withCollections(ctx context.Context, collection string, snaps []Snapshot) ([]Document, error) {
	docs := make([]Document, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.fanOut)
	for i := range snaps {
		i := i
		g.Go(func() error {
			cols, err := f.conn.Collections(gctx, collection, snaps[i].ID)
			if err != nil {
				return err
			}
			docs[i] = Document{ID: snaps[i].ID, Data: snaps[i].Data, Collections: nonNil(cols)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return docs, nil
}

func validateFilters(filters []Filter) error {
	for _, fl := range filters {
		if fl.Field == "" || !fl.Op.Valid() {
			return fmt.Errorf("%w: bad filter %q %q", ErrInvalidQuery, fl.Field, fl.Op)
		}
	}
	return nil
}

func stripReserved(data map[string]any) map[string]any {
	out := make(map[string]any, len(data)+2)
	for k, v := range data {
		if k == FieldID || k == FieldCollections {
			continue
		}
		out[k] = v
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
