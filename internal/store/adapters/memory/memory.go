// Package memory implementa un backend de documentos en memoria. Es el
// backend de tests y de desarrollo local (storage.driver: memory).
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dropDatabas3/hellousers/internal/store"
)

func init() {
	store.RegisterAdapter(&memoryAdapter{})
}

type memoryAdapter struct{}

func (a *memoryAdapter) Name() string { return "memory" }

func (a *memoryAdapter) Connect(_ context.Context, _ store.AdapterConfig) (store.Connection, error) {
	return New(), nil
}

// Store guarda colección -> id -> datos. Los datos se copian al entrar y salir.
type Store struct {
	mu   sync.RWMutex
	cols map[string]map[string]map[string]any
}

// New crea un Store vacío.
func New() *Store {
	return &Store{cols: make(map[string]map[string]map[string]any)}
}

// NewFacade atajo para tests: fachada sobre un Store nuevo.
func NewFacade(opts store.Options) *store.Facade {
	return store.NewFacade(New(), opts)
}

func (s *Store) Name() string { return "memory" }
func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close(context.Context) error { return nil }

func (s *Store) Get(_ context.Context, collection, id string) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.cols[collection][id]
	if !ok {
		return nil, nil
	}
	return &store.Snapshot{ID: id, Data: copyMap(data)}, nil
}

func (s *Store) Find(_ context.Context, collection string, q store.Query) ([]store.Snapshot, error) {
	s.mu.RLock()
	out := make([]store.Snapshot, 0, len(s.cols[collection]))
	for id, data := range s.cols[collection] {
		if matches(data, q) {
			out = append(out, store.Snapshot{ID: id, Data: copyMap(data)})
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return position(out[i], out[j], q.Order) < 0
	})

	if q.After != nil {
		start := sort.Search(len(out), func(i int) bool {
			return position(out[i], *q.After, q.Order) > 0
		})
		out = out[start:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (s *Store) Count(_ context.Context, collection string, q store.Query) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, data := range s.cols[collection] {
		if matches(data, q) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Insert(_ context.Context, collection string, data map[string]any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collection(collection)
	id := newID()
	for col[id] != nil {
		id = newID()
	}
	col[id] = copyMap(data)
	return id, nil
}

func (s *Store) Set(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collection(collection)[id] = copyMap(data)
	return nil
}

func (s *Store) Merge(_ context.Context, collection, id string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.cols[collection][id]
	if !ok {
		return store.ErrNotFound
	}
	for k := range data {
		if err := store.ValidateFieldName(k); err != nil {
			return err
		}
	}
	for k, v := range data {
		if store.IsUnset(v) {
			delete(doc, k)
			continue
		}
		doc[k] = copyValue(v)
	}
	return nil
}

func (s *Store) Delete(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.cols[collection]
	if !ok {
		return nil
	}
	delete(col, id)
	if len(col) == 0 {
		delete(s.cols, collection)
	}
	return nil
}

func (s *Store) Collections(_ context.Context, collection, id string) ([]string, error) {
	prefix := store.DocPath(collection, id) + "/"
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for path, docs := range s.cols {
		if len(docs) == 0 || !strings.HasPrefix(path, prefix) {
			continue
		}
		rest := strings.TrimPrefix(path, prefix)
		if !strings.Contains(rest, "/") {
			names = append(names, rest)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) collection(path string) map[string]map[string]any {
	col, ok := s.cols[path]
	if !ok {
		col = make(map[string]map[string]any)
		s.cols[path] = col
	}
	return col
}

// newID genera ids alfanuméricos (uuid sin guiones).
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = copyValue(t[i])
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case time.Time:
		return t
	}
	return v
}
