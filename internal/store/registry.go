// Package store provee la fachada de acceso a documentos y el registry de
// backends (mongo, memory) que la implementan.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter crea conexiones a un backend de documentos.
type Adapter interface {
	// Name retorna el nombre del adapter ("mongo", "memory").
	Name() string

	// Connect establece conexión con el almacenamiento.
	Connect(ctx context.Context, cfg AdapterConfig) (Connection, error)
}

// AdapterConfig configuración para conectar a un backend.
type AdapterConfig struct {
	// Name del adapter: "mongo", "memory".
	Name string

	// URI connection string (mongo).
	URI string

	// Database nombre de la base (mongo).
	Database string
}

// Connection es la conexión activa a un backend: las primitivas que la
// Facade compone. Los paths de colección pueden tener sub-colecciones
// ("users/abc/authentication").
type Connection interface {
	Name() string
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// Get retorna (nil, nil) si el documento no existe.
	Get(ctx context.Context, collection, id string) (*Snapshot, error)

	// Find aplica filtros, exclusiones, orden (con desempate por id asc),
	// cursor exclusivo y límite.
	Find(ctx context.Context, collection string, q Query) ([]Snapshot, error)

	// Count aplica los mismos filtros y exclusiones que Find.
	Count(ctx context.Context, collection string, q Query) (int64, error)

	// Insert guarda data con un id asignado por el backend.
	Insert(ctx context.Context, collection string, data map[string]any) (string, error)

	// Set reemplaza (upsert) el documento id.
	Set(ctx context.Context, collection, id string, data map[string]any) error

	// Merge actualiza campos de primer nivel; un valor store.Unset borra el
	// campo. ErrNotFound si no existe, ErrInvalidField si un nombre no es válido.
	Merge(ctx context.Context, collection, id string, data map[string]any) error

	// Delete borra el documento (no sus sub-colecciones). Borrar un id
	// inexistente no es error.
	Delete(ctx context.Context, collection, id string) error

	// Collections lista los nombres de las sub-colecciones con al menos un
	// documento bajo collection/id.
	Collections(ctx context.Context, collection, id string) ([]string, error)
}

// ─── Registry Global ───

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// RegisterAdapter registra un adapter. Llamar en init() de cada adapter.
func RegisterAdapter(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()

	name := a.Name()
	if _, exists := adapters[name]; exists {
		panic(fmt.Sprintf("adapter: %q already registered", name))
	}
	adapters[name] = a
}

// GetAdapter obtiene un adapter por nombre.
func GetAdapter(name string) (Adapter, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[name]
	return a, ok
}

// ListAdapters retorna los nombres registrados, ordenados.
func ListAdapters() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OpenAdapter abre una conexión con el adapter indicado en cfg.Name.
func OpenAdapter(ctx context.Context, cfg AdapterConfig) (Connection, error) {
	a, ok := GetAdapter(cfg.Name)
	if !ok {
		return nil, fmt.Errorf("adapter: %q not registered (available: %v)", cfg.Name, ListAdapters())
	}
	return a.Connect(ctx, cfg)
}
