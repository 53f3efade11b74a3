// Package cache provee un key/value con TTL multi-backend.
//
// Soporta:
//   - Memory (in-process, go-cache; para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// Se usa para los oobCode de reset de la identidad local y el estado efímero
// que no merece un documento.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client define las operaciones de cache.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, key string) (string, error)

	// Set guarda un valor con TTL. Si ttl es 0, usa el default del backend.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Take lee y borra en un paso (valores de un solo uso).
	Take(ctx context.Context, key string) (string, error)

	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// Config configuración para crear un cliente de cache.
type Config struct {
	Kind       string // "memory" | "redis"
	Addr       string
	Password   string
	DB         int
	Prefix     string
	DefaultTTL time.Duration
}

// ErrNotFound la key no existe o expiró.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// New crea un cliente de cache según la configuración.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return DialRedis(ctx, cfg)
	case "memory", "":
		return NewMemory(cfg.Prefix, cfg.DefaultTTL), nil
	default:
		return nil, fmt.Errorf("cache: unsupported kind %q", cfg.Kind)
	}
}
