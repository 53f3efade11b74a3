// Package storage guarda objetos binarios (fotos de perfil) en un bucket.
//
// Backends:
//   - memory: tests y desarrollo
//   - minio: MinIO / S3 compatible (minio-go)
//   - s3: AWS S3 (aws-sdk-go-v2 + manager.Uploader)
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound el objeto no existe.
var ErrNotFound = errors.New("storage: object not found")

// Bucket operaciones que usa el servicio de usuarios.
type Bucket interface {
	// Put sube data en key y retorna la URL pública del objeto.
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)

	// DeletePrefix borra todos los objetos bajo prefix. Sin objetos no es error.
	DeletePrefix(ctx context.Context, prefix string) error

	Ping(ctx context.Context) error
	Driver() string
}

// Config configuración del bucket.
type Config struct {
	Driver        string // memory | minio | s3
	Name          string
	Endpoint      string
	Region        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
}

// New crea el Bucket según cfg.Driver.
func New(ctx context.Context, cfg Config) (Bucket, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemory(cfg.Name, cfg.PublicBaseURL), nil
	case "minio":
		return NewMinIO(ctx, cfg)
	case "s3":
		return NewS3(ctx, cfg)
	}
	return nil, fmt.Errorf("storage: unsupported driver %q", cfg.Driver)
}

// UserPrefix prefijo de los objetos de un usuario.
func UserPrefix(userID string) string { return "users/" + userID + "/" }

// ProfileKey key de la foto de perfil.
func ProfileKey(userID string) string { return UserPrefix(userID) + "profile.jpg" }

// publicURL base + "/" + key, sin dobles barras.
func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
