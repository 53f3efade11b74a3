package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIO bucket sobre minio-go.
type MinIO struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

// NewMinIO conecta y asegura que el bucket exista.
func NewMinIO(ctx context.Context, cfg Config) (*MinIO, error) {
	if cfg.Endpoint == "" || cfg.Name == "" {
		return nil, errors.New("storage/minio: endpoint and bucket name are required")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage/minio: new client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, cfg.Name, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		// ya existe
		exists, xerr := mc.BucketExists(ctx, cfg.Name)
		if xerr != nil || !exists {
			return nil, fmt.Errorf("storage/minio: ensure bucket: %w", err)
		}
	}

	base := cfg.PublicBaseURL
	if base == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Name)
	}
	return &MinIO{client: mc, bucket: cfg.Name, baseURL: base}, nil
}

func (m *MinIO) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("storage/minio: put %s: %w", key, err)
	}
	return publicURL(m.baseURL, key), nil
}

func (m *MinIO) DeletePrefix(ctx context.Context, prefix string) error {
	objects := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	toDelete := make(chan minio.ObjectInfo)
	go func() {
		defer close(toDelete)
		for obj := range objects {
			if obj.Err != nil {
				continue
			}
			select {
			case toDelete <- obj:
			case <-ctx.Done():
				return
			}
		}
	}()
	var firstErr error
	for rerr := range m.client.RemoveObjects(ctx, m.bucket, toDelete, minio.RemoveObjectsOptions{}) {
		if firstErr == nil {
			firstErr = fmt.Errorf("storage/minio: remove %s: %w", rerr.ObjectName, rerr.Err)
		}
	}
	return firstErr
}

func (m *MinIO) Ping(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("storage/minio: bucket %q does not exist", m.bucket)
	}
	return nil
}

func (m *MinIO) Driver() string { return "minio" }
