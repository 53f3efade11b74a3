package storage

import (
	"context"
	"strings"
	"sync"
)

// Object objeto guardado en memoria.
type Object struct {
	ContentType string
	Data        []byte
}

// Memory bucket in-process.
type Memory struct {
	mu      sync.RWMutex
	name    string
	baseURL string
	objects map[string]Object
}

// NewMemory crea un bucket vacío. baseURL vacío usa memory://<name>.
func NewMemory(name, baseURL string) *Memory {
	if name == "" {
		name = "hellousers"
	}
	if baseURL == "" {
		baseURL = "memory://" + name
	}
	return &Memory{name: name, baseURL: baseURL, objects: make(map[string]Object)}
}

func (m *Memory) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = Object{ContentType: contentType, Data: append([]byte(nil), data...)}
	return publicURL(m.baseURL, key), nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			delete(m.objects, k)
		}
	}
	return nil
}

// Get retorna el objeto (tests).
func (m *Memory) Get(key string) (Object, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return Object{}, ErrNotFound
	}
	return o, nil
}

// Len cantidad de objetos (tests).
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func (m *Memory) Ping(context.Context) error { return nil }
func (m *Memory) Driver() string { return "memory" }
