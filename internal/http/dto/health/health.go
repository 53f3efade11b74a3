// Package health contiene DTOs para endpoints de health check.
package health

import "time"

// HealthStatus estado de un componente.
type HealthStatus struct {
	Status  string `json:"status"` // "ok" | "error" | "open"
	Message string `json:"message,omitempty"`
}

// HealthResponse respuesta de /readyz.
type HealthResponse struct {
	Status     string                  `json:"status"` // "ready" | "degraded"
	Components map[string]HealthStatus `json:"components"`
	Version    string                  `json:"version,omitempty"`
	Timestamp  time.Time               `json:"timestamp"`
}
