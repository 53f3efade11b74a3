// Package health contiene los services de health check.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/hellousers/internal/cache"
	dto "github.com/dropDatabas3/hellousers/internal/http/dto/health"
	"github.com/dropDatabas3/hellousers/internal/identity"
	"github.com/dropDatabas3/hellousers/internal/storage"
	"github.com/dropDatabas3/hellousers/internal/store"
)

const checkTimeout = 2 * time.Second

// HealthService estado de las dependencias.
type HealthService interface {
	Check(ctx context.Context) dto.HealthResponse
}

// Deps componentes a verificar. Los nil se omiten.
type Deps struct {
	Store   *store.Facade
	Cache   cache.Client
	Bucket  storage.Bucket
	Breaker *identity.Breaker
	Version string
}

// Services agrupa todos los services del dominio health.
type Services struct {
	Health HealthService
}

// NewServices crea el agregador de services health.
func NewServices(d Deps) Services {
	return Services{
		Health: NewHealthService(d),
	}
}

type healthService struct {
	deps Deps
}

// NewHealthService crea el service de health.
func NewHealthService(d Deps) HealthService {
	return &healthService{deps: d}
}

type pinger func(ctx context.Context) error

// Check corre los pings en paralelo con timeout. Cualquier componente que
// no responda deja el estado en "degraded".
func (s *healthService) Check(ctx context.Context) dto.HealthResponse {
	checks := map[string]pinger{}
	if s.deps.Store != nil {
		checks["store:"+s.deps.Store.Backend()] = s.deps.Store.Ping
	}
	if s.deps.Cache != nil {
		checks["cache:"+s.deps.Cache.Driver()] = s.deps.Cache.Ping
	}
	if s.deps.Bucket != nil {
		checks["bucket:"+s.deps.Bucket.Driver()] = s.deps.Bucket.Ping
	}

	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	results := make([]dto.HealthStatus, len(names))

	cctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	var g errgroup.Group
	for i, name := range names {
		i, ping := i, checks[name]
		g.Go(func() error {
			if err := ping(cctx); err != nil {
				results[i] = dto.HealthStatus{Status: "error", Message: err.Error()}
				return nil
			}
			results[i] = dto.HealthStatus{Status: "ok"}
			return nil
		})
	}
	_ = g.Wait()

	resp := dto.HealthResponse{
		Status:     "ready",
		Components: make(map[string]dto.HealthStatus, len(names)+1),
		Version:    s.deps.Version,
		Timestamp:  time.Now().UTC(),
	}
	for i, name := range names {
		resp.Components[name] = results[i]
		if results[i].Status != "ok" {
			resp.Status = "degraded"
		}
	}
	if s.deps.Breaker != nil {
		st := dto.HealthStatus{Status: "ok"}
		if !s.deps.Breaker.Ready() {
			st = dto.HealthStatus{Status: "open", Message: "circuit " + s.deps.Breaker.State()}
			resp.Status = "degraded"
		}
		resp.Components["identity:"+s.deps.Breaker.Name()] = st
	}
	return resp
}
