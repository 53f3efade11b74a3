package middlewares

import (
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/observability/metrics"
)

// WithCORS permite credenciales para los orígenes de la lista ("*" = todos).
// Un Origin fuera de la lista responde 403; sin Origin (server-to-server,
// curl) el request pasa sin cabeceras CORS.
func WithCORS(allowed []string, m *metrics.Metrics) Middleware {
	trim := func(s string) string { return strings.TrimRight(strings.TrimSpace(s), "/") }

	alist := make([]string, 0, len(allowed))
	for _, v := range allowed {
		if v = trim(v); v != "" {
			alist = append(alist, v)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")
			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")

			origin := trim(r.Header.Get("Origin"))
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			ok := false
			for _, a := range alist {
				if a == "*" || strings.EqualFold(origin, a) {
					ok = true
					break
				}
			}
			if !ok {
				m.CORSRejected()
				logger.From(r.Context()).Warn("cors origin rejected", logger.Origin(origin))
				helpers.WriteError(w, r, httperrors.ErrOriginNotAllowed)
				return
			}

			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept-Language, X-Request-ID, X-Registration-Key")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After, X-RateLimit-Remaining, X-RateLimit-Reset")
			h.Set("Access-Control-Max-Age", "600")

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
