package middlewares

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// ClientIP: X-Forwarded-For (primer salto), X-Real-IP, RemoteAddr.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		if first := strings.TrimSpace(strings.Split(xf, ",")[0]); first != "" {
			return first
		}
	}
	if xr := strings.TrimSpace(r.Header.Get("X-Real-IP")); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}

// WithClientIP resuelve la IP una vez y la deja en el contexto.
func WithClientIP() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), ctxClientIPKey, ClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
