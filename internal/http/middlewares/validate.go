package middlewares

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/http/helpers"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

type ctxBodyKey struct{}

// Validate evalúa schema sobre el body JSON (hasta MaxJSONBody) y la query.
// Si falla escribe el error agrupado; si pasa, repone el body para el
// controller y deja el map decodificado en el contexto.
func Validate(schema validation.Schema) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body := map[string]any{}
			if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodDelete && isJSON(r) {
				raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, helpers.MaxJSONBody()))
				_ = r.Body.Close()
				if err != nil {
					helpers.WriteError(w, r, httperrors.ErrInvalidJSON.WithCause(err))
					return
				}
				if len(bytes.TrimSpace(raw)) > 0 {
					if err := json.Unmarshal(raw, &body); err != nil {
						helpers.WriteError(w, r, httperrors.ErrInvalidJSON.WithCause(err))
						return
					}
				}
				r.Body = io.NopCloser(bytes.NewReader(raw))
			}

			in := validation.Input{Body: body, Query: r.URL.Query()}
			if res := schema.Validate(r.Context(), in); res != nil {
				helpers.WriteError(w, r, res)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithBody(r, body)))
		})
	}
}

func isJSON(r *http.Request) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	return ct == "" || strings.Contains(ct, "application/json")
}
