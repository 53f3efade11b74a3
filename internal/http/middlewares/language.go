package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/hellousers/internal/i18n"
)

// WithLanguage negocia el idioma del request y deja el Localizer en el
// contexto; WriteError y los services lo leen de ahí.
func WithLanguage(bundle *i18n.Bundle) Middleware {
	if bundle == nil {
		bundle = i18n.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			loc := bundle.For(bundle.Resolve(r))
			w.Header().Set("Content-Language", loc.Lang())
			next.ServeHTTP(w, r.WithContext(i18n.WithLocalizer(r.Context(), loc)))
		})
	}
}
