// Package helpers contiene la capa terminal de respuesta: sobre de éxito,
// sobre de error localizado, lectura de JSON y cookies.
package helpers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
	"github.com/dropDatabas3/hellousers/internal/i18n"
	"github.com/dropDatabas3/hellousers/internal/observability/logger"
	"github.com/dropDatabas3/hellousers/internal/validation"
)

const contentTypeJSON = "application/json; charset=utf-8"

// Meta cabecera común de todas las respuestas.
type Meta struct {
	Error   bool   `json:"error"`
	Count   *int   `json:"count,omitempty"`
	Status  int    `json:"status"`
	URL     string `json:"url"`
	Message any    `json:"message,omitempty"`
}

// Envelope {meta, data}.
type Envelope struct {
	Meta Meta `json:"meta"`
	Data any  `json:"data,omitempty"`
}

// RequestURL reconstruye scheme://host/path?query del request.
func RequestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// Count: largo para slices/arrays, 0 para nil, 1 para el resto.
func Count(data any) int {
	if data == nil {
		return 0
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Slice, reflect.Array:
		return v.Len()
	case reflect.Pointer, reflect.Map:
		if v.IsNil() {
			return 0
		}
	}
	return 1
}

// WriteJSON escribe v con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess emite {meta:{error:false,count,status,url},data}.
func WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any) {
	n := Count(data)
	WriteJSON(w, status, Envelope{
		Meta: Meta{Count: &n, Status: status, URL: RequestURL(r)},
		Data: data,
	})
}

// WriteMessage responde {message} localizado con la key dada.
func WriteMessage(w http.ResponseWriter, r *http.Request, status int, key string, args map[string]any) {
	msg := i18n.FromContext(r.Context()).T(key, args)
	WriteSuccess(w, r, status, map[string]string{"message": msg})
}

// WriteError es la única salida de errores hacia el cliente.
//
//   - *validation.Result: mapa de grupos por status, status según prioridad.
//   - *AppError: mensaje localizado.
//   - cualquier otro: 500 InternalError, se loguea y no se expone el detalle.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	loc := i18n.FromContext(r.Context())

	var (
		status  int
		message any
		vres    *validation.Result
	)
	switch {
	case errors.As(err, &vres):
		status = vres.Status()
		message = vres.Localize(loc)
	default:
		appErr, ok := httperrors.As(err)
		if !ok {
			logger.From(r.Context()).Error("unhandled error",
				logger.Layer("http"),
				logger.Path(r.URL.Path),
				logger.Err(err),
			)
			appErr = httperrors.ErrInternal.WithCause(err)
		} else if appErr.Status >= http.StatusInternalServerError {
			logger.From(r.Context()).Error("request failed",
				logger.Layer("http"),
				logger.Path(r.URL.Path),
				logger.Err(appErr),
			)
		}
		status = appErr.Status
		message = loc.T(appErr.Key, appErr.Args)
	}

	WriteJSON(w, status, Envelope{
		Meta: Meta{Error: true, Status: status, URL: RequestURL(r), Message: message},
	})
}
