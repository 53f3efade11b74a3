package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync/atomic"

	httperrors "github.com/dropDatabas3/hellousers/internal/http/errors"
)

// DefaultMaxJSONBody tope por defecto del body JSON.
const DefaultMaxJSONBody int64 = 1 << 20

var maxJSONBody atomic.Int64

func init() { maxJSONBody.Store(DefaultMaxJSONBody) }

// SetMaxJSONBody ajusta el tope (server.max_body_bytes). n <= 0 restaura el default.
func SetMaxJSONBody(n int64) {
	if n <= 0 {
		n = DefaultMaxJSONBody
	}
	maxJSONBody.Store(n)
}

// MaxJSONBody tope vigente del body JSON.
func MaxJSONBody() int64 { return maxJSONBody.Load() }

// ReadJSON decodifica de forma tolerante (no falla por campos desconocidos).
// Un body vacío no es error. Devuelve false si ya escribió la respuesta.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBody())
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, r, httperrors.ErrInvalidJSON.WithCause(err))
		return false
	}
	return true
}

// DecodeMap reinterpreta un map genérico (ya validado) en un struct.
func DecodeMap(in map[string]any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
