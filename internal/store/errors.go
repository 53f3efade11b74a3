package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

var (
	// ErrNotFound el documento no existe (Update, Merge).
	ErrNotFound = errors.New("store: document not found")

	// ErrCursorNotFound el documento cursor de Paginate no existe.
	ErrCursorNotFound = errors.New("store: cursor document not found")

	// ErrInvalidQuery uso inválido (filtro + orden juntos en List, pageSize < 1, operador desconocido).
	ErrInvalidQuery = errors.New("store: invalid query")

	// ErrInvalidPath path de colección mal formado.
	ErrInvalidPath = errors.New("store: invalid collection path")

	// ErrInvalidField nombre de campo vacío, con "." o que empieza con "$".
	ErrInvalidField = errors.New("store: invalid field name")

	// ErrOperationFailed cualquier falla de I/O del backend. No lleva detalle del proveedor.
	ErrOperationFailed = errors.New("store: operation failed")
)

// IsNotFound reporta si err es ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// fail loguea el error del backend con contexto y lo reemplaza por
// ErrOperationFailed. Los errores propios del paquete pasan tal cual.
func (f *Facade) fail(ctx context.Context, op, collection string, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrCursorNotFound, ErrInvalidQuery, ErrInvalidPath, ErrInvalidField} {
		if errors.Is(err, known) {
			return err
		}
	}
	logger.From(ctx).Error("document operation failed",
		logger.Layer("store"),
		logger.Backend(f.conn.Name()),
		logger.Op(op),
		logger.Collection(collection),
		logger.Err(err),
	)
	return fmt.Errorf("%w: %s", ErrOperationFailed, op)
}
