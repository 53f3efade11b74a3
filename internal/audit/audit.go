// Package audit emite eventos de auditoría (altas, bajas, sesiones, resets)
// sobre el logger "audit". El request_id viaja en el logger del contexto.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// Event nombre estable del evento.
type Event string

const (
	UserCreated      Event = "user.created"
	UserUpdated      Event = "user.updated"
	UserDeleted      Event = "user.deleted"
	PictureUploaded  Event = "user.picture_uploaded"
	SessionStarted   Event = "session.started"
	SessionRefreshed Event = "session.refreshed"
	SessionEnded     Event = "session.ended"
	CodeIssued       Event = "password.code_issued"
	ResetLinkSent    Event = "password.reset_link_sent"
	PasswordChanged  Event = "password.changed"
	ProjectCreated   Event = "project.registered"
	AdminCreated     Event = "admin.created"
)

// Name logger destino, para poder rutearlo aparte.
const Name = "audit"

// Log escribe el evento. Los emails pasan por logger.Email (enmascarados).
func Log(ctx context.Context, event Event, fields ...zap.Field) {
	l := logger.From(ctx).Named(Name)
	l.Info(string(event), append([]zap.Field{zap.String("event", string(event))}, fields...)...)
}
