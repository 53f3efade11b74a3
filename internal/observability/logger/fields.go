package logger

import (
	"go.uber.org/zap"
)

// Field alias para no importar zap en cada paquete que arma campos.
type Field = zap.Field

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field { return zap.String("method", v) }
func Path(v string) zap.Field { return zap.String("path", v) }
func Route(v string) zap.Field { return zap.String("route", v) }
func Status(v int) zap.Field { return zap.Int("status", v) }
func DurationMs(v int64) zap.Field { return zap.Int64("duration_ms", v) }
func Bytes(v int) zap.Field { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field { return zap.String("client_ip", v) }
func UserAgent(v string) zap.Field { return zap.String("user_agent", v) }
func Lang(v string) zap.Field { return zap.String("lang", v) }
func Origin(v string) zap.Field { return zap.String("origin", v) }

// ─── Negocio ───

func UserID(v string) zap.Field { return zap.String("user_id", v) }
func ProjectID(v string) zap.Field { return zap.String("project_id", v) }

// Email enmascarado (a…@g….com). El valor completo nunca va al log.
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// ─── Documentos ───

func Collection(v string) zap.Field { return zap.String("collection", v) }
func DocID(v string) zap.Field { return zap.String("doc_id", v) }
func Backend(v string) zap.Field { return zap.String("backend", v) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field { return zap.String("op", v) }
func Layer(v string) zap.Field { return zap.String("layer", v) }
func Err(err error) zap.Field { return zap.Error(err) }
func Count(v int) zap.Field { return zap.Int("count", v) }

func String(key, v string) zap.Field { return zap.String(key, v) }
func Int(key string, v int) zap.Field { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field { return zap.Any(key, v) }
