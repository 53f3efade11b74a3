package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

func TestLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := logger.ToContext(context.Background(), zap.New(core).With(logger.RequestID("req-1")))

	Log(ctx, UserCreated, logger.UserID("u1"), logger.Email("ana@x.io"))

	entries := logs.All()
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, Name, e.LoggerName)
	assert.Equal(t, "user.created", e.Message)
	fields := e.ContextMap()
	assert.Equal(t, "user.created", fields["event"])
	assert.Equal(t, "u1", fields["user_id"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "a…@x.io", fields["email"])
}
