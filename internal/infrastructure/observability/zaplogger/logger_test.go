package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := New(zap.New(core), observability.F("service", "warehouse-service"))

	l.With(observability.F("cart_id", "c1")).Info("use_case_done",
		observability.F("outcome", "error"),
		observability.F("error", errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "use_case_done", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "warehouse-service", fields["service"])
	assert.Equal(t, "c1", fields["cart_id"])
	assert.Equal(t, "error", fields["outcome"])
	assert.Equal(t, "boom", fields["error"])
}

func TestNilLoggerDiscards(t *testing.T) {
	l := New(nil)
	assert.NotPanics(t, func() { l.Warn("ignored") })
	assert.NoError(t, l.Sync())
}
