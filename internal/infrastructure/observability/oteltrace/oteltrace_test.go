package oteltrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProviderWithoutExporter(t *testing.T) {
	shutdown, err := NewProvider(context.Background(), ProviderConfig{ServiceName: "fulfillment"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestNewProviderRejectsUnknownExporter(t *testing.T) {
	_, err := NewProvider(context.Background(), ProviderConfig{Exporter: "carrier-pigeon"})
	assert.ErrorContains(t, err, "carrier-pigeon")
}

func TestStdoutProviderStartsSpans(t *testing.T) {
	shutdown, err := NewProvider(context.Background(), ProviderConfig{ServiceName: "fulfillment", Exporter: "stdout"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	ctx, span := New("test").Start(context.Background(), "UC.order.create")
	defer span.End()
	assert.True(t, span.SpanContext().IsValid())
	assert.NotNil(t, ctx)
}
