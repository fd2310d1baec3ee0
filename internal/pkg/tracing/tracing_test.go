package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitDisabled(t *testing.T) {
	t.Setenv(EnvTrace, "")
	assert.False(t, Enabled())
	shutdown, err := Init(nil)
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitWritesSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	t.Setenv(EnvTrace, "1")

	var out bytes.Buffer
	shutdown, err := Init(&out)
	require.NoError(t, err)

	_, span := Tracer("test").Start(context.Background(), "unit.span")
	End(span, errors.New("boom"))
	require.NoError(t, shutdown(context.Background()))

	assert.Contains(t, out.String(), "unit.span")
	assert.Contains(t, out.String(), "boom")
}
