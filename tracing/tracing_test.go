package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	shutdown, err := InitWithExporter("cogniflow", "test", exporter)
	require.NoError(t, err)
	defer shutdown(context.Background())

	ctx, parent := StartSpan(context.Background(), "orchestrator.execute", KindInternal)
	_, child := StartSpan(ctx, "step", KindClient)
	child.WithAttributes(map[string]string{"tool": "web_search"}).WithInt("ordinal", 1)
	EndSpan(child, errors.New("backend unavailable"))
	EndSpan(parent, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "step", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, codes.Ok, spans[1].Status.Code)
}

func TestInit_File(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "spans.json")
	shutdown, err := Init("cogniflow", "test", fname)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "plan", KindInternal)
	span.WithAttributes(map[string]string{"k": "v"})
	EndSpan(span, nil)
	require.NoError(t, shutdown(context.Background()))

	data, err := os.ReadFile(fname)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Name":"plan"`)
}

func TestNilSpan(t *testing.T) {
	var span *Span
	assert.Nil(t, span.WithAttributes(map[string]string{"a": "b"}))
	span.Event("noop")
	EndSpan(span, nil)
}
