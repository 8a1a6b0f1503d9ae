package obs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/blessedux/CasaGreda/internal/obs"
)

func TestStartTracingDisabledExporter(t *testing.T) {
	for _, exporter := range []string{"none", " OFF "} {
		shutdown, err := obs.StartTracing(context.Background(), obs.Tracing{Exporter: exporter})
		require.NoError(t, err, exporter)
		require.NotNil(t, shutdown)
		require.NoError(t, shutdown(context.Background()))
	}
}

func TestStartTracingRejectsUnknownExporter(t *testing.T) {
	shutdown, err := obs.StartTracing(context.Background(), obs.Tracing{Exporter: "jaeger"})
	require.ErrorContains(t, err, `"jaeger"`)
	require.NoError(t, shutdown(context.Background()))
}

func TestSpansRecordOutcome(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := obs.StartSpan(context.Background(), "checkout.place", attribute.Int("cart.items", 2))
	obs.EndSpan(span, nil)
	_, span = obs.StartSpan(context.Background(), "catalog.rooms")
	obs.EndSpan(span, errors.New("pool closed"))

	ended := rec.Ended()
	require.Len(t, ended, 2)
	require.Equal(t, "checkout.place", ended[0].Name())
	require.Equal(t, codes.Unset, ended[0].Status().Code)
	require.Contains(t, ended[0].Attributes(), attribute.Int("cart.items", 2))
	require.Equal(t, codes.Error, ended[1].Status().Code)
	require.Equal(t, "pool closed", ended[1].Status().Description)
	require.Len(t, ended[1].Events(), 1)
}
