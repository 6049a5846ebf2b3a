package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/pos-api/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestNew_JSONConServicioYComponente(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Service: "pos-api", Output: &buf})

	log.Component("sales").Info().Str("sale_id", "s1").Msg("venta confirmada")

	line := decodeLine(t, &buf)
	assert.Equal(t, "pos-api", line["service"])
	assert.Equal(t, "sales", line["component"])
	assert.Equal(t, "s1", line["sale_id"])
	assert.Contains(t, line, "time")
}

func TestNew_NivelInvalidoUsaInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Level: "ruidoso", Output: &buf})

	log.Debug().Msg("no debe salir")
	assert.Zero(t, buf.Len())

	log.Info().Msg("sí")
	assert.NotZero(t, buf.Len())
}

func TestCtx_AgregaTraza(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Output: &buf})

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x01, 0x02},
		SpanID:     trace.SpanID{0x03},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	log.Ctx(ctx).Info().Msg("con traza")
	line := decodeLine(t, &buf)
	assert.Equal(t, sc.TraceID().String(), line["trace_id"])
	assert.Equal(t, sc.SpanID().String(), line["span_id"])

	buf.Reset()
	log.Ctx(context.Background()).Info().Msg("sin traza")
	assert.NotContains(t, decodeLine(t, &buf), "trace_id")
}
