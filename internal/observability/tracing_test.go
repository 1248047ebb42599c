package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"solarview/internal/logging"
)

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv("SOLARVIEW_TRACING_ENABLED", "TRUE")
	t.Setenv("SOLARVIEW_TRACING_EXPORTER", "OTLP")
	t.Setenv("SOLARVIEW_TRACING_SAMPLE_RATIO", "0.25")
	t.Setenv("SOLARVIEW_OTLP_ENDPOINT", "collector:4317")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Exporter != "otlp" || cfg.Endpoint != "collector:4317" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.SampleRatio != 0.25 || cfg.ServiceName != "solarview" {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv("SOLARVIEW_TRACING_SAMPLE_RATIO", "7")
	if got := TracingConfigFromEnv().SampleRatio; got != 1 {
		t.Fatalf("out-of-range ratio should fall back to 1, got %v", got)
	}
}

func TestInitTracingDisabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, logging.Discard())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracingStdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	cfg := TracingConfig{Enabled: true, ServiceName: "test", Exporter: "stdout", SampleRatio: 1, Writer: &buf}
	shutdown, err := InitTracing(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("InitTracing: %v", err)
	}
	defer otel.SetTracerProvider(noop.NewTracerProvider())

	_, span := otel.Tracer("test").Start(context.Background(), "positions.query")
	span.End()
	ShutdownWithTimeout(context.Background(), shutdown, logging.Discard())

	if !strings.Contains(buf.String(), "positions.query") {
		t.Fatalf("expected exported span, got %q", buf.String())
	}
}

func TestInitTracingUnknownExporter(t *testing.T) {
	_, err := InitTracing(context.Background(), TracingConfig{Enabled: true, Exporter: "zipkin"}, nil)
	if err == nil {
		t.Fatal("expected error for unsupported exporter")
	}
}
