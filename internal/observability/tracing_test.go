package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/signalsfoundry/linkplanner/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func resetTracerProvider(t *testing.T) {
	t.Helper()
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })
}

func TestTracingConfigFromLookup(t *testing.T) {
	cases := []struct {
		name  string
		env   map[string]string
		check func(TracingConfig) bool
	}{
		{
			name:  "defaults",
			env:   nil,
			check: func(c TracingConfig) bool { return c == DefaultTracingConfig() },
		},
		{
			name: "otlp overrides",
			env: map[string]string{
				EnvTracingEnabled:  "TRUE",
				EnvTracingExporter: "OTLP",
				EnvOTLPEndpoint:    "collector:4317",
				EnvOTLPInsecure:    "false",
			},
			check: func(c TracingConfig) bool {
				return c.Enabled && c.Exporter == ExporterOTLP && c.Endpoint == "collector:4317" && !c.Insecure
			},
		},
		{
			name:  "ratio clamped high",
			env:   map[string]string{EnvTracingSampleRatio: "2"},
			check: func(c TracingConfig) bool { return c.SampleRatio == 1 },
		},
		{
			name:  "ratio clamped low",
			env:   map[string]string{EnvTracingSampleRatio: "-0.5"},
			check: func(c TracingConfig) bool { return c.SampleRatio == 0 },
		},
		{
			name:  "garbage keeps defaults",
			env:   map[string]string{EnvTracingSampleRatio: "half", EnvTracingEnabled: "sometimes"},
			check: func(c TracingConfig) bool { return c.SampleRatio == 1 && !c.Enabled },
		},
		{
			name:  "blank values ignored",
			env:   map[string]string{EnvTracingServiceName: "  ", EnvOTLPEndpoint: ""},
			check: func(c TracingConfig) bool { return c.ServiceName == "linkplanner" && c.Endpoint == DefaultOTLPEndpoint },
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := tracingConfigFromLookup(func(k string) (string, bool) {
				v, ok := tc.env[k]
				return v, ok
			})
			if !tc.check(cfg) {
				t.Fatalf("unexpected config: %+v", cfg)
			}
		})
	}
}

func TestTracingConfigFromEnv(t *testing.T) {
	t.Setenv(EnvTracingEnabled, "1")
	t.Setenv(EnvTracingEnvironment, "staging")
	t.Setenv(EnvTracingSampleRatio, "0.25")

	cfg := TracingConfigFromEnv()
	if !cfg.Enabled || cfg.Environment != "staging" || cfg.SampleRatio != 0.25 || cfg.Exporter != ExporterStdout {
		t.Fatalf("unexpected tracing config: %+v", cfg)
	}
}

func TestTracingConfigValidate(t *testing.T) {
	valid := DefaultTracingConfig()
	valid.Enabled = true

	cases := []struct {
		name   string
		mutate func(*TracingConfig)
		ok     bool
	}{
		{name: "stdout", mutate: func(*TracingConfig) {}, ok: true},
		{name: "otlp alias", mutate: func(c *TracingConfig) { c.Exporter = "OTLPGRPC" }, ok: true},
		{name: "disabled ignores everything", mutate: func(c *TracingConfig) { c.Enabled = false; c.Exporter = "zipkin"; c.SampleRatio = 7 }, ok: true},
		{name: "unknown exporter", mutate: func(c *TracingConfig) { c.Exporter = "zipkin" }},
		{name: "otlp without endpoint", mutate: func(c *TracingConfig) { c.Exporter = ExporterOTLP; c.Endpoint = " " }},
		{name: "ratio above one", mutate: func(c *TracingConfig) { c.SampleRatio = 1.5 }},
		{name: "no service name", mutate: func(c *TracingConfig) { c.ServiceName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected a validation error for %+v", cfg)
			}
		})
	}
}

func TestInitTracingDisabled(t *testing.T) {
	resetTracerProvider(t)

	shutdown, err := InitTracing(context.Background(), TracingConfig{Exporter: "zipkin"}, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing disabled: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("noop shutdown: %v", err)
	}
}

func TestInitTracingStdoutExportsEngineResource(t *testing.T) {
	resetTracerProvider(t)

	var buf bytes.Buffer
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.ServiceVersion = "v1.2.3"
	cfg.Output = &buf

	shutdown, err := InitTracing(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("InitTracing stdout: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "engine/analyze")
	span.End()
	ShutdownTracing(context.Background(), shutdown, time.Second, nil)

	out := buf.String()
	for _, want := range []string{"engine/analyze", "knife-edge-additive", "barnett-vignant", "v1.2.3"} {
		if !strings.Contains(out, want) {
			t.Fatalf("stdout export missing %q:\n%s", want, out)
		}
	}
}

func TestTracerProviderResourceAttributes(t *testing.T) {
	exp := tracetest.NewInMemoryExporter()
	cfg := DefaultTracingConfig()
	cfg.ServiceName = "linkplanner-test"
	cfg.Environment = "ci"

	tp, err := newTracerProvider(context.Background(), cfg, exp)
	if err != nil {
		t.Fatalf("newTracerProvider: %v", err)
	}
	_, span := tp.Tracer("test").Start(context.Background(), "LinkAPI/LinkBudgetService/EvaluateLink")
	span.End()
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("ForceFlush: %v", err)
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	spans := exp.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	attrs := spans[0].Resource.Set()
	want := []struct {
		key   attribute.Key
		value string
	}{
		{"service.name", "linkplanner-test"},
		{"service.namespace", "linkplanner"},
		{"deployment.environment.name", "ci"},
		{AttrPropagationModel, "free-space"},
		{AttrDiffractionModel, "knife-edge-additive"},
		{AttrFadeModel, "barnett-vignant"},
	}
	for _, w := range want {
		got, ok := attrs.Value(w.key)
		if !ok || got.AsString() != w.value {
			t.Fatalf("resource %s = %q (present %v), want %q", w.key, got.AsString(), ok, w.value)
		}
	}
	if _, ok := attrs.Value("service.version"); ok {
		t.Fatalf("service.version should be omitted when empty")
	}
}

func TestOTLPExporterConstruction(t *testing.T) {
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Exporter = ExporterOTLP
	cfg.Endpoint = "127.0.0.1:1"

	exp, err := newSpanExporter(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newSpanExporter otlp: %v", err)
	}
	if _, ok := exp.(*otlptrace.Exporter); !ok {
		t.Fatalf("expected *otlptrace.Exporter, got %T", exp)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = exp.Shutdown(ctx)
}

func TestInitTracingOTLP(t *testing.T) {
	resetTracerProvider(t)

	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	cfg.Exporter = ExporterOTLP
	cfg.Endpoint = "127.0.0.1:1"

	shutdown, err := InitTracing(context.Background(), cfg, logging.Noop())
	if err != nil {
		t.Fatalf("InitTracing otlp: %v", err)
	}
	// Nothing listens on the endpoint; shutdown must still return.
	ShutdownTracing(context.Background(), shutdown, 500*time.Millisecond, nil)
}

func TestInitTracingRejectsInvalidConfig(t *testing.T) {
	resetTracerProvider(t)

	cases := []TracingConfig{
		{Enabled: true, ServiceName: "x", Exporter: "zipkin", SampleRatio: 1},
		{Enabled: true, ServiceName: "x", Exporter: ExporterStdout, SampleRatio: 2},
	}
	for _, cfg := range cases {
		if _, err := InitTracing(context.Background(), cfg, nil); err == nil {
			t.Fatalf("expected error for %+v", cfg)
		}
	}
}

func TestShutdownTracingNil(t *testing.T) {
	ShutdownTracing(context.Background(), nil, 0, nil)
}
