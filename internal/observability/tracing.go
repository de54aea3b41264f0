package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/signalsfoundry/linkplanner/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Span exporters understood by InitTracing.
const (
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

const (
	DefaultOTLPEndpoint = "localhost:4317"
	defaultServiceName  = "linkplanner"
)

// Environment variables read by TracingConfigFromEnv. Server flags take
// these as their defaults.
const (
	EnvTracingEnabled     = "LINKPLANNER_TRACING_ENABLED"
	EnvTracingExporter    = "LINKPLANNER_TRACING_EXPORTER"
	EnvTracingServiceName = "LINKPLANNER_TRACING_SERVICE_NAME"
	EnvTracingSampleRatio = "LINKPLANNER_TRACING_SAMPLE_RATIO"
	EnvTracingEnvironment = "LINKPLANNER_ENVIRONMENT"
	EnvOTLPEndpoint       = "LINKPLANNER_OTLP_ENDPOINT"
	EnvOTLPInsecure       = "LINKPLANNER_OTLP_INSECURE"
)

// Resource attributes stamped on every span so traces can be grouped by the
// propagation models that produced their numbers.
var (
	AttrPropagationModel = attribute.Key("linkplanner.propagation_model")
	AttrDiffractionModel = attribute.Key("linkplanner.diffraction_model")
	AttrFadeModel        = attribute.Key("linkplanner.fade_model")
)

// engineModels describes the engine behind the link API spans.
var engineModels = []attribute.KeyValue{
	AttrPropagationModel.String("free-space"),
	AttrDiffractionModel.String("knife-edge-additive"),
	AttrFadeModel.String("barnett-vignant"),
}

// TracingConfig selects the tracer provider installed by InitTracing.
type TracingConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string

	Exporter string
	// Endpoint and Insecure apply to the OTLP exporter only.
	Endpoint string
	Insecure bool

	SampleRatio float64

	// Output receives spans from the stdout exporter; nil means os.Stdout.
	Output io.Writer
}

// DefaultTracingConfig is tracing switched off, stdout exporter, every
// trace sampled.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: defaultServiceName,
		Exporter:    ExporterStdout,
		Endpoint:    DefaultOTLPEndpoint,
		Insecure:    true,
		SampleRatio: 1,
	}
}

// TracingConfigFromEnv overlays the LINKPLANNER_* tracing variables on
// DefaultTracingConfig. Unparsable values keep the default; sample ratios
// are clamped to [0, 1].
func TracingConfigFromEnv() TracingConfig {
	return tracingConfigFromLookup(os.LookupEnv)
}

func tracingConfigFromLookup(lookup func(string) (string, bool)) TracingConfig {
	cfg := DefaultTracingConfig()
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvTracingEnabled); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Enabled = b
		}
	}
	if v, ok := get(EnvTracingExporter); ok {
		cfg.Exporter = strings.ToLower(v)
	}
	if v, ok := get(EnvTracingServiceName); ok {
		cfg.ServiceName = v
	}
	if v, ok := get(EnvTracingEnvironment); ok {
		cfg.Environment = v
	}
	if v, ok := get(EnvTracingSampleRatio); ok {
		if r, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(r) {
			cfg.SampleRatio = math.Min(math.Max(r, 0), 1)
		}
	}
	if v, ok := get(EnvOTLPEndpoint); ok {
		cfg.Endpoint = v
	}
	if v, ok := get(EnvOTLPInsecure); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Insecure = b
		}
	}
	return cfg
}

// Validate reports settings InitTracing cannot honour. A disabled config is
// always valid.
func (c TracingConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	switch c.exporter() {
	case ExporterStdout:
	case ExporterOTLP:
		if strings.TrimSpace(c.Endpoint) == "" {
			errs = append(errs, errors.New("otlp exporter needs an endpoint"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported tracing exporter %q", c.Exporter))
	}
	if math.IsNaN(c.SampleRatio) || c.SampleRatio < 0 || c.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("sample ratio %v outside [0, 1]", c.SampleRatio))
	}
	if strings.TrimSpace(c.ServiceName) == "" {
		errs = append(errs, errors.New("service name is required"))
	}
	return errors.Join(errs...)
}

func (c TracingConfig) exporter() string {
	e := strings.ToLower(strings.TrimSpace(c.Exporter))
	switch e {
	case "", ExporterStdout:
		return ExporterStdout
	case ExporterOTLP, "otlpgrpc":
		return ExporterOTLP
	}
	return e
}

// InitTracing installs the global tracer provider and propagators described
// by cfg and returns the provider's shutdown func. A disabled config installs
// a noop provider.
func InitTracing(ctx context.Context, cfg TracingConfig, log logging.Logger) (func(context.Context) error, error) {
	if log == nil {
		log = logging.Noop()
	}

	if !cfg.Enabled {
		otel.SetTracerProvider(noop.NewTracerProvider())
		otel.SetTextMapPropagator(propagation.TraceContext{})
		log.Debug(ctx, "tracing disabled")
		return func(context.Context) error { return nil }, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracing config: %w", err)
	}

	exp, err := newSpanExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	tp, err := newTracerProvider(ctx, cfg, exp)
	if err != nil {
		_ = exp.Shutdown(ctx)
		return nil, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	fields := []logging.Field{
		logging.String("exporter", cfg.exporter()),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	}
	if cfg.exporter() == ExporterOTLP {
		fields = append(fields, logging.String("endpoint", cfg.Endpoint), logging.Bool("insecure", cfg.Insecure))
	}
	log.Info(ctx, "tracing enabled", fields...)

	return tp.Shutdown, nil
}

// tracingResource identifies the service and the engine models.
func tracingResource(ctx context.Context, cfg TracingConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", defaultServiceName),
	}
	if cfg.ServiceVersion != "" {
		attrs = append(attrs, attribute.String("service.version", cfg.ServiceVersion))
	}
	if cfg.Environment != "" {
		attrs = append(attrs, attribute.String("deployment.environment.name", cfg.Environment))
	}
	attrs = append(attrs, engineModels...)

	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(attrs...),
	)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}
	return res, nil
}

func newTracerProvider(ctx context.Context, cfg TracingConfig, exp sdktrace.SpanExporter) (*sdktrace.TracerProvider, error) {
	res, err := tracingResource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	), nil
}

func newSpanExporter(ctx context.Context, cfg TracingConfig) (sdktrace.SpanExporter, error) {
	switch cfg.exporter() {
	case ExporterStdout:
		w := cfg.Output
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	case ExporterOTLP:
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient(opts...))
		if err != nil {
			return nil, fmt.Errorf("otlp exporter %s: %w", cfg.Endpoint, err)
		}
		return exp, nil
	default:
		return nil, fmt.Errorf("unsupported tracing exporter %q", cfg.Exporter)
	}
}

// ShutdownTracing flushes pending spans within timeout (5s when <= 0). Errors
// are logged, not returned.
func ShutdownTracing(ctx context.Context, shutdown func(context.Context) error, timeout time.Duration, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.Noop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn(ctx, "tracing shutdown failed", logging.Err(err))
	}
}
