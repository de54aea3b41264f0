package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/signalsfoundry/linkplanner/core"
	"github.com/signalsfoundry/linkplanner/internal/linkapi"
	"github.com/signalsfoundry/linkplanner/internal/logging"
	"github.com/signalsfoundry/linkplanner/internal/observability"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// Config holds the server settings gathered from flags and environment.
type Config struct {
	GRPCAddress    string
	HTTPAddress    string
	MetricsAddress string
	PresetsPath    string
	CacheSize      int
	CacheTTL       time.Duration
	ShutdownGrace  time.Duration
	Tracing        observability.TracingConfig
}

// version is stamped into traces; release builds set it with -ldflags.
var version = "dev"

// parseConfig reads flags from args. Tracing flags default to the
// LINKPLANNER_TRACING_* environment captured in tracing.
func parseConfig(args []string, tracing observability.TracingConfig) (Config, error) {
	cfg := Config{Tracing: tracing}
	cfg.Tracing.ServiceVersion = version

	fs := flag.NewFlagSet("linkplanner-server", flag.ContinueOnError)
	fs.StringVar(&cfg.GRPCAddress, "grpc-addr", ":50051", "TCP address the gRPC server listens on")
	fs.StringVar(&cfg.HTTPAddress, "http-addr", ":8080", "HTTP address for the JSON API (empty disables it)")
	fs.StringVar(&cfg.MetricsAddress, "metrics-addr", ":9090", "HTTP address for Prometheus /metrics (empty disables it)")
	fs.StringVar(&cfg.PresetsPath, "presets", "", "Optional YAML file of presets merged over the built-in ones")
	fs.IntVar(&cfg.CacheSize, "cache-size", linkapi.DefaultCacheSize, "Number of analyses kept in the result cache (0 disables it)")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", linkapi.DefaultCacheTTL, "Lifetime of a cached analysis")
	fs.DurationVar(&cfg.ShutdownGrace, "shutdown-grace", 5*time.Second, "Time allowed for in-flight requests and span flushing on shutdown")

	fs.BoolVar(&cfg.Tracing.Enabled, "tracing", cfg.Tracing.Enabled, "Export OpenTelemetry spans (env "+observability.EnvTracingEnabled+")")
	fs.StringVar(&cfg.Tracing.Exporter, "tracing-exporter", cfg.Tracing.Exporter, "Span exporter: stdout or otlp (env "+observability.EnvTracingExporter+")")
	fs.StringVar(&cfg.Tracing.Endpoint, "tracing-endpoint", cfg.Tracing.Endpoint, "OTLP gRPC collector address (env "+observability.EnvOTLPEndpoint+")")
	fs.BoolVar(&cfg.Tracing.Insecure, "tracing-insecure", cfg.Tracing.Insecure, "Dial the OTLP collector without TLS (env "+observability.EnvOTLPInsecure+")")
	fs.Float64Var(&cfg.Tracing.SampleRatio, "tracing-sample-ratio", cfg.Tracing.SampleRatio, "Fraction of new traces sampled, 0 to 1 (env "+observability.EnvTracingSampleRatio+")")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Tracing.Validate(); err != nil {
		return Config{}, fmt.Errorf("tracing flags: %w", err)
	}
	return cfg, nil
}

func main() {
	cfg, err := parseConfig(os.Args[1:], observability.TracingConfigFromEnv())
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logging.NewFromEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		log.Error(ctx, "failed to listen for gRPC", logging.String("addr", cfg.GRPCAddress), logging.Err(err))
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves gRPC on lis plus the optional HTTP API and metrics listeners
// until ctx is cancelled or one of them fails.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	if log == nil {
		log = logging.Noop()
	}

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer observability.ShutdownTracing(context.Background(), shutdownTracing, cfg.ShutdownGrace, log)

	apiMetrics, err := observability.NewAPICollector(nil)
	if err != nil {
		return fmt.Errorf("init api metrics: %w", err)
	}
	engineMetrics, err := observability.NewEngineCollector(nil)
	if err != nil {
		return fmt.Errorf("init engine metrics: %w", err)
	}

	catalog, err := buildCatalog(ctx, cfg.PresetsPath, log)
	if err != nil {
		return err
	}
	apiMetrics.SetPresetCount(catalog.Len())

	cache := linkapi.NewResultCache(cfg.CacheSize, cfg.CacheTTL, engineMetrics)
	svc := linkapi.NewService(catalog, cache, engineMetrics, log)

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			linkapi.RequestIDUnaryServerInterceptor(log),
			linkapi.TracingUnaryServerInterceptor(),
			apiMetrics.UnaryServerInterceptor(),
		),
	)
	linkapi.RegisterLinkBudgetServer(server, svc)

	var httpSrv, metricsSrv *http.Server
	if cfg.HTTPAddress != "" {
		httpSrv = &http.Server{
			Addr:              cfg.HTTPAddress,
			Handler:           linkapi.NewHTTPHandler(svc, apiMetrics, log),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", apiMetrics.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddress,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting gRPC server", logging.String("addr", lis.Addr().String()))
		if err := server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})
	for _, srv := range []*http.Server{httpSrv, metricsSrv} {
		if srv == nil {
			continue
		}
		srv := srv
		g.Go(func() error {
			log.Info(gctx, "starting HTTP server", logging.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down link planner server")

		grace := cfg.ShutdownGrace
		if grace <= 0 {
			grace = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
		defer cancel()

		stopped := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(stopped)
		}()
		select {
		case <-stopped:
		case <-shutdownCtx.Done():
			server.Stop()
		}

		for _, srv := range []*http.Server{httpSrv, metricsSrv} {
			if srv != nil {
				_ = srv.Shutdown(shutdownCtx)
			}
		}
		return nil
	})

	return g.Wait()
}

// buildCatalog starts from the built-in presets and merges the presets
// file over them, replacing entries with the same name.
func buildCatalog(ctx context.Context, path string, log logging.Logger) (*core.Catalog, error) {
	catalog, err := core.NewCatalog(core.DefaultPresets()...)
	if err != nil {
		return nil, fmt.Errorf("built-in presets: %w", err)
	}
	if path == "" {
		return catalog, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open presets: %w", err)
	}
	defer f.Close()

	presets, err := core.LoadPresets(f)
	if err != nil {
		return nil, fmt.Errorf("load presets %s: %w", path, err)
	}
	for _, p := range presets {
		if err := catalog.Put(p); err != nil {
			return nil, err
		}
	}

	log.Info(ctx, "loaded presets",
		logging.String("path", path),
		logging.Int("count", len(presets)),
		logging.Int("total", catalog.Len()),
	)
	return catalog, nil
}
