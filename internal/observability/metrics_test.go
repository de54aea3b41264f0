package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestUnaryInterceptorRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/linkplanner.v1.LinkBudgetService/EvaluateLink"}

	_, err = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		time.Sleep(2 * time.Millisecond)
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("interceptor handler returned error: %v", err)
	}

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("LinkBudgetService", "EvaluateLink", "OK")); got != 1 {
		t.Fatalf("linkplanner_rpc_requests_total = %v, want 1", got)
	}

	if count := histogramSampleCount(t, reg, "linkplanner_rpc_duration_seconds", map[string]string{
		"service": "LinkBudgetService",
		"method":  "EvaluateLink",
	}); count != 1 {
		t.Fatalf("linkplanner_rpc_duration_seconds sample_count = %d, want 1", count)
	}
}

func TestUnaryInterceptorRecordsErrorCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	interceptor := collector.UnaryServerInterceptor()
	info := &grpc.UnaryServerInfo{FullMethod: "/linkplanner.v1.LinkBudgetService/GetPreset"}

	_, _ = interceptor(context.Background(), struct{}{}, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.NotFound, "no such preset")
	})

	if got := testutil.ToFloat64(collector.RPCRequests.WithLabelValues("LinkBudgetService", "GetPreset", "NotFound")); got != 1 {
		t.Fatalf("linkplanner_rpc_requests_total error label = %v, want 1", got)
	}
}

func TestHTTPMiddlewareRecordsStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}

	h := collector.HTTPMiddleware("POST /link-budget", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/link-budget", nil))

	ok := collector.HTTPMiddleware("GET /healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	ok.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("POST /link-budget", "400")); got != 1 {
		t.Fatalf("400 counter = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.HTTPRequests.WithLabelValues("GET /healthz", "200")); got != 1 {
		t.Fatalf("200 counter = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var api *APICollector
	var engine *EngineCollector

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	if api.HTTPMiddleware("x", next) == nil {
		t.Fatalf("nil collector must pass the handler through")
	}
	api.SetPresetCount(3)
	engine.ObserveEvaluation("link", "good", 12, 1, time.Millisecond)
	engine.IncEvaluationError("link", "invalid_parameter")
	engine.ObserveCacheLookup(true)
	engine.SetCacheHitRatio(0.5)
	if engine.Gatherer() != nil {
		t.Fatalf("nil collector should have no gatherer")
	}
}

func TestRegisteringTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}
	second, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("second NewEngineCollector: %v", err)
	}
	first.ObserveCacheLookup(true)
	if got := testutil.ToFloat64(second.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Fatalf("shared hit counter = %v, want 1", got)
	}
}

func TestEngineCollectorObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}

	c.ObserveEvaluation("scenario", "poor", 2.3, 2, 50*time.Microsecond)
	c.ObserveEvaluation("scenario", "poor", 1.0, 0, 50*time.Microsecond)
	c.IncEvaluationError("link", "degenerate_geometry")
	c.SetCacheHitRatio(1.7)

	if got := testutil.ToFloat64(c.Evaluations.WithLabelValues("scenario", "poor")); got != 2 {
		t.Fatalf("evaluations = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.IntrudingObstacles); got != 2 {
		t.Fatalf("intruding obstacles = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.EvaluationErrors.WithLabelValues("link", "degenerate_geometry")); got != 1 {
		t.Fatalf("evaluation errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.CacheHitRatio); got != 1 {
		t.Fatalf("hit ratio = %v, want clamped 1", got)
	}
}

func TestMetricsHandlerExposesAllFamilies(t *testing.T) {
	reg := prometheus.NewRegistry()
	api, err := NewAPICollector(reg)
	if err != nil {
		t.Fatalf("NewAPICollector: %v", err)
	}
	engine, err := NewEngineCollector(reg)
	if err != nil {
		t.Fatalf("NewEngineCollector: %v", err)
	}
	api.SetPresetCount(3)
	api.RPCRequests.WithLabelValues("svc", "method", "OK").Inc()
	api.RPCDurations.WithLabelValues("svc", "method").Observe(0.01)
	api.HTTPRequests.WithLabelValues("GET /presets", "200").Inc()
	api.HTTPDurations.WithLabelValues("GET /presets").Observe(0.001)
	engine.ObserveEvaluation("link", "good", 12, 0, time.Millisecond)
	engine.ObserveCacheLookup(false)
	engine.SetCacheHitRatio(0)
	engine.IncEvaluationError("link", "invalid_parameter")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()
	api.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("/metrics status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	for _, metric := range []string{
		"linkplanner_rpc_requests_total",
		"linkplanner_rpc_duration_seconds",
		"linkplanner_http_requests_total",
		"linkplanner_http_duration_seconds",
		"linkplanner_presets 3",
		"linkplanner_evaluations_total",
		"linkplanner_evaluation_errors_total",
		"linkplanner_effective_margin_db",
		"linkplanner_evaluation_duration_seconds",
		"linkplanner_intruding_obstacles_total",
		"linkplanner_cache_lookups_total",
		"linkplanner_cache_hit_ratio",
	} {
		if !strings.Contains(body, metric) {
			t.Fatalf("expected %q in /metrics output", metric)
		}
	}
}

func TestSplitMethod(t *testing.T) {
	cases := []struct {
		in              string
		service, method string
	}{
		{in: "", service: "unknown", method: "unknown"},
		{in: "/linkplanner.v1.LinkBudgetService/Eval", service: "LinkBudgetService", method: "Eval"},
		{in: "bogus", service: "unknown", method: "unknown"},
		{in: "/svc/", service: "svc", method: "unknown"},
	}
	for _, tc := range cases {
		s, m := SplitMethod(tc.in)
		if s != tc.service || m != tc.method {
			t.Fatalf("SplitMethod(%q) = %q/%q, want %q/%q", tc.in, s, m, tc.service, tc.method)
		}
	}
}

func histogramSampleCount(t *testing.T, gatherer prometheus.Gatherer, name string, labels map[string]string) uint64 {
	t.Helper()

	metrics, err := gatherer.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if matchLabels(m.GetLabel(), labels) && m.GetHistogram() != nil {
				return m.GetHistogram().GetSampleCount()
			}
		}
	}
	return 0
}

func matchLabels(got []*dto.LabelPair, want map[string]string) bool {
	if len(got) < len(want) {
		return false
	}
	matched := 0
	for _, lp := range got {
		if val, ok := want[lp.GetName()]; ok && val == lp.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
