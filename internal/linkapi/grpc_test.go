package linkapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	core "github.com/signalsfoundry/linkplanner/core"
	"github.com/signalsfoundry/linkplanner/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// recordingServer captures the request ID seen by the handler.
type recordingServer struct {
	*Service
	seen chan string
}

func (r *recordingServer) ListPresets(ctx context.Context, in *ListPresetsRequest) (*ListPresetsResponse, error) {
	r.seen <- logging.RequestIDFromContext(ctx)
	return r.Service.ListPresets(ctx, in)
}

func startGRPC(t *testing.T, env *testEnv, srv LinkBudgetServer) *Client {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RequestIDUnaryServerInterceptor(logging.Noop()),
		TracingUnaryServerInterceptor(),
		env.api.UnaryServerInterceptor(),
	))
	RegisterLinkBudgetServer(server, srv)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestGRPCRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	client := startGRPC(t, env, env.svc)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := client.EvaluateLink(ctx, &EvaluateLinkRequest{
		Preset:         "mountain",
		Obstacles:      []core.Obstacle{{ID: "ridge", Position: core.Vec3{X: 15000}, HeightM: 10}},
		ProfileSamples: 8,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Analysis)
	assert.InDelta(t, 2.3071023840786964, resp.Analysis.EffectiveMarginDb, 1e-9)
	assert.Equal(t, core.LinkQualityPoor, resp.Analysis.Quality)
	assert.Len(t, resp.Analysis.FresnelProfile, 9)
	assert.Equal(t, "ridge", resp.Analysis.Obstacles[0].Obstacle.ID)

	scen, err := client.AnalyzeScenario(ctx, &AnalyzeScenarioRequest{Scenario: []byte(`{"frequency_mhz": 13000, "tx": {"position": {"y": 30}, "gain_dbi": 18}, "rx": {"position": {"x": 3000, "y": 20, "z": 4000}, "gain_dbi": 18}}`)})
	require.NoError(t, err)
	assert.InDelta(t, -4.2060503547404835, scen.Analysis.EffectiveMarginDb, 1e-9)

	fade, err := client.EstimateFadeMargin(ctx, &EstimateFadeMarginRequest{FrequencyMHz: 7000, DistanceM: 15000})
	require.NoError(t, err)
	assert.InDelta(t, 0.3074085229787541, fade.FadeMarginDb, 1e-12)

	list, err := client.ListPresets(ctx, &ListPresetsRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Presets, 3)

	got, err := client.GetPreset(ctx, &GetPresetRequest{Name: "interurban"})
	require.NoError(t, err)
	assert.Equal(t, 15000.0, got.Preset.Parameters.DistanceM)

	assert.Equal(t, 1.0, testutil.ToFloat64(env.api.RPCRequests.WithLabelValues("LinkBudgetService", "EvaluateLink", "OK")))
}

func TestGRPCErrorCodes(t *testing.T) {
	env := newTestEnv(t)
	client := startGRPC(t, env, env.svc)
	ctx := context.Background()

	_, err := client.GetPreset(ctx, &GetPresetRequest{Name: "desert"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = client.EvaluateLink(ctx, &EvaluateLinkRequest{Parameters: &core.LinkParameters{FrequencyMHz: 2400}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	assert.Equal(t, 1.0, testutil.ToFloat64(env.api.RPCRequests.WithLabelValues("LinkBudgetService", "GetPreset", "NotFound")))
}

func TestGRPCPropagatesRequestID(t *testing.T) {
	env := newTestEnv(t)
	rec := &recordingServer{Service: env.svc, seen: make(chan string, 1)}
	client := startGRPC(t, env, rec)

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDHeader, "req-42")
	_, err := client.ListPresets(ctx, &ListPresetsRequest{})
	require.NoError(t, err)

	select {
	case id := <-rec.seen:
		assert.Equal(t, "req-42", id)
	case <-time.After(time.Second):
		t.Fatal("handler was not invoked")
	}
}
