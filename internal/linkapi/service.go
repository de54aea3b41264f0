// internal/linkapi/service.go
package linkapi

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	core "github.com/signalsfoundry/linkplanner/core"
	"github.com/signalsfoundry/linkplanner/internal/logging"
	"github.com/signalsfoundry/linkplanner/internal/observability"
	"go.opentelemetry.io/otel/attribute"
)

// Service implements LinkBudgetServer on top of the propagation engine, a
// preset catalog and an optional result cache. The HTTP handlers call the
// same methods, so both transports share validation, caching and metrics.
type Service struct {
	catalog *core.Catalog
	cache   *ResultCache
	metrics *observability.EngineCollector
	log     logging.Logger
}

// NewService constructs a Service. cache and metrics may be nil.
func NewService(catalog *core.Catalog, cache *ResultCache, metrics *observability.EngineCollector, log logging.Logger) *Service {
	if log == nil {
		log = logging.Noop()
	}
	return &Service{
		catalog: catalog,
		cache:   cache,
		metrics: metrics,
		log:     log,
	}
}

// EvaluateLink analyses a hop given by explicit parameters or a preset name,
// with obstacles placed on the canonical path.
func (s *Service) EvaluateLink(ctx context.Context, in *EvaluateLinkRequest) (*EvaluateLinkResponse, error) {
	ctx, reqLog := requestLogger(ctx, s.log)
	reqLog = reqLog.With(logging.String("operation", "evaluate_link"))

	if err := ValidateEvaluateLinkRequest(in); err != nil {
		return nil, s.reject(ctx, reqLog, "link", err)
	}
	params, err := s.resolveParameters(in)
	if err != nil {
		return nil, s.reject(ctx, reqLog, "link", err)
	}
	if err := ValidateLinkParameters(params); err != nil {
		return nil, s.reject(ctx, reqLog, "link", err)
	}

	key := cacheKey("link", params, in.Obstacles, in.ProfileSamples)
	if a, ok := s.cache.Get(key); ok {
		reqLog.Debug(ctx, "EvaluateLink served from cache")
		return &EvaluateLinkResponse{Analysis: a, IntrudingCount: a.IntrudingCount(), Cached: true}, nil
	}

	_, span := StartChildSpan(ctx, "engine/analyze", "preset", in.Preset,
		attribute.Float64("link.frequency_mhz", params.FrequencyMHz),
		attribute.Float64("link.distance_m", params.DistanceM),
		attribute.Int("link.obstacles", len(in.Obstacles)),
	)
	start := time.Now()
	a, err := core.Analyze(params, in.Obstacles, core.AnalysisOptions{ProfileSamples: in.ProfileSamples})
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, s.reject(ctx, reqLog, "link", err)
	}
	span.SetAttributes(
		attribute.String("link.quality", string(a.Quality)),
		attribute.Float64("link.effective_margin_db", a.EffectiveMarginDb),
	)
	span.End()

	s.metrics.ObserveEvaluation("link", string(a.Quality), a.EffectiveMarginDb, a.IntrudingCount(), elapsed)
	s.cache.Add(key, a)

	reqLog.Info(ctx, "link evaluated",
		logging.Float64("effective_margin_db", a.EffectiveMarginDb),
		logging.String("quality", string(a.Quality)),
		logging.Int("intruding", a.IntrudingCount()),
	)
	return &EvaluateLinkResponse{Analysis: a, IntrudingCount: a.IntrudingCount()}, nil
}

// AnalyzeScenario decodes a scenario document and analyses the hop between
// its antennas.
func (s *Service) AnalyzeScenario(ctx context.Context, in *AnalyzeScenarioRequest) (*EvaluateLinkResponse, error) {
	ctx, reqLog := requestLogger(ctx, s.log)
	reqLog = reqLog.With(logging.String("operation", "analyze_scenario"))

	if in == nil || len(bytes.TrimSpace(in.Scenario)) == 0 {
		return nil, s.reject(ctx, reqLog, "scenario", fmt.Errorf("%w: scenario is required", ErrInvalidRequest))
	}
	return s.analyzeDocument(ctx, reqLog, in.Scenario)
}

func (s *Service) analyzeDocument(ctx context.Context, reqLog logging.Logger, doc []byte) (*EvaluateLinkResponse, error) {
	sc, err := core.LoadScenario(bytes.NewReader(doc))
	if err != nil {
		return nil, s.reject(ctx, reqLog, "scenario", fmt.Errorf("%w: %v", ErrInvalidRequest, err))
	}
	if err := ValidateScenario(sc); err != nil {
		return nil, s.reject(ctx, reqLog, "scenario", err)
	}
	reqLog = reqLog.With(logging.String("scenario", sc.Name))

	key := cacheKey("scenario", sc)
	if a, ok := s.cache.Get(key); ok {
		return &EvaluateLinkResponse{Analysis: a, IntrudingCount: a.IntrudingCount(), Cached: true}, nil
	}

	_, span := StartChildSpan(ctx, "engine/analyze_scenario", "scenario", sc.Name,
		attribute.Int("link.obstacles", len(sc.Obstacles)),
	)
	start := time.Now()
	a, err := core.AnalyzeScenario(sc)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		span.End()
		return nil, s.reject(ctx, reqLog, "scenario", err)
	}
	span.End()

	s.metrics.ObserveEvaluation("scenario", string(a.Quality), a.EffectiveMarginDb, a.IntrudingCount(), elapsed)
	s.cache.Add(key, a)

	reqLog.Info(ctx, "scenario analysed",
		logging.Float64("distance_m", a.Parameters.DistanceM),
		logging.Float64("effective_margin_db", a.EffectiveMarginDb),
		logging.String("quality", string(a.Quality)),
	)
	return &EvaluateLinkResponse{Analysis: a, IntrudingCount: a.IntrudingCount()}, nil
}

// EstimateFadeMargin runs the standalone fade-margin estimator.
func (s *Service) EstimateFadeMargin(ctx context.Context, in *EstimateFadeMarginRequest) (*EstimateFadeMarginResponse, error) {
	ctx, reqLog := requestLogger(ctx, s.log)
	reqLog = reqLog.With(logging.String("operation", "estimate_fade_margin"))

	params, err := ValidateFadeMarginRequest(in)
	if err != nil {
		return nil, s.reject(ctx, reqLog, "fade_margin", err)
	}
	m, err := core.EstimateFadeMargin(params)
	if err != nil {
		return nil, s.reject(ctx, reqLog, "fade_margin", err)
	}
	reqLog.Debug(ctx, "fade margin estimated", logging.Float64("fade_margin_db", m))
	return &EstimateFadeMarginResponse{FadeMarginDb: m, Climate: params.Climate}, nil
}

// ListPresets returns every preset in the catalog sorted by name.
func (s *Service) ListPresets(ctx context.Context, _ *ListPresetsRequest) (*ListPresetsResponse, error) {
	if s.catalog == nil {
		return &ListPresetsResponse{Presets: []core.Preset{}}, nil
	}
	return &ListPresetsResponse{Presets: s.catalog.List()}, nil
}

// GetPreset returns the named preset.
func (s *Service) GetPreset(ctx context.Context, in *GetPresetRequest) (*GetPresetResponse, error) {
	if in == nil || strings.TrimSpace(in.Name) == "" {
		return nil, ToStatusError(fmt.Errorf("%w: name is required", ErrInvalidRequest))
	}
	p, err := s.lookupPreset(in.Name)
	if err != nil {
		return nil, ToStatusError(err)
	}
	return &GetPresetResponse{Preset: p}, nil
}

func (s *Service) resolveParameters(in *EvaluateLinkRequest) (core.LinkParameters, error) {
	if in.Parameters != nil {
		return *in.Parameters, nil
	}
	p, err := s.lookupPreset(in.Preset)
	if err != nil {
		return core.LinkParameters{}, err
	}
	return p.Parameters, nil
}

func (s *Service) lookupPreset(name string) (core.Preset, error) {
	if s.catalog == nil {
		return core.Preset{}, fmt.Errorf("%w: %q", core.ErrPresetNotFound, name)
	}
	return s.catalog.Get(strings.TrimSpace(name))
}

// reject logs and counts a failed evaluation and returns its status error.
func (s *Service) reject(ctx context.Context, reqLog logging.Logger, kind string, err error) error {
	reason := errorReason(err)
	s.metrics.IncEvaluationError(kind, reason)
	if reason == "internal" || reason == "arithmetic_domain" {
		reqLog.Warn(ctx, "evaluation failed", logging.Err(err))
	} else {
		reqLog.Debug(ctx, "evaluation rejected", logging.String("reason", err.Error()))
	}
	return ToStatusError(err)
}
