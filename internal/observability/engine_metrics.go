package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineCollector exposes propagation-engine and result-cache metrics.
type EngineCollector struct {
	gatherer prometheus.Gatherer

	Evaluations        *prometheus.CounterVec
	EvaluationErrors   *prometheus.CounterVec
	EffectiveMargin    prometheus.Histogram
	EvaluationDuration prometheus.Histogram
	IntrudingObstacles prometheus.Counter

	CacheLookups  *prometheus.CounterVec
	CacheHitRatio prometheus.Gauge
}

// NewEngineCollector registers engine metrics against the provided registerer.
func NewEngineCollector(reg prometheus.Registerer) (*EngineCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkplanner_evaluations_total",
		Help: "Completed link evaluations, labeled by kind and resulting link quality.",
	}, []string{"kind", "quality"})
	evaluations, err := registerCounterVec(reg, evaluations, "linkplanner_evaluations_total")
	if err != nil {
		return nil, err
	}

	evalErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkplanner_evaluation_errors_total",
		Help: "Rejected link evaluations, labeled by kind and error class.",
	}, []string{"kind", "reason"})
	evalErrors, err = registerCounterVec(reg, evalErrors, "linkplanner_evaluation_errors_total")
	if err != nil {
		return nil, err
	}

	margin := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkplanner_effective_margin_db",
		Help:    "Effective margin of evaluated links after diffraction losses.",
		Buckets: []float64{-40, -20, -10, -5, 0, 5, 10, 20, 30, 40},
	})
	margin, err = registerHistogram(reg, margin, "linkplanner_effective_margin_db")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkplanner_evaluation_duration_seconds",
		Help:    "Time spent inside the propagation engine per evaluation.",
		Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	})
	duration, err = registerHistogram(reg, duration, "linkplanner_evaluation_duration_seconds")
	if err != nil {
		return nil, err
	}

	intruding := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "linkplanner_intruding_obstacles_total",
		Help: "Obstacles found inside the first Fresnel zone across all evaluations.",
	})
	intruding, err = registerCounter(reg, intruding, "linkplanner_intruding_obstacles_total")
	if err != nil {
		return nil, err
	}

	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "linkplanner_cache_lookups_total",
		Help: "Result cache lookups, labeled by outcome (hit or miss).",
	}, []string{"result"})
	lookups, err = registerCounterVec(reg, lookups, "linkplanner_cache_lookups_total")
	if err != nil {
		return nil, err
	}

	ratio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "linkplanner_cache_hit_ratio",
		Help: "Hit ratio of the evaluation result cache.",
	})
	ratio, err = registerGauge(reg, ratio, "linkplanner_cache_hit_ratio")
	if err != nil {
		return nil, err
	}

	return &EngineCollector{
		gatherer:           gatherer,
		Evaluations:        evaluations,
		EvaluationErrors:   evalErrors,
		EffectiveMargin:    margin,
		EvaluationDuration: duration,
		IntrudingObstacles: intruding,
		CacheLookups:       lookups,
		CacheHitRatio:      ratio,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *EngineCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ObserveEvaluation records one successful evaluation.
func (c *EngineCollector) ObserveEvaluation(kind, quality string, marginDb float64, intruding int, d time.Duration) {
	if c == nil {
		return
	}
	if c.Evaluations != nil {
		c.Evaluations.WithLabelValues(kind, quality).Inc()
	}
	if c.EffectiveMargin != nil {
		c.EffectiveMargin.Observe(marginDb)
	}
	if c.EvaluationDuration != nil {
		c.EvaluationDuration.Observe(d.Seconds())
	}
	if c.IntrudingObstacles != nil && intruding > 0 {
		c.IntrudingObstacles.Add(float64(intruding))
	}
}

// IncEvaluationError counts a rejected evaluation.
func (c *EngineCollector) IncEvaluationError(kind, reason string) {
	if c == nil || c.EvaluationErrors == nil {
		return
	}
	c.EvaluationErrors.WithLabelValues(kind, reason).Inc()
}

// ObserveCacheLookup counts a cache hit or miss.
func (c *EngineCollector) ObserveCacheLookup(hit bool) {
	if c == nil || c.CacheLookups == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// SetCacheHitRatio sets the cache hit ratio gauge, clamped to [0, 1].
func (c *EngineCollector) SetCacheHitRatio(ratio float64) {
	if c == nil || c.CacheHitRatio == nil {
		return
	}
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	c.CacheHitRatio.Set(ratio)
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
