package linkapi

import (
	"encoding/json"

	core "github.com/signalsfoundry/linkplanner/core"
)

// EvaluateLinkRequest asks for a full analysis of one hop. Either Preset or
// Parameters must be set; when both are, Parameters wins.
type EvaluateLinkRequest struct {
	Preset         string               `json:"preset,omitempty"`
	Parameters     *core.LinkParameters `json:"parameters,omitempty"`
	Obstacles      []core.Obstacle      `json:"obstacles,omitempty"`
	ProfileSamples int                  `json:"profile_samples,omitempty"`
}

// EvaluateLinkResponse carries the analysis. Cached reports whether it was
// served from the result cache.
type EvaluateLinkResponse struct {
	Analysis       *core.LinkAnalysis `json:"analysis"`
	IntrudingCount int                `json:"intruding_count"`
	Cached         bool               `json:"cached"`
}

// AnalyzeScenarioRequest wraps a scenario document in the same YAML/JSON
// shape accepted by the CLI.
type AnalyzeScenarioRequest struct {
	Scenario json.RawMessage `json:"scenario"`
}

// EstimateFadeMarginRequest mirrors core.FadeMarginParams with an optional
// reliability.
type EstimateFadeMarginRequest struct {
	FrequencyMHz       float64  `json:"frequency_mhz"`
	DistanceM          float64  `json:"distance_m"`
	Climate            string   `json:"climate,omitempty"`
	ReliabilityPercent *float64 `json:"reliability_percent,omitempty"`
}

type EstimateFadeMarginResponse struct {
	FadeMarginDb float64          `json:"fade_margin_db"`
	Climate      core.FadeClimate `json:"climate"`
}

type ListPresetsRequest struct{}

type ListPresetsResponse struct {
	Presets []core.Preset `json:"presets"`
}

type GetPresetRequest struct {
	Name string `json:"name"`
}

type GetPresetResponse struct {
	Preset core.Preset `json:"preset"`
}
