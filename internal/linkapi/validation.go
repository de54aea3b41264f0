package linkapi

import (
	"errors"
	"fmt"
	"math"
	"strings"

	core "github.com/signalsfoundry/linkplanner/core"
)

// Request limits.
const (
	MaxObstacles      = 1000
	MaxProfileSamples = 10000
)

// ErrInvalidRequest is returned for structurally invalid API requests.
var ErrInvalidRequest = errors.New("invalid request")

// ValidateLinkParameters checks the fields the engine leaves to its callers:
// a known climate and a reliability target within [0, 100].
func ValidateLinkParameters(p core.LinkParameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := core.ParseClimate(string(p.Climate)); err != nil {
		return err
	}
	return validateReliability(p.ReliabilityPercent)
}

// ValidateEvaluateLinkRequest performs basic structural validation.
func ValidateEvaluateLinkRequest(in *EvaluateLinkRequest) error {
	if in == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidRequest)
	}
	if in.Parameters == nil && strings.TrimSpace(in.Preset) == "" {
		return fmt.Errorf("%w: parameters or preset is required", ErrInvalidRequest)
	}
	if len(in.Obstacles) > MaxObstacles {
		return fmt.Errorf("%w: at most %d obstacles are allowed, got %d", ErrInvalidRequest, MaxObstacles, len(in.Obstacles))
	}
	if in.ProfileSamples > MaxProfileSamples {
		return fmt.Errorf("%w: profile_samples must be <= %d", ErrInvalidRequest, MaxProfileSamples)
	}
	for i, o := range in.Obstacles {
		if !isFinite(o.Position.X) || !isFinite(o.Position.Z) || !isFinite(o.HeightM) {
			return fmt.Errorf("%w: obstacle %d has a non-finite coordinate", ErrInvalidRequest, i)
		}
	}
	return nil
}

// ValidateScenario applies the same limits to a decoded scenario.
func ValidateScenario(s core.Scenario) error {
	if len(s.Obstacles) > MaxObstacles {
		return fmt.Errorf("%w: at most %d obstacles are allowed, got %d", ErrInvalidRequest, MaxObstacles, len(s.Obstacles))
	}
	if s.ProfileSamples > MaxProfileSamples {
		return fmt.Errorf("%w: profile_samples must be <= %d", ErrInvalidRequest, MaxProfileSamples)
	}
	return validateReliability(s.ReliabilityPercent)
}

// ValidateFadeMarginRequest checks the request and resolves its climate.
func ValidateFadeMarginRequest(in *EstimateFadeMarginRequest) (core.FadeMarginParams, error) {
	if in == nil {
		return core.FadeMarginParams{}, fmt.Errorf("%w: request is required", ErrInvalidRequest)
	}
	climate, err := core.ParseFadeClimate(in.Climate)
	if err != nil {
		return core.FadeMarginParams{}, err
	}
	reliability := core.DefaultReliabilityPercent
	if in.ReliabilityPercent != nil {
		reliability = *in.ReliabilityPercent
	}
	if err := validateReliability(reliability); err != nil {
		return core.FadeMarginParams{}, err
	}
	return core.FadeMarginParams{
		FrequencyMHz:       in.FrequencyMHz,
		DistanceM:          in.DistanceM,
		Climate:            climate,
		ReliabilityPercent: reliability,
	}, nil
}

func validateReliability(r float64) error {
	if !(r >= 0 && r <= 100) {
		return fmt.Errorf("%w: reliability_percent must be within [0, 100], got %v", ErrInvalidRequest, r)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
