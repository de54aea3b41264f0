package core

import (
	"fmt"
	"math"
	"strings"
)

// FadeClimate is the terrain/humidity class of the Barnett–Vignant style
// fade-margin estimator. It is deliberately a separate taxonomy from
// Climate.
type FadeClimate string

const (
	FadeClimateDry    FadeClimate = "dry"
	FadeClimateNormal FadeClimate = "normal"
	FadeClimateHumid  FadeClimate = "humid"
)

// ParseFadeClimate maps a user-supplied name onto a FadeClimate. The empty
// string selects FadeClimateNormal.
func ParseFadeClimate(s string) (FadeClimate, error) {
	switch FadeClimate(strings.ToLower(strings.TrimSpace(s))) {
	case "", FadeClimateNormal:
		return FadeClimateNormal, nil
	case FadeClimateDry:
		return FadeClimateDry, nil
	case FadeClimateHumid:
		return FadeClimateHumid, nil
	default:
		return "", fmt.Errorf("%w: unknown fade climate %q (want dry, normal or humid)", ErrInvalidParameter, s)
	}
}

// Factor returns the climate weight; unrecognised values count as normal.
func (c FadeClimate) Factor() float64 {
	switch c {
	case FadeClimateDry:
		return 1
	case FadeClimateHumid:
		return 3
	default:
		return 2
	}
}

// FadeMarginParams are the inputs of EstimateFadeMargin.
type FadeMarginParams struct {
	FrequencyMHz       float64     `json:"frequency_mhz" yaml:"frequency_mhz"`
	DistanceM          float64     `json:"distance_m" yaml:"distance_m"`
	Climate            FadeClimate `json:"climate" yaml:"climate"`
	ReliabilityPercent float64     `json:"reliability_percent" yaml:"reliability_percent"`
}

// EstimateFadeMargin returns factor·sqrt(f_GHz)·d_km^1.5·(1 - reliability/100).
func EstimateFadeMargin(p FadeMarginParams) (float64, error) {
	if err := requirePositive("frequency_mhz", p.FrequencyMHz); err != nil {
		return 0, err
	}
	if err := requirePositive("distance_m", p.DistanceM); err != nil {
		return 0, err
	}
	fGHz := p.FrequencyMHz / 1000
	dKm := p.DistanceM / 1000
	m := p.Climate.Factor() * math.Sqrt(fGHz) * math.Pow(dKm, 1.5) * (1 - p.ReliabilityPercent/100)
	if err := requireFinite("fade margin", m); err != nil {
		return 0, err
	}
	return m, nil
}
