package core

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named, reusable set of link parameters for a typical
// deployment. Callers copy Parameters and adjust them per request.
type Preset struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Parameters  LinkParameters `json:"parameters" yaml:"parameters"`
}

// Validate checks that the preset is named and that its parameters can be
// evaluated.
func (p *Preset) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil preset", ErrInvalidPreset)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidPreset)
	}
	if err := p.Parameters.Validate(); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPreset, p.Name, err)
	}
	if _, err := ParseClimate(string(p.Parameters.Climate)); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPreset, p.Name, err)
	}
	return nil
}

// DefaultPresets returns fresh copies of the built-in microwave presets:
// a short high-band city hop, a standard hop between towns and a long
// low-band mountain hop.
func DefaultPresets() []*Preset {
	return []*Preset{
		{
			Name:        "urban",
			Description: "Short city hop: 5 km at 13 GHz, 15 dBm, 18 dBi antennas.",
			Parameters: LinkParameters{
				FrequencyMHz:       13000,
				DistanceM:          5000,
				TxPowerDbm:         15,
				TxGainDbi:          18,
				RxGainDbi:          18,
				TxHeightM:          30,
				RxHeightM:          30,
				Climate:            ClimateTemperate,
				ReliabilityPercent: DefaultReliabilityPercent,
			},
		},
		{
			Name:        "interurban",
			Description: "Standard hop between two towns: 15 km at 7 GHz, 20 dBm, 20 dBi antennas.",
			Parameters: LinkParameters{
				FrequencyMHz:       7000,
				DistanceM:          15000,
				TxPowerDbm:         20,
				TxGainDbi:          20,
				RxGainDbi:          20,
				TxHeightM:          40,
				RxHeightM:          40,
				Climate:            ClimateTemperate,
				ReliabilityPercent: DefaultReliabilityPercent,
			},
		},
		{
			Name:        "mountain",
			Description: "Long hop across difficult terrain: 30 km at 2 GHz, 25 dBm, 25 dBi antennas.",
			Parameters: LinkParameters{
				FrequencyMHz:       2000,
				DistanceM:          30000,
				TxPowerDbm:         25,
				TxGainDbi:          25,
				RxGainDbi:          25,
				TxHeightM:          50,
				RxHeightM:          50,
				Climate:            ClimateTemperate,
				ReliabilityPercent: DefaultReliabilityPercent,
			},
		},
	}
}

type presetFile struct {
	Presets []*Preset `yaml:"presets"`
}

// LoadPresets decodes a YAML document of the form
//
//	presets:
//	  - name: urban
//	    parameters: {frequency_mhz: 13000, distance_m: 5000, ...}
//
// and validates every entry. An empty climate becomes temperate.
func LoadPresets(r io.Reader) ([]*Preset, error) {
	var doc presetFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("LoadPresets: decode failed: %w", err)
	}
	for i, p := range doc.Presets {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("LoadPresets: entry %d: %w", i, err)
		}
		if p.Parameters.Climate == "" {
			p.Parameters.Climate = ClimateTemperate
		}
	}
	return doc.Presets, nil
}
