// core/scenario.go
package core

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Defaults applied to a Scenario loaded without these fields. They are the
// values the original simulation panel assumed for every antenna pair.
const (
	DefaultTxPowerDbm         = 20.0
	DefaultReliabilityPercent = 99.9
)

// Antenna is one end of a hop placed in the scene.
type Antenna struct {
	ID       string  `json:"id,omitempty"`
	Position Vec3    `json:"position"`
	GainDbi  float64 `json:"gain_dbi"`
}

// Scenario describes a hop by its antenna positions instead of a
// distance. Distance and mast heights are derived from the positions.
type Scenario struct {
	Name               string     `json:"name,omitempty"`
	FrequencyMHz       float64    `json:"frequency_mhz"`
	Tx                 Antenna    `json:"tx"`
	Rx                 Antenna    `json:"rx"`
	TxPowerDbm         float64    `json:"tx_power_dbm"`
	Climate            Climate    `json:"climate"`
	ReliabilityPercent float64    `json:"reliability_percent"`
	Obstacles          []Obstacle `json:"obstacles"`
	ProfileSamples     int        `json:"profile_samples,omitempty"`
}

// Geometry returns the path between the two antennas.
func (s Scenario) Geometry() PathGeometry {
	return PathGeometry{FrequencyMHz: s.FrequencyMHz, Tx: s.Tx.Position, Rx: s.Rx.Position}
}

// LinkParameters derives the hop parameters: the ground-plane distance
// between the antennas and each antenna's height.
func (s Scenario) LinkParameters() (LinkParameters, error) {
	if err := requirePositive("frequency_mhz", s.FrequencyMHz); err != nil {
		return LinkParameters{}, err
	}
	dist := HorizontalDistance(s.Tx.Position, s.Rx.Position)
	if dist == 0 {
		return LinkParameters{}, fmt.Errorf("%w: antennas %q and %q share a ground position", ErrDegenerateGeometry, s.Tx.ID, s.Rx.ID)
	}
	return LinkParameters{
		FrequencyMHz:       s.FrequencyMHz,
		DistanceM:          dist,
		TxPowerDbm:         s.TxPowerDbm,
		TxGainDbi:          s.Tx.GainDbi,
		RxGainDbi:          s.Rx.GainDbi,
		TxHeightM:          s.Tx.Position.Y,
		RxHeightM:          s.Rx.Position.Y,
		Climate:            s.Climate,
		ReliabilityPercent: s.ReliabilityPercent,
	}, nil
}

// AnalyzeScenario analyses the hop between the scenario's antennas, with
// obstacles located against the real antenna positions.
func AnalyzeScenario(s Scenario) (*LinkAnalysis, error) {
	params, err := s.LinkParameters()
	if err != nil {
		return nil, err
	}
	return analyzePath(params, s.Geometry(), s.Obstacles, AnalysisOptions{ProfileSamples: s.ProfileSamples})
}

// internal document shapes; pointers tell absent fields from zeros.
type scenarioDoc struct {
	Name               string        `yaml:"name"`
	FrequencyMHz       float64       `yaml:"frequency_mhz"`
	Tx                 antennaDoc    `yaml:"tx"`
	Rx                 antennaDoc    `yaml:"rx"`
	TxPowerDbm         *float64      `yaml:"tx_power_dbm"`
	Climate            string        `yaml:"climate"`
	ReliabilityPercent *float64      `yaml:"reliability_percent"`
	Obstacles          []obstacleDoc `yaml:"obstacles"`
	ProfileSamples     int           `yaml:"profile_samples"`
}

type antennaDoc struct {
	ID       string  `yaml:"id"`
	Position Vec3    `yaml:"position"`
	GainDbi  float64 `yaml:"gain_dbi"`
}

type obstacleDoc struct {
	ID       string  `yaml:"id"`
	Position Vec3    `yaml:"position"`
	HeightM  float64 `yaml:"height_m"`
	WidthM   float64 `yaml:"width_m"`
}

// LoadScenario decodes a YAML (or JSON) scenario document from r and fills
// absent transmit power, climate and reliability with the defaults.
//
// Only structural problems and unknown climates fail here; geometry is
// checked when the scenario is analysed.
func LoadScenario(r io.Reader) (Scenario, error) {
	var doc scenarioDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Scenario{}, fmt.Errorf("LoadScenario: empty document")
		}
		return Scenario{}, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	climate, err := ParseClimate(doc.Climate)
	if err != nil {
		return Scenario{}, fmt.Errorf("LoadScenario: %w", err)
	}

	s := Scenario{
		Name:               doc.Name,
		FrequencyMHz:       doc.FrequencyMHz,
		Tx:                 Antenna(doc.Tx),
		Rx:                 Antenna(doc.Rx),
		TxPowerDbm:         DefaultTxPowerDbm,
		Climate:            climate,
		ReliabilityPercent: DefaultReliabilityPercent,
		Obstacles:          make([]Obstacle, 0, len(doc.Obstacles)),
		ProfileSamples:     doc.ProfileSamples,
	}
	if doc.TxPowerDbm != nil {
		s.TxPowerDbm = *doc.TxPowerDbm
	}
	if doc.ReliabilityPercent != nil {
		s.ReliabilityPercent = *doc.ReliabilityPercent
	}
	for i, o := range doc.Obstacles {
		id := o.ID
		if id == "" {
			id = fmt.Sprintf("obstacle-%d", i)
		}
		s.Obstacles = append(s.Obstacles, Obstacle{ID: id, Position: o.Position, HeightM: o.HeightM, WidthM: o.WidthM})
	}
	return s, nil
}
