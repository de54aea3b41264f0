// core/link_budget.go
package core

import (
	"fmt"
	"math"
	"strings"
)

// Climate selects the atmospheric loss factor of the link budget. It is
// unrelated to FadeClimate, which belongs to the fade-margin estimator.
type Climate string

const (
	ClimateTemperate Climate = "temperate"
	ClimateTropical  Climate = "tropical"
	ClimateArid      Climate = "arid"
)

// ParseClimate maps a user-supplied name onto a Climate. The empty string
// selects ClimateTemperate.
func ParseClimate(s string) (Climate, error) {
	switch Climate(strings.ToLower(strings.TrimSpace(s))) {
	case "", ClimateTemperate:
		return ClimateTemperate, nil
	case ClimateTropical:
		return ClimateTropical, nil
	case ClimateArid:
		return ClimateArid, nil
	default:
		return "", fmt.Errorf("%w: unknown climate %q (want temperate, tropical or arid)", ErrInvalidParameter, s)
	}
}

// Factor is the multiplier applied to the base atmospheric loss. Values
// outside the enum fall back to the temperate factor.
func (c Climate) Factor() float64 {
	switch c {
	case ClimateTropical:
		return 1.5
	case ClimateArid:
		return 0.8
	default:
		return 1.0
	}
}

const (
	// AtmosphericLossDbPerKm is the clear-air loss before the climate factor.
	AtmosphericLossDbPerKm = 0.1
	PolarizationLossDb     = 0.5
	MisalignmentLossDb     = 0.5
	// ReceiverSensitivityDbm is the fixed receiver threshold the system
	// margin is measured against.
	ReceiverSensitivityDbm = -70.0
	// BaseAvailabilityPercent is the availability of a link with no margin.
	BaseAvailabilityPercent = 99.9
	// fullMarginDb is the margin at which the reliability target is fully
	// credited.
	fullMarginDb = 20.0
)

// LinkParameters describes one point-to-point hop. It is a value type:
// callers build a fresh one per computation.
type LinkParameters struct {
	FrequencyMHz       float64 `json:"frequency_mhz" yaml:"frequency_mhz"`
	DistanceM          float64 `json:"distance_m" yaml:"distance_m"`
	TxPowerDbm         float64 `json:"tx_power_dbm" yaml:"tx_power_dbm"`
	TxGainDbi          float64 `json:"tx_gain_dbi" yaml:"tx_gain_dbi"`
	RxGainDbi          float64 `json:"rx_gain_dbi" yaml:"rx_gain_dbi"`
	TxHeightM          float64 `json:"tx_height_m" yaml:"tx_height_m"`
	RxHeightM          float64 `json:"rx_height_m" yaml:"rx_height_m"`
	Climate            Climate `json:"climate" yaml:"climate"`
	ReliabilityPercent float64 `json:"reliability_percent" yaml:"reliability_percent"`
}

// Path returns the geometry used when no antenna positions are known: the
// transmitter at the origin and the receiver DistanceM along +X, each at
// its mast height.
func (p LinkParameters) Path() PathGeometry {
	return PathGeometry{
		FrequencyMHz: p.FrequencyMHz,
		Tx:           Vec3{X: 0, Y: p.TxHeightM, Z: 0},
		Rx:           Vec3{X: p.DistanceM, Y: p.RxHeightM, Z: 0},
	}
}

// Validate checks the two inputs every formula depends on.
func (p LinkParameters) Validate() error {
	if err := requirePositive("frequency_mhz", p.FrequencyMHz); err != nil {
		return err
	}
	return requirePositive("distance_m", p.DistanceM)
}

// LinkBudgetResult is the outcome of EvaluateLinkBudget.
type LinkBudgetResult struct {
	FreeSpaceLossDb     float64 `json:"free_space_loss_db"`
	AtmosphericLossDb   float64 `json:"atmospheric_loss_db"`
	PolarizationLossDb  float64 `json:"polarization_loss_db"`
	MisalignmentLossDb  float64 `json:"misalignment_loss_db"`
	TotalLossDb         float64 `json:"total_loss_db"`
	TotalGainDb         float64 `json:"total_gain_db"`
	ReceivedPowerDbm    float64 `json:"received_power_dbm"`
	SystemMarginDb      float64 `json:"system_margin_db"`
	AvailabilityPercent float64 `json:"availability_percent"`
}

// AtmosphericLoss returns the clear-air loss in dB over distanceM.
func AtmosphericLoss(distanceM float64, climate Climate) float64 {
	return AtmosphericLossDbPerKm * (distanceM / 1000) * climate.Factor()
}

// Availability interpolates between BaseAvailabilityPercent and the
// reliability target according to the system margin; the margin factor is
// clamped to [0, 1].
func Availability(systemMarginDb, reliabilityPercent float64) float64 {
	f := math.Min(math.Max(systemMarginDb/fullMarginDb, 0), 1)
	return BaseAvailabilityPercent + f*(reliabilityPercent-BaseAvailabilityPercent)
}

// EvaluateLinkBudget computes received power, margin and availability for
// params. Frequency and distance are checked before anything else runs.
func EvaluateLinkBudget(params LinkParameters) (LinkBudgetResult, error) {
	if err := params.Validate(); err != nil {
		return LinkBudgetResult{}, err
	}

	fsl, err := FreeSpacePathLoss(params.FrequencyMHz, params.DistanceM)
	if err != nil {
		return LinkBudgetResult{}, err
	}

	r := LinkBudgetResult{
		FreeSpaceLossDb:    fsl,
		AtmosphericLossDb:  AtmosphericLoss(params.DistanceM, params.Climate),
		PolarizationLossDb: PolarizationLossDb,
		MisalignmentLossDb: MisalignmentLossDb,
	}
	r.TotalLossDb = r.FreeSpaceLossDb + r.AtmosphericLossDb + r.PolarizationLossDb + r.MisalignmentLossDb
	r.TotalGainDb = params.TxGainDbi + params.RxGainDbi
	r.ReceivedPowerDbm = params.TxPowerDbm + r.TotalGainDb - r.TotalLossDb
	r.SystemMarginDb = r.ReceivedPowerDbm - ReceiverSensitivityDbm
	r.AvailabilityPercent = Availability(r.SystemMarginDb, params.ReliabilityPercent)

	if err := requireFinite("received power", r.ReceivedPowerDbm); err != nil {
		return LinkBudgetResult{}, err
	}
	if err := requireFinite("availability", r.AvailabilityPercent); err != nil {
		return LinkBudgetResult{}, err
	}
	return r, nil
}
