package core

import (
	"fmt"
	"math"
)

// SpeedOfLight in metres per second.
const SpeedOfLight = 299792458.0

// Wavelength returns the free-space wavelength in metres of a carrier at
// frequencyMHz.
func Wavelength(frequencyMHz float64) (float64, error) {
	if err := requirePositive("frequency_mhz", frequencyMHz); err != nil {
		return 0, err
	}
	return SpeedOfLight / (frequencyMHz * 1e6), nil
}

// FreeSpacePathLoss returns the Friis free-space loss in dB,
// 20·log10(4π·d/λ). Both inputs must be strictly positive; the result is
// strictly increasing in each of them.
func FreeSpacePathLoss(frequencyMHz, distanceM float64) (float64, error) {
	lambda, err := Wavelength(frequencyMHz)
	if err != nil {
		return 0, err
	}
	if err := requirePositive("distance_m", distanceM); err != nil {
		return 0, err
	}
	loss := 20 * math.Log10(4*math.Pi*distanceM/lambda)
	if err := requireFinite("free-space loss", loss); err != nil {
		return 0, fmt.Errorf("FreeSpacePathLoss(%v, %v): %w", frequencyMHz, distanceM, err)
	}
	return loss, nil
}
