package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWavelength(t *testing.T) {
	lambda, err := Wavelength(2400)
	require.NoError(t, err)
	assert.InDelta(t, 0.1249135, lambda, 1e-6)
}

func TestFreeSpacePathLossReference(t *testing.T) {
	loss, err := FreeSpacePathLoss(2400, 1000)
	require.NoError(t, err)

	lambda := SpeedOfLight / 2400e6
	want := 20 * math.Log10(4*math.Pi*1000/lambda)
	assert.InDelta(t, want, loss, 1e-12)
	assert.InDelta(t, 100.0520080561155, loss, 1e-9)
}

func TestFreeSpacePathLossMonotonic(t *testing.T) {
	freqs := []float64{100, 900, 2400, 5800, 13000, 38000}
	dists := []float64{1, 10, 250, 1000, 15000, 60000}

	for _, f := range freqs {
		prev := math.Inf(-1)
		for _, d := range dists {
			loss, err := FreeSpacePathLoss(f, d)
			require.NoError(t, err)
			assert.Greater(t, loss, prev, "f=%v d=%v", f, d)
			prev = loss
		}
	}
	for _, d := range dists {
		prev := math.Inf(-1)
		for _, f := range freqs {
			loss, err := FreeSpacePathLoss(f, d)
			require.NoError(t, err)
			assert.Greater(t, loss, prev, "f=%v d=%v", f, d)
			prev = loss
		}
	}
}

func TestFreeSpacePathLossRejectsNonPositive(t *testing.T) {
	cases := []struct {
		name string
		f, d float64
	}{
		{"zero frequency", 0, 1000},
		{"negative frequency", -2400, 1000},
		{"zero distance", 2400, 0},
		{"negative distance", 2400, -5},
		{"NaN frequency", math.NaN(), 1000},
		{"infinite distance", 2400, math.Inf(1)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			loss, err := FreeSpacePathLoss(tc.f, tc.d)
			require.ErrorIs(t, err, ErrInvalidParameter)
			assert.Zero(t, loss)
		})
	}
}
