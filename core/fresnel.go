package core

import (
	"fmt"
	"math"
)

// DefaultProfileSamples is the number of intervals SampleFresnelProfile
// uses when the caller passes n <= 0.
const DefaultProfileSamples = 100

// FresnelPoint is one sample of the first Fresnel-zone envelope.
type FresnelPoint struct {
	DistanceAlongPathM float64 `json:"distance_along_path_m"`
	RadiusM            float64 `json:"radius_m"`
}

// FirstFresnelRadius returns the radius in metres of the first Fresnel
// zone at a point d1 metres from one end of the path and d2 from the
// other: sqrt(λ·d1·d2/(d1+d2)). At either endpoint the radius is 0.
func FirstFresnelRadius(frequencyMHz, d1, d2 float64) (float64, error) {
	lambda, err := Wavelength(frequencyMHz)
	if err != nil {
		return 0, err
	}
	return fresnelRadius(lambda, d1, d2)
}

func fresnelRadius(lambda, d1, d2 float64) (float64, error) {
	if err := requireNonNegative("d1", d1); err != nil {
		return 0, err
	}
	if err := requireNonNegative("d2", d2); err != nil {
		return 0, err
	}
	if d1+d2 == 0 {
		return 0, fmt.Errorf("%w: path endpoints coincide (d1+d2 = 0)", ErrDegenerateGeometry)
	}
	if d1 == 0 || d2 == 0 {
		return 0, nil
	}
	r := math.Sqrt(lambda * d1 * d2 / (d1 + d2))
	if err := requireFinite("fresnel radius", r); err != nil {
		return 0, err
	}
	return r, nil
}

// SampleFresnelProfile samples the first Fresnel-zone radius at n+1
// evenly spaced points from 0 to distanceM inclusive. n <= 0 selects
// DefaultProfileSamples. Every call returns a new slice.
func SampleFresnelProfile(frequencyMHz, distanceM float64, n int) ([]FresnelPoint, error) {
	lambda, err := Wavelength(frequencyMHz)
	if err != nil {
		return nil, err
	}
	if err := requirePositive("distance_m", distanceM); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = DefaultProfileSamples
	}

	points := make([]FresnelPoint, 0, n+1)
	for i := 0; i <= n; i++ {
		x := distanceM * float64(i) / float64(n)
		// The last sample is pinned so d2 is exactly 0 rather than a
		// rounding residue.
		d2 := distanceM - x
		if i == n {
			x, d2 = distanceM, 0
		}
		r, err := fresnelRadius(lambda, x, d2)
		if err != nil {
			return nil, err
		}
		points = append(points, FresnelPoint{DistanceAlongPathM: x, RadiusM: r})
	}
	return points, nil
}

// IsIntruding reports whether the obstacle reaches into the first Fresnel
// zone at its position along the path: obstacle height <= zone radius.
//
// The obstacle's absolute height is compared with the radius; the height
// of the line of sight at that point is not subtracted. An obstacle of
// height 0 therefore always intrudes.
func IsIntruding(obstacle Obstacle, path PathGeometry) (bool, error) {
	lambda, err := path.wavelength()
	if err != nil {
		return false, err
	}
	c, err := clearanceAt(obstacle, path, lambda)
	if err != nil {
		return false, err
	}
	return c.intruding, nil
}

// clearance is the Fresnel-zone situation of one obstacle on a path.
type clearance struct {
	d1, d2    float64
	radius    float64
	intruding bool
}

// clearanceAt is the single intrusion rule shared by IsIntruding and
// Analyze.
func clearanceAt(obstacle Obstacle, path PathGeometry, lambda float64) (clearance, error) {
	d1, d2 := path.splitAt(obstacle.Position)
	r, err := fresnelRadius(lambda, d1, d2)
	if err != nil {
		return clearance{}, err
	}
	return clearance{d1: d1, d2: d2, radius: r, intruding: obstacle.HeightM <= r}, nil
}
