package core

import (
	"fmt"
	"math"
)

// Vec3 is a scene position in metres. Y is height above the ground plane;
// X and Z span the horizontal plane.
type Vec3 struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	d := v.Sub(other)
	return math.Sqrt(d.Dot(d))
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// HorizontalDistance returns the distance between a and b projected onto
// the ground plane. Height does not contribute.
func HorizontalDistance(a, b Vec3) float64 {
	return math.Hypot(b.X-a.X, b.Z-a.Z)
}

// PathGeometry places a link in the scene: the carrier frequency plus the
// transmitter and receiver positions. Obstacles are located against it.
type PathGeometry struct {
	FrequencyMHz float64 `json:"frequency_mhz" yaml:"frequency_mhz"`
	Tx           Vec3    `json:"tx" yaml:"tx"`
	Rx           Vec3    `json:"rx" yaml:"rx"`
}

// HorizontalLength is the ground-plane distance between Tx and Rx.
func (p PathGeometry) HorizontalLength() float64 {
	return HorizontalDistance(p.Tx, p.Rx)
}

// wavelength validates the geometry and returns the carrier wavelength.
func (p PathGeometry) wavelength() (float64, error) {
	lambda, err := Wavelength(p.FrequencyMHz)
	if err != nil {
		return 0, err
	}
	if p.HorizontalLength() == 0 {
		return 0, fmt.Errorf("%w: transmitter and receiver coincide", ErrDegenerateGeometry)
	}
	return lambda, nil
}

// splitAt returns the ground-plane distances from the transmitter to pos
// and from pos to the receiver.
func (p PathGeometry) splitAt(pos Vec3) (d1, d2 float64) {
	return HorizontalDistance(p.Tx, pos), HorizontalDistance(pos, p.Rx)
}
