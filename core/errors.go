package core

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidParameter reports a frequency or distance that is not
	// strictly positive (or not a finite number).
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDegenerateGeometry reports a path whose endpoints coincide, so the
	// Fresnel and diffraction terms have no defined value.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrArithmeticDomain is the last guard against returning NaN or Inf.
	ErrArithmeticDomain = errors.New("arithmetic domain error")
)

// requirePositive rejects v unless it is a finite number > 0. NaN fails
// the comparison, so it is rejected too.
func requirePositive(name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 1) {
		return fmt.Errorf("%w: %s must be > 0, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func requireNonNegative(name string, v float64) error {
	if !(v >= 0) || math.IsInf(v, 1) {
		return fmt.Errorf("%w: %s must be >= 0, got %v", ErrInvalidParameter, name, v)
	}
	return nil
}

func requireFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s is %v", ErrArithmeticDomain, name, v)
	}
	return nil
}
