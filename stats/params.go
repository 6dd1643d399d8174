// Package stats converts between parameterisations of the beta and gamma
// distributions and plots their densities.
package stats

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidShape is returned when beta shape parameters are not both > 1,
	// where the mode is undefined.
	ErrInvalidShape = errors.New("stats: beta shape parameters must both exceed 1")
	// ErrInvalidSD is returned for a non-positive standard deviation.
	ErrInvalidSD = errors.New("stats: standard deviation must be positive")
)

// BetaABFromModeConcentration returns the alpha and beta shape parameters of
// the beta distribution with the given mode and concentration.
func BetaABFromModeConcentration(mode, concentration float64) (a, b float64) {
	return mode*(concentration-2) + 1, (1-mode)*(concentration-2) + 1
}

// BetaModeConcentrationFromAB is the inverse of BetaABFromModeConcentration.
func BetaModeConcentrationFromAB(a, b float64) (mode, concentration float64, err error) {
	if !(a > 1 && b > 1) {
		return 0, 0, fmt.Errorf("%w: a=%g b=%g", ErrInvalidShape, a, b)
	}
	return (a - 1) / (a + b - 2), a + b, nil
}

// GammaShapeRateFromModeSD returns the shape and rate of the gamma
// distribution with the given mode and standard deviation.
func GammaShapeRateFromModeSD(mode, sd float64) (shape, rate float64, err error) {
	if !(sd > 0) {
		return 0, 0, fmt.Errorf("%w: sd=%g", ErrInvalidSD, sd)
	}
	rate = (mode + math.Sqrt(mode*mode+4*sd*sd)) / (2 * sd * sd)
	shape = 1 + mode*rate
	return shape, rate, nil
}
