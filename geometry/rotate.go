// Package geometry rotates sampled signals in the (time, amplitude) plane.
package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrLengthMismatch is returned when time and signal differ in length.
	ErrLengthMismatch = errors.New("geometry: time and signal lengths differ")
	// ErrEmptySignal is returned when there are no samples to rotate.
	ErrEmptySignal = errors.New("geometry: empty signal")
)

// Point is a location in the (time, amplitude) plane.
type Point struct {
	T float64 `json:"t"`
	Y float64 `json:"y"`
}

// Middle returns the centre of the bounding box of the samples.
func Middle(time, signal []float64) Point {
	return Point{
		T: midrange(time),
		Y: midrange(signal),
	}
}

func midrange(xs []float64) float64 {
	lo, hi := floats.Min(xs), floats.Max(xs)
	return lo + (hi-lo)/2
}

// RotationMatrix is the 2x2 counter-clockwise rotation by degrees.
func RotationMatrix(degrees float64) *mat.Dense {
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return mat.NewDense(2, 2, []float64{
		cos, -sin,
		sin, cos,
	})
}

// RotateSignal rotates the points (time[i], signal[i]) by degrees about
// origin, or about the bounding-box midpoint when origin is nil.
//
// The result is a 2xN matrix holding the rotated time in row 0 and the
// rotated samples in row 1.
func RotateSignal(time, signal []float64, degrees float64, origin *Point) (*mat.Dense, error) {
	if len(time) != len(signal) {
		return nil, ErrLengthMismatch
	}
	n := len(time)
	if n == 0 {
		return nil, ErrEmptySignal
	}

	o := Middle(time, signal)
	if origin != nil {
		o = *origin
	}

	centered := mat.NewDense(2, n, nil)
	for i := 0; i < n; i++ {
		centered.Set(0, i, time[i]-o.T)
		centered.Set(1, i, signal[i]-o.Y)
	}

	var out mat.Dense
	out.Mul(RotationMatrix(degrees), centered)

	for i := 0; i < n; i++ {
		out.Set(0, i, out.At(0, i)+o.T)
		out.Set(1, i, out.At(1, i)+o.Y)
	}
	return &out, nil
}
