package stats

import (
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrMissingBetaParams is returned by PlotBeta when neither a/b nor
// mode/concentration are set.
var ErrMissingBetaParams = errors.New("stats: either a and b or mode and concentration must be given")

// ErrNonPositiveShape rejects beta shape parameters the density is undefined for.
var ErrNonPositiveShape = errors.New("stats: beta shape parameters must be positive")

// density is what a plotted distribution must provide.
type density interface {
	Prob(x float64) float64
	Quantile(p float64) float64
}

// BetaSpec selects a beta distribution. Zero fields count as unset. Mode and
// Concentration win over A and B when both pairs are set.
type BetaSpec struct {
	A, B          float64
	Mode          float64
	Concentration float64
}

// Resolve returns the shape parameters described by s. Both must be
// positive, whichever pair they come from.
func (s BetaSpec) Resolve() (a, b float64, err error) {
	switch {
	case s.Mode != 0 && s.Concentration != 0:
		a, b = BetaABFromModeConcentration(s.Mode, s.Concentration)
	case s.A != 0 && s.B != 0:
		a, b = s.A, s.B
	default:
		return 0, 0, ErrMissingBetaParams
	}
	if !(a > 0 && b > 0) {
		return 0, 0, fmt.Errorf("%w: a=%g b=%g", ErrNonPositiveShape, a, b)
	}
	return a, b, nil
}

// PlotSize is the width and height of saved plots.
var PlotSize = 6 * vg.Inch

var pdfLine = color.NRGBA{R: 255, A: 153}

// PlotBeta saves the beta density over its central 98% to path. The image
// format follows the extension (png, svg, pdf, ...).
func PlotBeta(path string, spec BetaSpec) error {
	a, b, err := spec.Resolve()
	if err != nil {
		return err
	}
	return savePDF(path, "beta pdf", distuv.Beta{Alpha: a, Beta: b}, 100)
}

// PlotGamma saves the gamma density with the given mode and standard
// deviation over its central 98% to path.
func PlotGamma(path string, mode, sd float64) error {
	shape, rate, err := GammaShapeRateFromModeSD(mode, sd)
	if err != nil {
		return err
	}
	return savePDF(path, "gamma pdf", distuv.Gamma{Alpha: shape, Beta: rate}, 50)
}

// PlotHalfCauchy saves the half-Cauchy density over its central 98% to path.
func PlotHalfCauchy(path string, scale float64) error {
	if !(scale > 0) {
		return fmt.Errorf("stats: half-Cauchy scale must be positive, got %g", scale)
	}
	return savePDF(path, "Half-Cauchy pdf", HalfCauchy{Scale: scale}, 100)
}

// Curve samples d at n evenly spaced points between its 1% and 99%
// quantiles.
func Curve(d density, n int) plotter.XYs {
	xs := floats.Span(make([]float64, n), d.Quantile(0.01), d.Quantile(0.99))
	pts := make(plotter.XYs, n)
	for i, x := range xs {
		pts[i].X = x
		pts[i].Y = d.Prob(x)
	}
	return pts
}

func savePDF(path, label string, d density, n int) error {
	p := plot.New()
	p.X.Label.Text = "x"
	p.Y.Label.Text = "density"

	line, err := plotter.NewLine(Curve(d, n))
	if err != nil {
		return fmt.Errorf("stats: %s line: %w", label, err)
	}
	line.LineStyle.Width = vg.Points(5)
	line.LineStyle.Color = pdfLine

	p.Add(line)
	p.Legend.Add(label, line)

	if err := p.Save(PlotSize, PlotSize, path); err != nil {
		return fmt.Errorf("stats: save %s: %w", path, err)
	}
	return nil
}
