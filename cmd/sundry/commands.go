package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/hdf5"
	"gopkg.in/yaml.v3"

	"github.com/skekre98/sundry/dict"
	"github.com/skekre98/sundry/external"
	"github.com/skekre98/sundry/fsutil"
	"github.com/skekre98/sundry/geometry"
	"github.com/skekre98/sundry/gpu"
	"github.com/skekre98/sundry/hdf5io"
	"github.com/skekre98/sundry/matlab"
	"github.com/skekre98/sundry/stats"
)

var errUsage = errors.New("bad usage")

func flags(name string, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func positional(fs *pflag.FlagSet, n int, names string) ([]string, error) {
	if fs.NArg() != n {
		return nil, fmt.Errorf("%w: %s wants %s", errUsage, fs.Name(), names)
	}
	return fs.Args(), nil
}

func runMerge(_ context.Context, args []string, out io.Writer) error {
	fs := flags("merge", out)
	output := fs.StringP("output", "o", "", "write the result here instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: merge wants one or more YAML files", errUsage)
	}

	maps := make([]map[string]any, 0, fs.NArg())
	for _, p := range fs.Args() {
		m, err := dict.LoadYAML(p)
		if err != nil {
			return err
		}
		maps = append(maps, m)
	}
	merged := dict.MergeAll(maps...)

	if *output != "" {
		return dict.WriteYAML(*output, merged)
	}
	enc := yaml.NewEncoder(out)
	defer enc.Close()
	return enc.Encode(merged)
}

func runMat2YAML(_ context.Context, args []string, out io.Writer) error {
	fs := flags("mat2yaml", out)
	variable := fs.StringP("variable", "v", "", "matrix variable to export")
	output := fs.StringP("output", "o", matlab.DefaultOutput, "YAML output file")
	width := fs.IntP("width", "w", matlab.DefaultWidth, "maximum line width")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 1, "<file.mat>")
	if err != nil {
		return err
	}
	if *variable == "" {
		return fmt.Errorf("%w: mat2yaml needs --variable", errUsage)
	}
	return matlab.MatrixToYAML(pos[0], *variable, *output, *width)
}

func runH5Strings(_ context.Context, args []string, out io.Writer) error {
	fs := flags("h5-strings", out)
	write := fs.Bool("write", false, "create the dataset from the remaining arguments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return fmt.Errorf("%w: h5-strings wants <file.h5> <dataset> [values...]", errUsage)
	}
	file, dataset, values := fs.Arg(0), fs.Arg(1), fs.Args()[2:]

	if *write {
		f, err := hdf5.CreateFile(file, hdf5.F_ACC_TRUNC)
		if err != nil {
			return fmt.Errorf("create %s: %w", file, err)
		}
		defer f.Close()
		return hdf5io.WriteStrings(f, dataset, values)
	}

	f, err := hdf5.OpenFile(file, hdf5.F_ACC_RDONLY)
	if err != nil {
		return fmt.Errorf("open %s: %w", file, err)
	}
	defer f.Close()
	got, err := hdf5io.ReadStrings(f, dataset)
	if err != nil {
		return err
	}
	for _, s := range got {
		fmt.Fprintln(out, s)
	}
	return nil
}

func runRotate(_ context.Context, args []string, out io.Writer) error {
	fs := flags("rotate", out)
	degrees := fs.Float64P("degrees", "d", 0, "rotation angle, counter-clockwise")
	times := fs.Float64Slice("time", nil, "sample times")
	signal := fs.Float64Slice("signal", nil, "sample values")
	origin := fs.Float64Slice("origin", nil, "rotation centre as t,y; defaults to the bounding box middle")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var o *geometry.Point
	switch len(*origin) {
	case 0:
	case 2:
		o = &geometry.Point{T: (*origin)[0], Y: (*origin)[1]}
	default:
		return fmt.Errorf("%w: --origin wants two values", errUsage)
	}

	m, err := geometry.RotateSignal(*times, *signal, *degrees, o)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, joinFloats(mat.Row(nil, 0, m)))
	fmt.Fprintln(out, joinFloats(mat.Row(nil, 1, m)))
	return nil
}

func joinFloats(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.FormatFloat(x, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

func runDirSize(_ context.Context, args []string, out io.Writer) error {
	fs := flags("dirsize", out)
	unitName := fs.StringP("unit", "u", "b", "b, kb, mb or gb")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 1, "<dir>")
	if err != nil {
		return err
	}
	unit, err := fsutil.ParseUnit(*unitName)
	if err != nil {
		return err
	}

	size, err := fsutil.DirSize(pos[0], unit)
	if err != nil {
		return err
	}
	bytes := uint64(size * unit.Divisor())
	fmt.Fprintf(out, "%s %s (%s)\n", strconv.FormatFloat(size, 'f', -1, 64), unit, humanize.IBytes(bytes))
	return nil
}

func runAuxPath(_ context.Context, args []string, out io.Writer) error {
	fs := flags("aux-path", out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 1, "<path>")
	if err != nil {
		return err
	}
	aux, err := fsutil.AuxPath(pos[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(out, aux)
	return nil
}

func runHostFilename(_ context.Context, args []string, out io.Writer) error {
	fs := flags("host-filename", out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Fprintln(out, fsutil.HostDateFilename())
	return nil
}

func runBeta(_ context.Context, args []string, out io.Writer) error {
	fs := flags("beta", out)
	a := fs.Float64("a", 0, "first shape parameter")
	b := fs.Float64("b", 0, "second shape parameter")
	mode := fs.Float64("mode", 0, "mode in [0, 1]")
	k := fs.Float64("concentration", 0, "concentration a+b")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case fs.Changed("mode") && fs.Changed("concentration"):
		ra, rb := stats.BetaABFromModeConcentration(*mode, *k)
		fmt.Fprintf(out, "a=%g b=%g\n", ra, rb)
	case fs.Changed("a") && fs.Changed("b"):
		rm, rk, err := stats.BetaModeConcentrationFromAB(*a, *b)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "mode=%g concentration=%g\n", rm, rk)
	default:
		return stats.ErrMissingBetaParams
	}
	return nil
}

func runGamma(_ context.Context, args []string, out io.Writer) error {
	fs := flags("gamma", out)
	mode := fs.Float64("mode", 0, "mode of the distribution")
	sd := fs.Float64("sd", 0, "standard deviation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	shape, rate, err := stats.GammaShapeRateFromModeSD(*mode, *sd)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "shape=%g rate=%g\n", shape, rate)
	return nil
}

func runPlot(_ context.Context, args []string, out io.Writer) error {
	fs := flags("plot", out)
	output := fs.StringP("output", "o", "", "image file; format follows the extension")
	a := fs.Float64("a", 0, "beta a")
	b := fs.Float64("b", 0, "beta b")
	mode := fs.Float64("mode", 0, "beta or gamma mode")
	k := fs.Float64("concentration", 0, "beta concentration")
	sd := fs.Float64("sd", 0, "gamma standard deviation")
	scale := fs.Float64("scale", 1, "half-Cauchy scale")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 1, "<beta|gamma|halfcauchy>")
	if err != nil {
		return err
	}
	if *output == "" {
		*output = pos[0] + ".pdf"
	}

	switch pos[0] {
	case "beta":
		err = stats.PlotBeta(*output, stats.BetaSpec{A: *a, B: *b, Mode: *mode, Concentration: *k})
	case "gamma":
		err = stats.PlotGamma(*output, *mode, *sd)
	case "halfcauchy":
		err = stats.PlotHalfCauchy(*output, *scale)
	default:
		return fmt.Errorf("%w: unknown distribution %q", errUsage, pos[0])
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, *output)
	return nil
}

func runGPU(_ context.Context, args []string, out io.Writer) error {
	fs := flags("gpu", out)
	all := fs.Bool("all", false, "list every device")
	if err := fs.Parse(args); err != nil {
		return err
	}

	devices, err := gpu.Devices(gpu.NVML{})
	if err != nil {
		return err
	}
	if *all {
		for _, d := range devices {
			fmt.Fprintf(out, "%d\t%s free\n", d.Index, humanize.IBytes(uint64(d.FreeMB*1024*1024)))
		}
		return nil
	}
	best, err := gpu.MostFree(devices)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, best)
	return nil
}

func runGitCommit(ctx context.Context, args []string, out io.Writer) error {
	fs := flags("git-commit", out)
	msg := fs.StringP("message", "m", external.DefaultGitErrorMessage, "printed when the directory is not a repository")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := "."
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	fmt.Fprintln(out, external.GitCommit(ctx, path, *msg))
	return nil
}

func runSVG2PDF(ctx context.Context, args []string, out io.Writer) error {
	fs := flags("svg2pdf", out)
	if err := fs.Parse(args); err != nil {
		return err
	}
	pos, err := positional(fs, 2, "<in.svg> <out.pdf>")
	if err != nil {
		return err
	}
	if _, err := os.Stat(pos[0]); err != nil {
		return err
	}
	return external.SVGToPDF(ctx, pos[0], pos[1])
}
