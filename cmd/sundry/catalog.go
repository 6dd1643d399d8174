package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/skekre98/sundry/hierarchy"
)

type command struct {
	group   string
	summary string
	run     func(ctx context.Context, args []string, out io.Writer) error
}

// Command groups are abstract types in the catalog; every command is a
// concrete subtype of its group.
const (
	rootGroup  = "command"
	dataGroup  = "data"
	filesGroup = "files"
	statsGroup = "stats"
	toolsGroup = "tools"
)

var commands = map[string]command{
	"merge":         {dataGroup, "deep-merge YAML files, later files win", runMerge},
	"mat2yaml":      {dataGroup, "convert a MAT-file matrix to YAML rows", runMat2YAML},
	"h5-strings":    {dataGroup, "write or read an HDF5 string dataset", runH5Strings},
	"rotate":        {dataGroup, "rotate a sampled signal in the plane", runRotate},
	"dirsize":       {filesGroup, "total size of a directory tree", runDirSize},
	"aux-path":      {filesGroup, "first free underscore-prefixed sibling path", runAuxPath},
	"host-filename": {filesGroup, "host, date and pid based file name", runHostFilename},
	"beta":          {statsGroup, "convert between beta (a, b) and (mode, concentration)", runBeta},
	"gamma":         {statsGroup, "gamma shape and rate from mode and sd", runGamma},
	"plot":          {statsGroup, "plot a beta, gamma or half-Cauchy density", runPlot},
	"gpu":           {toolsGroup, "index of the GPU with the most free memory", runGPU},
	"git-commit":    {toolsGroup, "commit checked out in a directory", runGitCommit},
	"svg2pdf":       {toolsGroup, "convert SVG to PDF with Inkscape", runSVG2PDF},
	"serve":         {rootGroup, "run the HTTP service", runServe},
}

// catalog builds the command hierarchy used by help.
func catalog() *hierarchy.Registry {
	reg := hierarchy.NewRegistry()
	reg.MustRegister(rootGroup, true)
	for _, g := range []string{dataGroup, filesGroup, statsGroup, toolsGroup} {
		reg.MustRegister(g, true, rootGroup)
	}

	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		reg.MustRegister(n, false, commands[n].group)
	}
	return reg
}

// usage lists the commands below topic, a group or a command name.
func usage(out io.Writer, topic string) error {
	if topic == "" {
		topic = rootGroup
	}
	names, err := catalog().Concrete(topic)
	if err != nil {
		return fmt.Errorf("help %s: %w", topic, err)
	}

	fmt.Fprintln(out, "usage: sundry <command> [flags]")
	fmt.Fprintln(out)
	for _, n := range names {
		fmt.Fprintf(out, "  %-14s %s\n", n, commands[n].summary)
	}
	return nil
}
