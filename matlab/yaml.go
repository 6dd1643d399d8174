package matlab

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultOutput is the file MatrixToYAML writes when none is given.
	DefaultOutput = "output.yaml"
	// DefaultWidth is the line width MatrixToYAML wraps at.
	DefaultWidth = 200
)

// MatrixToYAML reads variable from the MAT-file at input and writes every row
// of it to output as a YAML flow sequence item, so the file can be pasted
// under a key of a YAML document:
//
//	- [1.0, 2.0, 3.0]
//	- [4.0, 5.0, 6.0]
//
// An empty output means DefaultOutput; width <= 0 means DefaultWidth.
func MatrixToYAML(input, variable, output string, width int) error {
	if output == "" {
		output = DefaultOutput
	}
	if width <= 0 {
		width = DefaultWidth
	}

	m, err := ReadMatrixFile(input, variable)
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := WriteRows(f, m.RowSlices(), width); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", output, err)
	}
	return f.Close()
}

// WriteRows writes each row as "- [a, b, ...]". Rows longer than width are
// continued on lines indented by two spaces; width <= 0 disables wrapping.
func WriteRows(w io.Writer, rows [][]float64, width int) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		items := make([]string, len(row))
		for i, v := range row {
			s, err := scalar(v)
			if err != nil {
				return err
			}
			items[i] = s
		}
		if _, err := bw.WriteString(flowLine(items, width)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func flowLine(items []string, width int) string {
	var sb strings.Builder
	sb.WriteString("- [")
	col := sb.Len()

	for i, it := range items {
		if i > 0 {
			sb.WriteByte(',')
			col++
			if width > 0 && col+1+len(it)+1 > width {
				sb.WriteString("\n  ")
				col = 2
			} else {
				sb.WriteByte(' ')
				col++
			}
		}
		sb.WriteString(it)
		col += len(it)
	}
	sb.WriteString("]\n")
	return sb.String()
}

// scalar renders v as a YAML float so integral values keep their type.
func scalar(v float64) (string, error) {
	var text string
	switch {
	case math.IsNaN(v):
		text = ".nan"
	case math.IsInf(v, 1):
		text = ".inf"
	case math.IsInf(v, -1):
		text = "-.inf"
	default:
		text = strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(text, ".e") {
			text += ".0"
		}
	}

	out, err := yaml.Marshal(&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: text})
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(string(out), "\n"), nil
}
