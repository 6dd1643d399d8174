// Package fsutil holds small filesystem helpers.
package fsutil

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Unit selects the scale DirSize reports in.
type Unit int

const (
	Bytes Unit = iota
	Kilobytes
	Megabytes
	Gigabytes
)

// ErrUnknownUnit is returned by ParseUnit.
var ErrUnknownUnit = errors.New("fsutil: unknown unit")

func (u Unit) String() string {
	switch u {
	case Bytes:
		return "B"
	case Kilobytes:
		return "KB"
	case Megabytes:
		return "MB"
	case Gigabytes:
		return "GB"
	}
	return fmt.Sprintf("Unit(%d)", int(u))
}

// Divisor is the number of bytes in one u.
func (u Unit) Divisor() float64 {
	d := 1.0
	for i := Bytes; i < u; i++ {
		d *= 1024
	}
	return d
}

// ParseUnit accepts "b", "kb", "mb", "gb" and their long forms, any case.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "b", "byte", "bytes":
		return Bytes, nil
	case "k", "kb", "kilobyte", "kilobytes":
		return Kilobytes, nil
	case "m", "mb", "megabyte", "megabytes":
		return Megabytes, nil
	case "g", "gb", "gigabyte", "gigabytes":
		return Gigabytes, nil
	}
	return Bytes, fmt.Errorf("%w: %q", ErrUnknownUnit, s)
}

// AuxPath returns a path next to path that does not exist yet, built by
// prefixing the base name with underscores: dir/_name, dir/__name, ...
// Any stat failure other than a missing candidate is returned.
func AuxPath(path string) (string, error) {
	dir, name := filepath.Split(path)
	for {
		name = "_" + name
		candidate := filepath.Join(dir, name)
		_, err := os.Lstat(candidate)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return candidate, nil
		case err != nil:
			return "", fmt.Errorf("aux path for %s: %w", path, err)
		}
	}
}

// DirSize sums the sizes of every non-directory entry below root and scales
// the total to unit. Symbolic links count with their own size.
func DirSize(root string, unit Unit) (float64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("size of %s: %w", root, err)
	}
	return float64(total) / unit.Divisor(), nil
}

// HostDateFilename returns "<hostname>_<date>_<pid>", usable as a unique
// per-run file name.
func HostDateFilename() string {
	return hostDateFilename(time.Now())
}

func hostDateFilename(now time.Time) string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s_%s_%d", host, now.Format("Mon_2006-01-02_15:04:05"), os.Getpid())
}
