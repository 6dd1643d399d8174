// Package hdf5io writes and reads string arrays in HDF5 containers.
package hdf5io

import (
	"fmt"
	"strings"

	"gonum.org/v1/hdf5"
)

// Location is an open HDF5 file or group. Both *hdf5.File and *hdf5.Group
// satisfy it.
type Location interface {
	CreateDataset(name string, dtype *hdf5.Datatype, dspace *hdf5.Dataspace) (*hdf5.Dataset, error)
	OpenDataset(name string) (*hdf5.Dataset, error)
	CreateGroup(name string) (*hdf5.Group, error)
	OpenGroup(name string) (*hdf5.Group, error)
	LinkExists(name string) bool
}

// WriteStrings creates a one-dimensional variable-length string dataset at
// path inside loc and fills it with values. Missing intermediate groups in
// path are created.
func WriteStrings(loc Location, path string, values []string) error {
	parent, name, closeParent, err := parentGroup(loc, path)
	if err != nil {
		return err
	}
	defer closeParent()

	n := uint(len(values))
	space, err := hdf5.CreateSimpleDataspace([]uint{n}, nil)
	if err != nil {
		return fmt.Errorf("hdf5io: dataspace for %s: %w", path, err)
	}
	defer space.Close()

	dset, err := parent.CreateDataset(name, hdf5.T_GO_STRING, space)
	if err != nil {
		return fmt.Errorf("hdf5io: create %s: %w", path, err)
	}
	defer dset.Close()

	mem, err := hdf5.CreateSimpleDataspace([]uint{1}, nil)
	if err != nil {
		return err
	}
	defer mem.Close()

	for i := range values {
		if err := space.SelectHyperslab([]uint{uint(i)}, nil, []uint{1}, nil); err != nil {
			return fmt.Errorf("hdf5io: select %s[%d]: %w", path, i, err)
		}
		if err := writeVlenString(dset, mem, space, values[i]); err != nil {
			return fmt.Errorf("hdf5io: write %s[%d]: %w", path, i, err)
		}
	}
	return nil
}

// ReadStrings reads back a dataset written by WriteStrings.
func ReadStrings(loc Location, path string) ([]string, error) {
	dset, err := loc.OpenDataset(path)
	if err != nil {
		return nil, fmt.Errorf("hdf5io: open %s: %w", path, err)
	}
	defer dset.Close()

	space := dset.Space()
	defer space.Close()

	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	if len(dims) != 1 {
		return nil, fmt.Errorf("hdf5io: %s has rank %d, want 1", path, len(dims))
	}

	mem, err := hdf5.CreateSimpleDataspace([]uint{1}, nil)
	if err != nil {
		return nil, err
	}
	defer mem.Close()

	out := make([]string, dims[0])
	for i := range out {
		if err := space.SelectHyperslab([]uint{uint(i)}, nil, []uint{1}, nil); err != nil {
			return nil, err
		}
		if out[i], err = readVlenString(dset, mem, space); err != nil {
			return nil, fmt.Errorf("hdf5io: read %s[%d]: %w", path, i, err)
		}
	}
	return out, nil
}

// parentGroup walks to the group that will hold the last element of path,
// creating groups on the way.
func parentGroup(loc Location, path string) (Location, string, func(), error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	name := parts[len(parts)-1]
	if name == "" {
		return nil, "", nil, fmt.Errorf("hdf5io: empty dataset path %q", path)
	}

	var opened []*hdf5.Group
	closeAll := func() {
		for i := len(opened) - 1; i >= 0; i-- {
			_ = opened[i].Close()
		}
	}

	cur := loc
	for _, p := range parts[:len(parts)-1] {
		if p == "" {
			continue
		}
		var g *hdf5.Group
		var err error
		if cur.LinkExists(p) {
			g, err = cur.OpenGroup(p)
		} else {
			g, err = cur.CreateGroup(p)
		}
		if err != nil {
			closeAll()
			return nil, "", nil, fmt.Errorf("hdf5io: group %s in %s: %w", p, path, err)
		}
		opened = append(opened, g)
		cur = g
	}
	return cur, name, closeAll, nil
}
