package hdf5io

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

func newFile(t *testing.T) *hdf5.File {
	t.Helper()
	f, err := hdf5.CreateFile(filepath.Join(t.TempDir(), "strings.h5"), hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestWriteStrings_RoundTrip(t *testing.T) {
	f := newFile(t)
	want := []string{"alpha", "", "a longer string with spaces", "ünïcödé"}

	require.NoError(t, WriteStrings(f, "labels", want))

	got, err := ReadStrings(f, "labels")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteStrings_ManyLongValues(t *testing.T) {
	f := newFile(t)

	want := make([]string, 200)
	for i := range want {
		want[i] = fmt.Sprintf("sample-%03d/%s", i, strings.Repeat("x", i%37))
	}
	require.NoError(t, WriteStrings(f, "samples", want))
	require.NoError(t, f.Flush(hdf5.F_SCOPE_GLOBAL))

	got, err := ReadStrings(f, "samples")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteStrings_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.h5")
	want := []string{"persisted across close", ""}

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	require.NoError(t, WriteStrings(f, "g/labels", want))
	require.NoError(t, f.Close())

	f, err = hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	require.NoError(t, err)
	defer f.Close()

	got, err := ReadStrings(f, "g/labels")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWriteStrings_NestedPath(t *testing.T) {
	f := newFile(t)

	require.NoError(t, WriteStrings(f, "/run/meta/names", []string{"x", "y"}))
	require.NoError(t, WriteStrings(f, "run/meta/other", []string{"z"}))

	assert.True(t, f.LinkExists("run"))
	got, err := ReadStrings(f, "run/meta/names")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)
}

func TestWriteStrings_Errors(t *testing.T) {
	f := newFile(t)

	assert.Error(t, WriteStrings(f, "", []string{"x"}))

	require.NoError(t, WriteStrings(f, "dup", []string{"x"}))
	assert.Error(t, WriteStrings(f, "dup", []string{"y"}))
}
