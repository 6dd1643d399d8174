package hdf5io

// #cgo LDFLAGS: -lhdf5
// #cgo darwin CFLAGS: -I/usr/local/include
// #cgo darwin LDFLAGS: -L/usr/local/lib
// #cgo linux,!arm64 CFLAGS: -I/usr/local/include -I/usr/lib/x86_64-linux-gnu/hdf5/serial/include
// #cgo linux,!arm64 LDFLAGS: -L/usr/local/lib -L/usr/lib/x86_64-linux-gnu/hdf5/serial/
// #cgo linux,arm64 CFLAGS: -I/usr/local/include -I/usr/lib/aarch64-linux-gnu/hdf5/serial/include
// #cgo linux,arm64 LDFLAGS: -L/usr/local/lib -L/usr/lib/aarch64-linux-gnu/hdf5/serial/
// #include <stdlib.h>
// #include "hdf5.h"
//
// static herr_t write_vlen_str(hid_t dset, hid_t mtype, hid_t mspace, hid_t fspace, const char *s) {
// 	return H5Dwrite(dset, mtype, mspace, fspace, H5P_DEFAULT, &s);
// }
//
// static herr_t read_vlen_str(hid_t dset, hid_t mtype, hid_t mspace, hid_t fspace, char **s) {
// 	return H5Dread(dset, mtype, mspace, fspace, H5P_DEFAULT, s);
// }
import "C"

import (
	"errors"
	"unsafe"

	"gonum.org/v1/hdf5"
)

var (
	errVlenWrite = errors.New("H5Dwrite of variable-length string failed")
	errVlenRead  = errors.New("H5Dread of variable-length string failed")
)

// writeVlenString writes s into the selection of fspace. Variable-length
// strings travel as a char* per element, so s is copied into C memory first.
func writeVlenString(dset *hdf5.Dataset, mem, fspace *hdf5.Dataspace, s string) error {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))

	rc := C.write_vlen_str(C.hid_t(dset.ID()), C.hid_t(hdf5.T_GO_STRING.ID()),
		C.hid_t(mem.ID()), C.hid_t(fspace.ID()), cs)
	if rc < 0 {
		return errVlenWrite
	}
	return nil
}

// readVlenString reads the single element selected in fspace. HDF5
// allocates the returned char*, which is released after copying.
func readVlenString(dset *hdf5.Dataset, mem, fspace *hdf5.Dataspace) (string, error) {
	var cs *C.char
	rc := C.read_vlen_str(C.hid_t(dset.ID()), C.hid_t(hdf5.T_GO_STRING.ID()),
		C.hid_t(mem.ID()), C.hid_t(fspace.ID()), &cs)
	if rc < 0 {
		return "", errVlenRead
	}
	if cs == nil {
		return "", nil
	}
	defer C.H5free_memory(unsafe.Pointer(cs))
	return C.GoString(cs), nil
}
