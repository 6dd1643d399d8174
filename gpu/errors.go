package gpu

import "errors"

var (
	// ErrLibraryNotFound is returned when the vendor telemetry library cannot
	// be loaded on this host.
	ErrLibraryNotFound = errors.New("gpu: no NVIDIA library found")

	// ErrNoDevices is returned when telemetry reports zero devices.
	ErrNoDevices = errors.New("gpu: no devices")
)
