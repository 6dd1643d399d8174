package gpu

import (
	"errors"
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// NVML is a Telemetry backed by the NVIDIA Management Library.
type NVML struct{}

func (NVML) Init() error {
	ret := nvml.Init()
	switch ret {
	case nvml.SUCCESS:
		return nil
	case nvml.ERROR_LIBRARY_NOT_FOUND:
		return ErrLibraryNotFound
	default:
		return nvmlError("init", ret)
	}
}

func (NVML) Shutdown() error {
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return nvmlError("shutdown", ret)
	}
	return nil
}

func (NVML) DeviceCount() (int, error) {
	n, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("device count", ret)
	}
	return n, nil
}

func (NVML) FreeMemory(index int) (uint64, error) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return 0, nvmlError("device handle", ret)
	}
	mem, ret := dev.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return 0, nvmlError("memory info", ret)
	}
	return mem.Free, nil
}

func nvmlError(op string, ret nvml.Return) error {
	return fmt.Errorf("nvml %s: %w", op, errors.New(nvml.ErrorString(ret)))
}
