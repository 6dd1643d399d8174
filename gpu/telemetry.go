package gpu

import "fmt"

// Telemetry reads per-device memory from a hardware vendor interface.
type Telemetry interface {
	// Init must be called before any query.
	Init() error
	// Shutdown releases the interface.
	Shutdown() error
	DeviceCount() (int, error)
	// FreeMemory reports free memory of the device in bytes.
	FreeMemory(index int) (uint64, error)
}

// Device is a snapshot of one device's free memory.
type Device struct {
	Index  int     `json:"index"`
	FreeMB float64 `json:"free_mb"`
}

const mebibyte = 1024 * 1024

// Devices initialises t, reads free memory of every device and shuts t down.
func Devices(t Telemetry) (devices []Device, err error) {
	if err := t.Init(); err != nil {
		return nil, err
	}
	defer func() {
		if serr := t.Shutdown(); serr != nil && err == nil {
			err = fmt.Errorf("gpu: shutdown: %w", serr)
		}
	}()

	n, err := t.DeviceCount()
	if err != nil {
		return nil, fmt.Errorf("gpu: device count: %w", err)
	}

	devices = make([]Device, 0, n)
	for i := 0; i < n; i++ {
		free, err := t.FreeMemory(i)
		if err != nil {
			return nil, fmt.Errorf("gpu: memory info of device %d: %w", i, err)
		}
		devices = append(devices, Device{Index: i, FreeMB: float64(free) / mebibyte})
	}
	return devices, nil
}

// LeastBusy returns the index of the device with the most free memory.
// Ties go to the lowest index.
func LeastBusy(t Telemetry) (int, error) {
	devices, err := Devices(t)
	if err != nil {
		return -1, err
	}
	return MostFree(devices)
}

// MostFree picks the index of the device with the most free memory from a
// snapshot taken by Devices.
func MostFree(devices []Device) (int, error) {
	if len(devices) == 0 {
		return -1, ErrNoDevices
	}

	best := devices[0]
	for _, d := range devices[1:] {
		if d.FreeMB > best.FreeMB {
			best = d
		}
	}
	return best.Index, nil
}
