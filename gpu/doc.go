// Package gpu picks the compute device with the most free memory.
//
// Device memory is read through a Telemetry implementation. NVML talks to
// the NVIDIA management library; tests and hosts without GPUs can plug in
// their own Telemetry.
package gpu
