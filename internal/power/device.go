/*
PURPOSE:
  NVML-backed GPU device handle for power/utilization sampling.

REQUIREMENTS:
  User-specified:
  - Sample instantaneous power (W), GPU utilization (%), and memory
    used/total (bytes) for one device.

  Implementation-discovered:
  - NVML is process-wide state. Open/Close make the lifecycle an explicit
    scoped acquisition: Open initializes the library and resolves the
    handle, Close always shuts the library down, and Open releases on its
    own failure paths.

ARCHITECTURE INTEGRATION:
  - Called by: internal/power/recorder.go, internal/cli
  - Dependencies: github.com/NVIDIA/go-nvml

ERROR HANDLING:
  - Open fails when NVML cannot initialize or the device index is invalid.
  - Sample surfaces per-reading NVML errors; the recorder decides whether
    to tolerate them.

IMPLEMENTATION RULES:
  - Close is best-effort; NVML shutdown failures must not crash callers.
  - Everything above the Sampler interface stays hardware-free so tests
    can use a fake.

USAGE:
  dev, err := power.Open(0)
  defer dev.Close()
  sample, err := dev.Sample()

RELATED FILES:
  - internal/power/recorder.go

MAINTENANCE:
  - Update if multi-GPU aggregation is needed.
*/

package power

import (
	"fmt"
	"time"

	"github.com/NVIDIA/go-nvml/pkg/nvml"

	"github.com/chuyishang/inference-energy/internal/model"
)

// Sampler captures one timestamped device reading per call.
type Sampler interface {
	Sample() (model.PowerSample, error)
}

// Device is an acquired NVML device handle.
type Device struct {
	handle nvml.Device
	index  int
	closed bool
}

// Open initializes NVML and resolves the handle for the given device index.
// The caller owns the returned Device and must Close it; Open itself shuts
// NVML down again if handle resolution fails.
func Open(index int) (*Device, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml init: %s", nvml.ErrorString(ret))
	}

	handle, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		_ = nvml.Shutdown()
		return nil, fmt.Errorf("nvml device %d: %s", index, nvml.ErrorString(ret))
	}

	return &Device{handle: handle, index: index}, nil
}

// Sample captures a single power/utilization reading.
func (d *Device) Sample() (model.PowerSample, error) {
	now := time.Now()

	milliwatts, ret := d.handle.GetPowerUsage()
	if ret != nvml.SUCCESS {
		return model.PowerSample{}, fmt.Errorf("nvml power usage: %s", nvml.ErrorString(ret))
	}

	util, ret := d.handle.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return model.PowerSample{}, fmt.Errorf("nvml utilization: %s", nvml.ErrorString(ret))
	}

	mem, ret := d.handle.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return model.PowerSample{}, fmt.Errorf("nvml memory info: %s", nvml.ErrorString(ret))
	}

	return model.PowerSample{
		Timestamp:      now,
		PowerW:         float64(milliwatts) / 1000.0,
		GPUUtilPercent: float64(util.Gpu),
		MemUsedBytes:   model.Bytes(mem.Used),
		MemTotalBytes:  model.Bytes(mem.Total),
	}, nil
}

// Close releases NVML. Safe to call more than once; shutdown failures are
// swallowed so cleanup never crashes callers.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	_ = nvml.Shutdown()
	return nil
}
