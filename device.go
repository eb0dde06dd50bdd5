package ggedit

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/ggedit/internal/gpucore"
	"github.com/gogpu/ggedit/internal/halgpu"
	"github.com/gogpu/ggedit/internal/soft"
)

// Device is the GPU abstraction the renderer draws on.
type Device = gpucore.Device

// NewSoftwareDevice returns the CPU device. memoryLimit caps texture
// memory in bytes; zero means no limit.
func NewSoftwareDevice(memoryLimit int) Device {
	if memoryLimit > 0 {
		return soft.New(soft.WithMemoryLimit(memoryLimit))
	}
	return soft.New()
}

// NewGPUDevice opens a standalone GPU device.
func NewGPUDevice() (Device, error) {
	dev, err := halgpu.NewStandalone()
	if err != nil {
		return nil, err
	}
	return dev, nil
}

// NewSharedGPUDevice renders on the GPU device of a host application.
// The provider must expose its hal device and queue.
func NewSharedGPUDevice(provider gpucontext.DeviceProvider) (Device, error) {
	dev, err := halgpu.NewFromProvider(provider)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

func newDevice(cfg Config) (Device, error) {
	if cfg.Backend == BackendGPU {
		dev, err := NewGPUDevice()
		if err != nil {
			return nil, err
		}
		Logger().Info("ggedit: using GPU device", "device", dev.Name())
		return dev, nil
	}
	return NewSoftwareDevice(cfg.MemoryLimit), nil
}
