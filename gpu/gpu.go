//go:build !nogpu

package gpu

import (
	"github.com/gogpu/combine"
	gpuimpl "github.com/gogpu/combine/internal/gpu"
)

func init() {
	accel := gpuimpl.NewCombineAccelerator(0)
	if err := combine.RegisterAccelerator(accel); err != nil {
		combine.Logger().Warn("GPU accelerator not available", "err", err)
	}
}

// SetDeviceProvider configures the accelerator to use a shared GPU device.
// The provider must be a gpucontext.DeviceProvider that also exposes
// HalDevice() any and HalQueue() any returning wgpu/hal types.
func SetDeviceProvider(provider any) error {
	return combine.SetAcceleratorDeviceProvider(provider)
}
