package combine

import (
	"errors"
	"sync"
)

// ErrFallbackToCPU indicates the accelerator cannot handle this combine.
// The caller transparently runs the CPU kernel instead.
var ErrFallbackToCPU = errors.New("combine: falling back to CPU")

// CombineJob is a validated combine handed to an accelerator.
// Sources are in FormatInfo.Channels order; Planes are the destination
// planes in plane order. Both are borrowed for the duration of the call.
type CombineJob struct {
	Format  Format
	Shape   Shape
	Sources []*Plane
	Planes  []*Plane
}

// GPUAccelerator is an optional accelerated combine provider.
//
// When registered via RegisterAccelerator, ChannelCombine.Execute tries the
// accelerator first. If it returns ErrFallbackToCPU or any other error, the
// CPU kernel runs instead; an accelerator must therefore either write every
// destination byte or return an error before writing.
//
// Users opt in through a blank import:
//
//	import _ "github.com/gogpu/combine/gpu" // enables GPU acceleration
type GPUAccelerator interface {
	// Name returns the accelerator name (e.g., "wgpu").
	Name() string

	// Init initializes device resources. Called once during registration.
	Init() error

	// Close releases device resources.
	Close()

	// CanAccelerate reports whether the accelerator handles the format.
	CanAccelerate(format Format) bool

	// Combine writes the combined planes of job.
	// Returns ErrFallbackToCPU if the job cannot be accelerated.
	Combine(job CombineJob) error
}

// DeviceProviderAware is an optional interface for accelerators that can
// share a GPU device with an external provider.
type DeviceProviderAware interface {
	SetDeviceProvider(provider any) error
}

var (
	accelMu sync.RWMutex
	accel   GPUAccelerator
)

// RegisterAccelerator registers an accelerator for ChannelCombine.Execute.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called during registration and a failing Init
// leaves the previous registration in place.
func RegisterAccelerator(a GPUAccelerator) error {
	if a == nil {
		return errors.New("combine: accelerator must not be nil")
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	Logger().Info("combine: accelerator registered", "name", a.Name())
	return nil
}

// Accelerator returns the registered accelerator, or nil if none.
func Accelerator() GPUAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}

// SetAcceleratorDeviceProvider passes a device provider to the registered
// accelerator. It is a no-op when no accelerator is registered or the
// accelerator does not share devices.
func SetAcceleratorDeviceProvider(provider any) error {
	a := Accelerator()
	if a == nil {
		return nil
	}
	if dpa, ok := a.(DeviceProviderAware); ok {
		return dpa.SetDeviceProvider(provider)
	}
	return nil
}
