package combine

import (
	"errors"

	"github.com/google/uuid"

	"github.com/gogpu/combine/internal/parallel"
)

// State is the lifecycle state of a ChannelCombine.
type State uint8

const (
	// StateUnconfigured is the state of a new ChannelCombine, and of one whose
	// Configure failed.
	StateUnconfigured State = iota

	// StateConfigured means buffers are bound and Execute may run any number of times.
	StateConfigured
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	default:
		return "unknown"
	}
}

// ChannelCombine combines single-channel sources into a multi-plane image.
//
// Use is two-phase: Configure validates and binds the buffers once, Execute
// then writes the destination as many times as needed (for example after the
// caller refreshes the source contents). Binding different buffers requires a
// new ChannelCombine.
//
// A ChannelCombine is not safe for concurrent use. Different instances may
// share source planes; they must not share destination planes while executing.
type ChannelCombine struct {
	id         uuid.UUID
	opts       options
	state      State
	job        CombineJob
	kernel     softwareKernel
	ownPool    *parallel.WorkerPool
	executions int
}

// NewChannelCombine creates an unconfigured ChannelCombine.
func NewChannelCombine(opts ...Option) *ChannelCombine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ChannelCombine{
		id:   uuid.New(),
		opts: o,
	}
}

// ID returns the identifier attached to this instance's log records.
func (c *ChannelCombine) ID() uuid.UUID { return c.id }

// State returns the lifecycle state.
func (c *ChannelCombine) State() State { return c.state }

// Executions returns how many times Execute has completed.
func (c *ChannelCombine) Executions() int { return c.executions }

// Format returns the configured format. Only meaningful once configured.
func (c *ChannelCombine) Format() Format { return c.job.Format }

// Shape returns the configured image shape. Only meaningful once configured.
func (c *ChannelCombine) Shape() Shape { return c.job.Shape }

// Configure validates sources and dst against format and binds them.
//
// sources must be in the order FormatInfo.Channels lists: R, G, B (and A for
// RGBA8888), or Y, U, V. On failure the returned error is a *ConfigError (or
// ErrAlreadyConfigured), nothing is written to dst and the instance stays
// unconfigured.
func (c *ChannelCombine) Configure(sources []*Plane, format Format, dst Destination) error {
	if c.state != StateUnconfigured {
		return ErrAlreadyConfigured
	}

	planes, err := validate(sources, format, dst)
	if err != nil {
		Logger().Debug("combine: configure rejected", "id", c.id, "format", format, "err", err)
		return err
	}

	c.job = CombineJob{
		Format:  format,
		Shape:   Shape{Width: sources[0].Width, Height: sources[0].Height},
		Sources: append([]*Plane(nil), sources...),
		Planes:  planes,
	}
	c.kernel = softwareKernel{pool: c.pool(), bandRows: c.opts.bandRows}
	c.state = StateConfigured

	Logger().Debug("combine: configured",
		"id", c.id, "format", format, "shape", c.job.Shape, "planes", len(planes))
	return nil
}

func (c *ChannelCombine) pool() *parallel.WorkerPool {
	switch {
	case c.opts.workers == 1:
		return nil
	case c.opts.workers > 1:
		if c.ownPool == nil {
			c.ownPool = parallel.NewWorkerPool(c.opts.workers)
		}
		return c.ownPool
	default:
		return defaultPool()
	}
}

// Execute writes the combined image into the bound destination.
//
// It returns ErrNotConfigured before a successful Configure and nil
// otherwise: execution performs no data-dependent checks. If an accelerator
// is registered it is tried first; any accelerator error falls back to the
// CPU kernel.
func (c *ChannelCombine) Execute() error {
	if c.state != StateConfigured {
		return ErrNotConfigured
	}

	backend := "cpu"
	if c.opts.accelerate {
		if a := Accelerator(); a != nil && a.CanAccelerate(c.job.Format) {
			err := a.Combine(c.job)
			switch {
			case err == nil:
				backend = a.Name()
			case errors.Is(err, ErrFallbackToCPU):
				Logger().Debug("combine: accelerator declined", "id", c.id, "accelerator", a.Name())
			default:
				Logger().Warn("combine: accelerator failed, using CPU", "id", c.id, "accelerator", a.Name(), "err", err)
			}
		}
	}
	if backend == "cpu" {
		c.kernel.run(c.job)
	}

	c.executions++
	Logger().Debug("combine: executed",
		"id", c.id, "format", c.job.Format, "shape", c.job.Shape, "backend", backend, "executions", c.executions)
	return nil
}

// Close releases the instance's own worker pool, if WithWorkers created one.
// The bound buffers are not touched. Close is safe to call multiple times;
// Execute after Close still works, running bands on the calling goroutine.
func (c *ChannelCombine) Close() {
	if c.ownPool != nil {
		c.ownPool.Close()
	}
}

// Combine configures a new ChannelCombine and executes it once.
func Combine(sources []*Plane, format Format, dst Destination, opts ...Option) error {
	fn := NewChannelCombine(opts...)
	defer fn.Close()
	if err := fn.Configure(sources, format, dst); err != nil {
		return err
	}
	return fn.Execute()
}
