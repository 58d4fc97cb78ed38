package combine

// Option configures a ChannelCombine during creation.
//
// Example:
//
//	// Default: shared worker pool, accelerator if registered
//	fn := combine.NewChannelCombine()
//
//	// Single goroutine, CPU only
//	fn := combine.NewChannelCombine(combine.WithWorkers(1), combine.WithoutAccelerator())
type Option func(*options)

// options holds optional configuration for a ChannelCombine.
type options struct {
	workers    int
	bandRows   int
	accelerate bool
}

// defaultBandRows is the minimum number of rows per parallel work item.
const defaultBandRows = 16

func defaultOptions() options {
	return options{
		workers:    0, // shared pool sized to GOMAXPROCS
		bandRows:   defaultBandRows,
		accelerate: true,
	}
}

// WithWorkers sets the number of goroutines used by the CPU kernel.
// 0 uses a package-wide pool sized to GOMAXPROCS; 1 runs on the calling
// goroutine; larger values give the ChannelCombine its own pool, released
// by Close.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n < 0 {
			n = 0
		}
		o.workers = n
	}
}

// WithBandRows sets the minimum number of destination rows per work item.
// Values below 1 are ignored.
func WithBandRows(n int) Option {
	return func(o *options) {
		if n >= 1 {
			o.bandRows = n
		}
	}
}

// WithoutAccelerator forces the CPU kernel even when an accelerator is registered.
func WithoutAccelerator() Option {
	return func(o *options) {
		o.accelerate = false
	}
}
