package combine

import (
	"errors"
	"fmt"
)

// Configuration error kinds. Every *ConfigError unwraps to one of these.
var (
	// ErrUnsupportedFormat is returned for a format outside the known set.
	ErrUnsupportedFormat = errors.New("combine: unsupported format")

	// ErrChannelCountMismatch is returned when the number of bound source
	// channels differs from what the format consumes.
	ErrChannelCountMismatch = errors.New("combine: channel count mismatch")

	// ErrShapeMismatch is returned when source shapes disagree with each other
	// or the image shape violates the format's subsampling constraints.
	ErrShapeMismatch = errors.New("combine: shape mismatch")

	// ErrDestinationGeometry is returned when destination planes do not match
	// the geometry computed by Plan.
	ErrDestinationGeometry = errors.New("combine: destination geometry mismatch")

	// ErrChannelNotFound is returned by Extract for a channel the format does not carry.
	ErrChannelNotFound = errors.New("combine: channel not present in format")
)

// Lifecycle errors.
var (
	// ErrNotConfigured is returned by Execute before a successful Configure.
	ErrNotConfigured = errors.New("combine: function is not configured")

	// ErrAlreadyConfigured is returned by Configure on a configured function.
	// Binding new buffers requires a new ChannelCombine.
	ErrAlreadyConfigured = errors.New("combine: function is already configured")
)

// ConfigError reports why a combine configuration was rejected.
type ConfigError struct {
	// Format is the requested format.
	Format Format

	// Kind is one of the configuration sentinel errors.
	Kind error

	// Detail describes the offending value.
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v (%s)", e.Kind, e.Format)
	}
	return fmt.Sprintf("%v (%s): %s", e.Kind, e.Format, e.Detail)
}

// Unwrap returns the error kind so errors.Is matches the sentinels.
func (e *ConfigError) Unwrap() error {
	return e.Kind
}

func configErrorf(f Format, kind error, format string, args ...any) error {
	return &ConfigError{Format: f, Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
