package combine

import (
	"errors"
	"fmt"
	"math"
)

// Buffer errors.
var (
	// ErrInvalidDimensions is returned when width or height is non-positive.
	ErrInvalidDimensions = errors.New("combine: invalid dimensions")

	// ErrInvalidStride is returned when stride is less than minimum required.
	ErrInvalidStride = errors.New("combine: stride too small for width")

	// ErrDataTooSmall is returned when provided data is smaller than required.
	ErrDataTooSmall = errors.New("combine: data buffer too small")
)

// Plane is a 2D byte buffer with its own row stride.
//
// Width and Height count plane elements; an element is ElementSize bytes.
// Source channels are planes with ElementSize 1. The package never retains
// or reallocates Data; callers own it.
type Plane struct {
	Data        []byte
	Width       int
	Height      int
	Stride      int // bytes per row, including padding
	ElementSize int // bytes per element; 0 is treated as 1
}

// NewPlane allocates a tightly packed plane.
func NewPlane(width, height, elementSize int) (*Plane, error) {
	if width <= 0 || height <= 0 || elementSize <= 0 || width > math.MaxInt/elementSize/height {
		return nil, ErrInvalidDimensions
	}
	stride := width * elementSize
	return &Plane{
		Data:        make([]byte, stride*height),
		Width:       width,
		Height:      height,
		Stride:      stride,
		ElementSize: elementSize,
	}, nil
}

// NewPlaneWithStride allocates a plane with a custom row stride.
// Stride must be at least width*elementSize.
func NewPlaneWithStride(width, height, elementSize, stride int) (*Plane, error) {
	if width <= 0 || height <= 0 || elementSize <= 0 || width > math.MaxInt/elementSize {
		return nil, ErrInvalidDimensions
	}
	if stride < width*elementSize {
		return nil, ErrInvalidStride
	}
	if stride > math.MaxInt/height {
		return nil, ErrInvalidDimensions
	}
	return &Plane{
		Data:        make([]byte, stride*height),
		Width:       width,
		Height:      height,
		Stride:      stride,
		ElementSize: elementSize,
	}, nil
}

// PlaneFromRaw wraps existing data without copying.
// The caller must ensure data remains valid while the plane is in use.
func PlaneFromRaw(data []byte, width, height, elementSize, stride int) (*Plane, error) {
	if width <= 0 || height <= 0 || elementSize <= 0 || width > math.MaxInt/elementSize {
		return nil, ErrInvalidDimensions
	}
	if stride < width*elementSize {
		return nil, ErrInvalidStride
	}
	if len(data)/height < stride {
		return nil, ErrDataTooSmall
	}
	return &Plane{
		Data:        data[:stride*height],
		Width:       width,
		Height:      height,
		Stride:      stride,
		ElementSize: elementSize,
	}, nil
}

// NewChannel allocates a tightly packed single-channel plane.
func NewChannel(width, height int) (*Plane, error) {
	return NewPlane(width, height, 1)
}

// ChannelFromBytes wraps a tightly packed, row-major single-channel buffer.
func ChannelFromBytes(data []byte, width, height int) (*Plane, error) {
	return PlaneFromRaw(data, width, height, 1, width)
}

func (p *Plane) elemSize() int {
	if p.ElementSize <= 0 {
		return 1
	}
	return p.ElementSize
}

// RowBytes returns the number of meaningful bytes per row.
func (p *Plane) RowBytes() int {
	return p.Width * p.elemSize()
}

// Row returns the meaningful bytes of row y.
// Returns nil if y is out of bounds.
func (p *Plane) Row(y int) []byte {
	if y < 0 || y >= p.Height {
		return nil
	}
	start := y * p.Stride
	return p.Data[start : start+p.RowBytes()]
}

// Bytes returns a tightly packed copy of the plane, padding removed.
func (p *Plane) Bytes() []byte {
	rb := p.RowBytes()
	out := make([]byte, rb*p.Height)
	for y := range p.Height {
		copy(out[y*rb:], p.Row(y))
	}
	return out
}

// Fill sets every meaningful byte of the plane to v.
func (p *Plane) Fill(v byte) {
	for y := range p.Height {
		row := p.Row(y)
		for i := range row {
			row[i] = v
		}
	}
}

// check reports whether the plane's fields describe addressable memory.
func (p *Plane) check() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, p.Width, p.Height)
	}
	if p.Width > math.MaxInt/p.elemSize() {
		return fmt.Errorf("%w: width %d overflows", ErrInvalidDimensions, p.Width)
	}
	rb := p.RowBytes()
	if p.Stride < rb {
		return fmt.Errorf("%w: stride %d < %d", ErrInvalidStride, p.Stride, rb)
	}
	// Stride*(Height-1)+rb <= len(Data), checked without multiplying.
	if len(p.Data) < rb || (len(p.Data)-rb)/p.Stride < p.Height-1 {
		return fmt.Errorf("%w: %d bytes for %d rows of stride %d", ErrDataTooSmall, len(p.Data), p.Height, p.Stride)
	}
	return nil
}

// Destination is a caller-owned multi-plane image that a combine writes into.
type Destination interface {
	// PlaneCount returns the number of planes.
	PlaneCount() int

	// Plane returns plane i, 0 <= i < PlaneCount().
	Plane(i int) *Plane
}

// MultiImage is an ordered set of planes laid out for one format and shape.
type MultiImage struct {
	format Format
	shape  Shape
	planes []*Plane
}

var _ Destination = (*MultiImage)(nil)

// NewMultiImage allocates tightly packed planes for shape and format.
func NewMultiImage(shape Shape, format Format) (*MultiImage, error) {
	return NewMultiImageWithStride(shape, format, 1)
}

// NewMultiImageWithStride allocates planes whose strides are rounded up to a
// multiple of align bytes. An align of 0 or 1 gives tight rows.
func NewMultiImageWithStride(shape Shape, format Format, align int) (*MultiImage, error) {
	geoms, err := Plan(shape, format)
	if err != nil {
		return nil, err
	}
	if align < 1 {
		align = 1
	}
	planes := make([]*Plane, len(geoms))
	for i, g := range geoms {
		stride := (g.MinStride + align - 1) / align * align
		p, err := NewPlaneWithStride(g.Width, g.Height, g.ElementSize, stride)
		if err != nil {
			return nil, err
		}
		planes[i] = p
	}
	return &MultiImage{format: format, shape: shape, planes: planes}, nil
}

// MustNewMultiImage is like NewMultiImage but panics on error.
func MustNewMultiImage(shape Shape, format Format) *MultiImage {
	img, err := NewMultiImage(shape, format)
	if err != nil {
		panic(err)
	}
	return img
}

// MultiImageFromPlanes wraps caller-allocated planes. Geometry is not checked
// here; Validate and ChannelCombine.Configure check it.
func MultiImageFromPlanes(shape Shape, format Format, planes ...*Plane) (*MultiImage, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, uint8(format))
	}
	return &MultiImage{format: format, shape: shape, planes: planes}, nil
}

// Format returns the pixel format of the image.
func (m *MultiImage) Format() Format { return m.format }

// Shape returns the logical image shape.
func (m *MultiImage) Shape() Shape { return m.shape }

// PlaneCount returns the number of planes.
func (m *MultiImage) PlaneCount() int { return len(m.planes) }

// Plane returns plane i, or nil if i is out of range.
func (m *MultiImage) Plane(i int) *Plane {
	if i < 0 || i >= len(m.planes) {
		return nil
	}
	return m.planes[i]
}

// NewSources allocates zeroed source channels for shape in the order the
// format consumes them.
func NewSources(shape Shape, format Format) ([]*Plane, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedFormat, uint8(format))
	}
	out := make([]*Plane, format.Channels())
	for i := range out {
		p, err := NewChannel(shape.Width, shape.Height)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}
