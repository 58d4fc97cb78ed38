package combine

import (
	"fmt"
	"math"
)

// Shape is the width and height of the logical image, in pixels.
type Shape struct {
	Width  int
	Height int
}

// String returns "WxH".
func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Pixels returns Width*Height.
func (s Shape) Pixels() int {
	return s.Width * s.Height
}

// PlaneGeometry is the required layout of one destination plane.
type PlaneGeometry struct {
	Width       int // elements per row
	Height      int // rows
	ElementSize int // bytes per element
	MinStride   int // Width*ElementSize
	Size        int // MinStride*Height
}

// Plan computes the geometry of every destination plane of format for shape.
//
// Subsampled plane dimensions are exact divisions. A shape whose width or
// height is not a multiple of the format's subsampling factor is rejected with
// ErrShapeMismatch rather than rounded, since flooring would silently drop the
// last chroma column or row.
func Plan(shape Shape, format Format) ([]PlaneGeometry, error) {
	if !format.IsValid() {
		return nil, &ConfigError{Format: format, Kind: ErrUnsupportedFormat}
	}
	if shape.Width < 1 || shape.Height < 1 {
		return nil, configErrorf(format, ErrShapeMismatch, "shape %v must be at least 1x1", shape)
	}
	// Four bytes per pixel is the widest layout.
	if shape.Width > math.MaxInt/4/shape.Height {
		return nil, configErrorf(format, ErrShapeMismatch, "shape %v is too large", shape)
	}
	fi := &formatInfoTable[format]
	if shape.Width%fi.SubsampleX != 0 {
		return nil, configErrorf(format, ErrShapeMismatch, "width %d is not a multiple of %d", shape.Width, fi.SubsampleX)
	}
	if shape.Height%fi.SubsampleY != 0 {
		return nil, configErrorf(format, ErrShapeMismatch, "height %d is not a multiple of %d", shape.Height, fi.SubsampleY)
	}

	out := make([]PlaneGeometry, len(fi.PlaneInfo))
	for i, pi := range fi.PlaneInfo {
		w := shape.Width / pi.SubsampleX
		h := shape.Height / pi.SubsampleY
		stride := w * pi.ElementSize
		out[i] = PlaneGeometry{
			Width:       w,
			Height:      h,
			ElementSize: pi.ElementSize,
			MinStride:   stride,
			Size:        stride * h,
		}
	}
	return out, nil
}

// PlanSize returns the total number of bytes of tightly packed planes.
func PlanSize(shape Shape, format Format) (int, error) {
	geoms, err := Plan(shape, format)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, g := range geoms {
		total += g.Size
	}
	return total, nil
}

// AdjustShape rounds the dimensions of shape up to the format's subsampling
// factors, giving the smallest shape Plan accepts that covers the input.
// Invalid formats return shape unchanged.
func AdjustShape(shape Shape, format Format) Shape {
	if !format.IsValid() {
		return shape
	}
	fi := &formatInfoTable[format]
	return Shape{
		Width:  roundUp(shape.Width, fi.SubsampleX),
		Height: roundUp(shape.Height, fi.SubsampleY),
	}
}

func roundUp(v, m int) int {
	if m <= 1 {
		return v
	}
	return (v + m - 1) / m * m
}
