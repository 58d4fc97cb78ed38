// Package reference is a straightforward, sequential implementation of the
// channel combine rules. It exists to check faster implementations byte for
// byte and is never used on the production path.
package reference

import (
	"fmt"

	"github.com/gogpu/combine"
)

// Combine validates its inputs and writes the combined image into dst one
// sample at a time.
func Combine(sources []*combine.Plane, format combine.Format, dst combine.Destination) error {
	if err := combine.Validate(sources, format, dst); err != nil {
		return err
	}
	w, h := sources[0].Width, sources[0].Height

	switch format {
	case combine.FormatRGB888, combine.FormatRGBA8888:
		out := dst.Plane(0)
		n := len(sources)
		for y := range h {
			for x := range w {
				for k := range n {
					set(out, x*n+k, y, at(sources[k], x, y))
				}
			}
		}

	case combine.FormatYUYV422, combine.FormatUYVY422:
		out := dst.Plane(0)
		ys, us, vs := sources[0], sources[1], sources[2]
		for y := range h {
			for x := 0; x < w; x += 2 {
				y0, y1 := at(ys, x, y), at(ys, x+1, y)
				u, v := at(us, x, y), at(vs, x, y)
				quad := [4]byte{y0, u, y1, v}
				if format == combine.FormatUYVY422 {
					quad = [4]byte{u, y0, v, y1}
				}
				for k, b := range quad {
					set(out, 2*x+k, y, b)
				}
			}
		}

	case combine.FormatYUV444:
		for i := range 3 {
			copyPlane(dst.Plane(i), sources[i], w, h)
		}

	case combine.FormatIYUV:
		copyPlane(dst.Plane(0), sources[0], w, h)
		for i := 1; i < 3; i++ {
			out := dst.Plane(i)
			for cy := range h / 2 {
				for cx := range w / 2 {
					set(out, cx, cy, at(sources[i], 2*cx, 2*cy))
				}
			}
		}

	case combine.FormatNV12, combine.FormatNV21:
		copyPlane(dst.Plane(0), sources[0], w, h)
		first, second := sources[1], sources[2]
		if format == combine.FormatNV21 {
			first, second = second, first
		}
		out := dst.Plane(1)
		for cy := range h / 2 {
			for cx := range w / 2 {
				set(out, 2*cx, cy, at(first, 2*cx, 2*cy))
				set(out, 2*cx+1, cy, at(second, 2*cx, 2*cy))
			}
		}

	default:
		return fmt.Errorf("%w: %v", combine.ErrUnsupportedFormat, format)
	}
	return nil
}

// at reads byte x of row y.
func at(p *combine.Plane, x, y int) byte {
	return p.Data[y*p.Stride+x]
}

// set writes byte x of row y.
func set(p *combine.Plane, x, y int, v byte) {
	p.Data[y*p.Stride+x] = v
}

func copyPlane(dst, src *combine.Plane, w, h int) {
	for y := range h {
		for x := range w {
			set(dst, x, y, at(src, x, y))
		}
	}
}

// Equal reports whether two destinations hold the same meaningful bytes,
// ignoring row padding. It returns the first differing plane, row and byte
// column when they do not.
func Equal(a, b combine.Destination) (ok bool, plane, row, col int) {
	if a.PlaneCount() != b.PlaneCount() {
		return false, -1, -1, -1
	}
	for i := range a.PlaneCount() {
		pa, pb := a.Plane(i), b.Plane(i)
		if pa.Height != pb.Height || pa.RowBytes() != pb.RowBytes() {
			return false, i, -1, -1
		}
		for y := range pa.Height {
			ra, rb := pa.Row(y), pb.Row(y)
			for x := range ra {
				if ra[x] != rb[x] {
					return false, i, y, x
				}
			}
		}
	}
	return true, 0, 0, 0
}
