package main

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/klauspost/compress/zstd"
	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"

	"github.com/gogpu/combine"
)

// loadChannel decodes an image file into an 8-bit single-channel plane.
// Colour images are reduced to luminance by the standard gray conversion.
func loadChannel(path string) (*combine.Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return grayPlane(img), nil
}

// grayPlane converts img into a tightly packed channel plane.
func grayPlane(img image.Image) *combine.Plane {
	b := img.Bounds()
	gray, ok := img.(*image.Gray)
	if !ok || gray.Stride != b.Dx() || b.Min != (image.Point{}) {
		gray = image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
		xdraw.Copy(gray, image.Point{}, img, b, xdraw.Src, nil)
	}
	return &combine.Plane{
		Data:        gray.Pix,
		Width:       b.Dx(),
		Height:      b.Dy(),
		Stride:      gray.Stride,
		ElementSize: 1,
	}
}

// padSources extends every source to the smallest shape format accepts.
// All sources must share the shape of source 0; padding never hides a
// mismatch between them.
func padSources(sources []*combine.Plane, format combine.Format) ([]*combine.Plane, error) {
	base := combine.Shape{Width: sources[0].Width, Height: sources[0].Height}
	shape := combine.AdjustShape(base, format)
	out := make([]*combine.Plane, len(sources))
	for i, src := range sources {
		if src.Width != base.Width || src.Height != base.Height {
			return nil, fmt.Errorf("%w: source %d is %dx%d, source 0 is %v",
				combine.ErrShapeMismatch, i, src.Width, src.Height, base)
		}
		out[i] = padChannel(src, shape)
	}
	return out, nil
}

// padChannel returns src extended to shape by replicating its last column
// and row. src is returned unchanged when it already has that shape or is
// larger than shape in either dimension; padding never crops.
func padChannel(src *combine.Plane, shape combine.Shape) *combine.Plane {
	if src.Width > shape.Width || src.Height > shape.Height ||
		src.Width == shape.Width && src.Height == shape.Height {
		return src
	}
	out, err := combine.NewChannel(shape.Width, shape.Height)
	if err != nil {
		return src
	}
	for y := range shape.Height {
		s := src.Row(min(y, src.Height-1))
		d := out.Row(y)
		copy(d, s)
		for x := len(s); x < len(d); x++ {
			d[x] = s[len(s)-1]
		}
	}
	return out
}

// writeFrame writes every plane of img, tightly packed, to path and returns
// the number of uncompressed bytes written.
func writeFrame(path string, img *combine.MultiImage, compress bool) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	bw := bufio.NewWriter(f)
	var w io.Writer = bw
	var enc *zstd.Encoder
	if compress {
		enc, err = zstd.NewWriter(bw)
		if err != nil {
			return 0, err
		}
		w = enc
	}

	for i := range img.PlaneCount() {
		p := img.Plane(i)
		for y := range p.Height {
			m, err := w.Write(p.Row(y))
			n += m
			if err != nil {
				return n, err
			}
		}
	}
	if enc != nil {
		if err := enc.Close(); err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
