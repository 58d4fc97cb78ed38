package combine

import (
	"errors"
	"strings"
	"testing"
)

// planeList is a Destination backed by a plain slice.
type planeList []*Plane

func (l planeList) PlaneCount() int    { return len(l) }
func (l planeList) Plane(i int) *Plane { return l[i] }

func TestValidateErrors(t *testing.T) {
	shape := Shape{4, 4}
	ch := func() *Plane {
		p, _ := NewChannel(shape.Width, shape.Height)
		return p
	}
	nv12 := func() *MultiImage { return MustNewMultiImage(shape, FormatNV12) }
	rgba := func() *MultiImage { return MustNewMultiImage(shape, FormatRGBA8888) }

	tests := []struct {
		name    string
		sources []*Plane
		format  Format
		dst     Destination
		want    error
	}{
		{
			name:    "unsupported format",
			sources: []*Plane{ch(), ch(), ch()},
			format:  Format(42),
			dst:     nv12(),
			want:    ErrUnsupportedFormat,
		},
		{
			name:    "RGBA with three channels",
			sources: []*Plane{ch(), ch(), ch()},
			format:  FormatRGBA8888,
			dst:     rgba(),
			want:    ErrChannelCountMismatch,
		},
		{
			name:    "RGB with four channels",
			sources: []*Plane{ch(), ch(), ch(), ch()},
			format:  FormatRGB888,
			dst:     MustNewMultiImage(shape, FormatRGB888),
			want:    ErrChannelCountMismatch,
		},
		{
			name:    "unbound channel",
			sources: []*Plane{ch(), nil, ch()},
			format:  FormatNV12,
			dst:     nv12(),
			want:    ErrChannelCountMismatch,
		},
		{
			name:    "source shapes differ",
			sources: []*Plane{ch(), ch(), {Data: make([]byte, 8), Width: 4, Height: 2, Stride: 4}},
			format:  FormatNV12,
			dst:     nv12(),
			want:    ErrShapeMismatch,
		},
		{
			name:    "source element size",
			sources: []*Plane{ch(), ch(), {Data: make([]byte, 32), Width: 4, Height: 4, Stride: 8, ElementSize: 2}},
			format:  FormatNV12,
			dst:     nv12(),
			want:    ErrShapeMismatch,
		},
		{
			name:    "source data too small",
			sources: []*Plane{ch(), ch(), {Data: make([]byte, 10), Width: 4, Height: 4, Stride: 4}},
			format:  FormatNV12,
			dst:     nv12(),
			want:    ErrShapeMismatch,
		},
		{
			name: "source height overflows data size",
			sources: []*Plane{
				{Data: make([]byte, 2), Width: 2, Height: 1<<62 + 1, Stride: 4},
				{Data: make([]byte, 2), Width: 2, Height: 1<<62 + 1, Stride: 4},
				{Data: make([]byte, 2), Width: 2, Height: 1<<62 + 1, Stride: 4},
			},
			format: FormatRGB888,
			dst:    planeList{{Data: make([]byte, 6), Width: 2, Height: 1, Stride: 6, ElementSize: 3}},
			want:   ErrShapeMismatch,
		},
		{
			name: "odd shape for subsampled format",
			sources: []*Plane{
				{Data: make([]byte, 12), Width: 3, Height: 4, Stride: 3},
				{Data: make([]byte, 12), Width: 3, Height: 4, Stride: 3},
				{Data: make([]byte, 12), Width: 3, Height: 4, Stride: 3},
			},
			format: FormatIYUV,
			dst:    planeList{},
			want:   ErrShapeMismatch,
		},
		{
			name:    "nil destination",
			sources: []*Plane{ch(), ch(), ch()},
			format:  FormatNV12,
			dst:     nil,
			want:    ErrDestinationGeometry,
		},
		{
			name:    "wrong plane count",
			sources: []*Plane{ch(), ch(), ch()},
			format:  FormatNV12,
			dst:     MustNewMultiImage(shape, FormatIYUV),
			want:    ErrDestinationGeometry,
		},
		{
			name:    "chroma plane at full resolution",
			sources: []*Plane{ch(), ch(), ch()},
			format:  FormatNV12,
			dst:     planeList{ch(), {Data: make([]byte, 32), Width: 4, Height: 4, Stride: 8, ElementSize: 2}},
			want:    ErrDestinationGeometry,
		},
		{
			name:    "destination stride too small",
			sources: []*Plane{ch(), ch(), ch(), ch()},
			format:  FormatRGBA8888,
			dst:     planeList{{Data: make([]byte, 64), Width: 4, Height: 4, Stride: 8, ElementSize: 4}},
			want:    ErrDestinationGeometry,
		},
		{
			name:    "nil destination plane",
			sources: []*Plane{ch(), ch(), ch()},
			format:  FormatNV12,
			dst:     planeList{ch(), nil},
			want:    ErrDestinationGeometry,
		},
		{
			name:    "destination format differs",
			sources: []*Plane{ch(), ch(), ch()},
			format:  FormatNV12,
			dst:     MustNewMultiImage(shape, FormatNV21),
			want:    ErrDestinationGeometry,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sources, tt.format, tt.dst)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.want)
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Fatalf("Validate() error %T is not a *ConfigError", err)
			}
			if ce.Format != tt.format {
				t.Errorf("ConfigError.Format = %v, want %v", ce.Format, tt.format)
			}
		})
	}
}

func TestValidateAcceptsCallerPlanes(t *testing.T) {
	shape := Shape{6, 2}
	src, _ := NewSources(shape, FormatNV21)
	luma, _ := NewPlaneWithStride(6, 2, 1, 16)
	chroma, _ := NewPlaneWithStride(3, 1, 2, 8)

	if err := Validate(src, FormatNV21, planeList{luma, chroma}); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	img, err := MultiImageFromPlanes(shape, FormatNV21, luma, chroma)
	if err != nil {
		t.Fatal(err)
	}
	if err := Validate(src, FormatNV21, img); err != nil {
		t.Fatalf("Validate(MultiImage) error = %v", err)
	}
}

func TestConfigErrorMessage(t *testing.T) {
	src, _ := NewSources(Shape{4, 4}, FormatRGB888)
	err := Validate(src, FormatRGBA8888, MustNewMultiImage(Shape{4, 4}, FormatRGBA8888))
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	for _, part := range []string{"RGBA8888", "got 3 channels, want 4"} {
		if !strings.Contains(msg, part) {
			t.Errorf("error %q does not mention %q", msg, part)
		}
	}
}
