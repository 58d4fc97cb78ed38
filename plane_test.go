package combine

import (
	"errors"
	"math"
	"testing"
)

func TestPlaneCheck(t *testing.T) {
	tests := []struct {
		name  string
		plane Plane
		want  error
	}{
		{"tight", Plane{Data: make([]byte, 12), Width: 4, Height: 3, Stride: 4}, nil},
		{"padded last row", Plane{Data: make([]byte, 20), Width: 4, Height: 3, Stride: 8}, nil},
		{"zero height", Plane{Data: make([]byte, 4), Width: 4, Stride: 4}, ErrInvalidDimensions},
		{"stride below row", Plane{Data: make([]byte, 24), Width: 4, Height: 3, Stride: 6, ElementSize: 2}, ErrInvalidStride},
		{"one byte short", Plane{Data: make([]byte, 19), Width: 4, Height: 3, Stride: 8}, ErrDataTooSmall},
		{"shorter than a row", Plane{Data: make([]byte, 2), Width: 4, Height: 1, Stride: 4}, ErrDataTooSmall},
		{"height overflows", Plane{Data: make([]byte, 2), Width: 2, Height: 1<<62 + 1, Stride: 4}, ErrDataTooSmall},
		{"width overflows", Plane{Data: make([]byte, 8), Width: math.MaxInt/2 + 1, Height: 1, Stride: math.MaxInt, ElementSize: 2}, ErrInvalidDimensions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plane.check()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("check() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("check() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPlaneConstructorsRejectOverflow(t *testing.T) {
	if _, err := NewPlane(math.MaxInt/2, 3, 1); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewPlane() error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := NewPlaneWithStride(2, 1<<62, 1, 4); !errors.Is(err, ErrInvalidDimensions) {
		t.Errorf("NewPlaneWithStride() error = %v, want ErrInvalidDimensions", err)
	}
	if _, err := PlaneFromRaw(make([]byte, 2), 2, 1<<62+1, 1, 4); !errors.Is(err, ErrDataTooSmall) {
		t.Errorf("PlaneFromRaw() error = %v, want ErrDataTooSmall", err)
	}
	if _, err := ChannelFromBytes(make([]byte, 6), 3, 2); err != nil {
		t.Errorf("ChannelFromBytes() error = %v", err)
	}
}
