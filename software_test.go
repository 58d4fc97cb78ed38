package combine

import (
	"slices"
	"testing"

	"github.com/gogpu/combine/internal/parallel"
)

func TestPackedSlotsFor(t *testing.T) {
	tests := []struct {
		format Format
		want   packedSlots
	}{
		{FormatYUYV422, packedSlots{y0: 0, y1: 2, u: 1, v: 3}},
		{FormatUYVY422, packedSlots{y0: 1, y1: 3, u: 0, v: 2}},
	}
	for _, tt := range tests {
		got := packedSlotsFor(formatInfoTable[tt.format].PlaneInfo[0].Pattern)
		if got != tt.want {
			t.Errorf("packedSlotsFor(%v) = %+v, want %+v", tt.format, got, tt.want)
		}
	}
}

func TestKernelBands(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	k := softwareKernel{pool: pool, bandRows: 8}
	var covered []int
	work := k.bands(nil, 50, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			covered = append(covered, y)
		}
	})
	if len(work) != 4 {
		t.Fatalf("bands() made %d work items, want 4", len(work))
	}
	for _, fn := range work {
		fn()
	}
	if len(covered) != 50 || !slices.IsSorted(covered) || covered[0] != 0 || covered[49] != 49 {
		t.Errorf("bands cover %v", covered)
	}

	inline := softwareKernel{bandRows: 8}
	if n := len(inline.bands(nil, 50, func(int, int) {})); n != 1 {
		t.Errorf("inline kernel made %d bands, want 1", n)
	}
}

func TestDecimateRows(t *testing.T) {
	src, _ := ChannelFromBytes([]byte{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}, 4, 4)
	dst, _ := NewChannel(2, 2)
	decimateRows(dst, src, 2, 2, 0, 2)
	if want := []byte{1, 3, 9, 11}; !slices.Equal(dst.Bytes(), want) {
		t.Errorf("decimateRows() = %v, want %v", dst.Bytes(), want)
	}
}

func TestInterleaveChromaRows(t *testing.T) {
	u, _ := ChannelFromBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8}, 4, 2)
	v, _ := ChannelFromBytes([]byte{11, 12, 13, 14, 15, 16, 17, 18}, 4, 2)
	dst, _ := NewPlane(2, 1, 2)
	interleaveChromaRows(dst, u, v, 2, 2, 0, 1)
	if want := []byte{1, 11, 3, 13}; !slices.Equal(dst.Bytes(), want) {
		t.Errorf("interleaveChromaRows() = %v, want %v", dst.Bytes(), want)
	}
}
