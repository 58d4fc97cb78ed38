//go:build !nogpu

package gpu

import (
	"encoding/binary"

	"github.com/gogpu/combine"
)

// workgroupSize matches @workgroup_size in combineShaderSource.
const workgroupSize = 64

// maxGroupsX is the WebGPU default limit on workgroups per dimension.
const maxGroupsX = 65535

// planeParams is the uniform block of one plane dispatch. Field order and
// size (20 x u32 = 80 bytes) mirror the Params struct in the shader; the two
// pad words align Channels to 16 bytes.
type planeParams struct {
	SrcWidth         uint32
	RowBytes         uint32
	Rows             uint32
	PatternLen       uint32
	PixelsPerPattern uint32
	SubsampleX       uint32
	SubsampleY       uint32
	ChannelSize      uint32
	GroupsX          uint32
	TotalBytes       uint32
	pad0, pad1       uint32
	Channels         [4]uint32
	Offsets          [4]uint32
}

const planeParamsSize = 80

// newPlaneParams builds the dispatch parameters for destination plane i.
// Channel indices refer to the position of the channel in the packed source
// buffer, which follows FormatInfo.Channels.
func newPlaneParams(fi combine.FormatInfo, i int, shape combine.Shape) planeParams {
	pi := fi.PlaneInfo[i]
	rows := shape.Height / pi.SubsampleY
	rowBytes := shape.Width / pi.SubsampleX * pi.ElementSize
	p := planeParams{
		SrcWidth:         uint32(shape.Width),         //nolint:gosec // validated dimensions
		RowBytes:         uint32(rowBytes),            //nolint:gosec // validated dimensions
		Rows:             uint32(rows),                //nolint:gosec // validated dimensions
		PatternLen:       uint32(len(pi.Pattern)),     //nolint:gosec // at most 4
		PixelsPerPattern: uint32(pi.PixelsPerPattern), //nolint:gosec // at most 2
		SubsampleX:       uint32(pi.SubsampleX),       //nolint:gosec // at most 2
		SubsampleY:       uint32(pi.SubsampleY),       //nolint:gosec // at most 2
		ChannelSize:      uint32(shape.Pixels()),      //nolint:gosec // validated dimensions
		TotalBytes:       uint32(rowBytes * rows),     //nolint:gosec // validated dimensions
	}
	for k, c := range pi.Pattern {
		p.Channels[k] = uint32(fi.ChannelIndex(c)) //nolint:gosec // channel index is 0..3
		p.Offsets[k] = uint32(pi.Offsets[k])       //nolint:gosec // offset is 0 or 1
	}
	gx, _ := dispatchSize(p.TotalBytes)
	p.GroupsX = gx
	return p
}

// words returns the number of u32 output words, one per invocation.
func (p planeParams) words() uint32 {
	return (p.TotalBytes + 3) / 4
}

// dispatchSize splits the workgroups needed for totalBytes into a 2D grid
// that stays within maxGroupsX per dimension.
func dispatchSize(totalBytes uint32) (x, y uint32) {
	groups := ((totalBytes+3)/4 + workgroupSize - 1) / workgroupSize
	if groups == 0 {
		return 1, 1
	}
	if groups <= maxGroupsX {
		return groups, 1
	}
	return maxGroupsX, (groups + maxGroupsX - 1) / maxGroupsX
}

// toBytes serializes p in little-endian order for the uniform buffer.
func (p planeParams) toBytes() []byte {
	words := [planeParamsSize / 4]uint32{
		p.SrcWidth, p.RowBytes, p.Rows, p.PatternLen,
		p.PixelsPerPattern, p.SubsampleX, p.SubsampleY, p.ChannelSize,
		p.GroupsX, p.TotalBytes, p.pad0, p.pad1,
		p.Channels[0], p.Channels[1], p.Channels[2], p.Channels[3],
		p.Offsets[0], p.Offsets[1], p.Offsets[2], p.Offsets[3],
	}
	out := make([]byte, planeParamsSize)
	for i, w := range words {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}
