package combine

import (
	"fmt"
	"slices"
	"strings"
)

// Format identifies the pixel layout of a combined image.
type Format uint8

const (
	// FormatRGB888 is interleaved 8-bit R, G, B (3 bytes per pixel).
	FormatRGB888 Format = iota

	// FormatRGBA8888 is interleaved 8-bit R, G, B, A (4 bytes per pixel).
	FormatRGBA8888

	// FormatYUYV422 is packed 4:2:2 with byte order Y0 U Y1 V per pixel pair.
	FormatYUYV422

	// FormatUYVY422 is packed 4:2:2 with byte order U Y0 V Y1 per pixel pair.
	FormatUYVY422

	// FormatYUV444 is three full resolution planes Y, U, V.
	FormatYUV444

	// FormatIYUV is planar 4:2:0 (I420): full resolution Y, quarter size U and V.
	FormatIYUV

	// FormatNV12 is semi-planar 4:2:0: full resolution Y plus interleaved U,V.
	FormatNV12

	// FormatNV21 is semi-planar 4:2:0: full resolution Y plus interleaved V,U.
	FormatNV21

	// formatCount is the number of formats (for internal use).
	formatCount
)

// Channel names one single-sample-per-pixel input.
type Channel uint8

const (
	ChannelR Channel = iota
	ChannelG
	ChannelB
	ChannelA
	ChannelY
	ChannelU
	ChannelV
)

// String returns the single letter name of the channel.
func (c Channel) String() string {
	switch c {
	case ChannelR:
		return "R"
	case ChannelG:
		return "G"
	case ChannelB:
		return "B"
	case ChannelA:
		return "A"
	case ChannelY:
		return "Y"
	case ChannelU:
		return "U"
	case ChannelV:
		return "V"
	default:
		return "?"
	}
}

// LayoutClass groups formats that share a combine strategy.
type LayoutClass uint8

const (
	// LayoutInterleaved stores all channels of a pixel contiguously, no subsampling.
	LayoutInterleaved LayoutClass = iota

	// LayoutPacked stores luma and horizontally subsampled chroma in one plane.
	LayoutPacked

	// LayoutPlanar stores one plane per channel.
	LayoutPlanar

	// LayoutSemiPlanar stores luma in one plane and interleaved chroma in another.
	LayoutSemiPlanar
)

// String returns a string representation of the layout class.
func (l LayoutClass) String() string {
	switch l {
	case LayoutInterleaved:
		return "interleaved"
	case LayoutPacked:
		return "packed"
	case LayoutPlanar:
		return "planar"
	case LayoutSemiPlanar:
		return "semi-planar"
	default:
		return "unknown"
	}
}

// PlaneInfo describes how one destination plane is filled.
//
// A plane row is a repetition of Pattern. One repetition covers
// PixelsPerPattern plane-local sample columns; Offsets[i] is the column, within
// that group, that Pattern[i] is read from. Source coordinates are then scaled
// by SubsampleX and SubsampleY, which selects the top-left sample of every
// subsampled block.
type PlaneInfo struct {
	// ElementSize is the number of bytes per plane element.
	ElementSize int

	// SubsampleX and SubsampleY divide the image shape to give the plane shape.
	SubsampleX int
	SubsampleY int

	// Pattern is the repeating channel sequence of a plane row.
	Pattern []Channel

	// Offsets holds the column offset of each Pattern entry within a group.
	Offsets []int

	// PixelsPerPattern is the number of source columns covered by one Pattern.
	PixelsPerPattern int
}

// FormatInfo contains metadata about a pixel format.
type FormatInfo struct {
	// Planes is the number of destination planes.
	Planes int

	// SubsampleX and SubsampleY are the chroma subsampling factors.
	// The image width must be a multiple of SubsampleX, the height of SubsampleY.
	SubsampleX int
	SubsampleY int

	// Channels is the required order of the source channels.
	Channels []Channel

	// Layout selects the combine strategy.
	Layout LayoutClass

	// PlaneInfo describes each destination plane, len(PlaneInfo) == Planes.
	PlaneInfo []PlaneInfo
}

// ChannelIndex returns the source index of c, or -1 if the format does not use it.
func (fi FormatInfo) ChannelIndex(c Channel) int {
	return slices.Index(fi.Channels, c)
}

var (
	rgbChannels  = []Channel{ChannelR, ChannelG, ChannelB}
	rgbaChannels = []Channel{ChannelR, ChannelG, ChannelB, ChannelA}
	yuvChannels  = []Channel{ChannelY, ChannelU, ChannelV}
)

func fullPlane(c Channel) PlaneInfo {
	return PlaneInfo{ElementSize: 1, SubsampleX: 1, SubsampleY: 1, Pattern: []Channel{c}, Offsets: []int{0}, PixelsPerPattern: 1}
}

func quarterPlane(c Channel) PlaneInfo {
	return PlaneInfo{ElementSize: 1, SubsampleX: 2, SubsampleY: 2, Pattern: []Channel{c}, Offsets: []int{0}, PixelsPerPattern: 1}
}

// formatInfoTable contains metadata for each format.
var formatInfoTable = [formatCount]FormatInfo{
	FormatRGB888: {
		Planes: 1, SubsampleX: 1, SubsampleY: 1,
		Channels: rgbChannels,
		Layout:   LayoutInterleaved,
		PlaneInfo: []PlaneInfo{{
			ElementSize: 3, SubsampleX: 1, SubsampleY: 1,
			Pattern: rgbChannels, Offsets: []int{0, 0, 0}, PixelsPerPattern: 1,
		}},
	},
	FormatRGBA8888: {
		Planes: 1, SubsampleX: 1, SubsampleY: 1,
		Channels: rgbaChannels,
		Layout:   LayoutInterleaved,
		PlaneInfo: []PlaneInfo{{
			ElementSize: 4, SubsampleX: 1, SubsampleY: 1,
			Pattern: rgbaChannels, Offsets: []int{0, 0, 0, 0}, PixelsPerPattern: 1,
		}},
	},
	FormatYUYV422: {
		Planes: 1, SubsampleX: 2, SubsampleY: 1,
		Channels: yuvChannels,
		Layout:   LayoutPacked,
		PlaneInfo: []PlaneInfo{{
			ElementSize: 2, SubsampleX: 1, SubsampleY: 1,
			Pattern:          []Channel{ChannelY, ChannelU, ChannelY, ChannelV},
			Offsets:          []int{0, 0, 1, 0},
			PixelsPerPattern: 2,
		}},
	},
	FormatUYVY422: {
		Planes: 1, SubsampleX: 2, SubsampleY: 1,
		Channels: yuvChannels,
		Layout:   LayoutPacked,
		PlaneInfo: []PlaneInfo{{
			ElementSize: 2, SubsampleX: 1, SubsampleY: 1,
			Pattern:          []Channel{ChannelU, ChannelY, ChannelV, ChannelY},
			Offsets:          []int{0, 0, 0, 1},
			PixelsPerPattern: 2,
		}},
	},
	FormatYUV444: {
		Planes: 3, SubsampleX: 1, SubsampleY: 1,
		Channels:  yuvChannels,
		Layout:    LayoutPlanar,
		PlaneInfo: []PlaneInfo{fullPlane(ChannelY), fullPlane(ChannelU), fullPlane(ChannelV)},
	},
	FormatIYUV: {
		Planes: 3, SubsampleX: 2, SubsampleY: 2,
		Channels:  yuvChannels,
		Layout:    LayoutPlanar,
		PlaneInfo: []PlaneInfo{fullPlane(ChannelY), quarterPlane(ChannelU), quarterPlane(ChannelV)},
	},
	FormatNV12: {
		Planes: 2, SubsampleX: 2, SubsampleY: 2,
		Channels: yuvChannels,
		Layout:   LayoutSemiPlanar,
		PlaneInfo: []PlaneInfo{fullPlane(ChannelY), {
			ElementSize: 2, SubsampleX: 2, SubsampleY: 2,
			Pattern: []Channel{ChannelU, ChannelV}, Offsets: []int{0, 0}, PixelsPerPattern: 1,
		}},
	},
	FormatNV21: {
		Planes: 2, SubsampleX: 2, SubsampleY: 2,
		Channels: yuvChannels,
		Layout:   LayoutSemiPlanar,
		PlaneInfo: []PlaneInfo{fullPlane(ChannelY), {
			ElementSize: 2, SubsampleX: 2, SubsampleY: 2,
			Pattern: []Channel{ChannelV, ChannelU}, Offsets: []int{0, 0}, PixelsPerPattern: 1,
		}},
	},
}

// Describe returns the FormatInfo for f.
// It returns ErrUnsupportedFormat for values outside the known set.
func Describe(f Format) (FormatInfo, error) {
	if !f.IsValid() {
		return FormatInfo{}, fmt.Errorf("%w: %d", ErrUnsupportedFormat, uint8(f))
	}
	return f.Info(), nil
}

// Info returns the FormatInfo for this format.
// The returned value is a copy; modifying it does not affect the table.
// Unknown formats yield the zero FormatInfo.
func (f Format) Info() FormatInfo {
	if f >= formatCount {
		return FormatInfo{}
	}
	fi := formatInfoTable[f]
	fi.Channels = slices.Clone(fi.Channels)
	planes := make([]PlaneInfo, len(fi.PlaneInfo))
	for i, pi := range fi.PlaneInfo {
		pi.Pattern = slices.Clone(pi.Pattern)
		pi.Offsets = slices.Clone(pi.Offsets)
		planes[i] = pi
	}
	fi.PlaneInfo = planes
	return fi
}

// Planes returns the number of destination planes.
func (f Format) Planes() int {
	if f >= formatCount {
		return 0
	}
	return formatInfoTable[f].Planes
}

// Channels returns the number of source channels the format consumes.
func (f Format) Channels() int {
	if f >= formatCount {
		return 0
	}
	return len(formatInfoTable[f].Channels)
}

// Layout returns the layout class of the format.
func (f Format) Layout() LayoutClass {
	if f >= formatCount {
		return LayoutClass(0xff)
	}
	return formatInfoTable[f].Layout
}

// IsValid returns true if the format is a valid known format.
func (f Format) IsValid() bool {
	return f < formatCount
}

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatRGB888:
		return "RGB888"
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatYUYV422:
		return "YUYV422"
	case FormatUYVY422:
		return "UYVY422"
	case FormatYUV444:
		return "YUV444"
	case FormatIYUV:
		return "IYUV"
	case FormatNV12:
		return "NV12"
	case FormatNV21:
		return "NV21"
	default:
		return "Unknown"
	}
}

// Formats returns every supported format in declaration order.
func Formats() []Format {
	out := make([]Format, 0, formatCount)
	for f := range formatCount {
		out = append(out, f)
	}
	return out
}

// ParseFormat looks a format up by name, ignoring case.
// "I420" is accepted as an alias of IYUV.
func ParseFormat(name string) (Format, error) {
	n := strings.ToUpper(strings.TrimSpace(name))
	if n == "I420" {
		return FormatIYUV, nil
	}
	for _, f := range Formats() {
		if f.String() == n {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}
