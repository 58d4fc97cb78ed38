package combine

import "fmt"

// Extract copies channel ch out of a combined image into a new tightly
// packed single-channel plane.
//
// Luma and RGBA channels come back at the image shape. Chroma channels come
// back at their stored resolution: half width for the 4:2:2 formats, half
// width and height for IYUV, NV12 and NV21. Extracting Y from any YUV format
// returns the source luma byte for byte.
func Extract(src *MultiImage, ch Channel) (*Plane, error) {
	format := src.Format()
	geoms, err := Plan(src.Shape(), format)
	if err != nil {
		return nil, err
	}
	if src.PlaneCount() != len(geoms) {
		return nil, configErrorf(format, ErrDestinationGeometry, "image has %d planes, want %d", src.PlaneCount(), len(geoms))
	}

	fi := &formatInfoTable[format]
	for i, pi := range fi.PlaneInfo {
		slots := slotsOf(pi.Pattern, ch)
		if len(slots) == 0 {
			continue
		}
		p := src.Plane(i)
		if p == nil || p.Width != geoms[i].Width || p.Height != geoms[i].Height || p.elemSize() != geoms[i].ElementSize {
			return nil, configErrorf(format, ErrDestinationGeometry, "plane %d does not match %v", i, src.Shape())
		}
		if err := p.check(); err != nil {
			return nil, configErrorf(format, ErrDestinationGeometry, "plane %d: %v", i, err)
		}
		return extractSlots(p, len(pi.Pattern), slots)
	}
	return nil, fmt.Errorf("%w: %v not in %v", ErrChannelNotFound, ch, format)
}

func slotsOf(pattern []Channel, ch Channel) []int {
	var out []int
	for i, c := range pattern {
		if c == ch {
			out = append(out, i)
		}
	}
	return out
}

// extractSlots gathers the bytes at the given pattern slots of every pattern
// repetition, in row order.
func extractSlots(p *Plane, patternLen int, slots []int) (*Plane, error) {
	groups := p.RowBytes() / patternLen
	out, err := NewChannel(groups*len(slots), p.Height)
	if err != nil {
		return nil, err
	}
	for y := range p.Height {
		s := p.Row(y)
		d := out.Row(y)
		n := 0
		for g := range groups {
			base := g * patternLen
			for _, slot := range slots {
				d[n] = s[base+slot]
				n++
			}
		}
	}
	return out, nil
}
