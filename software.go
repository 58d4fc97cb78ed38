package combine

import (
	"slices"
	"sync"

	"github.com/gogpu/combine/internal/parallel"
)

var (
	sharedPoolOnce sync.Once
	sharedPool     *parallel.WorkerPool
)

// defaultPool returns the package-wide pool, creating it on first use.
func defaultPool() *parallel.WorkerPool {
	sharedPoolOnce.Do(func() {
		sharedPool = parallel.NewWorkerPool(0)
	})
	return sharedPool
}

// softwareKernel is the CPU combine. It splits every destination plane into
// row bands; each band writes a disjoint set of destination rows and only
// reads sources.
type softwareKernel struct {
	pool     *parallel.WorkerPool // nil runs bands on the calling goroutine
	bandRows int
}

// run combines job. job must have passed validate.
func (k *softwareKernel) run(job CombineJob) {
	fi := &formatInfoTable[job.Format]
	var work []func()

	switch fi.Layout {
	case LayoutInterleaved:
		dst := job.Planes[0]
		work = k.bands(work, dst.Height, func(y0, y1 int) {
			interleaveRows(dst, job.Sources, y0, y1)
		})

	case LayoutPacked:
		dst := job.Planes[0]
		slots := packedSlotsFor(fi.PlaneInfo[0].Pattern)
		work = k.bands(work, dst.Height, func(y0, y1 int) {
			packRows(dst, job.Sources[0], job.Sources[1], job.Sources[2], slots, y0, y1)
		})

	case LayoutPlanar:
		for i, pi := range fi.PlaneInfo {
			dst := job.Planes[i]
			src := job.Sources[slices.Index(fi.Channels, pi.Pattern[0])]
			sx, sy := pi.SubsampleX, pi.SubsampleY
			work = k.bands(work, dst.Height, func(y0, y1 int) {
				if sx == 1 && sy == 1 {
					copyRows(dst, src, y0, y1)
				} else {
					decimateRows(dst, src, sx, sy, y0, y1)
				}
			})
		}

	case LayoutSemiPlanar:
		luma := job.Planes[0]
		work = k.bands(work, luma.Height, func(y0, y1 int) {
			copyRows(luma, job.Sources[0], y0, y1)
		})
		pi := fi.PlaneInfo[1]
		chroma := job.Planes[1]
		first := job.Sources[slices.Index(fi.Channels, pi.Pattern[0])]
		second := job.Sources[slices.Index(fi.Channels, pi.Pattern[1])]
		work = k.bands(work, chroma.Height, func(y0, y1 int) {
			interleaveChromaRows(chroma, first, second, pi.SubsampleX, pi.SubsampleY, y0, y1)
		})
	}

	if k.pool == nil || len(work) == 1 {
		for _, fn := range work {
			fn()
		}
		return
	}
	k.pool.ExecuteAll(work)
}

// bands appends one work item per row band of a plane with the given height.
func (k *softwareKernel) bands(work []func(), rows int, fn func(y0, y1 int)) []func() {
	parts := 1
	if k.pool != nil {
		parts = k.pool.Workers()
	}
	for _, b := range parallel.SplitRows(rows, k.bandRows, parts) {
		work = append(work, func() { fn(b.Start, b.End) })
	}
	return work
}

// interleaveRows writes src[k] at byte k of every pixel for rows [y0, y1).
func interleaveRows(dst *Plane, src []*Plane, y0, y1 int) {
	switch len(src) {
	case 3:
		for y := y0; y < y1; y++ {
			d := dst.Row(y)
			r, g, b := src[0].Row(y), src[1].Row(y), src[2].Row(y)
			for x := range r {
				i := x * 3
				d[i] = r[x]
				d[i+1] = g[x]
				d[i+2] = b[x]
			}
		}
	case 4:
		for y := y0; y < y1; y++ {
			d := dst.Row(y)
			r, g, b, a := src[0].Row(y), src[1].Row(y), src[2].Row(y), src[3].Row(y)
			for x := range r {
				i := x * 4
				d[i] = r[x]
				d[i+1] = g[x]
				d[i+2] = b[x]
				d[i+3] = a[x]
			}
		}
	}
}

// packedSlots are the byte positions within a 4-byte pixel pair.
type packedSlots struct {
	y0, y1, u, v int
}

func packedSlotsFor(pattern []Channel) packedSlots {
	var s packedSlots
	lumaSeen := false
	for i, c := range pattern {
		switch c {
		case ChannelY:
			if lumaSeen {
				s.y1 = i
			} else {
				s.y0 = i
				lumaSeen = true
			}
		case ChannelU:
			s.u = i
		case ChannelV:
			s.v = i
		}
	}
	return s
}

// packRows writes horizontal pixel pairs. Chroma comes from the even column
// of each pair; the odd column's chroma is dropped.
func packRows(dst, ys, us, vs *Plane, s packedSlots, y0, y1 int) {
	for y := y0; y < y1; y++ {
		d := dst.Row(y)
		yr, ur, vr := ys.Row(y), us.Row(y), vs.Row(y)
		for x := 0; x+1 < len(yr); x += 2 {
			i := x * 2
			d[i+s.y0] = yr[x]
			d[i+s.y1] = yr[x+1]
			d[i+s.u] = ur[x]
			d[i+s.v] = vr[x]
		}
	}
}

func copyRows(dst, src *Plane, y0, y1 int) {
	for y := y0; y < y1; y++ {
		copy(dst.Row(y), src.Row(y))
	}
}

// decimateRows keeps the top-left sample of every sx*sy block.
func decimateRows(dst, src *Plane, sx, sy, y0, y1 int) {
	for y := y0; y < y1; y++ {
		d := dst.Row(y)
		s := src.Row(y * sy)
		for x := range d {
			d[x] = s[x*sx]
		}
	}
}

// interleaveChromaRows decimates two channels like decimateRows and stores
// them as pairs.
func interleaveChromaRows(dst, first, second *Plane, sx, sy, y0, y1 int) {
	for y := y0; y < y1; y++ {
		d := dst.Row(y)
		a := first.Row(y * sy)
		b := second.Row(y * sy)
		for x := 0; x < dst.Width; x++ {
			d[2*x] = a[x*sx]
			d[2*x+1] = b[x*sx]
		}
	}
}
