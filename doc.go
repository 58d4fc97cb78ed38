// Package combine packs single-channel 8-bit planes into composite images.
//
// # Overview
//
// Capture and decode stages often deliver colour channels as separate
// planes, while encoders and displays want one specific layout. combine
// writes R, G, B (and A) or Y, U, V planes into one of eight layouts:
//
//	RGB888, RGBA8888   interleaved, one plane
//	YUYV422, UYVY422   packed 4:2:2, one plane
//	YUV444, IYUV       planar, three planes (IYUV is 4:2:0)
//	NV12, NV21         semi-planar 4:2:0, two planes
//
// Subsampled chroma is produced by selection, not filtering: the top-left
// sample of every subsampled block is kept.
//
// # Quick Start
//
//	shape := combine.Shape{Width: 1920, Height: 1080}
//	dst, err := combine.NewMultiImage(shape, combine.FormatNV12)
//	if err != nil { ... }
//
//	fn := combine.NewChannelCombine()
//	defer fn.Close()
//	if err := fn.Configure([]*combine.Plane{y, u, v}, combine.FormatNV12, dst); err != nil { ... }
//	_ = fn.Execute() // repeat whenever y, u, v change
//
// # Architecture
//
//   - Describe / Format.Info: static per-format metadata
//   - Plan: destination plane geometry, rejects odd shapes for subsampled formats
//   - Validate: configuration checks, run once by Configure
//   - ChannelCombine: configure-once, execute-many function object
//   - CPU kernel: row-banded, runs on a work-stealing pool (internal/parallel)
//   - Accelerators: optional, registered via RegisterAccelerator (see package gpu)
//   - package reference: sequential oracle used by tests and the verify command
package combine
