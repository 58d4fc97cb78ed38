package combine

// Validate checks that sources and dst can be combined into format.
//
// It verifies that the number of sources matches the format, that every
// source is a single-byte channel of the same shape, that the shape
// satisfies the format's subsampling constraints, and that dst has exactly
// the planes Plan computes (width and height equal, stride at least the
// minimum). Every failure is a *ConfigError. Validate never writes to dst.
func Validate(sources []*Plane, format Format, dst Destination) error {
	_, err := validate(sources, format, dst)
	return err
}

// validate returns the resolved destination planes on success.
func validate(sources []*Plane, format Format, dst Destination) ([]*Plane, error) {
	if !format.IsValid() {
		return nil, configErrorf(format, ErrUnsupportedFormat, "format value %d", uint8(format))
	}
	fi := &formatInfoTable[format]

	if len(sources) != len(fi.Channels) {
		return nil, configErrorf(format, ErrChannelCountMismatch, "got %d channels, want %d (%v)",
			len(sources), len(fi.Channels), fi.Channels)
	}
	for i, src := range sources {
		if src == nil {
			return nil, configErrorf(format, ErrChannelCountMismatch, "channel %v (source %d) is not bound", fi.Channels[i], i)
		}
	}

	shape := Shape{Width: sources[0].Width, Height: sources[0].Height}
	for i, src := range sources {
		if src.elemSize() != 1 {
			return nil, configErrorf(format, ErrShapeMismatch, "channel %v has element size %d, want 1", fi.Channels[i], src.elemSize())
		}
		if src.Width != shape.Width || src.Height != shape.Height {
			return nil, configErrorf(format, ErrShapeMismatch, "channel %v is %dx%d, channel %v is %v",
				fi.Channels[i], src.Width, src.Height, fi.Channels[0], shape)
		}
		if err := src.check(); err != nil {
			return nil, configErrorf(format, ErrShapeMismatch, "channel %v: %v", fi.Channels[i], err)
		}
	}

	geoms, err := Plan(shape, format)
	if err != nil {
		return nil, err
	}

	if dst == nil {
		return nil, configErrorf(format, ErrDestinationGeometry, "destination is nil")
	}
	if dst.PlaneCount() != len(geoms) {
		return nil, configErrorf(format, ErrDestinationGeometry, "destination has %d planes, want %d", dst.PlaneCount(), len(geoms))
	}
	planes := make([]*Plane, len(geoms))
	for i, g := range geoms {
		p := dst.Plane(i)
		if p == nil {
			return nil, configErrorf(format, ErrDestinationGeometry, "plane %d is nil", i)
		}
		if p.Width != g.Width || p.Height != g.Height || p.elemSize() != g.ElementSize {
			return nil, configErrorf(format, ErrDestinationGeometry, "plane %d is %dx%d (element %d), want %dx%d (element %d)",
				i, p.Width, p.Height, p.elemSize(), g.Width, g.Height, g.ElementSize)
		}
		if err := p.check(); err != nil {
			return nil, configErrorf(format, ErrDestinationGeometry, "plane %d: %v", i, err)
		}
		planes[i] = p
	}

	if m, ok := dst.(*MultiImage); ok && (m.format != format || m.shape != shape) {
		return nil, configErrorf(format, ErrDestinationGeometry, "destination is %v %v, want %v %v",
			m.format, m.shape, format, shape)
	}
	return planes, nil
}
