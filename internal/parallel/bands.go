package parallel

// Band is a half-open range of rows [Start, End).
type Band struct {
	Start int
	End   int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.End - b.Start
}

// SplitRows divides rows into at most parts contiguous bands of at least
// minRows rows each (the last band may be shorter when rows < minRows).
// Bands cover [0, rows) exactly once, in order.
func SplitRows(rows, minRows, parts int) []Band {
	if rows <= 0 {
		return nil
	}
	if minRows < 1 {
		minRows = 1
	}
	if parts < 1 {
		parts = 1
	}

	per := ceilDiv(rows, parts)
	if per < minRows {
		per = minRows
	}

	bands := make([]Band, 0, ceilDiv(rows, per))
	for start := 0; start < rows; {
		end := start + min(per, rows-start)
		bands = append(bands, Band{Start: start, End: end})
		start = end
	}
	return bands
}

// ceilDiv returns a/b rounded up for a >= 0, b > 0, without overflowing.
func ceilDiv(a, b int) int {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}
