package history

// Canvas is the pixel surface commands edit. The canvas is owned by the
// interactive layer; this package only touches it through Execute and
// Unexecute. Implementations must drop out-of-bounds writes rather than
// panic, the way image.Paletted does.
type Canvas interface {
	Width() int
	Height() int
	ColorIndexAt(x, y int) uint8
	SetColorIndex(x, y int, index uint8)
}

func inBounds(c Canvas, x, y int) bool {
	return x >= 0 && x < c.Width() && y >= 0 && y < c.Height()
}
