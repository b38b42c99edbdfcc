// Package grid provides the indexed pixel surface edited by sprited.
//
// A Grid holds palette indices 0-15 in a row-major byte slice. Reads and
// writes outside the grid extents are non-fatal, matching image.Paletted:
// reads return 0 and writes are dropped. That keeps recorded edits safe to
// replay after a canvas resize.
package grid

// MaxIndex is the highest valid palette index.
const MaxIndex = 15

// Grid is a rectangular surface of palette indices.
type Grid struct {
	w, h int
	pix  []uint8
}

// New creates a blank grid of the given size. Non-positive dimensions are
// clamped to zero.
func New(w, h int) *Grid {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Grid{w: w, h: h, pix: make([]uint8, w*h)}
}

// Width returns the grid width in pixels.
func (g *Grid) Width() int { return g.w }

// Height returns the grid height in pixels.
func (g *Grid) Height() int { return g.h }

// ColorIndexAt returns the palette index at (x, y), or 0 when the point is
// outside the grid.
func (g *Grid) ColorIndexAt(x, y int) uint8 {
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return 0
	}
	return g.pix[y*g.w+x]
}

// SetColorIndex writes a palette index at (x, y). Writes outside the grid
// are dropped.
func (g *Grid) SetColorIndex(x, y int, index uint8) {
	if x < 0 || x >= g.w || y < 0 || y >= g.h {
		return
	}
	g.pix[y*g.w+x] = index
}

// Fill sets every pixel to the given index.
func (g *Grid) Fill(index uint8) {
	for i := range g.pix {
		g.pix[i] = index
	}
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	dup := &Grid{w: g.w, h: g.h, pix: make([]uint8, len(g.pix))}
	copy(dup.pix, g.pix)
	return dup
}

// Equal reports whether two grids have the same size and pixels.
func (g *Grid) Equal(o *Grid) bool {
	if o == nil || g.w != o.w || g.h != o.h {
		return false
	}
	for i, v := range g.pix {
		if o.pix[i] != v {
			return false
		}
	}
	return true
}

// Pix exposes the row-major pixel slice. The slice is the grid's backing
// store, not a copy.
func (g *Grid) Pix() []uint8 { return g.pix }
