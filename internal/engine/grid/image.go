package grid

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// FromImage adopts an already-decoded image as a grid, returning the palette
// the indices refer to. Images that are not paletted, or that carry more
// than 16 colors, are quantized down to a 16-color palette first.
func FromImage(img image.Image) (*Grid, color.Palette) {
	b := img.Bounds()

	pm, _ := img.(*image.Paletted)
	if pm == nil || len(pm.Palette) > MaxIndex+1 {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, MaxIndex+1), img))
		draw.Draw(pm, b, img, b.Min, draw.Src)
	}

	g := New(b.Dx(), b.Dy())
	for y := 0; y < g.h; y++ {
		for x := 0; x < g.w; x++ {
			g.pix[y*g.w+x] = pm.ColorIndexAt(b.Min.X+x, b.Min.Y+y)
		}
	}
	return g, pm.Palette
}

// ToPaletted exports the grid as an image.Paletted using the given palette.
func (g *Grid) ToPaletted(p color.Palette) *image.Paletted {
	pm := image.NewPaletted(image.Rect(0, 0, g.w, g.h), p)
	for y := 0; y < g.h; y++ {
		copy(pm.Pix[y*pm.Stride:y*pm.Stride+g.w], g.pix[y*g.w:(y+1)*g.w])
	}
	return pm
}

// Paletted adapts an image.Paletted so history commands can edit it in
// place. image.Paletted already drops out-of-bounds writes and reads zero
// out of bounds, so the adapter only reshapes the surface.
type Paletted struct {
	*image.Paletted
}

// WrapPaletted wraps an existing paletted image.
func WrapPaletted(pm *image.Paletted) Paletted { return Paletted{Paletted: pm} }

// Width returns the image width in pixels.
func (p Paletted) Width() int { return p.Rect.Dx() }

// Height returns the image height in pixels.
func (p Paletted) Height() int { return p.Rect.Dy() }

// ColorIndexAt returns the palette index at (x, y) in grid coordinates.
func (p Paletted) ColorIndexAt(x, y int) uint8 {
	return p.Paletted.ColorIndexAt(p.Rect.Min.X+x, p.Rect.Min.Y+y)
}

// SetColorIndex writes a palette index at (x, y) in grid coordinates.
func (p Paletted) SetColorIndex(x, y int, index uint8) {
	p.Paletted.SetColorIndex(p.Rect.Min.X+x, p.Rect.Min.Y+y, index)
}
