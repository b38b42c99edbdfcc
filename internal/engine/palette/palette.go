// Package palette models the 16-slot color table a sprite's indices refer
// to. Index 0 conventionally renders as transparent.
package palette

import (
	"errors"
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Size is the number of palette slots.
const Size = 16

// Errors returned by palette operations.
var (
	// ErrSlotOutOfRange indicates a slot index outside 0-15.
	ErrSlotOutOfRange = errors.New("palette slot out of range")

	// ErrBadHexColor indicates a color string that is not #rrggbb hex.
	ErrBadHexColor = errors.New("invalid hex color")
)

// Palette is a fixed table of 16 RGBA colors.
type Palette struct {
	colors [Size]color.RGBA
}

// Default returns the stock 16-color palette. Slot 0 is transparent.
func Default() *Palette {
	hexes := [Size]string{
		"#000000", // 0: transparent (color value unused)
		"#1d2b53", // 1: dark blue
		"#7e2553", // 2: dark purple
		"#008751", // 3: dark green
		"#ab5236", // 4: brown
		"#5f574f", // 5: dark gray
		"#c2c3c7", // 6: light gray
		"#fff1e8", // 7: white
		"#ff004d", // 8: red
		"#ffa300", // 9: orange
		"#ffec27", // 10: yellow
		"#00e436", // 11: green
		"#29adff", // 12: blue
		"#83769c", // 13: indigo
		"#ff77a8", // 14: pink
		"#ffccaa", // 15: peach
	}

	p := &Palette{}
	for i, s := range hexes[1:] {
		c, _ := colorful.Hex(s)
		r, g, b := c.RGB255()
		p.colors[i+1] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	}
	return p
}

// At returns the color in the given slot.
func (p *Palette) At(slot int) (color.RGBA, error) {
	if slot < 0 || slot >= Size {
		return color.RGBA{}, fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	return p.colors[slot], nil
}

// Set replaces the color in the given slot.
func (p *Palette) Set(slot int, c color.Color) error {
	if slot < 0 || slot >= Size {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	r, g, b, a := c.RGBA()
	p.colors[slot] = color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)}
	return nil
}

// SetHex replaces the color in the given slot from an #rrggbb string.
func (p *Palette) SetHex(slot int, s string) error {
	if slot < 0 || slot >= Size {
		return fmt.Errorf("%w: %d", ErrSlotOutOfRange, slot)
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrBadHexColor, s)
	}
	r, g, b := c.RGB255()
	p.colors[slot] = color.RGBA{R: r, G: g, B: b, A: 0xFF}
	return nil
}

// Nearest returns the index of the palette color closest to c, measured in
// Lab space. Fully transparent input maps to slot 0; otherwise only the
// opaque slots 1-15 are considered.
func (p *Palette) Nearest(c color.Color) uint8 {
	_, _, _, a := c.RGBA()
	if a == 0 {
		return 0
	}

	target, _ := colorful.MakeColor(color.NRGBAModel.Convert(c))
	best := uint8(1)
	bestDist := -1.0
	for i := 1; i < Size; i++ {
		candidate, _ := colorful.MakeColor(p.colors[i])
		d := target.DistanceLab(candidate)
		if bestDist < 0 || d < bestDist {
			best = uint8(i)
			bestDist = d
		}
	}
	return best
}

// Colors exports the palette as a color.Palette for image encoding. Slot 0
// comes out fully transparent.
func (p *Palette) Colors() color.Palette {
	out := make(color.Palette, Size)
	out[0] = color.RGBA{}
	for i := 1; i < Size; i++ {
		out[i] = p.colors[i]
	}
	return out
}
