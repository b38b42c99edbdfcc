package grid

import (
	"image"
	"image/color"
	"testing"
)

func TestNewClampsDimensions(t *testing.T) {
	g := New(-3, 5)
	if g.Width() != 0 || g.Height() != 5 {
		t.Errorf("got %dx%d, want 0x5", g.Width(), g.Height())
	}
	if len(g.Pix()) != 0 {
		t.Errorf("backing slice has %d cells, want 0", len(g.Pix()))
	}
}

func TestOutOfBoundsAccess(t *testing.T) {
	g := New(4, 4)
	g.Fill(7)

	tests := []struct{ x, y int }{
		{-1, 0}, {0, -1}, {4, 0}, {0, 4}, {100, 100},
	}
	for _, tt := range tests {
		if got := g.ColorIndexAt(tt.x, tt.y); got != 0 {
			t.Errorf("ColorIndexAt(%d,%d) = %d, want 0", tt.x, tt.y, got)
		}
		g.SetColorIndex(tt.x, tt.y, 9)
	}

	for i, v := range g.Pix() {
		if v != 7 {
			t.Fatalf("cell %d = %d, out-of-bounds write leaked in", i, v)
		}
	}
}

func TestSetAndGetRoundTrip(t *testing.T) {
	g := New(3, 2)
	g.SetColorIndex(2, 1, 15)
	if got := g.ColorIndexAt(2, 1); got != 15 {
		t.Errorf("got %d, want 15", got)
	}
	if got := g.ColorIndexAt(1, 2); got != 0 {
		t.Errorf("transposed read = %d, want 0", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := New(4, 4)
	g.SetColorIndex(1, 1, 5)

	dup := g.Clone()
	if !g.Equal(dup) {
		t.Fatal("clone differs from original")
	}

	dup.SetColorIndex(1, 1, 9)
	if g.ColorIndexAt(1, 1) != 5 {
		t.Error("mutating the clone changed the original")
	}
	if g.Equal(dup) {
		t.Error("grids should differ after the clone was edited")
	}
}

func TestEqual(t *testing.T) {
	a, b := New(4, 4), New(4, 4)
	if !a.Equal(b) {
		t.Error("blank same-size grids should be equal")
	}
	if a.Equal(nil) {
		t.Error("nil is never equal")
	}
	if a.Equal(New(4, 5)) {
		t.Error("different sizes are never equal")
	}
}

func TestRegionGeometry(t *testing.T) {
	r := Region{X: 2, Y: 3, W: 4, H: 2}
	if r.Empty() || r.Area() != 8 {
		t.Errorf("region %+v: empty=%v area=%d", r, r.Empty(), r.Area())
	}
	if !r.Contains(2, 3) || !r.Contains(5, 4) {
		t.Error("corner cells should be inside")
	}
	if r.Contains(6, 3) || r.Contains(2, 5) {
		t.Error("cells past the far edge should be outside")
	}

	if !(Region{W: 0, H: 5}).Empty() || (Region{W: 0, H: 5}).Area() != 0 {
		t.Error("zero-width region should be empty with area 0")
	}
}

func TestRegionClamp(t *testing.T) {
	tests := []struct {
		name string
		in   Region
		want Region
	}{
		{"inside", Region{X: 1, Y: 1, W: 2, H: 2}, Region{X: 1, Y: 1, W: 2, H: 2}},
		{"overhang", Region{X: 6, Y: 6, W: 4, H: 4}, Region{X: 6, Y: 6, W: 2, H: 2}},
		{"negative origin", Region{X: -2, Y: -2, W: 5, H: 5}, Region{X: 0, Y: 0, W: 3, H: 3}},
		{"disjoint", Region{X: 20, Y: 20, W: 4, H: 4}, Region{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.Clamp(8, 8); got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestBound(t *testing.T) {
	pts := []image.Point{{X: 3, Y: 1}, {X: 1, Y: 4}, {X: 2, Y: 2}}
	want := Region{X: 1, Y: 1, W: 3, H: 4}
	if got := Bound(pts); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got := Bound(nil); !got.Empty() {
		t.Errorf("empty point list bound = %+v", got)
	}
}

func TestFromImagePaletted(t *testing.T) {
	pal := color.Palette{
		color.RGBA{},
		color.RGBA{R: 0xFF, A: 0xFF},
		color.RGBA{G: 0xFF, A: 0xFF},
	}
	pm := image.NewPaletted(image.Rect(2, 2, 6, 5), pal)
	pm.SetColorIndex(3, 3, 1)
	pm.SetColorIndex(5, 4, 2)

	g, got := FromImage(pm)
	if g.Width() != 4 || g.Height() != 3 {
		t.Fatalf("got %dx%d, want 4x3", g.Width(), g.Height())
	}
	if len(got) != len(pal) {
		t.Errorf("palette has %d colors, want %d", len(got), len(pal))
	}
	if g.ColorIndexAt(1, 1) != 1 || g.ColorIndexAt(3, 2) != 2 {
		t.Error("pixels lost their indices; bounds offset not applied")
	}
}

func TestFromImageQuantizes(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 0xFF})
		}
	}

	g, pal := FromImage(img)
	if g.Width() != 8 || g.Height() != 8 {
		t.Fatalf("got %dx%d, want 8x8", g.Width(), g.Height())
	}
	if len(pal) > MaxIndex+1 {
		t.Errorf("quantized palette has %d colors, want at most %d", len(pal), MaxIndex+1)
	}
	for i, v := range g.Pix() {
		if int(v) >= len(pal) {
			t.Fatalf("cell %d holds index %d past the %d-color palette", i, v, len(pal))
		}
	}
}

func TestToPalettedRoundTrip(t *testing.T) {
	g := New(4, 3)
	g.SetColorIndex(0, 0, 1)
	g.SetColorIndex(3, 2, 2)

	pal := color.Palette{color.RGBA{}, color.RGBA{R: 0xFF, A: 0xFF}, color.RGBA{B: 0xFF, A: 0xFF}}
	pm := g.ToPaletted(pal)

	back, _ := FromImage(pm)
	if !g.Equal(back) {
		t.Error("grid changed across the image round trip")
	}
}

func TestWrapPaletted(t *testing.T) {
	pm := image.NewPaletted(image.Rect(3, 3, 7, 7), color.Palette{color.RGBA{}, color.RGBA{R: 0xFF, A: 0xFF}})
	w := WrapPaletted(pm)

	if w.Width() != 4 || w.Height() != 4 {
		t.Fatalf("got %dx%d, want 4x4", w.Width(), w.Height())
	}

	w.SetColorIndex(0, 0, 1)
	if pm.ColorIndexAt(3, 3) != 1 {
		t.Error("grid-coordinate write missed the image origin")
	}
	if w.ColorIndexAt(0, 0) != 1 {
		t.Error("grid-coordinate read missed the image origin")
	}
}
