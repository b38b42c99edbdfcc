package engine

import (
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/dquill/sprited/internal/engine/grid"
)

func TestNewDefaults(t *testing.T) {
	e := New()
	if e.Width() != DefaultWidth || e.Height() != DefaultHeight {
		t.Errorf("got %dx%d, want %dx%d", e.Width(), e.Height(), DefaultWidth, DefaultHeight)
	}
	if e.ID() == "" {
		t.Error("session id should be generated")
	}
	if e.Palette() == nil {
		t.Error("palette should default")
	}
}

func TestNewOptions(t *testing.T) {
	e := New(WithGridSize(16, 24), WithSessionID("test-session"))
	if e.Width() != 16 || e.Height() != 24 {
		t.Errorf("got %dx%d, want 16x24", e.Width(), e.Height())
	}
	if e.ID() != "test-session" {
		t.Errorf("id = %q", e.ID())
	}
}

func TestPaintPixel(t *testing.T) {
	e := New(WithGridSize(8, 8))

	if err := e.PaintPixel(2, 2, 5); err != nil {
		t.Fatalf("PaintPixel failed: %v", err)
	}
	if got := e.ColorIndexAt(2, 2); got != 5 {
		t.Errorf("got %d, want 5", got)
	}

	if err := e.PaintPixel(2, 2, 20); !errors.Is(err, ErrBadIndex) {
		t.Errorf("got %v, want ErrBadIndex", err)
	}
	if err := e.PaintPixel(9, 9, 1); !errors.Is(err, ErrOutOfCanvas) {
		t.Errorf("got %v, want ErrOutOfCanvas", err)
	}
}

// Repainting a pixel with its current color records no undo step.
func TestPaintPixelNoOp(t *testing.T) {
	e := New(WithGridSize(8, 8))
	if err := e.PaintPixel(1, 1, 0); err != nil {
		t.Fatalf("PaintPixel failed: %v", err)
	}
	if e.CanUndo() {
		t.Error("same-color paint should record nothing")
	}
}

func TestPaintUndoRedo(t *testing.T) {
	e := New(WithGridSize(8, 8))

	if err := e.PaintPixel(3, 3, 7); err != nil {
		t.Fatalf("PaintPixel failed: %v", err)
	}

	if ok, err := e.Undo(); !ok || err != nil {
		t.Fatalf("Undo = (%v, %v)", ok, err)
	}
	if got := e.ColorIndexAt(3, 3); got != 0 {
		t.Errorf("after undo: %d, want 0", got)
	}

	if ok, err := e.Redo(); !ok || err != nil {
		t.Fatalf("Redo = (%v, %v)", ok, err)
	}
	if got := e.ColorIndexAt(3, 3); got != 7 {
		t.Errorf("after redo: %d, want 7", got)
	}
}

func TestPaintLine(t *testing.T) {
	e := New(WithGridSize(8, 8))

	pts := []image.Point{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 50, Y: 50}}
	if err := e.PaintLine(pts, 4); err != nil {
		t.Fatalf("PaintLine failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		if got := e.ColorIndexAt(i, i); got != 4 {
			t.Errorf("pixel (%d,%d) = %d, want 4", i, i, got)
		}
	}

	// The whole stroke is one undo step.
	if ok, err := e.Undo(); !ok || err != nil {
		t.Fatalf("Undo = (%v, %v)", ok, err)
	}
	if !e.Snapshot().Equal(grid.New(8, 8)) {
		t.Error("one undo should erase the whole stroke")
	}
}

func TestPaintLineAllOutOfBounds(t *testing.T) {
	e := New(WithGridSize(8, 8))
	if err := e.PaintLine([]image.Point{{X: -1, Y: 0}, {X: 8, Y: 8}}, 4); err != nil {
		t.Fatalf("PaintLine failed: %v", err)
	}
	if e.CanUndo() {
		t.Error("fully clipped stroke should record nothing")
	}
}

func TestPaintRegion(t *testing.T) {
	e := New(WithGridSize(8, 8))

	r := grid.Region{X: 1, Y: 1, W: 3, H: 3}
	cells := []image.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	if err := e.PaintRegion(r, cells, 6); err != nil {
		t.Fatalf("PaintRegion failed: %v", err)
	}
	for _, pt := range cells {
		if got := e.ColorIndexAt(pt.X, pt.Y); got != 6 {
			t.Errorf("cell (%d,%d) = %d, want 6", pt.X, pt.Y, got)
		}
	}
	if got := e.ColorIndexAt(2, 1); got != 0 {
		t.Errorf("unlisted cell = %d, want 0", got)
	}

	if ok, err := e.Undo(); !ok || err != nil {
		t.Fatalf("Undo = (%v, %v)", ok, err)
	}
	if !e.Snapshot().Equal(grid.New(8, 8)) {
		t.Error("undo should clear the fill")
	}
}

func TestStrokeBatching(t *testing.T) {
	e := New(WithGridSize(8, 8))

	e.BeginStroke()
	for i := 0; i < 4; i++ {
		if err := e.PaintPixel(i, 0, 3); err != nil {
			t.Fatalf("PaintPixel failed: %v", err)
		}
	}
	e.EndStroke()

	if ok, err := e.Undo(); !ok || err != nil {
		t.Fatalf("Undo = (%v, %v)", ok, err)
	}
	if !e.Snapshot().Equal(grid.New(8, 8)) {
		t.Error("the stroke should undo as one step")
	}
	if e.CanUndo() {
		t.Error("nothing should remain to undo")
	}
}

func TestCancelStroke(t *testing.T) {
	e := New(WithGridSize(8, 8))

	e.BeginStroke()
	if err := e.PaintPixel(5, 5, 9); err != nil {
		t.Fatalf("PaintPixel failed: %v", err)
	}
	e.CancelStroke()

	if e.CanUndo() {
		t.Error("cancelled stroke should record nothing")
	}
	if got := e.ColorIndexAt(5, 5); got != 9 {
		t.Errorf("painted pixel = %d, want 9 to stay", got)
	}
}

func TestSaveLoadHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	e := New(WithGridSize(8, 8), WithSessionID("round-trip"))
	if err := e.PaintPixel(1, 1, 5); err != nil {
		t.Fatalf("PaintPixel failed: %v", err)
	}
	if err := e.PaintLine([]image.Point{{X: 2, Y: 2}, {X: 3, Y: 2}}, 7); err != nil {
		t.Fatalf("PaintLine failed: %v", err)
	}
	if err := e.SaveHistory(path); err != nil {
		t.Fatalf("SaveHistory failed: %v", err)
	}

	restored := New(WithGridSize(8, 8))
	n, err := restored.LoadHistory(path)
	if err != nil {
		t.Fatalf("LoadHistory failed: %v", err)
	}
	if n != 2 {
		t.Errorf("restored %d commands, want 2", n)
	}
	if !restored.CanUndo() || restored.CanRedo() {
		t.Error("loaded history should sit at its end")
	}

	// Redo from the start reproduces the saved session's canvas.
	for restored.CanUndo() {
		if _, err := restored.Undo(); err != nil {
			t.Fatalf("Undo failed: %v", err)
		}
	}
	for restored.CanRedo() {
		if _, err := restored.Redo(); err != nil {
			t.Fatalf("Redo failed: %v", err)
		}
	}
	if !restored.Snapshot().Equal(e.Snapshot()) {
		t.Error("replayed canvas diverged from the saved session")
	}
}

func TestApplyHistoryPolicy(t *testing.T) {
	e := New(WithGridSize(8, 8), WithMaxCommands(100), WithCompressionAge(50))

	for i := 0; i < 10; i++ {
		if err := e.PaintPixel(i%8, i/8, uint8(i%15+1)); err != nil {
			t.Fatalf("PaintPixel failed: %v", err)
		}
	}

	e.ApplyHistoryPolicy(4, 1)
	stats := e.MemoryUsage()
	if stats.CommandCount != 4 {
		t.Errorf("command count = %d, want 4 after shrink", stats.CommandCount)
	}
	if stats.CompressedCount == 0 {
		t.Error("tightened age should have packed old entries")
	}
}

func TestClearHistory(t *testing.T) {
	e := New(WithGridSize(8, 8))
	if err := e.PaintPixel(1, 1, 2); err != nil {
		t.Fatalf("PaintPixel failed: %v", err)
	}
	e.ClearHistory()
	if e.CanUndo() || e.CanRedo() {
		t.Error("cleared history should be empty")
	}
	if got := e.ColorIndexAt(1, 1); got != 2 {
		t.Errorf("clear touched the canvas: pixel = %d", got)
	}
}
