package engine

import (
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/dquill/sprited/internal/engine/codec"
	"github.com/dquill/sprited/internal/engine/grid"
	"github.com/dquill/sprited/internal/engine/history"
	"github.com/dquill/sprited/internal/engine/palette"
	"github.com/dquill/sprited/internal/persist"
)

// Engine is the editing-session facade: one canvas, its palette, and the
// undo/redo log behind a single lock.
type Engine struct {
	mu sync.RWMutex

	id   string
	grid *grid.Grid
	pal  *palette.Palette
	hist *history.Store
}

// New creates an engine with a blank canvas.
func New(opts ...Option) *Engine {
	cfg := settings{width: DefaultWidth, height: DefaultHeight}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		id:   cfg.sessionID,
		grid: grid.New(cfg.width, cfg.height),
		pal:  cfg.pal,
		hist: history.NewStore(cfg.maxCommands, cfg.compressionAge),
	}
	if e.id == "" {
		e.id = uuid.New().String()
	}
	if e.pal == nil {
		e.pal = palette.Default()
	}
	return e
}

// ID returns the session identifier.
func (e *Engine) ID() string { return e.id }

// Width returns the canvas width in pixels.
func (e *Engine) Width() int { return e.grid.Width() }

// Height returns the canvas height in pixels.
func (e *Engine) Height() int { return e.grid.Height() }

// Palette returns the session palette.
func (e *Engine) Palette() *palette.Palette { return e.pal }

// ColorIndexAt returns the palette index at (x, y).
func (e *Engine) ColorIndexAt(x, y int) uint8 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grid.ColorIndexAt(x, y)
}

// Snapshot returns a copy of the current canvas.
func (e *Engine) Snapshot() *grid.Grid {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.grid.Clone()
}

// PaintPixel sets one pixel and records the change. Painting a pixel with
// its current color records nothing.
func (e *Engine) PaintPixel(x, y int, index uint8) error {
	if index > grid.MaxIndex {
		return ErrBadIndex
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if x < 0 || x >= e.grid.Width() || y < 0 || y >= e.grid.Height() {
		return ErrOutOfCanvas
	}

	old := e.grid.ColorIndexAt(x, y)
	if old == index {
		return nil
	}
	return e.hist.Execute(history.NewPixelDelta(x, y, old, index), e.grid)
}

// PaintLine paints every listed point with index and records one stroke
// delta. Points keep their paint order; out-of-canvas points are dropped.
func (e *Engine) PaintLine(points []image.Point, index uint8) error {
	if index > grid.MaxIndex {
		return ErrBadIndex
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	pixels := make([]history.LinePixel, 0, len(points))
	for _, pt := range points {
		if pt.X < 0 || pt.X >= e.grid.Width() || pt.Y < 0 || pt.Y >= e.grid.Height() {
			continue
		}
		pixels = append(pixels, history.LinePixel{X: pt.X, Y: pt.Y, Old: e.grid.ColorIndexAt(pt.X, pt.Y)})
	}
	if len(pixels) == 0 {
		return nil
	}
	return e.hist.Execute(history.NewLineDelta(pixels, index), e.grid)
}

// PaintRegion fills the given cells with index and records one region delta
// bounded by r. Cells outside r or the canvas are ignored.
func (e *Engine) PaintRegion(r grid.Region, cells []image.Point, index uint8) error {
	if index > grid.MaxIndex {
		return ErrBadIndex
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	r = r.Clamp(e.grid.Width(), e.grid.Height())
	if r.Empty() {
		return nil
	}

	old := make([]byte, r.Area())
	for i := range old {
		old[i] = codec.Sentinel
	}
	touched := false
	for _, pt := range cells {
		if !r.Contains(pt.X, pt.Y) {
			continue
		}
		old[(pt.Y-r.Y)*r.W+(pt.X-r.X)] = e.grid.ColorIndexAt(pt.X, pt.Y)
		touched = true
	}
	if !touched {
		return nil
	}
	return e.hist.Execute(history.NewRegionDelta(r, old, index), e.grid)
}

// BeginStroke starts collecting paint calls into one undo unit.
func (e *Engine) BeginStroke() { e.hist.BeginBatch() }

// EndStroke records the collected paint calls as a single step.
func (e *Engine) EndStroke() { e.hist.EndBatch() }

// CancelStroke drops the collected commands. The pixels already painted
// stay on the canvas.
func (e *Engine) CancelStroke() { e.hist.CancelBatch() }

// Undo reverts the last recorded step. It returns false with a nil error
// when there is nothing to undo.
func (e *Engine) Undo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Undo(e.grid)
}

// Redo re-applies the last undone step. It returns false with a nil error
// when there is nothing to redo.
func (e *Engine) Redo() (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hist.Redo(e.grid)
}

// CanUndo reports whether an undo step is available.
func (e *Engine) CanUndo() bool { return e.hist.CanUndo() }

// CanRedo reports whether a redo step is available.
func (e *Engine) CanRedo() bool { return e.hist.CanRedo() }

// MemoryUsage returns the history log's estimated footprint.
func (e *Engine) MemoryUsage() history.MemoryStats { return e.hist.MemoryUsage() }

// ClearHistory empties the undo/redo log, for a new or freshly loaded
// document.
func (e *Engine) ClearHistory() { e.hist.Clear() }

// ApplyHistoryPolicy updates the history tunables live, evicting and
// compressing as needed. Config reload feeds this.
func (e *Engine) ApplyHistoryPolicy(maxCommands, compressionAge int) {
	e.hist.SetMaxCommands(maxCommands)
	e.hist.SetCompressionAge(compressionAge)
}

// SaveHistory writes the session's command log to path.
func (e *Engine) SaveHistory(path string) error {
	records, err := e.hist.Save()
	if err != nil {
		return err
	}

	e.mu.RLock()
	env := persist.Envelope{
		Session: e.id,
		Width:   e.grid.Width(),
		Height:  e.grid.Height(),
		Records: records,
	}
	e.mu.RUnlock()

	return persist.WriteFile(path, env)
}

// LoadHistory replaces the command log with the one saved at path and
// returns the number of commands restored. The canvas is left untouched:
// the loaded history is treated as applied, so undo walks backward from the
// current pixels.
func (e *Engine) LoadHistory(path string) (int, error) {
	env, err := persist.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return e.hist.Load(env.Records), nil
}
