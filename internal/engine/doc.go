// Package engine provides the editing-session facade for sprited.
//
// The engine combines the pixel grid, the 16-slot palette and the
// delta-based undo/redo log into a unified, thread-safe API. It is built on
// several sub-packages:
//
//   - grid: the indexed pixel surface and region math
//   - palette: the 16-slot color table
//   - history: the command log with eviction and lazy compression
//   - codec: the wire schema for saved history
//
// # Thread Safety
//
// All Engine operations are safe for concurrent use. A read-write mutex
// serializes writes while allowing concurrent reads like ColorIndexAt or
// Snapshot.
//
// # Basic Usage
//
//	e := engine.New(engine.WithGridSize(16, 16))
//
//	e.PaintPixel(2, 2, 5)
//	e.Undo() // pixel back to 0
//	e.Redo() // pixel is 5 again
//
// # Strokes
//
// A drag stroke paints many pixels that should undo as one step:
//
//	e.BeginStroke()
//	e.PaintPixel(1, 1, 7)
//	e.PaintPixel(1, 2, 7)
//	e.EndStroke()
//
//	e.Undo() // both pixels revert together
//
// # History Persistence
//
// SaveHistory and LoadHistory move the full command log through the JSON
// envelope in internal/persist, so a crashed or closed session can pick its
// undo log back up.
package engine
