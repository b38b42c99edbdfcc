// Package history provides the delta-based undo/redo engine for sprited.
//
// The engine records reversible edits (deltas) rather than full canvas
// snapshots, bounds its memory footprint by evicting the oldest entries,
// and lazily byte-compresses entries far behind the cursor.
//
// # Commands
//
// A Command is a reversible edit over an indexed-color canvas:
//   - PixelDelta: a single pixel change
//   - LineDelta: a stroke of pixels painted one color, each remembering the
//     color it replaced
//   - RegionDelta: a bounded fill stored as a dense sentinel grid
//   - Composite: an ordered group undone in reverse order
//
// The command set is closed: the interface carries an unexported method so
// the wire schema in the codec package stays in one place.
//
// # The log
//
// Store keeps a single command log with a cursor. Entries at or before the
// cursor are applied; entries beyond it are the redo branch, destroyed by
// the next Push. When the log outgrows its cap the oldest entry is evicted.
// After every Push, entries more than the compression age behind the cursor
// are packed via zlib; they unpack transparently when undo or redo reaches
// them again.
//
//	store := history.NewStore(0, 0) // default cap 100, compression age 20
//
//	// The interactive layer applies the edit, then records it:
//	canvas.SetColorIndex(2, 2, 5)
//	store.Push(history.NewPixelDelta(2, 2, 0, 5))
//
//	store.Undo(canvas) // (true, nil) and the pixel is 0 again
//	store.Redo(canvas) // (true, nil) and the pixel is 5 again
//
// Boundary conditions (nothing to undo, nothing to redo) are reported via
// the boolean, never as errors. Errors only surface when a packed payload
// turns out to be corrupt; the cursor is left untouched in that case.
//
// # Strokes
//
// BeginBatch and EndBatch collapse the pushes of one drag stroke into a
// single Composite so the whole stroke undoes with one step.
package history
