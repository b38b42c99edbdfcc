package history

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dquill/sprited/internal/engine/codec"
	"github.com/dquill/sprited/internal/engine/grid"
	"github.com/dquill/sprited/internal/logger"
)

// FromRecord reconstructs a command from its persisted form. A compressed
// record comes back in the compressed state; corruption inside its blob
// only surfaces when the command is next used.
func FromRecord(rec codec.Record) (Command, error) {
	if !rec.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", codec.ErrUnknownKind, rec.Type)
	}

	ts := rec.Timestamp.UTC()
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	if rec.Compressed {
		packed, err := rec.PackedBytes()
		if err != nil {
			return nil, err
		}
		return fromPacked(rec.Type, ts, packed)
	}

	switch rec.Type {
	case codec.KindPixel:
		var p codec.PixelPayload
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: pixel data: %v", codec.ErrMalformedRecord, err)
		}
		if !validIndex(p.OldColor) || !validIndex(p.NewColor) {
			return nil, fmt.Errorf("%w: pixel color out of range", codec.ErrMalformedRecord)
		}
		d := NewPixelDelta(p.X, p.Y, uint8(p.OldColor), uint8(p.NewColor))
		d.ts = ts
		return d, nil

	case codec.KindLine:
		var p codec.LinePayload
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: line data: %v", codec.ErrMalformedRecord, err)
		}
		if !validIndex(p.NewColor) {
			return nil, fmt.Errorf("%w: line color out of range", codec.ErrMalformedRecord)
		}
		pixels := make([]LinePixel, len(p.Pixels))
		for i, px := range p.Pixels {
			if !validIndex(px[2]) {
				return nil, fmt.Errorf("%w: line pixel %d color out of range", codec.ErrMalformedRecord, i)
			}
			pixels[i] = LinePixel{X: px[0], Y: px[1], Old: uint8(px[2])}
		}
		d := NewLineDelta(pixels, uint8(p.NewColor))
		d.ts = ts
		return d, nil

	case codec.KindRegion:
		var p codec.RegionPayload
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: region data: %v", codec.ErrMalformedRecord, err)
		}
		r := grid.Region{X: p.Region[0], Y: p.Region[1], W: p.Region[2], H: p.Region[3]}
		if r.W < 0 || r.H < 0 || len(p.OldData) != r.W*r.H {
			return nil, fmt.Errorf("%w: region %dx%d with %d cells", codec.ErrMalformedRecord, r.W, r.H, len(p.OldData))
		}
		if !validIndex(p.NewColor) {
			return nil, fmt.Errorf("%w: region color out of range", codec.ErrMalformedRecord)
		}
		old := make([]byte, len(p.OldData))
		for i, v := range p.OldData {
			if v != codec.Sentinel && !validIndex(v) {
				return nil, fmt.Errorf("%w: region cell %d out of range", codec.ErrMalformedRecord, i)
			}
			old[i] = byte(v)
		}
		d := NewRegionDelta(r, old, uint8(p.NewColor))
		d.ts = ts
		return d, nil

	case codec.KindComposite:
		var p codec.CompositePayload
		if err := json.Unmarshal(rec.Data, &p); err != nil {
			return nil, fmt.Errorf("%w: composite data: %v", codec.ErrMalformedRecord, err)
		}
		g := &Composite{ts: ts}
		for i, childRec := range p.Commands {
			child, err := FromRecord(childRec)
			if err != nil {
				// A bad child is dropped on its own, like a bad
				// top-level record.
				logger.Warnf("history: skipping composite child %d: %v", i, err)
				continue
			}
			g.children = append(g.children, child)
		}
		return g, nil

	default:
		return nil, fmt.Errorf("%w: %q", codec.ErrUnknownKind, rec.Type)
	}
}

func validIndex(v int) bool { return v >= 0 && v <= grid.MaxIndex }
