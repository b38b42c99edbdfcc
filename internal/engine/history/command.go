package history

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dquill/sprited/internal/engine/codec"
	"github.com/dquill/sprited/internal/engine/grid"
)

// commandOverhead approximates the fixed per-command bookkeeping counted by
// MemorySize.
const commandOverhead = 64

// Command is a reversible edit over an indexed-color canvas.
//
// Every command is either Uncompressed, holding its typed payload, or
// Compressed, holding only the packed byte blob. Compress and Decompress
// flip between the two states and are no-ops when already in the target
// state. Execute and Unexecute transparently decompress first, so a packed
// command stays directly usable.
type Command interface {
	// Execute applies the edit. Out-of-bounds pixels are skipped silently;
	// the only reportable failure is a corrupt packed payload.
	Execute(c Canvas) error

	// Unexecute reverts the edit under the same error contract as Execute.
	Unexecute(c Canvas) error

	// Kind returns the schema tag identifying the variant.
	Kind() codec.Kind

	// Timestamp returns the creation time of the command.
	Timestamp() time.Time

	// Compressed reports whether the payload is currently packed.
	Compressed() bool

	// Compress packs the typed payload and drops it.
	Compress() error

	// Decompress restores the typed payload from the packed blob.
	Decompress() error

	// MemorySize estimates the bytes held by the command.
	MemorySize() int

	// Record converts the command to its persisted form.
	Record() (codec.Record, error)

	// packedPayload returns the packed blob when compressed, nil otherwise.
	// Unexported to keep the command set closed to this package.
	packedPayload() []byte
}

// fromPacked reconstructs a command of the given kind directly in the
// compressed state. Corruption in the blob surfaces on first use.
func fromPacked(kind codec.Kind, ts time.Time, packed []byte) (Command, error) {
	switch kind {
	case codec.KindPixel:
		return &PixelDelta{ts: ts, packed: packed}, nil
	case codec.KindLine:
		return &LineDelta{ts: ts, packed: packed}, nil
	case codec.KindRegion:
		return &RegionDelta{ts: ts, packed: packed}, nil
	case codec.KindComposite:
		return &Composite{ts: ts, packed: packed}, nil
	default:
		return nil, fmt.Errorf("%w: %q", codec.ErrUnknownKind, kind)
	}
}

// PixelDelta records a single pixel edit.
type PixelDelta struct {
	ts     time.Time
	x, y   int
	oldIdx uint8
	newIdx uint8
	packed []byte
}

// NewPixelDelta records that the pixel at (x, y) changed from old to new.
func NewPixelDelta(x, y int, old, new uint8) *PixelDelta {
	return &PixelDelta{ts: time.Now().UTC(), x: x, y: y, oldIdx: old, newIdx: new}
}

// Execute writes the new index at the recorded position.
func (d *PixelDelta) Execute(c Canvas) error {
	if err := d.Decompress(); err != nil {
		return err
	}
	if inBounds(c, d.x, d.y) {
		c.SetColorIndex(d.x, d.y, d.newIdx)
	}
	return nil
}

// Unexecute restores the old index at the recorded position.
func (d *PixelDelta) Unexecute(c Canvas) error {
	if err := d.Decompress(); err != nil {
		return err
	}
	if inBounds(c, d.x, d.y) {
		c.SetColorIndex(d.x, d.y, d.oldIdx)
	}
	return nil
}

// Kind returns the schema tag for pixel deltas.
func (d *PixelDelta) Kind() codec.Kind { return codec.KindPixel }

// Timestamp returns the creation time.
func (d *PixelDelta) Timestamp() time.Time { return d.ts }

// Compressed reports whether the payload is packed.
func (d *PixelDelta) Compressed() bool { return d.packed != nil }

// Compress packs the payload.
func (d *PixelDelta) Compress() error {
	if d.packed != nil {
		return nil
	}
	d.packed = codec.Pack(codec.EncodePixel(d.payload()))
	d.x, d.y, d.oldIdx, d.newIdx = 0, 0, 0, 0
	return nil
}

// Decompress restores the payload.
func (d *PixelDelta) Decompress() error {
	if d.packed == nil {
		return nil
	}
	raw, err := codec.Unpack(d.packed)
	if err != nil {
		return err
	}
	p, err := codec.DecodePixel(raw)
	if err != nil {
		return err
	}
	d.x, d.y = p.X, p.Y
	d.oldIdx, d.newIdx = uint8(p.OldColor), uint8(p.NewColor)
	d.packed = nil
	return nil
}

// MemorySize estimates the bytes held by the delta.
func (d *PixelDelta) MemorySize() int {
	if d.packed != nil {
		return len(d.packed) + commandOverhead
	}
	return 4*4 + commandOverhead
}

// Record converts the delta to its persisted form.
func (d *PixelDelta) Record() (codec.Record, error) {
	rec := codec.Record{Type: codec.KindPixel, Timestamp: d.ts, Compressed: d.packed != nil}
	if d.packed != nil {
		rec.CompressedData = hex.EncodeToString(d.packed)
		return rec, nil
	}
	data, err := json.Marshal(d.payload())
	if err != nil {
		return codec.Record{}, err
	}
	rec.Data = data
	return rec, nil
}

func (d *PixelDelta) payload() codec.PixelPayload {
	return codec.PixelPayload{X: d.x, Y: d.y, OldColor: int(d.oldIdx), NewColor: int(d.newIdx)}
}

func (d *PixelDelta) packedPayload() []byte { return d.packed }

// LinePixel is one pixel of a stroke together with the index it replaced.
type LinePixel struct {
	X, Y int
	Old  uint8
}

// LineDelta records a stroke: an ordered list of pixels painted with one
// index. The list order is paint order.
type LineDelta struct {
	ts     time.Time
	pixels []LinePixel
	newIdx uint8
	packed []byte
}

// NewLineDelta records a stroke over the given pixels. The slice is owned
// by the delta afterwards.
func NewLineDelta(pixels []LinePixel, new uint8) *LineDelta {
	return &LineDelta{ts: time.Now().UTC(), pixels: pixels, newIdx: new}
}

// Execute writes the stroke index at every recorded pixel in paint order.
func (d *LineDelta) Execute(c Canvas) error {
	if err := d.Decompress(); err != nil {
		return err
	}
	for _, px := range d.pixels {
		if inBounds(c, px.X, px.Y) {
			c.SetColorIndex(px.X, px.Y, d.newIdx)
		}
	}
	return nil
}

// Unexecute restores each pixel's recorded index in reverse paint order.
// Reverse order matters when the stroke crosses itself: the first visit of
// a repeated coordinate holds the true pre-stroke index and must win.
func (d *LineDelta) Unexecute(c Canvas) error {
	if err := d.Decompress(); err != nil {
		return err
	}
	for i := len(d.pixels) - 1; i >= 0; i-- {
		px := d.pixels[i]
		if inBounds(c, px.X, px.Y) {
			c.SetColorIndex(px.X, px.Y, px.Old)
		}
	}
	return nil
}

// Kind returns the schema tag for line deltas.
func (d *LineDelta) Kind() codec.Kind { return codec.KindLine }

// Timestamp returns the creation time.
func (d *LineDelta) Timestamp() time.Time { return d.ts }

// Compressed reports whether the payload is packed.
func (d *LineDelta) Compressed() bool { return d.packed != nil }

// Compress packs the payload and drops the pixel list.
func (d *LineDelta) Compress() error {
	if d.packed != nil {
		return nil
	}
	d.packed = codec.Pack(codec.EncodeLine(d.payload()))
	d.pixels = nil
	d.newIdx = 0
	return nil
}

// Decompress restores the pixel list.
func (d *LineDelta) Decompress() error {
	if d.packed == nil {
		return nil
	}
	raw, err := codec.Unpack(d.packed)
	if err != nil {
		return err
	}
	p, err := codec.DecodeLine(raw)
	if err != nil {
		return err
	}
	d.pixels = make([]LinePixel, len(p.Pixels))
	for i, px := range p.Pixels {
		d.pixels[i] = LinePixel{X: px[0], Y: px[1], Old: uint8(px[2])}
	}
	d.newIdx = uint8(p.NewColor)
	d.packed = nil
	return nil
}

// MemorySize estimates the bytes held by the delta.
func (d *LineDelta) MemorySize() int {
	if d.packed != nil {
		return len(d.packed) + commandOverhead
	}
	return len(d.pixels)*12 + commandOverhead
}

// Record converts the delta to its persisted form.
func (d *LineDelta) Record() (codec.Record, error) {
	rec := codec.Record{Type: codec.KindLine, Timestamp: d.ts, Compressed: d.packed != nil}
	if d.packed != nil {
		rec.CompressedData = hex.EncodeToString(d.packed)
		return rec, nil
	}
	data, err := json.Marshal(d.payload())
	if err != nil {
		return codec.Record{}, err
	}
	rec.Data = data
	return rec, nil
}

func (d *LineDelta) payload() codec.LinePayload {
	p := codec.LinePayload{NewColor: int(d.newIdx), Pixels: make([][3]int, len(d.pixels))}
	for i, px := range d.pixels {
		p.Pixels[i] = [3]int{px.X, px.Y, int(px.Old)}
	}
	return p
}

func (d *LineDelta) packedPayload() []byte { return d.packed }

// RegionDelta records a fill over a bounding rectangle. The prior indices
// are stored as a dense row-major grid where codec.Sentinel marks a cell
// the fill did not touch. A fill's changed set is usually near-convex, so
// the dense grid with a cheap sentinel beats a sparse map; the waste on
// concave fills is bounded by the box area.
type RegionDelta struct {
	ts     time.Time
	region grid.Region
	old    []byte
	newIdx uint8
	packed []byte
}

// NewRegionDelta records a fill over region. old holds the region's prior
// indices row-major (length region.W*region.H), with codec.Sentinel marking
// cells the fill skipped. The slice is owned by the delta afterwards.
func NewRegionDelta(region grid.Region, old []byte, new uint8) *RegionDelta {
	return &RegionDelta{ts: time.Now().UTC(), region: region, old: old, newIdx: new}
}

// Execute writes the fill index at every non-sentinel cell.
func (d *RegionDelta) Execute(c Canvas) error {
	if err := d.Decompress(); err != nil {
		return err
	}
	d.each(func(x, y int, _ byte) {
		c.SetColorIndex(x, y, d.newIdx)
	})
	return nil
}

// Unexecute restores the recorded index at every non-sentinel cell.
func (d *RegionDelta) Unexecute(c Canvas) error {
	if err := d.Decompress(); err != nil {
		return err
	}
	d.each(func(x, y int, old byte) {
		c.SetColorIndex(x, y, old)
	})
	return nil
}

// each visits every touched, recorded cell of the region. Sentinel cells
// are skipped in both directions.
func (d *RegionDelta) each(visit func(x, y int, old byte)) {
	for dy := 0; dy < d.region.H; dy++ {
		for dx := 0; dx < d.region.W; dx++ {
			old := d.old[dy*d.region.W+dx]
			if old == codec.Sentinel {
				continue
			}
			visit(d.region.X+dx, d.region.Y+dy, old)
		}
	}
}

// Kind returns the schema tag for region deltas.
func (d *RegionDelta) Kind() codec.Kind { return codec.KindRegion }

// Timestamp returns the creation time.
func (d *RegionDelta) Timestamp() time.Time { return d.ts }

// Compressed reports whether the payload is packed.
func (d *RegionDelta) Compressed() bool { return d.packed != nil }

// Compress packs the payload and drops the sentinel grid.
func (d *RegionDelta) Compress() error {
	if d.packed != nil {
		return nil
	}
	d.packed = codec.Pack(codec.EncodeRegion(d.payload()))
	d.region = grid.Region{}
	d.old = nil
	d.newIdx = 0
	return nil
}

// Decompress restores the sentinel grid.
func (d *RegionDelta) Decompress() error {
	if d.packed == nil {
		return nil
	}
	raw, err := codec.Unpack(d.packed)
	if err != nil {
		return err
	}
	p, err := codec.DecodeRegion(raw)
	if err != nil {
		return err
	}
	d.region = grid.Region{X: p.Region[0], Y: p.Region[1], W: p.Region[2], H: p.Region[3]}
	d.old = make([]byte, len(p.OldData))
	for i, v := range p.OldData {
		d.old[i] = byte(v)
	}
	d.newIdx = uint8(p.NewColor)
	d.packed = nil
	return nil
}

// MemorySize estimates the bytes held by the delta.
func (d *RegionDelta) MemorySize() int {
	if d.packed != nil {
		return len(d.packed) + commandOverhead
	}
	return len(d.old) + commandOverhead
}

// Record converts the delta to its persisted form.
func (d *RegionDelta) Record() (codec.Record, error) {
	rec := codec.Record{Type: codec.KindRegion, Timestamp: d.ts, Compressed: d.packed != nil}
	if d.packed != nil {
		rec.CompressedData = hex.EncodeToString(d.packed)
		return rec, nil
	}
	data, err := json.Marshal(d.payload())
	if err != nil {
		return codec.Record{}, err
	}
	rec.Data = data
	return rec, nil
}

func (d *RegionDelta) payload() codec.RegionPayload {
	p := codec.RegionPayload{
		Region:   [4]int{d.region.X, d.region.Y, d.region.W, d.region.H},
		OldData:  make([]int, len(d.old)),
		NewColor: int(d.newIdx),
	}
	for i, v := range d.old {
		p.OldData[i] = int(v)
	}
	return p
}

func (d *RegionDelta) packedPayload() []byte { return d.packed }
