package history

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dquill/sprited/internal/engine/codec"
)

// Composite groups child commands into one undo unit, typically the pixels
// of a single drag stroke.
type Composite struct {
	ts       time.Time
	children []Command
	packed   []byte
}

// NewComposite creates a group from the given commands.
func NewComposite(children ...Command) *Composite {
	return &Composite{ts: time.Now().UTC(), children: children}
}

// Add appends a command to the group.
func (g *Composite) Add(cmd Command) { g.children = append(g.children, cmd) }

// Len returns the number of child commands. A compressed group reports the
// children it holds packed away as zero; callers inspecting structure
// should decompress first.
func (g *Composite) Len() int { return len(g.children) }

// Empty reports whether the group holds no children and no packed payload.
func (g *Composite) Empty() bool { return len(g.children) == 0 && g.packed == nil }

// Execute applies the children forward in list order. A child failure rolls
// back the children already applied so the canvas is left as found.
func (g *Composite) Execute(c Canvas) error {
	if err := g.Decompress(); err != nil {
		return err
	}
	for i, child := range g.children {
		if err := child.Execute(c); err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = g.children[j].Unexecute(c)
			}
			return fmt.Errorf("composite step %d: %w", i, err)
		}
	}
	return nil
}

// Unexecute reverts the children in reverse list order. Reverse order is
// required when children overlap: undoing forward would leave a later
// child's old value on a cell an earlier child also touched.
func (g *Composite) Unexecute(c Canvas) error {
	if err := g.Decompress(); err != nil {
		return err
	}
	for i := len(g.children) - 1; i >= 0; i-- {
		if err := g.children[i].Unexecute(c); err != nil {
			return fmt.Errorf("composite step %d: %w", i, err)
		}
	}
	return nil
}

// Kind returns the schema tag for command groups.
func (g *Composite) Kind() codec.Kind { return codec.KindComposite }

// Timestamp returns the creation time.
func (g *Composite) Timestamp() time.Time { return g.ts }

// Compressed reports whether the group is packed.
func (g *Composite) Compressed() bool { return g.packed != nil }

// Compress packs each child individually and then packs the group envelope
// around the children's blobs. The two-level scheme keeps every child
// independently addressable: Decompress restores the children still packed,
// and each one unpacks only when undo or redo actually reaches it.
func (g *Composite) Compress() error {
	if g.packed != nil {
		return nil
	}
	blobs := make([]codec.ChildBlob, len(g.children))
	for i, child := range g.children {
		if err := child.Compress(); err != nil {
			return fmt.Errorf("composite step %d: %w", i, err)
		}
		blobs[i] = codec.ChildBlob{Kind: child.Kind(), Timestamp: child.Timestamp(), Packed: child.packedPayload()}
	}
	g.packed = codec.Pack(codec.EncodeComposite(blobs))
	g.children = nil
	return nil
}

// Decompress restores the child list. The children come back compressed.
func (g *Composite) Decompress() error {
	if g.packed == nil {
		return nil
	}
	raw, err := codec.Unpack(g.packed)
	if err != nil {
		return err
	}
	blobs, err := codec.DecodeComposite(raw)
	if err != nil {
		return err
	}
	children := make([]Command, len(blobs))
	for i, blob := range blobs {
		child, err := fromPacked(blob.Kind, blob.Timestamp, blob.Packed)
		if err != nil {
			return err
		}
		children[i] = child
	}
	g.children = children
	g.packed = nil
	return nil
}

// MemorySize estimates the bytes held by the group and its children.
func (g *Composite) MemorySize() int {
	if g.packed != nil {
		return len(g.packed) + commandOverhead
	}
	total := commandOverhead
	for _, child := range g.children {
		total += child.MemorySize()
	}
	return total
}

// Record converts the group to its persisted form with nested child
// records.
func (g *Composite) Record() (codec.Record, error) {
	rec := codec.Record{Type: codec.KindComposite, Timestamp: g.ts, Compressed: g.packed != nil}
	if g.packed != nil {
		rec.CompressedData = hex.EncodeToString(g.packed)
		return rec, nil
	}
	payload := codec.CompositePayload{Commands: make([]codec.Record, len(g.children))}
	for i, child := range g.children {
		childRec, err := child.Record()
		if err != nil {
			return codec.Record{}, fmt.Errorf("composite step %d: %w", i, err)
		}
		payload.Commands[i] = childRec
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return codec.Record{}, err
	}
	rec.Data = data
	return rec, nil
}

func (g *Composite) packedPayload() []byte { return g.packed }
