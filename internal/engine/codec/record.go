package codec

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

// Kind identifies a command variant on the wire. The values are part of the
// saved-history format and must never change.
type Kind string

// Known command kinds.
const (
	KindPixel     Kind = "PixelDelta"
	KindLine      Kind = "LineDelta"
	KindRegion    Kind = "RegionDelta"
	KindComposite Kind = "Composite"
)

// Valid reports whether k is a known command kind.
func (k Kind) Valid() bool {
	switch k {
	case KindPixel, KindLine, KindRegion, KindComposite:
		return true
	}
	return false
}

// Record is the persisted form of a single command.
//
// Exactly one of Data and CompressedData is populated: Data carries the
// typed payload as JSON while the command is uncompressed, CompressedData
// carries the hex-encoded packed payload otherwise.
type Record struct {
	Type           Kind            `json:"type"`
	Timestamp      time.Time       `json:"timestamp"`
	Compressed     bool            `json:"compressed"`
	Data           json.RawMessage `json:"data,omitempty"`
	CompressedData string          `json:"compressed_data,omitempty"`
}

// PackedBytes returns the decoded packed payload of a compressed record.
func (r Record) PackedBytes() ([]byte, error) {
	b, err := hex.DecodeString(r.CompressedData)
	if err != nil {
		return nil, fmt.Errorf("%w: compressed_data is not hex", ErrMalformedRecord)
	}
	return b, nil
}

// PixelPayload is the typed payload for a single-pixel delta.
type PixelPayload struct {
	X        int `json:"x"`
	Y        int `json:"y"`
	OldColor int `json:"old_color"`
	NewColor int `json:"new_color"`
}

// LinePayload is the typed payload for a multi-pixel stroke delta. Each
// entry of Pixels is an [x, y, old_color] triple in paint order.
type LinePayload struct {
	Pixels   [][3]int `json:"pixels"`
	NewColor int      `json:"new_color"`
}

// RegionPayload is the typed payload for a bounded-region delta. Region is
// [x, y, w, h]; OldData is the row-major w*h grid of prior indices where
// Sentinel marks a cell the edit did not touch.
type RegionPayload struct {
	Region   [4]int `json:"region"`
	OldData  []int  `json:"old_data"`
	NewColor int    `json:"new_color"`
}

// CompositePayload is the typed payload for a command group.
type CompositePayload struct {
	Commands []Record `json:"commands"`
}

// DecodeRecord parses a single persisted record leniently. It validates the
// envelope fields so a corrupt record can be dropped on its own without
// failing sibling records; payload validation happens when the record is
// turned back into a command.
func DecodeRecord(raw []byte) (Record, error) {
	if !gjson.ValidBytes(raw) {
		return Record{}, fmt.Errorf("%w: invalid JSON", ErrMalformedRecord)
	}
	doc := gjson.ParseBytes(raw)

	kind := Kind(doc.Get("type").String())
	if !kind.Valid() {
		return Record{}, fmt.Errorf("%w: %q", ErrUnknownKind, doc.Get("type").String())
	}

	rec := Record{Type: kind, Compressed: doc.Get("compressed").Bool()}

	if ts := doc.Get("timestamp"); ts.Exists() {
		parsed, err := time.Parse(time.RFC3339Nano, ts.String())
		if err != nil {
			return Record{}, fmt.Errorf("%w: bad timestamp %q", ErrMalformedRecord, ts.String())
		}
		rec.Timestamp = parsed.UTC()
	}

	if rec.Compressed {
		blob := doc.Get("compressed_data")
		if !blob.Exists() {
			return Record{}, fmt.Errorf("%w: compressed record without compressed_data", ErrMalformedRecord)
		}
		if _, err := hex.DecodeString(blob.String()); err != nil {
			return Record{}, fmt.Errorf("%w: compressed_data is not hex", ErrMalformedRecord)
		}
		rec.CompressedData = blob.String()
		return rec, nil
	}

	data := doc.Get("data")
	if !data.Exists() {
		return Record{}, fmt.Errorf("%w: record without data", ErrMalformedRecord)
	}
	rec.Data = json.RawMessage(data.Raw)
	return rec, nil
}
