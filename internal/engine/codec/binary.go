package codec

import (
	"encoding/binary"
	"fmt"
	"time"
)

// Binary payload layout, little-endian:
//
//	[0]  version
//	[1]  kind tag
//	[2:] kind-specific fields
//
// Pixel:     int32 x, int32 y, uint8 old, uint8 new
// Line:      uint8 new, uint32 n, n x (int32 x, int32 y, uint8 old)
// Region:    int32 x, int32 y, int32 w, int32 h, uint8 new,
//            uint32 n (= w*h), n bytes row-major
// Composite: uint32 n, n x (uint8 kind tag, int64 unix-nano timestamp,
//            uint32 blob length, blob), where each blob is the child's own
//            packed payload
const (
	payloadVersion = 1

	tagPixel     = 1
	tagLine      = 2
	tagRegion    = 3
	tagComposite = 4
)

// Sentinel marks a cell inside a region payload that the edit did not touch.
// Palette indices occupy 0-15, so the sentinel can never collide with one.
const Sentinel = 0xFF

func kindTag(k Kind) byte {
	switch k {
	case KindPixel:
		return tagPixel
	case KindLine:
		return tagLine
	case KindRegion:
		return tagRegion
	case KindComposite:
		return tagComposite
	}
	return 0
}

func tagKind(t byte) (Kind, bool) {
	switch t {
	case tagPixel:
		return KindPixel, true
	case tagLine:
		return KindLine, true
	case tagRegion:
		return KindRegion, true
	case tagComposite:
		return KindComposite, true
	}
	return "", false
}

func checkHeader(b []byte, tag byte) ([]byte, error) {
	if len(b) < 2 {
		return nil, fmt.Errorf("%w: payload too short", ErrCorruptPayload)
	}
	if b[0] != payloadVersion {
		return nil, fmt.Errorf("%w: version %d", ErrBadVersion, b[0])
	}
	if b[1] != tag {
		return nil, fmt.Errorf("%w: want tag %d, got %d", ErrCorruptPayload, tag, b[1])
	}
	return b[2:], nil
}

func appendInt32(b []byte, v int) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(int32(v)))
}

func readInt32(b []byte) int {
	return int(int32(binary.LittleEndian.Uint32(b)))
}

// EncodePixel encodes a single-pixel payload.
func EncodePixel(p PixelPayload) []byte {
	b := make([]byte, 0, 12)
	b = append(b, payloadVersion, tagPixel)
	b = appendInt32(b, p.X)
	b = appendInt32(b, p.Y)
	b = append(b, byte(p.OldColor), byte(p.NewColor))
	return b
}

// DecodePixel reverses EncodePixel.
func DecodePixel(b []byte) (PixelPayload, error) {
	body, err := checkHeader(b, tagPixel)
	if err != nil {
		return PixelPayload{}, err
	}
	if len(body) != 10 {
		return PixelPayload{}, fmt.Errorf("%w: pixel payload length %d", ErrCorruptPayload, len(body))
	}
	return PixelPayload{
		X:        readInt32(body),
		Y:        readInt32(body[4:]),
		OldColor: int(body[8]),
		NewColor: int(body[9]),
	}, nil
}

// EncodeLine encodes a stroke payload.
func EncodeLine(p LinePayload) []byte {
	b := make([]byte, 0, 7+9*len(p.Pixels))
	b = append(b, payloadVersion, tagLine)
	b = append(b, byte(p.NewColor))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(p.Pixels)))
	for _, px := range p.Pixels {
		b = appendInt32(b, px[0])
		b = appendInt32(b, px[1])
		b = append(b, byte(px[2]))
	}
	return b
}

// DecodeLine reverses EncodeLine.
func DecodeLine(b []byte) (LinePayload, error) {
	body, err := checkHeader(b, tagLine)
	if err != nil {
		return LinePayload{}, err
	}
	if len(body) < 5 {
		return LinePayload{}, fmt.Errorf("%w: line payload too short", ErrCorruptPayload)
	}
	p := LinePayload{NewColor: int(body[0])}
	n := int(binary.LittleEndian.Uint32(body[1:]))
	body = body[5:]
	if len(body) != 9*n {
		return LinePayload{}, fmt.Errorf("%w: line payload length %d for %d pixels", ErrCorruptPayload, len(body), n)
	}
	p.Pixels = make([][3]int, n)
	for i := 0; i < n; i++ {
		p.Pixels[i] = [3]int{readInt32(body), readInt32(body[4:]), int(body[8])}
		body = body[9:]
	}
	return p, nil
}

// EncodeRegion encodes a bounded-region payload.
func EncodeRegion(p RegionPayload) []byte {
	b := make([]byte, 0, 23+len(p.OldData))
	b = append(b, payloadVersion, tagRegion)
	for _, v := range p.Region {
		b = appendInt32(b, v)
	}
	b = append(b, byte(p.NewColor))
	b = binary.LittleEndian.AppendUint32(b, uint32(len(p.OldData)))
	for _, v := range p.OldData {
		b = append(b, byte(v))
	}
	return b
}

// DecodeRegion reverses EncodeRegion.
func DecodeRegion(b []byte) (RegionPayload, error) {
	body, err := checkHeader(b, tagRegion)
	if err != nil {
		return RegionPayload{}, err
	}
	if len(body) < 21 {
		return RegionPayload{}, fmt.Errorf("%w: region payload too short", ErrCorruptPayload)
	}
	var p RegionPayload
	for i := range p.Region {
		p.Region[i] = readInt32(body[4*i:])
	}
	p.NewColor = int(body[16])
	n := int(binary.LittleEndian.Uint32(body[17:]))
	body = body[21:]
	w, h := p.Region[2], p.Region[3]
	if w < 0 || h < 0 || n != w*h || len(body) != n {
		return RegionPayload{}, fmt.Errorf("%w: region %dx%d with %d cells", ErrCorruptPayload, w, h, len(body))
	}
	p.OldData = make([]int, n)
	for i, v := range body {
		p.OldData[i] = int(v)
	}
	return p, nil
}

// ChildBlob is one entry of a packed composite payload: a child command kept
// in its own packed form so it can be restored without unpacking it.
type ChildBlob struct {
	Kind      Kind
	Timestamp time.Time
	Packed    []byte
}

// EncodeComposite encodes a command group from its children's packed blobs.
func EncodeComposite(children []ChildBlob) []byte {
	size := 6
	for _, c := range children {
		size += 13 + len(c.Packed)
	}
	b := make([]byte, 0, size)
	b = append(b, payloadVersion, tagComposite)
	b = binary.LittleEndian.AppendUint32(b, uint32(len(children)))
	for _, c := range children {
		b = append(b, kindTag(c.Kind))
		b = binary.LittleEndian.AppendUint64(b, uint64(c.Timestamp.UnixNano()))
		b = binary.LittleEndian.AppendUint32(b, uint32(len(c.Packed)))
		b = append(b, c.Packed...)
	}
	return b
}

// DecodeComposite reverses EncodeComposite. The children come back still
// packed; each one unpacks independently on demand.
func DecodeComposite(b []byte) ([]ChildBlob, error) {
	body, err := checkHeader(b, tagComposite)
	if err != nil {
		return nil, err
	}
	if len(body) < 4 {
		return nil, fmt.Errorf("%w: composite payload too short", ErrCorruptPayload)
	}
	n := int(binary.LittleEndian.Uint32(body))
	body = body[4:]
	// Each child occupies at least 13 bytes, so a count the remaining bytes
	// cannot hold is corrupt. Checked before the allocation sized by it.
	if n > len(body)/13 {
		return nil, fmt.Errorf("%w: composite claims %d children in %d bytes", ErrCorruptPayload, n, len(body))
	}
	children := make([]ChildBlob, 0, n)
	for i := 0; i < n; i++ {
		if len(body) < 13 {
			return nil, fmt.Errorf("%w: composite child %d truncated", ErrCorruptPayload, i)
		}
		kind, ok := tagKind(body[0])
		if !ok {
			return nil, fmt.Errorf("%w: composite child %d has tag %d", ErrCorruptPayload, i, body[0])
		}
		ts := time.Unix(0, int64(binary.LittleEndian.Uint64(body[1:]))).UTC()
		blobLen := int(binary.LittleEndian.Uint32(body[9:]))
		body = body[13:]
		if blobLen < 0 || len(body) < blobLen {
			return nil, fmt.Errorf("%w: composite child %d blob truncated", ErrCorruptPayload, i)
		}
		packed := make([]byte, blobLen)
		copy(packed, body[:blobLen])
		body = body[blobLen:]
		children = append(children, ChildBlob{Kind: kind, Timestamp: ts, Packed: packed})
	}
	if len(body) != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after composite payload", ErrCorruptPayload, len(body))
	}
	return children, nil
}
