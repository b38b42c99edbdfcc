package codec

import (
	"errors"
	"testing"
	"time"
)

func TestPixelRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		p    PixelPayload
	}{
		{"origin", PixelPayload{X: 0, Y: 0, OldColor: 0, NewColor: 15}},
		{"interior", PixelPayload{X: 7, Y: 3, OldColor: 5, NewColor: 9}},
		{"negative coords", PixelPayload{X: -2, Y: -8, OldColor: 1, NewColor: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePixel(EncodePixel(tt.p))
			if err != nil {
				t.Fatalf("DecodePixel failed: %v", err)
			}
			if got != tt.p {
				t.Errorf("got %+v, want %+v", got, tt.p)
			}
		})
	}
}

func TestLineRoundTrip(t *testing.T) {
	p := LinePayload{
		Pixels:   [][3]int{{0, 0, 3}, {1, 0, 0}, {1, 1, 15}, {0, 0, 7}},
		NewColor: 12,
	}

	got, err := DecodeLine(EncodeLine(p))
	if err != nil {
		t.Fatalf("DecodeLine failed: %v", err)
	}
	if got.NewColor != p.NewColor {
		t.Errorf("new color = %d, want %d", got.NewColor, p.NewColor)
	}
	if len(got.Pixels) != len(p.Pixels) {
		t.Fatalf("got %d pixels, want %d", len(got.Pixels), len(p.Pixels))
	}
	for i, px := range p.Pixels {
		if got.Pixels[i] != px {
			t.Errorf("pixel %d = %v, want %v", i, got.Pixels[i], px)
		}
	}
}

func TestLineRoundTripEmpty(t *testing.T) {
	got, err := DecodeLine(EncodeLine(LinePayload{NewColor: 4}))
	if err != nil {
		t.Fatalf("DecodeLine failed: %v", err)
	}
	if len(got.Pixels) != 0 {
		t.Errorf("got %d pixels, want 0", len(got.Pixels))
	}
}

func TestRegionRoundTrip(t *testing.T) {
	p := RegionPayload{
		Region:   [4]int{2, 1, 3, 2},
		OldData:  []int{0, Sentinel, 5, Sentinel, 7, 15},
		NewColor: 9,
	}

	got, err := DecodeRegion(EncodeRegion(p))
	if err != nil {
		t.Fatalf("DecodeRegion failed: %v", err)
	}
	if got.Region != p.Region || got.NewColor != p.NewColor {
		t.Errorf("got %+v, want %+v", got, p)
	}
	for i, v := range p.OldData {
		if got.OldData[i] != v {
			t.Errorf("cell %d = %d, want %d", i, got.OldData[i], v)
		}
	}
}

func TestRegionCellCountMismatch(t *testing.T) {
	p := RegionPayload{Region: [4]int{0, 0, 2, 2}, OldData: []int{1, 2, 3}, NewColor: 1}
	if _, err := DecodeRegion(EncodeRegion(p)); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("got %v, want ErrCorruptPayload", err)
	}
}

func TestCompositeRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	children := []ChildBlob{
		{Kind: KindPixel, Timestamp: ts, Packed: Pack(EncodePixel(PixelPayload{X: 1, Y: 1, NewColor: 5}))},
		{Kind: KindLine, Timestamp: ts.Add(time.Second), Packed: Pack(EncodeLine(LinePayload{NewColor: 2}))},
		{Kind: KindComposite, Timestamp: ts.Add(2 * time.Second), Packed: Pack(EncodeComposite(nil))},
	}

	got, err := DecodeComposite(EncodeComposite(children))
	if err != nil {
		t.Fatalf("DecodeComposite failed: %v", err)
	}
	if len(got) != len(children) {
		t.Fatalf("got %d children, want %d", len(got), len(children))
	}
	for i, want := range children {
		if got[i].Kind != want.Kind {
			t.Errorf("child %d kind = %q, want %q", i, got[i].Kind, want.Kind)
		}
		if !got[i].Timestamp.Equal(want.Timestamp) {
			t.Errorf("child %d timestamp = %v, want %v", i, got[i].Timestamp, want.Timestamp)
		}
		if string(got[i].Packed) != string(want.Packed) {
			t.Errorf("child %d blob differs", i)
		}
	}
}

func TestDecodeBadVersion(t *testing.T) {
	b := EncodePixel(PixelPayload{X: 1, Y: 2})
	b[0] = 99
	if _, err := DecodePixel(b); !errors.Is(err, ErrBadVersion) {
		t.Errorf("got %v, want ErrBadVersion", err)
	}
}

func TestDecodeWrongTag(t *testing.T) {
	if _, err := DecodeLine(EncodePixel(PixelPayload{})); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("got %v, want ErrCorruptPayload", err)
	}
}

// A corrupt count must be rejected before it sizes an allocation: a blob
// claiming 2^32-1 children would otherwise request hundreds of gigabytes and
// take the process down instead of failing that one command.
func TestDecodeCompositeHugeCount(t *testing.T) {
	blob := []byte{payloadVersion, tagComposite, 0xFF, 0xFF, 0xFF, 0xFF}
	if _, err := DecodeComposite(blob); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("got %v, want ErrCorruptPayload", err)
	}

	// A count only slightly beyond the available bytes is rejected too.
	short := []byte{payloadVersion, tagComposite, 2, 0, 0, 0}
	short = append(short, make([]byte, 13)...)
	if _, err := DecodeComposite(short); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("got %v, want ErrCorruptPayload", err)
	}
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		name string
		b    []byte
	}{
		{"empty", nil},
		{"header only", []byte{payloadVersion, tagPixel}},
		{"short pixel", EncodePixel(PixelPayload{})[:6]},
		{"short line", EncodeLine(LinePayload{Pixels: [][3]int{{1, 2, 3}}})[:9]},
		{"short composite", EncodeComposite([]ChildBlob{{Kind: KindPixel, Packed: []byte{1, 2, 3}}})[:10]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			switch {
			case len(tt.b) > 1 && tt.b[1] == tagLine:
				_, err = DecodeLine(tt.b)
			case len(tt.b) > 1 && tt.b[1] == tagComposite:
				_, err = DecodeComposite(tt.b)
			default:
				_, err = DecodePixel(tt.b)
			}
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	payload := EncodeRegion(RegionPayload{
		Region:   [4]int{0, 0, 2, 2},
		OldData:  []int{1, Sentinel, Sentinel, 4},
		NewColor: 7,
	})

	got, err := Unpack(Pack(payload))
	if err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if string(got) != string(payload) {
		t.Error("round trip changed payload")
	}
}

func TestUnpackCorrupt(t *testing.T) {
	if _, err := Unpack([]byte("not zlib data")); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("got %v, want ErrCorruptPayload", err)
	}

	blob := Pack([]byte("payload"))
	blob[len(blob)-1] ^= 0xFF
	if _, err := Unpack(blob); !errors.Is(err, ErrCorruptPayload) {
		t.Errorf("got %v, want ErrCorruptPayload", err)
	}
}
