package codec

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// Pack byte-compresses an encoded payload for long-term storage.
func Pack(payload []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(payload) // writing to a bytes.Buffer cannot fail
	_ = zw.Close()
	return buf.Bytes()
}

// Unpack reverses Pack. A blob that does not decompress cleanly reports
// ErrCorruptPayload.
func Unpack(blob []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptPayload, err)
	}
	return payload, nil
}
