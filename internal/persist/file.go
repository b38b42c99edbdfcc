// Package persist reads and writes saved history: a JSON file envelope for
// the current document and a SQLite archive of named snapshots.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/dquill/sprited/internal/engine/codec"
	"github.com/dquill/sprited/internal/logger"
)

// EnvelopeVersion is the current history file format version.
const EnvelopeVersion = 1

// Errors returned by history file operations.
var (
	// ErrBadEnvelope indicates a history file that is not a valid envelope.
	ErrBadEnvelope = errors.New("malformed history file")

	// ErrBadVersion indicates an envelope written by an unsupported format
	// version.
	ErrBadVersion = errors.New("unsupported history file version")
)

// Envelope is the on-disk shape of a saved history.
type Envelope struct {
	Version int
	SavedAt time.Time
	Session string
	Width   int
	Height  int
	Records []codec.Record
}

// WriteFile writes the envelope as JSON, atomically via a temp file in the
// target directory. A zero SavedAt is stamped with the current time.
func WriteFile(path string, env Envelope) error {
	savedAt := env.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	records, err := json.Marshal(env.Records)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}

	doc := []byte(`{}`)
	doc, _ = sjson.SetBytes(doc, "version", EnvelopeVersion)
	doc, _ = sjson.SetBytes(doc, "saved_at", savedAt.UTC().Format(time.RFC3339Nano))
	doc, _ = sjson.SetBytes(doc, "session", env.Session)
	doc, _ = sjson.SetBytes(doc, "width", env.Width)
	doc, _ = sjson.SetBytes(doc, "height", env.Height)
	doc, err = sjson.SetRawBytes(doc, "records", records)
	if err != nil {
		return fmt.Errorf("assembling envelope: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sprited-history-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// ReadFile reads and decodes a history file.
func ReadFile(path string) (Envelope, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Envelope{}, err
	}
	return Decode(raw)
}

// Decode parses a history file envelope. The envelope itself must be well
// formed, but records that fail to parse are dropped individually with a
// diagnostic so one corrupt entry cannot take the whole history down.
func Decode(raw []byte) (Envelope, error) {
	if !gjson.ValidBytes(raw) {
		return Envelope{}, fmt.Errorf("%w: invalid JSON", ErrBadEnvelope)
	}
	doc := gjson.ParseBytes(raw)

	ver := doc.Get("version")
	if !ver.Exists() {
		return Envelope{}, fmt.Errorf("%w: missing version", ErrBadEnvelope)
	}
	if int(ver.Int()) != EnvelopeVersion {
		return Envelope{}, fmt.Errorf("%w: %d", ErrBadVersion, ver.Int())
	}

	env := Envelope{
		Version: int(ver.Int()),
		Session: doc.Get("session").String(),
		Width:   int(doc.Get("width").Int()),
		Height:  int(doc.Get("height").Int()),
	}
	if ts := doc.Get("saved_at"); ts.Exists() {
		if parsed, err := time.Parse(time.RFC3339Nano, ts.String()); err == nil {
			env.SavedAt = parsed.UTC()
		}
	}

	recs := doc.Get("records")
	if !recs.IsArray() {
		return Envelope{}, fmt.Errorf("%w: records is not an array", ErrBadEnvelope)
	}
	env.Records = decodeRecords(recs)
	return env, nil
}

// decodeRecords leniently decodes an array of history records.
func decodeRecords(arr gjson.Result) []codec.Record {
	var records []codec.Record
	for i, r := range arr.Array() {
		rec, err := codec.DecodeRecord([]byte(r.Raw))
		if err != nil {
			logger.Warnf("persist: skipping record %d: %v", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}
