package persist

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tidwall/gjson"
)

// ErrNoSnapshot indicates no archived snapshot exists for a document.
var ErrNoSnapshot = errors.New("no archived snapshot")

// Archive stores history snapshots in a local SQLite database, one row per
// saved envelope, keyed by document name.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens (or creates) an archive database at path.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS snapshot (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document TEXT NOT NULL,
		session TEXT NOT NULL,
		saved_at TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		records BLOB NOT NULL)`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS snapshot_document ON snapshot (document, saved_at)`); err != nil {
		db.Close()
		return nil, err
	}

	return &Archive{db: db}, nil
}

// Close releases the underlying database.
func (a *Archive) Close() error { return a.db.Close() }

// SnapshotInfo describes one archived snapshot.
type SnapshotInfo struct {
	ID       int64
	Document string
	Session  string
	SavedAt  time.Time
	Width    int
	Height   int
}

// Save archives an envelope under the given document name and returns the
// snapshot id.
func (a *Archive) Save(document string, env Envelope) (int64, error) {
	savedAt := env.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	records, err := json.Marshal(env.Records)
	if err != nil {
		return 0, fmt.Errorf("encoding records: %w", err)
	}

	res, err := a.db.Exec(
		"INSERT INTO snapshot (document, session, saved_at, width, height, records) VALUES (?, ?, ?, ?, ?, ?)",
		document, env.Session, savedAt.UTC().Format(time.RFC3339Nano), env.Width, env.Height, records,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// List returns archived snapshots newest first. An empty document lists
// every document.
func (a *Archive) List(document string) ([]SnapshotInfo, error) {
	query := "SELECT id, document, session, saved_at, width, height FROM snapshot ORDER BY saved_at DESC, id DESC"
	args := []any{}
	if document != "" {
		query = "SELECT id, document, session, saved_at, width, height FROM snapshot WHERE document = ? ORDER BY saved_at DESC, id DESC"
		args = append(args, document)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var infos []SnapshotInfo
	for rows.Next() {
		var info SnapshotInfo
		var savedAt string
		if err := rows.Scan(&info.ID, &info.Document, &info.Session, &savedAt, &info.Width, &info.Height); err != nil {
			return nil, err
		}
		if parsed, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
			info.SavedAt = parsed.UTC()
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// Restore returns the newest archived envelope for a document.
func (a *Archive) Restore(document string) (Envelope, error) {
	row := a.db.QueryRow(
		"SELECT session, saved_at, width, height, records FROM snapshot WHERE document = ? ORDER BY saved_at DESC, id DESC LIMIT 1",
		document,
	)

	var env Envelope
	var savedAt string
	var records []byte
	if err := row.Scan(&env.Session, &savedAt, &env.Width, &env.Height, &records); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Envelope{}, fmt.Errorf("%w: %q", ErrNoSnapshot, document)
		}
		return Envelope{}, err
	}

	env.Version = EnvelopeVersion
	if parsed, err := time.Parse(time.RFC3339Nano, savedAt); err == nil {
		env.SavedAt = parsed.UTC()
	}

	arr := gjson.ParseBytes(records)
	if !arr.IsArray() {
		return Envelope{}, fmt.Errorf("%w: archived records are not an array", ErrBadEnvelope)
	}
	env.Records = decodeRecords(arr)
	return env, nil
}
