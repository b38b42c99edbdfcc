package history

import (
	"fmt"
	"sync"
	"time"

	"github.com/dquill/sprited/internal/engine/codec"
	"github.com/dquill/sprited/internal/logger"
)

// Default tunables, matching the interactive editor's stock configuration.
const (
	DefaultMaxCommands    = 100
	DefaultCompressionAge = 20
)

// Store is the append/truncate command log with a cursor.
//
// Entries at or before the cursor are applied; entries beyond it form the
// redo branch. The log, cursor and batch state are one unit of mutable
// state guarded by a single mutex so the truncate-append-advance-evict
// sequence is atomic.
type Store struct {
	mu sync.Mutex

	entries []Command
	current int // index of the last applied entry, -1 = initial state

	batching bool
	batch    []Command

	maxCommands    int
	compressionAge int
}

// NewStore creates a store. Non-positive tunables fall back to the
// defaults.
func NewStore(maxCommands, compressionAge int) *Store {
	if maxCommands <= 0 {
		maxCommands = DefaultMaxCommands
	}
	if compressionAge <= 0 {
		compressionAge = DefaultCompressionAge
	}
	return &Store{current: -1, maxCommands: maxCommands, compressionAge: compressionAge}
}

// Push records a command that the caller has already applied to the canvas.
// Any redo branch is destroyed, the oldest entry is evicted if the log
// outgrew its cap, and the compression sweep runs. During a batch the
// command is collected instead and recorded by EndBatch.
func (s *Store) Push(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batching {
		s.batch = append(s.batch, cmd)
		return
	}

	s.pushLocked(cmd)
}

func (s *Store) pushLocked(cmd Command) {
	if s.current < len(s.entries)-1 {
		// Drop the stale redo branch.
		s.entries = s.entries[:s.current+1]
	}

	s.entries = append(s.entries, cmd)
	s.current = len(s.entries) - 1

	if len(s.entries) > s.maxCommands {
		s.entries = s.entries[1:]
		s.current--
	}

	s.sweepLocked()
}

// Execute applies cmd to the canvas and records it. The interactive layer
// usually applies edits itself as the user draws and calls Push; Execute is
// the convenience path for programmatic edits.
func (s *Store) Execute(cmd Command, c Canvas) error {
	if err := cmd.Execute(c); err != nil {
		return err
	}
	s.Push(cmd)
	return nil
}

// Undo reverts the entry at the cursor and steps back. It returns false
// when there is nothing to undo. A corrupt packed entry is reported as an
// error with the cursor untouched.
func (s *Store) Undo(c Canvas) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current < 0 {
		return false, nil
	}

	cmd := s.entries[s.current]
	if err := cmd.Decompress(); err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	if err := cmd.Unexecute(c); err != nil {
		return false, fmt.Errorf("undo: %w", err)
	}
	s.current--
	return true, nil
}

// Redo re-applies the entry after the cursor and steps forward. It returns
// false when there is nothing to redo.
func (s *Store) Redo(c Canvas) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current >= len(s.entries)-1 {
		return false, nil
	}

	cmd := s.entries[s.current+1]
	if err := cmd.Decompress(); err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	if err := cmd.Execute(c); err != nil {
		return false, fmt.Errorf("redo: %w", err)
	}
	s.current++
	return true, nil
}

// sweepLocked packs every entry more than compressionAge steps behind the
// cursor.
func (s *Store) sweepLocked() {
	cutoff := s.current - s.compressionAge
	for i := 0; i < cutoff && i < len(s.entries); i++ {
		if err := s.entries[i].Compress(); err != nil {
			logger.Warnf("history: compressing entry %d (%s): %v", i, s.entries[i].Kind(), err)
		}
	}
}

// CanUndo reports whether an undo step is available.
func (s *Store) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current >= 0
}

// CanRedo reports whether a redo step is available.
func (s *Store) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current < len(s.entries)-1
}

// Len returns the number of entries in the log.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// MemoryStats summarizes the log's footprint and cursor state.
type MemoryStats struct {
	TotalBytes      int
	CommandCount    int
	CompressedCount int
	CurrentIndex    int
	CanUndo         bool
	CanRedo         bool
}

// MemoryUsage returns the estimated footprint of the log.
func (s *Store) MemoryUsage() MemoryStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := MemoryStats{
		CommandCount: len(s.entries),
		CurrentIndex: s.current,
		CanUndo:      s.current >= 0,
		CanRedo:      s.current < len(s.entries)-1,
	}
	for _, cmd := range s.entries {
		stats.TotalBytes += cmd.MemorySize()
		if cmd.Compressed() {
			stats.CompressedCount++
		}
	}
	return stats
}

// Clear empties the log and resets the cursor to the initial state.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.current = -1
	s.batching = false
	s.batch = nil
}

// BeginBatch starts collecting pushes into a single undo unit. Nested calls
// are ignored.
func (s *Store) BeginBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batching {
		return
	}
	s.batching = true
	s.batch = nil
}

// EndBatch records the collected commands as one Composite. An empty batch
// records nothing.
func (s *Store) EndBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.batching {
		return
	}
	s.batching = false

	if len(s.batch) == 0 {
		s.batch = nil
		return
	}

	group := NewComposite(s.batch...)
	s.batch = nil
	s.pushLocked(group)
}

// CancelBatch drops the collected commands without recording them. The
// edits already applied to the canvas stay.
func (s *Store) CancelBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.batching = false
	s.batch = nil
}

// IsBatching reports whether a batch is open.
func (s *Store) IsBatching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batching
}

// SetMaxCommands changes the log cap, evicting the oldest entries if the
// log is already larger.
func (s *Store) SetMaxCommands(max int) {
	if max <= 0 {
		max = DefaultMaxCommands
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxCommands = max
	if len(s.entries) > max {
		excess := len(s.entries) - max
		s.entries = s.entries[excess:]
		s.current -= excess
		if s.current < -1 {
			s.current = -1
		}
	}
}

// MaxCommands returns the log cap.
func (s *Store) MaxCommands() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxCommands
}

// SetCompressionAge changes the compression threshold and re-runs the
// sweep.
func (s *Store) SetCompressionAge(age int) {
	if age <= 0 {
		age = DefaultCompressionAge
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.compressionAge = age
	s.sweepLocked()
}

// CompressionAge returns the compression threshold.
func (s *Store) CompressionAge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compressionAge
}

// Compact packs every entry in the log regardless of age.
func (s *Store) Compact() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, cmd := range s.entries {
		if err := cmd.Compress(); err != nil {
			logger.Warnf("history: compressing entry %d (%s): %v", i, cmd.Kind(), err)
		}
	}
}

// Save serializes the full log, oldest first.
func (s *Store) Save() ([]codec.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]codec.Record, len(s.entries))
	for i, cmd := range s.entries {
		rec, err := cmd.Record()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		records[i] = rec
	}
	return records, nil
}

// Load replaces the log with the given records. Records that fail to decode
// are skipped individually so one corrupt entry cannot take down the rest
// of the history. The cursor lands on the last entry, treating the loaded
// history as applied; call Rewind to replay it from scratch instead. It
// returns the number of commands restored.
func (s *Store) Load(records []codec.Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	s.batching = false
	s.batch = nil

	for i, rec := range records {
		cmd, err := FromRecord(rec)
		if err != nil {
			logger.Warnf("history: skipping record %d (%s): %v", i, rec.Type, err)
			continue
		}
		s.entries = append(s.entries, cmd)
	}
	s.current = len(s.entries) - 1
	return len(s.entries)
}

// Rewind moves the cursor to the initial state without touching any canvas.
// Tooling uses it to replay a loaded history forward from a blank grid.
func (s *Store) Rewind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = -1
}

// EntryInfo describes one log entry for inspection tooling.
type EntryInfo struct {
	Kind       codec.Kind
	Timestamp  time.Time
	Compressed bool
	Bytes      int
	Applied    bool
}

// Entries returns a read-only description of the log, oldest first.
func (s *Store) Entries() []EntryInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	infos := make([]EntryInfo, len(s.entries))
	for i, cmd := range s.entries {
		infos[i] = EntryInfo{
			Kind:       cmd.Kind(),
			Timestamp:  cmd.Timestamp(),
			Compressed: cmd.Compressed(),
			Bytes:      cmd.MemorySize(),
			Applied:    i <= s.current,
		}
	}
	return infos
}
