// Package history keeps the CLI's record of indexed URLs.
//
// The history is a single JSON array persisted to a file, mirroring the
// browser-local storage the web client uses: convenient bookkeeping, not a
// system of record. A malformed or non-array file is discarded silently and
// treated as empty. Writes are guarded by a file lock so concurrent CLI
// invocations cannot corrupt the array.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/nadinev6/RAGgle/internal/log"
)

// Entry is one indexed-URL record.
// Immutable once created; removed only by Clear.
type Entry struct {
	URL        string    `json:"url"`
	Title      string    `json:"title,omitempty"`
	DocumentID string    `json:"document_id,omitempty"`
	IndexedAt  time.Time `json:"indexed_at"`
}

// Store persists history entries to a JSON file.
type Store struct {
	path   string
	lock   *flock.Flock
	logger log.Logger
}

// NewStore creates a history store backed by the given file.
// The file does not need to exist yet.
func NewStore(path string, logger log.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history file path is required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	return &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}, nil
}

// Load reads all entries from the file.
// A missing file or one that does not hold a JSON array yields an empty
// history without error; corrupt local bookkeeping must never break the CLI.
func (s *Store) Load() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Debug("reading history file", "path", s.path, "error", err)
		}
		return nil
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("discarding malformed history file", "path", s.path, "error", err)
		return nil
	}
	return entries
}

// Append adds one entry and rewrites the file.
func (s *Store) Append(entry Entry) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking history file: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("unlocking history file", "error", err)
		}
	}()

	entries := append(s.Load(), entry)
	return s.write(entries)
}

// Clear removes all entries. Idempotent: clearing an already-empty history
// succeeds and leaves an empty array behind.
func (s *Store) Clear() error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("locking history file: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("unlocking history file", "error", err)
		}
	}()

	return s.write([]Entry{})
}

// write serializes entries atomically (temp file + rename).
func (s *Store) write(entries []Entry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing history file: %w", err)
	}
	return nil
}
