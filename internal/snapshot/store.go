package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"LottoSentinel/internal/model"
)

// Store reads and writes the latest snapshot of one source as a JSON file.
type Store[T any] struct {
	filePath string
	logger   *log.Logger
}

// NewStore creates a Store backed by filePath. A nil logger uses the
// standard logger.
func NewStore[T any](filePath string, logger *log.Logger) *Store[T] {
	if logger == nil {
		logger = log.Default()
	}
	return &Store[T]{filePath: filePath, logger: logger}
}

// Path returns the snapshot file location.
func (s *Store[T]) Path() string { return s.filePath }

// Load returns the persisted snapshot. A missing file yields an empty
// snapshot silently; any other failure is logged and also yields an empty
// snapshot, so a corrupt file never blocks startup.
func (s *Store[T]) Load() model.Snapshot[T] {
	snap, err := s.read()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Snapshot[T]{}
		}
		s.logger.Printf("[WARN] load snapshot %s: %v, starting empty", s.filePath, err)
		return model.Snapshot[T]{}
	}
	return snap
}

func (s *Store[T]) read() (model.Snapshot[T], error) {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return model.Snapshot[T]{}, err
	}
	return Decode[T](data)
}

// Decode parses either the wrapped snapshot object or a legacy bare array.
func Decode[T any](data []byte) (model.Snapshot[T], error) {
	var snap model.Snapshot[T]
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return snap, fmt.Errorf("empty snapshot file")
	}

	if trimmed[0] == '[' {
		var records []T
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return snap, fmt.Errorf("decode legacy snapshot: %w", err)
		}
		snap.Data = records
		snap.RecordCount = len(records)
		return snap, nil
	}

	if err := json.Unmarshal(trimmed, &snap); err != nil {
		return snap, fmt.Errorf("decode snapshot: %w", err)
	}
	snap.RecordCount = len(snap.Data)
	return snap, nil
}

// Save writes records in the wrapped form. The file is replaced through a
// temporary sibling and a rename.
func (s *Store[T]) Save(records []T) error {
	if records == nil {
		records = []T{}
	}
	snap := model.Snapshot[T]{
		LastUpdated: time.Now().UTC(),
		RecordCount: len(records),
		Data:        records,
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.filePath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.filePath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
