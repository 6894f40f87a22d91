package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	hubsync "github.com/peteski22/hubgraph/internal/sync"
)

// FileStateStore keeps the last sync run in a local JSON file.
type FileStateStore struct {
	path string
}

// NewFileStateStore creates a new FileStateStore that reads/writes the given path.
func NewFileStateStore(path string) (*FileStateStore, error) {
	if path == "" {
		return nil, errors.New("state file path is required")
	}
	return &FileStateStore{path: path}, nil
}

// LastRun returns the stats stored in the file, or nil if the file does not exist.
func (s *FileStateStore) LastRun(_ context.Context) (*hubsync.Stats, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading state file: %w", err)
	}

	var stats hubsync.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("decoding state file %s: %w", s.path, err)
	}

	return &stats, nil
}

// SaveRun writes the stats to the file, replacing its contents.
func (s *FileStateStore) SaveRun(_ context.Context, stats *hubsync.Stats) error {
	if stats == nil {
		return errors.New("stats are required")
	}

	data, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding run state: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	// Write to a temporary file first so readers never see a partial document.
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("writing state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing state file: %w", err)
	}

	return nil
}
