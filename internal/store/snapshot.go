package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"calltracker/internal/feed"
)

// Snapshot is the full set of active calls observed at one poll, plus
// the capture timestamp. Exactly one snapshot is current at any time.
type Snapshot struct {
	Calls     []feed.Call `json:"calls"`
	Timestamp *time.Time  `json:"timestamp"`
	Count     int         `json:"count"`
}

// SnapshotStore owns the current-snapshot file.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	return &SnapshotStore{path: path}
}

// Load returns the last persisted snapshot. A missing file is the
// first-run case and yields an empty snapshot with a nil timestamp.
func (s *SnapshotStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Snapshot{Calls: []feed.Call{}}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Calls == nil {
		snap.Calls = []feed.Call{}
	}
	return snap, nil
}

// Save replaces the persisted snapshot. The write goes to a temp file in
// the same directory followed by a rename, so a concurrent reader sees
// either the old or the new snapshot in full.
func (s *SnapshotStore) Save(calls []feed.Call, ts time.Time) error {
	if calls == nil {
		calls = []feed.Call{}
	}
	snap := Snapshot{Calls: calls, Timestamp: &ts, Count: len(calls)}
	return writeJSONAtomic(s.path, snap)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
