package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"calltracker/internal/feed"
)

// ArchiveEntry is one intra-day snapshot inside a daily archive file.
type ArchiveEntry struct {
	Timestamp time.Time   `json:"timestamp"`
	CallCount int         `json:"call_count"`
	Calls     []feed.Call `json:"calls"`
}

// DailyArchive is the ordered snapshot series for one calendar day.
type DailyArchive struct {
	Date      string         `json:"date"`
	Snapshots []ArchiveEntry `json:"snapshots"`
}

// Archiver appends snapshots to per-day archive files. Files are keyed
// by the local calendar date of the run; a new day starts a fresh file
// and prior days are never touched again.
type Archiver struct {
	dir string
	loc *time.Location
}

func NewArchiver(dir string, loc *time.Location) *Archiver {
	if loc == nil {
		loc = time.Local
	}
	return &Archiver{dir: dir, loc: loc}
}

func (a *Archiver) pathFor(date string) string {
	return filepath.Join(a.dir, date+".json")
}

// Append loads (or starts) the archive for now's local date, appends the
// snapshot and rewrites the whole day file.
func (a *Archiver) Append(calls []feed.Call, ts time.Time, now time.Time) error {
	if calls == nil {
		calls = []feed.Call{}
	}
	date := now.In(a.loc).Format("2006-01-02")
	archive, err := a.load(date)
	if err != nil {
		return err
	}
	archive.Snapshots = append(archive.Snapshots, ArchiveEntry{
		Timestamp: ts,
		CallCount: len(calls),
		Calls:     calls,
	})
	return writeJSONAtomic(a.pathFor(date), archive)
}

func (a *Archiver) load(date string) (DailyArchive, error) {
	data, err := os.ReadFile(a.pathFor(date))
	if os.IsNotExist(err) {
		return DailyArchive{Date: date, Snapshots: []ArchiveEntry{}}, nil
	}
	if err != nil {
		return DailyArchive{}, fmt.Errorf("read archive %s: %w", date, err)
	}
	var archive DailyArchive
	if err := json.Unmarshal(data, &archive); err != nil {
		return DailyArchive{}, fmt.Errorf("decode archive %s: %w", date, err)
	}
	return archive, nil
}

// Load returns the archive for a given local date string (2006-01-02).
func (a *Archiver) Load(date string) (DailyArchive, error) {
	return a.load(date)
}
