package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"calltracker/formatting"
	"calltracker/internal/diff"
)

const historyRule = "================================================================================"

// HistoryLog appends one human-readable block per poll cycle. The file
// is never truncated or rewritten once created.
type HistoryLog struct {
	path string
	loc  *time.Location
}

func NewHistoryLog(path string, loc *time.Location) *HistoryLog {
	if loc == nil {
		loc = time.Local
	}
	return &HistoryLog{path: path, loc: loc}
}

// Init writes the banner if and only if the log does not exist yet.
// Existing content is left untouched.
func (h *HistoryLog) Init(now time.Time) error {
	if _, err := os.Stat(h.path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat history log: %w", err)
	}
	var b strings.Builder
	b.WriteString("CLEARWATER PD ACTIVE CALLS - HISTORICAL LOG\n")
	fmt.Fprintf(&b, "Tracking started: %s\n", now.UTC().Format(time.RFC3339))
	b.WriteString(historyRule + "\n")
	return os.WriteFile(h.path, []byte(b.String()), 0o644)
}

// Append records one poll cycle's changes.
func (h *HistoryLog) Append(now time.Time, changes diff.Changes, totalActive int) error {
	f, err := os.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open history log: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	b.WriteString("\n" + historyRule + "\n")
	fmt.Fprintf(&b, "TIMESTAMP: %s\n", now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "TOTAL ACTIVE CALLS: %d\n", totalActive)
	b.WriteString(historyRule + "\n")

	if len(changes.New) > 0 {
		fmt.Fprintf(&b, "\n--- NEW CALLS (%d) ---\n", len(changes.New))
		for _, call := range changes.New {
			b.WriteString(formatting.CallLine(call, "NEW", h.loc) + "\n")
		}
	}
	if len(changes.Resolved) > 0 {
		fmt.Fprintf(&b, "\n--- RESOLVED CALLS (%d) ---\n", len(changes.Resolved))
		for _, call := range changes.Resolved {
			b.WriteString(formatting.CallLine(call, "RESOLVED", h.loc) + "\n")
		}
	}
	if !changes.HasChanges() {
		b.WriteString("\nNo changes since last check.\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("append history log: %w", err)
	}
	return nil
}
