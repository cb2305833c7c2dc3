package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

const topEntries = 10

// RenderSummary produces the textual digest printed after every cycle.
// Pure formatting; the aggregate is not modified.
func RenderSummary(s Stats) string {
	var b strings.Builder
	b.WriteString("## CPD Active Calls Tracker - Statistics\n\n")
	fmt.Fprintf(&b, "**Last Updated:** %s\n", formatInstant(s.LastUpdated))
	fmt.Fprintf(&b, "**Tracking Since:** %s\n", formatInstant(s.FirstTracked))
	fmt.Fprintf(&b, "**Total Snapshots:** %d\n", s.TotalSnapshots)
	fmt.Fprintf(&b, "**Total Calls Tracked:** %d\n", s.TotalCallsTracked)
	fmt.Fprintf(&b, "**Total Resolved:** %d\n", s.TotalResolved)
	fmt.Fprintf(&b, "**Peak Active Calls:** %d\n", s.PeakActiveCalls)

	b.WriteString("\n### Top 10 Call Types\n")
	for _, e := range topByCount(s.CallTypes, topEntries) {
		fmt.Fprintf(&b, "- %s: %d\n", e.key, e.count)
	}

	b.WriteString("\n### Top 10 Addresses\n")
	for _, e := range topByCount(s.Addresses, topEntries) {
		fmt.Fprintf(&b, "- %s: %d\n", e.key, e.count)
	}
	return b.String()
}

func formatInstant(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.UTC().Format(time.RFC3339)
}

type countedEntry struct {
	key   string
	count int
}

// topByCount orders descending by count, ties by key, so the digest is
// stable run to run.
func topByCount(table map[string]int, limit int) []countedEntry {
	entries := make([]countedEntry, 0, len(table))
	for k, v := range table {
		entries = append(entries, countedEntry{key: k, count: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}
