package diff

import "calltracker/internal/feed"

// Changes holds the calls that appeared or disappeared between two
// consecutive snapshots. Slices keep the order of their source sequence:
// New follows the current snapshot, Resolved follows the previous one.
type Changes struct {
	New      []feed.Call
	Resolved []feed.Call
}

// HasChanges reports whether anything appeared or disappeared.
func (c Changes) HasChanges() bool {
	return len(c.New) > 0 || len(c.Resolved) > 0
}

// Compute diffs two snapshots by incident identifier. A call whose
// identifier exists in both snapshots is neither new nor resolved even
// when its other fields differ.
func Compute(previous, current []feed.Call) Changes {
	prevIDs := idSet(previous)
	currIDs := idSet(current)

	var changes Changes
	for _, c := range current {
		if _, ok := prevIDs[c.IncidentID]; !ok {
			changes.New = append(changes.New, c)
		}
	}
	for _, c := range previous {
		if _, ok := currIDs[c.IncidentID]; !ok {
			changes.Resolved = append(changes.Resolved, c)
		}
	}
	return changes
}

func idSet(calls []feed.Call) map[string]struct{} {
	set := make(map[string]struct{}, len(calls))
	for _, c := range calls {
		set[c.IncidentID] = struct{}{}
	}
	return set
}
