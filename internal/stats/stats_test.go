package stats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"calltracker/internal/feed"
)

func TestApplyBasicCounters(t *testing.T) {
	s := New()
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	newCalls := []feed.Call{
		{IncidentID: "A1", Description: "TRAFFIC STOP", Address: "100 MAIN ST", ResponseDate: "2024-01-15T14:25:00"},
		{IncidentID: "B2", Description: "TRAFFIC STOP", Address: "200 OAK AVE", ResponseDate: "2024-01-15T09:10:00"},
	}
	s.Apply(newCalls, []feed.Call{{IncidentID: "Z9"}}, 7, now, time.UTC)

	if s.TotalCallsTracked != 2 || s.TotalResolved != 1 || s.TotalSnapshots != 1 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.PeakActiveCalls != 7 {
		t.Fatalf("expected peak 7, got %d", s.PeakActiveCalls)
	}
	if s.CallTypes["TRAFFIC STOP"] != 2 {
		t.Fatalf("call type tally: %v", s.CallTypes)
	}
	if s.Addresses["100 MAIN ST"] != 1 || s.Addresses["200 OAK AVE"] != 1 {
		t.Fatalf("address tally: %v", s.Addresses)
	}
	if s.HourlyDistribution["14"] != 1 || s.HourlyDistribution["9"] != 1 {
		t.Fatalf("hour buckets: %v", s.HourlyDistribution)
	}
	if s.FirstTracked == nil || s.LastUpdated == nil {
		t.Fatal("timestamps not set")
	}
}

func TestApplyIsCumulativeNotIdempotent(t *testing.T) {
	s := New()
	now := time.Now().UTC()
	newCalls := []feed.Call{{IncidentID: "A1", Description: "FIRE"}}
	resolved := []feed.Call{{IncidentID: "B2"}}

	s.Apply(newCalls, resolved, 3, now, time.UTC)
	s.Apply(newCalls, resolved, 3, now, time.UTC)

	if s.TotalCallsTracked != 2 || s.TotalResolved != 2 {
		t.Fatalf("repeat apply must double deltas, got %+v", s)
	}
	if s.CallTypes["FIRE"] != 2 {
		t.Fatalf("call type tally: %v", s.CallTypes)
	}
}

func TestApplyPeakNeverDecreases(t *testing.T) {
	s := New()
	now := time.Now().UTC()
	peaks := []int{3, 12, 5, 12, 1}
	want := 0
	for _, p := range peaks {
		s.Apply(nil, nil, p, now, time.UTC)
		if p > want {
			want = p
		}
		if s.PeakActiveCalls != want {
			t.Fatalf("after count %d: expected peak %d, got %d", p, want, s.PeakActiveCalls)
		}
	}
}

func TestApplyFirstTrackedSetOnce(t *testing.T) {
	s := New()
	first := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	s.Apply(nil, nil, 0, first, time.UTC)
	s.Apply(nil, nil, 0, second, time.UTC)
	if !s.FirstTracked.Equal(first) {
		t.Fatalf("first_tracked moved: %v", s.FirstTracked)
	}
	if !s.LastUpdated.Equal(second) {
		t.Fatalf("last_updated not advanced: %v", s.LastUpdated)
	}
}

func TestApplyBadTimestampSkipsHourBucketOnly(t *testing.T) {
	s := New()
	call := feed.Call{IncidentID: "A1", Description: "ARMED ROBBERY", Address: "100 CLEVELAND ST", ResponseDate: "not-a-date"}
	s.Apply([]feed.Call{call}, nil, 1, time.Now(), time.UTC)

	if s.CallTypes["ARMED ROBBERY"] != 1 || s.Addresses["100 CLEVELAND ST"] != 1 {
		t.Fatalf("type/address must still tally: %+v", s)
	}
	total := 0
	for _, n := range s.HourlyDistribution {
		total += n
	}
	if total != 0 {
		t.Fatalf("unparseable timestamp must not hit hour buckets: %v", s.HourlyDistribution)
	}
}

func TestStoreLoadMissingIsZeroed(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "stats.json"))
	s, err := st.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.TotalSnapshots != 0 || len(s.HourlyDistribution) != 24 {
		t.Fatalf("unexpected fresh stats: %+v", s)
	}
}

func TestStoreRoundtrip(t *testing.T) {
	st := NewStore(filepath.Join(t.TempDir(), "stats.json"))
	s := New()
	s.Apply([]feed.Call{{IncidentID: "A1", Description: "FIRE"}}, nil, 4, time.Now(), time.UTC)
	if err := st.Save(s); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := st.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.TotalCallsTracked != 1 || loaded.PeakActiveCalls != 4 || loaded.CallTypes["FIRE"] != 1 {
		t.Fatalf("roundtrip mismatch: %+v", loaded)
	}
}

func TestStoreLoadNullTablesAreUsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	body := `{"total_calls_tracked":3,"call_types":null,"addresses":null,"hourly_distribution":null}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	st := NewStore(path)
	s, err := st.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.TotalCallsTracked != 3 {
		t.Fatalf("expected counters preserved, got %+v", s)
	}

	newCalls := []feed.Call{{IncidentID: "A1", Description: "FIRE", Address: "1 OAK ST", ResponseDate: "2024-01-15T14:25:00"}}
	s.Apply(newCalls, nil, 1, time.Now(), time.UTC)
	if s.CallTypes["FIRE"] != 1 || s.Addresses["1 OAK ST"] != 1 {
		t.Fatalf("apply after null tables did not tally: %+v", s)
	}
	if s.HourlyDistribution["14"] != 1 {
		t.Fatalf("hour bucket missing after null tables: %v", s.HourlyDistribution)
	}
}

func TestRenderSummaryTopTenOrdering(t *testing.T) {
	s := New()
	s.CallTypes = map[string]int{}
	for i := 0; i < 12; i++ {
		s.CallTypes[string(rune('A'+i))] = i + 1
	}
	s.CallTypes["TIE-B"] = 12
	s.CallTypes["TIE-A"] = 12

	out := RenderSummary(s)
	if !strings.Contains(out, "### Top 10 Call Types") {
		t.Fatalf("missing section:\n%s", out)
	}
	// ties break by key, and only ten entries render
	lines := strings.Split(out, "\n")
	var entries []string
	inSection := false
	for _, l := range lines {
		if strings.HasPrefix(l, "### Top 10 Call Types") {
			inSection = true
			continue
		}
		if inSection {
			if strings.HasPrefix(l, "- ") {
				entries = append(entries, l)
			} else if len(entries) > 0 {
				break
			}
		}
	}
	if len(entries) != 10 {
		t.Fatalf("expected 10 entries, got %d:\n%s", len(entries), out)
	}
	// count 12 is shared by L, TIE-A and TIE-B; ties order by key
	want := []string{"- L: 12", "- TIE-A: 12", "- TIE-B: 12"}
	for i, w := range want {
		if entries[i] != w {
			t.Fatalf("position %d: expected %q, got %q", i, w, entries[i])
		}
	}
}

func TestRenderSummaryNeverRuns(t *testing.T) {
	out := RenderSummary(New())
	if !strings.Contains(out, "**Tracking Since:** never") {
		t.Fatalf("expected never placeholder:\n%s", out)
	}
}
