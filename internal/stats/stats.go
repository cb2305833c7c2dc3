package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"calltracker/formatting"
	"calltracker/internal/feed"
)

// Stats is the cumulative aggregate persisted across poll cycles. Every
// counter is monotonically non-decreasing; PeakActiveCalls tracks the
// largest snapshot ever observed.
type Stats struct {
	TotalCallsTracked  int            `json:"total_calls_tracked"`
	TotalResolved      int            `json:"total_resolved"`
	CallTypes          map[string]int `json:"call_types"`
	Addresses          map[string]int `json:"addresses"`
	HourlyDistribution map[string]int `json:"hourly_distribution"`
	FirstTracked       *time.Time     `json:"first_tracked"`
	LastUpdated        *time.Time     `json:"last_updated"`
	PeakActiveCalls    int            `json:"peak_active_calls"`
	TotalSnapshots     int            `json:"total_snapshots"`
}

// New returns zeroed stats with all 24 hour buckets pre-seeded.
func New() Stats {
	hours := make(map[string]int, 24)
	for h := 0; h < 24; h++ {
		hours[strconv.Itoa(h)] = 0
	}
	return Stats{
		CallTypes:          map[string]int{},
		Addresses:          map[string]int{},
		HourlyDistribution: hours,
	}
}

// Apply folds one poll cycle into the aggregate. Only new calls feed the
// frequency tables; a call whose response timestamp does not parse still
// counts by type and address but is skipped by the hourly histogram.
func (s *Stats) Apply(newCalls, resolvedCalls []feed.Call, totalActive int, now time.Time, loc *time.Location) {
	s.TotalCallsTracked += len(newCalls)
	s.TotalResolved += len(resolvedCalls)
	s.TotalSnapshots++

	ts := now.UTC()
	s.LastUpdated = &ts
	if s.FirstTracked == nil {
		s.FirstTracked = &ts
	}
	if totalActive > s.PeakActiveCalls {
		s.PeakActiveCalls = totalActive
	}

	for _, call := range newCalls {
		s.CallTypes[call.DisplayDescription()]++
		s.Addresses[call.DisplayAddress()]++
		if t, ok := formatting.ParseResponseTime(call.ResponseDate, loc); ok {
			s.HourlyDistribution[strconv.Itoa(t.Hour())]++
		}
	}
}

// Store persists the aggregate as one JSON document, read-modify-written
// whole on every cycle.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the persisted stats, or zeroed stats if none exist yet.
func (st *Store) Load() (Stats, error) {
	data, err := os.ReadFile(st.path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return Stats{}, fmt.Errorf("read stats: %w", err)
	}
	s := New()
	if err := json.Unmarshal(data, &s); err != nil {
		return Stats{}, fmt.Errorf("decode stats: %w", err)
	}
	// explicit nulls in a hand-edited file unmarshal to nil maps
	if s.CallTypes == nil {
		s.CallTypes = map[string]int{}
	}
	if s.Addresses == nil {
		s.Addresses = map[string]int{}
	}
	if s.HourlyDistribution == nil {
		s.HourlyDistribution = New().HourlyDistribution
	}
	return s, nil
}

func (st *Store) Save(s Stats) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(st.path, data, 0o644)
}
