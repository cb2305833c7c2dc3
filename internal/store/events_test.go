package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"calltracker/internal/diff"
	"calltracker/internal/feed"
)

func openTestEvents(t *testing.T) *EventStore {
	t.Helper()
	s, err := OpenEvents(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open events: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEventsLatestNewCallsEmpty(t *testing.T) {
	s := openTestEvents(t)
	calls, ok, err := s.LatestNewCalls(context.Background())
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if ok || len(calls) != 0 {
		t.Fatalf("expected no recorded cycle, got ok=%v calls=%v", ok, calls)
	}
}

func TestEventsRecordAndReadLatestCycle(t *testing.T) {
	s := openTestEvents(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

	first := diff.Changes{New: []feed.Call{{IncidentID: "A1", Description: "TRAFFIC STOP"}}}
	if err := s.RecordCycle(ctx, now, first, 1); err != nil {
		t.Fatalf("record first cycle: %v", err)
	}
	second := diff.Changes{
		New:      []feed.Call{{IncidentID: "B2", Address: "100 MAIN ST"}, {IncidentID: "C3"}},
		Resolved: []feed.Call{{IncidentID: "A1"}},
	}
	if err := s.RecordCycle(ctx, now.Add(5*time.Minute), second, 2); err != nil {
		t.Fatalf("record second cycle: %v", err)
	}

	calls, ok, err := s.LatestNewCalls(ctx)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a recorded cycle")
	}
	if len(calls) != 2 || calls[0].IncidentID != "B2" || calls[1].IncidentID != "C3" {
		t.Fatalf("expected latest cycle's NEW calls in order, got %+v", calls)
	}
	if calls[0].Address != "100 MAIN ST" {
		t.Fatalf("fields not round-tripped: %+v", calls[0])
	}
}

func TestEventsIncidentHistory(t *testing.T) {
	s := openTestEvents(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if err := s.RecordCycle(ctx, now, diff.Changes{New: []feed.Call{{IncidentID: "A1"}}}, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.RecordCycle(ctx, now.Add(time.Minute), diff.Changes{Resolved: []feed.Call{{IncidentID: "A1"}}}, 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	statuses, err := s.IncidentHistory(ctx, "A1")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(statuses) != 2 || statuses[0] != EventNew || statuses[1] != EventResolved {
		t.Fatalf("unexpected history: %v", statuses)
	}
	if err := s.Health(ctx); err != nil {
		t.Fatalf("health: %v", err)
	}
}
