package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second)
}

func TestActiveCallsBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"Master_Incident_Number":"A1","Online_Description":"TRAFFIC STOP","Address":"100 MAIN ST","Response_Date":"2024-01-15T14:30:00"}]`))
	})
	calls, err := client.ActiveCalls(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].IncidentID != "A1" || calls[0].Description != "TRAFFIC STOP" {
		t.Fatalf("unexpected call: %+v", calls[0])
	}
}

func TestActiveCallsWrappedArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"Master_Incident_Number":"B2"},{"Master_Incident_Number":"C3"}]}`))
	})
	calls, err := client.ActiveCalls(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].IncidentID != "B2" || calls[1].IncidentID != "C3" {
		t.Fatalf("unexpected order: %+v", calls)
	}
}

func TestActiveCallsUnknownShapeIsEmptyNotError(t *testing.T) {
	for _, body := range []string{`"just a string"`, `42`, `{"other":"thing"}`, `{"data":"not-an-array"}`} {
		calls, err := DecodeCalls([]byte(body))
		if err != nil {
			t.Fatalf("body %s: unexpected error: %v", body, err)
		}
		if len(calls) != 0 {
			t.Fatalf("body %s: expected empty, got %d calls", body, len(calls))
		}
	}
}

func TestActiveCallsMalformedJSONIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [truncated`))
	})
	if _, err := client.ActiveCalls(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestActiveCallsHTTPErrorIsFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})
	if _, err := client.ActiveCalls(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestDisplayPlaceholders(t *testing.T) {
	var c Call
	if got := c.DisplayIncidentID(); got != "UNKNOWN" {
		t.Fatalf("incident placeholder: %q", got)
	}
	if got := c.DisplayDescription(); got != "Unknown Call Type" {
		t.Fatalf("description placeholder: %q", got)
	}
	if got := c.DisplayAddress(); got != "Unknown Location" {
		t.Fatalf("address placeholder: %q", got)
	}
}
