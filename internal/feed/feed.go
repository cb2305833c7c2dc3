package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Call is one active dispatch incident as reported by the upstream API.
// JSON field names follow the API payload and are also the persisted
// snapshot/archive contract.
type Call struct {
	IncidentID   string `json:"Master_Incident_Number"`
	Description  string `json:"Online_Description"`
	Address      string `json:"Address"`
	ResponseDate string `json:"Response_Date"`
}

// DisplayIncidentID returns the incident number or a placeholder.
func (c Call) DisplayIncidentID() string {
	if strings.TrimSpace(c.IncidentID) == "" {
		return "UNKNOWN"
	}
	return c.IncidentID
}

// DisplayDescription returns the call-type label or a placeholder.
func (c Call) DisplayDescription() string {
	if strings.TrimSpace(c.Description) == "" {
		return "Unknown Call Type"
	}
	return c.Description
}

// DisplayAddress returns the location or a placeholder.
func (c Call) DisplayAddress() string {
	if strings.TrimSpace(c.Address) == "" {
		return "Unknown Location"
	}
	return c.Address
}

// Client fetches the active-calls feed.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a feed client with a bounded request timeout. The
// fetch is the only operation in the pipeline with a deadline.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// ActiveCalls performs one GET against the feed and normalizes the
// payload. Transport errors, non-2xx statuses and malformed JSON are
// failures; a syntactically valid payload of an unknown shape degrades
// to zero calls so the pipeline keeps running.
func (c *Client) ActiveCalls(ctx context.Context) ([]Call, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch active calls: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("http %d GET %s: %s", resp.StatusCode, c.url, strings.TrimSpace(string(msg)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return DecodeCalls(body)
}

// DecodeCalls normalizes the two payload shapes the API has been seen to
// return: a bare array of calls, or an object wrapping the array under a
// "data" field. Anything else that still parses as JSON yields an empty
// slice, not an error.
func DecodeCalls(body []byte) ([]Call, error) {
	var top any
	if err := json.Unmarshal(body, &top); err != nil {
		return nil, fmt.Errorf("decode feed payload: %w", err)
	}

	switch top.(type) {
	case []any:
		var calls []Call
		if err := json.Unmarshal(body, &calls); err != nil {
			return []Call{}, nil
		}
		return calls, nil
	case map[string]any:
		var wrap struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &wrap); err != nil || len(wrap.Data) == 0 {
			return []Call{}, nil
		}
		var calls []Call
		if err := json.Unmarshal(wrap.Data, &calls); err != nil {
			return []Call{}, nil
		}
		return calls, nil
	default:
		return []Call{}, nil
	}
}
