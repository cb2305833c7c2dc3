package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type embed struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       int         `json:"color"`
	Footer      embedFooter `json:"footer"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Embeds []embed `json:"embeds"`
}

// Notifier delivers alerts to a Discord webhook. An empty URL makes
// every delivery a silent no-op.
type Notifier struct {
	URL        string
	MaxPerRun  int
	HTTPClient *http.Client
	FooterText string

	// Optional delivery hooks, e.g. for metrics.
	OnDelivered func(rule string)
	OnFailure   func()
}

func NewNotifier(url string, maxPerRun int) *Notifier {
	return &Notifier{
		URL:        url,
		MaxPerRun:  maxPerRun,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		FooterText: "CPD Active Calls Tracker",
	}
}

// Deliver posts each alert as its own webhook message, capped at
// MaxPerRun per invocation. A cap of zero or less delivers nothing.
// Failures are logged and do not stop remaining deliveries. Returns
// the number actually delivered.
func (n *Notifier) Deliver(ctx context.Context, alerts []Alert) int {
	if n.URL == "" || len(alerts) == 0 {
		return 0
	}
	if n.MaxPerRun <= 0 {
		log.Printf("alert: delivery cap is %d, dropping %d alerts", n.MaxPerRun, len(alerts))
		return 0
	}
	if len(alerts) > n.MaxPerRun {
		log.Printf("alert: capping deliveries at %d (had %d)", n.MaxPerRun, len(alerts))
		alerts = alerts[:n.MaxPerRun]
	}
	delivered := 0
	for _, a := range alerts {
		if err := n.send(ctx, a); err != nil {
			log.Printf("alert: webhook delivery failed: %v", err)
			if n.OnFailure != nil {
				n.OnFailure()
			}
			continue
		}
		delivered++
		if n.OnDelivered != nil {
			n.OnDelivered(a.Rule)
		}
	}
	return delivered
}

func (n *Notifier) send(ctx context.Context, a Alert) error {
	payload := webhookPayload{Embeds: []embed{{
		Title:       a.Title,
		Description: a.Description,
		Color:       a.Color,
		Footer:      embedFooter{Text: n.FooterText},
	}}}
	buf, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(buf))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := n.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook status %d", resp.StatusCode)
	}
	return nil
}
