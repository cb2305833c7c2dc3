package alert

import (
	"fmt"

	"calltracker/formatting"
	"calltracker/internal/feed"
)

// Embed colors per rule, matching the webhook channel's conventions.
const (
	ColorDefault = 0x0052A6
	ColorVolume  = 0xFF0000
	ColorType    = 0xFFA500
	ColorAddress = 0xFFFF00
)

// Rule names, used as the metrics label.
const (
	RuleVolume  = "volume"
	RuleType    = "call_type"
	RuleAddress = "address"
)

// Alert is one rendered notification.
type Alert struct {
	Rule        string
	Title       string
	Description string
	Color       int
}

// Rules holds the configured trigger conditions. Zero-value rules never
// fire (threshold 0 disables the volume rule, empty watch lists disable
// the substring rules).
type Rules struct {
	VolumeThreshold  int
	WatchedCallTypes []string
	WatchedAddresses []string
}

// Evaluate runs all rules over the current snapshot and the genuinely
// new calls. Rules are independent: the volume rule fires at most once,
// then per-record type and address rules in record order. The address
// rule may co-occur with the type rule for the same record.
func Evaluate(currentCount int, newCalls []feed.Call, rules Rules) []Alert {
	var alerts []Alert

	if rules.VolumeThreshold > 0 && currentCount >= rules.VolumeThreshold {
		alerts = append(alerts, Alert{
			Rule:        RuleVolume,
			Title:       fmt.Sprintf("High Activity: %d Active Calls", currentCount),
			Description: "CPD is handling an unusually high number of calls.",
			Color:       ColorVolume,
		})
	}

	for _, call := range newCalls {
		// first matching substring wins; no duplicate firing per record
		for _, watched := range rules.WatchedCallTypes {
			if formatting.ContainsFold(call.Description, watched) {
				alerts = append(alerts, Alert{
					Rule:        RuleType,
					Title:       call.DisplayDescription(),
					Description: fmt.Sprintf("**Location:** %s\n**Incident:** %s", call.DisplayAddress(), call.DisplayIncidentID()),
					Color:       ColorType,
				})
				break
			}
		}
		for _, watched := range rules.WatchedAddresses {
			if formatting.ContainsFold(call.Address, watched) {
				alerts = append(alerts, Alert{
					Rule:        RuleAddress,
					Title:       "Activity at Watched Location",
					Description: fmt.Sprintf("**Type:** %s\n**Location:** %s\n**Incident:** %s", call.DisplayDescription(), call.DisplayAddress(), call.DisplayIncidentID()),
					Color:       ColorAddress,
				})
				break
			}
		}
	}
	return alerts
}
