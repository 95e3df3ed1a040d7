// Package nudge post-processes raw alerts into the tiered proactive nudge:
// it drops inactive clients' alerts, honors dismissals, partitions the rest
// into urgency tiers, and composes a time-of-day-aware briefing line.
package nudge

import (
	"log/slog"
	"sort"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/dismissal"
	"github.com/mjcarver/advisor-pulse/internal/metrics"
	"github.com/mjcarver/advisor-pulse/internal/models"
)

// Tier boundaries in days-until-due. Overdue alerts (negative days) land in
// RED. The aggregate tier extends only to the end of the current calendar
// month; anything further out stays in the plain alert list but out of the
// nudge.
const (
	redMaxDays    = 5
	yellowMaxDays = 15
)

// Item caps per verbosity mode.
const (
	fullModeCap  = 5
	briefModeCap = 3
)

// Result is the tiered nudge output.
type Result struct {
	Red       []models.Alert      `json:"red"`
	Yellow    []models.Alert      `json:"yellow"`
	Aggregate map[string][]string `json:"aggregate"`
	Formatted string              `json:"formatted_nudge"`
	TimeOfDay TimeOfDay           `json:"time_of_day"`
}

// Aggregator filters, partitions and formats alerts for presentation.
type Aggregator struct {
	dismissals *dismissal.Store
	logger     *slog.Logger
}

// NewAggregator creates an Aggregator backed by the given dismissal store.
func NewAggregator(d *dismissal.Store, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{dismissals: d, logger: logger}
}

// FilterActive removes alerts for inactive clients and, unless
// includeDismissed is set, dismissed alerts. Inactive clients' alerts never
// appear in any output regardless of includeDismissed.
func (a *Aggregator) FilterActive(in []models.Alert, includeDismissed bool) []models.Alert {
	var out []models.Alert
	for _, alert := range in {
		if a.dismissals.IsInactive(alert.ClientID) {
			continue
		}
		if !includeDismissed && a.dismissals.IsDismissed(alert.ID) {
			continue
		}
		out = append(out, alert)
	}
	return out
}

// Summarize computes dashboard counts over the active (non-inactive,
// non-dismissed) alert set.
func (a *Aggregator) Summarize(in []models.Alert, today models.Date) alerts.Summary {
	return alerts.Summarize(a.FilterActive(in, false), today)
}

// Build partitions the active alerts into RED / YELLOW / AGGREGATE tiers and
// renders the formatted nudge for the given time of day. today and hour must
// come from the same injected clock.
func (a *Aggregator) Build(in []models.Alert, today models.Date, hour int) Result {
	active := a.FilterActive(in, false)

	res := Result{
		Aggregate: make(map[string][]string),
		TimeOfDay: BucketFor(hour),
	}

	monthEndDays := today.EndOfMonth().DaysSince(today)
	seen := make(map[string]map[string]bool)

	for _, alert := range active {
		if alert.DaysUntilDue == nil {
			continue
		}
		d := *alert.DaysUntilDue
		switch {
		case d <= redMaxDays:
			res.Red = append(res.Red, alert)
		case d <= yellowMaxDays:
			res.Yellow = append(res.Yellow, alert)
		case d <= monthEndDays:
			label := alerts.Label(alert.Type)
			if seen[label] == nil {
				seen[label] = make(map[string]bool)
			}
			if !seen[label][alert.ClientName] {
				seen[label][alert.ClientName] = true
				res.Aggregate[label] = append(res.Aggregate[label], alert.ClientName)
			}
		}
	}

	sortTier(res.Red)
	sortTier(res.Yellow)

	res.Formatted = format(res)
	metrics.Inc(metrics.NudgeTotal)
	a.logger.Debug("nudge built",
		"red", len(res.Red), "yellow", len(res.Yellow),
		"aggregate_categories", len(res.Aggregate), "time_of_day", res.TimeOfDay)

	return res
}

// ForClient returns one client's active RED+YELLOW alerts (due within the
// yellow window), sorted most-urgent first. Used to inject "by the way" nudge
// context when a client comes up in conversation.
func (a *Aggregator) ForClient(in []models.Alert, clientID string) []models.Alert {
	var out []models.Alert
	for _, alert := range a.FilterActive(in, false) {
		if alert.ClientID != clientID || alert.DaysUntilDue == nil {
			continue
		}
		if *alert.DaysUntilDue <= yellowMaxDays {
			out = append(out, alert)
		}
	}
	sortTier(out)
	return out
}

// sortTier orders alerts by days-until-due ascending (most overdue first),
// breaking ties on priority rank.
func sortTier(tier []models.Alert) {
	sort.SliceStable(tier, func(i, j int) bool {
		di, dj := *tier[i].DaysUntilDue, *tier[j].DaysUntilDue
		if di != dj {
			return di < dj
		}
		return tier[i].Priority.Rank() < tier[j].Priority.Rank()
	})
}
