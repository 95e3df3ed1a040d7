package nudge

import (
	"fmt"
	"sort"
	"strings"
)

// TimeOfDay is the greeting/verbosity bucket derived from the hour of day.
type TimeOfDay string

const (
	Morning        TimeOfDay = "morning"
	EarlyAfternoon TimeOfDay = "early_afternoon"
	Afternoon      TimeOfDay = "afternoon"
	Evening        TimeOfDay = "evening"
	Night          TimeOfDay = "night"
	LateNight      TimeOfDay = "late_night"
)

// BucketFor maps an hour of day (0-23) to its time-of-day bucket.
func BucketFor(hour int) TimeOfDay {
	switch {
	case hour >= 5 && hour < 12:
		return Morning
	case hour >= 12 && hour < 14:
		return EarlyAfternoon
	case hour >= 14 && hour < 17:
		return Afternoon
	case hour >= 17 && hour < 20:
		return Evening
	case hour >= 20 && hour < 22:
		return Night
	}
	return LateNight
}

// Brief reports whether the bucket uses the shortened rendering. Don't show a
// long morning-style briefing late at night.
func (t TimeOfDay) Brief() bool {
	switch t {
	case Evening, Night, LateNight:
		return true
	}
	return false
}

var greetings = map[TimeOfDay]string{
	Morning:        "Good morning! Here's what needs your attention today:",
	EarlyAfternoon: "Good afternoon! Here's where things stand:",
	Afternoon:      "Afternoon check-in - here's what's on your plate:",
	Evening:        "Good evening! A quick look before you wrap up:",
	Night:          "Working late? Just the essentials:",
	LateNight:      "Burning the midnight oil - only the critical items:",
}

// format renders the nudge text for the result's time-of-day bucket.
func format(r Result) string {
	if len(r.Red) == 0 && len(r.Yellow) == 0 {
		return "You're all caught up - nothing urgent on the horizon. 🎉"
	}

	limit := fullModeCap
	if r.TimeOfDay.Brief() {
		limit = briefModeCap
	}

	var b strings.Builder
	b.WriteString(greetings[r.TimeOfDay])
	b.WriteString("\n")

	if len(r.Red) > 0 {
		b.WriteString("\n🔴 Needs action now:\n")
		for i, a := range r.Red {
			if i >= limit {
				break
			}
			fmt.Fprintf(&b, "  • %s - %s (%s)\n", a.ClientName, a.Title, dueLine(*a.DaysUntilDue))
		}
		if len(r.Red) > limit {
			fmt.Fprintf(&b, "  ...and %d more\n", len(r.Red)-limit)
		}
	}

	if r.TimeOfDay.Brief() {
		if len(r.Yellow) > 0 {
			fmt.Fprintf(&b, "\nPlus %d more coming up in the next two weeks.\n", len(r.Yellow))
		}
		return b.String()
	}

	if len(r.Yellow) > 0 {
		b.WriteString("\n🟡 Coming up:\n")
		for i, a := range r.Yellow {
			if i >= limit {
				break
			}
			fmt.Fprintf(&b, "  • %s - %s (%s)\n", a.ClientName, a.Title, dueLine(*a.DaysUntilDue))
		}
		if len(r.Yellow) > limit {
			fmt.Fprintf(&b, "  ...and %d more\n", len(r.Yellow)-limit)
		}
	}

	if len(r.Aggregate) > 0 {
		b.WriteString("\n📅 Later this month:\n")
		labels := make([]string, 0, len(r.Aggregate))
		for label := range r.Aggregate {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			fmt.Fprintf(&b, "  • %s: %s\n", label, strings.Join(r.Aggregate[label], ", "))
		}
	}

	return b.String()
}

// dueLine renders a days-until-due value as human text.
func dueLine(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("overdue by %d days", -days)
	case days == -1:
		return "overdue by 1 day"
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	}
	return fmt.Sprintf("due in %d days", days)
}
