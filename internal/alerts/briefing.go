package alerts

import (
	"fmt"
	"strings"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// briefingSectionCap limits each daily briefing section to its top items.
const briefingSectionCap = 5

// DailyBriefing renders a markdown summary of the alert set for the daily
// dashboard. Pure string formatting over an already-filtered alert list.
func DailyBriefing(alerts []models.Alert, today models.Date) string {
	summary := Summarize(alerts, today)

	var b strings.Builder
	fmt.Fprintf(&b, "## 📊 Daily Briefing - %s\n\n", today.Format("Monday, 02 January 2006"))
	b.WriteString("### Overview\n")
	fmt.Fprintf(&b, "- **Total Alerts:** %d\n", summary.Total)
	fmt.Fprintf(&b, "- **Urgent:** %d | **High:** %d | **Medium:** %d | **Low:** %d\n", summary.Urgent, summary.High, summary.Medium, summary.Low)
	fmt.Fprintf(&b, "- **Due Today:** %d | **Overdue:** %d\n\n", summary.DueToday, summary.Overdue)

	writeSection(&b, "### 🚨 Urgent Action Required", ByPriority(alerts, string(models.PriorityUrgent)))
	writeSection(&b, "### 📅 Due Today", DueToday(alerts, today))

	var week []models.Alert
	for _, a := range alerts {
		if a.DueDate == nil {
			continue
		}
		if d := a.DueDate.DaysSince(today); d > 0 && d <= 7 {
			week = append(week, a)
		}
	}
	writeSection(&b, "### 📆 This Week", week)

	return b.String()
}

func writeSection(b *strings.Builder, heading string, alerts []models.Alert) {
	if len(alerts) == 0 {
		return
	}
	b.WriteString(heading + "\n")
	for i, a := range alerts {
		if i >= briefingSectionCap {
			break
		}
		fmt.Fprintf(b, "- **%s**: %s\n", a.ClientName, a.Title)
	}
	b.WriteString("\n")
}
