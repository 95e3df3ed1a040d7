package alerts

import "github.com/mjcarver/advisor-pulse/internal/models"

// ByType returns alerts matching the given type string. An unrecognized type
// is treated as "no match", not an error: filters are advisory UI plumbing.
func ByType(alerts []models.Alert, alertType string) []models.Alert {
	t := models.AlertType(alertType)
	if !t.IsValid() {
		return nil
	}
	var out []models.Alert
	for _, a := range alerts {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// ByPriority returns alerts matching the given priority string. Unrecognized
// priorities match nothing.
func ByPriority(alerts []models.Alert, priority string) []models.Alert {
	p := models.AlertPriority(priority)
	if !p.IsValid() {
		return nil
	}
	var out []models.Alert
	for _, a := range alerts {
		if a.Priority == p {
			out = append(out, a)
		}
	}
	return out
}

// ForClient returns all alerts belonging to one client.
func ForClient(alerts []models.Alert, clientID string) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.ClientID == clientID {
			out = append(out, a)
		}
	}
	return out
}

// Urgent returns urgent and high priority alerts.
func Urgent(alerts []models.Alert) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.Priority == models.PriorityUrgent || a.Priority == models.PriorityHigh {
			out = append(out, a)
		}
	}
	return out
}

// DueToday returns alerts due on the given date.
func DueToday(alerts []models.Alert, today models.Date) []models.Alert {
	var out []models.Alert
	for _, a := range alerts {
		if a.DueToday(today) {
			out = append(out, a)
		}
	}
	return out
}

// Summary holds dashboard counts for a set of alerts.
type Summary struct {
	Total    int            `json:"total"`
	Urgent   int            `json:"urgent"`
	High     int            `json:"high"`
	Medium   int            `json:"medium"`
	Low      int            `json:"low"`
	ByType   map[string]int `json:"by_type"`
	DueToday int            `json:"due_today"`
	Overdue  int            `json:"overdue"`
}

// Summarize computes priority, type and due-date counts for the alert set.
func Summarize(alerts []models.Alert, today models.Date) Summary {
	s := Summary{
		Total:  len(alerts),
		ByType: make(map[string]int),
	}
	for _, a := range alerts {
		switch a.Priority {
		case models.PriorityUrgent:
			s.Urgent++
		case models.PriorityHigh:
			s.High++
		case models.PriorityMedium:
			s.Medium++
		case models.PriorityLow:
			s.Low++
		}
		s.ByType[string(a.Type)]++
		if a.DueToday(today) {
			s.DueToday++
		}
		if a.Overdue(today) {
			s.Overdue++
		}
	}
	return s
}
