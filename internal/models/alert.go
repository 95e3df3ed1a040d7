package models

// AlertType is the detection category an alert belongs to.
type AlertType string

const (
	AlertBirthday              AlertType = "birthday"
	AlertPolicyRenewal         AlertType = "policy_renewal"
	AlertPolicyMaturity        AlertType = "policy_maturity"
	AlertFollowUpDue           AlertType = "follow_up_due"
	AlertFollowUpOverdue       AlertType = "follow_up_overdue"
	AlertAnnualReviewDue       AlertType = "annual_review_due"
	AlertAnnualReviewOverdue   AlertType = "annual_review_overdue"
	AlertNoContact             AlertType = "no_contact"
	AlertLifeEvent             AlertType = "life_event"
	AlertRiskProfileStale      AlertType = "risk_profile_stale"
	AlertConcernNeedsAttention AlertType = "concern_needs_attention"
	AlertRetirementApproaching AlertType = "retirement_approaching"
)

// ValidAlertTypes is the set of all recognized alert types.
var ValidAlertTypes = []AlertType{
	AlertBirthday,
	AlertPolicyRenewal,
	AlertPolicyMaturity,
	AlertFollowUpDue,
	AlertFollowUpOverdue,
	AlertAnnualReviewDue,
	AlertAnnualReviewOverdue,
	AlertNoContact,
	AlertLifeEvent,
	AlertRiskProfileStale,
	AlertConcernNeedsAttention,
	AlertRetirementApproaching,
}

// IsValid returns true if the alert type is recognized.
func (t AlertType) IsValid() bool {
	for _, v := range ValidAlertTypes {
		if t == v {
			return true
		}
	}
	return false
}

// AlertPriority orders alerts by urgency.
type AlertPriority string

const (
	PriorityUrgent AlertPriority = "urgent"
	PriorityHigh   AlertPriority = "high"
	PriorityMedium AlertPriority = "medium"
	PriorityLow    AlertPriority = "low"
)

// ValidAlertPriorities is the set of all recognized priorities.
var ValidAlertPriorities = []AlertPriority{
	PriorityUrgent,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// IsValid returns true if the priority is recognized.
func (p AlertPriority) IsValid() bool {
	for _, v := range ValidAlertPriorities {
		if p == v {
			return true
		}
	}
	return false
}

// Rank returns the sort rank of the priority; urgent sorts first.
// Unknown priorities sort after low.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// Alert is a single detected, time-bound action item tied to one client.
// Alerts are recomputed on every scan and never persisted; the ID is
// deterministic so the same real-world event keeps the same ID across scans,
// which is what makes dismissal stick.
type Alert struct {
	ID           string         `json:"id"`
	ClientID     string         `json:"client_id"`
	ClientName   string         `json:"client_name"`
	Type         AlertType      `json:"alert_type"`
	Priority     AlertPriority  `json:"priority"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	DueDate      *Date          `json:"due_date,omitempty"`
	DaysUntilDue *int           `json:"days_until_due,omitempty"`
	RelatedData  map[string]any `json:"related_data,omitempty"`
}

// Overdue reports whether the alert's due date has passed.
func (a *Alert) Overdue(today Date) bool {
	return a.DueDate != nil && a.DueDate.Before(today)
}

// DueToday reports whether the alert is due on the given date.
func (a *Alert) DueToday(today Date) bool {
	return a.DueDate != nil && a.DueDate.Equal(today)
}
