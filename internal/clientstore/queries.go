package clientstore

import (
	"sort"
	"strings"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// Portfolio query helpers. These are pure functions over an already-loaded
// client list so they work identically against any Source.

// SearchByName returns clients whose first, last or full name contains the
// query, case-insensitively.
func SearchByName(clients []models.Client, query string) []models.Client {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []models.Client
	for _, c := range clients {
		full := strings.ToLower(c.FirstName + " " + c.LastName)
		if strings.Contains(full, q) || strings.Contains(strings.ToLower(c.FullName()), q) {
			out = append(out, c)
		}
	}
	return out
}

// Dormant returns clients not contacted for at least the given number of
// days. Never-contacted clients are excluded; that is an onboarding state,
// not dormancy.
func Dormant(clients []models.Client, today models.Date, days int) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if since, ok := c.DaysSinceLastContact(today); ok && since >= days {
			out = append(out, c)
		}
	}
	return out
}

// RecentlyContacted returns clients contacted within the given window.
func RecentlyContacted(clients []models.Client, today models.Date, days int) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if since, ok := c.DaysSinceLastContact(today); ok && since <= days {
			out = append(out, c)
		}
	}
	return out
}

// ReviewOverdue returns clients whose next annual review date has passed.
func ReviewOverdue(clients []models.Client, today models.Date) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if c.HasOverdueReview(today) {
			out = append(out, c)
		}
	}
	return out
}

// ReviewDueSoon returns clients whose review falls within the next N days.
func ReviewDueSoon(clients []models.Client, today models.Date, days int) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if c.Compliance.NextReviewDue.IsZero() {
			continue
		}
		d := c.Compliance.NextReviewDue.DaysSince(today)
		if d >= 0 && d <= days {
			out = append(out, c)
		}
	}
	return out
}

// WithActiveConcerns returns clients with at least one active concern.
func WithActiveConcerns(clients []models.Client) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if len(c.ActiveConcerns()) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// WithPendingFollowUps returns clients with at least one pending follow-up.
func WithPendingFollowUps(clients []models.Client) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if len(c.PendingFollowUps()) > 0 {
			out = append(out, c)
		}
	}
	return out
}

// HighValue returns clients whose total portfolio value meets the threshold.
func HighValue(clients []models.Client, threshold float64) []models.Client {
	var out []models.Client
	for _, c := range clients {
		if c.TotalPortfolioValue != nil && *c.TotalPortfolioValue >= threshold {
			out = append(out, c)
		}
	}
	return out
}

// SearchByConcern returns clients with at least one concern whose topic
// contains the query, case-insensitively.
func SearchByConcern(clients []models.Client, topic string) []models.Client {
	q := strings.ToLower(strings.TrimSpace(topic))
	if q == "" {
		return nil
	}
	var out []models.Client
	for _, c := range clients {
		for _, cn := range c.Concerns {
			if strings.Contains(strings.ToLower(cn.Topic), q) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Summary is a condensed single-client view for quick advisor reference. It
// collapses the full record into the handful of facts an advisor wants before
// picking up the phone.
type Summary struct {
	BasicInfo struct {
		Name          string      `json:"name"`
		Age           int         `json:"age"`
		Occupation    string      `json:"occupation,omitempty"`
		MaritalStatus string      `json:"marital_status,omitempty"`
		ClientSince   models.Date `json:"client_since"`
	} `json:"basic_info"`
	Contact struct {
		Email            string               `json:"email"`
		Phone            string               `json:"phone"`
		PreferredMethod  models.ContactMethod `json:"preferred_method,omitempty"`
		DaysSinceContact *int                 `json:"days_since_contact"`
	} `json:"contact"`
	Family []SummaryFamilyMember `json:"family"`
	Portfolio struct {
		TotalValue  *float64            `json:"total_value"`
		NumPolicies int                 `json:"num_policies"`
		PolicyTypes []models.PolicyType `json:"policy_types"`
	} `json:"portfolio"`
	Concerns         []SummaryConcern  `json:"concerns"`
	UpcomingEvents   []SummaryEvent    `json:"upcoming_events"`
	PendingFollowUps []SummaryFollowUp `json:"pending_follow_ups"`
	Compliance       struct {
		LastReview    models.Date `json:"last_review"`
		NextReviewDue models.Date `json:"next_review_due"`
		Status        string      `json:"status,omitempty"`
		IsOverdue     bool        `json:"is_overdue"`
	} `json:"compliance"`
	RecentMeetings []SummaryMeeting    `json:"recent_meetings"`
	RiskProfile    *SummaryRiskProfile `json:"risk_profile,omitempty"`
}

// SummaryFamilyMember is a family entry within a Summary.
type SummaryFamilyMember struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
}

// SummaryConcern is a concern entry within a Summary.
type SummaryConcern struct {
	Topic    string                 `json:"topic"`
	Severity models.ConcernSeverity `json:"severity"`
	Status   models.ConcernStatus   `json:"status"`
}

// SummaryEvent is an upcoming life event within a Summary.
type SummaryEvent struct {
	Type        models.LifeEventType `json:"type"`
	Date        models.Date          `json:"date"`
	Description string               `json:"description"`
}

// SummaryFollowUp is a pending commitment within a Summary.
type SummaryFollowUp struct {
	Commitment string      `json:"commitment"`
	Deadline   models.Date `json:"deadline"`
}

// SummaryMeeting is a recent meeting within a Summary.
type SummaryMeeting struct {
	Date    models.Date `json:"date"`
	Summary string      `json:"summary"`
}

// SummaryRiskProfile is the risk snapshot within a Summary.
type SummaryRiskProfile struct {
	Attitude models.RiskAttitude `json:"attitude"`
	Capacity models.RiskAttitude `json:"capacity,omitempty"`
}

// ClientSummary condenses one client record as of the given date. Upcoming
// events are events dated today or later; recent meetings are capped at
// three, taken in record order.
func ClientSummary(c *models.Client, today models.Date) Summary {
	var s Summary

	s.BasicInfo.Name = c.FullName()
	s.BasicInfo.Age = c.Age(today)
	s.BasicInfo.Occupation = c.Occupation
	s.BasicInfo.MaritalStatus = c.MaritalStatus
	s.BasicInfo.ClientSince = c.ClientSince

	s.Contact.Email = c.ContactInfo.Email
	s.Contact.Phone = c.ContactInfo.Phone
	s.Contact.PreferredMethod = c.ContactInfo.PreferredContactMethod
	if since, ok := c.DaysSinceLastContact(today); ok {
		s.Contact.DaysSinceContact = &since
	}

	for _, m := range c.FamilyMembers {
		s.Family = append(s.Family, SummaryFamilyMember{Name: m.Name, Relationship: m.Relationship})
	}

	s.Portfolio.TotalValue = c.TotalPortfolioValue
	s.Portfolio.NumPolicies = len(c.Policies)
	seen := make(map[models.PolicyType]bool)
	for _, p := range c.Policies {
		if !seen[p.PolicyType] {
			seen[p.PolicyType] = true
			s.Portfolio.PolicyTypes = append(s.Portfolio.PolicyTypes, p.PolicyType)
		}
	}

	for _, cn := range c.Concerns {
		s.Concerns = append(s.Concerns, SummaryConcern{Topic: cn.Topic, Severity: cn.Severity, Status: cn.Status})
	}

	for _, e := range c.LifeEvents {
		if e.EventDate.IsZero() || e.EventDate.Before(today) {
			continue
		}
		s.UpcomingEvents = append(s.UpcomingEvents, SummaryEvent{
			Type: e.EventType, Date: e.EventDate, Description: e.Description,
		})
	}

	for _, f := range c.PendingFollowUps() {
		s.PendingFollowUps = append(s.PendingFollowUps, SummaryFollowUp{Commitment: f.Commitment, Deadline: f.Deadline})
	}

	s.Compliance.LastReview = c.Compliance.LastAnnualReview
	s.Compliance.NextReviewDue = c.Compliance.NextReviewDue
	s.Compliance.Status = c.Compliance.ReviewStatus
	s.Compliance.IsOverdue = c.HasOverdueReview(today)

	for i, m := range c.MeetingNotes {
		if i == 3 {
			break
		}
		s.RecentMeetings = append(s.RecentMeetings, SummaryMeeting{Date: m.MeetingDate, Summary: m.Summary})
	}

	if c.RiskProfile != nil {
		s.RiskProfile = &SummaryRiskProfile{
			Attitude: c.RiskProfile.AttitudeToRisk,
			Capacity: c.RiskProfile.CapacityForLoss,
		}
	}

	return s
}

// BirthdayEntry is one upcoming birthday in the book, client's own or a
// family member's.
type BirthdayEntry struct {
	ClientID   string      `json:"client_id"`
	ClientName string      `json:"client_name"`
	Person     string      `json:"person"`
	Date       models.Date `json:"date"`
	DaysUntil  int         `json:"days_until"`
}

// UpcomingBirthdays lists client and family birthdays within the window,
// soonest first.
func UpcomingBirthdays(clients []models.Client, today models.Date, days int) []BirthdayEntry {
	var out []BirthdayEntry
	for _, c := range clients {
		if !c.DateOfBirth.IsZero() {
			next := nextBirthday(c.DateOfBirth, today)
			if d := next.DaysSince(today); d <= days {
				out = append(out, BirthdayEntry{
					ClientID: c.ID, ClientName: c.FullName(),
					Person: c.FullName(), Date: next, DaysUntil: d,
				})
			}
		}
		for _, m := range c.FamilyMembers {
			if m.DateOfBirth.IsZero() {
				continue
			}
			next := nextBirthday(m.DateOfBirth, today)
			if d := next.DaysSince(today); d <= days {
				out = append(out, BirthdayEntry{
					ClientID: c.ID, ClientName: c.FullName(),
					Person: m.Name + " (" + m.Relationship + ")", Date: next, DaysUntil: d,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}

// LifeEventEntry is one upcoming life event across the book.
type LifeEventEntry struct {
	ClientID   string               `json:"client_id"`
	ClientName string               `json:"client_name"`
	EventType  models.LifeEventType `json:"event_type"`
	Date       models.Date          `json:"date"`
	DaysUntil  int                  `json:"days_until"`
	Details    string               `json:"details"`
}

// UpcomingLifeEvents lists life events within the window, soonest first.
func UpcomingLifeEvents(clients []models.Client, today models.Date, days int) []LifeEventEntry {
	var out []LifeEventEntry
	for _, c := range clients {
		for _, e := range c.LifeEvents {
			if e.EventDate.IsZero() {
				continue
			}
			d := e.EventDate.DaysSince(today)
			if d < 0 || d > days {
				continue
			}
			out = append(out, LifeEventEntry{
				ClientID: c.ID, ClientName: c.FullName(),
				EventType: e.EventType, Date: e.EventDate, DaysUntil: d, Details: e.Description,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}

// ExpiringPolicy is one policy renewing or maturing within the window.
type ExpiringPolicy struct {
	ClientID   string            `json:"client_id"`
	ClientName string            `json:"client_name"`
	PolicyType models.PolicyType `json:"policy_type"`
	Provider   string            `json:"provider"`
	Kind       string            `json:"kind"` // "renewal" or "maturity"
	Date       models.Date       `json:"date"`
	DaysUntil  int               `json:"days_until"`
}

// PoliciesExpiringSoon lists renewals and maturities within the window.
func PoliciesExpiringSoon(clients []models.Client, today models.Date, days int) []ExpiringPolicy {
	var out []ExpiringPolicy
	for _, c := range clients {
		for _, p := range c.Policies {
			if !p.RenewalDate.IsZero() {
				if d := p.RenewalDate.DaysSince(today); d >= 0 && d <= days {
					out = append(out, ExpiringPolicy{
						ClientID: c.ID, ClientName: c.FullName(),
						PolicyType: p.PolicyType, Provider: p.Provider,
						Kind: "renewal", Date: p.RenewalDate, DaysUntil: d,
					})
				}
			}
			if !p.MaturityDate.IsZero() {
				if d := p.MaturityDate.DaysSince(today); d >= 0 && d <= days {
					out = append(out, ExpiringPolicy{
						ClientID: c.ID, ClientName: c.FullName(),
						PolicyType: p.PolicyType, Provider: p.Provider,
						Kind: "maturity", Date: p.MaturityDate, DaysUntil: d,
					})
				}
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DaysUntil < out[j].DaysUntil })
	return out
}

// BriefingData is the raw material for the daily briefing dashboard.
type BriefingData struct {
	TotalClients      int              `json:"total_clients"`
	ReviewsOverdue    []string         `json:"reviews_overdue"`
	Dormant90Days     []string         `json:"dormant_90_days"`
	UpcomingBirthdays []BirthdayEntry  `json:"upcoming_birthdays"`
	UpcomingEvents    []LifeEventEntry `json:"upcoming_events"`
	ExpiringPolicies  []ExpiringPolicy `json:"expiring_policies"`
}

// DailyBriefingData assembles the client-book counts behind the daily
// briefing dashboard.
func DailyBriefingData(clients []models.Client, today models.Date) BriefingData {
	data := BriefingData{TotalClients: len(clients)}
	for _, c := range ReviewOverdue(clients, today) {
		data.ReviewsOverdue = append(data.ReviewsOverdue, c.FullName())
	}
	for _, c := range Dormant(clients, today, 90) {
		data.Dormant90Days = append(data.Dormant90Days, c.FullName())
	}
	data.UpcomingBirthdays = UpcomingBirthdays(clients, today, 30)
	data.UpcomingEvents = UpcomingLifeEvents(clients, today, 30)
	data.ExpiringPolicies = PoliciesExpiringSoon(clients, today, 60)
	return data
}

// nextBirthday returns the next occurrence of a birthday on or after today.
func nextBirthday(dob, today models.Date) models.Date {
	next := models.NewDate(today.Year(), dob.Month(), dob.Day())
	if next.Before(today) {
		next = models.NewDate(today.Year()+1, dob.Month(), dob.Day())
	}
	return next
}
