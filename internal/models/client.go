package models

import (
	"fmt"
	"time"
)

// ContactMethod is how an advisor-client touchpoint happened.
type ContactMethod string

const (
	ContactEmail     ContactMethod = "email"
	ContactPhone     ContactMethod = "phone"
	ContactVideoCall ContactMethod = "video_call"
	ContactInPerson  ContactMethod = "in_person"
	ContactSMS       ContactMethod = "sms"
)

// RiskAttitude grades a client's attitude to investment risk.
type RiskAttitude string

const (
	RiskVeryLow  RiskAttitude = "very_low"
	RiskLow      RiskAttitude = "low"
	RiskMedium   RiskAttitude = "medium"
	RiskHigh     RiskAttitude = "high"
	RiskVeryHigh RiskAttitude = "very_high"
)

// PolicyType classifies a financial product.
type PolicyType string

const (
	PolicyPension          PolicyType = "pension"
	PolicyISA              PolicyType = "isa"
	PolicyGIA              PolicyType = "gia"
	PolicyLifeInsurance    PolicyType = "life_insurance"
	PolicyCriticalIllness  PolicyType = "critical_illness"
	PolicyIncomeProtection PolicyType = "income_protection"
	PolicyMortgage         PolicyType = "mortgage"
	PolicyAnnuity          PolicyType = "annuity"
)

// ConcernSeverity grades how serious a client concern is.
type ConcernSeverity string

const (
	SeverityLow    ConcernSeverity = "low"
	SeverityMedium ConcernSeverity = "medium"
	SeverityHigh   ConcernSeverity = "high"
)

// ConcernStatus tracks where a concern sits in its lifecycle.
type ConcernStatus string

const (
	ConcernActive     ConcernStatus = "active"
	ConcernAddressed  ConcernStatus = "addressed"
	ConcernMonitoring ConcernStatus = "monitoring"
)

// FollowUpStatus tracks an advisor commitment.
type FollowUpStatus string

const (
	FollowUpPending   FollowUpStatus = "pending"
	FollowUpCompleted FollowUpStatus = "completed"
	FollowUpOverdue   FollowUpStatus = "overdue"
)

// LifeEventType classifies a client life event.
type LifeEventType string

const (
	EventBirthday      LifeEventType = "birthday"
	EventWedding       LifeEventType = "wedding"
	EventBirth         LifeEventType = "birth"
	EventRetirement    LifeEventType = "retirement"
	EventAnniversary   LifeEventType = "anniversary"
	EventGraduation    LifeEventType = "graduation"
	EventNewJob        LifeEventType = "new_job"
	EventHousePurchase LifeEventType = "house_purchase"
	EventDeathInFamily LifeEventType = "death_in_family"
	EventDivorce       LifeEventType = "divorce"
	EventInheritance   LifeEventType = "inheritance"
	EventHealthIssue   LifeEventType = "health_issue"
	EventOther         LifeEventType = "other"
)

// FamilyMember is a relative tracked for life-event and birthday nudges.
type FamilyMember struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	DateOfBirth  Date   `json:"date_of_birth"`
	Notes        string `json:"notes,omitempty"`
}

// LifeEvent is a past or upcoming event in a client's life.
type LifeEvent struct {
	EventType     LifeEventType `json:"event_type"`
	EventDate     Date          `json:"event_date"`
	Description   string        `json:"description"`
	RelatedPerson string        `json:"related_person,omitempty"`
	Source        string        `json:"source,omitempty"`
}

// Concern is a client worry the advisor tracks and revisits.
type Concern struct {
	Topic         string          `json:"topic"`
	Details       string          `json:"details"`
	Severity      ConcernSeverity `json:"severity"`
	DateRaised    Date            `json:"date_raised"`
	Status        ConcernStatus   `json:"status"`
	LastDiscussed Date            `json:"last_discussed"`
	Notes         string          `json:"notes,omitempty"`
}

// Policy is a financial product held by a client.
type Policy struct {
	PolicyType          PolicyType `json:"policy_type"`
	Provider            string     `json:"provider"`
	PolicyNumber        string     `json:"policy_number,omitempty"`
	CurrentValue        *float64   `json:"current_value,omitempty"`
	MonthlyContribution *float64   `json:"monthly_contribution,omitempty"`
	StartDate           Date       `json:"start_date"`
	RenewalDate         Date       `json:"renewal_date"`
	MaturityDate        Date       `json:"maturity_date"`
	Notes               string     `json:"notes,omitempty"`
}

// RiskProfile is a client's risk assessment record.
type RiskProfile struct {
	AttitudeToRisk       RiskAttitude `json:"attitude_to_risk"`
	CapacityForLoss      RiskAttitude `json:"capacity_for_loss,omitempty"`
	InvestmentExperience string       `json:"investment_experience,omitempty"`
	TimeHorizonYears     int          `json:"time_horizon_years,omitempty"`
	LastAssessed         Date         `json:"last_assessed"`
	Notes                string       `json:"notes,omitempty"`
}

// MeetingNote records a client meeting.
type MeetingNote struct {
	MeetingDate     Date          `json:"meeting_date"`
	MeetingType     ContactMethod `json:"meeting_type"`
	DurationMinutes int           `json:"duration_minutes,omitempty"`
	Summary         string        `json:"summary"`
	KeyPoints       []string      `json:"key_points,omitempty"`
	ActionItems     []string      `json:"action_items,omitempty"`
	ConcernsRaised  []string      `json:"concerns_raised,omitempty"`
}

// FollowUp is a commitment the advisor made to a client.
type FollowUp struct {
	Commitment    string         `json:"commitment"`
	Deadline      Date           `json:"deadline"`
	Status        FollowUpStatus `json:"status"`
	CreatedDate   Date           `json:"created_date"`
	CompletedDate Date           `json:"completed_date"`
	Notes         string         `json:"notes,omitempty"`
}

// Interaction records a single advisor-client touchpoint.
type Interaction struct {
	InteractionDate time.Time     `json:"interaction_date"`
	Method          ContactMethod `json:"method"`
	Direction       string        `json:"direction,omitempty"`
	Summary         string        `json:"summary,omitempty"`
	DurationMinutes int           `json:"duration_minutes,omitempty"`
	NextAction      string        `json:"next_action,omitempty"`
}

// ComplianceRecord tracks Consumer Duty requirements for a client.
type ComplianceRecord struct {
	LastAnnualReview     Date     `json:"last_annual_review"`
	NextReviewDue        Date     `json:"next_review_due"`
	ReviewStatus         string   `json:"review_status,omitempty"`
	SuitabilityConfirmed bool     `json:"suitability_confirmed"`
	SuitabilityDate      Date     `json:"suitability_date"`
	ValueDelivered       []string `json:"value_delivered,omitempty"`
	Notes                string   `json:"notes,omitempty"`
}

// Address is a UK postal address.
type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	County   string `json:"county,omitempty"`
	Postcode string `json:"postcode"`
	Country  string `json:"country,omitempty"`
}

// ContactInfo holds a client's contact details.
type ContactInfo struct {
	Email                  string        `json:"email"`
	Phone                  string        `json:"phone"`
	Mobile                 string        `json:"mobile,omitempty"`
	Address                Address       `json:"address"`
	PreferredContactMethod ContactMethod `json:"preferred_contact_method,omitempty"`
	BestTimeToCall         string        `json:"best_time_to_call,omitempty"`
}

// Client is the complete advisory client record. It is consumed read-only by
// the detection and scoring engines; all derived values are computed per call
// against an injected date.
type Client struct {
	ID string `json:"id"`

	Title             string `json:"title,omitempty"`
	FirstName         string `json:"first_name"`
	LastName          string `json:"last_name"`
	DateOfBirth       Date   `json:"date_of_birth"`
	NationalInsurance string `json:"national_insurance,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	Employer          string `json:"employer,omitempty"`
	AnnualIncome      *float64 `json:"annual_income,omitempty"`

	ContactInfo ContactInfo `json:"contact_info"`

	MaritalStatus string         `json:"marital_status,omitempty"`
	FamilyMembers []FamilyMember `json:"family_members,omitempty"`

	LifeEvents []LifeEvent `json:"life_events,omitempty"`
	Concerns   []Concern   `json:"concerns,omitempty"`

	Policies            []Policy `json:"policies,omitempty"`
	TotalPortfolioValue *float64 `json:"total_portfolio_value,omitempty"`

	RiskProfile *RiskProfile `json:"risk_profile,omitempty"`

	MeetingNotes []MeetingNote `json:"meeting_notes,omitempty"`
	FollowUps    []FollowUp    `json:"follow_ups,omitempty"`
	Interactions []Interaction `json:"interactions,omitempty"`

	Compliance ComplianceRecord `json:"compliance"`

	ClientSince     Date     `json:"client_since"`
	AssignedAdvisor string   `json:"assigned_advisor,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Notes           string   `json:"notes,omitempty"`
}

// FullName returns the client's display name including title.
func (c *Client) FullName() string {
	if c.Title == "" {
		return fmt.Sprintf("%s %s", c.FirstName, c.LastName)
	}
	return fmt.Sprintf("%s %s %s", c.Title, c.FirstName, c.LastName)
}

// Age returns the client's age in whole years as of the given date.
func (c *Client) Age(today Date) int {
	age := today.Year() - c.DateOfBirth.Year()
	if (int(today.Month()) < int(c.DateOfBirth.Month())) ||
		(today.Month() == c.DateOfBirth.Month() && today.Day() < c.DateOfBirth.Day()) {
		age--
	}
	return age
}

// DaysSinceLastContact returns the days between the most recent interaction
// and today. The second return is false when the client has never been
// contacted; callers must treat that as "unknown", not zero.
func (c *Client) DaysSinceLastContact(today Date) (int, bool) {
	if len(c.Interactions) == 0 {
		return 0, false
	}
	last := c.Interactions[0].InteractionDate
	for _, in := range c.Interactions[1:] {
		if in.InteractionDate.After(last) {
			last = in.InteractionDate
		}
	}
	return today.DaysSince(DateOf(last)), true
}

// HasOverdueReview reports whether the next annual review date has passed.
func (c *Client) HasOverdueReview(today Date) bool {
	if c.Compliance.NextReviewDue.IsZero() {
		return false
	}
	return today.After(c.Compliance.NextReviewDue)
}

// ActiveConcerns returns concerns with active status.
func (c *Client) ActiveConcerns() []Concern {
	var out []Concern
	for _, cn := range c.Concerns {
		if cn.Status == ConcernActive {
			out = append(out, cn)
		}
	}
	return out
}

// PendingFollowUps returns follow-ups still awaiting completion.
func (c *Client) PendingFollowUps() []FollowUp {
	var out []FollowUp
	for _, f := range c.FollowUps {
		if f.Status == FollowUpPending {
			out = append(out, f)
		}
	}
	return out
}

// OverdueFollowUps returns pending follow-ups whose deadline has passed.
func (c *Client) OverdueFollowUps(today Date) []FollowUp {
	var out []FollowUp
	for _, f := range c.FollowUps {
		if f.Status == FollowUpPending && f.Deadline.Before(today) {
			out = append(out, f)
		}
	}
	return out
}

// ClientDatabase is the on-disk container for the client book.
type ClientDatabase struct {
	Clients     []Client  `json:"clients"`
	LastUpdated time.Time `json:"last_updated,omitempty"`
	Version     string    `json:"version,omitempty"`
}
