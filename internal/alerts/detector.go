// Package alerts implements the rule-based alert detector: ten independent
// detection rules scanned over the full client book, producing prioritized,
// deterministic action items for the advisor.
package alerts

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/mjcarver/advisor-pulse/internal/metrics"
	"github.com/mjcarver/advisor-pulse/internal/models"
)

// Detection windows and thresholds. Fixed policy, not user-configurable.
const (
	birthdayWindowDays       = 14
	familyBirthdayWindowDays = 7
	policyRenewalWindowDays  = 30
	policyMaturityWindowDays = 60
	followUpWarningDays      = 3
	annualReviewWindowDays   = 30
	lifeEventWindowDays      = 30
	noContactDays            = 90
	noContactHighDays        = 180
	riskProfileStaleDays     = 365
	concernStaleDays         = 30

	// RetirementAge is the UK state pension age used by the
	// retirement-approaching rule.
	RetirementAge = 67

	retirementWarningYears = 2
)

// Detector scans client records and generates alerts. It is a pure function
// of (clients, today): no I/O, no side effects beyond metrics counters, and
// byte-identical output for identical inputs.
type Detector struct {
	logger *slog.Logger
}

// NewDetector creates a Detector.
func NewDetector(logger *slog.Logger) *Detector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{logger: logger}
}

// Scan runs every detection rule over every client and returns the complete,
// unfiltered alert list sorted by priority then due date (nil due dates last).
func (d *Detector) Scan(clients []models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	for i := range clients {
		c := &clients[i]
		alerts = append(alerts, d.checkBirthdays(c, today)...)
		alerts = append(alerts, d.checkPolicyRenewals(c, today)...)
		alerts = append(alerts, d.checkPolicyMaturities(c, today)...)
		alerts = append(alerts, d.checkFollowUps(c, today)...)
		alerts = append(alerts, d.checkAnnualReview(c, today)...)
		alerts = append(alerts, d.checkNoContact(c, today)...)
		alerts = append(alerts, d.checkLifeEvents(c, today)...)
		alerts = append(alerts, d.checkRiskProfile(c, today)...)
		alerts = append(alerts, d.checkConcerns(c, today)...)
		alerts = append(alerts, d.checkRetirement(c, today)...)
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		ri, rj := alerts[i].Priority.Rank(), alerts[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := alerts[i].DueDate, alerts[j].DueDate
		switch {
		case di == nil && dj == nil:
			return false
		case di == nil:
			return false
		case dj == nil:
			return true
		}
		return di.Before(*dj)
	})

	metrics.Inc(metrics.ScanTotal)
	metrics.AlertsEmitted.Add(int64(len(alerts)))
	d.logger.Debug("alert scan complete", "clients", len(clients), "alerts", len(alerts))

	return alerts
}

// nextOccurrence returns the next calendar occurrence of dob's month/day on
// or after today. A birthday that has already passed this year rolls over to
// next year's date.
func nextOccurrence(dob, today models.Date) models.Date {
	occ := models.NewDate(today.Year(), dob.Month(), dob.Day())
	if occ.Before(today) {
		occ = models.NewDate(today.Year()+1, dob.Month(), dob.Day())
	}
	return occ
}

func (d *Detector) checkBirthdays(c *models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	if !c.DateOfBirth.IsZero() {
		bday := nextOccurrence(c.DateOfBirth, today)
		days := bday.DaysSince(today)

		if days >= 0 && days <= birthdayWindowDays {
			age := today.Year() - c.DateOfBirth.Year()
			if bday.Year() > today.Year() {
				age++
			}

			priority := models.PriorityMedium
			if days <= 3 {
				priority = models.PriorityHigh
			}

			title := fmt.Sprintf("🎂 %s's Birthday in %d days", c.FirstName, days)
			if days == 0 {
				title = fmt.Sprintf("🎂 %s's Birthday Today!", c.FirstName)
			}

			alerts = append(alerts, models.Alert{
				ID:          fmt.Sprintf("bday-%s-%d", c.ID, bday.Year()),
				ClientID:    c.ID,
				ClientName:  c.FullName(),
				Type:        models.AlertBirthday,
				Priority:    priority,
				Title:       title,
				Description: fmt.Sprintf("%s turns %d on %s. Consider sending a birthday message.", c.FullName(), age, bday.Format("02 January")),
				DueDate:     &bday,
				DaysUntilDue: intPtr(days),
				RelatedData: map[string]any{
					"age":   age,
					"email": c.ContactInfo.Email,
					"phone": c.ContactInfo.Phone,
				},
			})
		}
	}

	for _, member := range c.FamilyMembers {
		if member.DateOfBirth.IsZero() {
			continue
		}
		bday := nextOccurrence(member.DateOfBirth, today)
		days := bday.DaysSince(today)
		if days < 0 || days > familyBirthdayWindowDays {
			continue
		}

		alerts = append(alerts, models.Alert{
			ID:          fmt.Sprintf("fam-bday-%s-%s-%d", c.ID, member.Name, bday.Year()),
			ClientID:    c.ID,
			ClientName:  c.FullName(),
			Type:        models.AlertBirthday,
			Priority:    models.PriorityLow,
			Title:       fmt.Sprintf("👨‍👩‍👧 %s's Birthday (%s)", member.Name, member.Relationship),
			Description: fmt.Sprintf("%s, %s's %s, has a birthday on %s.", member.Name, c.FirstName, member.Relationship, bday.Format("02 January")),
			DueDate:     &bday,
			DaysUntilDue: intPtr(days),
			RelatedData: map[string]any{
				"family_member": member.Name,
				"relationship":  member.Relationship,
			},
		})
	}

	return alerts
}

func (d *Detector) checkPolicyRenewals(c *models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	for _, policy := range c.Policies {
		if policy.RenewalDate.IsZero() {
			continue
		}
		due := policy.RenewalDate
		days := due.DaysSince(today)
		related := policyRelatedData(policy)

		switch {
		case days < 0:
			alerts = append(alerts, models.Alert{
				ID:          fmt.Sprintf("renewal-overdue-%s-%s", c.ID, policyKey(policy)),
				ClientID:    c.ID,
				ClientName:  c.FullName(),
				Type:        models.AlertPolicyRenewal,
				Priority:    models.PriorityUrgent,
				Title:       fmt.Sprintf("⚠️ Overdue: %s Renewal", policyLabel(policy.PolicyType)),
				Description: fmt.Sprintf("%s's %s %s was due for renewal %d days ago.", c.FirstName, policy.Provider, strings.ToLower(policyLabel(policy.PolicyType)), -days),
				DueDate:     &due,
				DaysUntilDue: intPtr(days),
				RelatedData: related,
			})
		case days <= policyRenewalWindowDays:
			priority := models.PriorityMedium
			if days <= 7 {
				priority = models.PriorityHigh
			}
			alerts = append(alerts, models.Alert{
				ID:          fmt.Sprintf("renewal-%s-%s", c.ID, policyKey(policy)),
				ClientID:    c.ID,
				ClientName:  c.FullName(),
				Type:        models.AlertPolicyRenewal,
				Priority:    priority,
				Title:       fmt.Sprintf("📋 %s Renewal in %d days", policyLabel(policy.PolicyType), days),
				Description: fmt.Sprintf("%s's %s %s renews on %s.", c.FirstName, policy.Provider, strings.ToLower(policyLabel(policy.PolicyType)), due.Format("02 January 2006")),
				DueDate:     &due,
				DaysUntilDue: intPtr(days),
				RelatedData: related,
			})
		}
	}

	return alerts
}

func (d *Detector) checkPolicyMaturities(c *models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	for _, policy := range c.Policies {
		if policy.MaturityDate.IsZero() {
			continue
		}
		due := policy.MaturityDate
		days := due.DaysSince(today)
		// Maturities are terminal events, not missed obligations: no overdue
		// branch.
		if days < 0 || days > policyMaturityWindowDays {
			continue
		}

		priority := models.PriorityMedium
		if days <= 14 {
			priority = models.PriorityHigh
		}

		desc := fmt.Sprintf("%s's %s %s matures on %s.", c.FirstName, policy.Provider, strings.ToLower(policyLabel(policy.PolicyType)), due.Format("02 January 2006"))
		if policy.CurrentValue != nil {
			desc = fmt.Sprintf("%s Current value: £%s.", strings.TrimSuffix(desc, "."), humanize.CommafWithDigits(*policy.CurrentValue, 0))
		}

		alerts = append(alerts, models.Alert{
			ID:          fmt.Sprintf("maturity-%s-%s", c.ID, policyKey(policy)),
			ClientID:    c.ID,
			ClientName:  c.FullName(),
			Type:        models.AlertPolicyMaturity,
			Priority:    priority,
			Title:       fmt.Sprintf("💰 %s Maturing", policyLabel(policy.PolicyType)),
			Description: desc,
			DueDate:     &due,
			DaysUntilDue: intPtr(days),
			RelatedData: policyRelatedData(policy),
		})
	}

	return alerts
}

func (d *Detector) checkFollowUps(c *models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	for _, fu := range c.FollowUps {
		if fu.Status != models.FollowUpPending {
			continue
		}
		due := fu.Deadline
		days := due.DaysSince(today)

		switch {
		case days < 0:
			alerts = append(alerts, models.Alert{
				ID:          fmt.Sprintf("followup-overdue-%s-%s", c.ID, truncateRunes(fu.Commitment, 20)),
				ClientID:    c.ID,
				ClientName:  c.FullName(),
				Type:        models.AlertFollowUpOverdue,
				Priority:    models.PriorityUrgent,
				Title:       fmt.Sprintf("⚠️ Overdue Follow-up: %s...", truncateRunes(fu.Commitment, 40)),
				Description: fmt.Sprintf("You promised %s: %q - was due %d days ago.", c.FirstName, fu.Commitment, -days),
				DueDate:     &due,
				DaysUntilDue: intPtr(days),
				RelatedData: map[string]any{
					"commitment": fu.Commitment,
					"notes":      fu.Notes,
				},
			})
		case days <= followUpWarningDays:
			priority := models.PriorityMedium
			title := fmt.Sprintf("📌 Follow-up Due in %d days", days)
			if days == 0 {
				priority = models.PriorityHigh
				title = "📌 Follow-up Due Today"
			}
			alerts = append(alerts, models.Alert{
				ID:          fmt.Sprintf("followup-%s-%s", c.ID, truncateRunes(fu.Commitment, 20)),
				ClientID:    c.ID,
				ClientName:  c.FullName(),
				Type:        models.AlertFollowUpDue,
				Priority:    priority,
				Title:       title,
				Description: fmt.Sprintf("You promised %s: %q", c.FirstName, fu.Commitment),
				DueDate:     &due,
				DaysUntilDue: intPtr(days),
				RelatedData: map[string]any{
					"commitment": fu.Commitment,
					"notes":      fu.Notes,
				},
			})
		}
	}

	return alerts
}

func (d *Detector) checkAnnualReview(c *models.Client, today models.Date) []models.Alert {
	// No review baseline means staleness cannot be computed; skip the rule.
	if c.Compliance.NextReviewDue.IsZero() {
		return nil
	}

	due := c.Compliance.NextReviewDue
	days := due.DaysSince(today)

	related := map[string]any{}
	if !c.Compliance.LastAnnualReview.IsZero() {
		related["last_review"] = c.Compliance.LastAnnualReview.String()
	}
	if c.TotalPortfolioValue != nil {
		related["portfolio_value"] = *c.TotalPortfolioValue
	}

	switch {
	case days < 0:
		// Regulatory breach, flagged distinctly from other urgents.
		return []models.Alert{{
			ID:          fmt.Sprintf("review-overdue-%s", c.ID),
			ClientID:    c.ID,
			ClientName:  c.FullName(),
			Type:        models.AlertAnnualReviewOverdue,
			Priority:    models.PriorityUrgent,
			Title:       "🚨 Annual Review OVERDUE",
			Description: fmt.Sprintf("%s's annual review is %d days overdue. FCA Consumer Duty requires regular reviews.", c.FullName(), -days),
			DueDate:     &due,
			DaysUntilDue: intPtr(days),
			RelatedData: related,
		}}
	case days <= annualReviewWindowDays:
		priority := models.PriorityMedium
		if days <= 7 {
			priority = models.PriorityHigh
		}
		return []models.Alert{{
			ID:          fmt.Sprintf("review-%s", c.ID),
			ClientID:    c.ID,
			ClientName:  c.FullName(),
			Type:        models.AlertAnnualReviewDue,
			Priority:    priority,
			Title:       fmt.Sprintf("📊 Annual Review Due in %d days", days),
			Description: fmt.Sprintf("%s's annual review is coming up on %s.", c.FullName(), due.Format("02 January 2006")),
			DueDate:     &due,
			DaysUntilDue: intPtr(days),
			RelatedData: related,
		}}
	}

	return nil
}

func (d *Detector) checkNoContact(c *models.Client, today models.Date) []models.Alert {
	// A never-contacted client is not alerted on: "no contact yet" is an
	// onboarding state, not a lapsed relationship.
	days, ok := c.DaysSinceLastContact(today)
	if !ok || days < noContactDays {
		return nil
	}

	priority := models.PriorityMedium
	if days >= noContactHighDays {
		priority = models.PriorityHigh
	}

	due := today
	return []models.Alert{{
		ID:          fmt.Sprintf("no-contact-%s", c.ID),
		ClientID:    c.ID,
		ClientName:  c.FullName(),
		Type:        models.AlertNoContact,
		Priority:    priority,
		Title:       fmt.Sprintf("📞 No Contact for %d days", days),
		Description: fmt.Sprintf("It's been %d days since last contact with %s. Consider reaching out.", days, c.FirstName),
		DueDate:     &due,
		DaysUntilDue: intPtr(0),
		RelatedData: map[string]any{
			"days_since_contact": days,
			"email":              c.ContactInfo.Email,
			"phone":              c.ContactInfo.Phone,
			"preferred_method":   string(c.ContactInfo.PreferredContactMethod),
		},
	}}
}

func (d *Detector) checkLifeEvents(c *models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	for _, event := range c.LifeEvents {
		if event.EventDate.IsZero() {
			continue
		}
		due := event.EventDate
		days := due.DaysSince(today)
		if days < 0 || days > lifeEventWindowDays {
			continue
		}

		priority := models.PriorityMedium
		if days <= 7 {
			priority = models.PriorityHigh
		}

		title := fmt.Sprintf("%s %s in %d days", lifeEventEmoji(event.EventType), eventLabel(event.EventType), days)
		if days == 0 {
			title = fmt.Sprintf("%s %s Today!", lifeEventEmoji(event.EventType), eventLabel(event.EventType))
		}

		alerts = append(alerts, models.Alert{
			ID:          fmt.Sprintf("event-%s-%s-%s", c.ID, event.EventType, due),
			ClientID:    c.ID,
			ClientName:  c.FullName(),
			Type:        models.AlertLifeEvent,
			Priority:    priority,
			Title:       title,
			Description: event.Description,
			DueDate:     &due,
			DaysUntilDue: intPtr(days),
			RelatedData: map[string]any{
				"event_type":     string(event.EventType),
				"related_person": event.RelatedPerson,
			},
		})
	}

	return alerts
}

func (d *Detector) checkRiskProfile(c *models.Client, today models.Date) []models.Alert {
	if c.RiskProfile == nil || c.RiskProfile.LastAssessed.IsZero() {
		return nil
	}

	daysSince := today.DaysSince(c.RiskProfile.LastAssessed)
	if daysSince < riskProfileStaleDays {
		return nil
	}

	due := today
	monthsSince := daysSince * 12 / 365
	return []models.Alert{{
		ID:          fmt.Sprintf("risk-stale-%s", c.ID),
		ClientID:    c.ID,
		ClientName:  c.FullName(),
		Type:        models.AlertRiskProfileStale,
		Priority:    models.PriorityMedium,
		Title:       "📈 Risk Profile Needs Update",
		Description: fmt.Sprintf("%s's risk profile was last assessed %d months ago. Consider reassessing.", c.FirstName, monthsSince),
		DueDate:     &due,
		DaysUntilDue: intPtr(0),
		RelatedData: map[string]any{
			"last_assessed":    c.RiskProfile.LastAssessed.String(),
			"current_attitude": string(c.RiskProfile.AttitudeToRisk),
		},
	}}
}

func (d *Detector) checkConcerns(c *models.Client, today models.Date) []models.Alert {
	var alerts []models.Alert

	for _, concern := range c.Concerns {
		if concern.Status != models.ConcernActive || concern.Severity != models.SeverityHigh {
			continue
		}
		// Recently discussed high concerns don't need re-raising yet.
		if !concern.LastDiscussed.IsZero() && today.DaysSince(concern.LastDiscussed) <= concernStaleDays {
			continue
		}

		related := map[string]any{
			"topic":       concern.Topic,
			"details":     concern.Details,
			"date_raised": concern.DateRaised.String(),
		}
		if !concern.LastDiscussed.IsZero() {
			related["last_discussed"] = concern.LastDiscussed.String()
		}

		due := today
		alerts = append(alerts, models.Alert{
			ID:          fmt.Sprintf("concern-%s-%s", c.ID, truncateRunes(concern.Topic, 20)),
			ClientID:    c.ID,
			ClientName:  c.FullName(),
			Type:        models.AlertConcernNeedsAttention,
			Priority:    models.PriorityHigh,
			Title:       fmt.Sprintf("😟 High Concern: %s", concern.Topic),
			Description: fmt.Sprintf("%s has an active concern about %s: %s...", c.FirstName, concern.Topic, truncateRunes(concern.Details, 100)),
			DueDate:     &due,
			DaysUntilDue: intPtr(0),
			RelatedData: related,
		})
	}

	return alerts
}

func (d *Detector) checkRetirement(c *models.Client, today models.Date) []models.Alert {
	if c.DateOfBirth.IsZero() {
		return nil
	}

	age := c.Age(today)
	yearsTo := RetirementAge - age
	if yearsTo <= 0 || yearsTo > retirementWarningYears {
		return nil
	}

	due := c.DateOfBirth.AddYears(RetirementAge)
	related := map[string]any{
		"current_age":     age,
		"retirement_age":  RetirementAge,
		"years_remaining": yearsTo,
	}
	if c.TotalPortfolioValue != nil {
		related["portfolio_value"] = *c.TotalPortfolioValue
	}

	return []models.Alert{{
		ID:          fmt.Sprintf("retirement-%s", c.ID),
		ClientID:    c.ID,
		ClientName:  c.FullName(),
		Type:        models.AlertRetirementApproaching,
		Priority:    models.PriorityHigh,
		Title:       fmt.Sprintf("🎯 Retirement Approaching (%d years)", yearsTo),
		Description: fmt.Sprintf("%s will reach state pension age (%d) in %d years. Review retirement planning.", c.FirstName, RetirementAge, yearsTo),
		DueDate:     &due,
		DaysUntilDue: intPtr(yearsTo * 365),
		RelatedData: related,
	}}
}

// --- helpers ---

func intPtr(i int) *int { return &i }

// policyKey disambiguates alert IDs for clients holding multiple policies.
func policyKey(p models.Policy) string {
	if p.PolicyNumber != "" {
		return p.PolicyNumber
	}
	return string(p.PolicyType)
}

func policyRelatedData(p models.Policy) map[string]any {
	related := map[string]any{
		"policy_type":   string(p.PolicyType),
		"provider":      p.Provider,
		"policy_number": p.PolicyNumber,
	}
	if p.CurrentValue != nil {
		related["current_value"] = *p.CurrentValue
	}
	return related
}

// policyLabel renders a policy type for display, e.g. "life_insurance" →
// "Life Insurance". ISA and GIA stay upper-cased.
func policyLabel(t models.PolicyType) string {
	switch t {
	case models.PolicyISA:
		return "ISA"
	case models.PolicyGIA:
		return "GIA"
	}
	return titleCase(string(t))
}

func eventLabel(t models.LifeEventType) string {
	return titleCase(string(t))
}

// titleCase converts a snake_case identifier into a spaced, capitalized label.
func titleCase(s string) string {
	words := strings.Split(s, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// truncateRunes shortens s to at most maxLen runes.
func truncateRunes(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen])
}
