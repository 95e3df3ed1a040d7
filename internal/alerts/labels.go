package alerts

import "github.com/mjcarver/advisor-pulse/internal/models"

// typeLabels maps every alert type to its human-readable category label.
// Kept as a static table so the mapping stays exhaustive per category.
var typeLabels = map[models.AlertType]string{
	models.AlertBirthday:              "Birthday",
	models.AlertPolicyRenewal:         "Policy Renewal",
	models.AlertPolicyMaturity:        "Policy Maturity",
	models.AlertFollowUpDue:           "Follow-up Due",
	models.AlertFollowUpOverdue:       "Overdue Follow-up",
	models.AlertAnnualReviewDue:       "Annual Review",
	models.AlertAnnualReviewOverdue:   "Annual Review Overdue",
	models.AlertNoContact:             "No Recent Contact",
	models.AlertLifeEvent:             "Life Event",
	models.AlertRiskProfileStale:      "Risk Profile Stale",
	models.AlertConcernNeedsAttention: "Client Concern",
	models.AlertRetirementApproaching: "Retirement Approaching",
}

// typeEmojis maps every alert type to its display emoji.
var typeEmojis = map[models.AlertType]string{
	models.AlertBirthday:              "🎂",
	models.AlertPolicyRenewal:         "📋",
	models.AlertPolicyMaturity:        "💰",
	models.AlertFollowUpDue:           "📌",
	models.AlertFollowUpOverdue:       "⚠️",
	models.AlertAnnualReviewDue:       "📊",
	models.AlertAnnualReviewOverdue:   "🚨",
	models.AlertNoContact:             "📞",
	models.AlertLifeEvent:             "📅",
	models.AlertRiskProfileStale:      "📈",
	models.AlertConcernNeedsAttention: "😟",
	models.AlertRetirementApproaching: "🎯",
}

// Label returns the human-readable label for an alert type.
func Label(t models.AlertType) string {
	if l, ok := typeLabels[t]; ok {
		return l
	}
	return titleCase(string(t))
}

// Emoji returns the display emoji for an alert type.
func Emoji(t models.AlertType) string {
	if e, ok := typeEmojis[t]; ok {
		return e
	}
	return "📅"
}

// EmailDraftType selects which email template or prompt a draft uses.
type EmailDraftType string

const (
	DraftBirthday           EmailDraftType = "birthday"
	DraftCheckIn            EmailDraftType = "check_in"
	DraftReviewReminder     EmailDraftType = "review_reminder"
	DraftFollowUp           EmailDraftType = "follow_up"
	DraftPolicyRenewal      EmailDraftType = "policy_renewal"
	DraftPolicyMaturity     EmailDraftType = "policy_maturity"
	DraftRetirementPlanning EmailDraftType = "retirement_planning"
	DraftGeneralUpdate      EmailDraftType = "general_update"
)

// draftTypes maps alert types to the email draft each one calls for.
var draftTypes = map[models.AlertType]EmailDraftType{
	models.AlertBirthday:              DraftBirthday,
	models.AlertPolicyRenewal:         DraftPolicyRenewal,
	models.AlertPolicyMaturity:        DraftPolicyMaturity,
	models.AlertFollowUpDue:           DraftFollowUp,
	models.AlertFollowUpOverdue:       DraftFollowUp,
	models.AlertAnnualReviewDue:       DraftReviewReminder,
	models.AlertAnnualReviewOverdue:   DraftReviewReminder,
	models.AlertNoContact:             DraftCheckIn,
	models.AlertLifeEvent:             DraftCheckIn,
	models.AlertRiskProfileStale:      DraftReviewReminder,
	models.AlertConcernNeedsAttention: DraftCheckIn,
	models.AlertRetirementApproaching: DraftRetirementPlanning,
}

// DraftTypeFor returns the email draft type for an alert type.
func DraftTypeFor(t models.AlertType) EmailDraftType {
	if d, ok := draftTypes[t]; ok {
		return d
	}
	return DraftGeneralUpdate
}

// lifeEventEmoji picks the display emoji for a life event type.
func lifeEventEmoji(t models.LifeEventType) string {
	switch t {
	case models.EventRetirement:
		return "🎉"
	case models.EventWedding:
		return "💒"
	case models.EventBirth:
		return "👶"
	case models.EventGraduation:
		return "🎓"
	case models.EventHousePurchase:
		return "🏠"
	case models.EventNewJob:
		return "💼"
	case models.EventAnniversary:
		return "💍"
	}
	return "📅"
}
