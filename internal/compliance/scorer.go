// Package compliance computes Consumer Duty compliance scores: a weighted
// six-dimension score per client, derived issues and recommendations, and
// portfolio-level aggregation and reporting.
package compliance

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mjcarver/advisor-pulse/internal/metrics"
	"github.com/mjcarver/advisor-pulse/internal/models"
)

// Status buckets for the overall score.
type Status string

const (
	StatusCompliant    Status = "compliant"
	StatusAtRisk       Status = "at_risk"
	StatusNonCompliant Status = "non_compliant"
)

// Overall status thresholds.
const (
	compliantThreshold = 80
	atRiskThreshold    = 60
)

// Scoring dimensions. The names double as breakdown keys in API output.
const (
	DimAnnualReview      = "annual_review"
	DimRiskProfile       = "risk_profile"
	DimSuitability       = "suitability"
	DimContactFrequency  = "contact_frequency"
	DimDocumentation     = "documentation"
	DimValueDemonstrated = "value_demonstrated"
)

// weights are the percentage contribution of each dimension to the overall
// score. They sum to 100.
var weights = map[string]int{
	DimAnnualReview:      25,
	DimRiskProfile:       20,
	DimSuitability:       20,
	DimContactFrequency:  15,
	DimDocumentation:     10,
	DimValueDemonstrated: 10,
}

// Score is the computed compliance rating for a single client.
type Score struct {
	OverallScore    float64        `json:"overall_score"`
	Status          Status         `json:"status"`
	Breakdown       map[string]int `json:"breakdown"`
	Issues          []string       `json:"issues"`
	Recommendations []string       `json:"recommendations"`
}

// Scorer computes compliance scores. Pure over (client, today).
type Scorer struct {
	logger *slog.Logger
}

// NewScorer creates a Scorer.
func NewScorer(logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{logger: logger}
}

// ScoreClient computes the weighted compliance score for one client.
func (s *Scorer) ScoreClient(c *models.Client, today models.Date) Score {
	breakdown := map[string]int{
		DimAnnualReview:      scoreAnnualReview(c, today),
		DimRiskProfile:       scoreRiskProfile(c, today),
		DimSuitability:       scoreSuitability(c, today),
		DimContactFrequency:  scoreContactFrequency(c, today),
		DimDocumentation:     scoreDocumentation(c, today),
		DimValueDemonstrated: scoreValueDemonstrated(c),
	}

	var total float64
	for dim, score := range breakdown {
		total += float64(score) * float64(weights[dim]) / 100
	}
	total = math.Round(total*10) / 10

	status := StatusNonCompliant
	switch {
	case total >= compliantThreshold:
		status = StatusCompliant
	case total >= atRiskThreshold:
		status = StatusAtRisk
	}

	metrics.Inc(metrics.ScoreTotal)

	return Score{
		OverallScore:    total,
		Status:          status,
		Breakdown:       breakdown,
		Issues:          identifyIssues(breakdown),
		Recommendations: recommendations(c, breakdown),
	}
}

// monthsSince converts a day delta into fractional months on a 30-day month,
// matching the bucket curves below.
func monthsSince(today, since models.Date) float64 {
	return float64(today.DaysSince(since)) / 30
}

func scoreAnnualReview(c *models.Client, today models.Date) int {
	if c.Compliance.LastAnnualReview.IsZero() {
		return 0
	}
	months := monthsSince(today, c.Compliance.LastAnnualReview)
	switch {
	case months <= 10:
		return 100
	case months <= 12:
		return 80
	case months <= 14:
		return 50
	}
	return 20
}

func scoreRiskProfile(c *models.Client, today models.Date) int {
	if c.RiskProfile == nil || c.RiskProfile.LastAssessed.IsZero() {
		return 0
	}
	months := monthsSince(today, c.RiskProfile.LastAssessed)
	switch {
	case months <= 10:
		return 100
	case months <= 12:
		return 80
	case months <= 18:
		return 50
	}
	return 20
}

func scoreSuitability(c *models.Client, today models.Date) int {
	if !c.Compliance.SuitabilityConfirmed {
		return 30 // baseline when never confirmed
	}
	if c.Compliance.SuitabilityDate.IsZero() {
		return 50
	}
	months := monthsSince(today, c.Compliance.SuitabilityDate)
	switch {
	case months <= 12:
		return 100
	case months <= 24:
		return 70
	}
	return 40
}

func scoreContactFrequency(c *models.Client, today models.Date) int {
	days, ok := c.DaysSinceLastContact(today)
	if !ok {
		return 30
	}
	switch {
	case days <= 60:
		return 100
	case days <= 90:
		return 80
	case days <= 180:
		return 60
	}
	return 30
}

func scoreDocumentation(c *models.Client, today models.Date) int {
	score := 0

	if len(c.MeetingNotes) > 0 {
		score += 30
		latest := c.MeetingNotes[0].MeetingDate
		for _, n := range c.MeetingNotes[1:] {
			if n.MeetingDate.After(latest) {
				latest = n.MeetingDate
			}
		}
		if today.DaysSince(latest) <= 180 {
			score += 20
		}
	}
	if len(c.Policies) > 0 {
		score += 25
	}
	if len(c.FamilyMembers) > 0 {
		score += 15
	}
	if len(c.Concerns) > 0 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

func scoreValueDemonstrated(c *models.Client) int {
	count := len(c.Compliance.ValueDelivered)
	switch {
	case count >= 5:
		return 100
	case count >= 3:
		return 80
	case count >= 1:
		return 60
	}
	return 20
}

// Issue strings are stable identifiers reused by portfolio frequency
// reporting; change them only together with the report consumers.
const (
	issueAnnualReview  = "Annual review overdue or never completed"
	issueRiskProfile   = "Risk profile needs updating"
	issueSuitability   = "Suitability confirmation required"
	issueContact       = "Insufficient client contact"
	issueDocumentation = "Documentation incomplete"
	issueValue         = "Need to document value delivered"
)

// identifyIssues is a direct threshold mapping from sub-scores to issue
// strings, not a separate inference step.
func identifyIssues(breakdown map[string]int) []string {
	var issues []string
	if breakdown[DimAnnualReview] < 50 {
		issues = append(issues, issueAnnualReview)
	}
	if breakdown[DimRiskProfile] < 50 {
		issues = append(issues, issueRiskProfile)
	}
	if breakdown[DimSuitability] < 50 {
		issues = append(issues, issueSuitability)
	}
	if breakdown[DimContactFrequency] < 60 {
		issues = append(issues, issueContact)
	}
	if breakdown[DimDocumentation] < 50 {
		issues = append(issues, issueDocumentation)
	}
	if breakdown[DimValueDemonstrated] < 50 {
		issues = append(issues, issueValue)
	}
	return issues
}

func recommendations(c *models.Client, breakdown map[string]int) []string {
	var recs []string
	if breakdown[DimAnnualReview] < 80 {
		recs = append(recs, fmt.Sprintf("Schedule annual review with %s", c.FirstName))
	}
	if breakdown[DimRiskProfile] < 80 {
		recs = append(recs, "Reassess risk profile and attitude to risk")
	}
	if breakdown[DimSuitability] < 80 {
		recs = append(recs, "Review and confirm suitability of current arrangements")
	}
	if breakdown[DimContactFrequency] < 80 {
		recs = append(recs, "Reach out to maintain regular contact")
	}
	if breakdown[DimValueDemonstrated] < 80 {
		recs = append(recs, "Document specific value delivered to client")
	}
	return recs
}
