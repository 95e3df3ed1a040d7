package compliance

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func floatPtr(v float64) *float64 { return &v }

// wellManagedClient scores 93.0 against 15 June 2025: review 11 months old
// (80), risk and suitability both fresh (100), contacted 40 days ago (100),
// full documentation (100), four value items (80).
func wellManagedClient() models.Client {
	return models.Client{
		ID:          "c-100",
		FirstName:   "Margaret",
		LastName:    "Hughes",
		DateOfBirth: models.NewDate(1962, time.March, 4),
		RiskProfile: &models.RiskProfile{
			AttitudeToRisk: models.RiskMedium,
			LastAssessed:   models.NewDate(2024, time.December, 15),
		},
		Compliance: models.ComplianceRecord{
			LastAnnualReview:     models.NewDate(2024, time.July, 15),
			SuitabilityConfirmed: true,
			SuitabilityDate:      models.NewDate(2024, time.December, 15),
			ValueDelivered: []string{
				"[2025-01-10] Rebalanced pension portfolio",
				"[2025-02-14] Secured lower platform fees",
				"[2025-03-30] ISA allowance used in full",
				"[2025-05-06] Reviewed protection cover",
			},
		},
		Interactions: []models.Interaction{
			{InteractionDate: time.Date(2025, time.May, 6, 10, 0, 0, 0, time.UTC), Method: models.ContactPhone},
		},
		MeetingNotes: []models.MeetingNote{
			{MeetingDate: models.NewDate(2025, time.May, 20), Summary: "Mid-year check-in"},
		},
		Policies: []models.Policy{
			{PolicyType: models.PolicyPension, Provider: "Aviva", CurrentValue: floatPtr(210000)},
		},
		FamilyMembers: []models.FamilyMember{
			{Name: "Tom Hughes", Relationship: "spouse"},
		},
		Concerns: []models.Concern{
			{Topic: "inheritance tax", Severity: models.SeverityMedium, Status: models.ConcernActive, DateRaised: models.NewDate(2025, time.April, 2)},
		},
	}
}

func TestScoreClientWellManaged(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	c := wellManagedClient()

	score := NewScorer(testLogger()).ScoreClient(&c, today)

	assert.Equal(t, 93.0, score.OverallScore)
	assert.Equal(t, StatusCompliant, score.Status)
	assert.Equal(t, map[string]int{
		DimAnnualReview:      80,
		DimRiskProfile:       100,
		DimSuitability:       100,
		DimContactFrequency:  100,
		DimDocumentation:     100,
		DimValueDemonstrated: 80,
	}, score.Breakdown)
	assert.Empty(t, score.Issues)
	assert.Empty(t, score.Recommendations)
}

func TestScoreClientNeverEngaged(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	c := models.Client{
		ID:          "c-101",
		FirstName:   "Derek",
		LastName:    "Stone",
		DateOfBirth: models.NewDate(1970, time.January, 20),
	}

	score := NewScorer(testLogger()).ScoreClient(&c, today)

	// 0, 0, 30, 30, 0, 20 weighted gives 12.5.
	assert.Equal(t, 12.5, score.OverallScore)
	assert.Equal(t, StatusNonCompliant, score.Status)
	assert.Equal(t, []string{
		"Annual review overdue or never completed",
		"Risk profile needs updating",
		"Suitability confirmation required",
		"Insufficient client contact",
		"Documentation incomplete",
		"Need to document value delivered",
	}, score.Issues)
	assert.Contains(t, score.Recommendations, "Schedule annual review with Derek")
	assert.Len(t, score.Recommendations, 5)
}

func TestAnnualReviewCurve(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	cases := []struct {
		daysAgo int
		want    int
	}{
		{300, 100}, // exactly ten months on the 30-day scale
		{301, 80},
		{390, 50},
		{430, 20},
	}
	for _, tc := range cases {
		c := models.Client{Compliance: models.ComplianceRecord{
			LastAnnualReview: today.AddDays(-tc.daysAgo),
		}}
		assert.Equal(t, tc.want, scoreAnnualReview(&c, today), "review %d days ago", tc.daysAgo)
	}
}

func TestRiskProfileCurve(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	cases := []struct {
		daysAgo int
		want    int
	}{
		{180, 100},
		{330, 80},
		{450, 50}, // stale but inside the 18-month grace band
		{570, 20},
	}
	for _, tc := range cases {
		c := models.Client{RiskProfile: &models.RiskProfile{
			AttitudeToRisk: models.RiskLow,
			LastAssessed:   today.AddDays(-tc.daysAgo),
		}}
		assert.Equal(t, tc.want, scoreRiskProfile(&c, today), "assessed %d days ago", tc.daysAgo)
	}
}

func TestSuitabilityCurve(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)

	c := models.Client{}
	assert.Equal(t, 30, scoreSuitability(&c, today))

	c.Compliance.SuitabilityConfirmed = true
	assert.Equal(t, 50, scoreSuitability(&c, today), "confirmed without a date")

	c.Compliance.SuitabilityDate = today.AddDays(-200)
	assert.Equal(t, 100, scoreSuitability(&c, today))

	c.Compliance.SuitabilityDate = today.AddDays(-600)
	assert.Equal(t, 70, scoreSuitability(&c, today))

	c.Compliance.SuitabilityDate = today.AddDays(-900)
	assert.Equal(t, 40, scoreSuitability(&c, today))
}

func TestContactFrequencyCurve(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	base := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		daysAgo int
		want    int
	}{
		{40, 100},
		{70, 80},
		{120, 60},
		{200, 30},
	}
	for _, tc := range cases {
		c := models.Client{Interactions: []models.Interaction{
			{InteractionDate: base.AddDate(0, 0, -tc.daysAgo)},
		}}
		assert.Equal(t, tc.want, scoreContactFrequency(&c, today), "contacted %d days ago", tc.daysAgo)
	}

	assert.Equal(t, 30, scoreContactFrequency(&models.Client{}, today), "never contacted")
}

func TestDocumentationScoring(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)

	c := models.Client{}
	assert.Equal(t, 0, scoreDocumentation(&c, today))

	// An old note earns the base points but not the recency bonus.
	c.MeetingNotes = []models.MeetingNote{{MeetingDate: today.AddDays(-400)}}
	assert.Equal(t, 30, scoreDocumentation(&c, today))

	// The most recent note decides recency, regardless of slice order.
	c.MeetingNotes = append(c.MeetingNotes, models.MeetingNote{MeetingDate: today.AddDays(-30)})
	assert.Equal(t, 50, scoreDocumentation(&c, today))

	c.Policies = []models.Policy{{PolicyType: models.PolicyISA, Provider: "Vanguard"}}
	c.FamilyMembers = []models.FamilyMember{{Name: "Ana", Relationship: "daughter"}}
	c.Concerns = []models.Concern{{Topic: "fees", Severity: models.SeverityLow, Status: models.ConcernActive}}
	assert.Equal(t, 100, scoreDocumentation(&c, today))
}

func TestValueDemonstratedTiers(t *testing.T) {
	entries := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = "value item"
		}
		return out
	}
	cases := []struct {
		count int
		want  int
	}{
		{0, 20}, {1, 60}, {2, 60}, {3, 80}, {4, 80}, {5, 100}, {7, 100},
	}
	for _, tc := range cases {
		c := models.Client{Compliance: models.ComplianceRecord{ValueDelivered: entries(tc.count)}}
		assert.Equal(t, tc.want, scoreValueDemonstrated(&c), "%d value items", tc.count)
	}
}

func TestScorePortfolio(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)

	// Review 13 months old, contacted 70 days ago, one value item, notes and
	// a policy but no family or concerns: lands at 78.0, at risk.
	middling := models.Client{
		ID:        "c-102",
		FirstName: "Priya",
		LastName:  "Shah",
		RiskProfile: &models.RiskProfile{
			AttitudeToRisk: models.RiskHigh,
			LastAssessed:   models.NewDate(2024, time.December, 15),
		},
		Compliance: models.ComplianceRecord{
			LastAnnualReview:     today.AddDays(-390),
			SuitabilityConfirmed: true,
			SuitabilityDate:      models.NewDate(2024, time.December, 15),
			ValueDelivered:       []string{"[2025-02-01] Consolidated old pensions"},
		},
		Interactions: []models.Interaction{
			{InteractionDate: time.Date(2025, time.April, 6, 11, 0, 0, 0, time.UTC)},
		},
		MeetingNotes: []models.MeetingNote{{MeetingDate: today.AddDays(-70)}},
		Policies:     []models.Policy{{PolicyType: models.PolicyGIA, Provider: "AJ Bell"}},
	}

	clients := []models.Client{
		wellManagedClient(),
		{ID: "c-101", FirstName: "Derek", LastName: "Stone"},
		middling,
	}

	summary, err := NewScorer(testLogger()).ScorePortfolio(clients, today)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.TotalClients)
	assert.Equal(t, 61.2, summary.AverageScore)
	assert.Equal(t, 1, summary.Compliant)
	assert.Equal(t, 1, summary.AtRisk)
	assert.Equal(t, 1, summary.NonCompliant)
	assert.Equal(t, 33.3, summary.ComplianceRate)

	require.Len(t, summary.LowestScoring, 3)
	assert.Equal(t, "c-101", summary.LowestScoring[0].ClientID)
	assert.Equal(t, 12.5, summary.LowestScoring[0].Score.OverallScore)
	assert.Equal(t, "c-102", summary.LowestScoring[1].ClientID)
	assert.Equal(t, 78.0, summary.LowestScoring[1].Score.OverallScore)
	assert.Equal(t, "Margaret Hughes", summary.LowestScoring[2].ClientName)

	// Only the never-engaged client carries issues, so every issue counts
	// once and they sort alphabetically.
	require.Len(t, summary.CommonIssues, 6)
	assert.Equal(t, IssueCount{Issue: "Annual review overdue or never completed", Count: 1}, summary.CommonIssues[0])
	for _, ic := range summary.CommonIssues {
		assert.Equal(t, 1, ic.Count)
	}
}

func TestScorePortfolioBottomFive(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	clients := make([]models.Client, 8)
	for i := range clients {
		clients[i] = models.Client{
			ID:        string(rune('a' + i)),
			FirstName: "Client",
			LastName:  string(rune('A' + i)),
			Compliance: models.ComplianceRecord{
				ValueDelivered: make([]string, i),
			},
		}
	}

	summary, err := NewScorer(testLogger()).ScorePortfolio(clients, today)
	require.NoError(t, err)
	assert.Len(t, summary.LowestScoring, 5)
	for i := 1; i < len(summary.LowestScoring); i++ {
		assert.LessOrEqual(t,
			summary.LowestScoring[i-1].Score.OverallScore,
			summary.LowestScoring[i].Score.OverallScore)
	}
}

func TestScorePortfolioEmpty(t *testing.T) {
	_, err := NewScorer(testLogger()).ScorePortfolio(nil, models.NewDate(2025, time.June, 15))
	assert.ErrorIs(t, err, ErrNoClients)
}

func TestReport(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	clients := []models.Client{
		wellManagedClient(),
		{ID: "c-101", FirstName: "Derek", LastName: "Stone"},
	}

	report, err := NewScorer(testLogger()).Report(clients, today)
	require.NoError(t, err)

	assert.Contains(t, report, "# FCA Consumer Duty Compliance Report")
	assert.Contains(t, report, "**Generated:** 15 June 2025")
	assert.Contains(t, report, "**Total Clients:** 2")
	assert.Contains(t, report, "| ✅ Compliant | 1 | 50.0% |")
	assert.Contains(t, report, "| ❌ Non-Compliant | 1 | 50.0% |")
	assert.Contains(t, report, "Annual review overdue or never completed: 1 clients")
	// Priority actions list at most two issues per client.
	assert.Contains(t, report, "**Derek Stone** (Score: 12.5): Annual review overdue or never completed, Risk profile needs updating")

	_, err = NewScorer(testLogger()).Report(nil, today)
	assert.ErrorIs(t, err, ErrNoClients)
}

func TestLogValueDelivered(t *testing.T) {
	c := models.Client{FirstName: "Margaret", LastName: "Hughes"}
	entry := LogValueDelivered(&c, "Negotiated reduced platform fee", time.Date(2025, time.June, 15, 9, 30, 0, 0, time.UTC))
	assert.Equal(t, "[2025-06-15] Negotiated reduced platform fee", entry)
	assert.Equal(t, []string{entry}, c.Compliance.ValueDelivered)
}

func TestValueEvidence(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	c := wellManagedClient()
	c.Concerns = append(c.Concerns, models.Concern{
		Topic: "school fees", Severity: models.SeverityLow, Status: models.ConcernAddressed,
	})
	c.FollowUps = []models.FollowUp{
		{Commitment: "send ISA transfer forms", Status: models.FollowUpCompleted},
		{Commitment: "chase provider", Status: models.FollowUpPending},
	}

	evidence := ValueEvidence(&c, today)

	assert.Contains(t, evidence, "Conducted 1 review meeting(s) in the past year")
	assert.Contains(t, evidence, "Addressed 1 client concern(s)")
	assert.Contains(t, evidence, "Completed 1 follow-up commitment(s)")
	assert.Contains(t, evidence, "Managing 1 financial product(s)")
	// Only the last three logged value items are carried over.
	assert.NotContains(t, evidence, "[2025-01-10] Rebalanced pension portfolio")
	assert.Contains(t, evidence, "[2025-05-06] Reviewed protection cover")
}
