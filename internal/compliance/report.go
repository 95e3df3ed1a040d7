package compliance

import (
	"fmt"
	"strings"
	"time"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// Report renders the Consumer Duty compliance report as markdown.
func (s *Scorer) Report(clients []models.Client, today models.Date) (string, error) {
	summary, err := s.ScorePortfolio(clients, today)
	if err != nil {
		return "", fmt.Errorf("building compliance report: %w", err)
	}

	var b strings.Builder
	b.WriteString("# FCA Consumer Duty Compliance Report\n")
	fmt.Fprintf(&b, "**Generated:** %s\n\n", today.Format("02 January 2006"))

	b.WriteString("## Executive Summary\n")
	fmt.Fprintf(&b, "- **Overall Compliance Rate:** %.1f%%\n", summary.ComplianceRate)
	fmt.Fprintf(&b, "- **Average Compliance Score:** %.1f/100\n", summary.AverageScore)
	fmt.Fprintf(&b, "- **Total Clients:** %d\n\n", summary.TotalClients)

	total := float64(summary.TotalClients)
	b.WriteString("## Client Status Breakdown\n")
	b.WriteString("| Status | Count | Percentage |\n")
	b.WriteString("|--------|-------|------------|\n")
	fmt.Fprintf(&b, "| ✅ Compliant | %d | %.1f%% |\n", summary.Compliant, float64(summary.Compliant)/total*100)
	fmt.Fprintf(&b, "| ⚠️ At Risk | %d | %.1f%% |\n", summary.AtRisk, float64(summary.AtRisk)/total*100)
	fmt.Fprintf(&b, "| ❌ Non-Compliant | %d | %.1f%% |\n\n", summary.NonCompliant, float64(summary.NonCompliant)/total*100)

	b.WriteString("## Common Issues\n")
	for _, ic := range summary.CommonIssues {
		fmt.Fprintf(&b, "- %s: %d clients\n", ic.Issue, ic.Count)
	}

	b.WriteString("\n## Priority Actions\n")
	for _, cs := range summary.LowestScoring {
		topIssues := cs.Score.Issues
		if len(topIssues) > 2 {
			topIssues = topIssues[:2]
		}
		fmt.Fprintf(&b, "- **%s** (Score: %.1f): %s\n", cs.ClientName, cs.Score.OverallScore, strings.Join(topIssues, ", "))
	}

	return b.String(), nil
}

// LogValueDelivered appends a timestamped value entry to the client's
// compliance record and returns the entry text.
func LogValueDelivered(c *models.Client, description string, now time.Time) string {
	entry := fmt.Sprintf("[%s] %s", now.Format("2006-01-02"), description)
	c.Compliance.ValueDelivered = append(c.Compliance.ValueDelivered, entry)
	return entry
}

// ValueEvidence assembles demonstrable-value statements for a client from
// their record: meetings held, risk management, concerns addressed,
// commitments completed and logged value items.
func ValueEvidence(c *models.Client, today models.Date) []string {
	var evidence []string

	if len(c.MeetingNotes) > 0 {
		meetings := 0
		for _, m := range c.MeetingNotes {
			if today.DaysSince(m.MeetingDate) <= 365 {
				meetings++
			}
		}
		if meetings > 0 {
			evidence = append(evidence, fmt.Sprintf("Conducted %d review meeting(s) in the past year", meetings))
		}
	}

	if c.RiskProfile != nil && !c.RiskProfile.LastAssessed.IsZero() {
		evidence = append(evidence, fmt.Sprintf("Risk profile maintained and last assessed %s", c.RiskProfile.LastAssessed))
	}

	addressed := 0
	for _, cn := range c.Concerns {
		if cn.Status == models.ConcernAddressed {
			addressed++
		}
	}
	if addressed > 0 {
		evidence = append(evidence, fmt.Sprintf("Addressed %d client concern(s)", addressed))
	}

	completed := 0
	for _, f := range c.FollowUps {
		if f.Status == models.FollowUpCompleted {
			completed++
		}
	}
	if completed > 0 {
		evidence = append(evidence, fmt.Sprintf("Completed %d follow-up commitment(s)", completed))
	}

	if len(c.Policies) > 0 {
		evidence = append(evidence, fmt.Sprintf("Managing %d financial product(s)", len(c.Policies)))
	}

	logged := c.Compliance.ValueDelivered
	if len(logged) > 3 {
		logged = logged[len(logged)-3:]
	}
	evidence = append(evidence, logged...)

	return evidence
}
