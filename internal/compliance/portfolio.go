package compliance

import (
	"errors"
	"math"
	"sort"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// ErrNoClients is returned when a portfolio summary is requested for an
// empty client book.
var ErrNoClients = errors.New("no clients to score")

// bottomCount is how many lowest-scoring clients the summary surfaces.
const bottomCount = 5

// ClientScore pairs a client with their computed score for ranking output.
type ClientScore struct {
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
	Score      Score  `json:"score"`
}

// IssueCount is one row of the common-issues frequency table.
type IssueCount struct {
	Issue string `json:"issue"`
	Count int    `json:"count"`
}

// PortfolioSummary aggregates compliance across the whole client book.
type PortfolioSummary struct {
	TotalClients   int           `json:"total_clients"`
	AverageScore   float64       `json:"average_score"`
	Compliant      int           `json:"compliant"`
	AtRisk         int           `json:"at_risk"`
	NonCompliant   int           `json:"non_compliant"`
	ComplianceRate float64       `json:"compliance_rate"`
	LowestScoring  []ClientScore `json:"lowest_scoring"`
	CommonIssues   []IssueCount  `json:"common_issues"`
}

// ScorePortfolio scores every client and aggregates the results.
func (s *Scorer) ScorePortfolio(clients []models.Client, today models.Date) (PortfolioSummary, error) {
	if len(clients) == 0 {
		return PortfolioSummary{}, ErrNoClients
	}

	scored := make([]ClientScore, 0, len(clients))
	var sum float64
	issueCounts := make(map[string]int)
	summary := PortfolioSummary{TotalClients: len(clients)}

	for i := range clients {
		c := &clients[i]
		score := s.ScoreClient(c, today)
		scored = append(scored, ClientScore{
			ClientID:   c.ID,
			ClientName: c.FullName(),
			Score:      score,
		})
		sum += score.OverallScore
		for _, issue := range score.Issues {
			issueCounts[issue]++
		}
		switch score.Status {
		case StatusCompliant:
			summary.Compliant++
		case StatusAtRisk:
			summary.AtRisk++
		case StatusNonCompliant:
			summary.NonCompliant++
		}
	}

	summary.AverageScore = round1(sum / float64(len(clients)))
	summary.ComplianceRate = round1(float64(summary.Compliant) / float64(len(clients)) * 100)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.OverallScore < scored[j].Score.OverallScore
	})
	if len(scored) > bottomCount {
		scored = scored[:bottomCount]
	}
	summary.LowestScoring = scored

	summary.CommonIssues = make([]IssueCount, 0, len(issueCounts))
	for issue, count := range issueCounts {
		summary.CommonIssues = append(summary.CommonIssues, IssueCount{Issue: issue, Count: count})
	}
	sort.Slice(summary.CommonIssues, func(i, j int) bool {
		if summary.CommonIssues[i].Count != summary.CommonIssues[j].Count {
			return summary.CommonIssues[i].Count > summary.CommonIssues[j].Count
		}
		return summary.CommonIssues[i].Issue < summary.CommonIssues[j].Issue
	})

	return summary, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
