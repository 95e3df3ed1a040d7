package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

func sampleAlerts() []models.Alert {
	due1 := models.NewDate(2025, time.June, 15)
	due2 := models.NewDate(2025, time.June, 10)
	due3 := models.NewDate(2025, time.June, 25)
	return []models.Alert{
		{ID: "a1", ClientID: "c1", Type: models.AlertBirthday, Priority: models.PriorityMedium, DueDate: &due3},
		{ID: "a2", ClientID: "c1", Type: models.AlertAnnualReviewOverdue, Priority: models.PriorityUrgent, DueDate: &due2},
		{ID: "a3", ClientID: "c2", Type: models.AlertFollowUpDue, Priority: models.PriorityHigh, DueDate: &due1},
		{ID: "a4", ClientID: "c3", Type: models.AlertNoContact, Priority: models.PriorityHigh, DueDate: &due1},
	}
}

func TestByType(t *testing.T) {
	out := ByType(sampleAlerts(), "birthday")
	require.Len(t, out, 1)
	assert.Equal(t, "a1", out[0].ID)

	assert.Empty(t, ByType(sampleAlerts(), "not_a_type"), "unknown type matches nothing")
}

func TestByPriority(t *testing.T) {
	out := ByPriority(sampleAlerts(), "high")
	assert.Len(t, out, 2)

	assert.Empty(t, ByPriority(sampleAlerts(), "shiny"), "unknown priority matches nothing")
}

func TestForClient(t *testing.T) {
	out := ForClient(sampleAlerts(), "c1")
	assert.Len(t, out, 2)
	assert.Empty(t, ForClient(sampleAlerts(), "c99"))
}

func TestUrgentAndDueToday(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)

	urgent := Urgent(sampleAlerts())
	require.Len(t, urgent, 3, "urgent and high priorities both count as needing attention")
	assert.Equal(t, "a2", urgent[0].ID)

	dueToday := DueToday(sampleAlerts(), today)
	assert.Len(t, dueToday, 2)
}

func TestSummarize(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	s := Summarize(sampleAlerts(), today)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.Urgent)
	assert.Equal(t, 2, s.High)
	assert.Equal(t, 1, s.Medium)
	assert.Equal(t, 0, s.Low)
	assert.Equal(t, 2, s.DueToday)
	assert.Equal(t, 1, s.Overdue)
	assert.Equal(t, 2, s.ByType["follow_up_due"]+s.ByType["no_contact"])
}

func TestDailyBriefing(t *testing.T) {
	today := models.NewDate(2025, time.June, 15)
	md := DailyBriefing(sampleAlerts(), today)

	assert.Contains(t, md, "Daily Briefing - Sunday, 15 June 2025")
	assert.Contains(t, md, "Urgent Action Required")
	assert.Contains(t, md, "Due Today")

	empty := DailyBriefing(nil, today)
	assert.Contains(t, empty, "**Total Alerts:** 0", "an empty book still renders the overview")
	assert.NotContains(t, empty, "Urgent Action Required")
}

func TestDraftTypeFor(t *testing.T) {
	assert.Equal(t, DraftBirthday, DraftTypeFor(models.AlertBirthday))
	assert.Equal(t, DraftFollowUp, DraftTypeFor(models.AlertFollowUpOverdue))
	assert.Equal(t, DraftRetirementPlanning, DraftTypeFor(models.AlertRetirementApproaching))
	assert.Equal(t, DraftGeneralUpdate, DraftTypeFor(models.AlertType("mystery")))
}

func TestLabelFallback(t *testing.T) {
	assert.Equal(t, "Birthday", Label(models.AlertBirthday))
	assert.Equal(t, "Quarterly Statement", Label(models.AlertType("quarterly_statement")))
}
