package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/briefing"
	"github.com/mjcarver/advisor-pulse/internal/clientstore"
	"github.com/mjcarver/advisor-pulse/internal/compliance"
	"github.com/mjcarver/advisor-pulse/internal/dismissal"
	"github.com/mjcarver/advisor-pulse/internal/models"
	"github.com/mjcarver/advisor-pulse/internal/nudge"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newMCPTestServer returns a Server over a two-client book that produces one
// overdue review and one birthday alert against 15 June 2025.
func newMCPTestServer(t *testing.T) *Server {
	t.Helper()
	logger := testLogger()
	source := clientstore.NewMockSource(
		models.Client{
			ID:          "c-001",
			FirstName:   "Margaret",
			LastName:    "Hughes",
			DateOfBirth: models.NewDate(1962, time.March, 4),
			Compliance: models.ComplianceRecord{
				NextReviewDue: models.NewDate(2025, time.June, 5),
			},
		},
		models.Client{
			ID:          "c-002",
			FirstName:   "James",
			LastName:    "Patel",
			DateOfBirth: models.NewDate(1970, time.June, 18),
		},
	)
	dismissals := dismissal.NewStore(filepath.Join(t.TempDir(), "dismissals.json"), logger)
	srv := NewServer(
		source,
		alerts.NewDetector(logger),
		nudge.NewAggregator(dismissals, logger),
		compliance.NewScorer(logger),
		dismissals,
		briefing.NewNarrator("", "", logger),
		logger,
	)
	srv.now = func() time.Time {
		return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	}
	return srv
}

func makeReq(toolName string, args map[string]any) mcpgo.CallToolRequest {
	req := mcpgo.CallToolRequest{}
	req.Params.Name = toolName
	req.Params.Arguments = args
	return req
}

// textContent extracts the first TextContent string from a CallToolResult.
func textContent(t *testing.T, result *mcpgo.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected at least one content item")
	tc, ok := result.Content[0].(mcpgo.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text
}

func decodeResult(t *testing.T, result *mcpgo.CallToolResult) map[string]any {
	t.Helper()
	require.False(t, result.IsError, "tool returned error: %s", textContent(t, result))
	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &out))
	return out
}

func TestMCPGetAlerts(t *testing.T) {
	srv := newMCPTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{"date": "2025-06-15"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, float64(2), out["count"])

	result, err = srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{
		"date": "2025-06-15",
		"type": "birthday",
	}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, float64(1), out["count"])

	result, err = srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{
		"date":     "2025-06-15",
		"priority": "urgent",
	}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, float64(1), out["count"])
}

func TestMCPGetAlertsBadDate(t *testing.T) {
	srv := newMCPTestServer(t)

	result, err := srv.HandleGetAlerts(context.Background(), makeReq("get_alerts", map[string]any{"date": "June 15th"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "expected YYYY-MM-DD")
}

func TestMCPDismissCycle(t *testing.T) {
	srv := newMCPTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleDismissAlert(ctx, makeReq("dismiss_alert", map[string]any{"alert_id": "bday-c-002-2025"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, true, out["dismissed"])

	result, err = srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{"date": "2025-06-15"}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), decodeResult(t, result)["count"])

	result, err = srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{
		"date":              "2025-06-15",
		"include_dismissed": true,
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(2), decodeResult(t, result)["count"])

	result, err = srv.HandleUndismissAlert(ctx, makeReq("undismiss_alert", map[string]any{"alert_id": "bday-c-002-2025"}))
	require.NoError(t, err)
	assert.Equal(t, false, decodeResult(t, result)["dismissed"])

	result, err = srv.HandleDismissAlert(ctx, makeReq("dismiss_alert", map[string]any{"alert_id": "  "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPClientLifecycle(t *testing.T) {
	srv := newMCPTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleMarkClientInactive(ctx, makeReq("mark_client_inactive", map[string]any{"client_id": "c-001"}))
	require.NoError(t, err)
	assert.Equal(t, true, decodeResult(t, result)["inactive"])

	result, err = srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{"date": "2025-06-15"}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), decodeResult(t, result)["count"])

	result, err = srv.HandleReactivateClient(ctx, makeReq("reactivate_client", map[string]any{"client_id": "c-001"}))
	require.NoError(t, err)
	assert.Equal(t, false, decodeResult(t, result)["inactive"])

	result, err = srv.HandleGetAlerts(ctx, makeReq("get_alerts", map[string]any{"date": "2025-06-15"}))
	require.NoError(t, err)
	assert.Equal(t, float64(2), decodeResult(t, result)["count"])

	result, err = srv.HandleMarkClientInactive(ctx, makeReq("mark_client_inactive", map[string]any{"client_id": "c-404"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "not found")
}

func TestMCPGetNudge(t *testing.T) {
	srv := newMCPTestServer(t)

	result, err := srv.HandleGetNudge(context.Background(), makeReq("get_nudge", map[string]any{"date": "2025-06-15"}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.NotEmpty(t, out["formatted_nudge"])
	assert.Equal(t, "morning", out["time_of_day"])
}

func TestMCPGetClientNudge(t *testing.T) {
	srv := newMCPTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleGetClientNudge(ctx, makeReq("get_client_nudge", map[string]any{
		"client_id": "c-001",
		"date":      "2025-06-15",
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, float64(1), out["count"])

	result, err = srv.HandleGetClientNudge(ctx, makeReq("get_client_nudge", map[string]any{"client_id": "c-404"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestMCPCompliance(t *testing.T) {
	srv := newMCPTestServer(t)
	ctx := context.Background()

	result, err := srv.HandleGetClientCompliance(ctx, makeReq("get_client_compliance", map[string]any{
		"client_id": "c-001",
		"date":      "2025-06-15",
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, string(compliance.StatusNonCompliant), out["status"])

	result, err = srv.HandleGetPortfolioCompliance(ctx, makeReq("get_portfolio_compliance", map[string]any{"date": "2025-06-15"}))
	require.NoError(t, err)
	out = decodeResult(t, result)
	assert.Equal(t, float64(2), out["total_clients"])
}

func TestMCPDraftEmail(t *testing.T) {
	srv := newMCPTestServer(t)

	result, err := srv.HandleDraftEmail(context.Background(), makeReq("draft_email", map[string]any{
		"client_id": "c-002",
		"type":      "birthday",
	}))
	require.NoError(t, err)
	out := decodeResult(t, result)
	assert.Equal(t, "birthday", out["type"])
	assert.Contains(t, out["email"], "Subject:")
}

func TestMCPNilSource(t *testing.T) {
	logger := testLogger()
	dismissals := dismissal.NewStore(filepath.Join(t.TempDir(), "dismissals.json"), logger)
	srv := NewServer(nil, alerts.NewDetector(logger), nudge.NewAggregator(dismissals, logger),
		compliance.NewScorer(logger), dismissals, briefing.NewNarrator("", "", logger), logger)

	result, err := srv.HandleGetAlerts(context.Background(), makeReq("get_alerts", nil))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "unavailable")
}
