package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

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

// testClients yields one overdue review (urgent) and one birthday in three
// days (high) against 15 June 2025.
func testClients() []models.Client {
	return []models.Client{
		{
			ID:          "c-001",
			FirstName:   "Margaret",
			LastName:    "Hughes",
			DateOfBirth: models.NewDate(1962, time.March, 4),
			Compliance: models.ComplianceRecord{
				NextReviewDue: models.NewDate(2025, time.June, 5),
			},
		},
		{
			ID:          "c-002",
			FirstName:   "James",
			LastName:    "Patel",
			DateOfBirth: models.NewDate(1970, time.June, 18),
		},
	}
}

func newTestServer(t *testing.T, authToken string, clients ...models.Client) (*httptest.Server, *dismissal.Store) {
	t.Helper()
	logger := testLogger()
	dismissals := dismissal.NewStore(filepath.Join(t.TempDir(), "dismissals.json"), logger)
	srv := NewServer(
		clientstore.NewMockSource(clients...),
		alerts.NewDetector(logger),
		nudge.NewAggregator(dismissals, logger),
		compliance.NewScorer(logger),
		dismissals,
		briefing.NewNarrator("", "", logger),
		logger,
		authToken,
	)
	srv.now = func() time.Time {
		return time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, dismissals
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func doRequest(t *testing.T, method, url string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(context.Background(), method, url, body)
	} else {
		req, err = http.NewRequestWithContext(context.Background(), method, url, http.NoBody)
	}
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeAlerts(t *testing.T, resp *http.Response) alertsResponse {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out alertsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthz(t *testing.T) {
	ts, _ := newTestServer(t, "secret", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/healthz", nil, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
}

func TestBearerAuth(t *testing.T) {
	ts, _ := newTestServer(t, "secret", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/alerts", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/alerts", nil, "wrong")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/alerts", nil, "secret")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAlertsFilters(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	all := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15", nil, ""))
	require.Equal(t, 2, all.Count)

	ids := []string{all.Alerts[0].ID, all.Alerts[1].ID}
	assert.Contains(t, ids, "review-overdue-c-001")
	assert.Contains(t, ids, "bday-c-002-2025")

	byType := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15&type=birthday", nil, ""))
	require.Equal(t, 1, byType.Count)
	assert.Equal(t, "bday-c-002-2025", byType.Alerts[0].ID)

	byPriority := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15&priority=urgent", nil, ""))
	require.Equal(t, 1, byPriority.Count)
	assert.Equal(t, "review-overdue-c-001", byPriority.Alerts[0].ID)

	byClient := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15&client_id=c-002", nil, ""))
	require.Equal(t, 1, byClient.Count)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=15/06/2025", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDismissRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/dismissals", jsonBody(t, map[string]string{"alert_id": "bday-c-002-2025"}), "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	active := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15", nil, ""))
	assert.Equal(t, 1, active.Count)

	withDismissed := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15&include_dismissed=true", nil, ""))
	assert.Equal(t, 2, withDismissed.Count)

	resp = doRequest(t, http.MethodDelete, ts.URL+"/v1/dismissals/bday-c-002-2025", nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	restored := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15", nil, ""))
	assert.Equal(t, 2, restored.Count)

	// Missing alert_id is rejected.
	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/dismissals", jsonBody(t, map[string]string{}), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeactivateSuppressesClientAlerts(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/clients/c-001/deactivate", nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	active := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15", nil, ""))
	require.Equal(t, 1, active.Count)
	assert.Equal(t, "c-002", active.Alerts[0].ClientID)

	// Inactive clients survive include_dismissed: leaving is not a snooze.
	withDismissed := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15&include_dismissed=true", nil, ""))
	assert.Equal(t, 1, withDismissed.Count)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/clients/c-001/reactivate", nil, "")
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	restored := decodeAlerts(t, doRequest(t, http.MethodGet, ts.URL+"/v1/alerts?date=2025-06-15", nil, ""))
	assert.Equal(t, 2, restored.Count)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/clients/missing/deactivate", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestClientsEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/clients?q=patel", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Clients []models.Client `json:"clients"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "c-002", list.Clients[0].ID)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/clients/c-001", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/clients/c-404", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/clients", jsonBody(t, map[string]string{"first_name": "Sofia"}), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/clients", jsonBody(t, map[string]string{
		"first_name": "Sofia", "last_name": "Alvarez",
	}), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var added models.Client
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	assert.NotEmpty(t, added.ID)
}

func TestClientSummaryEndpoint(t *testing.T) {
	clients := testClients()
	clients[1].Concerns = []models.Concern{
		{Topic: "market volatility", Severity: models.SeverityHigh, Status: models.ConcernActive},
	}
	ts, _ := newTestServer(t, "", clients...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/clients/c-002/summary?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary clientstore.Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, "James Patel", summary.BasicInfo.Name)
	assert.Equal(t, 54, summary.BasicInfo.Age)
	require.Len(t, summary.Concerns, 1)
	assert.Equal(t, "market volatility", summary.Concerns[0].Topic)
	assert.Nil(t, summary.Contact.DaysSinceContact)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/clients/c-404/summary", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/clients/c-002/summary?date=15-06-2025", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The list endpoint filters on concern topic, case-insensitively.
	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/clients?concern=VOLAT", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Clients []models.Client `json:"clients"`
		Count   int             `json:"count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "c-002", list.Clients[0].ID)
}

func TestComplianceEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/compliance?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var summary compliance.PortfolioSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summary))
	assert.Equal(t, 2, summary.TotalClients)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/compliance/c-001?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var score compliance.Score
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&score))
	assert.Equal(t, compliance.StatusNonCompliant, score.Status)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/compliance/c-404", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	empty, _ := newTestServer(t, "")
	resp = doRequest(t, http.MethodGet, empty.URL+"/v1/compliance", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReportEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/report?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out reportResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Report, "# FCA Consumer Duty Compliance Report")
}

func TestBriefingEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/briefing?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out briefingResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Briefing, "Daily Briefing")
	assert.Empty(t, out.Narration, "narration needs an API key")
}

func TestNudgeEndpoints(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodGet, ts.URL+"/v1/nudge?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result nudge.Result
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.NotEmpty(t, result.Formatted)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/nudge/c-001?date=2025-06-15", nil, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cn clientNudgeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&cn))
	assert.Equal(t, 1, cn.Count)

	resp = doRequest(t, http.MethodGet, ts.URL+"/v1/nudge/c-404", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDraftEndpointTemplateFallback(t *testing.T) {
	ts, _ := newTestServer(t, "", testClients()...)

	resp := doRequest(t, http.MethodPost, ts.URL+"/v1/drafts", jsonBody(t, map[string]string{
		"client_id": "c-002",
		"type":      "birthday",
	}), "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out draftResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Contains(t, out.Email, "Subject:")
	assert.Contains(t, out.Email, "James")

	resp = doRequest(t, http.MethodPost, ts.URL+"/v1/drafts", jsonBody(t, map[string]string{"type": "birthday"}), "")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
