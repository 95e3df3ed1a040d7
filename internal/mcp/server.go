// Package mcp implements the Model Context Protocol server for advisor-pulse.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/briefing"
	"github.com/mjcarver/advisor-pulse/internal/clientstore"
	"github.com/mjcarver/advisor-pulse/internal/compliance"
	"github.com/mjcarver/advisor-pulse/internal/dismissal"
	"github.com/mjcarver/advisor-pulse/internal/models"
	"github.com/mjcarver/advisor-pulse/internal/nudge"
)

// Server wraps an MCPServer with advisor-pulse dependencies.
type Server struct {
	mcp        *mcpserver.MCPServer
	source     clientstore.Source
	detector   *alerts.Detector
	aggregator *nudge.Aggregator
	scorer     *compliance.Scorer
	dismissals *dismissal.Store
	narrator   *briefing.Narrator
	logger     *slog.Logger
	now        func() time.Time
}

// NewServer creates a new MCP server. If source is nil, the tool calls
// return an error response instead of panicking.
func NewServer(
	source clientstore.Source,
	detector *alerts.Detector,
	aggregator *nudge.Aggregator,
	scorer *compliance.Scorer,
	dismissals *dismissal.Store,
	narrator *briefing.Narrator,
	logger *slog.Logger,
) *Server {
	s := &Server{
		source:     source,
		detector:   detector,
		aggregator: aggregator,
		scorer:     scorer,
		dismissals: dismissals,
		narrator:   narrator,
		logger:     logger,
		now:        time.Now,
	}

	mcpSrv := mcpserver.NewMCPServer(
		"advisor-pulse",
		"1.0.0",
		mcpserver.WithToolCapabilities(true),
	)

	mcpSrv.AddTool(buildGetAlertsTool(), s.handleGetAlerts)
	mcpSrv.AddTool(buildGetNudgeTool(), s.handleGetNudge)
	mcpSrv.AddTool(buildGetClientNudgeTool(), s.handleGetClientNudge)
	mcpSrv.AddTool(buildDismissAlertTool(), s.handleDismissAlert)
	mcpSrv.AddTool(buildUndismissAlertTool(), s.handleUndismissAlert)
	mcpSrv.AddTool(buildMarkClientInactiveTool(), s.handleMarkClientInactive)
	mcpSrv.AddTool(buildReactivateClientTool(), s.handleReactivateClient)
	mcpSrv.AddTool(buildGetClientComplianceTool(), s.handleGetClientCompliance)
	mcpSrv.AddTool(buildGetPortfolioComplianceTool(), s.handleGetPortfolioCompliance)
	mcpSrv.AddTool(buildDraftEmailTool(), s.handleDraftEmail)

	s.mcp = mcpSrv
	return s
}

// MCPServer returns the underlying mcp-go MCPServer for use with ServeStdio.
func (s *Server) MCPServer() *mcpserver.MCPServer {
	return s.mcp
}

// HandleGetAlerts is the exported handler for the "get_alerts" tool.
// It is exposed for direct testing without the mcp-go transport layer.
func (s *Server) HandleGetAlerts(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetAlerts(ctx, req)
}

// HandleGetNudge is the exported handler for the "get_nudge" tool.
func (s *Server) HandleGetNudge(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetNudge(ctx, req)
}

// HandleGetClientNudge is the exported handler for the "get_client_nudge" tool.
func (s *Server) HandleGetClientNudge(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetClientNudge(ctx, req)
}

// HandleDismissAlert is the exported handler for the "dismiss_alert" tool.
func (s *Server) HandleDismissAlert(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDismissAlert(ctx, req)
}

// HandleUndismissAlert is the exported handler for the "undismiss_alert" tool.
func (s *Server) HandleUndismissAlert(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleUndismissAlert(ctx, req)
}

// HandleMarkClientInactive is the exported handler for the "mark_client_inactive" tool.
func (s *Server) HandleMarkClientInactive(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleMarkClientInactive(ctx, req)
}

// HandleReactivateClient is the exported handler for the "reactivate_client" tool.
func (s *Server) HandleReactivateClient(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleReactivateClient(ctx, req)
}

// HandleGetClientCompliance is the exported handler for the "get_client_compliance" tool.
func (s *Server) HandleGetClientCompliance(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetClientCompliance(ctx, req)
}

// HandleGetPortfolioCompliance is the exported handler for the "get_portfolio_compliance" tool.
func (s *Server) HandleGetPortfolioCompliance(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleGetPortfolioCompliance(ctx, req)
}

// HandleDraftEmail is the exported handler for the "draft_email" tool.
func (s *Server) HandleDraftEmail(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	return s.handleDraftEmail(ctx, req)
}

// --- helpers ---

// toolResultJSON marshals v to JSON and returns it as a tool text result.
func toolResultJSON(v any) (*mcpgo.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("mcp: marshaling result: %w", err)
	}
	return mcpgo.NewToolResultText(string(b)), nil
}

// toolDate resolves the optional "date" argument, defaulting to today.
func (s *Server) toolDate(req mcpgo.CallToolRequest) (models.Date, error) {
	raw := req.GetString("date", "")
	if raw == "" {
		return models.DateOf(s.now()), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return models.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	return models.DateOf(t), nil
}

// scan loads the book and runs detection for the tool's effective date.
func (s *Server) scan(ctx context.Context, req mcpgo.CallToolRequest) ([]models.Alert, models.Date, error) {
	today, err := s.toolDate(req)
	if err != nil {
		return nil, models.Date{}, err
	}
	clients, err := s.source.Load(ctx)
	if err != nil {
		return nil, models.Date{}, fmt.Errorf("loading clients: %w", err)
	}
	return s.detector.Scan(clients, today), today, nil
}

// --- tool definitions ---

func buildGetAlertsTool() mcpgo.Tool {
	return mcpgo.NewTool("get_alerts",
		mcpgo.WithDescription("Scan the client book and return active alerts: birthdays, renewals, maturities, follow-ups, reviews, dormancy, life events, stale risk profiles, concerns and retirement milestones."),
		mcpgo.WithString("type",
			mcpgo.Description("Filter by alert type, e.g. birthday, policy_renewal, annual_review_overdue"),
		),
		mcpgo.WithString("priority",
			mcpgo.Description("Filter by priority: urgent, high, medium, or low"),
		),
		mcpgo.WithString("client_id",
			mcpgo.Description("Filter to a single client"),
		),
		mcpgo.WithBoolean("include_dismissed",
			mcpgo.Description("Include dismissed alerts (default: false)"),
		),
		mcpgo.WithString("date",
			mcpgo.Description("Effective date YYYY-MM-DD (default: today)"),
		),
	)
}

func buildGetNudgeTool() mcpgo.Tool {
	return mcpgo.NewTool("get_nudge",
		mcpgo.WithDescription("Get the tiered proactive nudge: urgent items, items coming up in two weeks, and a month-end aggregate, formatted for the current time of day."),
		mcpgo.WithString("date",
			mcpgo.Description("Effective date YYYY-MM-DD (default: today)"),
		),
	)
}

func buildGetClientNudgeTool() mcpgo.Tool {
	return mcpgo.NewTool("get_client_nudge",
		mcpgo.WithDescription("Get upcoming items for one client within the next two weeks. Useful before contacting them."),
		mcpgo.WithString("client_id",
			mcpgo.Required(),
			mcpgo.Description("The client to look up"),
		),
		mcpgo.WithString("date",
			mcpgo.Description("Effective date YYYY-MM-DD (default: today)"),
		),
	)
}

func buildDismissAlertTool() mcpgo.Tool {
	return mcpgo.NewTool("dismiss_alert",
		mcpgo.WithDescription("Dismiss an alert by ID so it stops appearing in scans and nudges. Alert IDs are deterministic, so the dismissal survives rescans."),
		mcpgo.WithString("alert_id",
			mcpgo.Required(),
			mcpgo.Description("The ID of the alert to dismiss"),
		),
	)
}

func buildUndismissAlertTool() mcpgo.Tool {
	return mcpgo.NewTool("undismiss_alert",
		mcpgo.WithDescription("Restore a previously dismissed alert."),
		mcpgo.WithString("alert_id",
			mcpgo.Required(),
			mcpgo.Description("The ID of the alert to restore"),
		),
	)
}

func buildMarkClientInactiveTool() mcpgo.Tool {
	return mcpgo.NewTool("mark_client_inactive",
		mcpgo.WithDescription("Mark a client inactive. All their alerts are suppressed until they are reactivated."),
		mcpgo.WithString("client_id",
			mcpgo.Required(),
			mcpgo.Description("The client to mark inactive"),
		),
	)
}

func buildReactivateClientTool() mcpgo.Tool {
	return mcpgo.NewTool("reactivate_client",
		mcpgo.WithDescription("Reactivate an inactive client so their alerts appear again."),
		mcpgo.WithString("client_id",
			mcpgo.Required(),
			mcpgo.Description("The client to reactivate"),
		),
	)
}

func buildGetClientComplianceTool() mcpgo.Tool {
	return mcpgo.NewTool("get_client_compliance",
		mcpgo.WithDescription("Score one client's compliance posture: annual review, risk profile, suitability, contact frequency, documentation and value demonstrated."),
		mcpgo.WithString("client_id",
			mcpgo.Required(),
			mcpgo.Description("The client to score"),
		),
		mcpgo.WithString("date",
			mcpgo.Description("Effective date YYYY-MM-DD (default: today)"),
		),
	)
}

func buildGetPortfolioComplianceTool() mcpgo.Tool {
	return mcpgo.NewTool("get_portfolio_compliance",
		mcpgo.WithDescription("Score the whole client book: average score, status counts, the lowest-scoring clients and the most common issues."),
		mcpgo.WithString("date",
			mcpgo.Description("Effective date YYYY-MM-DD (default: today)"),
		),
	)
}

func buildDraftEmailTool() mcpgo.Tool {
	return mcpgo.NewTool("draft_email",
		mcpgo.WithDescription("Draft an email to a client. Types: birthday, check_in, review_reminder, follow_up, policy_renewal, policy_maturity, retirement_planning, general_update."),
		mcpgo.WithString("client_id",
			mcpgo.Required(),
			mcpgo.Description("The client the email is for"),
		),
		mcpgo.WithString("type",
			mcpgo.Description("Email type (default: general_update)"),
		),
		mcpgo.WithString("context",
			mcpgo.Description("Optional extra context for the draft"),
		),
	)
}

// --- tool handlers ---

// handleGetAlerts scans the book and returns filtered active alerts.
func (s *Server) handleGetAlerts(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	all, today, err := s.scan(ctx, req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	includeDismissed := req.GetBool("include_dismissed", false)
	filtered := s.aggregator.FilterActive(all, includeDismissed)
	if t := req.GetString("type", ""); t != "" {
		filtered = alerts.ByType(filtered, t)
	}
	if p := req.GetString("priority", ""); p != "" {
		filtered = alerts.ByPriority(filtered, p)
	}
	if id := req.GetString("client_id", ""); id != "" {
		filtered = alerts.ForClient(filtered, id)
	}

	s.logger.Info("mcp: get_alerts", "date", today, "count", len(filtered))

	result := map[string]any{
		"date":   today,
		"alerts": filtered,
		"count":  len(filtered),
	}
	return toolResultJSON(result)
}

// handleGetNudge builds the tiered nudge for the effective date.
func (s *Server) handleGetNudge(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	all, today, err := s.scan(ctx, req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	active := s.aggregator.FilterActive(all, false)
	result := s.aggregator.Build(active, today, s.now().Hour())
	return toolResultJSON(result)
}

// handleGetClientNudge returns one client's upcoming items.
func (s *Server) handleGetClientNudge(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	clientID := req.GetString("client_id", "")
	if strings.TrimSpace(clientID) == "" {
		return mcpgo.NewToolResultError("client_id is required and must not be empty"), nil
	}
	if _, err := s.source.GetByID(ctx, clientID); err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			return mcpgo.NewToolResultErrorf("client %q not found", clientID), nil
		}
		return mcpgo.NewToolResultErrorf("loading client: %s", err.Error()), nil
	}

	all, today, err := s.scan(ctx, req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	active := s.aggregator.FilterActive(all, false)
	upcoming := s.aggregator.ForClient(active, clientID)

	result := map[string]any{
		"client_id": clientID,
		"date":      today,
		"alerts":    upcoming,
		"count":     len(upcoming),
	}
	return toolResultJSON(result)
}

// handleDismissAlert records a dismissal.
func (s *Server) handleDismissAlert(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	alertID := req.GetString("alert_id", "")
	if strings.TrimSpace(alertID) == "" {
		return mcpgo.NewToolResultError("alert_id is required and must not be empty"), nil
	}

	s.dismissals.Dismiss(alertID)
	s.logger.Info("mcp: dismissed alert", "alert_id", alertID)

	result := map[string]any{
		"alert_id":  alertID,
		"dismissed": true,
	}
	return toolResultJSON(result)
}

// handleUndismissAlert removes a dismissal.
func (s *Server) handleUndismissAlert(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	alertID := req.GetString("alert_id", "")
	if strings.TrimSpace(alertID) == "" {
		return mcpgo.NewToolResultError("alert_id is required and must not be empty"), nil
	}

	s.dismissals.Undismiss(alertID)
	s.logger.Info("mcp: restored alert", "alert_id", alertID)

	result := map[string]any{
		"alert_id":  alertID,
		"dismissed": false,
	}
	return toolResultJSON(result)
}

// handleMarkClientInactive suppresses all of a client's alerts.
func (s *Server) handleMarkClientInactive(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	clientID := req.GetString("client_id", "")
	if strings.TrimSpace(clientID) == "" {
		return mcpgo.NewToolResultError("client_id is required and must not be empty"), nil
	}

	client, err := s.source.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			return mcpgo.NewToolResultErrorf("client %q not found", clientID), nil
		}
		return mcpgo.NewToolResultErrorf("loading client: %s", err.Error()), nil
	}

	s.dismissals.MarkInactive(clientID, client.FullName())
	s.logger.Info("mcp: marked client inactive", "client_id", clientID)

	result := map[string]any{
		"client_id": clientID,
		"inactive":  true,
	}
	return toolResultJSON(result)
}

// handleReactivateClient restores an inactive client.
func (s *Server) handleReactivateClient(_ context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	clientID := req.GetString("client_id", "")
	if strings.TrimSpace(clientID) == "" {
		return mcpgo.NewToolResultError("client_id is required and must not be empty"), nil
	}

	s.dismissals.Reactivate(clientID)
	s.logger.Info("mcp: reactivated client", "client_id", clientID)

	result := map[string]any{
		"client_id": clientID,
		"inactive":  false,
	}
	return toolResultJSON(result)
}

// handleGetClientCompliance scores a single client.
func (s *Server) handleGetClientCompliance(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	clientID := req.GetString("client_id", "")
	if strings.TrimSpace(clientID) == "" {
		return mcpgo.NewToolResultError("client_id is required and must not be empty"), nil
	}

	today, err := s.toolDate(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	client, err := s.source.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			return mcpgo.NewToolResultErrorf("client %q not found", clientID), nil
		}
		return mcpgo.NewToolResultErrorf("loading client: %s", err.Error()), nil
	}

	return toolResultJSON(s.scorer.ScoreClient(client, today))
}

// handleGetPortfolioCompliance scores the whole book.
func (s *Server) handleGetPortfolioCompliance(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	today, err := s.toolDate(req)
	if err != nil {
		return mcpgo.NewToolResultError(err.Error()), nil
	}

	clients, err := s.source.Load(ctx)
	if err != nil {
		return mcpgo.NewToolResultErrorf("loading clients: %s", err.Error()), nil
	}

	summary, err := s.scorer.ScorePortfolio(clients, today)
	if err != nil {
		return mcpgo.NewToolResultErrorf("scoring portfolio: %s", err.Error()), nil
	}
	return toolResultJSON(summary)
}

// handleDraftEmail drafts a client email.
func (s *Server) handleDraftEmail(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	if s.source == nil {
		return mcpgo.NewToolResultError("client source is unavailable"), nil
	}

	clientID := req.GetString("client_id", "")
	if strings.TrimSpace(clientID) == "" {
		return mcpgo.NewToolResultError("client_id is required and must not be empty"), nil
	}
	draftType := alerts.EmailDraftType(req.GetString("type", string(alerts.DraftGeneralUpdate)))
	extra := req.GetString("context", "")

	client, err := s.source.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			return mcpgo.NewToolResultErrorf("client %q not found", clientID), nil
		}
		return mcpgo.NewToolResultErrorf("loading client: %s", err.Error()), nil
	}

	email := s.narrator.DraftEmail(ctx, *client, draftType, extra)
	s.logger.Info("mcp: drafted email", "client_id", clientID, "type", draftType)

	result := map[string]any{
		"client_id": clientID,
		"type":      string(draftType),
		"email":     email,
	}
	return toolResultJSON(result)
}
