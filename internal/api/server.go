package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mjcarver/advisor-pulse/internal/alerts"
	"github.com/mjcarver/advisor-pulse/internal/briefing"
	"github.com/mjcarver/advisor-pulse/internal/clientstore"
	"github.com/mjcarver/advisor-pulse/internal/compliance"
	"github.com/mjcarver/advisor-pulse/internal/dismissal"
	"github.com/mjcarver/advisor-pulse/internal/models"
	"github.com/mjcarver/advisor-pulse/internal/nudge"
)

// Server is an HTTP API server exposing the alert, nudge, dismissal and
// compliance operations.
type Server struct {
	source     clientstore.Source
	detector   *alerts.Detector
	aggregator *nudge.Aggregator
	scorer     *compliance.Scorer
	dismissals *dismissal.Store
	narrator   *briefing.Narrator
	logger     *slog.Logger
	authToken  string // empty = no auth required
	now        func() time.Time
}

// NewServer creates a new Server with the given dependencies.
func NewServer(
	source clientstore.Source,
	detector *alerts.Detector,
	aggregator *nudge.Aggregator,
	scorer *compliance.Scorer,
	dismissals *dismissal.Store,
	narrator *briefing.Narrator,
	logger *slog.Logger,
	authToken string,
) *Server {
	return &Server{
		source:     source,
		detector:   detector,
		aggregator: aggregator,
		scorer:     scorer,
		dismissals: dismissals,
		narrator:   narrator,
		logger:     logger,
		authToken:  authToken,
		now:        time.Now,
	}
}

// Handler returns an http.Handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health check — no auth required.
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /v1/alerts", s.auth(s.handleAlerts))
	mux.HandleFunc("GET /v1/alerts/summary", s.auth(s.handleAlertsSummary))
	mux.HandleFunc("GET /v1/briefing", s.auth(s.handleBriefing))
	mux.HandleFunc("GET /v1/nudge", s.auth(s.handleNudge))
	mux.HandleFunc("GET /v1/nudge/{client_id}", s.auth(s.handleClientNudge))
	mux.HandleFunc("GET /v1/compliance", s.auth(s.handlePortfolioCompliance))
	mux.HandleFunc("GET /v1/compliance/{client_id}", s.auth(s.handleClientCompliance))
	mux.HandleFunc("GET /v1/report", s.auth(s.handleReport))
	mux.HandleFunc("GET /v1/dismissals", s.auth(s.handleDismissalStats))
	mux.HandleFunc("POST /v1/dismissals", s.auth(s.handleDismiss))
	mux.HandleFunc("DELETE /v1/dismissals/{id}", s.auth(s.handleUndismiss))
	mux.HandleFunc("GET /v1/clients", s.auth(s.handleListClients))
	mux.HandleFunc("POST /v1/clients", s.auth(s.handleAddClient))
	mux.HandleFunc("GET /v1/clients/{id}", s.auth(s.handleGetClient))
	mux.HandleFunc("GET /v1/clients/{id}/summary", s.auth(s.handleClientSummary))
	mux.HandleFunc("POST /v1/clients/{id}/deactivate", s.auth(s.handleDeactivate))
	mux.HandleFunc("POST /v1/clients/{id}/reactivate", s.auth(s.handleReactivate))
	mux.HandleFunc("POST /v1/drafts", s.auth(s.handleDraft))

	return mux
}

// --- middleware ---

// auth wraps a handler with Bearer token authentication when authToken is set.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authToken == "" {
			next(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

// --- handlers ---

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// scan loads the client book and runs detection for the request's effective
// date. An optional ?date=YYYY-MM-DD query overrides "today" so the same book
// can be inspected for any day.
func (s *Server) scan(r *http.Request) ([]models.Alert, models.Date, error) {
	today, err := s.requestDate(r)
	if err != nil {
		return nil, models.Date{}, err
	}
	clients, err := s.source.Load(r.Context())
	if err != nil {
		return nil, models.Date{}, err
	}
	return s.detector.Scan(clients, today), today, nil
}

// errBadDate marks a malformed ?date query value.
var errBadDate = errors.New("invalid date, expected YYYY-MM-DD")

func (s *Server) requestDate(r *http.Request) (models.Date, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return models.DateOf(s.now()), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return models.Date{}, errBadDate
	}
	return models.DateOf(t), nil
}

// alertsResponse is returned by GET /v1/alerts.
type alertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
	Count  int            `json:"count"`
	Date   models.Date    `json:"date"`
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	all, today, err := s.scan(r)
	if err != nil {
		s.scanError(w, err)
		return
	}

	q := r.URL.Query()
	includeDismissed := q.Get("include_dismissed") == "true"
	filtered := s.aggregator.FilterActive(all, includeDismissed)
	if t := q.Get("type"); t != "" {
		filtered = alerts.ByType(filtered, t)
	}
	if p := q.Get("priority"); p != "" {
		filtered = alerts.ByPriority(filtered, p)
	}
	if id := q.Get("client_id"); id != "" {
		filtered = alerts.ForClient(filtered, id)
	}

	s.writeJSON(w, http.StatusOK, alertsResponse{Alerts: filtered, Count: len(filtered), Date: today})
}

func (s *Server) handleAlertsSummary(w http.ResponseWriter, r *http.Request) {
	all, today, err := s.scan(r)
	if err != nil {
		s.scanError(w, err)
		return
	}
	active := s.aggregator.FilterActive(all, false)
	s.writeJSON(w, http.StatusOK, alerts.Summarize(active, today))
}

// briefingResponse is returned by GET /v1/briefing.
type briefingResponse struct {
	Date      models.Date `json:"date"`
	Briefing  string      `json:"briefing"`
	Narration string      `json:"narration,omitempty"`
}

func (s *Server) handleBriefing(w http.ResponseWriter, r *http.Request) {
	all, today, err := s.scan(r)
	if err != nil {
		s.scanError(w, err)
		return
	}
	active := s.aggregator.FilterActive(all, false)
	md := alerts.DailyBriefing(active, today)

	resp := briefingResponse{Date: today, Briefing: md}
	if r.URL.Query().Get("narrate") == "true" && s.narrator.Enabled() {
		clients, err := s.source.Load(r.Context())
		if err == nil {
			data := clientstore.DailyBriefingData(clients, today)
			resp.Narration = s.narrator.NarrateBriefing(r.Context(), data, md)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNudge(w http.ResponseWriter, r *http.Request) {
	all, today, err := s.scan(r)
	if err != nil {
		s.scanError(w, err)
		return
	}
	hour := s.now().Hour()
	active := s.aggregator.FilterActive(all, false)
	s.writeJSON(w, http.StatusOK, s.aggregator.Build(active, today, hour))
}

// clientNudgeResponse is returned by GET /v1/nudge/{client_id}.
type clientNudgeResponse struct {
	ClientID string         `json:"client_id"`
	Alerts   []models.Alert `json:"alerts"`
	Count    int            `json:"count"`
}

func (s *Server) handleClientNudge(w http.ResponseWriter, r *http.Request) {
	clientID := r.PathValue("client_id")
	if _, err := s.source.GetByID(r.Context(), clientID); err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.logger.Error("failed to load client", "client_id", clientID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load client")
		return
	}

	all, _, err := s.scan(r)
	if err != nil {
		s.scanError(w, err)
		return
	}
	active := s.aggregator.FilterActive(all, false)
	upcoming := s.aggregator.ForClient(active, clientID)
	s.writeJSON(w, http.StatusOK, clientNudgeResponse{ClientID: clientID, Alerts: upcoming, Count: len(upcoming)})
}

func (s *Server) handlePortfolioCompliance(w http.ResponseWriter, r *http.Request) {
	today, err := s.requestDate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clients, err := s.source.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load clients", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load clients")
		return
	}

	summary, err := s.scorer.ScorePortfolio(clients, today)
	if err != nil {
		if errors.Is(err, compliance.ErrNoClients) {
			s.writeError(w, http.StatusNotFound, "no clients in book")
			return
		}
		s.logger.Error("failed to score portfolio", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to score portfolio")
		return
	}
	s.writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleClientCompliance(w http.ResponseWriter, r *http.Request) {
	today, err := s.requestDate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clientID := r.PathValue("client_id")
	client, err := s.source.GetByID(r.Context(), clientID)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.logger.Error("failed to load client", "client_id", clientID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load client")
		return
	}
	s.writeJSON(w, http.StatusOK, s.scorer.ScoreClient(client, today))
}

// reportResponse is returned by GET /v1/report.
type reportResponse struct {
	Date   models.Date `json:"date"`
	Report string      `json:"report"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	today, err := s.requestDate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	clients, err := s.source.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load clients", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load clients")
		return
	}
	report, err := s.scorer.Report(clients, today)
	if err != nil {
		if errors.Is(err, compliance.ErrNoClients) {
			s.writeError(w, http.StatusNotFound, "no clients in book")
			return
		}
		s.logger.Error("failed to build report", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	s.writeJSON(w, http.StatusOK, reportResponse{Date: today, Report: report})
}

func (s *Server) handleDismissalStats(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.dismissals.GetStats())
}

// dismissRequest is the body accepted by POST /v1/dismissals.
type dismissRequest struct {
	AlertID string `json:"alert_id"`
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req dismissRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AlertID == "" {
		s.writeError(w, http.StatusBadRequest, "alert_id is required")
		return
	}
	s.dismissals.Dismiss(req.AlertID)
	s.writeJSON(w, http.StatusOK, map[string]any{"alert_id": req.AlertID, "dismissed": true})
}

func (s *Server) handleUndismiss(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		s.writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	s.dismissals.Undismiss(id)
	s.writeJSON(w, http.StatusOK, map[string]any{"alert_id": id, "dismissed": false})
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.source.Load(r.Context())
	if err != nil {
		s.logger.Error("failed to load clients", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load clients")
		return
	}
	if q := r.URL.Query().Get("q"); q != "" {
		clients = clientstore.SearchByName(clients, q)
	}
	if concern := r.URL.Query().Get("concern"); concern != "" {
		clients = clientstore.SearchByConcern(clients, concern)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"clients": clients, "count": len(clients)})
}

func (s *Server) handleAddClient(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if client.FirstName == "" || client.LastName == "" {
		s.writeError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}
	added, err := s.source.Add(r.Context(), client)
	if err != nil {
		s.logger.Error("failed to add client", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to add client")
		return
	}
	s.writeJSON(w, http.StatusCreated, added)
}

func (s *Server) handleGetClient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	client, err := s.source.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.logger.Error("failed to load client", "client_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load client")
		return
	}
	s.writeJSON(w, http.StatusOK, client)
}

func (s *Server) handleClientSummary(w http.ResponseWriter, r *http.Request) {
	today, err := s.requestDate(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id := r.PathValue("id")
	client, err := s.source.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.logger.Error("failed to load client", "client_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load client")
		return
	}
	s.writeJSON(w, http.StatusOK, clientstore.ClientSummary(client, today))
}

func (s *Server) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	client, err := s.source.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.logger.Error("failed to load client", "client_id", id, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load client")
		return
	}
	s.dismissals.MarkInactive(id, client.FullName())
	s.writeJSON(w, http.StatusOK, map[string]any{"client_id": id, "inactive": true})
}

func (s *Server) handleReactivate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.dismissals.Reactivate(id)
	s.writeJSON(w, http.StatusOK, map[string]any{"client_id": id, "inactive": false})
}

// draftRequest is the body accepted by POST /v1/drafts.
type draftRequest struct {
	ClientID string `json:"client_id"`
	Type     string `json:"type"`
	Context  string `json:"context"`
}

// draftResponse is returned by POST /v1/drafts.
type draftResponse struct {
	ClientID string `json:"client_id"`
	Type     string `json:"type"`
	Email    string `json:"email"`
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ClientID == "" {
		s.writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	if req.Type == "" {
		req.Type = string(alerts.DraftGeneralUpdate)
	}

	client, err := s.source.GetByID(r.Context(), req.ClientID)
	if err != nil {
		if errors.Is(err, clientstore.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "client not found")
			return
		}
		s.logger.Error("failed to load client", "client_id", req.ClientID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to load client")
		return
	}

	email := s.narrator.DraftEmail(r.Context(), *client, alerts.EmailDraftType(req.Type), req.Context)
	s.writeJSON(w, http.StatusOK, draftResponse{ClientID: req.ClientID, Type: req.Type, Email: email})
}

// --- helpers ---

// scanError maps a scan failure to the right HTTP response.
func (s *Server) scanError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadDate) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("failed to scan client book", "error", err)
	s.writeError(w, http.StatusInternalServerError, "failed to scan client book")
}

// writeJSON encodes v as JSON and writes it to w with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(v); encErr != nil {
		s.logger.Error("failed to encode response", "error", encErr)
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// Shutdown gracefully shuts down an http.Server with the given timeout.
// This is a convenience helper used by the serve command.
func Shutdown(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
