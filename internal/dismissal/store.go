// Package dismissal persists which alerts the user has dismissed and which
// clients are marked inactive. State survives restarts; every mutation is
// flushed to disk synchronously before returning.
package dismissal

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mjcarver/advisor-pulse/internal/metrics"
)

// fileState is the on-disk shape of the dismissal file. It must round-trip
// exactly; unknown keys are ignored on load.
type fileState struct {
	DismissedAlerts     []string          `json:"dismissed_alerts"`
	InactiveClients     []string          `json:"inactive_clients"`
	InactiveClientNames map[string]string `json:"inactive_client_names"`
	LastUpdated         string            `json:"last_updated,omitempty"`
}

// Stats summarizes the dismissal state.
type Stats struct {
	DismissedAlertsCount int      `json:"dismissed_alerts_count"`
	InactiveClientsCount int      `json:"inactive_clients_count"`
	InactiveClientNames  []string `json:"inactive_client_names"`
}

// Store is the durable dismissal registry. Alerts are advisory, so a corrupt
// or unreadable file recovers to an empty state instead of failing startup.
// The read-modify-write-flush cycle is guarded by a mutex so the store is
// safe to share between the CLI, HTTP and MCP surfaces.
type Store struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
	now    func() time.Time

	dismissed     map[string]struct{}
	inactive      map[string]struct{}
	inactiveNames map[string]string
}

// NewStore creates a Store backed by the given file path and loads any
// existing state.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:          path,
		logger:        logger,
		now:           time.Now,
		dismissed:     make(map[string]struct{}),
		inactive:      make(map[string]struct{}),
		inactiveNames: make(map[string]string),
	}
	s.load()
	return s
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("dismissal store unreadable, starting empty", "path", s.path, "error", err)
		}
		return
	}

	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		s.logger.Warn("dismissal store corrupt, starting empty", "path", s.path, "error", err)
		return
	}

	for _, id := range st.DismissedAlerts {
		s.dismissed[id] = struct{}{}
	}
	for _, id := range st.InactiveClients {
		s.inactive[id] = struct{}{}
	}
	for id, name := range st.InactiveClientNames {
		s.inactiveNames[id] = name
	}
}

// save writes the full state to disk. Callers must hold s.mu. A failed write
// is logged, not returned: losing a dismissal is an annoyance, not a fault
// worth surfacing to the advisor.
func (s *Store) save() {
	st := fileState{
		DismissedAlerts:     setToSorted(s.dismissed),
		InactiveClients:     setToSorted(s.inactive),
		InactiveClientNames: make(map[string]string, len(s.inactiveNames)),
		LastUpdated:         s.now().UTC().Format(time.RFC3339),
	}
	for id, name := range s.inactiveNames {
		st.InactiveClientNames[id] = name
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		s.logger.Warn("marshaling dismissal state", "error", err)
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		s.logger.Warn("creating dismissal store directory", "path", s.path, "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		s.logger.Warn("writing dismissal state", "path", s.path, "error", err)
	}
}

// Dismiss suppresses a specific alert ID from future display.
func (s *Store) Dismiss(alertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed[alertID] = struct{}{}
	metrics.Inc(metrics.DismissTotal)
	s.save()
}

// Undismiss removes an alert ID from the dismissed set.
func (s *Store) Undismiss(alertID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.dismissed, alertID)
	s.save()
}

// IsDismissed reports whether an alert ID has been dismissed.
func (s *Store) IsDismissed(alertID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dismissed[alertID]
	return ok
}

// DismissedIDs returns all dismissed alert IDs, sorted.
func (s *Store) DismissedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setToSorted(s.dismissed)
}

// ClearDismissed removes all dismissed alert IDs.
func (s *Store) ClearDismissed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = make(map[string]struct{})
	s.save()
}

// MarkInactive flags a client as "not with us anymore". Their alerts are
// excluded from all output until reactivated. The display name is kept so a
// recovery UI can list inactive clients even if the client record is gone.
func (s *Store) MarkInactive(clientID, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inactive[clientID] = struct{}{}
	if displayName != "" {
		s.inactiveNames[clientID] = displayName
	}
	s.save()
}

// Reactivate undoes MarkInactive for a client.
func (s *Store) Reactivate(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inactive, clientID)
	delete(s.inactiveNames, clientID)
	s.save()
}

// IsInactive reports whether a client is marked inactive.
func (s *Store) IsInactive(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.inactive[clientID]
	return ok
}

// InactiveIDs returns all inactive client IDs, sorted.
func (s *Store) InactiveIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return setToSorted(s.inactive)
}

// InactiveWithNames returns inactive client IDs mapped to display names.
func (s *Store) InactiveWithNames() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.inactiveNames))
	for id, name := range s.inactiveNames {
		out[id] = name
	}
	return out
}

// ClearAll resets the full dismissal state.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dismissed = make(map[string]struct{})
	s.inactive = make(map[string]struct{})
	s.inactiveNames = make(map[string]string)
	s.save()
}

// GetStats returns summary counts for the registry.
func (s *Store) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.inactiveNames))
	for _, name := range s.inactiveNames {
		names = append(names, name)
	}
	sort.Strings(names)
	return Stats{
		DismissedAlertsCount: len(s.dismissed),
		InactiveClientsCount: len(s.inactive),
		InactiveClientNames:  names,
	}
}

func setToSorted(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
