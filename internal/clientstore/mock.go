package clientstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// MockSource is an in-memory Source for testing.
type MockSource struct {
	mu      sync.RWMutex
	clients []models.Client
}

// NewMockSource creates a mock source pre-seeded with the given clients.
func NewMockSource(clients ...models.Client) *MockSource {
	return &MockSource{clients: clients}
}

// Load returns a copy of the seeded clients.
func (m *MockSource) Load(_ context.Context) ([]models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Client, len(m.clients))
	copy(out, m.clients)
	return out, nil
}

// GetByID returns one client by ID.
func (m *MockSource) GetByID(_ context.Context, id string) (*models.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.clients {
		if m.clients[i].ID == id {
			c := m.clients[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("client %q: %w", id, ErrNotFound)
}

// Add appends a client in memory.
func (m *MockSource) Add(_ context.Context, client models.Client) (*models.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	m.clients = append(m.clients, client)
	return &client, nil
}

// Close is a no-op.
func (m *MockSource) Close(_ context.Context) error { return nil }
