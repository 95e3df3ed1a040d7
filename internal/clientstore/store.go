// Package clientstore loads and persists the advisory client book. The
// detection and scoring engines consume clients read-only; the source of the
// records (JSON file, graph database) is hidden behind the Source interface.
package clientstore

import (
	"context"
	"errors"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// ErrNotFound is returned when a client ID does not exist in the source.
var ErrNotFound = errors.New("client not found")

// Source provides read and append access to the client book.
type Source interface {
	// Load returns all clients in the book.
	Load(ctx context.Context) ([]models.Client, error)

	// GetByID returns one client, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.Client, error)

	// Add appends a new client. An empty ID is assigned a fresh one.
	Add(ctx context.Context, client models.Client) (*models.Client, error)

	// Close releases any underlying resources.
	Close(ctx context.Context) error
}
