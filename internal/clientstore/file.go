package clientstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

// FileSource is a Source backed by a single JSON file holding the whole
// client book. Suited to the expected scale of tens to low hundreds of
// clients; every Add rewrites the full file.
type FileSource struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileSource creates a FileSource for the given path. The file does not
// need to exist yet; a missing file loads as an empty book.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileSource{path: path, logger: logger}
}

// Load reads the full client book from disk.
func (f *FileSource) Load(_ context.Context) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	db, err := f.read()
	if err != nil {
		return nil, err
	}
	return db.Clients, nil
}

// GetByID returns one client by ID.
func (f *FileSource) GetByID(ctx context.Context, id string) (*models.Client, error) {
	clients, err := f.Load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], nil
		}
	}
	return nil, fmt.Errorf("client %q: %w", id, ErrNotFound)
}

// Add appends a client to the book and rewrites the file.
func (f *FileSource) Add(_ context.Context, client models.Client) (*models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	db, err := f.read()
	if err != nil {
		return nil, err
	}

	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	for i := range db.Clients {
		if db.Clients[i].ID == client.ID {
			return nil, fmt.Errorf("client %q already exists", client.ID)
		}
	}

	db.Clients = append(db.Clients, client)
	db.LastUpdated = time.Now().UTC()
	if db.Version == "" {
		db.Version = "1.0.0"
	}

	if err := f.write(db); err != nil {
		return nil, err
	}
	f.logger.Info("client added", "id", client.ID, "name", client.FullName())
	return &client, nil
}

// Close is a no-op for the file source.
func (f *FileSource) Close(_ context.Context) error { return nil }

func (f *FileSource) read() (*models.ClientDatabase, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.ClientDatabase{}, nil
		}
		return nil, fmt.Errorf("reading client book %s: %w", f.path, err)
	}
	var db models.ClientDatabase
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("parsing client book %s: %w", f.path, err)
	}
	return &db, nil
}

func (f *FileSource) write(db *models.ClientDatabase) error {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling client book: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("creating client book directory: %w", err)
	}
	if err := os.WriteFile(f.path, data, 0o644); err != nil {
		return fmt.Errorf("writing client book %s: %w", f.path, err)
	}
	return nil
}
