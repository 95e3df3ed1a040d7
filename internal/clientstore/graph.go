package clientstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/mjcarver/advisor-pulse/internal/models"
)

const graphConnectTimeout = 10 * time.Second

// GraphSource is a Source backed by Neo4j. Each client is a (:Client) node
// carrying the full record as a JSON payload property, with family members
// and policies broken out as related nodes so the book can be queried as a
// graph by other tooling. The payload is authoritative; the relationship
// nodes are a denormalized projection maintained on write.
type GraphSource struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewGraphSource connects to Neo4j and verifies connectivity.
func NewGraphSource(ctx context.Context, uri, username, password, database string, logger *slog.Logger) (*GraphSource, error) {
	if logger == nil {
		logger = slog.Default()
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating Neo4j driver for %s: %w", uri, err)
	}

	vctx, cancel := context.WithTimeout(ctx, graphConnectTimeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verifying Neo4j connection at %s: %w", uri, err)
	}

	logger.Info("connected to Neo4j", "uri", uri, "database", database)

	return &GraphSource{driver: driver, database: database, logger: logger}, nil
}

// Load reads every client node's payload.
func (g *GraphSource) Load(ctx context.Context) ([]models.Client, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: g.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	records, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, "MATCH (c:Client) RETURN c.payload AS payload ORDER BY c.id", nil)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("loading clients from graph: %w", err)
	}

	var clients []models.Client
	for _, rec := range records.([]*neo4j.Record) {
		payload, ok := rec.Get("payload")
		if !ok {
			continue
		}
		text, ok := payload.(string)
		if !ok {
			continue
		}
		var c models.Client
		if err := json.Unmarshal([]byte(text), &c); err != nil {
			g.logger.Warn("skipping client with unparsable payload", "error", err)
			continue
		}
		clients = append(clients, c)
	}

	return clients, nil
}

// GetByID returns one client by ID.
func (g *GraphSource) GetByID(ctx context.Context, id string) (*models.Client, error) {
	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: g.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer func() { _ = session.Close(ctx) }()

	payload, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx,
			"MATCH (c:Client {id: $id}) RETURN c.payload AS payload",
			map[string]any{"id": id})
		if err != nil {
			return nil, err
		}
		rec, err := result.Single(ctx)
		if err != nil {
			return nil, err
		}
		v, _ := rec.Get("payload")
		return v, nil
	})
	if err != nil {
		return nil, fmt.Errorf("client %q: %w", id, ErrNotFound)
	}

	text, ok := payload.(string)
	if !ok {
		return nil, fmt.Errorf("client %q has no payload", id)
	}
	var c models.Client
	if err := json.Unmarshal([]byte(text), &c); err != nil {
		return nil, fmt.Errorf("parsing client %q payload: %w", id, err)
	}
	return &c, nil
}

// Add upserts a client node plus family and policy projection nodes.
func (g *GraphSource) Add(ctx context.Context, client models.Client) (*models.Client, error) {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}

	payload, err := json.Marshal(client)
	if err != nil {
		return nil, fmt.Errorf("marshaling client %q: %w", client.ID, err)
	}

	session := g.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: g.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer func() { _ = session.Close(ctx) }()

	_, err = session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx,
			"MERGE (c:Client {id: $id}) SET c.payload = $payload, c.name = $name",
			map[string]any{"id": client.ID, "payload": string(payload), "name": client.FullName()}); err != nil {
			return nil, err
		}

		for _, m := range client.FamilyMembers {
			if _, err := tx.Run(ctx,
				`MATCH (c:Client {id: $id})
				 MERGE (p:Person {name: $name})
				 MERGE (c)-[r:FAMILY]->(p)
				 SET r.relationship = $relationship`,
				map[string]any{"id": client.ID, "name": m.Name, "relationship": m.Relationship}); err != nil {
				return nil, err
			}
		}

		for _, p := range client.Policies {
			if _, err := tx.Run(ctx,
				`MATCH (c:Client {id: $id})
				 MERGE (pr:Provider {name: $provider})
				 MERGE (c)-[r:HOLDS {type: $type}]->(pr)`,
				map[string]any{"id": client.ID, "provider": p.Provider, "type": string(p.PolicyType)}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return nil, fmt.Errorf("writing client %q to graph: %w", client.ID, err)
	}

	g.logger.Info("client written to graph", "id", client.ID, "name", client.FullName())
	return &client, nil
}

// Close shuts down the underlying driver.
func (g *GraphSource) Close(ctx context.Context) error {
	return g.driver.Close(ctx)
}
