package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/moltbot/moltmem/internal/models"
)

// FindEntityByName retrieves an entity by exact name match.
// Returns (nil, nil) when no entity has that name.
func (c *Client) FindEntityByName(ctx context.Context, name string) (*models.Entity, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	var e models.Entity
	err := c.pool.QueryRow(ctx, `
		SELECT id, type, name, description, created_at, updated_at
		FROM entities WHERE name = $1
	`, name).Scan(&e.ID, &e.Type, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find entity: %w", err)
	}
	return &e, nil
}

// UpsertEntity inserts an entity or, when the name already exists, updates
// its description/embedding without ever touching the name. Returns
// (entity, wasCreated, error).
func (c *Client) UpsertEntity(ctx context.Context, entityType, name string, description *string, embedding []float32) (*models.Entity, bool, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	var e models.Entity
	var inserted bool
	// xmax = 0 only holds for freshly inserted rows, which distinguishes
	// the insert and conflict-update arms of the upsert.
	err := c.pool.QueryRow(ctx, `
		INSERT INTO entities (id, type, name, description, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			description = COALESCE(EXCLUDED.description, entities.description),
			embedding   = COALESCE(EXCLUDED.embedding, entities.embedding),
			updated_at  = now()
		RETURNING id, type, name, description, created_at, updated_at, (xmax = 0)
	`, uuid.NewString(), entityType, name, description, vectorParam(embedding)).Scan(
		&e.ID, &e.Type, &e.Name, &e.Description, &e.CreatedAt, &e.UpdatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert entity: %w", translateError(err))
	}
	return &e, inserted, nil
}

// UpsertRelationship inserts or updates the directed edge keyed by
// (from, to, type). Both entity ids must exist.
func (c *Client) UpsertRelationship(ctx context.Context, fromID, toID, relType string, strength float64) (*models.Relationship, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	var r models.Relationship
	err := c.pool.QueryRow(ctx, `
		INSERT INTO relationships (id, from_entity, to_entity, type, strength)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (from_entity, to_entity, type) DO UPDATE SET strength = EXCLUDED.strength
		RETURNING id, from_entity, to_entity, type, strength, created_at
	`, uuid.NewString(), fromID, toID, relType, strength).Scan(
		&r.ID, &r.FromEntity, &r.ToEntity, &r.Type, &r.Strength, &r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert relationship: %w", translateError(err))
	}
	return &r, nil
}

// EntityRelationships returns the outgoing and incoming edges of an entity.
func (c *Client) EntityRelationships(ctx context.Context, entityID string) (outgoing, incoming []models.Relationship, err error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	outgoing, err = c.queryRelationships(ctx, `
		SELECT id, from_entity, to_entity, type, strength, created_at
		FROM relationships WHERE from_entity = $1 ORDER BY created_at
	`, entityID)
	if err != nil {
		return nil, nil, fmt.Errorf("outgoing relationships: %w", err)
	}
	incoming, err = c.queryRelationships(ctx, `
		SELECT id, from_entity, to_entity, type, strength, created_at
		FROM relationships WHERE to_entity = $1 ORDER BY created_at
	`, entityID)
	if err != nil {
		return nil, nil, fmt.Errorf("incoming relationships: %w", err)
	}
	return outgoing, incoming, nil
}

// NeighborEdges returns every edge touching the entity in either direction,
// as needed by the undirected connection search.
func (c *Client) NeighborEdges(ctx context.Context, entityID string) ([]models.Relationship, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	edges, err := c.queryRelationships(ctx, `
		SELECT id, from_entity, to_entity, type, strength, created_at
		FROM relationships WHERE from_entity = $1 OR to_entity = $1
	`, entityID)
	if err != nil {
		return nil, fmt.Errorf("neighbor edges: %w", err)
	}
	return edges, nil
}

func (c *Client) queryRelationships(ctx context.Context, sql string, args ...any) ([]models.Relationship, error) {
	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rels := []models.Relationship{}
	for rows.Next() {
		var r models.Relationship
		if err := rows.Scan(&r.ID, &r.FromEntity, &r.ToEntity, &r.Type, &r.Strength, &r.CreatedAt); err != nil {
			return nil, err
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// EntityNamesByIDs resolves entity ids to names for path output.
func (c *Client) EntityNamesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, `SELECT id, name FROM entities WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("entity names: %w", err)
	}
	defer rows.Close()

	names := make(map[string]string, len(ids))
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan entity name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// CloseOpenFacts sets valid_to on every currently open fact of the given
// (entity, type) pair, superseding them without deleting anything.
// Returns the number of facts closed.
func (c *Client) CloseOpenFacts(ctx context.Context, entityID, factType string, at time.Time) (int64, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	tag, err := c.pool.Exec(ctx, `
		UPDATE facts SET valid_to = $3
		WHERE entity_id = $1 AND type = $2 AND valid_to IS NULL
	`, entityID, factType, at)
	if err != nil {
		return 0, fmt.Errorf("close open facts: %w", err)
	}
	return tag.RowsAffected(), nil
}

// InsertFact persists a fact row.
func (c *Client) InsertFact(ctx context.Context, f *models.Fact) error {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	_, err := c.pool.Exec(ctx, `
		INSERT INTO facts (id, entity_id, type, content, confidence, embedding, valid_from, valid_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, f.ID, f.EntityID, f.Type, f.Content, f.Confidence, vectorParam(f.Embedding), f.ValidFrom, f.ValidTo)
	if err != nil {
		return fmt.Errorf("insert fact: %w", translateError(err))
	}
	return nil
}

// OpenFactsWithEntity lists currently valid facts joined with their
// subject's name, oldest first, for the relationship re-derivation job.
// limit <= 0 means no limit.
func (c *Client) OpenFactsWithEntity(ctx context.Context, limit int) ([]models.FactWithEntity, error) {
	ctx, cancel := c.qctx(ctx)
	defer cancel()

	sql := `
		SELECT f.id, f.entity_id, f.type, f.content, f.confidence, f.valid_from, f.valid_to, e.name
		FROM facts f
		JOIN entities e ON e.id = f.entity_id
		WHERE f.valid_to IS NULL
		ORDER BY f.valid_from
	`
	args := []any{}
	if limit > 0 {
		sql += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := c.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("open facts: %w", err)
	}
	defer rows.Close()

	facts := []models.FactWithEntity{}
	for rows.Next() {
		var f models.FactWithEntity
		if err := rows.Scan(&f.ID, &f.EntityID, &f.Type, &f.Content, &f.Confidence, &f.ValidFrom, &f.ValidTo, &f.EntityName); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
