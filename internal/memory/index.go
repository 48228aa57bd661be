// Package memory implements the lore memory index: an append-only log of
// narrative fragments stored with embeddings, answering top-K similarity
// queries strictly scoped to one world.
package memory

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"odyssai/internal/narrative"
)

// EmbeddingDim is the fixed dimension of the embedding vectors.
const EmbeddingDim = 768

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the pgvector-backed lore store.
type Index struct {
	pool     *pgxpool.Pool
	embedder Embedder
	timeout  time.Duration
}

// Open connects the index to Postgres.
func Open(ctx context.Context, databaseURL string, embedder Embedder, timeout time.Duration) (*Index, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "failed to connect to lore index")
	}
	log.Println("Connected to PostgreSQL lore index")
	return &Index{pool: pool, embedder: embedder, timeout: timeout}, nil
}

// Close releases the underlying pool.
func (i *Index) Close() { i.pool.Close() }

// Ping reports index reachability for health checks.
func (i *Index) Ping(ctx context.Context) error { return i.pool.Ping(ctx) }

// CreateTables creates the fragments schema if it does not exist.
func (i *Index) CreateTables(ctx context.Context) error {
	query := `
	CREATE EXTENSION IF NOT EXISTS vector;

	CREATE TABLE IF NOT EXISTS fragments (
		id UUID PRIMARY KEY,
		world_id UUID NOT NULL,
		character_id UUID,
		kind TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding vector(768) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS fragments_world_idx ON fragments (world_id, created_at DESC);
	`
	_, err := i.pool.Exec(ctx, query)
	return err
}

// AddFragment appends a fragment. Fragments are never updated or
// deleted; repeated calls with identical content append new rows.
func (i *Index) AddFragment(ctx context.Context, worldID, characterID string, kind narrative.FragmentKind, content string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	embedding, err := i.embedder.Embed(ctx, content)
	if err != nil {
		return "", narrative.WrapError(narrative.KindMemoryUnavailable, err, "failed to embed fragment")
	}

	id := uuid.NewString()
	var charID interface{}
	if characterID != "" {
		charID = characterID
	}
	_, err = i.pool.Exec(ctx, `
		INSERT INTO fragments (id, world_id, character_id, kind, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, worldID, charID, string(kind), content, pgvector.NewVector(embedding))
	if err != nil {
		return "", narrative.WrapError(narrative.KindMemoryUnavailable, err, "failed to store fragment")
	}
	return id, nil
}

// Query returns the top-K fragments most similar to the query text,
// ordered by descending similarity with ties broken by recency. Results
// are always restricted to the given world; a character id additionally
// restricts to fragments scoped to that character or to the world at
// large.
func (i *Index) Query(ctx context.Context, q narrative.FragmentQuery) ([]narrative.Fragment, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	embedding, err := i.embedder.Embed(ctx, q.Text)
	if err != nil {
		return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "failed to embed query")
	}

	k := q.K
	if k <= 0 {
		k = 10
	}

	query := `
		SELECT id, world_id, COALESCE(character_id::text, ''), kind, content, created_at
		FROM fragments
		WHERE world_id = $1
		ORDER BY embedding <=> $2, created_at DESC
		LIMIT $3
	`
	args := []interface{}{q.WorldID, pgvector.NewVector(embedding), k}
	if q.CharacterID != "" {
		query = `
		SELECT id, world_id, COALESCE(character_id::text, ''), kind, content, created_at
		FROM fragments
		WHERE world_id = $1 AND (character_id IS NULL OR character_id = $4)
		ORDER BY embedding <=> $2, created_at DESC
		LIMIT $3
		`
		args = append(args, q.CharacterID)
	}

	rows, err := i.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "lore query failed")
	}
	defer rows.Close()

	var fragments []narrative.Fragment
	for rows.Next() {
		var f narrative.Fragment
		if err := rows.Scan(&f.ID, &f.WorldID, &f.CharacterID, &f.Kind, &f.Content, &f.CreatedAt); err != nil {
			return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "failed to scan fragment")
		}
		fragments = append(fragments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "lore query failed")
	}
	return fragments, nil
}

// Recent returns the newest fragments for a world regardless of
// similarity, used to anchor prompts in the immediate past.
func (i *Index) Recent(ctx context.Context, worldID, characterID string, k int) ([]narrative.Fragment, error) {
	ctx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	query := `
		SELECT id, world_id, COALESCE(character_id::text, ''), kind, content, created_at
		FROM fragments
		WHERE world_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	args := []interface{}{worldID, k}
	if characterID != "" {
		query = `
		SELECT id, world_id, COALESCE(character_id::text, ''), kind, content, created_at
		FROM fragments
		WHERE world_id = $1 AND (character_id IS NULL OR character_id = $3)
		ORDER BY created_at DESC
		LIMIT $2
		`
		args = append(args, characterID)
	}

	rows, err := i.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "lore query failed")
	}
	defer rows.Close()

	var fragments []narrative.Fragment
	for rows.Next() {
		var f narrative.Fragment
		if err := rows.Scan(&f.ID, &f.WorldID, &f.CharacterID, &f.Kind, &f.Content, &f.CreatedAt); err != nil {
			return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "failed to scan fragment")
		}
		fragments = append(fragments, f)
	}
	if err := rows.Err(); err != nil {
		return nil, narrative.WrapError(narrative.KindMemoryUnavailable, err, "lore query failed")
	}
	return fragments, nil
}

// CountFragments reports the size of the lore log for metrics.
func (i *Index) CountFragments(ctx context.Context) (int, error) {
	var count int
	err := i.pool.QueryRow(ctx, `SELECT COUNT(*) FROM fragments`).Scan(&count)
	return count, err
}
