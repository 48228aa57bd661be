// Package registry stores the world and character records backing the
// narrative engine. Postgres owns the uniqueness rules: world names are
// globally unique, character names are unique per world, both compared
// case-insensitively by storing them lowercase.
package registry

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"odyssai/internal/narrative"
)

const uniqueViolation = "23505"

// Registry is the Postgres-backed world/character store.
type Registry struct {
	db *sql.DB
}

// Open connects to Postgres and verifies the connection.
func Open(databaseURL string) (*Registry, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	log.Println("Connected to PostgreSQL registry")
	return &Registry{db: db}, nil
}

// New wraps an existing connection, mainly for tests.
func New(db *sql.DB) *Registry { return &Registry{db: db} }

// Close releases the underlying pool.
func (r *Registry) Close() error { return r.db.Close() }

// Ping reports registry reachability for health checks.
func (r *Registry) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

// CreateTables creates the registry schema if it does not exist.
func (r *Registry) CreateTables(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS worlds (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		genre TEXT NOT NULL,
		directives TEXT NOT NULL DEFAULT '',
		synopsis TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS characters (
		id UUID PRIMARY KEY,
		world_id UUID NOT NULL REFERENCES worlds(id),
		name TEXT NOT NULL,
		gender TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		biography TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (world_id, name)
	);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// NormalizeName lowercases and trims a world or character name so that
// uniqueness is case-insensitive.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreateWorld inserts a new world. The synopsis is filled in later by
// UpdateSynopsis once lore generation has run.
func (r *Registry) CreateWorld(ctx context.Context, name, genre, directives string) (*narrative.World, error) {
	w := &narrative.World{
		ID:         uuid.NewString(),
		Name:       NormalizeName(name),
		Genre:      genre,
		Directives: directives,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO worlds (id, name, genre, directives)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, w.ID, w.Name, w.Genre, w.Directives).Scan(&w.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, narrative.NewError(narrative.KindDuplicateName, "world %q already exists", w.Name)
		}
		return nil, err
	}
	return w, nil
}

// GetWorld looks a world up by id.
func (r *Registry) GetWorld(ctx context.Context, worldID string) (*narrative.World, error) {
	return r.scanWorld(r.db.QueryRowContext(ctx, `
		SELECT id, name, genre, directives, synopsis, created_at
		FROM worlds WHERE id = $1
	`, worldID))
}

// GetWorldByName looks a world up by normalized name.
func (r *Registry) GetWorldByName(ctx context.Context, name string) (*narrative.World, error) {
	return r.scanWorld(r.db.QueryRowContext(ctx, `
		SELECT id, name, genre, directives, synopsis, created_at
		FROM worlds WHERE name = $1
	`, NormalizeName(name)))
}

func (r *Registry) scanWorld(row *sql.Row) (*narrative.World, error) {
	var w narrative.World
	err := row.Scan(&w.ID, &w.Name, &w.Genre, &w.Directives, &w.Synopsis, &w.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, narrative.NewError(narrative.KindWorldNotFound, "world not found")
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorlds returns all worlds, newest first.
func (r *Registry) ListWorlds(ctx context.Context) ([]narrative.World, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, genre, directives, synopsis, created_at
		FROM worlds ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var worlds []narrative.World
	for rows.Next() {
		var w narrative.World
		if err := rows.Scan(&w.ID, &w.Name, &w.Genre, &w.Directives, &w.Synopsis, &w.CreatedAt); err != nil {
			return nil, err
		}
		worlds = append(worlds, w)
	}
	return worlds, rows.Err()
}

// UpdateSynopsis overwrites the derived synopsis of a world.
func (r *Registry) UpdateSynopsis(ctx context.Context, worldID, synopsis string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE worlds SET synopsis = $1 WHERE id = $2`, synopsis, worldID)
	if err != nil {
		return err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return narrative.NewError(narrative.KindWorldNotFound, "world not found")
	}
	return nil
}

// CreateCharacter inserts a new character into a world.
func (r *Registry) CreateCharacter(ctx context.Context, worldID, name, gender, description, biography string) (*narrative.Character, error) {
	c := &narrative.Character{
		ID:          uuid.NewString(),
		WorldID:     worldID,
		Name:        NormalizeName(name),
		Gender:      gender,
		Description: description,
		Biography:   biography,
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO characters (id, world_id, name, gender, description, biography)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, c.ID, c.WorldID, c.Name, c.Gender, c.Description, c.Biography).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, narrative.NewError(narrative.KindDuplicateName, "character %q already exists in this world", c.Name)
		}
		return nil, err
	}
	return c, nil
}

// GetCharacter looks a character up by id within a world.
func (r *Registry) GetCharacter(ctx context.Context, worldID, characterID string) (*narrative.Character, error) {
	return r.scanCharacter(r.db.QueryRowContext(ctx, `
		SELECT id, world_id, name, gender, description, biography, created_at
		FROM characters WHERE world_id = $1 AND id = $2
	`, worldID, characterID))
}

// GetCharacterByName looks a character up by normalized name within a world.
func (r *Registry) GetCharacterByName(ctx context.Context, worldID, name string) (*narrative.Character, error) {
	return r.scanCharacter(r.db.QueryRowContext(ctx, `
		SELECT id, world_id, name, gender, description, biography, created_at
		FROM characters WHERE world_id = $1 AND name = $2
	`, worldID, NormalizeName(name)))
}

func (r *Registry) scanCharacter(row *sql.Row) (*narrative.Character, error) {
	var c narrative.Character
	err := row.Scan(&c.ID, &c.WorldID, &c.Name, &c.Gender, &c.Description, &c.Biography, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, narrative.NewError(narrative.KindNotFound, "character not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountWorlds reports the number of registered worlds for metrics.
func (r *Registry) CountWorlds(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM worlds`).Scan(&count)
	return count, err
}

func isUniqueViolation(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		return pqErr.Code == uniqueViolation
	}
	return false
}
