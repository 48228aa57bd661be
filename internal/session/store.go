// Package session persists the per-player workflow state between
// requests. The engine itself is stateless; everything it needs to
// resume a session lives here under a (world, character) composite key.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"odyssai/internal/narrative"
)

// Store is the Redis-backed session state store. Saves are whole-value
// SETs, so concurrent writers resolve last-writer-wins with no torn
// writes mixing two updates' fields.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to Redis and verifies the connection.
func Open(addr, password string, db int, ttl time.Duration) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("Connected to Redis session store")
	return &Store{client: client, ttl: ttl}, nil
}

// New wraps an existing client, mainly for tests.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Ping reports store reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func key(worldID, characterID string) string {
	return fmt.Sprintf("session:%s:%s", worldID, characterID)
}

// Load returns the session for a (world, character) pair, or a
// NotFoundError when none exists or it has expired.
func (s *Store) Load(ctx context.Context, worldID, characterID string) (*narrative.Session, error) {
	data, err := s.client.Get(ctx, key(worldID, characterID)).Result()
	if err == redis.Nil {
		return nil, narrative.NewError(narrative.KindNotFound, "no session for world %s character %s", worldID, characterID)
	}
	if err != nil {
		return nil, fmt.Errorf("session load failed: %w", err)
	}

	var sess narrative.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("session decode failed: %w", err)
	}
	return &sess, nil
}

// Save overwrites the session atomically and refreshes its inactivity
// horizon.
func (s *Store) Save(ctx context.Context, sess *narrative.Session) error {
	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode failed: %w", err)
	}
	if err := s.client.Set(ctx, key(sess.WorldID, sess.CharacterID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session save failed: %w", err)
	}
	return nil
}
