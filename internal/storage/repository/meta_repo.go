package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// MetaRepository stores small JSON-encoded values describing the cache, such
// as the patch version it was filled from.
type MetaRepository interface {
	// GetTyped reads key into target. Returns ErrNotFound when unset.
	GetTyped(ctx context.Context, key string, target any) error

	// Set stores value under key.
	Set(ctx context.Context, key string, value any) error

	// Delete removes a key.
	Delete(ctx context.Context, key string) error
}

type metaRepository struct {
	db Querier
}

// NewMetaRepository creates a new meta repository.
func NewMetaRepository(db Querier) MetaRepository {
	return &metaRepository{db: db}
}

func (r *metaRepository) GetTyped(ctx context.Context, key string, target any) error {
	var value string
	err := r.db.QueryRowContext(ctx, "SELECT value FROM catalog_meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get meta %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(value), target); err != nil {
		return fmt.Errorf("failed to unmarshal meta %s: %w", key, err)
	}
	return nil
}

func (r *metaRepository) Set(ctx context.Context, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal meta %s: %w", key, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO catalog_meta (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, string(encoded), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set meta %s: %w", key, err)
	}
	return nil
}

func (r *metaRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM catalog_meta WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete meta %s: %w", key, err)
	}
	return nil
}
