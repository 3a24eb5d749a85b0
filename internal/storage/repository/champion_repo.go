package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ramonehamilton/LoL-Companion/internal/storage/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ChampionRepository provides access to cached champions.
type ChampionRepository interface {
	// ReplaceAll swaps the whole catalog. Run it on a transaction so readers
	// never see a half-filled table.
	ReplaceAll(ctx context.Context, champions []*models.Champion) error

	// GetByID retrieves a champion by its numeric key.
	GetByID(ctx context.Context, id int64) (*models.Champion, error)

	// List returns every cached champion ordered by name.
	List(ctx context.Context) ([]*models.Champion, error)

	// Count returns the number of cached champions.
	Count(ctx context.Context) (int, error)
}

type championRepository struct {
	db Querier
}

// NewChampionRepository creates a new champion repository.
func NewChampionRepository(db Querier) ChampionRepository {
	return &championRepository{db: db}
}

func (r *championRepository) ReplaceAll(ctx context.Context, champions []*models.Champion) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM champions"); err != nil {
		return fmt.Errorf("failed to clear champions: %w", err)
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO champions (id, alias, name, title, tags, version, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, c := range champions {
		tags, err := json.Marshal(c.Tags)
		if err != nil {
			return fmt.Errorf("failed to marshal tags for %s: %w", c.Alias, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, c.Alias, c.Name, c.Title, string(tags), c.Version, c.UpdatedAt); err != nil {
			return fmt.Errorf("failed to insert champion %d: %w", c.ID, err)
		}
	}
	return nil
}

func (r *championRepository) GetByID(ctx context.Context, id int64) (*models.Champion, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, alias, name, title, tags, version, updated_at
		FROM champions WHERE id = ?
	`, id)

	c, err := scanChampion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get champion %d: %w", id, err)
	}
	return c, nil
}

func (r *championRepository) List(ctx context.Context) ([]*models.Champion, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, alias, name, title, tags, version, updated_at
		FROM champions ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query champions: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var champions []*models.Champion
	for rows.Next() {
		c, err := scanChampion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan champion: %w", err)
		}
		champions = append(champions, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating champions: %w", err)
	}
	return champions, nil
}

func (r *championRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM champions").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count champions: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanChampion(s scanner) (*models.Champion, error) {
	var (
		c    models.Champion
		tags string
	)
	if err := s.Scan(&c.ID, &c.Alias, &c.Name, &c.Title, &tags, &c.Version, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &c.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &c, nil
}
