package champions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/ramonehamilton/LoL-Companion/internal/draft"
	"github.com/ramonehamilton/LoL-Companion/internal/storage"
	"github.com/ramonehamilton/LoL-Companion/internal/storage/models"
	"github.com/ramonehamilton/LoL-Companion/internal/storage/repository"
)

// ErrNotFound is returned for an unknown champion id.
var ErrNotFound = errors.New("champion not found")

// DefaultRefreshInterval bounds how stale the cache may get.
const DefaultRefreshInterval = 24 * time.Hour

const (
	metaVersion   = "version"
	metaFetchedAt = "fetched_at"
)

// Source supplies champion data.
type Source interface {
	LatestVersion(ctx context.Context) (string, error)
	Champions(ctx context.Context, version string) ([]Champion, error)
}

// Catalog is the SQLite-backed champion cache.
type Catalog struct {
	db              *storage.DB
	source          Source
	champions       repository.ChampionRepository
	meta            repository.MetaRepository
	clock           clockwork.Clock
	refreshInterval time.Duration
}

// NewCatalog creates a catalog over db. refreshInterval <= 0 uses the default.
func NewCatalog(db *storage.DB, source Source, clock clockwork.Clock, refreshInterval time.Duration) *Catalog {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if refreshInterval <= 0 {
		refreshInterval = DefaultRefreshInterval
	}
	return &Catalog{
		db:              db,
		source:          source,
		champions:       repository.NewChampionRepository(db.Conn()),
		meta:            repository.NewMetaRepository(db.Conn()),
		clock:           clock,
		refreshInterval: refreshInterval,
	}
}

// Refresh reloads the catalog when the patch changed or the cache is older
// than the refresh interval. It reports whether anything was fetched.
func (c *Catalog) Refresh(ctx context.Context) (bool, error) {
	latest, err := c.source.LatestVersion(ctx)
	if err != nil {
		return false, err
	}

	cached, fetchedAt := c.cacheState(ctx)
	count, err := c.champions.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 && cached == latest && c.clock.Since(fetchedAt) < c.refreshInterval {
		log.Debug().Str("version", cached).Msg("champion catalog is current")
		return false, nil
	}

	list, err := c.source.Champions(ctx, latest)
	if err != nil {
		return false, err
	}

	now := c.clock.Now().UTC()
	rows := make([]*models.Champion, 0, len(list))
	for _, ch := range list {
		rows = append(rows, &models.Champion{
			ID:        int64(ch.ID),
			Alias:     ch.Alias,
			Name:      ch.Name,
			Title:     ch.Title,
			Tags:      ch.Tags,
			Version:   latest,
			UpdatedAt: now,
		})
	}
	err = c.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := repository.NewChampionRepository(tx).ReplaceAll(ctx, rows); err != nil {
			return fmt.Errorf("failed to store champions: %w", err)
		}
		meta := repository.NewMetaRepository(tx)
		if err := meta.Set(ctx, metaVersion, latest); err != nil {
			return err
		}
		return meta.Set(ctx, metaFetchedAt, now)
	})
	if err != nil {
		return false, err
	}

	log.Info().Str("version", latest).Int("champions", len(rows)).Msg("champion catalog refreshed")
	return true, nil
}

func (c *Catalog) cacheState(ctx context.Context) (version string, fetchedAt time.Time) {
	if err := c.meta.GetTyped(ctx, metaVersion, &version); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to read catalog version")
	}
	if err := c.meta.GetTyped(ctx, metaFetchedAt, &fetchedAt); err != nil && !errors.Is(err, repository.ErrNotFound) {
		log.Warn().Err(err).Msg("failed to read catalog age")
	}
	return version, fetchedAt
}

// Version returns the cached patch version, or "" when empty.
func (c *Catalog) Version(ctx context.Context) string {
	v, _ := c.cacheState(ctx)
	return v
}

// Get returns one champion.
func (c *Catalog) Get(ctx context.Context, id draft.ChampionID) (*Champion, error) {
	row, err := c.champions.GetByID(ctx, int64(id))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ch := fromRow(row)
	return &ch, nil
}

// List returns all champions ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Champion, error) {
	rows, err := c.champions.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Champion, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// Run refreshes immediately and then on every refresh interval until ctx is
// done. Failures are logged; the previous cache stays in use.
func (c *Catalog) Run(ctx context.Context) error {
	ticker := c.clock.NewTicker(c.refreshInterval)
	defer ticker.Stop()

	for {
		if _, err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Msg("champion catalog refresh failed")
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
		}
	}
}

func fromRow(row *models.Champion) Champion {
	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}
	return Champion{
		ID:      draft.ChampionID(row.ID),
		Alias:   row.Alias,
		Name:    row.Name,
		Title:   row.Title,
		Tags:    tags,
		Version: row.Version,
	}
}
