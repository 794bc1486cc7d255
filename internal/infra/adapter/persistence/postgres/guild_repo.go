// Package postgres implements the guild settings repository on PostgreSQL.
// Feed configuration is stored as JSONB arrays on one row per guild, which
// matches the write pattern: the worker reads whole guilds and saves whole
// guilds, once per sync pass.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"guildsync/internal/domain/entity"
	"guildsync/internal/observability/metrics"
	"guildsync/internal/repository"
	"guildsync/internal/resilience/circuitbreaker"
)

const guildColumns = `guild_id, name, owner_id, rss_feeds, gallery_feeds, created_at, updated_at`

type GuildRepo struct {
	db *circuitbreaker.DBCircuitBreaker
}

// NewGuildRepo creates a GuildRepository backed by the given database. All
// queries run through a shared DB circuit breaker so a dying database fails
// sync passes fast instead of piling up timeouts.
func NewGuildRepo(db *sql.DB) repository.GuildRepository {
	return &GuildRepo{db: circuitbreaker.NewDBCircuitBreaker(db)}
}

// scanGuild reads one guild row, decoding the JSONB feed arrays.
func scanGuild(rows *sql.Rows) (*entity.GuildSettings, error) {
	var guild entity.GuildSettings
	var rssJSON, galleryJSON []byte
	if err := rows.Scan(
		&guild.GuildID, &guild.Name, &guild.OwnerID,
		&rssJSON, &galleryJSON,
		&guild.CreatedAt, &guild.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if err := decodeFeeds(&guild, rssJSON, galleryJSON); err != nil {
		return nil, err
	}
	return &guild, nil
}

func decodeFeeds(guild *entity.GuildSettings, rssJSON, galleryJSON []byte) error {
	if len(rssJSON) > 0 {
		if err := json.Unmarshal(rssJSON, &guild.RSSFeeds); err != nil {
			return fmt.Errorf("unmarshal rss_feeds: %w", err)
		}
	}
	if len(galleryJSON) > 0 {
		if err := json.Unmarshal(galleryJSON, &guild.GalleryFeeds); err != nil {
			return fmt.Errorf("unmarshal gallery_feeds: %w", err)
		}
	}
	return nil
}

func (repo *GuildRepo) Get(ctx context.Context, guildID string) (*entity.GuildSettings, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("get_guild", time.Since(start)) }()

	const query = `
SELECT ` + guildColumns + `
FROM guild_settings
WHERE guild_id = $1
LIMIT 1`
	var guild entity.GuildSettings
	var rssJSON, galleryJSON []byte
	err := repo.db.QueryRowContext(ctx, query, guildID).Scan(
		&guild.GuildID, &guild.Name, &guild.OwnerID,
		&rssJSON, &galleryJSON,
		&guild.CreatedAt, &guild.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	if err := decodeFeeds(&guild, rssJSON, galleryJSON); err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return &guild, nil
}

func (repo *GuildRepo) ListWithRSSFeeds(ctx context.Context) ([]*entity.GuildSettings, error) {
	const query = `
SELECT ` + guildColumns + `
FROM guild_settings
WHERE jsonb_array_length(rss_feeds) > 0
ORDER BY guild_id ASC`
	return repo.list(ctx, "list_rss_guilds", query)
}

func (repo *GuildRepo) ListWithGalleryFeeds(ctx context.Context) ([]*entity.GuildSettings, error) {
	const query = `
SELECT ` + guildColumns + `
FROM guild_settings
WHERE jsonb_array_length(gallery_feeds) > 0
ORDER BY guild_id ASC`
	return repo.list(ctx, "list_gallery_guilds", query)
}

func (repo *GuildRepo) list(ctx context.Context, operation, query string) ([]*entity.GuildSettings, error) {
	start := time.Now()
	defer func() { metrics.RecordDBQuery(operation, time.Since(start)) }()

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}
	defer func() { _ = rows.Close() }()

	guilds := make([]*entity.GuildSettings, 0, 16)
	for rows.Next() {
		guild, err := scanGuild(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", operation, err)
		}
		guilds = append(guilds, guild)
	}
	return guilds, rows.Err()
}

// Save writes back the feed arrays. The settings API owns the remaining
// columns, so the worker touches nothing else besides updated_at.
func (repo *GuildRepo) Save(ctx context.Context, guild *entity.GuildSettings) error {
	start := time.Now()
	defer func() { metrics.RecordDBQuery("save_guild", time.Since(start)) }()

	rssJSON, err := json.Marshal(guild.RSSFeeds)
	if err != nil {
		return fmt.Errorf("Save: marshal rss_feeds: %w", err)
	}
	galleryJSON, err := json.Marshal(guild.GalleryFeeds)
	if err != nil {
		return fmt.Errorf("Save: marshal gallery_feeds: %w", err)
	}

	const query = `
UPDATE guild_settings SET
       rss_feeds     = $1,
       gallery_feeds = $2,
       updated_at    = now()
WHERE guild_id = $3`
	res, err := repo.db.ExecContext(ctx, query, rssJSON, galleryJSON, guild.GuildID)
	if err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Save: %w", entity.ErrNotFound)
	}
	return nil
}
