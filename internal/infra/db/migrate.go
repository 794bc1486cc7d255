package db

import (
	"database/sql"
)

// MigrateUp creates the guild settings schema. The settings API writes the
// configuration columns; the sync worker rewrites the feed arrays with
// updated bookkeeping. Both share this one table, so migration is additive
// and idempotent.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS guild_settings (
    guild_id      TEXT PRIMARY KEY,
    name          TEXT NOT NULL DEFAULT '',
    owner_id      TEXT NOT NULL DEFAULT '',
    rss_feeds     JSONB NOT NULL DEFAULT '[]',
    gallery_feeds JSONB NOT NULL DEFAULT '[]',
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	// The sync passes list only guilds that actually have feeds of the
	// given kind; partial expression indexes keep those scans cheap once
	// the table grows past a handful of guilds.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_guild_settings_has_rss
    ON guild_settings ((jsonb_array_length(rss_feeds)))
    WHERE jsonb_array_length(rss_feeds) > 0`,
		`CREATE INDEX IF NOT EXISTS idx_guild_settings_has_gallery
    ON guild_settings ((jsonb_array_length(gallery_feeds)))
    WHERE jsonb_array_length(gallery_feeds) > 0`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown rolls back the schema. Use with caution: this deletes all
// guild configuration.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP INDEX IF EXISTS idx_guild_settings_has_rss`,
		`DROP INDEX IF EXISTS idx_guild_settings_has_gallery`,
		`DROP TABLE IF EXISTS guild_settings`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
