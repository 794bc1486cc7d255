package repository

import (
	"context"

	"guildsync/internal/domain/entity"
)

// GuildRepository loads and persists guild settings. The worker mutates only
// the sync bookkeeping fields (LastCheckedAt, PublishedIDs, BackfillDone)
// and saves once per guild per sync pass.
type GuildRepository interface {
	Get(ctx context.Context, guildID string) (*entity.GuildSettings, error)
	ListWithRSSFeeds(ctx context.Context) ([]*entity.GuildSettings, error)
	ListWithGalleryFeeds(ctx context.Context) ([]*entity.GuildSettings, error)
	Save(ctx context.Context, guild *entity.GuildSettings) error
}
