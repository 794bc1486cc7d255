// Package feed orchestrates the sync passes: it walks every guild's
// configured feeds, decides which are due, runs the fetch → extract →
// enrich → publish pipeline, and persists the updated bookkeeping once per
// guild.
package feed

import (
	"context"
	"log/slog"
	"time"

	"guildsync/internal/domain/entity"
	"guildsync/internal/infra/fetcher"
	"guildsync/internal/infra/scraper"
	"guildsync/internal/observability/metrics"
	"guildsync/internal/observability/tracing"
	"guildsync/internal/repository"
	"guildsync/internal/usecase/extract"
	"guildsync/internal/usecase/publish"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// maxIncrementalPosts bounds one ACTIVE tick so a feed that suddenly
	// grows does not flood the channel; missed posts surface on later ticks.
	maxIncrementalPosts = 3

	// enrichParallelism bounds concurrent metadata fetches within one batch.
	enrichParallelism = 3

	// defaultFeedTimeout is the wall-clock budget for one feed's pipeline
	// so a pathological page cannot stall the whole pass.
	defaultFeedTimeout = 2 * time.Minute
)

// RSSSource fetches and parses an RSS/Atom feed.
type RSSSource interface {
	Fetch(ctx context.Context, feedURL string) (*scraper.Feed, error)
}

// GallerySource fetches a Buildin gallery share page.
type GallerySource interface {
	Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// PostExtractor turns a gallery page into candidate posts. A nil document
// yields the single-post fallback.
type PostExtractor interface {
	Extract(doc *goquery.Document, pctx extract.PageContext) []entity.CandidatePost
}

// MetadataEnricher resolves display metadata for a candidate post.
type MetadataEnricher interface {
	Enrich(ctx context.Context, post entity.CandidatePost) entity.PostMetadata
}

// BatchPublisher delivers a batch of rendered posts to a channel and
// reports which ids were actually sent.
type BatchPublisher interface {
	PublishBatch(ctx context.Context, channelID string, posts []publish.Post) ([]string, error)
}

// Service runs the feed sync passes.
type Service struct {
	Guilds      repository.GuildRepository
	RSS         RSSSource
	Gallery     GallerySource
	Extractor   PostExtractor
	Enricher    MetadataEnricher
	Publisher   BatchPublisher
	FeedTimeout time.Duration

	now func() time.Time
}

// NewService creates a feed sync Service.
func NewService(
	guilds repository.GuildRepository,
	rss RSSSource,
	gallery GallerySource,
	extractor PostExtractor,
	enricher MetadataEnricher,
	publisher BatchPublisher,
) *Service {
	return &Service{
		Guilds:      guilds,
		RSS:         rss,
		Gallery:     gallery,
		Extractor:   extractor,
		Enricher:    enricher,
		Publisher:   publisher,
		FeedTimeout: defaultFeedTimeout,
		now:         time.Now,
	}
}

// SyncStats summarizes one sync pass.
type SyncStats struct {
	Guilds         int
	FeedsChecked   int
	FeedsSkipped   int
	PostsPublished int
	FeedErrors     int
	Duration       time.Duration
}

// SyncRSS runs one RSS pass over all guilds with configured RSS feeds.
// Per-feed failures are absorbed; the returned error covers only the
// inability to list guilds at all.
func (s *Service) SyncRSS(ctx context.Context) (*SyncStats, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "sync.rss")
	defer span.End()

	start := s.now()
	stats := &SyncStats{}

	guilds, err := s.Guilds.ListWithRSSFeeds(ctx)
	if err != nil {
		return nil, err
	}
	stats.Guilds = len(guilds)
	metrics.UpdateGuildsTotal(len(guilds))

	for _, guild := range guilds {
		s.syncGuildRSS(ctx, guild, stats)
	}

	stats.Duration = s.now().Sub(start)
	span.SetAttributes(
		attribute.Int("guilds", stats.Guilds),
		attribute.Int("posts_published", stats.PostsPublished),
	)
	slog.Info("rss sync pass completed",
		slog.Int("guilds", stats.Guilds),
		slog.Int("feeds_checked", stats.FeedsChecked),
		slog.Int("feeds_skipped", stats.FeedsSkipped),
		slog.Int("posts_published", stats.PostsPublished),
		slog.Int("feed_errors", stats.FeedErrors),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// SyncGalleries runs one gallery pass over all guilds with configured
// gallery feeds.
func (s *Service) SyncGalleries(ctx context.Context) (*SyncStats, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "sync.galleries")
	defer span.End()

	start := s.now()
	stats := &SyncStats{}

	guilds, err := s.Guilds.ListWithGalleryFeeds(ctx)
	if err != nil {
		return nil, err
	}
	stats.Guilds = len(guilds)
	metrics.UpdateGuildsTotal(len(guilds))

	for _, guild := range guilds {
		s.syncGuildGalleries(ctx, guild, stats)
	}

	stats.Duration = s.now().Sub(start)
	span.SetAttributes(
		attribute.Int("guilds", stats.Guilds),
		attribute.Int("posts_published", stats.PostsPublished),
	)
	slog.Info("gallery sync pass completed",
		slog.Int("guilds", stats.Guilds),
		slog.Int("feeds_checked", stats.FeedsChecked),
		slog.Int("feeds_skipped", stats.FeedsSkipped),
		slog.Int("posts_published", stats.PostsPublished),
		slog.Int("feed_errors", stats.FeedErrors),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// saveGuild persists the mutated guild settings. Persistence failure is
// logged but never rolls back already-sent publishes: a duplicate message
// on a later tick beats silently dropping content.
func (s *Service) saveGuild(ctx context.Context, guild *entity.GuildSettings) {
	// Sends already happened; save even if the pass's context expired.
	saveCtx := context.WithoutCancel(ctx)
	if err := s.Guilds.Save(saveCtx, guild); err != nil {
		slog.Error("failed to persist guild settings after sync",
			slog.String("guild_id", guild.GuildID),
			slog.Any("error", err))
	}
}

// feedBudget derives the per-feed deadline from the pass context.
func (s *Service) feedBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.FeedTimeout
	if timeout <= 0 {
		timeout = defaultFeedTimeout
	}
	return context.WithTimeout(ctx, timeout)
}
