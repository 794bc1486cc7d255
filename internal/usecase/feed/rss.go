package feed

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"guildsync/internal/domain/entity"
	"guildsync/internal/infra/scraper"
	"guildsync/internal/observability/logging"
	"guildsync/internal/observability/metrics"
	"guildsync/internal/usecase/publish"
)

// syncGuildRSS processes every RSS feed of one guild and persists the guild
// once if any feed's bookkeeping changed.
func (s *Service) syncGuildRSS(ctx context.Context, guild *entity.GuildSettings, stats *SyncStats) {
	changed := false
	for i := range guild.RSSFeeds {
		f := &guild.RSSFeeds[i]
		logger := logging.WithFeed(slog.Default(), guild.GuildID, f.FeedURL)
		if s.processRSSFeed(ctx, logger, f, stats) {
			changed = true
		}
	}
	if changed {
		s.saveGuild(ctx, guild)
	}
}

// processRSSFeed checks one RSS feed if it is due. RSS dedup is the
// publication-timestamp cutoff against LastCheckedAt; there is no id ledger
// to maintain. Reports whether the feed's persisted fields were mutated.
func (s *Service) processRSSFeed(ctx context.Context, logger *slog.Logger, f *entity.RSSFeed, stats *SyncStats) bool {
	if !f.Enabled {
		return false
	}
	if err := f.Validate(); err != nil {
		logger.Warn("rss feed misconfigured, skipping", slog.Any("error", err))
		stats.FeedErrors++
		return false
	}

	now := s.now()
	if !f.Due(now) {
		metrics.RecordFeedSkipped("rss")
		stats.FeedsSkipped++
		return false
	}

	feedCtx, cancel := s.feedBudget(ctx)
	defer cancel()

	stats.FeedsChecked++
	start := s.now()

	// The cutoff is the previous check; the stamp moves on every attempt,
	// including fetch failures, so a broken feed is not retried every tick.
	cutoff := f.LastCheckedAt
	f.Touch(now)

	parsed, err := s.RSS.Fetch(feedCtx, f.FeedURL)
	if err != nil {
		logger.Warn("rss fetch failed", slog.Any("error", err))
		stats.FeedErrors++
		metrics.RecordFeedCheck("rss", "failure", s.now().Sub(start))
		return true
	}

	items := freshItems(parsed.Items, cutoff)
	sent, err := s.publishRSSBatch(feedCtx, f, parsed.Title, items)
	stats.PostsPublished += len(sent)
	metrics.RecordPostsPublished("rss", len(sent))

	result := "success"
	if err != nil {
		result = "failure"
		stats.FeedErrors++
		if !errors.Is(err, publish.ErrChannelUnavailable) {
			logger.Warn("rss feed publish failed",
				slog.Int("sent", len(sent)),
				slog.Any("error", err))
		}
	}
	metrics.RecordFeedCheck("rss", result, s.now().Sub(start))

	logger.Info("rss feed checked",
		slog.Int("items", len(parsed.Items)),
		slog.Int("fresh", len(items)),
		slog.Int("published", len(sent)),
		slog.String("result", result))
	return true
}

// freshItems filters entries published after the cutoff and keeps the
// newest few. Items at or before the cutoff were covered by earlier ticks.
// Entries with no publication date (zero PublishedAt) are never fresh: with
// only a timestamp cutoff to dedup by, publishing them once would mean
// publishing them on every check.
func freshItems(items []scraper.FeedItem, cutoff time.Time) []scraper.FeedItem {
	fresh := make([]scraper.FeedItem, 0, len(items))
	for _, it := range items {
		if !it.PublishedAt.IsZero() && it.PublishedAt.After(cutoff) {
			fresh = append(fresh, it)
		}
	}
	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].PublishedAt.After(fresh[j].PublishedAt)
	})
	if len(fresh) > maxIncrementalPosts {
		fresh = fresh[:maxIncrementalPosts]
	}
	return fresh
}

func (s *Service) publishRSSBatch(ctx context.Context, f *entity.RSSFeed, feedTitle string, items []scraper.FeedItem) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	posts := make([]publish.Post, len(items))
	for i, it := range items {
		md := entity.PostMetadata{
			Title:       it.Title,
			Description: it.Description,
			ImageURL:    it.ImageURL,
			URL:         it.URL,
		}
		posts[i] = publish.Post{ID: it.ID, Message: publish.RenderRSSItem(md, feedTitle, it.PublishedAt)}
	}
	return s.Publisher.PublishBatch(ctx, f.ChannelID, posts)
}
