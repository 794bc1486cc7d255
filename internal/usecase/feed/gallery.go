package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"guildsync/internal/domain/entity"
	"guildsync/internal/observability/logging"
	"guildsync/internal/observability/metrics"
	"guildsync/internal/usecase/extract"
	"guildsync/internal/usecase/publish"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// syncGuildGalleries processes every gallery feed of one guild and persists
// the guild once if any feed's bookkeeping changed.
func (s *Service) syncGuildGalleries(ctx context.Context, guild *entity.GuildSettings, stats *SyncStats) {
	changed := false
	for i := range guild.GalleryFeeds {
		f := &guild.GalleryFeeds[i]
		logger := logging.WithFeed(slog.Default(), guild.GuildID, f.PageID)
		if s.processGalleryFeed(ctx, logger, f, stats) {
			changed = true
		}
	}
	if changed {
		s.saveGuild(ctx, guild)
	}
}

// processGalleryFeed runs one feed through the state machine. It reports
// whether the feed's persisted fields were mutated.
func (s *Service) processGalleryFeed(ctx context.Context, logger *slog.Logger, f *entity.GalleryFeed, stats *SyncStats) bool {
	state := f.State()
	if state == entity.FeedStateDisabled {
		return false
	}
	if err := f.Validate(); err != nil {
		logger.Warn("gallery feed misconfigured, skipping", slog.Any("error", err))
		stats.FeedErrors++
		return false
	}

	now := s.now()
	// The interval gate applies only to the steady state; a pending
	// backfill runs on the first tick that sees it.
	if state == entity.FeedStateActive && !f.Due(now) {
		metrics.RecordFeedSkipped("gallery")
		stats.FeedsSkipped++
		return false
	}

	feedCtx, cancel := s.feedBudget(ctx)
	defer cancel()

	stats.FeedsChecked++
	start := s.now()

	candidates := s.extractCandidates(feedCtx, logger, f)

	var batch []entity.CandidatePost
	if state == entity.FeedStatePendingBackfill {
		batch = f.FilterUnseen(backfillBatch(candidates, f.BackfillCount))
	} else {
		batch = f.FilterUnseen(candidates)
		if len(batch) > maxIncrementalPosts {
			batch = batch[:maxIncrementalPosts]
		}
	}

	sent, err := s.publishGalleryBatch(feedCtx, f, batch, now)
	for _, id := range sent {
		f.RecordPublished(id)
	}
	stats.PostsPublished += len(sent)
	metrics.RecordPostsPublished("gallery", len(sent))
	metrics.UpdateLedgerSize(f.PageID, len(f.PublishedIDs))

	if state == entity.FeedStatePendingBackfill {
		// Unconditional, even when publishes failed: a feed must not be
		// stuck re-running its backfill forever.
		f.MarkBackfillDone()
	}
	f.Touch(now)

	result := "success"
	if err != nil {
		result = "failure"
		stats.FeedErrors++
		if !errors.Is(err, publish.ErrChannelUnavailable) {
			logger.Warn("gallery feed publish failed",
				slog.Int("sent", len(sent)),
				slog.Any("error", err))
		}
	}
	metrics.RecordFeedCheck("gallery", result, s.now().Sub(start))

	logger.Info("gallery feed checked",
		slog.String("state", string(state)),
		slog.Int("candidates", len(candidates)),
		slog.Int("published", len(sent)),
		slog.String("result", result))
	return true
}

// extractCandidates fetches the gallery page and runs the extraction
// cascade. It never fails: a fetch error degrades to the single-post
// fallback via a nil document.
func (s *Service) extractCandidates(ctx context.Context, logger *slog.Logger, f *entity.GalleryFeed) []entity.CandidatePost {
	pageID := entity.ExtractPageID(f.PageID)
	shareURL := entity.CanonicalShareURL(pageID)
	pageURL := f.PageURL
	if pageURL == "" {
		pageURL = shareURL
	}

	pctx := extract.PageContext{
		PageID:    pageID,
		Fragment:  f.GalleryFragment,
		ShareURL:  shareURL,
		PageTitle: f.DisplayTitle(),
	}

	var doc *goquery.Document
	page, err := s.Gallery.Fetch(ctx, pageURL)
	if err != nil {
		logger.Warn("gallery fetch failed, degrading to fallback post",
			slog.String("url", pageURL),
			slog.Any("error", err))
	} else {
		doc = page.Doc
		pctx.BaseURL = page.URL
	}

	posts := s.Extractor.Extract(doc, pctx)
	if len(posts) > 0 {
		metrics.RecordExtractionStrategy(posts[0].SourceStrategy)
	}
	return posts
}

// publishGalleryBatch enriches the batch in parallel, renders it and sends
// it through the paced publisher. Returns the ids actually delivered.
func (s *Service) publishGalleryBatch(ctx context.Context, f *entity.GalleryFeed, batch []entity.CandidatePost, now time.Time) ([]string, error) {
	if len(batch) == 0 {
		return nil, nil
	}

	metas := s.enrichBatch(ctx, batch)

	posts := make([]publish.Post, len(batch))
	for i := range batch {
		posts[i] = publish.Post{
			ID:      batch[i].ID,
			Message: publish.RenderGalleryPost(metas[i], f.DisplayTitle(), now),
		}
	}
	return s.Publisher.PublishBatch(ctx, f.ChannelID, posts)
}

// enrichBatch resolves metadata for each candidate with bounded
// parallelism. Enrichment never errors, so the group always completes.
func (s *Service) enrichBatch(ctx context.Context, batch []entity.CandidatePost) []entity.PostMetadata {
	metas := make([]entity.PostMetadata, len(batch))

	var eg errgroup.Group
	eg.SetLimit(enrichParallelism)
	for i, c := range batch {
		i, c := i, c
		eg.Go(func() error {
			metas[i] = s.Enricher.Enrich(ctx, c)
			return nil
		})
	}
	_ = eg.Wait()
	return metas
}

// backfillBatch selects the one-time backfill publish list. Extraction
// returns newest-first; backfill publishes the oldest count posts in
// chronological order so the channel history reads top to bottom.
func backfillBatch(candidates []entity.CandidatePost, count int) []entity.CandidatePost {
	reversed := make([]entity.CandidatePost, len(candidates))
	for i, c := range candidates {
		reversed[len(candidates)-1-i] = c
	}
	if len(reversed) > count {
		reversed = reversed[:count]
	}
	return reversed
}
