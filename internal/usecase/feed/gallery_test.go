package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"guildsync/internal/domain/entity"
	"guildsync/internal/usecase/extract"
)

func galleryGuild(f entity.GalleryFeed) *entity.GuildSettings {
	return &entity.GuildSettings{GuildID: "g1", GalleryFeeds: []entity.GalleryFeed{f}}
}

func galleryDeps(t *testing.T, posts ...entity.CandidatePost) *testDeps {
	t.Helper()
	return &testDeps{
		rss:       &fakeRSS{},
		gallery:   &fakeGallery{page: galleryPage(t)},
		extractor: &fakeExtractor{posts: posts},
		publisher: &fakePublisher{},
	}
}

func TestGallery_BackfillPublishesOldestFirst(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillCount:   2,
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1", "n2", "n3", "n4")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}

	stats, err := newTestService(deps).SyncGalleries(context.Background())
	if err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	// Extraction is newest-first; the two oldest go out in chronological order.
	if got := deps.publisher.publishedIDs(); len(got) != 2 || got[0] != "n4" || got[1] != "n3" {
		t.Errorf("published = %v, want [n4 n3]", got)
	}

	f := &guild.GalleryFeeds[0]
	if !f.BackfillDone {
		t.Error("BackfillDone = false, want true after backfill tick")
	}
	if !f.HasPublished("n4") || !f.HasPublished("n3") {
		t.Errorf("ledger = %v, want n4 and n3 recorded", f.PublishedIDs)
	}
	if f.HasPublished("n1") {
		t.Error("ledger contains n1, which was never published")
	}
	if !f.LastCheckedAt.Equal(testNow) {
		t.Errorf("LastCheckedAt = %v, want stamped to now", f.LastCheckedAt)
	}
	if len(deps.repo.saved) != 1 {
		t.Errorf("saves = %d, want one batched save per guild", len(deps.repo.saved))
	}
	if stats.PostsPublished != 2 {
		t.Errorf("PostsPublished = %d, want 2", stats.PostsPublished)
	}
}

func TestGallery_BackfillDoneEvenWhenPublishFails(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillCount:   3,
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1", "n2")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}
	deps.publisher.err = errors.New("discord down")

	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	f := &guild.GalleryFeeds[0]
	if !f.BackfillDone {
		t.Error("BackfillDone = false, want true regardless of publish failures")
	}
	if len(f.PublishedIDs) != 0 {
		t.Errorf("ledger = %v, want empty (nothing was sent)", f.PublishedIDs)
	}
	if !f.LastCheckedAt.Equal(testNow) {
		t.Errorf("LastCheckedAt = %v, want stamped even on failure", f.LastCheckedAt)
	}
}

func TestGallery_ZeroBackfillGoesStraightToActive(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillCount:   0,
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1", "n2", "n3", "n4", "n5")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}

	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	// ACTIVE caps at the newest three, in extraction order.
	if got := deps.publisher.publishedIDs(); len(got) != 3 || got[0] != "n1" || got[2] != "n3" {
		t.Errorf("published = %v, want [n1 n2 n3]", got)
	}
}

func TestGallery_NotDueIsNoOp(t *testing.T) {
	lastChecked := testNow.Add(-3 * time.Minute)
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillDone:    true,
		LastCheckedAt:   lastChecked,
	})

	deps := galleryDeps(t)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}

	stats, err := newTestService(deps).SyncGalleries(context.Background())
	if err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	if deps.gallery.calls != 0 {
		t.Errorf("gallery fetches = %d, want 0 for a feed that is not due", deps.gallery.calls)
	}
	if !guild.GalleryFeeds[0].LastCheckedAt.Equal(lastChecked) {
		t.Error("LastCheckedAt changed on a skipped tick")
	}
	if len(deps.repo.saved) != 0 {
		t.Errorf("saves = %d, want 0 when nothing changed", len(deps.repo.saved))
	}
	if stats.FeedsSkipped != 1 {
		t.Errorf("FeedsSkipped = %d, want 1", stats.FeedsSkipped)
	}
}

func TestGallery_LedgerPreventsRepublish(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillDone:    true,
		PublishedIDs:    []string{"n1", "n2"},
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1", "n2", "n3")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}

	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	if got := deps.publisher.publishedIDs(); len(got) != 1 || got[0] != "n3" {
		t.Errorf("published = %v, want only the unseen [n3]", got)
	}
}

func TestGallery_ChannelUnavailableSkipsWithoutLedgerUpdate(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "gone",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillDone:    true,
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}
	deps.publisher.gone = true

	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	f := &guild.GalleryFeeds[0]
	if len(f.PublishedIDs) != 0 {
		t.Errorf("ledger = %v, want empty when nothing was sent", f.PublishedIDs)
	}
	// The attempt still counts: the stamp moves and gets persisted.
	if !f.LastCheckedAt.Equal(testNow) {
		t.Errorf("LastCheckedAt = %v, want stamped", f.LastCheckedAt)
	}
	if len(deps.repo.saved) != 1 {
		t.Errorf("saves = %d, want 1", len(deps.repo.saved))
	}
}

func TestGallery_FetchErrorPublishesFallbackPost(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		Title:           "Team Updates",
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillDone:    true,
	})

	deps := &testDeps{
		repo:      &fakeRepo{guilds: []*entity.GuildSettings{guild}},
		rss:       &fakeRSS{},
		gallery:   &fakeGallery{err: errors.New("connection timed out")},
		extractor: &fakeExtractor{}, // degrades to fallback when no posts configured
		publisher: &fakePublisher{},
	}

	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}

	if got := deps.publisher.publishedIDs(); len(got) != 1 || got[0] != testPageID {
		t.Errorf("published = %v, want the fallback post keyed by page id", got)
	}

	// Second pass: the fallback id is now in the ledger, nothing re-publishes.
	guild.GalleryFeeds[0].LastCheckedAt = testNow.Add(-10 * time.Minute)
	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("second SyncGalleries() error = %v", err)
	}
	if got := deps.publisher.publishedIDs(); len(got) != 1 {
		t.Errorf("published after second pass = %v, want still one send", got)
	}
}

func TestGallery_FetchErrorWithRealExtractor(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		Title:           "Team Updates",
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		BackfillDone:    true,
	})

	deps := &testDeps{
		repo:      &fakeRepo{guilds: []*entity.GuildSettings{guild}},
		rss:       &fakeRSS{},
		gallery:   &fakeGallery{err: errors.New("boom")},
		publisher: &fakePublisher{},
	}
	s := NewService(deps.repo, deps.rss, deps.gallery, extract.NewExtractor(), fakeEnricher{}, deps.publisher)
	s.now = func() time.Time { return testNow }

	if _, err := s.SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}
	if got := deps.publisher.publishedIDs(); len(got) != 1 || got[0] != testPageID {
		t.Errorf("published = %v, want the real extractor's fallback post", got)
	}
}

func TestGallery_DisabledFeedSkipped(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          testPageID,
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         false,
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}

	if _, err := newTestService(deps).SyncGalleries(context.Background()); err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}
	if deps.gallery.calls != 0 || len(deps.publisher.publishedIDs()) != 0 {
		t.Error("disabled feed was processed")
	}
	if len(deps.repo.saved) != 0 {
		t.Errorf("saves = %d, want 0", len(deps.repo.saved))
	}
}

func TestGallery_MisconfiguredFeedSkipped(t *testing.T) {
	guild := galleryGuild(entity.GalleryFeed{
		PageID:          "not-a-page-id",
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
	})

	deps := galleryDeps(t, candidatesNewestFirst("n1")...)
	deps.repo = &fakeRepo{guilds: []*entity.GuildSettings{guild}}

	stats, err := newTestService(deps).SyncGalleries(context.Background())
	if err != nil {
		t.Fatalf("SyncGalleries() error = %v", err)
	}
	if deps.gallery.calls != 0 {
		t.Error("misconfigured feed was fetched")
	}
	if stats.FeedErrors != 1 {
		t.Errorf("FeedErrors = %d, want 1", stats.FeedErrors)
	}
}
