package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"guildsync/internal/domain/entity"
	"guildsync/internal/infra/adapter/persistence/postgres"
)

var (
	testCreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	testUpdatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
)

func guildRow(guild *entity.GuildSettings, rssJSON, galleryJSON string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"guild_id", "name", "owner_id",
		"rss_feeds", "gallery_feeds",
		"created_at", "updated_at",
	}).AddRow(
		guild.GuildID, guild.Name, guild.OwnerID,
		[]byte(rssJSON), []byte(galleryJSON),
		guild.CreatedAt, guild.UpdatedAt,
	)
}

func testGuild() *entity.GuildSettings {
	return &entity.GuildSettings{
		GuildID:   "guild-1",
		Name:      "Test Guild",
		OwnerID:   "owner-1",
		CreatedAt: testCreatedAt,
		UpdatedAt: testUpdatedAt,
	}
}

func TestGuildRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := testGuild()
	want.RSSFeeds = []entity.RSSFeed{{
		FeedURL:         "https://example.com/feed",
		ChannelID:       "c1",
		IntervalMinutes: 30,
		Enabled:         true,
	}}

	rssJSON := `[{"feed_url":"https://example.com/feed","channel_id":"c1","interval_minutes":30,"last_checked_at":"0001-01-01T00:00:00Z","enabled":true}]`
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT guild_id`)).
		WithArgs("guild-1").
		WillReturnRows(guildRow(want, rssJSON, `[]`))

	repo := postgres.NewGuildRepo(db)
	got, err := repo.Get(context.Background(), "guild-1")
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	want.GalleryFeeds = []entity.GalleryFeed{}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGuildRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT guild_id`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{
			"guild_id", "name", "owner_id",
			"rss_feeds", "gallery_feeds",
			"created_at", "updated_at",
		}))

	repo := postgres.NewGuildRepo(db)
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}

func TestGuildRepo_ListWithGalleryFeeds(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	guild := testGuild()
	galleryJSON := `[{
		"page_id":"0199c5cf-2f57-7a8e-b7f1-aaaaaaaaaaaa",
		"page_url":"",
		"title":"Team Updates",
		"channel_id":"c1",
		"interval_minutes":5,
		"enabled":true,
		"last_checked_at":"2025-06-01T00:00:00Z",
		"published_ids":["p1","p2"],
		"backfill_count":3,
		"backfill_done":true,
		"created_at":"2025-01-01T00:00:00Z"
	}]`

	mock.ExpectQuery(regexp.QuoteMeta(`jsonb_array_length(gallery_feeds) > 0`)).
		WillReturnRows(guildRow(guild, `[]`, galleryJSON))

	repo := postgres.NewGuildRepo(db)
	got, err := repo.ListWithGalleryFeeds(context.Background())
	if err != nil {
		t.Fatalf("ListWithGalleryFeeds err=%v", err)
	}
	if len(got) != 1 {
		t.Fatalf("guilds=%d, want 1", len(got))
	}

	f := got[0].GalleryFeeds[0]
	if f.PageID != "0199c5cf-2f57-7a8e-b7f1-aaaaaaaaaaaa" || !f.BackfillDone {
		t.Errorf("feed = %+v, want decoded gallery config", f)
	}
	if len(f.PublishedIDs) != 2 || f.PublishedIDs[0] != "p1" {
		t.Errorf("ledger = %v, want [p1 p2]", f.PublishedIDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGuildRepo_ListWithRSSFeeds_Empty(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`jsonb_array_length(rss_feeds) > 0`)).
		WillReturnRows(sqlmock.NewRows([]string{
			"guild_id", "name", "owner_id",
			"rss_feeds", "gallery_feeds",
			"created_at", "updated_at",
		}))

	repo := postgres.NewGuildRepo(db)
	got, err := repo.ListWithRSSFeeds(context.Background())
	if err != nil {
		t.Fatalf("ListWithRSSFeeds err=%v", err)
	}
	if len(got) != 0 {
		t.Fatalf("guilds=%d, want 0", len(got))
	}
}

func TestGuildRepo_Save(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	guild := testGuild()
	guild.GalleryFeeds = []entity.GalleryFeed{{
		PageID:          "0199c5cf-2f57-7a8e-b7f1-aaaaaaaaaaaa",
		ChannelID:       "c1",
		IntervalMinutes: 5,
		Enabled:         true,
		PublishedIDs:    []string{"p1"},
		BackfillDone:    true,
	}}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE guild_settings SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "guild-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewGuildRepo(db)
	if err := repo.Save(context.Background(), guild); err != nil {
		t.Fatalf("Save err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGuildRepo_Save_UnknownGuild(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE guild_settings SET`)).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), "guild-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewGuildRepo(db)
	if err := repo.Save(context.Background(), testGuild()); !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("err=%v, want ErrNotFound", err)
	}
}
