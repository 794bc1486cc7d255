package entity

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestGalleryFeed_State(t *testing.T) {
	tests := []struct {
		name string
		feed GalleryFeed
		want FeedState
	}{
		{
			name: "disabled feed",
			feed: GalleryFeed{Enabled: false, BackfillCount: 5},
			want: FeedStateDisabled,
		},
		{
			name: "enabled with pending backfill",
			feed: GalleryFeed{Enabled: true, BackfillCount: 5, BackfillDone: false},
			want: FeedStatePendingBackfill,
		},
		{
			name: "enabled with completed backfill",
			feed: GalleryFeed{Enabled: true, BackfillCount: 5, BackfillDone: true},
			want: FeedStateActive,
		},
		{
			name: "zero backfill count skips backfill phase",
			feed: GalleryFeed{Enabled: true, BackfillCount: 0, BackfillDone: false},
			want: FeedStateActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.feed.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGalleryFeed_Due(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	feed := GalleryFeed{IntervalMinutes: 5, LastCheckedAt: now.Add(-3 * time.Minute)}
	if feed.Due(now) {
		t.Error("Due() = true for a feed checked 3 minutes ago with a 5 minute interval")
	}

	feed.LastCheckedAt = now.Add(-5 * time.Minute)
	if !feed.Due(now) {
		t.Error("Due() = false for a feed checked exactly one interval ago")
	}

	// Never-checked feeds are always due.
	feed.LastCheckedAt = time.Time{}
	if !feed.Due(now) {
		t.Error("Due() = false for a never-checked feed")
	}
}

func TestGalleryFeed_Touch_OnlyMovesForward(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	feed := GalleryFeed{LastCheckedAt: now}
	feed.Touch(now.Add(-time.Hour))
	if !feed.LastCheckedAt.Equal(now) {
		t.Errorf("Touch() moved LastCheckedAt backwards to %v", feed.LastCheckedAt)
	}

	feed.Touch(now.Add(time.Minute))
	if !feed.LastCheckedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("Touch() did not advance LastCheckedAt, got %v", feed.LastCheckedAt)
	}
}

func TestGalleryFeed_RecordPublished_EvictsOldestFirst(t *testing.T) {
	feed := GalleryFeed{}
	for i := 0; i < PublishedIDsCap+10; i++ {
		feed.RecordPublished(fmt.Sprintf("post-%d", i))
	}

	if len(feed.PublishedIDs) != PublishedIDsCap {
		t.Fatalf("ledger length = %d, want %d", len(feed.PublishedIDs), PublishedIDsCap)
	}
	if feed.PublishedIDs[0] != "post-10" {
		t.Errorf("oldest surviving entry = %q, want %q", feed.PublishedIDs[0], "post-10")
	}
	if last := feed.PublishedIDs[len(feed.PublishedIDs)-1]; last != fmt.Sprintf("post-%d", PublishedIDsCap+9) {
		t.Errorf("newest entry = %q, want %q", last, fmt.Sprintf("post-%d", PublishedIDsCap+9))
	}
}

func TestGalleryFeed_FilterUnseen(t *testing.T) {
	feed := GalleryFeed{PublishedIDs: []string{"a", "c"}}
	candidates := []CandidatePost{
		{ID: "a", Title: "first"},
		{ID: "b", Title: "second"},
		{ID: "c", Title: "third"},
		{ID: "d", Title: "fourth"},
	}

	got := feed.FilterUnseen(candidates)
	want := []CandidatePost{
		{ID: "b", Title: "second"},
		{ID: "d", Title: "fourth"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FilterUnseen() mismatch (-want +got):\n%s", diff)
	}
}

func TestGalleryFeed_Validate(t *testing.T) {
	valid := GalleryFeed{
		PageID:          "123e4567-e89b-12d3-a456-426614174000",
		ChannelID:       "111222333",
		IntervalMinutes: 5,
		BackfillCount:   3,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v for a valid feed", err)
	}

	tests := []struct {
		name   string
		mutate func(*GalleryFeed)
	}{
		{"bad page id", func(f *GalleryFeed) { f.PageID = "not-a-uuid" }},
		{"empty channel", func(f *GalleryFeed) { f.ChannelID = "" }},
		{"interval too small", func(f *GalleryFeed) { f.IntervalMinutes = 0 }},
		{"interval too large", func(f *GalleryFeed) { f.IntervalMinutes = 61 }},
		{"backfill negative", func(f *GalleryFeed) { f.BackfillCount = -1 }},
		{"backfill too large", func(f *GalleryFeed) { f.BackfillCount = 21 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := valid
			tt.mutate(&feed)
			if err := feed.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestRSSFeed_Validate(t *testing.T) {
	valid := RSSFeed{FeedURL: "https://example.com/feed.xml", ChannelID: "1", IntervalMinutes: 30}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() error = %v for a valid feed", err)
	}

	invalid := []RSSFeed{
		{ChannelID: "1", IntervalMinutes: 30},
		{FeedURL: "https://example.com/feed.xml", IntervalMinutes: 30},
		{FeedURL: "https://example.com/feed.xml", ChannelID: "1", IntervalMinutes: 0},
	}
	for i, feed := range invalid {
		if err := feed.Validate(); err == nil {
			t.Errorf("Validate() = nil for invalid feed %d", i)
		}
	}
}
