// Package entity defines the core domain entities and validation logic for the application.
// It contains the guild settings aggregate with its configured content feeds, along with
// their validation rules and domain-specific errors.
package entity

import (
	"fmt"
	"time"
)

// Defaults and bounds for feed configuration. The settings API enforces the
// same ranges on write; the worker re-validates on read because the two
// processes share the store.
const (
	DefaultRSSIntervalMinutes     = 30
	DefaultGalleryIntervalMinutes = 5
	MinGalleryIntervalMinutes     = 1
	MaxGalleryIntervalMinutes     = 60
	MaxBackfillCount              = 20

	// PublishedIDsCap bounds the per-feed dedup ledger for scraped feeds.
	// Oldest entries are evicted first once the cap is reached.
	PublishedIDsCap = 200
)

// GuildSettings is the per-guild configuration aggregate. The settings API is
// the sole writer of everything except the sync bookkeeping fields
// (LastCheckedAt, PublishedIDs, BackfillDone), which the worker owns.
type GuildSettings struct {
	GuildID      string
	Name         string
	OwnerID      string
	RSSFeeds     []RSSFeed
	GalleryFeeds []GalleryFeed
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasFeeds reports whether any feed of either kind is configured.
func (g *GuildSettings) HasFeeds() bool {
	return len(g.RSSFeeds) > 0 || len(g.GalleryFeeds) > 0
}

// RSSFeed is a structured-feed subscription. Dedup relies on item publication
// timestamps compared against LastCheckedAt; no id ledger is kept, since a
// ledger would grow without bound for feeds that have reliable timestamps.
type RSSFeed struct {
	FeedURL         string    `json:"feed_url"`
	ChannelID       string    `json:"channel_id"`
	IntervalMinutes int       `json:"interval_minutes"`
	LastCheckedAt   time.Time `json:"last_checked_at"`
	Enabled         bool      `json:"enabled"`
}

// Validate checks the feed configuration fields.
func (f *RSSFeed) Validate() error {
	if f.FeedURL == "" {
		return &ValidationError{Field: "feed_url", Message: "must not be empty"}
	}
	if f.ChannelID == "" {
		return &ValidationError{Field: "channel_id", Message: "must not be empty"}
	}
	if f.IntervalMinutes < 1 {
		return &ValidationError{Field: "interval_minutes", Message: "must be at least 1"}
	}
	return nil
}

// Interval returns the configured check cadence as a duration.
func (f *RSSFeed) Interval() time.Duration {
	return time.Duration(f.IntervalMinutes) * time.Minute
}

// Due reports whether enough time has passed since the last check attempt.
func (f *RSSFeed) Due(now time.Time) bool {
	return now.Sub(f.LastCheckedAt) >= f.Interval()
}

// Touch stamps the last check attempt. LastCheckedAt only moves forward.
func (f *RSSFeed) Touch(now time.Time) {
	if now.After(f.LastCheckedAt) {
		f.LastCheckedAt = now
	}
}

// FeedState describes where a gallery feed sits in its lifecycle.
type FeedState string

const (
	// FeedStateDisabled means the feed is skipped unconditionally.
	FeedStateDisabled FeedState = "disabled"

	// FeedStatePendingBackfill means the feed is enabled but has not yet
	// published its one-time batch of historical posts.
	FeedStatePendingBackfill FeedState = "pending_backfill"

	// FeedStateActive is the steady-state incremental mode.
	FeedStateActive FeedState = "active"
)

// GalleryFeed is a scraped Buildin.ai gallery subscription. Scraped posts
// carry no reliable timestamps, so dedup uses an explicit id ledger
// (PublishedIDs) bounded to the most recent PublishedIDsCap entries.
type GalleryFeed struct {
	PageID          string    `json:"page_id"`
	PageURL         string    `json:"page_url"`
	GalleryFragment string    `json:"gallery_fragment,omitempty"`
	Title           string    `json:"title"`
	ChannelID       string    `json:"channel_id"`
	IntervalMinutes int       `json:"interval_minutes"`
	Enabled         bool      `json:"enabled"`
	LastCheckedAt   time.Time `json:"last_checked_at"`
	PublishedIDs    []string  `json:"published_ids"`
	BackfillCount   int       `json:"backfill_count"`
	BackfillDone    bool      `json:"backfill_done"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the feed configuration fields against the ranges the
// settings API promises.
func (f *GalleryFeed) Validate() error {
	if ExtractPageID(f.PageID) == "" {
		return &ValidationError{Field: "page_id", Message: fmt.Sprintf("not a Buildin page id: %q", f.PageID)}
	}
	if f.ChannelID == "" {
		return &ValidationError{Field: "channel_id", Message: "must not be empty"}
	}
	if f.IntervalMinutes < MinGalleryIntervalMinutes || f.IntervalMinutes > MaxGalleryIntervalMinutes {
		return &ValidationError{
			Field:   "interval_minutes",
			Message: fmt.Sprintf("must be between %d and %d", MinGalleryIntervalMinutes, MaxGalleryIntervalMinutes),
		}
	}
	if f.BackfillCount < 0 || f.BackfillCount > MaxBackfillCount {
		return &ValidationError{
			Field:   "backfill_count",
			Message: fmt.Sprintf("must be between 0 and %d", MaxBackfillCount),
		}
	}
	return nil
}

// DisplayTitle returns the configured title, falling back to the page id.
func (f *GalleryFeed) DisplayTitle() string {
	if f.Title != "" {
		return f.Title
	}
	return f.PageID
}

// State derives the lifecycle state from the configuration flags.
// A zero BackfillCount skips the backfill phase entirely.
func (f *GalleryFeed) State() FeedState {
	switch {
	case !f.Enabled:
		return FeedStateDisabled
	case !f.BackfillDone && f.BackfillCount > 0:
		return FeedStatePendingBackfill
	default:
		return FeedStateActive
	}
}

// Interval returns the configured check cadence as a duration.
func (f *GalleryFeed) Interval() time.Duration {
	return time.Duration(f.IntervalMinutes) * time.Minute
}

// Due reports whether enough time has passed since the last check attempt.
func (f *GalleryFeed) Due(now time.Time) bool {
	return now.Sub(f.LastCheckedAt) >= f.Interval()
}

// Touch stamps the last check attempt. LastCheckedAt only moves forward.
func (f *GalleryFeed) Touch(now time.Time) {
	if now.After(f.LastCheckedAt) {
		f.LastCheckedAt = now
	}
}

// HasPublished reports whether a post id is already in the dedup ledger.
func (f *GalleryFeed) HasPublished(id string) bool {
	for _, published := range f.PublishedIDs {
		if published == id {
			return true
		}
	}
	return false
}

// RecordPublished appends a post id to the ledger and evicts the oldest
// entries beyond PublishedIDsCap. Insertion order is preserved.
func (f *GalleryFeed) RecordPublished(id string) {
	f.PublishedIDs = append(f.PublishedIDs, id)
	if excess := len(f.PublishedIDs) - PublishedIDsCap; excess > 0 {
		f.PublishedIDs = f.PublishedIDs[excess:]
	}
}

// FilterUnseen returns the candidates whose ids are not in the ledger,
// preserving input order.
func (f *GalleryFeed) FilterUnseen(candidates []CandidatePost) []CandidatePost {
	unseen := make([]CandidatePost, 0, len(candidates))
	for _, c := range candidates {
		if !f.HasPublished(c.ID) {
			unseen = append(unseen, c)
		}
	}
	return unseen
}

// MarkBackfillDone flips the one-time backfill flag. The transition is
// unconditional: individual publish failures during backfill do not keep the
// feed stuck in the pending state.
func (f *GalleryFeed) MarkBackfillDone() {
	f.BackfillDone = true
}
