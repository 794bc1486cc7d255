package scraper

import (
	"context"
	"errors"
	"log/slog"

	"guildsync/internal/infra/fetcher"
	"guildsync/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

// GalleryFetcher retrieves Buildin share pages for gallery extraction.
// The underlying PageFetcher already carries the page-scrape circuit
// breaker; this wrapper adds retry with backoff around it so a transient
// network blip during a tick does not skip the page for a whole interval.
type GalleryFetcher struct {
	fetcher     *fetcher.PageFetcher
	retryConfig retry.Config
}

// NewGalleryFetcher creates a GalleryFetcher on top of the given PageFetcher.
func NewGalleryFetcher(pf *fetcher.PageFetcher) *GalleryFetcher {
	return &GalleryFetcher{
		fetcher:     pf,
		retryConfig: retry.PageScrapeConfig(),
	}
}

// Fetch retrieves and parses a gallery page.
func (g *GalleryFetcher) Fetch(ctx context.Context, pageURL string) (*fetcher.Page, error) {
	var page *fetcher.Page

	retryErr := retry.WithBackoff(ctx, g.retryConfig, func() error {
		p, err := g.fetcher.FetchGalleryPage(ctx, pageURL)
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("page scrape circuit breaker open, request rejected",
					slog.String("service", "page-scrape"),
					slog.String("url", pageURL))
			}
			return err
		}
		page = p
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return page, nil
}
