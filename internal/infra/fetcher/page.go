package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"guildsync/internal/resilience/circuitbreaker"
	"guildsync/internal/resilience/retry"

	"github.com/PuerkitoBio/goquery"
)

// Page is one fetched HTML page. HTML holds the raw body for consumers that
// want to re-parse it (e.g. readability extraction); Doc is the parsed
// document; URL is the final URL after redirects.
type Page struct {
	Doc  *goquery.Document
	HTML []byte
	URL  *url.URL
}

// PageFetcher fetches and parses HTML pages with SSRF prevention, size
// limiting and circuit breaker protection. Gallery page fetches and post
// metadata fetches share one breaker: they hit the same site, so a broken
// site trips both.
//
// Thread safety: PageFetcher is safe for concurrent use.
type PageFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	config         PageFetchConfig
}

// NewPageFetcher creates a new PageFetcher with the given configuration.
func NewPageFetcher(config PageFetchConfig) *PageFetcher {
	f := &PageFetcher{
		circuitBreaker: circuitbreaker.New(circuitbreaker.PageScrapeConfig()),
		config:         config,
	}

	// Each redirect target is validated for SSRF before being followed.
	f.client = &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= f.config.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			if err := validateURL(req.URL.String(), f.config.DenyPrivateIPs); err != nil {
				return fmt.Errorf("redirect target validation failed: %w", err)
			}
			return nil
		},
	}

	return f
}

// FetchGalleryPage fetches a Buildin share page for gallery extraction,
// using the longer gallery timeout.
func (f *PageFetcher) FetchGalleryPage(ctx context.Context, urlStr string) (*Page, error) {
	return f.fetch(ctx, urlStr, f.config.GalleryTimeout)
}

// FetchPostPage fetches a single post page for metadata enrichment,
// using the shorter metadata timeout.
func (f *PageFetcher) FetchPostPage(ctx context.Context, urlStr string) (*Page, error) {
	return f.fetch(ctx, urlStr, f.config.MetadataTimeout)
}

func (f *PageFetcher) fetch(ctx context.Context, urlStr string, timeout time.Duration) (*Page, error) {
	if err := validateURL(urlStr, f.config.DenyPrivateIPs); err != nil {
		return nil, err
	}

	result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
		return f.doFetch(ctx, urlStr, timeout)
	})
	if err != nil {
		return nil, err
	}

	return result.(*Page), nil
}

// doFetch performs the actual HTTP request and document parsing.
// This is called through the circuit breaker.
func (f *PageFetcher) doFetch(ctx context.Context, urlStr string, timeout time.Duration) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInvalidURL, err)
	}

	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: request exceeded %v", ErrTimeout, timeout)
		}
		// Unwrap redirect validation failures so ErrPrivateIP surfaces
		if urlErr, ok := err.(*url.Error); ok && urlErr.Err != nil {
			return nil, urlErr.Err
		}
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	// Read with a one-byte overshoot so a body exactly at the limit passes
	// but anything larger is detected.
	limitedReader := io.LimitReader(resp.Body, f.config.MaxBodySize+1)
	htmlBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(htmlBytes)) > f.config.MaxBodySize {
		return nil, fmt.Errorf("%w: response size %d bytes exceeds limit %d bytes",
			ErrBodyTooLarge, len(htmlBytes), f.config.MaxBodySize)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	finalURL := req.URL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}

	return &Page{Doc: doc, HTML: htmlBytes, URL: finalURL}, nil
}
