// Package enrich fills in post metadata by fetching the post's own page and
// reading its social meta tags. Enrichment is strictly best-effort: a post
// with a placeholder title still gets published, so Enrich never returns an
// error.
package enrich

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"guildsync/internal/domain/entity"
	"guildsync/internal/infra/fetcher"
	"guildsync/internal/observability/metrics"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

const maxDescriptionLength = 300

// genericLandingTitles are titles of the host's own shell pages. Seeing one
// means the share page served its empty client-side scaffold instead of the
// post, so the title carries no information about the content.
var genericLandingTitles = map[string]bool{
	"Buildin": true,
}

// PageFetcher retrieves a post page for metadata extraction.
type PageFetcher interface {
	FetchPostPage(ctx context.Context, pageURL string) (*fetcher.Page, error)
}

// Enricher extracts title, description and image for a candidate post.
type Enricher struct {
	fetcher PageFetcher
}

// NewEnricher creates an Enricher backed by the given page fetcher.
func NewEnricher(f PageFetcher) *Enricher {
	return &Enricher{fetcher: f}
}

// Enrich returns the best metadata obtainable for the post. On any fetch or
// parse failure it degrades to a placeholder title with empty description
// and image rather than failing the publish.
func (e *Enricher) Enrich(ctx context.Context, post entity.CandidatePost) entity.PostMetadata {
	md := entity.PostMetadata{
		Title: placeholderTitle(post),
		URL:   post.URL,
	}

	start := time.Now()
	page, err := e.fetcher.FetchPostPage(ctx, post.URL)
	if err != nil {
		metrics.RecordMetadataFetchFailed(time.Since(start))
		slog.Debug("metadata fetch failed, using placeholder",
			slog.String("url", post.URL),
			slog.String("error", err.Error()))
		return md
	}
	metrics.RecordMetadataFetchSuccess(time.Since(start))

	if title := extractTitle(page.Doc); title != "" {
		md.Title = title
	}
	md.Description = extractDescription(page)
	md.ImageURL = extractImage(page)
	return md
}

// placeholderTitle synthesizes a title from the post id when the page gives
// us nothing. The leading segment of the id is enough to tell posts apart in
// a channel.
func placeholderTitle(post entity.CandidatePost) string {
	if post.Title != "" {
		return post.Title
	}
	id := post.ID
	if i := strings.IndexByte(id, '-'); i > 0 {
		id = id[:i]
	}
	return fmt.Sprintf("Post %s", id)
}

func extractTitle(doc *goquery.Document) string {
	candidates := []func() string{
		func() string { return metaContent(doc, `meta[property="og:title"]`) },
		func() string { return metaContent(doc, `meta[name="twitter:title"]`) },
		func() string { return doc.Find("title").First().Text() },
		func() string { return doc.Find("h1").First().Text() },
		func() string { return doc.Find(`[class*="title"]`).First().Text() },
	}
	for _, get := range candidates {
		title := strings.TrimSpace(get())
		if title == "" || genericLandingTitles[title] {
			continue
		}
		return title
	}
	return ""
}

func extractDescription(page *fetcher.Page) string {
	doc := page.Doc
	candidates := []func() string{
		func() string { return metaContent(doc, `meta[property="og:description"]`) },
		func() string { return metaContent(doc, `meta[name="twitter:description"]`) },
		func() string { return metaContent(doc, `meta[name="description"]`) },
		func() string { return doc.Find("p").First().Text() },
		func() string { return readabilityExcerpt(page) },
	}
	for _, get := range candidates {
		if desc := strings.TrimSpace(get()); desc != "" {
			return truncate(desc, maxDescriptionLength)
		}
	}
	return ""
}

// readabilityExcerpt runs the readability article extractor over the raw
// page HTML. It is the most expensive option, tried only when no meta tag
// and no paragraph yielded anything.
func readabilityExcerpt(page *fetcher.Page) string {
	article, err := readability.FromReader(bytes.NewReader(page.HTML), page.URL)
	if err != nil {
		return ""
	}
	return article.Excerpt
}

func extractImage(page *fetcher.Page) string {
	doc := page.Doc
	if img := metaContent(doc, `meta[property="og:image"]`); img != "" {
		return resolveImageURL(img, page.URL)
	}
	if img := metaContent(doc, `meta[name="twitter:image"]`); img != "" {
		return resolveImageURL(img, page.URL)
	}

	var found string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		lower := strings.ToLower(src)
		if strings.Contains(lower, "logo") || strings.Contains(lower, "icon") || strings.Contains(lower, "avatar") {
			return true
		}
		if resolved := resolveImageURL(src, page.URL); resolved != "" {
			found = resolved
			return false
		}
		return true
	})
	return found
}

// resolveImageURL accepts absolute http(s) and data URLs as-is and resolves
// protocol-relative paths against the page's origin. Anything else (a bare
// relative path, junk) is rejected.
func resolveImageURL(src string, pageURL *url.URL) string {
	src = strings.TrimSpace(src)
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"), strings.HasPrefix(src, "data:"):
		return src
	case strings.HasPrefix(src, "//"):
		scheme := "https"
		if pageURL != nil && pageURL.Scheme != "" {
			scheme = pageURL.Scheme
		}
		return scheme + ":" + src
	default:
		return ""
	}
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return content
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max])
	}
	return s
}
