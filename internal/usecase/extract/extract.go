// Package extract turns fetched gallery pages into candidate posts.
//
// Buildin share pages have no public API and no stable markup contract, so
// extraction is a cascade of heuristics tried in order: fragment-targeted
// lookup, card-pattern headings, free-text blocks, and finally a synthesized
// single post representing the page itself. The first strategy producing at
// least one candidate wins; the cascade therefore always yields something
// for any page, trading precision for availability.
package extract

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"guildsync/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

const (
	// maxCandidates caps one extraction pass
	maxCandidates = 15

	// maxTitleLength truncates candidate titles before they enter the pipeline
	maxTitleLength = 100
)

// PageContext carries the feed configuration an extraction pass runs under.
type PageContext struct {
	// PageID is the gallery page's UUID.
	PageID string

	// Fragment is the optional #uuid anchor pointing into a specific
	// gallery block on the page.
	Fragment string

	// ShareURL is the canonical share URL of the page.
	ShareURL string

	// PageTitle is the configured feed title, used in fallback placeholders.
	PageTitle string

	// BaseURL resolves relative hrefs found in the document.
	BaseURL *url.URL
}

// Strategy is one extraction heuristic. Implementations return a best-effort
// candidate list and never fail: an empty result hands over to the next
// strategy in the cascade.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, pctx PageContext) []entity.CandidatePost
}

// Extractor runs the strategy cascade over a fetched gallery page.
type Extractor struct {
	strategies []Strategy
	now        func() time.Time
}

// NewExtractor creates an Extractor with the default strategy order.
func NewExtractor() *Extractor {
	return &Extractor{
		strategies: []Strategy{
			&FragmentStrategy{},
			&CardStrategy{},
			&FreeTextStrategy{},
		},
		now: time.Now,
	}
}

// Extract produces an ordered candidate list for the page. A nil document
// (fetch or parse already failed upstream) degrades straight to the
// single-post fallback so the pipeline always has something to consider.
func (e *Extractor) Extract(doc *goquery.Document, pctx PageContext) []entity.CandidatePost {
	if doc != nil {
		for _, s := range e.strategies {
			if candidates := s.Extract(doc, pctx); len(candidates) > 0 {
				return e.finalize(candidates)
			}
		}
	}
	return []entity.CandidatePost{e.fallbackPost(pctx)}
}

// fallbackPost synthesizes the single candidate representing the page itself.
func (e *Extractor) fallbackPost(pctx PageContext) entity.CandidatePost {
	title := pctx.PageTitle
	if title == "" {
		title = pctx.PageID
	}
	return entity.CandidatePost{
		ID:             pctx.PageID,
		Title:          truncateTitle(fmt.Sprintf("New post on %s", title)),
		URL:            pctx.ShareURL,
		ShareURL:       pctx.ShareURL,
		SourceStrategy: "fallback",
	}
}

// finalize applies the shared post-processing: title normalization,
// dedup by id-or-title, synthetic ids, and the candidate cap.
func (e *Extractor) finalize(candidates []entity.CandidatePost) []entity.CandidatePost {
	seenIDs := make(map[string]bool)
	seenTitles := make(map[string]bool)
	out := make([]entity.CandidatePost, 0, len(candidates))
	stamp := e.now().UnixMilli()

	for i, c := range candidates {
		c.Title = truncateTitle(c.Title)
		if c.Title == "" {
			continue
		}

		// Synthetic ids are unique within this pass but not stable across
		// passes; posts without a stable id may re-publish under a new id.
		if c.ID == "" {
			c.ID = fmt.Sprintf("synthetic-%d-%d", stamp, i)
		}

		if seenIDs[c.ID] || seenTitles[c.Title] {
			continue
		}
		seenIDs[c.ID] = true
		seenTitles[c.Title] = true

		out = append(out, c)
		if len(out) >= maxCandidates {
			break
		}
	}
	return out
}

func truncateTitle(title string) string {
	title = strings.TrimSpace(title)
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength])
	}
	return title
}

// resolveHref makes an href absolute against the page base. Empty, script
// and pure-fragment hrefs resolve to "".
func resolveHref(href string, pctx PageContext) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	if u.IsAbs() {
		return u.String()
	}
	if pctx.BaseURL == nil {
		return ""
	}
	return pctx.BaseURL.ResolveReference(u).String()
}

// candidateID derives a stable id for an extracted element: the element's
// own id attribute, a data-block-id, or a UUID embedded in the linked URL.
// Returns "" when nothing stable is available.
func candidateID(sel *goquery.Selection, linkURL string) string {
	if id, ok := sel.Attr("id"); ok && id != "" {
		return id
	}
	if id, ok := sel.Attr("data-block-id"); ok && id != "" {
		return id
	}
	if linkURL != "" {
		if id := entity.ExtractPageID(linkURL); id != "" {
			return id
		}
	}
	return ""
}

// nearestLink finds the post URL for an element: the closest enclosing
// anchor, else the first anchor inside the element.
func nearestLink(sel *goquery.Selection, pctx PageContext) string {
	if a := sel.Closest("a"); a.Length() > 0 {
		if href, ok := a.Attr("href"); ok {
			if u := resolveHref(href, pctx); u != "" {
				return u
			}
		}
	}
	if a := sel.Find("a").First(); a.Length() > 0 {
		if href, ok := a.Attr("href"); ok {
			if u := resolveHref(href, pctx); u != "" {
				return u
			}
		}
	}
	return ""
}
