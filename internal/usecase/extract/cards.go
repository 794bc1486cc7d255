package extract

import (
	"strings"

	"guildsync/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// cardSelectors is the tiered search order: headings inside containers whose
// class names suggest a post listing first, bare headings as the last tier.
var cardSelectors = []string{
	`[class*="post"] h1, [class*="post"] h2, [class*="post"] h3`,
	`[class*="card"] h1, [class*="card"] h2, [class*="card"] h3`,
	`[class*="item"] h1, [class*="item"] h2, [class*="item"] h3`,
	`[class*="entry"] h1, [class*="entry"] h2, [class*="entry"] h3`,
	`article h1, article h2, article h3`,
	`h1, h2, h3`,
}

// CardStrategy recognizes the common gallery layout: a grid of cards, each
// with a heading and a link. The first selector tier that yields any
// candidates wins; later tiers are not mixed in.
type CardStrategy struct{}

func (s *CardStrategy) Name() string { return "cards" }

func (s *CardStrategy) Extract(doc *goquery.Document, pctx PageContext) []entity.CandidatePost {
	for _, selector := range cardSelectors {
		candidates := s.extractHeadings(doc, selector, pctx)
		if len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

func (s *CardStrategy) extractHeadings(doc *goquery.Document, selector string, pctx PageContext) []entity.CandidatePost {
	var candidates []entity.CandidatePost
	doc.Find(selector).Each(func(_ int, h *goquery.Selection) {
		title := strings.TrimSpace(h.Text())
		if title == "" {
			return
		}

		linkURL := nearestLink(h, pctx)
		if linkURL == "" {
			// A heading without any link nearby is usually page chrome
			// (the gallery's own title), not a post card.
			if linkURL = nearestLink(h.Parent(), pctx); linkURL == "" {
				return
			}
		}

		candidates = append(candidates, entity.CandidatePost{
			ID:             candidateID(h, linkURL),
			Title:          title,
			URL:            linkURL,
			ShareURL:       pctx.ShareURL,
			SourceStrategy: s.Name(),
		})
	})
	return candidates
}
