package extract

import (
	"fmt"
	"strings"

	"guildsync/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

// FragmentStrategy targets the gallery block named by the feed's #uuid
// fragment. It is the most precise strategy and only runs when the feed was
// registered with a fragment; matching elements are those whose id, href or
// data attributes contain the fragment token.
type FragmentStrategy struct{}

func (s *FragmentStrategy) Name() string { return "fragment" }

func (s *FragmentStrategy) Extract(doc *goquery.Document, pctx PageContext) []entity.CandidatePost {
	if pctx.Fragment == "" {
		return nil
	}
	frag := strings.ToLower(pctx.Fragment)

	var candidates []entity.CandidatePost
	doc.Find("[id], [href], [data-block-id]").Each(func(_ int, sel *goquery.Selection) {
		if !s.matches(sel, frag) {
			return
		}

		title := strings.TrimSpace(sel.Text())
		if title == "" {
			return
		}

		linkURL := nearestLink(sel, pctx)
		id := candidateID(sel, linkURL)
		if linkURL == "" {
			linkURL = pctx.ShareURL + "#" + pctx.Fragment
		}
		if id == "" {
			id = fmt.Sprintf("%s-%d", pctx.Fragment, len(candidates))
		}

		candidates = append(candidates, entity.CandidatePost{
			ID:             id,
			Title:          title,
			URL:            linkURL,
			ShareURL:       pctx.ShareURL,
			SourceStrategy: s.Name(),
		})
	})
	return candidates
}

func (s *FragmentStrategy) matches(sel *goquery.Selection, frag string) bool {
	for _, attr := range []string{"id", "href", "data-block-id"} {
		if v, ok := sel.Attr(attr); ok && strings.Contains(strings.ToLower(v), frag) {
			return true
		}
	}
	return false
}
