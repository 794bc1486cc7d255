package extract

import (
	"strings"

	"guildsync/internal/domain/entity"

	"github.com/PuerkitoBio/goquery"
)

const (
	minFreeTextLength = 20
	maxFreeTextLength = 200

	// maxFreeTextCandidates keeps this low-confidence strategy from
	// flooding the pipeline with page prose.
	maxFreeTextCandidates = 5
)

// boilerplateMarkers disqualify a text block as site chrome rather than
// post content. Matched case-insensitively.
var boilerplateMarkers = []string{
	"©",
	"copyright",
	"all rights reserved",
	"terms of service",
	"privacy policy",
	"buildin.ai",
	"powered by",
}

// FreeTextStrategy is the low-confidence net under the structured
// strategies: it collects short standalone text blocks that look like post
// titles on pages with no recognizable card or fragment markup.
type FreeTextStrategy struct{}

func (s *FreeTextStrategy) Name() string { return "freetext" }

func (s *FreeTextStrategy) Extract(doc *goquery.Document, pctx PageContext) []entity.CandidatePost {
	var candidates []entity.CandidatePost
	seen := make(map[string]bool)

	doc.Find("p, div, span").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		// Only leaf-ish blocks: a div wrapping the whole page would
		// repeat every nested block's text.
		if sel.Children().Length() > 0 {
			return true
		}

		text := strings.TrimSpace(sel.Text())
		n := len([]rune(text))
		if n < minFreeTextLength || n > maxFreeTextLength {
			return true
		}
		if isBoilerplate(text) || seen[text] {
			return true
		}
		seen[text] = true

		// Derive the id before defaulting the link, so unlinked blocks
		// get distinct synthetic ids instead of all inheriting the
		// page's own id from the share URL.
		linkURL := nearestLink(sel, pctx)
		id := candidateID(sel, linkURL)
		if linkURL == "" {
			linkURL = pctx.ShareURL
		}

		candidates = append(candidates, entity.CandidatePost{
			ID:             id,
			Title:          text,
			URL:            linkURL,
			ShareURL:       pctx.ShareURL,
			SourceStrategy: s.Name(),
		})
		return len(candidates) < maxFreeTextCandidates
	})
	return candidates
}

func isBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range boilerplateMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
