package entity

// CandidatePost is an extracted, not-yet-verified-new item from a content
// source. It lives only for the duration of one feed tick: created by the
// extractor, filtered against the dedup ledger, enriched, then discarded
// after the publish attempt.
type CandidatePost struct {
	ID             string
	Title          string
	URL            string
	ShareURL       string
	SourceStrategy string
}

// PostMetadata is the enriched page metadata rendered into a channel message.
// Description and ImageURL are optional; Title is always populated, with a
// placeholder synthesized from the post id when extraction fails.
type PostMetadata struct {
	Title       string
	Description string
	ImageURL    string
	URL         string
}
