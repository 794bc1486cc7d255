package publish

import (
	"strings"
	"testing"
	"time"

	"guildsync/internal/domain/entity"
)

var testTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestRenderGalleryPost(t *testing.T) {
	md := entity.PostMetadata{
		Title:       "Post Title",
		Description: "A description",
		ImageURL:    "https://cdn.example.com/img.png",
		URL:         "https://buildin.ai/share/abc",
	}

	msg := RenderGalleryPost(md, "Team Updates", testTime)
	if len(msg.Embeds) != 1 {
		t.Fatalf("embeds length = %d, want 1", len(msg.Embeds))
	}
	e := msg.Embeds[0]
	if e.Title != "Post Title" || e.URL != md.URL {
		t.Errorf("embed = %+v, want title and url carried over", e)
	}
	if e.Description != "A description" {
		t.Errorf("Description = %q, want untruncated", e.Description)
	}
	if e.Color != embedColor {
		t.Errorf("Color = %d, want blurple %d", e.Color, embedColor)
	}
	if e.Footer == nil || e.Footer.Text != "Team Updates" {
		t.Errorf("Footer = %+v, want feed title", e.Footer)
	}
	if e.Image == nil || e.Image.URL != md.ImageURL {
		t.Errorf("Image = %+v, want cover image", e.Image)
	}
	if e.Timestamp != "2025-06-01T12:00:00Z" {
		t.Errorf("Timestamp = %q, want RFC3339 UTC", e.Timestamp)
	}
}

func TestRenderGalleryPost_FooterFallback(t *testing.T) {
	msg := RenderGalleryPost(entity.PostMetadata{Title: "T"}, "", testTime)
	if got := msg.Embeds[0].Footer.Text; got != "Buildin Gallery" {
		t.Errorf("Footer = %q, want %q", got, "Buildin Gallery")
	}
}

func TestRenderGalleryPost_NoImage(t *testing.T) {
	msg := RenderGalleryPost(entity.PostMetadata{Title: "T"}, "F", testTime)
	if msg.Embeds[0].Image != nil {
		t.Errorf("Image = %+v, want nil when metadata has none", msg.Embeds[0].Image)
	}
}

func TestRenderRSSItem_SnippetTruncation(t *testing.T) {
	md := entity.PostMetadata{
		Title:       "Article",
		Description: strings.Repeat("x", 250),
		URL:         "https://example.com/a",
	}

	msg := RenderRSSItem(md, "", testTime)
	e := msg.Embeds[0]
	if !strings.HasSuffix(e.Description, truncationSuffix) {
		t.Errorf("Description = %q, want ellipsis suffix", e.Description)
	}
	if got := len([]rune(e.Description)); got != maxRSSSnippetLength+len(truncationSuffix) {
		t.Errorf("description length = %d, want %d", got, maxRSSSnippetLength+len(truncationSuffix))
	}
	if e.Footer.Text != "RSS Feed" {
		t.Errorf("Footer = %q, want default attribution", e.Footer.Text)
	}
}

func TestRenderRSSItem_ShortDescriptionUntouched(t *testing.T) {
	msg := RenderRSSItem(entity.PostMetadata{Title: "A", Description: "short"}, "Blog", testTime)
	if got := msg.Embeds[0].Description; got != "short" {
		t.Errorf("Description = %q, want unchanged", got)
	}
}

func TestRenderTitleTruncated(t *testing.T) {
	md := entity.PostMetadata{Title: strings.Repeat("t", 300)}
	msg := RenderGalleryPost(md, "F", testTime)
	if got := len([]rune(msg.Embeds[0].Title)); got != maxTitleLength {
		t.Errorf("title length = %d, want %d", got, maxTitleLength)
	}
}
