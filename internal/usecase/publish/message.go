// Package publish renders posts as Discord embed messages and delivers them
// to a channel with fixed pacing between consecutive sends.
package publish

import (
	"time"

	"guildsync/internal/domain/entity"
)

const (
	// Discord limits
	maxTitleLength   = 256
	truncationSuffix = "..."

	// maxRSSSnippetLength keeps RSS descriptions to a short teaser; the
	// full text is one click away.
	maxRSSSnippetLength = 200

	// Discord blurple (#5865F2)
	embedColor = 5793266
)

// Message is the JSON payload for a Discord channel message.
type Message struct {
	Embeds []Embed `json:"embeds"`
}

// Embed is a Discord rich embed.
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	URL         string       `json:"url,omitempty"`
	Color       int          `json:"color"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedFooter is the attribution line under an embed.
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedImage is the embed's cover image.
type EmbedImage struct {
	URL string `json:"url"`
}

// RenderGalleryPost builds the message for a scraped gallery post. The
// description arrives already bounded by the enricher, so it is used as-is.
func RenderGalleryPost(md entity.PostMetadata, feedTitle string, publishedAt time.Time) Message {
	footer := feedTitle
	if footer == "" {
		footer = "Buildin Gallery"
	}
	return newMessage(md, md.Description, footer, publishedAt)
}

// RenderRSSItem builds the message for an RSS/Atom entry. The description is
// cut to a short snippet with an ellipsis.
func RenderRSSItem(md entity.PostMetadata, feedTitle string, publishedAt time.Time) Message {
	footer := feedTitle
	if footer == "" {
		footer = "RSS Feed"
	}
	return newMessage(md, snippet(md.Description), footer, publishedAt)
}

func newMessage(md entity.PostMetadata, description, footer string, publishedAt time.Time) Message {
	embed := Embed{
		Title:       truncateTitle(md.Title),
		Description: description,
		URL:         md.URL,
		Color:       embedColor,
		Footer:      &EmbedFooter{Text: footer},
		Timestamp:   publishedAt.UTC().Format(time.RFC3339),
	}
	if md.ImageURL != "" {
		embed.Image = &EmbedImage{URL: md.ImageURL}
	}
	return Message{Embeds: []Embed{embed}}
}

func truncateTitle(title string) string {
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength])
	}
	return title
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= maxRSSSnippetLength {
		return text
	}
	return string(runes[:maxRSSSnippetLength]) + truncationSuffix
}
