// Command diagnose_feeds runs a one-shot health check over every configured
// feed: RSS feeds are fetched and parsed, gallery feeds are fetched and run
// through the extraction cascade. It writes a text report and a JSON report
// without publishing anything or touching stored feed state.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"guildsync/internal/domain/entity"
	pgRepo "guildsync/internal/infra/adapter/persistence/postgres"
	"guildsync/internal/infra/fetcher"
	"guildsync/internal/infra/scraper"
	"guildsync/internal/usecase/extract"
)

// FeedDiagnostic represents the diagnostic result for a single feed.
type FeedDiagnostic struct {
	GuildID      string `json:"guild_id"`
	Kind         string `json:"kind"` // "rss" or "gallery"
	Ref          string `json:"ref"`  // feed URL or page id
	Status       string `json:"status"`
	ItemCount    int    `json:"item_count"`
	Strategy     string `json:"strategy,omitempty"`
	LatestDate   string `json:"latest_date,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
	Enabled      bool   `json:"enabled"`
}

func main() {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Failed to close database: %v", err)
		}
	}()

	repo := pgRepo.NewGuildRepo(db)
	ctx := context.Background()

	rssGuilds, err := repo.ListWithRSSFeeds(ctx)
	if err != nil {
		log.Fatalf("Failed to list RSS guilds: %v", err)
	}
	galleryGuilds, err := repo.ListWithGalleryFeeds(ctx)
	if err != nil {
		log.Fatalf("Failed to list gallery guilds: %v", err)
	}

	rssFetcher := scraper.NewRSSFetcher(&http.Client{Timeout: 30 * time.Second})
	pageFetcher := fetcher.NewPageFetcher(fetcher.DefaultConfig())
	galleryFetcher := scraper.NewGalleryFetcher(pageFetcher)
	extractor := extract.NewExtractor()

	var diagnostics []FeedDiagnostic

	for _, guild := range rssGuilds {
		for _, f := range guild.RSSFeeds {
			log.Printf("Diagnosing rss feed: guild=%s url=%s", guild.GuildID, f.FeedURL)
			diagnostics = append(diagnostics, diagnoseRSS(ctx, rssFetcher, guild.GuildID, f))
			// Rate limiting to be nice to servers
			time.Sleep(500 * time.Millisecond)
		}
	}
	for _, guild := range galleryGuilds {
		for _, f := range guild.GalleryFeeds {
			log.Printf("Diagnosing gallery feed: guild=%s page=%s", guild.GuildID, f.PageID)
			diagnostics = append(diagnostics, diagnoseGallery(ctx, galleryFetcher, extractor, guild.GuildID, f))
			time.Sleep(500 * time.Millisecond)
		}
	}

	generateReport(diagnostics)
	generateJSONReport(diagnostics)
}

func diagnoseRSS(ctx context.Context, rf *scraper.RSSFetcher, guildID string, f entity.RSSFeed) FeedDiagnostic {
	diag := FeedDiagnostic{
		GuildID: guildID,
		Kind:    "rss",
		Ref:     f.FeedURL,
		Enabled: f.Enabled,
	}

	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	parsed, err := rf.Fetch(fetchCtx, f.FeedURL)
	diag.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		diag.Status = "FETCH_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}

	diag.ItemCount = len(parsed.Items)
	if diag.ItemCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "feed has no items"
		return diag
	}

	latest := parsed.Items[0].PublishedAt
	for _, it := range parsed.Items {
		if it.PublishedAt.After(latest) {
			latest = it.PublishedAt
		}
	}
	diag.LatestDate = latest.Format(time.RFC3339)
	diag.Status = "OK"
	return diag
}

func diagnoseGallery(ctx context.Context, gf *scraper.GalleryFetcher, ex *extract.Extractor, guildID string, f entity.GalleryFeed) FeedDiagnostic {
	pageID := entity.ExtractPageID(f.PageID)
	diag := FeedDiagnostic{
		GuildID: guildID,
		Kind:    "gallery",
		Ref:     f.PageID,
		Enabled: f.Enabled,
	}
	if pageID == "" {
		diag.Status = "INVALID_PAGE_REF"
		diag.ErrorMessage = "page reference does not contain a page id"
		return diag
	}

	pageURL := f.PageURL
	if pageURL == "" {
		pageURL = entity.CanonicalShareURL(pageID)
	}

	start := time.Now()
	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pctx := extract.PageContext{
		PageID:   pageID,
		Fragment: f.GalleryFragment,
		ShareURL: entity.CanonicalShareURL(pageID),
	}

	page, err := gf.Fetch(fetchCtx, pageURL)
	diag.ResponseTime = time.Since(start).Milliseconds()
	if err != nil {
		diag.Status = "FETCH_ERROR"
		diag.ErrorMessage = err.Error()
		return diag
	}
	pctx.BaseURL = page.URL

	posts := ex.Extract(page.Doc, pctx)
	diag.ItemCount = len(posts)
	if len(posts) > 0 {
		diag.Strategy = posts[0].SourceStrategy
	}
	if diag.Strategy == "fallback" {
		// The page loaded but nothing recognizable was extracted; the
		// worker would publish a single degraded post.
		diag.Status = "FALLBACK_ONLY"
		return diag
	}

	diag.Status = "OK"
	return diag
}

// writef is a helper to write to file and log errors.
func writef(f *os.File, format string, args ...interface{}) {
	if _, err := fmt.Fprintf(f, format, args...); err != nil {
		log.Printf("Failed to write to report: %v", err)
	}
}

func generateReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.txt")
	if err != nil {
		log.Printf("Failed to create report file: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close report file: %v", err)
		}
	}()

	writef(f, "===============================================\n")
	writef(f, "Feed Diagnostic Report\n")
	writef(f, "Generated: %s\n", time.Now().Format(time.RFC3339))
	writef(f, "Total Feeds: %d\n", len(diagnostics))
	writef(f, "===============================================\n\n")

	statusCount := make(map[string]int)
	var okCount, errorCount int
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if d.Status == "OK" {
			okCount++
		} else {
			errorCount++
		}
	}

	writef(f, "SUMMARY:\n")
	writef(f, "  ✅ Working: %d\n", okCount)
	writef(f, "  ❌ Needs attention: %d\n", errorCount)
	writef(f, "\nSTATUS BREAKDOWN:\n")
	for status, count := range statusCount {
		writef(f, "  %s: %d\n", status, count)
	}
	writef(f, "\n")

	writef(f, "DETAILED RESULTS:\n")
	writef(f, "===============================================\n\n")
	for _, d := range diagnostics {
		writef(f, "Guild: %s | Kind: %s\n", d.GuildID, d.Kind)
		writef(f, "  Ref: %s\n", d.Ref)
		writef(f, "  Status: %s | Items: %d | Enabled: %v | Response: %dms\n",
			d.Status, d.ItemCount, d.Enabled, d.ResponseTime)
		if d.Strategy != "" {
			writef(f, "  Strategy: %s\n", d.Strategy)
		}
		if d.LatestDate != "" {
			writef(f, "  Latest: %s\n", d.LatestDate)
		}
		if d.ErrorMessage != "" {
			writef(f, "  Error: %s\n", d.ErrorMessage)
		}
		writef(f, "\n")
	}

	log.Println("✅ Text report generated: feed_diagnostic_report.txt")
}

func generateJSONReport(diagnostics []FeedDiagnostic) {
	f, err := os.Create("feed_diagnostic_report.json")
	if err != nil {
		log.Printf("Failed to create JSON report: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close JSON report file: %v", err)
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(diagnostics); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}

	log.Println("✅ JSON report generated: feed_diagnostic_report.json")
}
