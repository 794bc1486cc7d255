package feed

import (
	"context"
	"errors"
	"testing"

	"guildsync/internal/domain/entity"
)

func TestRunGalleryCheck_InvalidReference(t *testing.T) {
	deps := galleryDeps(t)
	deps.repo = &fakeRepo{}

	_, err := newTestService(deps).RunGalleryCheck(context.Background(), "not a page", "")
	if !errors.Is(err, entity.ErrInvalidPageRef) {
		t.Fatalf("error = %v, want ErrInvalidPageRef", err)
	}
}

func TestRunGalleryCheck_DryRun(t *testing.T) {
	deps := galleryDeps(t, candidatesNewestFirst("n1", "n2")...)
	deps.repo = &fakeRepo{}

	result, err := newTestService(deps).RunGalleryCheck(context.Background(), testPageID, "")
	if err != nil {
		t.Fatalf("RunGalleryCheck() error = %v", err)
	}
	if result.PageID != testPageID {
		t.Errorf("PageID = %q, want %q", result.PageID, testPageID)
	}
	if len(result.Candidates) != 2 || result.Strategy != "cards" {
		t.Errorf("result = %+v, want two card candidates", result)
	}
	if result.Published || len(deps.publisher.batches) != 0 {
		t.Error("dry run must not publish")
	}
}

func TestRunGalleryCheck_PublishesOnePost(t *testing.T) {
	deps := galleryDeps(t, candidatesNewestFirst("n1", "n2")...)
	deps.repo = &fakeRepo{}

	pageURL := "https://buildin.ai/share/" + testPageID + "#0199c5cf-2f57-7a8e-b7f1-bbbbbbbbbbbb"
	result, err := newTestService(deps).RunGalleryCheck(context.Background(), pageURL, "c9")
	if err != nil {
		t.Fatalf("RunGalleryCheck() error = %v", err)
	}
	if !result.Published {
		t.Error("Published = false, want true")
	}
	if result.Fragment != "0199c5cf-2f57-7a8e-b7f1-bbbbbbbbbbbb" {
		t.Errorf("Fragment = %q, want the #uuid anchor", result.Fragment)
	}
	if got := deps.publisher.publishedIDs(); len(got) != 1 || got[0] != "n1" {
		t.Errorf("published = %v, want exactly the newest candidate", got)
	}
	if deps.publisher.channels[0] != "c9" {
		t.Errorf("channel = %q, want c9", deps.publisher.channels[0])
	}
}
