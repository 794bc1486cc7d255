package extract

import (
	"testing"
)

func TestCardStrategy_TierPriority(t *testing.T) {
	// Both a post-classed container and a bare heading exist; only the
	// higher-priority tier contributes.
	html := `<html><body>
		<h1>Gallery Page Title</h1>
		<div class="post-list">
			<a href="/share/a"><h2>Card Heading</h2></a>
		</div>
	</body></html>`

	posts := (&CardStrategy{}).Extract(testDoc(t, html), testPageContext())
	if len(posts) != 1 {
		t.Fatalf("posts length = %d, want 1: %+v", len(posts), posts)
	}
	if posts[0].Title != "Card Heading" {
		t.Errorf("Title = %q, want %q", posts[0].Title, "Card Heading")
	}
}

func TestCardStrategy_SkipsUnlinkedHeadings(t *testing.T) {
	html := `<html><body>
		<h2>Just a Section Header</h2>
	</body></html>`

	if posts := (&CardStrategy{}).Extract(testDoc(t, html), testPageContext()); len(posts) != 0 {
		t.Errorf("posts = %+v, want none for headings with no link", posts)
	}
}

func TestCardStrategy_LinkInParentContainer(t *testing.T) {
	html := `<html><body>
		<div class="item"><h3>Linked Via Sibling</h3><a href="/share/x">open</a></div>
	</body></html>`

	posts := (&CardStrategy{}).Extract(testDoc(t, html), testPageContext())
	if len(posts) != 1 {
		t.Fatalf("posts length = %d, want 1", len(posts))
	}
	if posts[0].URL != "https://buildin.ai/share/x" {
		t.Errorf("URL = %q, want link from enclosing container", posts[0].URL)
	}
}

func TestCardStrategy_NoHeadings(t *testing.T) {
	html := `<html><body><p>prose only</p></body></html>`
	if posts := (&CardStrategy{}).Extract(testDoc(t, html), testPageContext()); len(posts) != 0 {
		t.Errorf("posts = %+v, want none", posts)
	}
}
