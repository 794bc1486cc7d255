package entity

import "testing"

func TestExtractPageID(t *testing.T) {
	const id = "123e4567-e89b-12d3-a456-426614174000"

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"bare uuid", id, id},
		{"uppercase uuid is normalized", "123E4567-E89B-12D3-A456-426614174000", id},
		{"share url", "https://buildin.ai/share/" + id, id},
		{"workspace url", "https://buildin.ai/myteam/" + id, id},
		{"url with fragment", "https://buildin.ai/share/" + id + "#deadbeef-0000-4000-8000-000000000000", id},
		{"whitespace around bare uuid", "  " + id + "  ", id},
		{"unrelated url", "https://example.com/" + id, ""},
		{"no uuid", "https://buildin.ai/share/hello", ""},
		{"empty", "", ""},
		{"un-hyphenated hex rejected", "123e4567e89b12d3a456426614174000", ""},
		{"urn prefix rejected", "urn:uuid:" + id, ""},
		{"braced form rejected", "{" + id + "}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractPageID(tt.ref); got != tt.want {
				t.Errorf("ExtractPageID(%q) = %q, want %q", tt.ref, got, tt.want)
			}
		})
	}
}

func TestExtractGalleryFragment(t *testing.T) {
	const page = "123e4567-e89b-12d3-a456-426614174000"
	const frag = "deadbeef-0000-4000-8000-000000000000"

	if got := ExtractGalleryFragment("https://buildin.ai/share/" + page + "#" + frag); got != frag {
		t.Errorf("ExtractGalleryFragment() = %q, want %q", got, frag)
	}
	if got := ExtractGalleryFragment("https://buildin.ai/share/" + page); got != "" {
		t.Errorf("ExtractGalleryFragment() = %q, want empty for fragmentless url", got)
	}
	if got := ExtractGalleryFragment("https://buildin.ai/share/" + page + "#section-1"); got != "" {
		t.Errorf("ExtractGalleryFragment() = %q, want empty for non-uuid fragment", got)
	}
}

func TestCanonicalShareURL(t *testing.T) {
	const id = "123e4567-e89b-12d3-a456-426614174000"
	want := "https://buildin.ai/share/" + id
	if got := CanonicalShareURL(id); got != want {
		t.Errorf("CanonicalShareURL() = %q, want %q", got, want)
	}
}
