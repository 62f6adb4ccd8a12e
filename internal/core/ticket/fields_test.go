package ticket

import (
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	if got := Title(map[string]any{"summary": "Fix timeout"}); got != "Fix timeout" {
		t.Errorf("got %q", got)
	}
	if got := Title(map[string]any{}); got != "" {
		t.Errorf("missing summary must yield empty, got %q", got)
	}
	if got := Title(map[string]any{"summary": 42}); got != "" {
		t.Errorf("non-string summary must yield empty, got %q", got)
	}
}

func TestDescriptionPlainString(t *testing.T) {
	fields := map[string]any{"description": "plain text"}
	if got := Description(fields); got != "plain text" {
		t.Errorf("got %q", got)
	}
}

func TestDescriptionRichDocument(t *testing.T) {
	fields := map[string]any{
		"description": map[string]any{
			"type":    "doc",
			"content": []any{map[string]any{"text": "hello"}},
		},
	}
	got := Description(fields)
	if !strings.Contains(got, `"content"`) || !strings.Contains(got, "hello") {
		t.Errorf("rich document should serialize to JSON, got %q", got)
	}
}

func TestDescriptionOddShapes(t *testing.T) {
	if got := Description(map[string]any{"description": 3.14}); got != "" {
		t.Errorf("got %q", got)
	}
	if got := Description(map[string]any{}); got != "" {
		t.Errorf("got %q", got)
	}
	if got := Description(map[string]any{"description": map[string]any{"no": "content"}}); got != "" {
		t.Errorf("map without content key must yield empty, got %q", got)
	}
}

func TestAcceptance(t *testing.T) {
	desc := "Do the thing.\n\nAcceptance Criteria\n- works\n- tested"
	if got := Acceptance(desc); got != "- works\n- tested" {
		t.Errorf("got %q", got)
	}
	if got := Acceptance("no marker here"); got != "" {
		t.Errorf("got %q", got)
	}
}

func TestHasRequiredFields(t *testing.T) {
	ok := map[string]any{"summary": "s", "description": "d"}
	if !HasRequiredFields(ok) {
		t.Error("expected true for complete fields")
	}
	if HasRequiredFields(map[string]any{"summary": "s"}) {
		t.Error("expected false without description")
	}
	if HasRequiredFields(map[string]any{"description": "d"}) {
		t.Error("expected false without summary")
	}
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Fix Payment Gateway!", "fix-payment-gateway"},
		{"  spaces   everywhere  ", "spaces-everywhere"},
		{"UPPER_case_123", "upper-case-123"},
	}
	for _, tc := range cases {
		if got := Slug(tc.in, 50); got != tc.want {
			t.Errorf("Slug(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSlugTruncation(t *testing.T) {
	got := Slug("aaaa bbbb cccc", 9)
	if got != "aaaa-bbbb" {
		t.Errorf("got %q, want aaaa-bbbb", got)
	}
	if strings.HasSuffix(Slug("aaaa bbbb", 5), "-") {
		t.Error("truncated slug must not end on a hyphen")
	}
}
