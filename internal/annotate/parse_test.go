package annotate

import (
	"strings"
	"testing"
)

func TestParseAnnotationFourSections(t *testing.T) {
	raw := `1) A summary of the section.
2) The key insight here.
3) tag-one, tag-two
4) Uses markdown tables.`

	ann := ParseAnnotation(raw)
	if ann.Summary != "A summary of the section." {
		t.Errorf("summary = %q", ann.Summary)
	}
	if ann.KeyInsights != "The key insight here." {
		t.Errorf("key insights = %q", ann.KeyInsights)
	}
	if ann.SuggestedTags != "tag-one, tag-two" {
		t.Errorf("suggested tags = %q", ann.SuggestedTags)
	}
	if ann.NotableFeatures != "Uses markdown tables." {
		t.Errorf("notable features = %q", ann.NotableFeatures)
	}
}

func TestParseAnnotationPreamble(t *testing.T) {
	raw := "Here is my analysis:\n1) Summary text\n2) Insights text\n3) tags\n4) features"
	ann := ParseAnnotation(raw)
	if ann.Summary != "Summary text" {
		t.Errorf("summary = %q", ann.Summary)
	}
	if ann.NotableFeatures != "features" {
		t.Errorf("notable features = %q", ann.NotableFeatures)
	}
}

func TestParseAnnotationMissingSections(t *testing.T) {
	raw := "1) Only a summary here"
	ann := ParseAnnotation(raw)
	if ann.Summary != "Only a summary here" {
		t.Errorf("summary = %q", ann.Summary)
	}
	if ann.KeyInsights != "" || ann.SuggestedTags != "" || ann.NotableFeatures != "" {
		t.Errorf("expected empty trailing fields, got %+v", ann)
	}
}

func TestParseAnnotationNoMarkersFallsBack(t *testing.T) {
	raw := "The model ignored the format and wrote prose instead."
	ann := ParseAnnotation(raw)
	if ann.Summary != raw {
		t.Errorf("summary = %q", ann.Summary)
	}
}

func TestParseAnnotationFallbackTruncates(t *testing.T) {
	raw := strings.Repeat("z", 500)
	ann := ParseAnnotation(raw)
	if len(ann.Summary) != summaryFallbackLen {
		t.Errorf("fallback summary length = %d", len(ann.Summary))
	}
}

func TestParseAnnotationEmptyInput(t *testing.T) {
	ann := ParseAnnotation("")
	if !ann.IsEmpty() {
		t.Errorf("expected empty annotation, got %+v", ann)
	}
}

func TestParseAnnotationNumberedListInsideSection(t *testing.T) {
	// Extra numbered markers past the fourth shift nothing; only the first
	// four fragments are used.
	raw := "1) s\n2) i\n3) t\n4) f\n5) extra"
	ann := ParseAnnotation(raw)
	if ann.NotableFeatures != "f" {
		t.Errorf("notable features = %q", ann.NotableFeatures)
	}
}
