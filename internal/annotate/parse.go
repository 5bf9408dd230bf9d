package annotate

import (
	"regexp"
	"strings"

	"github.com/contextdeck/contextdeck/internal/media"
)

// sectionPattern matches the numbered-list convention the annotation prompt
// asks the model to follow ("1) ...", "2) ...").
var sectionPattern = regexp.MustCompile(`\d+\)`)

// summaryFallbackLen is how much of the raw response becomes the summary
// when the model did not produce a recognizable first section.
const summaryFallbackLen = 200

// ParseAnnotation extracts the four annotation fields from the model's
// free-form response by splitting on the numbered-section convention.
// Fragments are assigned positionally; the model is not guaranteed to honor
// the requested ordering, so a reordered response yields misassigned fields.
// Missing fragments are left empty, except the summary, which falls back to
// the head of the raw response.
func ParseAnnotation(raw string) media.Annotation {
	sections := sectionPattern.Split(raw, -1)

	get := func(i int) string {
		if i < len(sections) {
			return strings.TrimSpace(sections[i])
		}
		return ""
	}

	a := media.Annotation{
		Summary:         get(1),
		KeyInsights:     get(2),
		SuggestedTags:   get(3),
		NotableFeatures: get(4),
	}

	if a.Summary == "" {
		if len(raw) > summaryFallbackLen {
			a.Summary = raw[:summaryFallbackLen]
		} else {
			a.Summary = raw
		}
	}

	return a
}
