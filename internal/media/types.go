package media

import (
	"path/filepath"
	"strings"
	"time"
)

// Kind categorizes an uploaded or imported piece of content.
type Kind string

const (
	KindText     Kind = "text"
	KindImage    Kind = "image"
	KindVideo    Kind = "video"
	KindDocument Kind = "document"
)

// Context is a single unit of content in the library. Name and UserTags may
// be edited after creation; everything else is set at upload time. The four
// annotation fields are filled by a single-pass annotation when the content
// is short enough to not require chunking.
type Context struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	Name         string     `json:"name"`
	Kind         Kind       `json:"kind"`
	Size         int64      `json:"size"`
	FileURL      string     `json:"file_url,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	UserTags     string     `json:"user_tags,omitempty"`
	Annotation   Annotation `json:"annotation"`
}

// Chunk is a contiguous slice of a Context's text, annotated independently.
// Chunks are immutable once written; a failed annotation leaves a hole in
// the stored index sequence rather than a placeholder row, so readers must
// not assume indices are gap-free.
type Chunk struct {
	ID         string     `json:"id"`
	ContextID  string     `json:"media_context_id"`
	Index      int        `json:"chunk_index"`
	Preview    string     `json:"preview,omitempty"`
	Annotation Annotation `json:"annotation"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Annotation is the four-field structured result parsed from the
// text-understanding service's free-form response.
type Annotation struct {
	Summary         string `json:"summary,omitempty"`
	KeyInsights     string `json:"key_insights,omitempty"`
	SuggestedTags   string `json:"suggested_tags,omitempty"`
	NotableFeatures string `json:"notable_features,omitempty"`
}

// IsEmpty reports whether no annotation field is set.
func (a Annotation) IsEmpty() bool {
	return a.Summary == "" && a.KeyInsights == "" && a.SuggestedTags == "" && a.NotableFeatures == ""
}

// textExtensions are file extensions treated as plain text for chunked
// annotation.
var textExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".csv":  true,
	".json": true,
	".xml":  true,
}

// DetectKind classifies a file by its MIME type and name.
func DetectKind(mimeType, name string) Kind {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return KindVideo
	case strings.Contains(mimeType, "text"), strings.Contains(mimeType, "markdown"):
		return KindText
	}
	if textExtensions[strings.ToLower(filepath.Ext(name))] {
		return KindText
	}
	return KindDocument
}
