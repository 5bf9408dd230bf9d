package pages

import "time"

// Status is the lifecycle state of a generated page.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// Template selects the layout style the generator asks the model for.
type Template string

const (
	TemplateReport    Template = "report"
	TemplateBlog      Template = "blog"
	TemplateDocs      Template = "docs"
	TemplatePortfolio Template = "portfolio"
	TemplateLanding   Template = "landing"
)

// Page is a generated HTML page built from media context annotations.
type Page struct {
	ID           string     `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	HTMLContent  string     `json:"html_content,omitempty"`
	Prompt       string     `json:"prompt"`
	ContextIDs   []string   `json:"media_context_ids"`
	Status       Status     `json:"status"`
	FileSize     int64      `json:"file_size"`
	ViewCount    int        `json:"view_count"`
	LastViewedAt *time.Time `json:"last_viewed_at,omitempty"`
}

// ValidStatus reports whether s is a known page status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ValidTemplate reports whether t is a known page template.
func ValidTemplate(t Template) bool {
	switch t {
	case TemplateReport, TemplateBlog, TemplateDocs, TemplatePortfolio, TemplateLanding:
		return true
	}
	return false
}
