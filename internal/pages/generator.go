package pages

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
)

// Recorder logs generator milestones to the activity feed.
type Recorder interface {
	Record(ctx context.Context, action, subjectID, subjectName, detail string) error
}

// GenerateRequest describes a page to generate.
type GenerateRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Template    Template `json:"template"`
	ContextIDs  []string `json:"media_context_ids"`
}

// Generator builds HTML pages from media context annotations via the LLM
// provider.
type Generator struct {
	provider llm.Provider
	media    *media.Store
	store    *Store
	model    string
	recorder Recorder
	md       goldmark.Markdown
}

// NewGenerator creates a Generator.
func NewGenerator(provider llm.Provider, mediaStore *media.Store, store *Store, model string) *Generator {
	return &Generator{
		provider: provider,
		media:    mediaStore,
		store:    store,
		model:    model,
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// SetRecorder sets the activity recorder.
func (g *Generator) SetRecorder(rec Recorder) {
	g.recorder = rec
}

// Generate builds a page from the annotations of the requested contexts,
// persists it as a draft, and returns it.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest) (*Page, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("page name is required")
	}
	if req.Template == "" {
		req.Template = TemplateReport
	}
	if !ValidTemplate(req.Template) {
		return nil, fmt.Errorf("unknown template %q", req.Template)
	}
	if len(req.ContextIDs) == 0 {
		return nil, fmt.Errorf("at least one media context is required")
	}

	digest, err := g.buildDigest(ctx, req.ContextIDs)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(generatePromptTemplate,
		req.Name, templateInstructions[req.Template], req.Prompt, digest)

	resp, err := g.provider.Complete(ctx, llm.CompletionRequest{
		Model: g.model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: generateSystemPrompt},
			{Role: llm.RoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("generating page: %w", err)
	}

	htmlContent, err := g.toHTML(req.Name, resp.Content)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Name:        req.Name,
		Description: req.Description,
		HTMLContent: htmlContent,
		Prompt:      req.Prompt,
		ContextIDs:  req.ContextIDs,
		Status:      StatusDraft,
		FileSize:    int64(len(htmlContent)),
	}
	if err := g.store.CreatePage(ctx, page); err != nil {
		return nil, err
	}

	if g.recorder != nil {
		if err := g.recorder.Record(ctx, "page_generated", page.ID, page.Name, ""); err != nil {
			log.Printf("pages: record activity for %s: %v", page.ID, err)
		}
	}
	return page, nil
}

// buildDigest renders the annotations of the requested contexts into the
// source block the prompt embeds. Chunked contexts contribute their
// per-chunk summaries.
func (g *Generator) buildDigest(ctx context.Context, ids []string) (string, error) {
	var b strings.Builder

	for i, id := range ids {
		mc, err := g.media.GetContext(ctx, id)
		if err != nil {
			return "", fmt.Errorf("media context %s: %w", id, err)
		}

		fmt.Fprintf(&b, "Source %d: %s (%s)\n", i+1, mc.Name, mc.Kind)
		if mc.UserTags != "" {
			fmt.Fprintf(&b, "Tags: %s\n", mc.UserTags)
		}
		writeAnnotation(&b, mc.Annotation)

		chunks, err := g.media.ListChunks(ctx, id)
		if err != nil {
			return "", fmt.Errorf("chunks for %s: %w", id, err)
		}
		for _, ch := range chunks {
			fmt.Fprintf(&b, "Part %d summary: %s\n", ch.Index+1, ch.Annotation.Summary)
			if ch.Annotation.KeyInsights != "" {
				fmt.Fprintf(&b, "Part %d insights: %s\n", ch.Index+1, ch.Annotation.KeyInsights)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func writeAnnotation(b *strings.Builder, a media.Annotation) {
	if a.Summary != "" {
		fmt.Fprintf(b, "Summary: %s\n", a.Summary)
	}
	if a.KeyInsights != "" {
		fmt.Fprintf(b, "Key insights: %s\n", a.KeyInsights)
	}
	if a.SuggestedTags != "" {
		fmt.Fprintf(b, "Suggested tags: %s\n", a.SuggestedTags)
	}
	if a.NotableFeatures != "" {
		fmt.Fprintf(b, "Notable features: %s\n", a.NotableFeatures)
	}
}

// toHTML normalizes the model output into a servable HTML document. Code
// fences are stripped; markdown output is rendered through goldmark and
// wrapped in a minimal document shell.
func (g *Generator) toHTML(title, raw string) (string, error) {
	content := stripCodeFence(raw)

	if looksLikeHTML(content) {
		return content, nil
	}

	var buf bytes.Buffer
	if err := g.md.Convert([]byte(content), &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return fmt.Sprintf(pageShell, template.HTMLEscapeString(title), buf.String()), nil
}

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 48rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #1f2328; }
pre { background: #f6f8fa; padding: 1rem; border-radius: 6px; overflow-x: auto; }
code { font-size: 0.9em; }
</style>
</head>
<body>
%s
</body>
</html>
`

// stripCodeFence removes a surrounding markdown code fence, with or without
// a language tag, from the model output.
func stripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	lines := strings.SplitN(trimmed, "\n", 2)
	if len(lines) < 2 {
		return trimmed
	}
	body := lines[1]
	if i := strings.LastIndex(body, "```"); i >= 0 {
		body = body[:i]
	}
	return strings.TrimSpace(body)
}

func looksLikeHTML(s string) bool {
	head := strings.ToLower(s)
	if len(head) > 256 {
		head = head[:256]
	}
	return strings.Contains(head, "<!doctype html") || strings.Contains(head, "<html")
}
