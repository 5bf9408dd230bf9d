package pages

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/contextdeck/contextdeck/internal/db"
	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
)

type mockProvider struct {
	response string
	lastReq  llm.CompletionRequest
}

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.lastReq = req
	return &llm.CompletionResponse{Content: m.response}, nil
}

func (m *mockProvider) Name() string { return "mock" }

func setup(t *testing.T) (*Store, *media.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database), media.NewStore(database)
}

func seedContext(t *testing.T, mediaStore *media.Store) *media.Context {
	t.Helper()
	mc := &media.Context{
		Name: "notes.md",
		Kind: media.KindText,
		Annotation: media.Annotation{
			Summary:     "Meeting notes from the planning session.",
			KeyInsights: "Launch slips to Q3.",
		},
	}
	if err := mediaStore.CreateContext(context.Background(), mc); err != nil {
		t.Fatalf("seed context: %v", err)
	}
	return mc
}

func TestStoreCreateAndGet(t *testing.T) {
	store, _ := setup(t)

	p := &Page{
		Name:        "Q3 Report",
		HTMLContent: "<!DOCTYPE html><html><body>hi</body></html>",
		ContextIDs:  []string{"a", "b"},
		FileSize:    44,
	}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := store.GetPage(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusDraft {
		t.Errorf("status = %s", got.Status)
	}
	if len(got.ContextIDs) != 2 || got.ContextIDs[0] != "a" {
		t.Errorf("context ids = %v", got.ContextIDs)
	}
}

func TestStoreListOmitsHTML(t *testing.T) {
	store, _ := setup(t)

	p := &Page{Name: "p1", HTMLContent: "<html>big</html>"}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	list, err := store.ListPages(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("len = %d", len(list))
	}
	if list[0].HTMLContent != "" {
		t.Error("list should omit html content")
	}
}

func TestStoreStatusTransitions(t *testing.T) {
	store, _ := setup(t)

	p := &Page{Name: "p1", HTMLContent: "<html></html>"}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := store.SetStatus(context.Background(), p.ID, StatusPublished); err != nil {
		t.Fatalf("publish: %v", err)
	}
	got, _ := store.GetPage(context.Background(), p.ID)
	if got.Status != StatusPublished {
		t.Errorf("status = %s", got.Status)
	}

	if err := store.SetStatus(context.Background(), "missing", StatusArchived); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}

func TestStoreRecordView(t *testing.T) {
	store, _ := setup(t)

	p := &Page{Name: "p1", HTMLContent: "<html></html>"}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.RecordView(context.Background(), p.ID); err != nil {
			t.Fatalf("record view: %v", err)
		}
	}
	got, _ := store.GetPage(context.Background(), p.ID)
	if got.ViewCount != 3 {
		t.Errorf("view count = %d", got.ViewCount)
	}
	if got.LastViewedAt == nil {
		t.Error("expected last_viewed_at to be set")
	}
}

func TestGeneratePassesAnnotationsToModel(t *testing.T) {
	store, mediaStore := setup(t)
	mc := seedContext(t, mediaStore)

	provider := &mockProvider{response: "<!DOCTYPE html><html><body>page</body></html>"}
	gen := NewGenerator(provider, mediaStore, store, "test-model")

	page, err := gen.Generate(context.Background(), GenerateRequest{
		Name:       "Planning Summary",
		Template:   TemplateReport,
		ContextIDs: []string{mc.ID},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	prompt := provider.lastReq.Messages[len(provider.lastReq.Messages)-1].Content
	if !strings.Contains(prompt, "Meeting notes from the planning session.") {
		t.Error("prompt should include the source summary")
	}
	if !strings.Contains(prompt, "notes.md") {
		t.Error("prompt should name the source file")
	}
	if page.FileSize != int64(len(page.HTMLContent)) {
		t.Errorf("file size = %d, html = %d", page.FileSize, len(page.HTMLContent))
	}
}

func TestGenerateStripsCodeFence(t *testing.T) {
	store, mediaStore := setup(t)
	mc := seedContext(t, mediaStore)

	provider := &mockProvider{response: "```html\n<!DOCTYPE html><html><body>x</body></html>\n```"}
	gen := NewGenerator(provider, mediaStore, store, "test-model")

	page, err := gen.Generate(context.Background(), GenerateRequest{
		Name:       "Fenced",
		ContextIDs: []string{mc.ID},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if strings.Contains(page.HTMLContent, "```") {
		t.Errorf("fence not stripped: %q", page.HTMLContent)
	}
	if !strings.HasPrefix(page.HTMLContent, "<!DOCTYPE html") {
		t.Errorf("html = %q", page.HTMLContent)
	}
}

func TestGenerateRendersMarkdownFallback(t *testing.T) {
	store, mediaStore := setup(t)
	mc := seedContext(t, mediaStore)

	provider := &mockProvider{response: "# Heading\n\nSome prose."}
	gen := NewGenerator(provider, mediaStore, store, "test-model")

	page, err := gen.Generate(context.Background(), GenerateRequest{
		Name:       "Markdown",
		ContextIDs: []string{mc.ID},
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(page.HTMLContent, "<h1") {
		t.Errorf("markdown not rendered: %q", page.HTMLContent)
	}
	if !strings.Contains(page.HTMLContent, "<!DOCTYPE html") {
		t.Error("markdown fallback should wrap in a document shell")
	}
}

func TestGenerateValidation(t *testing.T) {
	store, mediaStore := setup(t)
	provider := &mockProvider{response: "<html></html>"}
	gen := NewGenerator(provider, mediaStore, store, "test-model")

	if _, err := gen.Generate(context.Background(), GenerateRequest{ContextIDs: []string{"x"}}); err == nil {
		t.Error("expected error for missing name")
	}
	if _, err := gen.Generate(context.Background(), GenerateRequest{Name: "p"}); err == nil {
		t.Error("expected error for missing context ids")
	}
	if _, err := gen.Generate(context.Background(), GenerateRequest{
		Name: "p", Template: "poster", ContextIDs: []string{"x"},
	}); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRoutesViewCountsAndServesHTML(t *testing.T) {
	store, mediaStore := setup(t)
	_ = mediaStore

	p := &Page{Name: "p1", HTMLContent: "<!DOCTYPE html><html><body>served</body></html>"}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/pages/"+p.ID+"/view", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %s", ct)
	}
	if !strings.Contains(rec.Body.String(), "served") {
		t.Errorf("body = %q", rec.Body.String())
	}

	got, _ := store.GetPage(context.Background(), p.ID)
	if got.ViewCount != 1 {
		t.Errorf("view count = %d", got.ViewCount)
	}
}

func TestRoutesPublish(t *testing.T) {
	store, _ := setup(t)

	p := &Page{Name: "p1", HTMLContent: "<html></html>"}
	if err := store.CreatePage(context.Background(), p); err != nil {
		t.Fatalf("create: %v", err)
	}

	r := chi.NewRouter()
	RegisterRoutes(r, store, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/pages/"+p.ID+"/publish", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got Page
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusPublished {
		t.Errorf("status = %s", got.Status)
	}
}
