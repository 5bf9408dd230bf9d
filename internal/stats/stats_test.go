package stats

import (
	"context"
	"testing"

	"github.com/contextdeck/contextdeck/internal/db"
)

func setupService(t *testing.T) (*Service, *db.DB) {
	t.Helper()

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	return NewService(database), database
}

func seedContext(t *testing.T, database *db.DB, id, kind string, size int64, summary, tags string) {
	t.Helper()
	_, err := database.Exec(`
		INSERT INTO media_contexts (id, name, kind, size, summary, suggested_tags)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, id+".txt", kind, size, summary, tags)
	if err != nil {
		t.Fatalf("seeding context: %v", err)
	}
}

func TestCollectEmpty(t *testing.T) {
	svc, _ := setupService(t)

	ov, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if ov.TotalContexts != 0 {
		t.Errorf("expected 0 contexts, got %d", ov.TotalContexts)
	}
	if ov.TotalSizeHuman == "" {
		t.Error("expected a humanized size even when empty")
	}
	if ov.AnnotationCoverage != 0 {
		t.Errorf("expected zero coverage, got %f", ov.AnnotationCoverage)
	}
	if ov.UploadsPerDay == nil || ov.TopTags == nil {
		t.Error("expected non-nil slices in empty overview")
	}
}

func TestCollectTotals(t *testing.T) {
	svc, database := setupService(t)

	seedContext(t, database, "a", "text", 1024, "a summary", "")
	seedContext(t, database, "b", "image", 2048, "", "")
	seedContext(t, database, "c", "text", 512, "", "")

	ov, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if ov.TotalContexts != 3 {
		t.Errorf("expected 3 contexts, got %d", ov.TotalContexts)
	}
	if ov.TotalSize != 3584 {
		t.Errorf("expected total size 3584, got %d", ov.TotalSize)
	}
	if ov.TotalSizeHuman == "" {
		t.Error("expected humanized size")
	}
	if ov.CountsByKind["text"] != 2 || ov.CountsByKind["image"] != 1 {
		t.Errorf("unexpected kind counts: %v", ov.CountsByKind)
	}
	if len(ov.UploadsPerDay) != 1 {
		t.Fatalf("expected 1 day bucket, got %d", len(ov.UploadsPerDay))
	}
	if ov.UploadsPerDay[0].Count != 3 {
		t.Errorf("expected 3 uploads today, got %d", ov.UploadsPerDay[0].Count)
	}
}

func TestCollectCoverage(t *testing.T) {
	svc, database := setupService(t)

	seedContext(t, database, "annotated", "text", 10, "has a summary", "")
	seedContext(t, database, "chunked", "text", 10, "", "")
	seedContext(t, database, "bare", "image", 10, "", "")

	_, err := database.Exec(`
		INSERT INTO media_chunks (id, media_context_id, chunk_index, summary)
		VALUES ('ch1', 'chunked', 0, 'chunk summary')`)
	if err != nil {
		t.Fatalf("seeding chunk: %v", err)
	}

	ov, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if ov.TotalChunks != 1 {
		t.Errorf("expected 1 chunk, got %d", ov.TotalChunks)
	}
	if ov.AnnotatedContexts != 2 {
		t.Errorf("expected 2 annotated contexts, got %d", ov.AnnotatedContexts)
	}
	want := 2.0 / 3.0
	if ov.AnnotationCoverage < want-0.001 || ov.AnnotationCoverage > want+0.001 {
		t.Errorf("expected coverage ~%f, got %f", want, ov.AnnotationCoverage)
	}
}

func TestCollectTopTags(t *testing.T) {
	svc, database := setupService(t)

	seedContext(t, database, "a", "text", 10, "", "go, databases")
	seedContext(t, database, "b", "text", 10, "", "Go, testing")
	seedContext(t, database, "c", "text", 10, "", "go")

	_, err := database.Exec(`
		INSERT INTO media_chunks (id, media_context_id, chunk_index, suggested_tags)
		VALUES ('ch1', 'a', 0, 'databases, sqlite')`)
	if err != nil {
		t.Fatalf("seeding chunk: %v", err)
	}

	ov, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if len(ov.TopTags) == 0 {
		t.Fatal("expected tags in the leaderboard")
	}
	if ov.TopTags[0].Tag != "go" || ov.TopTags[0].Count != 3 {
		t.Errorf("expected go x3 on top, got %s x%d", ov.TopTags[0].Tag, ov.TopTags[0].Count)
	}

	found := false
	for _, tc := range ov.TopTags {
		if tc.Tag == "databases" && tc.Count == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected databases counted across contexts and chunks: %v", ov.TopTags)
	}
}

func TestCollectPages(t *testing.T) {
	svc, database := setupService(t)

	_, err := database.Exec(`
		INSERT INTO generated_pages (id, name, html_content, status) VALUES
		('p1', 'draft page', '<html></html>', 'draft'),
		('p2', 'live page', '<html></html>', 'published')`)
	if err != nil {
		t.Fatalf("seeding pages: %v", err)
	}

	ov, err := svc.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	if ov.TotalPages != 2 {
		t.Errorf("expected 2 pages, got %d", ov.TotalPages)
	}
	if ov.PublishedPages != 1 {
		t.Errorf("expected 1 published page, got %d", ov.PublishedPages)
	}
}
