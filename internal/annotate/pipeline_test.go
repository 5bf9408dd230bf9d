package annotate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/contextdeck/contextdeck/internal/db"
	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
)

type mockProvider struct {
	mu        sync.Mutex
	calls     []time.Time
	inFlight  int
	maxFlight int
	failAt    map[int]error
}

func (m *mockProvider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.mu.Lock()
	call := len(m.calls)
	m.calls = append(m.calls, time.Now())
	m.inFlight++
	if m.inFlight > m.maxFlight {
		m.maxFlight = m.inFlight
	}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.inFlight--
		m.mu.Unlock()
	}()

	if err, ok := m.failAt[call]; ok {
		return nil, err
	}
	return &llm.CompletionResponse{
		Content:      "1) summary\n2) insights\n3) tags\n4) features",
		InputTokens:  10,
		OutputTokens: 20,
	}, nil
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func setupPipeline(t *testing.T, provider llm.Provider, opts Options) (*Pipeline, *media.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	store := media.NewStore(database)
	return NewPipeline(provider, store, opts), store
}

func textChunks(n, size int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(strings.Repeat("x", size-2))
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestRunSinglePass(t *testing.T) {
	provider := &mockProvider{}
	p, store := setupPipeline(t, provider, Options{MaxChunkSize: 100, ChunkDelay: time.Millisecond})

	mc := &media.Context{Name: "notes.txt", Kind: media.KindText, Size: 11}
	report, err := p.Run(context.Background(), mc, "hello world")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if report.Chunked {
		t.Error("expected single-pass run")
	}
	if provider.callCount() != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.callCount())
	}

	got, err := store.GetContext(context.Background(), mc.ID)
	if err != nil {
		t.Fatalf("get context: %v", err)
	}
	if got.Annotation.Summary != "summary" {
		t.Errorf("summary = %q", got.Annotation.Summary)
	}
	chunks, err := store.ListChunks(context.Background(), mc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("single-pass run should store no chunks, got %d", len(chunks))
	}
}

func TestRunChunkedStoresAllChunks(t *testing.T) {
	provider := &mockProvider{}
	p, store := setupPipeline(t, provider, Options{MaxChunkSize: 100, ChunkDelay: time.Millisecond})

	mc := &media.Context{Name: "big.md", Kind: media.KindText}
	report, err := p.Run(context.Background(), mc, textChunks(4, 100))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !report.Chunked {
		t.Fatal("expected chunked run")
	}
	if len(report.Failed) != 0 {
		t.Fatalf("unexpected failures: %v", report.Failed)
	}

	chunks, err := store.ListChunks(context.Background(), mc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	if len(chunks) != report.ChunksTotal {
		t.Errorf("stored %d chunks, want %d", len(chunks), report.ChunksTotal)
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("chunk %d has index %d", i, ch.Index)
		}
		if ch.Annotation.Summary != "summary" {
			t.Errorf("chunk %d summary = %q", i, ch.Annotation.Summary)
		}
	}
}

func TestRunPartialFailureLeavesGap(t *testing.T) {
	provider := &mockProvider{failAt: map[int]error{2: errors.New("rate limited")}}
	p, store := setupPipeline(t, provider, Options{MaxChunkSize: 100, ChunkDelay: time.Millisecond})

	mc := &media.Context{Name: "big.md", Kind: media.KindText}
	report, err := p.Run(context.Background(), mc, textChunks(5, 100))
	if err != nil {
		t.Fatalf("partial failure must not fail the run: %v", err)
	}
	if len(report.Failed) != 1 || report.Failed[0].Index != 2 {
		t.Fatalf("failed = %v", report.Failed)
	}

	chunks, err := store.ListChunks(context.Background(), mc.ID)
	if err != nil {
		t.Fatalf("list chunks: %v", err)
	}
	var indices []int
	for _, ch := range chunks {
		indices = append(indices, ch.Index)
	}
	want := []int{0, 1, 3, 4}
	if len(indices) != len(want) {
		t.Fatalf("stored indices = %v, want %v", indices, want)
	}
	for i := range want {
		if indices[i] != want[i] {
			t.Fatalf("stored indices = %v, want %v", indices, want)
		}
	}
}

func TestRunSequentialWithDelay(t *testing.T) {
	provider := &mockProvider{}
	delay := 50 * time.Millisecond
	p, _ := setupPipeline(t, provider, Options{MaxChunkSize: 100, ChunkDelay: delay})

	mc := &media.Context{Name: "big.md", Kind: media.KindText}
	start := time.Now()
	report, err := p.Run(context.Background(), mc, textChunks(3, 100))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	elapsed := time.Since(start)

	if provider.maxFlight != 1 {
		t.Errorf("provider saw %d concurrent calls, want 1", provider.maxFlight)
	}
	if min := time.Duration(report.ChunksTotal-1) * delay; elapsed < min {
		t.Errorf("run took %v, want at least %v", elapsed, min)
	}
}

func TestRunCancelledBetweenChunks(t *testing.T) {
	provider := &mockProvider{}
	p, _ := setupPipeline(t, provider, Options{MaxChunkSize: 100, ChunkDelay: 200 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	mc := &media.Context{Name: "big.md", Kind: media.KindText}

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := p.Run(ctx, mc, textChunks(5, 100))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if provider.callCount() >= 5 {
		t.Errorf("expected cancellation to stop the loop, saw %d calls", provider.callCount())
	}
}

func TestRunContextInsertFailureIsFatal(t *testing.T) {
	provider := &mockProvider{}
	p, store := setupPipeline(t, provider, Options{MaxChunkSize: 100})

	mc := &media.Context{Name: "dup.txt", Kind: media.KindText}
	if _, err := p.Run(context.Background(), mc, "hello"); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// Re-inserting the same primary key must abort before any provider call.
	before := provider.callCount()
	dup := &media.Context{ID: mc.ID, Name: "dup.txt", Kind: media.KindText}
	if _, err := p.Run(context.Background(), dup, "hello"); err == nil {
		t.Fatal("expected insert failure to be fatal")
	}
	if provider.callCount() != before {
		t.Error("provider must not be called when the context insert fails")
	}
	_ = store
}

func TestRunReportsProgress(t *testing.T) {
	provider := &mockProvider{}
	p, _ := setupPipeline(t, provider, Options{MaxChunkSize: 100, ChunkDelay: time.Millisecond})

	var mu sync.Mutex
	var stages []string
	p.SetProgressFunc(func(contextID string, done, total int, stage string) {
		mu.Lock()
		stages = append(stages, stage)
		mu.Unlock()
	})

	mc := &media.Context{Name: "big.md", Kind: media.KindText}
	if _, err := p.Run(context.Background(), mc, textChunks(3, 100)); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(stages) == 0 || stages[len(stages)-1] != "done" {
		t.Errorf("stages = %v", stages)
	}
}
