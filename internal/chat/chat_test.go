package chat

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/contextdeck/contextdeck/internal/db"
	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
)

type mockProvider struct {
	response string
	lastReq  llm.CompletionRequest
	calls    int
}

func (m *mockProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	m.lastReq = req
	m.calls++
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

func seedLibrary(t *testing.T, mediaStore *media.Store) *media.Context {
	t.Helper()
	mc := &media.Context{
		Name: "budget-2026.md",
		Kind: media.KindText,
		Annotation: media.Annotation{
			Summary:     "Annual budget breakdown with department allocations.",
			KeyInsights: "Engineering gets the largest allocation.",
		},
	}
	if err := mediaStore.CreateContext(context.Background(), mc); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return mc
}

func TestStoreSessionAndMessages(t *testing.T) {
	store, _ := setup(t)

	session := &Session{Title: "budget questions"}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	msgs := []*Message{
		{SessionID: session.ID, Role: RoleUser, Content: "first"},
		{SessionID: session.ID, Role: RoleAssistant, Content: "second", SourceIDs: []string{"a"}},
	}
	for _, m := range msgs {
		if err := store.CreateMessage(context.Background(), m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	got, err := store.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("order wrong: %v", got)
	}
	if len(got[1].SourceIDs) != 1 || got[1].SourceIDs[0] != "a" {
		t.Errorf("source ids = %v", got[1].SourceIDs)
	}
}

func TestListMessagesOrdersSubSecondBursts(t *testing.T) {
	store, _ := setup(t)

	session := &Session{Title: "burst"}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// The later fraction extends the earlier one, so a variable-width
	// encoding would reverse them under the column's TEXT comparison.
	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	msgs := []*Message{
		{SessionID: session.ID, Role: RoleUser, Content: "first", CreatedAt: base.Add(123 * time.Millisecond)},
		{SessionID: session.ID, Role: RoleAssistant, Content: "second", CreatedAt: base.Add(123*time.Millisecond + 400*time.Microsecond)},
	}
	for _, m := range msgs {
		if err := store.CreateMessage(context.Background(), m); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	got, err := store.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].Content != "first" || got[1].Content != "second" {
		t.Errorf("order wrong: got %q, %q", got[0].Content, got[1].Content)
	}
}

func TestStoreDeleteSessionCascades(t *testing.T) {
	store, _ := setup(t)

	session := &Session{Title: "t"}
	if err := store.CreateSession(context.Background(), session); err != nil {
		t.Fatalf("create session: %v", err)
	}
	m := &Message{SessionID: session.ID, Role: RoleUser, Content: "hi"}
	if err := store.CreateMessage(context.Background(), m); err != nil {
		t.Fatalf("create message: %v", err)
	}

	if err := store.DeleteSession(context.Background(), session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	msgs, err := store.ListMessages(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("messages survived session delete: %v", msgs)
	}
}

func TestAskGroundsAnswerOnMatches(t *testing.T) {
	store, mediaStore := setup(t)
	mc := seedLibrary(t, mediaStore)

	provider := &mockProvider{response: "The engineering department has the largest budget."}
	svc := NewService(provider, "test-model", store, mediaStore, nil)

	reply, err := svc.Ask(context.Background(), "", "what does the budget say about engineering?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if reply.Role != RoleAssistant {
		t.Errorf("role = %s", reply.Role)
	}
	if len(reply.SourceIDs) != 1 || reply.SourceIDs[0] != mc.ID {
		t.Errorf("source ids = %v", reply.SourceIDs)
	}

	prompt := provider.lastReq.Messages[len(provider.lastReq.Messages)-1].Content
	if !strings.Contains(prompt, "budget-2026.md") {
		t.Error("prompt should name the matched source")
	}
	if !strings.Contains(prompt, "Annual budget breakdown") {
		t.Error("prompt should include the source summary")
	}
}

func TestAskWithoutMatchesSkipsModel(t *testing.T) {
	store, mediaStore := setup(t)

	provider := &mockProvider{response: "should not be used"}
	svc := NewService(provider, "test-model", store, mediaStore, nil)

	reply, err := svc.Ask(context.Background(), "", "zzzqqqxxx")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if provider.calls != 0 {
		t.Error("model must not be called when nothing matches")
	}
	if !strings.Contains(reply.Content, "couldn't find") {
		t.Errorf("reply = %q", reply.Content)
	}
	if len(reply.SourceIDs) != 0 {
		t.Errorf("source ids = %v", reply.SourceIDs)
	}
}

func TestAskCreatesSessionTitledAfterQuestion(t *testing.T) {
	store, mediaStore := setup(t)
	seedLibrary(t, mediaStore)

	provider := &mockProvider{response: "answer"}
	svc := NewService(provider, "test-model", store, mediaStore, nil)

	reply, err := svc.Ask(context.Background(), "", "budget allocations?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}

	session, err := store.GetSession(context.Background(), reply.SessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if session.Title != "budget allocations?" {
		t.Errorf("title = %q", session.Title)
	}

	msgs, _ := store.ListMessages(context.Background(), session.ID)
	if len(msgs) != 2 {
		t.Errorf("expected question and answer stored, got %d", len(msgs))
	}
}

func TestAskReplaysHistory(t *testing.T) {
	store, mediaStore := setup(t)
	seedLibrary(t, mediaStore)

	provider := &mockProvider{response: "answer"}
	svc := NewService(provider, "test-model", store, mediaStore, nil)

	first, err := svc.Ask(context.Background(), "", "tell me about the budget")
	if err != nil {
		t.Fatalf("first ask: %v", err)
	}
	if _, err := svc.Ask(context.Background(), first.SessionID, "and what about budget insights?"); err != nil {
		t.Fatalf("second ask: %v", err)
	}

	var sawHistory bool
	for _, m := range provider.lastReq.Messages {
		if m.Role == llm.RoleUser && strings.Contains(m.Content, "tell me about the budget") {
			sawHistory = true
		}
	}
	if !sawHistory {
		t.Error("second call should replay the first question")
	}
}

func TestSearchContextsMatchesChunkAnnotations(t *testing.T) {
	_, mediaStore := setup(t)

	mc := &media.Context{Name: "long-doc.md", Kind: media.KindText}
	if err := mediaStore.CreateContext(context.Background(), mc); err != nil {
		t.Fatalf("create: %v", err)
	}
	ch := &media.Chunk{
		ContextID:  mc.ID,
		Index:      0,
		Annotation: media.Annotation{Summary: "Mentions the xylophone project."},
	}
	if err := mediaStore.CreateChunk(context.Background(), ch); err != nil {
		t.Fatalf("create chunk: %v", err)
	}

	got, err := mediaStore.SearchContexts(context.Background(), []string{"xylophone"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].ID != mc.ID {
		t.Errorf("got = %v", got)
	}
}
