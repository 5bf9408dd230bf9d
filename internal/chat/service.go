package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/contextdeck/contextdeck/internal/llm"
	"github.com/contextdeck/contextdeck/internal/media"
	"github.com/contextdeck/contextdeck/internal/vectordb"
)

// noSourcesReply is returned without calling the model when nothing in the
// library matches the question.
const noSourcesReply = "I couldn't find any media files related to your query. Try uploading some documents, images, or videos first, or ask about something else!"

const answerSystemPrompt = `You are an assistant answering questions about a user's media library. Answer using only the provided sources. When a source is relevant, mention it by name. If the sources do not contain the answer, say so.`

// historyWindow is how many prior messages are replayed to the model.
const historyWindow = 10

// maxTitleLen bounds the session title derived from the first question.
const maxTitleLen = 60

// Service answers questions about the media library, grounding each answer
// on annotation search results.
type Service struct {
	provider llm.Provider
	model    string
	store    *Store
	media    *media.Store
	vector   vectordb.VectorStore
}

// NewService creates a Service. vector may be nil, in which case only
// keyword search is used.
func NewService(provider llm.Provider, model string, store *Store, mediaStore *media.Store, vector vectordb.VectorStore) *Service {
	return &Service{
		provider: provider,
		model:    model,
		store:    store,
		media:    mediaStore,
		vector:   vector,
	}
}

// Ask records the question in the session, searches the library, and
// returns the stored assistant reply. An empty sessionID starts a new
// session titled after the question.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*Message, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is required")
	}

	session, err := s.ensureSession(ctx, sessionID, question)
	if err != nil {
		return nil, err
	}

	userMsg := &Message{SessionID: session.ID, Role: RoleUser, Content: question}
	if err := s.store.CreateMessage(ctx, userMsg); err != nil {
		return nil, err
	}

	sources, err := s.findSources(ctx, question)
	if err != nil {
		return nil, err
	}

	var reply *Message
	if len(sources) == 0 {
		reply = &Message{SessionID: session.ID, Role: RoleAssistant, Content: noSourcesReply}
	} else {
		content, err := s.answer(ctx, session.ID, question, sources)
		if err != nil {
			return nil, err
		}
		ids := make([]string, len(sources))
		for i, mc := range sources {
			ids[i] = mc.ID
		}
		reply = &Message{SessionID: session.ID, Role: RoleAssistant, Content: content, SourceIDs: ids}
	}

	if err := s.store.CreateMessage(ctx, reply); err != nil {
		return nil, err
	}
	if err := s.store.TouchSession(ctx, session.ID); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *Service) ensureSession(ctx context.Context, sessionID, question string) (*Session, error) {
	if sessionID != "" {
		return s.store.GetSession(ctx, sessionID)
	}

	title := question
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen]
	}
	session := &Session{Title: title}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// answer builds the grounded prompt and calls the model. Recent session
// history is replayed so follow-up questions keep their context.
func (s *Service) answer(ctx context.Context, sessionID, question string, sources []media.Context) (string, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: answerSystemPrompt},
	}

	history, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return "", err
	}
	// The just-inserted user question is replayed below with the sources
	// attached, so drop it from the history tail.
	if n := len(history); n > 0 && history[n-1].Role == RoleUser {
		history = history[:n-1]
	}
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	for _, m := range history {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	messages = append(messages, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("Sources:\n\n%s\nQuestion: %s", sourcesDigest(sources), question),
	})

	if s.provider == nil {
		return "", fmt.Errorf("no model provider configured")
	}
	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:    s.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	return resp.Content, nil
}

func sourcesDigest(sources []media.Context) string {
	var b strings.Builder
	for i, mc := range sources {
		fmt.Fprintf(&b, "Source %d: %s (%s)\n", i+1, mc.Name, mc.Kind)
		if mc.Annotation.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", mc.Annotation.Summary)
		}
		if mc.Annotation.KeyInsights != "" {
			fmt.Fprintf(&b, "Key insights: %s\n", mc.Annotation.KeyInsights)
		}
		if mc.UserTags != "" {
			fmt.Fprintf(&b, "Tags: %s\n", mc.UserTags)
		}
		b.WriteString("\n")
	}
	return b.String()
}
