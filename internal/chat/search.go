package chat

import (
	"context"
	"log"
	"strings"

	"github.com/contextdeck/contextdeck/internal/media"
)

// maxSources caps how many media contexts ground a single answer.
const maxSources = 5

// findSources locates the media contexts most relevant to a question.
// Keyword matches over annotations come first; semantic hits from the
// vector store fill the remaining slots when an embedder is configured.
func (s *Service) findSources(ctx context.Context, question string) ([]media.Context, error) {
	terms := strings.Fields(strings.ToLower(question))

	matches, err := s.media.SearchContexts(ctx, terms)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(matches))
	for _, mc := range matches {
		seen[mc.ID] = true
	}

	if s.vector != nil && len(matches) < maxSources {
		results, err := s.vector.Search(ctx, question, maxSources, nil)
		if err != nil {
			// Semantic search is an enhancement; keyword results stand alone.
			log.Printf("chat: semantic search: %v", err)
		}
		for _, r := range results {
			id := r.Document.Metadata.ContextID
			if id == "" || seen[id] {
				continue
			}
			mc, err := s.media.GetContext(ctx, id)
			if err != nil {
				continue
			}
			seen[id] = true
			matches = append(matches, *mc)
		}
	}

	if len(matches) > maxSources {
		matches = matches[:maxSources]
	}
	return matches, nil
}
