package vectordb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/contextdeck/contextdeck/internal/media"
)

// Indexer feeds finished annotations into a VectorStore so they become
// semantically searchable. It satisfies the annotation pipeline's indexer
// seam.
type Indexer struct {
	store VectorStore
}

// NewIndexer creates an Indexer over the given store.
func NewIndexer(store VectorStore) *Indexer {
	return &Indexer{store: store}
}

// IndexContext stores the whole-context annotation of a media item.
func (ix *Indexer) IndexContext(ctx context.Context, mc *media.Context) error {
	content := annotationText(mc.Name, mc.UserTags, mc.Annotation)
	if content == "" {
		return nil
	}
	return ix.store.AddDocuments(ctx, []Document{{
		ID:      mc.ID,
		Content: content,
		Metadata: DocumentMetadata{
			ContextID: mc.ID,
			Name:      mc.Name,
			Kind:      string(mc.Kind),
			Type:      DocTypeContext,
			IndexedAt: time.Now().UTC(),
		},
	}})
}

// IndexChunk stores the annotation of a single chunk.
func (ix *Indexer) IndexChunk(ctx context.Context, mc *media.Context, ch *media.Chunk) error {
	content := annotationText(mc.Name, "", ch.Annotation)
	if content == "" {
		return nil
	}
	return ix.store.AddDocuments(ctx, []Document{{
		ID:      fmt.Sprintf("%s:%d", mc.ID, ch.Index),
		Content: content,
		Metadata: DocumentMetadata{
			ContextID:  mc.ID,
			Name:       mc.Name,
			Kind:       string(mc.Kind),
			Type:       DocTypeChunk,
			ChunkIndex: ch.Index,
			IndexedAt:  time.Now().UTC(),
		},
	}})
}

// Remove drops all documents for a media context, e.g. after deletion.
func (ix *Indexer) Remove(ctx context.Context, contextID string) error {
	return ix.store.DeleteByContextID(ctx, contextID)
}

func annotationText(name, tags string, a media.Annotation) string {
	var parts []string
	if name != "" {
		parts = append(parts, name)
	}
	if tags != "" {
		parts = append(parts, tags)
	}
	for _, field := range []string{a.Summary, a.KeyInsights, a.SuggestedTags, a.NotableFeatures} {
		if field != "" {
			parts = append(parts, field)
		}
	}
	if len(parts) <= 1 && a.IsEmpty() {
		return ""
	}
	return strings.Join(parts, "\n")
}
