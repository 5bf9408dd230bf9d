package vectordb

import (
	"context"
	"fmt"
	"strconv"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/contextdeck/contextdeck/internal/embeddings"
)

const collectionName = "library"

// snapshotFile is the export filename used by Persist and Load.
const snapshotFile = "chromem.gob.gz"

// ChromemStore implements VectorStore using chromem-go.
type ChromemStore struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   embeddings.Embedder
	embedFunc  chromem.EmbeddingFunc
}

// NewChromemStore creates a new in-memory ChromemStore.
func NewChromemStore(embedder embeddings.Embedder) (*ChromemStore, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &ChromemStore{
		db:         db,
		collection: col,
		embedder:   embedder,
		embedFunc:  ef,
	}, nil
}

func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	chromDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromDocs[i] = chromem.Document{
			ID:       doc.ID,
			Content:  doc.Content,
			Metadata: metadataToMap(doc.Metadata),
		}
	}

	return s.collection.AddDocuments(ctx, chromDocs, 1)
}

func (s *ChromemStore) Search(ctx context.Context, query string, limit int, filter *SearchFilter) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}

	// chromem-go requires nResults <= collection size.
	count := s.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := s.collection.Query(ctx, query, limit, buildWhereClause(filter), nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	searchResults := make([]SearchResult, len(results))
	for i, r := range results {
		searchResults[i] = SearchResult{
			Document: Document{
				ID:       r.ID,
				Content:  r.Content,
				Metadata: mapToMetadata(r.Metadata),
			},
			Similarity: r.Similarity,
		}
	}

	return searchResults, nil
}

func (s *ChromemStore) DeleteByContextID(ctx context.Context, contextID string) error {
	if s.collection.Count() == 0 {
		return nil
	}
	where := map[string]string{"context_id": contextID}
	return s.collection.Delete(ctx, where, nil)
}

func (s *ChromemStore) Persist(ctx context.Context, dir string) error {
	return s.db.ExportToFile(dir+"/"+snapshotFile, true, "")
}

func (s *ChromemStore) Load(ctx context.Context, dir string) error {
	err := s.db.ImportFromFile(dir+"/"+snapshotFile, "")
	if err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire collection reference after import.
	col := s.db.GetCollection(collectionName, s.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) Count() int {
	return s.collection.Count()
}

// metadataToMap converts DocumentMetadata to a flat map[string]string for chromem.
func metadataToMap(m DocumentMetadata) map[string]string {
	return map[string]string{
		"context_id":  m.ContextID,
		"name":        m.Name,
		"kind":        m.Kind,
		"type":        string(m.Type),
		"chunk_index": strconv.Itoa(m.ChunkIndex),
		"indexed_at":  m.IndexedAt.Format(time.RFC3339),
	}
}

// mapToMetadata converts a flat map[string]string back to DocumentMetadata.
func mapToMetadata(m map[string]string) DocumentMetadata {
	chunkIndex, _ := strconv.Atoi(m["chunk_index"])
	indexedAt, _ := time.Parse(time.RFC3339, m["indexed_at"])

	return DocumentMetadata{
		ContextID:  m["context_id"],
		Name:       m["name"],
		Kind:       m["kind"],
		Type:       DocumentType(m["type"]),
		ChunkIndex: chunkIndex,
		IndexedAt:  indexedAt,
	}
}

// buildWhereClause converts a SearchFilter to a chromem where clause.
func buildWhereClause(filter *SearchFilter) map[string]string {
	if filter == nil {
		return nil
	}

	where := make(map[string]string)
	if filter.Type != nil {
		where["type"] = string(*filter.Type)
	}
	if filter.ContextID != nil {
		where["context_id"] = *filter.ContextID
	}
	if filter.Kind != nil {
		where["kind"] = *filter.Kind
	}

	if len(where) == 0 {
		return nil
	}
	return where
}
