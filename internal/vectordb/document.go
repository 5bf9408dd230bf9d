package vectordb

import "time"

// DocumentType categorizes the kind of document stored in the vector DB.
type DocumentType string

const (
	// DocTypeContext is the whole-context annotation of a media item.
	DocTypeContext DocumentType = "context"
	// DocTypeChunk is the annotation of a single chunk of a large text item.
	DocTypeChunk DocumentType = "chunk"
)

// Document represents a piece of annotated content to be stored and searched.
type Document struct {
	ID       string
	Content  string
	Metadata DocumentMetadata
}

// DocumentMetadata holds structured information about a document.
type DocumentMetadata struct {
	ContextID  string
	Name       string
	Kind       string
	Type       DocumentType
	ChunkIndex int
	IndexedAt  time.Time
}

// SearchResult pairs a document with its similarity score.
type SearchResult struct {
	Document   Document
	Similarity float32
}

// SearchFilter narrows search results by metadata fields.
type SearchFilter struct {
	Type      *DocumentType
	ContextID *string
	Kind      *string
}
