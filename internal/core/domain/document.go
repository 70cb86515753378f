package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrDocumentNameRequired    = errors.New("document name is required")
	ErrDocumentContentRequired = errors.New("document content is required")
)

// =============================================================================
// Document
// =============================================================================

// Document is a knowledge-base source (a sales methodology book summary,
// a playbook, etc). Its text is chunked and embedded at ingestion time;
// the chunks back the retrieval step of the feedback metric.
type Document struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Source     string    `json:"source,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDocument creates a document record with a generated ID.
func NewDocument(name, source string) (*Document, error) {
	if name == "" {
		return nil, ErrDocumentNameRequired
	}
	return &Document{
		ID:        "doc_" + uuid.New().String()[:8],
		Name:      name,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Chunk is one embedded slice of a document.
type Chunk struct {
	DocumentID string    `json:"document_id"`
	Seq        int       `json:"seq"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}
