// Package retrieval provides the knowledge-base index: document ingestion
// (chunk, embed, store) and similarity search over stored chunks.
package retrieval

import (
	"context"
	"fmt"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	core "github.com/pitchlab/pitchlab/internal/core/retrieval"
	"github.com/pitchlab/pitchlab/internal/shell/llm"
	"github.com/pitchlab/pitchlab/internal/shell/store"
)

// DefaultSearchK is the number of chunks fetched for a retrieval prompt.
const DefaultSearchK = 5

// Index ties the chunker and similarity ranking to the store and embedder.
type Index struct {
	store     store.Store
	embedder  llm.Embedder
	chunkSize int
	overlap   int
}

// NewIndex creates a knowledge-base index. A non-positive chunkSize falls
// back to the default.
func NewIndex(st store.Store, embedder llm.Embedder, chunkSize, overlap int) *Index {
	if chunkSize <= 0 {
		chunkSize = core.DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &Index{
		store:     st,
		embedder:  embedder,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Ingest chunks a document's text, embeds the chunks, and stores the
// document with its chunks in one transaction.
func (ix *Index) Ingest(ctx context.Context, name, source, text string) (*domain.Document, error) {
	doc, err := domain.NewDocument(name, source)
	if err != nil {
		return nil, err
	}

	pieces := core.SplitText(text, ix.chunkSize, ix.overlap)
	if len(pieces) == 0 {
		return nil, domain.ErrDocumentContentRequired
	}

	vectors, err := ix.embedder.Embed(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("embed document %s: %w", name, err)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{
			DocumentID: doc.ID,
			Seq:        i,
			Content:    p,
			Embedding:  vectors[i],
		}
	}
	doc.ChunkCount = len(chunks)

	err = ix.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.CreateDocument(ctx, doc); err != nil {
			return err
		}
		return tx.CreateChunks(ctx, chunks)
	})
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// Search embeds the query and returns the k most similar chunk contents,
// best match first. An empty knowledge base returns no results, not an
// error, so retrieval-augmented prompts degrade gracefully.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]string, error) {
	if k <= 0 {
		k = DefaultSearchK
	}

	chunks, err := ix.store.ListChunks(ctx)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, nil
	}

	vectors, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates := make([][]float32, len(chunks))
	for i, c := range chunks {
		candidates[i] = c.Embedding
	}

	ranked := core.TopK(vectors[0], candidates, k)
	results := make([]string, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, chunks[r.Index].Content)
	}
	return results, nil
}
