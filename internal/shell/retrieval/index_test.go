package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	"github.com/pitchlab/pitchlab/internal/shell/store"
)

// stubEmbedder produces deterministic vectors from keyword counts so tests
// can rank chunks without a live embeddings API.
type stubEmbedder struct {
	err   error
	calls int
}

func (e *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = []float32{
			float32(strings.Count(text, "price")) + 0.1,
			float32(strings.Count(text, "rapport")) + 0.1,
		}
	}
	return vectors, nil
}

func setupIndex(t *testing.T) (*Index, *stubEmbedder, store.Store) {
	t.Helper()
	st, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	embedder := &stubEmbedder{}
	return NewIndex(st, embedder, 100, 0), embedder, st
}

// =============================================================================
// Ingest Tests
// =============================================================================

func TestIngest_StoresDocumentAndChunks(t *testing.T) {
	ix, embedder, st := setupIndex(t)

	doc, err := ix.Ingest(context.Background(), "playbook", "playbook.md",
		"Anchor on value when price comes up. Build rapport before the close.")
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, 1, embedder.calls)
	assert.Greater(t, doc.ChunkCount, 0)

	chunks, err := st.ListChunks(context.Background())
	require.NoError(t, err)
	assert.Len(t, chunks, doc.ChunkCount)
	assert.Equal(t, doc.ID, chunks[0].DocumentID)
}

func TestIngest_EmptyText(t *testing.T) {
	ix, _, _ := setupIndex(t)

	_, err := ix.Ingest(context.Background(), "empty", "", "   ")
	assert.ErrorIs(t, err, domain.ErrDocumentContentRequired)
}

func TestIngest_EmptyName(t *testing.T) {
	ix, _, _ := setupIndex(t)

	_, err := ix.Ingest(context.Background(), "", "", "some text")
	assert.ErrorIs(t, err, domain.ErrDocumentNameRequired)
}

func TestIngest_EmbedderFailure(t *testing.T) {
	ix, embedder, st := setupIndex(t)
	embedder.err = errors.New("rate limited")

	_, err := ix.Ingest(context.Background(), "playbook", "", "some text")
	require.Error(t, err)

	// Nothing is stored on failure
	docs, err := st.ListDocuments(context.Background(), store.DefaultListOptions())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

// =============================================================================
// Search Tests
// =============================================================================

func TestSearch_RanksByQuerySimilarity(t *testing.T) {
	ix, _, _ := setupIndex(t)
	ctx := context.Background()

	_, err := ix.Ingest(ctx, "pricing", "", "price price price objections")
	require.NoError(t, err)
	_, err = ix.Ingest(ctx, "rapport", "", "rapport rapport rapport building")
	require.NoError(t, err)

	results, err := ix.Search(ctx, "handling price pushback price", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0], "price")
}

func TestSearch_EmptyKnowledgeBase(t *testing.T) {
	ix, embedder, _ := setupIndex(t)

	results, err := ix.Search(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Nil(t, results)
	// No point embedding the query when there is nothing to rank
	assert.Equal(t, 0, embedder.calls)
}

func TestSearch_DefaultK(t *testing.T) {
	ix, _, _ := setupIndex(t)
	ctx := context.Background()

	_, err := ix.Ingest(ctx, "doc", "", "price and rapport advice")
	require.NoError(t, err)

	results, err := ix.Search(ctx, "price", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
}
