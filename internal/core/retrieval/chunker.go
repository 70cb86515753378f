// Package retrieval contains the pure text-chunking and similarity logic
// behind the knowledge base. This is part of the Functional Core - all
// functions are pure with no I/O.
package retrieval

import (
	"strings"
)

// =============================================================================
// Chunking
// =============================================================================

// DefaultChunkSize is the character budget per chunk.
const DefaultChunkSize = 1000

// SplitText splits text into chunks of at most chunkSize characters with the
// given overlap. Breaks prefer paragraph boundaries, then sentence ends, then
// whitespace, so chunks stay readable for the retrieval prompt.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= chunkSize {
			chunks = append(chunks, text)
			break
		}

		cut := breakPoint(text, chunkSize)
		chunk := strings.TrimSpace(text[:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - overlap
		if next <= 0 {
			next = cut
		}
		text = strings.TrimLeft(text[next:], " \t\n")
	}

	return chunks
}

// breakPoint finds the best split position at or before limit.
func breakPoint(text string, limit int) int {
	window := text[:limit]

	if i := strings.LastIndex(window, "\n\n"); i > limit/2 {
		return i
	}
	for _, sep := range []string{". ", "! ", "? "} {
		if i := strings.LastIndex(window, sep); i > limit/2 {
			return i + len(sep)
		}
	}
	if i := strings.LastIndexAny(window, " \n\t"); i > limit/2 {
		return i
	}
	return limit
}
