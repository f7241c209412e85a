package rag

import (
	"context"
	"fmt"
	"strings"
)

// Retrieve embeds the query with the same provider that built the index and
// returns the top-k chunk texts joined by blank lines, most similar first.
// An empty index yields an empty string.
func Retrieve(ctx context.Context, query string, idx *Index, embedder Embedder, k int) (string, error) {
	if idx.Len() == 0 {
		return "", nil
	}

	queryVec, err := embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", fmt.Errorf("failed to embed query: %w", err)
	}

	hits := idx.Search(queryVec, k)
	return strings.Join(hits, "\n\n"), nil
}
