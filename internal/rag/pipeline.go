package rag

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
)

const (
	// NoDocsMessage is returned when the knowledge-base folder holds no
	// source documents at all.
	NoDocsMessage = "No knowledge base documents found. Please upload .txt or .md files."

	// EmptyKBMessage is returned when documents exist but produced no
	// chunks (all blank).
	EmptyKBMessage = "Knowledge base documents are empty or could not be split."

	// ModelUnavailablePrefix marks a context-only answer produced because
	// the generative model call failed.
	ModelUnavailablePrefix = "(Model unavailable; showing context-only answer)"

	promptTemplate = "%s\n\nUser Query: %s\nAnswer:"
)

// Pipeline runs the load -> chunk -> index -> retrieve -> generate
// sequence for a single query.
type Pipeline struct {
	KBPath       string
	IndexPath    string
	ChunkSize    int
	ChunkOverlap int
	TopK         int

	embedder  Embedder
	generator Generator

	// Guards the cached index pointer only. Concurrent first requests may
	// still race to build the same index; rebuilds are idempotent, so the
	// duplicate work is accepted rather than locked out.
	mu    sync.Mutex
	index *Index
}

func NewPipeline(kbPath, indexPath string, chunkSize, chunkOverlap, topK int, embedder Embedder, generator Generator) *Pipeline {
	return &Pipeline{
		KBPath:       kbPath,
		IndexPath:    indexPath,
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
		TopK:         topK,
		embedder:     embedder,
		generator:    generator,
	}
}

// Ask answers a query against the knowledge base. A failing model call is
// absorbed into a context-only answer; only infrastructure failures with no
// degraded fallback (both embedding providers down, index unwritable)
// surface as errors.
func (p *Pipeline) Ask(ctx context.Context, query string) (string, error) {
	texts := LoadTexts(p.KBPath)
	if len(texts) == 0 {
		return NoDocsMessage, nil
	}

	chunks := ChunkTexts(texts, p.ChunkSize, p.ChunkOverlap)
	if len(chunks) == 0 {
		return EmptyKBMessage, nil
	}

	idx, err := p.ensureIndex(ctx, chunks)
	if err != nil {
		return "", err
	}

	contextText, err := Retrieve(ctx, query, idx, p.embedder, p.TopK)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(promptTemplate, contextText, query)
	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Model call failed, returning context-only answer: %v", err)
		return ModelUnavailablePrefix + "\n\n" + contextText, nil
	}
	if strings.TrimSpace(answer) == "" {
		return contextText, nil
	}
	return strings.TrimSpace(answer), nil
}

// Rebuild forces a fresh index build from the current knowledge base and
// persists it, replacing the cached copy.
func (p *Pipeline) Rebuild(ctx context.Context) (int, error) {
	texts := LoadTexts(p.KBPath)
	chunks := ChunkTexts(texts, p.ChunkSize, p.ChunkOverlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no chunks to index under %s", p.KBPath)
	}

	idx, err := BuildIndex(ctx, chunks, p.embedder)
	if err != nil {
		return 0, err
	}
	if err := idx.Save(p.IndexPath); err != nil {
		return 0, err
	}

	p.mu.Lock()
	p.index = idx
	p.mu.Unlock()
	return idx.Len(), nil
}

func (p *Pipeline) ensureIndex(ctx context.Context, chunks []string) (*Index, error) {
	p.mu.Lock()
	if p.index != nil {
		idx := p.index
		p.mu.Unlock()
		return idx, nil
	}
	p.mu.Unlock()

	var idx *Index
	if IndexExists(p.IndexPath) {
		loaded, err := LoadIndex(p.IndexPath)
		if err != nil {
			log.Printf("Persisted index unusable, rebuilding: %v", err)
		} else {
			idx = loaded
		}
	}

	if idx == nil {
		built, err := BuildIndex(ctx, chunks, p.embedder)
		if err != nil {
			return nil, err
		}
		if err := built.Save(p.IndexPath); err != nil {
			return nil, fmt.Errorf("failed to persist index: %w", err)
		}
		log.Printf("Built index with %d chunks at %s", built.Len(), p.IndexPath)
		idx = built
	}

	p.mu.Lock()
	p.index = idx
	p.mu.Unlock()
	return idx, nil
}
