package rag

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/tucsfe/askai/internal/utils"
)

// ErrIndexUnreadable reports a persisted index that cannot be parsed or has
// an incompatible schema. Callers are expected to rebuild.
var ErrIndexUnreadable = errors.New("index unreadable or incompatible")

const (
	indexFileName   = "kb.index"
	indexFileSuffix = ".index"
)

type chunkRecord struct {
	Text      string
	Embedding []float32
}

// Index maps chunk embeddings to chunk text, searchable by cosine
// similarity. It is derived state, reconstructible from the source
// documents at any time; the on-disk form is a cache, not a source of
// truth.
type Index struct {
	chunks []chunkRecord
}

func (idx *Index) Len() int { return len(idx.chunks) }

// BuildIndex embeds all chunks with the given embedder.
func BuildIndex(ctx context.Context, chunks []string, embedder Embedder) (*Index, error) {
	vectors, err := embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, expected %d", len(vectors), len(chunks))
	}

	idx := &Index{chunks: make([]chunkRecord, len(chunks))}
	for i, c := range chunks {
		idx.chunks[i] = chunkRecord{Text: c, Embedding: vectors[i]}
	}
	return idx, nil
}

// Save persists the index as a sqlite file inside dir, replacing any
// previous index file.
func (idx *Index) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	path := filepath.Join(dir, indexFileName)
	_ = os.Remove(path)

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("failed to open index file: %w", err)
	}
	defer db.Close()

	schema := `
    CREATE TABLE IF NOT EXISTS chunks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        content TEXT NOT NULL,
        embedding_json TEXT NOT NULL
    );
    `
	if _, err = db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize index schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	stmt, err := tx.Prepare("INSERT INTO chunks (content, embedding_json) VALUES (?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range idx.chunks {
		embeddingBytes, err := json.Marshal(c.Embedding)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		if _, err = stmt.Exec(c.Text, string(embeddingBytes)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert chunk: %w", err)
		}
	}
	return tx.Commit()
}

// IndexExists reports whether dir contains an index file, recognized by
// suffix alone. This is a cheap existence probe, not an integrity check;
// a corrupt file is only discovered by LoadIndex.
func IndexExists(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), indexFileSuffix) {
			return true
		}
	}
	return false
}

// LoadIndex reloads a previously persisted index from dir. Any parse or
// schema failure is reported as ErrIndexUnreadable so the caller can
// rebuild.
func LoadIndex(dir string) (*Index, error) {
	path, err := findIndexFile(dir)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnreadable, err)
	}
	defer db.Close()

	rows, err := db.Query("SELECT content, embedding_json FROM chunks ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnreadable, err)
	}
	defer rows.Close()

	idx := &Index{}
	for rows.Next() {
		var content, embeddingJSON string
		if err := rows.Scan(&content, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexUnreadable, err)
		}
		var embedding []float32
		if err := json.Unmarshal([]byte(embeddingJSON), &embedding); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexUnreadable, err)
		}
		idx.chunks = append(idx.chunks, chunkRecord{Text: content, Embedding: embedding})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexUnreadable, err)
	}
	return idx, nil
}

func findIndexFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIndexUnreadable, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), indexFileSuffix) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("%w: no %s file in %s", ErrIndexUnreadable, indexFileSuffix, dir)
}

type scoredChunk struct {
	text       string
	similarity float32
}

// Search returns the texts of the k chunks most similar to queryVec, most
// similar first. There is no score threshold: low-relevance chunks are
// returned unfiltered if they make the top k.
func (idx *Index) Search(queryVec []float32, k int) []string {
	scored := make([]scoredChunk, 0, len(idx.chunks))
	for _, c := range idx.chunks {
		sim, err := utils.CosineSimilarity(queryVec, c.Embedding)
		if err != nil {
			continue
		}
		scored = append(scored, scoredChunk{text: c.Text, similarity: sim})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].similarity > scored[j].similarity
	})

	if k > len(scored) {
		k = len(scored)
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		out = append(out, scored[i].text)
	}
	return out
}
