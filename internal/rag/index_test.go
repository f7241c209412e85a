package rag

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	chunks := []string{"alpha text", "beta text", "gamma text"}

	idx, err := BuildIndex(context.Background(), chunks, &stubEmbedder{})
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())

	require.NoError(t, idx.Save(dir))
	assert.True(t, IndexExists(dir))

	loaded, err := LoadIndex(dir)
	require.NoError(t, err)
	assert.Equal(t, idx.chunks, loaded.chunks)
}

func TestIndexExistsSuffixProbe(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IndexExists(dir))
	assert.False(t, IndexExists(filepath.Join(dir, "missing")))

	// Any file with the right suffix counts, valid or not.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.index"), []byte("not sqlite"), 0o644))
	assert.True(t, IndexExists(dir))

	dir2 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "notes.txt"), []byte("x"), 0o644))
	assert.False(t, IndexExists(dir2))
}

func TestLoadIndexCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "kb.index"), []byte("this is not a sqlite database"), 0o644))

	_, err := LoadIndex(dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIndexUnreadable)
}

func TestLoadIndexMissingDir(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, ErrIndexUnreadable)
}

func TestSearchRankOrder(t *testing.T) {
	idx := &Index{chunks: []chunkRecord{
		{Text: "north", Embedding: []float32{0, 1}},
		{Text: "east", Embedding: []float32{1, 0}},
		{Text: "northeast", Embedding: []float32{1, 1}},
	}}

	hits := idx.Search([]float32{0, 1}, 2)
	require.Len(t, hits, 2)
	assert.Equal(t, "north", hits[0])
	assert.Equal(t, "northeast", hits[1])
}

func TestSearchKLargerThanIndex(t *testing.T) {
	idx := &Index{chunks: []chunkRecord{{Text: "only", Embedding: []float32{1, 0}}}}
	hits := idx.Search([]float32{1, 0}, 10)
	assert.Equal(t, []string{"only"}, hits)
}

func TestRetrieveEmptyIndex(t *testing.T) {
	out, err := Retrieve(context.Background(), "anything", &Index{}, &stubEmbedder{}, 3)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRetrieveJoinsWithBlankLines(t *testing.T) {
	idx := &Index{chunks: []chunkRecord{
		{Text: "first", Embedding: []float32{1, 1, 0}},
		{Text: "second", Embedding: []float32{1, 0.5, 0}},
	}}
	out, err := Retrieve(context.Background(), "q", idx, &stubEmbedder{}, 2)
	require.NoError(t, err)
	assert.Contains(t, out, "\n\n")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}
