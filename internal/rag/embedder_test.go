package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns a fixed vector per text based on its first rune, so
// similarity ordering in tests is predictable.
type stubEmbedder struct {
	calls int
	fail  bool
}

func (s *stubEmbedder) vector(text string) []float32 {
	if text == "" {
		return []float32{0, 0, 1}
	}
	r := float32(text[0])
	return []float32{r, 1, 0}
}

func (s *stubEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("provider down")
	}
	return s.vector(text), nil
}

func (s *stubEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	if s.fail {
		return nil, errors.New("provider down")
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = s.vector(t)
	}
	return out, nil
}

func TestFallbackEmbedderUsesPrimaryWhileHealthy(t *testing.T) {
	primary := &stubEmbedder{}
	fallback := &stubEmbedder{}
	fe := NewFallbackEmbedder(primary, fallback)

	_, err := fe.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestFallbackEmbedderDowngradesPermanently(t *testing.T) {
	primary := &stubEmbedder{fail: true}
	fallback := &stubEmbedder{}
	fe := NewFallbackEmbedder(primary, fallback)

	// First call hits the failing primary, then serves from the fallback.
	vec, err := fe.EmbedQuery(context.Background(), "hello")
	require.NoError(t, err)
	require.NotEmpty(t, vec)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)

	// Subsequent calls never retry the primary.
	_, err = fe.EmbedDocuments(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	_, err = fe.EmbedQuery(context.Background(), "again")
	require.NoError(t, err)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 3, fallback.calls)
}

func TestFallbackEmbedderBothDown(t *testing.T) {
	fe := NewFallbackEmbedder(&stubEmbedder{fail: true}, &stubEmbedder{fail: true})
	_, err := fe.EmbedQuery(context.Background(), "hello")
	assert.Error(t, err)
}
