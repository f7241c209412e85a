package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
)

// Embedder turns text into fixed-dimension vectors. Documents indexed with
// one embedder must be queried with the same one; the index does not record
// which provider produced it.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// GeminiEmbedder is the primary, networked embedding provider.
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, model string) *GeminiEmbedder {
	return &GeminiEmbedder{client: client, model: model}
}

func (e *GeminiEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	em := e.client.EmbeddingModel(e.model)
	res, err := em.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embedding request failed: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("no embedding data received from gemini")
	}
	return res.Embedding.Values, nil
}

func (e *GeminiEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

// OllamaEmbedder is the local fallback provider, speaking the Ollama
// embeddings API over HTTP.
type OllamaEmbedder struct {
	BaseURL string
	Model   string
	Client  *http.Client
}

func NewOllamaEmbedder(baseURL, model string) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		BaseURL: baseURL,
		Model:   model,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type ollamaEmbedReq struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResp struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error,omitempty"`
}

func (e *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	b, err := json.Marshal(ollamaEmbedReq{Model: e.Model, Prompt: text})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/embeddings", e.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama: status %d", resp.StatusCode)
	}

	var decoded ollamaEmbedResp
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if decoded.Error != "" {
		return nil, errors.New(decoded.Error)
	}
	if len(decoded.Embedding) == 0 {
		return nil, fmt.Errorf("ollama: empty embedding")
	}
	return decoded.Embedding, nil
}

func (e *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		vec, err := e.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

// FallbackEmbedder tries the primary provider until its first failure, then
// permanently downgrades this instance to the fallback. The primary is not
// retried for the lifetime of the instance.
type FallbackEmbedder struct {
	mu         sync.Mutex
	primary    Embedder
	fallback   Embedder
	downgraded bool
}

func NewFallbackEmbedder(primary, fallback Embedder) *FallbackEmbedder {
	return &FallbackEmbedder{primary: primary, fallback: fallback}
}

func (f *FallbackEmbedder) isDowngraded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.downgraded
}

func (f *FallbackEmbedder) downgrade(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.downgraded {
		f.downgraded = true
		log.Printf("Primary embedding provider failed, downgrading to fallback for the remainder of this instance: %v", err)
	}
}

func (f *FallbackEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if !f.isDowngraded() {
		out, err := f.primary.EmbedDocuments(ctx, texts)
		if err == nil {
			return out, nil
		}
		f.downgrade(err)
	}
	return f.fallback.EmbedDocuments(ctx, texts)
}

func (f *FallbackEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if !f.isDowngraded() {
		vec, err := f.primary.EmbedQuery(ctx, text)
		if err == nil {
			return vec, nil
		}
		f.downgrade(err)
	}
	return f.fallback.EmbedQuery(ctx, text)
}
