package llm

import (
	"context"
	"math"

	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/pharmintel/core/internal/apperr"
)

type EmbedderConfig struct {
	BaseURL    string
	Model      string
	Dimensions int
}

// Embedder wraps a local embedding model behind an Ollama server. It is
// constructed once at startup and shared; there is no lazy global
// instance hiding behind the calls.
type Embedder struct {
	config EmbedderConfig
	llm    *ollama.LLM
}

func NewEmbedder(config EmbedderConfig) (*Embedder, error) {
	if config.Model == "" {
		config.Model = "all-minilm"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}
	if config.Dimensions == 0 {
		config.Dimensions = 384
	}

	emb, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.ModelUnavailable, err, "failed to initialize embedding model %s", config.Model)
	}

	return &Embedder{
		config: config,
		llm:    emb,
	}, nil
}

// EmbedTexts embeds each text independently, in order, and returns one
// L2-normalized vector per input.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	embeddings, err := e.llm.CreateEmbedding(ctx, texts)
	if err != nil {
		return nil, apperr.Wrap(apperr.ModelUnavailable, err, "embedding model %s unavailable", e.config.Model)
	}
	if len(embeddings) != len(texts) {
		return nil, apperr.New(apperr.ModelUnavailable, "embedding model returned %d vectors for %d texts", len(embeddings), len(texts))
	}

	for i := range embeddings {
		if len(embeddings[i]) != e.config.Dimensions {
			return nil, apperr.New(apperr.ModelUnavailable, "embedding dimension %d, expected %d", len(embeddings[i]), e.config.Dimensions)
		}
		normalizeL2(embeddings[i])
	}

	return embeddings, nil
}

// EmbedText embeds a single text.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := e.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (e *Embedder) Dimensions() int { return e.config.Dimensions }

func normalizeL2(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
