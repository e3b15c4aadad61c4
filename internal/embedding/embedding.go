package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"secassist/internal/config"
)

// ErrEmbedding marks an unreachable or misbehaving embedding backend. Callers
// get it after the provider's single bounded retry and should degrade rather
// than retry further.
var ErrEmbedding = errors.New("embedding backend failure")

const retryBackoff = 500 * time.Millisecond

// Provider maps text to fixed-dimension vectors. One vector per input, order
// and count preserved exactly. The dimension is fixed per provider instance
// and discovered from the provider, never hard-coded by callers.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// LangchainProvider adapts a langchaingo embedder to the Provider contract.
type LangchainProvider struct {
	embedder *embeddings.EmbedderImpl
	dim      int
}

// NewEmbedder creates a provider backed by an openai-compatible endpoint.
func NewEmbedder(key, baseURL, model string) (*LangchainProvider, error) {
	llm, err := openai.New(
		openai.WithBaseURL(baseURL),
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithModel(model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &LangchainProvider{embedder: embedder}, nil
}

// NewOllamaEmbedder creates a provider backed by a local ollama server.
func NewOllamaEmbedder(cfg *config.LLMConfig) (*LangchainProvider, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, err
	}
	return &LangchainProvider{embedder: embedder}, nil
}

// Embed returns one vector per input text, in input order. The backend call is
// retried once with a bounded backoff before the failure propagates.
func (p *LangchainProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vectors, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		log.Warn().Err(err).Msg("embedding call failed, retrying once")
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", ErrEmbedding, ctx.Err())
		}
		vectors, err = p.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
		}
	}
	if err := p.validate(texts, vectors); err != nil {
		return nil, err
	}
	return vectors, nil
}

// EmbedQuery embeds a single text.
func (p *LangchainProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension reports the vector dimension, 0 until the first successful call.
func (p *LangchainProvider) Dimension() int {
	return p.dim
}

func (p *LangchainProvider) validate(texts []string, vectors [][]float32) error {
	if len(vectors) != len(texts) {
		return fmt.Errorf("%w: got %d vectors for %d inputs", ErrEmbedding, len(vectors), len(texts))
	}
	for _, v := range vectors {
		if len(v) == 0 {
			return fmt.Errorf("%w: backend returned an empty vector", ErrEmbedding)
		}
		if p.dim == 0 {
			p.dim = len(v)
		}
		if len(v) != p.dim {
			return fmt.Errorf("%w: dimension %d does not match provider dimension %d", ErrEmbedding, len(v), p.dim)
		}
	}
	return nil
}
