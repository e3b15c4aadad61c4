package gateway

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"secassist/internal/config"
)

// Backend generates an answer from a model name, a system instruction, and a
// user message. One implementation per supported backend kind.
type Backend interface {
	Generate(ctx context.Context, model, instruction, userMessage string) (string, error)
}

// OpenAIBackend talks to a hosted openai-compatible API.
type OpenAIBackend struct {
	baseURL string
	key     string
}

func NewOpenAIBackend(cfg *config.LLMConfig) *OpenAIBackend {
	return &OpenAIBackend{baseURL: cfg.BaseURL, key: cfg.Key}
}

func (b *OpenAIBackend) Generate(ctx context.Context, model, instruction, userMessage string) (string, error) {
	llm, err := openai.New(
		openai.WithBaseURL(b.baseURL),
		openai.WithToken(strings.TrimPrefix(b.key, "Bearer ")),
		openai.WithModel(model),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return generateContent(ctx, llm, instruction, userMessage)
}

// OllamaBackend talks to a locally hosted ollama server.
type OllamaBackend struct {
	serverURL string
}

func NewOllamaBackend(cfg *config.LLMConfig) *OllamaBackend {
	return &OllamaBackend{serverURL: cfg.BaseURL}
}

func (b *OllamaBackend) Generate(ctx context.Context, model, instruction, userMessage string) (string, error) {
	llm, err := ollama.New(
		ollama.WithServerURL(b.serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return generateContent(ctx, llm, instruction, userMessage)
}

func generateContent(ctx context.Context, llm llms.Model, instruction, userMessage string) (string, error) {
	messages := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: instruction}},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: userMessage}},
		},
	}
	resp, err := llm.GenerateContent(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrMalformedResponse
	}
	return resp.Choices[0].Content, nil
}
