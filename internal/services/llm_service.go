package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"golang.org/x/time/rate"
)

const (
	defaultModel          = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"

	// Hackathon budget: cap outbound LLM traffic across all sessions.
	llmRequestsPerSecond = 2
	llmBurst             = 4
)

type LLMService struct {
	// Client is exported so tests can swap in a fake model.
	Client   llms.Model
	Embedder embeddings.Embedder

	limiter *rate.Limiter
}

// NewLLMService initializes the OpenAI client from the environment.
func NewLLMService() *LLMService {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Fatal("CRITICAL ERROR: OPENAI_API_KEY is empty. Did you load the .env file?")
	}

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}

	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(model),
		openai.WithEmbeddingModel(defaultEmbeddingModel),
	)
	if err != nil {
		log.Fatal("Failed to create OpenAI client:", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		log.Fatal("Failed to create embedder:", err)
	}

	return &LLMService{
		Client:   llm,
		Embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(llmRequestsPerSecond), llmBurst),
	}
}

// GenerateText runs one system+user completion and returns the raw text.
func (s *LLMService) GenerateText(ctx context.Context, systemPrompt, prompt string) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}

	resp, err := s.Client.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAgentUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: model returned no choices", ErrAgentUnavailable)
	}
	return resp.Choices[0].Content, nil
}

// EmbedTexts returns one embedding vector per input text.
func (s *LLMService) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if s.Embedder == nil {
		return nil, errors.New("embedder not configured")
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Embedder.EmbedDocuments(ctx, texts)
}

// EmbedQuery returns the embedding for a single search query.
func (s *LLMService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if s.Embedder == nil {
		return nil, errors.New("embedder not configured")
	}
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.Embedder.EmbedQuery(ctx, text)
}

func (s *LLMService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
