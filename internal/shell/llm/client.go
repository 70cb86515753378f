// Package llm wraps the OpenAI-compatible chat and embedding APIs behind
// narrow interfaces so the scoring engine and summarizer can be tested
// against stubs.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// ErrEmptyCompletion is returned when the model responds with no choices.
	ErrEmptyCompletion = errors.New("model returned no completion choices")

	// ErrEmbeddingCountMismatch is returned when the API returns a different
	// number of embeddings than inputs.
	ErrEmbeddingCountMismatch = errors.New("embedding count does not match input count")
)

// =============================================================================
// Interfaces
// =============================================================================

// Message is a single chat turn sent to the model.
type Message struct {
	Role    string
	Content string
}

// Chat role constants.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatModel produces a completion for a conversation.
type ChatModel interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Embedder converts texts into embedding vectors.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// =============================================================================
// OpenAI Client
// =============================================================================

// Default model assignments. Scoring runs on the cheaper chat model at a
// low temperature; the dashboard summary uses the stronger model with more
// freedom to phrase coaching tips.
const (
	DefaultScoringModel   = "gpt-3.5-turbo"
	DefaultSummaryModel   = "gpt-4"
	DefaultEmbeddingModel = "text-embedding-ada-002"

	DefaultScoringTemperature = 0.4
	DefaultSummaryTemperature = 0.7
)

// Config holds the connection settings for an OpenAI-compatible backend.
type Config struct {
	APIKey      string
	BaseURL     string // empty for api.openai.com
	Model       string
	Temperature float32
}

// Client implements ChatModel and Embedder against the OpenAI API.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
}

// NewClient creates a client pinned to one chat model and temperature.
func NewClient(cfg Config) *Client {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Client{
		api:         openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Complete sends the conversation and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages:    make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion (%s): %w", c.model, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	return resp.Choices[0].Message.Content, nil
}

// =============================================================================
// OpenAI Embedder
// =============================================================================

// OpenAIEmbedder implements Embedder against the OpenAI embeddings API.
type OpenAIEmbedder struct {
	api   *openai.Client
	model string
}

// NewEmbedder creates an embedder for the given model.
func NewEmbedder(apiKey, baseURL, model string) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &OpenAIEmbedder{
		api:   openai.NewClientWithConfig(clientCfg),
		model: model,
	}
}

// Embed returns one vector per input text, in input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(e.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings (%s): %w", e.model, err)
	}
	if len(resp.Data) != len(texts) {
		return nil, ErrEmbeddingCountMismatch
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}
