package explain

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// CerebrasBaseURL is the OpenAI-compatible endpoint of the Cerebras
// inference API.
const CerebrasBaseURL = "https://api.cerebras.ai/v1"

// Config holds settings for the Cerebras-backed chat client.
type Config struct {
	APIKey      string
	Model       string        // default DefaultModel
	BaseURL     string        // optional override (tests)
	Temperature float64       // default 0.2
	MaxTokens   int           // default 4000
	MaxRetries  int           // SDK transport retries, default 2
	Timeout     time.Duration // HTTP timeout, default 60s
	HTTPClient  *http.Client  // optional (tests)
}

// CerebrasClient implements Client against the Cerebras
// chat-completions API.
type CerebrasClient struct {
	model       string
	temperature float64
	maxTokens   int
	client      openai.Client
}

// NewCerebrasClient creates a chat client for explanations.
func NewCerebrasClient(cfg Config) (*CerebrasClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: missing API key", ErrNotConfigured)
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = CerebrasBaseURL
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.2
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(cfg.MaxRetries),
	}

	return &CerebrasClient{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		client:      openai.NewClient(opts...),
	}, nil
}

// Model returns the configured chat model.
func (c *CerebrasClient) Model() string {
	return c.model
}

// Chat sends one prompt and returns the raw completion text.
func (c *CerebrasClient) Chat(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%w: status %d: %s", ErrAPI, apiErr.StatusCode, apiErr.Message)
		}
		return "", fmt.Errorf("%w: %v", ErrAPI, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion choices", ErrResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

var _ Client = (*CerebrasClient)(nil)
