package adapters

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/azyu/ploomer/internal/llm"
)

// modelCapabilities maps model names to their capabilities.
var modelCapabilities = map[string]llm.Capabilities{
	"gpt-4o": {
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
		TokenizerType:    "o200k_base",
	},
	"gpt-4o-mini": {
		MaxContextTokens: 128000,
		MaxOutputTokens:  16384,
		TokenizerType:    "o200k_base",
	},
	"gpt-4-turbo": {
		MaxContextTokens: 128000,
		MaxOutputTokens:  4096,
		TokenizerType:    "cl100k_base",
	},
	"gpt-3.5-turbo": {
		MaxContextTokens: 16385,
		MaxOutputTokens:  4096,
		TokenizerType:    "cl100k_base",
	},
}

// defaultCapabilities is used for unknown models.
var defaultCapabilities = llm.Capabilities{
	MaxContextTokens: 128000,
	MaxOutputTokens:  4096,
	TokenizerType:    "cl100k_base",
}

// OpenAIAdapter implements the Provider interface for the OpenAI API and
// compatible servers.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	config OpenAIConfig
}

// OpenAIConfig holds configuration for the OpenAI adapter.
type OpenAIConfig struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string

	// MaxRetries is zero by default: a failed completion is reported once and
	// the caller falls back.
	MaxRetries int
	RetryDelay time.Duration
}

// OpenAIOption is a functional option for configuring the OpenAI adapter.
type OpenAIOption func(*OpenAIConfig)

// WithOpenAIBaseURL sets a custom base URL (Azure, proxies, local servers).
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.BaseURL = baseURL
	}
}

// WithOpenAIOrganization sets the organization ID.
func WithOpenAIOrganization(org string) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.Organization = org
	}
}

// WithOpenAIRetry opts into retrying rate-limited and 5xx responses.
func WithOpenAIRetry(maxRetries int, retryDelay time.Duration) OpenAIOption {
	return func(c *OpenAIConfig) {
		c.MaxRetries = maxRetries
		c.RetryDelay = retryDelay
	}
}

// NewOpenAIAdapter creates a new OpenAI adapter.
func NewOpenAIAdapter(apiKey, model string, opts ...OpenAIOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", llm.ErrInvalidAPIKey)
	}
	if model == "" {
		model = "gpt-4o-mini"
	}

	config := OpenAIConfig{
		APIKey:     apiKey,
		Model:      model,
		RetryDelay: time.Second,
	}
	for _, opt := range opts {
		opt(&config)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	if config.Organization != "" {
		clientConfig.OrgID = config.Organization
	}

	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
		config: config,
	}, nil
}

// Chat sends a chat completion request and returns the complete response.
func (a *OpenAIAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	openAIReq := a.buildRequest(req)

	var lastErr error
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		resp, err := a.client.CreateChatCompletion(ctx, openAIReq)
		if err != nil {
			lastErr = a.handleError(err)
			if !a.isRetryable(err) {
				return nil, lastErr
			}
			continue
		}

		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("%w: no choices in response", llm.ErrAPIError)
		}

		choice := resp.Choices[0]
		return &llm.ChatResponse{
			Message: llm.NewAssistantMessage(choice.Message.Content),
			Usage: llm.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
			Model: resp.Model,
		}, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// Capabilities returns the capabilities of the configured model.
func (a *OpenAIAdapter) Capabilities() llm.Capabilities {
	caps, ok := modelCapabilities[a.model]
	if !ok {
		caps = defaultCapabilities
	}
	caps.Models = []string{a.model}
	return caps
}

// Close releases resources. The OpenAI client holds none.
func (a *OpenAIAdapter) Close() error {
	return nil
}

// Model returns the configured model name.
func (a *OpenAIAdapter) Model() string {
	return a.model
}

func (a *OpenAIAdapter) buildRequest(req llm.ChatRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	openAIReq := openai.ChatCompletionRequest{
		Model:    a.model,
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		openAIReq.MaxTokens = req.MaxTokens
	}
	if req.Temperature > 0 {
		openAIReq.Temperature = float32(req.Temperature)
	}
	return openAIReq
}

// handleError converts OpenAI errors to our error types.
func (a *OpenAIAdapter) handleError(err error) error {
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("request canceled: %w", err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return fmt.Errorf("%w: %s", llm.ErrInvalidAPIKey, apiErr.Message)
		case 404:
			return fmt.Errorf("%w: %s", llm.ErrModelNotFound, apiErr.Message)
		case 429:
			return fmt.Errorf("%w: %s", llm.ErrRateLimited, apiErr.Message)
		case 400:
			if apiErr.Code == "context_length_exceeded" {
				return fmt.Errorf("%w: %s", llm.ErrContextTooLong, apiErr.Message)
			}
			return fmt.Errorf("%w: %s", llm.ErrAPIError, apiErr.Message)
		default:
			return fmt.Errorf("%w: HTTP %d - %s", llm.ErrAPIError, apiErr.HTTPStatusCode, apiErr.Message)
		}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: %s", llm.ErrAPIError, reqErr.Error())
	}

	return fmt.Errorf("%w: %s", llm.ErrAPIError, err.Error())
}

// isRetryable reports whether the raw client error is worth another attempt.
func (a *OpenAIAdapter) isRetryable(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return false
}

var _ llm.Provider = (*OpenAIAdapter)(nil)
