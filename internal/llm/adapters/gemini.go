package adapters

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/azyu/ploomer/internal/llm"
)

// geminiModelCapabilities maps model names to their capabilities.
var geminiModelCapabilities = map[string]llm.Capabilities{
	"gemini-2.0-flash": {
		MaxContextTokens: 1048576,
		MaxOutputTokens:  8192,
		TokenizerType:    "cl100k_base",
	},
	"gemini-2.5-flash": {
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
		TokenizerType:    "cl100k_base",
	},
	"gemini-2.5-pro": {
		MaxContextTokens: 1048576,
		MaxOutputTokens:  65536,
		TokenizerType:    "cl100k_base",
	},
}

// defaultGeminiCapabilities are used when the model is not in the known list.
var defaultGeminiCapabilities = llm.Capabilities{
	MaxContextTokens: 128000,
	MaxOutputTokens:  8192,
	TokenizerType:    "cl100k_base",
}

// GeminiAdapter implements the Provider interface for Google's Gemini API.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a new GeminiAdapter. The model defaults to gemini-2.5-flash.
func NewGeminiAdapter(ctx context.Context, apiKey, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, llm.ErrInvalidAPIKey
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiAdapter{client: client, model: model}, nil
}

// Chat sends the conversation to GenerateContent and returns the reply.
func (a *GeminiAdapter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	contents, systemInstruction := convertGeminiMessages(req.Messages)

	config := &genai.GenerateContentConfig{SystemInstruction: systemInstruction}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.Temperature > 0 {
		config.Temperature = genai.Ptr(float32(req.Temperature))
	}

	result, err := a.client.Models.GenerateContent(ctx, a.model, contents, config)
	if err != nil {
		return nil, wrapGeminiError(err)
	}
	if len(result.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates in response", llm.ErrAPIError)
	}

	var parts []string
	if content := result.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			if part.Text != "" {
				parts = append(parts, part.Text)
			}
		}
	}

	response := &llm.ChatResponse{
		Message: llm.NewAssistantMessage(strings.Join(parts, "")),
		Model:   a.model,
	}
	if result.UsageMetadata != nil {
		response.Usage = llm.TokenUsage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}
	return response, nil
}

// Capabilities returns the provider's capabilities.
func (a *GeminiAdapter) Capabilities() llm.Capabilities {
	for prefix, caps := range geminiModelCapabilities {
		if strings.HasPrefix(a.model, prefix) {
			caps.Models = []string{a.model}
			return caps
		}
	}
	caps := defaultGeminiCapabilities
	caps.Models = []string{a.model}
	return caps
}

// Close releases resources held by the adapter. The genai client has none.
func (a *GeminiAdapter) Close() error {
	return nil
}

// convertGeminiMessages splits off the system prompt and maps assistant turns
// to Gemini's "model" role. Consecutive system messages are joined.
func convertGeminiMessages(messages []llm.ChatMessage) ([]*genai.Content, *genai.Content) {
	var system []string
	var contents []*genai.Content

	for _, msg := range messages {
		switch msg.Role {
		case llm.RoleSystem:
			system = append(system, msg.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		default:
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	if len(system) == 0 {
		return contents, nil
	}
	return contents, &genai.Content{
		Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}},
	}
}

// wrapGeminiError maps Gemini errors onto the llm error taxonomy by message.
func wrapGeminiError(err error) error {
	errStr := err.Error()
	lower := strings.ToLower(errStr)

	switch {
	case strings.Contains(lower, "api key"):
		return fmt.Errorf("%w: %s", llm.ErrInvalidAPIKey, errStr)
	case strings.Contains(lower, "not found") || strings.Contains(errStr, "404"):
		return fmt.Errorf("%w: %s", llm.ErrModelNotFound, errStr)
	case strings.Contains(lower, "rate limit") || strings.Contains(errStr, "429") || strings.Contains(errStr, "RESOURCE_EXHAUSTED"):
		return fmt.Errorf("%w: %s", llm.ErrRateLimited, errStr)
	default:
		return fmt.Errorf("%w: %w", llm.ErrAPIError, err)
	}
}

var _ llm.Provider = (*GeminiAdapter)(nil)
