// Package llm provides abstractions for interacting with the text and image
// generation services behind story creation.
package llm

import (
	"context"
	"errors"
)

// Common errors returned by providers.
var (
	// ErrContextTooLong is returned when the input exceeds the model's context window.
	ErrContextTooLong = errors.New("context length exceeds model maximum")

	// ErrRateLimited is returned when the API rate limit has been exceeded.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrAPIError is returned when the API returns an unexpected error.
	ErrAPIError = errors.New("API error")

	// ErrInvalidAPIKey is returned when the API key is invalid or missing.
	ErrInvalidAPIKey = errors.New("invalid or missing API key")

	// ErrModelNotFound is returned when the requested model is not available.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyCompletion is returned when the service answers with no text.
	ErrEmptyCompletion = errors.New("empty completion")
)

// Role constants for chat messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider generates a completion from an ordered list of messages.
// Implementations must be safe for concurrent use and must not retry
// unless explicitly configured to.
type Provider interface {
	// Chat sends the messages and returns the complete reply.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Capabilities describes the model behind the provider.
	Capabilities() Capabilities

	// Close releases any resources held by the provider.
	Close() error
}

// ImageGenerator turns a text prompt into an image.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt, size string) (*Image, error)
}

// DefaultImageSize is the size requested when the caller passes none.
const DefaultImageSize = "1024x1024"

// Image is a generated picture.
type Image struct {
	Base64Data string
	MimeType   string
	Size       string
}

// ChatRequest represents a request to the chat API.
type ChatRequest struct {
	// Messages is the conversation to send, system prompt first.
	Messages []ChatMessage

	// MaxTokens is the maximum number of tokens to generate.
	// If 0, the provider's default is used.
	MaxTokens int

	// Temperature controls randomness in the response (0.0-2.0).
	Temperature float64
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatResponse represents the complete response from a chat request.
type ChatResponse struct {
	Message ChatMessage
	Usage   TokenUsage
	Model   string
}

// TokenUsage contains token usage statistics for a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Capabilities describes what a provider supports.
type Capabilities struct {
	// MaxContextTokens is the maximum context window size.
	MaxContextTokens int

	// MaxOutputTokens is the maximum number of tokens the model can generate.
	MaxOutputTokens int

	// TokenizerType identifies the tiktoken encoding closest to the model.
	TokenizerType string

	// Models lists the available model names.
	Models []string
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: RoleAssistant, Content: content}
}
