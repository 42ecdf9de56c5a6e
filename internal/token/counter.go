// Package token provides token counting for keeping chat history inside a
// model's context window.
package token

import (
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"

	"github.com/azyu/ploomer/internal/llm"
)

// Counter wraps a tiktoken encoder for token counting operations.
type Counter struct {
	encoder  *tiktoken.Tiktoken
	encoding string
}

// Default encoding for fallback.
const defaultEncoding = "cl100k_base"

// Chat format overhead, following OpenAI's counting convention.
const (
	// Tokens added per message for role and formatting.
	messageOverhead = 4
	// Tokens added for the assistant reply priming.
	replyPriming = 2
)

// NewCounter creates a token counter for encoding, falling back to
// cl100k_base when the encoding is unknown.
func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = defaultEncoding
	}

	encoder, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		encoder, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, err
		}
		encoding = defaultEncoding
	}

	return &Counter{encoder: encoder, encoding: encoding}, nil
}

// Encoding returns the current encoding name.
func (c *Counter) Encoding() string {
	return c.encoding
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.encoder.Encode(text, nil, nil))
}

// CountMessages counts the tokens a request with these messages costs,
// including per-message overhead and reply priming.
func (c *Counter) CountMessages(messages []llm.ChatMessage) int {
	return countMessages(messages, c.Count)
}

func countMessages(messages []llm.ChatMessage, count func(string) int) int {
	if len(messages) == 0 {
		return 0
	}
	total := replyPriming
	for _, msg := range messages {
		total += messageOverhead + count(msg.Content)
	}
	return total
}

// Estimator counts tokens with the four-characters-per-token heuristic. It
// serves when no encoding can be loaded.
type Estimator struct{}

// Count estimates the tokens in text.
func (Estimator) Count(text string) int {
	return EstimateTokens(text)
}

// CountMessages estimates the tokens of a request.
func (Estimator) CountMessages(messages []llm.ChatMessage) int {
	return countMessages(messages, EstimateTokens)
}

// EstimateTokens provides a quick estimate of token count without encoding.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (utf8.RuneCountInString(text) + 3) / 4
}
