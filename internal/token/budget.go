package token

import "github.com/azyu/ploomer/internal/llm"

// MessageCounter is satisfied by Counter and Estimator.
type MessageCounter interface {
	CountMessages(messages []llm.ChatMessage) int
}

// FitHistory drops the oldest history messages until system plus history
// fits in budget tokens. The newest message is always kept, even when it
// alone exceeds the budget. A budget of zero or less disables trimming.
func FitHistory(counter MessageCounter, system llm.ChatMessage, history []llm.ChatMessage, budget int) []llm.ChatMessage {
	if budget <= 0 || counter == nil || len(history) == 0 {
		return history
	}

	request := make([]llm.ChatMessage, 0, len(history)+1)
	for start := 0; start < len(history)-1; start++ {
		request = append(request[:0], system)
		request = append(request, history[start:]...)
		if counter.CountMessages(request) <= budget {
			return history[start:]
		}
	}
	return history[len(history)-1:]
}
