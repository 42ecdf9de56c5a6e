// Package generation runs the conversational story session: a chat log
// seeded with a greeting, guarded turns against the completion service, and
// the final draft of the story.
//
// A Session allows one outstanding request at a time. Turns that arrive while
// a reply or a generation is in flight are ignored, which keeps the log in
// strict call order.
package generation

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/azyu/ploomer/internal/library"
	"github.com/azyu/ploomer/internal/llm"
	"github.com/azyu/ploomer/internal/token"
	"github.com/azyu/ploomer/pkg/types"
)

// DefaultAutoGenerateDelay is how long a prefilled session waits before generating.
const DefaultAutoGenerateDelay = 2 * time.Second

const (
	minReadingMinutes = 3
	charsPerMinute    = 200
)

// Status classifies the outcome of a turn or a generation.
type Status int

const (
	// StatusOK means the service answered.
	StatusOK Status = iota
	// StatusFallback means the service failed and canned content was used.
	StatusFallback
	// StatusIgnored means the call was dropped: blank input or a request in flight.
	StatusIgnored
	// StatusCanceled means the session closed before the reply arrived.
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFallback:
		return "fallback"
	case StatusIgnored:
		return "ignored"
	case StatusCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Reply is the outcome of SendUserMessage. Message is the assistant message
// that was appended, if any.
type Reply struct {
	Status  Status
	Message types.ChatMessage
	Err     error
}

// Result is the outcome of Generate. Draft is set for StatusOK and
// StatusFallback; Err carries the cause of a fallback.
type Result struct {
	Status Status
	Draft  types.Draft
	Err    error
}

// Session is one creation conversation.
type Session struct {
	provider llm.Provider
	params   types.CreationParameters
	hero     types.Hero
	logger   *zap.Logger

	counter        token.MessageCounter
	historyBudget  int
	requestTimeout time.Duration
	now            func() time.Time
	intn           func(int) int

	// lifetime is canceled by Close; every request is bound to it.
	lifetime context.Context
	cancel   context.CancelFunc

	mu         sync.Mutex
	messages   []types.ChatMessage
	nextID     int64
	pending    bool
	generating bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHistoryBudget trims the oldest turns from each request so that it
// stays within budget tokens as measured by counter.
func WithHistoryBudget(counter token.MessageCounter, budget int) Option {
	return func(s *Session) {
		s.counter = counter
		s.historyBudget = budget
	}
}

// WithRequestTimeout bounds each call to the service.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Session) {
		s.requestTimeout = d
	}
}

// WithClock replaces time.Now for message timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

// WithRand replaces the random source used to pick an illustration.
func WithRand(intn func(int) int) Option {
	return func(s *Session) {
		s.intn = intn
	}
}

// NewSession validates params and seeds the log with the greeting. The
// session lives until ctx is done or Close is called.
func NewSession(ctx context.Context, provider llm.Provider, params types.CreationParameters, opts ...Option) (*Session, error) {
	if provider == nil {
		return nil, fmt.Errorf("generation: nil provider")
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}

	s := &Session{
		provider: provider,
		params:   params,
		hero:     params.HeroOrDefault(),
		logger:   zap.NewNop(),
		now:      time.Now,
		intn:     rand.IntN,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("title", params.StoryTitle), zap.String("mode", string(params.Mode)))
	s.lifetime, s.cancel = context.WithCancel(ctx)

	s.appendLocked(types.RoleAssistant, Greeting(params))
	return s, nil
}

// Params returns the parameters the session was created with.
func (s *Session) Params() types.CreationParameters {
	return s.params
}

// AutoGenerates reports whether the session should generate without chat.
func (s *Session) AutoGenerates() bool {
	return s.params.Mode.Prefilled()
}

// Messages returns a copy of the log.
func (s *Session) Messages() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Busy reports whether a reply or a generation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending || s.generating
}

// Close abandons in-flight requests and any scheduled generation.
func (s *Session) Close() {
	s.cancel()
}

func (s *Session) appendLocked(role types.Role, content string) types.ChatMessage {
	s.nextID++
	msg := types.ChatMessage{
		ID:        s.nextID,
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	s.messages = append(s.messages, msg)
	return msg
}

// requestContext ties ctx to the session lifetime and the request timeout.
func (s *Session) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(s.lifetime, cancel)

	if s.requestTimeout > 0 {
		var cancelTimeout context.CancelFunc
		reqCtx, cancelTimeout = context.WithTimeout(reqCtx, s.requestTimeout)
		return reqCtx, func() {
			cancelTimeout()
			stop()
			cancel()
		}
	}
	return reqCtx, func() {
		stop()
		cancel()
	}
}

// SendUserMessage appends text as a user turn and asks the service for the
// assistant's answer. Service failures are absorbed: a canned reply is
// appended and reported as StatusFallback.
func (s *Session) SendUserMessage(ctx context.Context, text string) Reply {
	if strings.TrimSpace(text) == "" {
		return Reply{Status: StatusIgnored}
	}

	s.mu.Lock()
	if s.pending || s.generating || s.lifetime.Err() != nil {
		s.mu.Unlock()
		return Reply{Status: StatusIgnored}
	}
	s.appendLocked(types.RoleUser, text)
	s.pending = true
	history := toLLMMessages(s.messages)
	s.mu.Unlock()

	system := llm.NewSystemMessage(SystemPrompt(s.params))
	history = token.FitHistory(s.counter, system, history, s.historyBudget)

	reqCtx, cancel := s.requestContext(ctx)
	resp, err := s.provider.Chat(reqCtx, llm.ChatRequest{
		Messages: append([]llm.ChatMessage{system}, history...),
	})
	cancel()
	if err == nil && strings.TrimSpace(resp.Message.Content) == "" {
		err = llm.ErrEmptyCompletion
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = false

	if s.lifetime.Err() != nil {
		return Reply{Status: StatusCanceled, Err: s.lifetime.Err()}
	}
	if err != nil {
		s.logger.Warn("chat turn failed, using fallback reply", zap.Error(err))
		return Reply{
			Status:  StatusFallback,
			Message: s.appendLocked(types.RoleAssistant, FallbackReply),
			Err:     err,
		}
	}
	return Reply{
		Status:  StatusOK,
		Message: s.appendLocked(types.RoleAssistant, resp.Message.Content),
	}
}

// Generate turns the conversation into a story draft. The assistant turns
// become the content and one more request writes the summary. When that
// request fails a deterministic fallback draft is returned instead, so the
// caller always has something to commit.
func (s *Session) Generate(ctx context.Context) Result {
	s.mu.Lock()
	if s.pending || s.generating || s.lifetime.Err() != nil {
		s.mu.Unlock()
		return Result{Status: StatusIgnored}
	}
	s.generating = true
	var parts []string
	for _, m := range s.messages {
		if m.Role == types.RoleAssistant {
			parts = append(parts, m.Content)
		}
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	content := strings.Join(parts, "\n\n")

	reqCtx, cancel := s.requestContext(ctx)
	resp, err := s.provider.Chat(reqCtx, llm.ChatRequest{
		Messages: []llm.ChatMessage{
			llm.NewSystemMessage(SummaryPrompt(s.params)),
			llm.NewUserMessage(SummaryRequest(s.params, content)),
		},
	})
	cancel()

	if s.lifetime.Err() != nil {
		return Result{Status: StatusCanceled, Err: s.lifetime.Err()}
	}
	if err != nil {
		s.logger.Warn("story generation failed, using fallback draft", zap.Error(err))
		return Result{Status: StatusFallback, Draft: s.fallbackDraft(), Err: err}
	}

	s.logger.Info("story generated",
		zap.Int("content_chars", utf8.RuneCountInString(content)),
		zap.Int("total_tokens", resp.Usage.TotalTokens))
	return Result{Status: StatusOK, Draft: s.successDraft(content, resp.Message.Content)}
}

// ScheduleGenerate runs Generate after delay unless ctx or the session ends
// first. The channel yields at most one result and is then closed.
func (s *Session) ScheduleGenerate(ctx context.Context, delay time.Duration) <-chan Result {
	out := make(chan Result, 1)
	go func() {
		defer close(out)

		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return
		case <-s.lifetime.Done():
			return
		case <-timer.C:
		}
		out <- s.Generate(ctx)
	}()
	return out
}

func (s *Session) successDraft(content, summary string) types.Draft {
	hero := s.hero
	readingTime := int(math.Ceil(float64(utf8.RuneCountInString(content)) / charsPerMinute))
	if readingTime < minReadingMinutes {
		readingTime = minReadingMinutes
	}
	if strings.TrimSpace(summary) == "" {
		summary = FallbackSummary(s.params)
	}
	if strings.TrimSpace(content) == "" {
		content = openingLine(s.params)
	}

	return types.Draft{
		Title:                s.params.StoryTitle,
		HeroName:             hero.Name,
		HeroType:             hero.Type,
		Summary:              summary,
		Content:              content,
		Tags:                 []string{"Adventure", "AI Generated", "Ages 5+"},
		ReadingTime:          readingTime,
		Hero:                 &hero,
		Illustration:         fmt.Sprintf("https://images.unsplash.com/photo-%d?w=400&h=300&fit=crop&auto=format", s.intn(1_000_000_000)),
		QuestionnaireAnswers: s.params.QuestionnaireAnswers.Clone(),
		TemplateID:           s.params.TemplateID,
		IsTemplateBased:      s.params.IsTemplateBased,
	}
}

func (s *Session) fallbackDraft() types.Draft {
	hero := s.hero
	return types.Draft{
		Title:                s.params.StoryTitle,
		HeroName:             hero.Name,
		HeroType:             hero.Type,
		Summary:              FallbackSummary(s.params),
		Content:              FallbackContent(s.params),
		Tags:                 []string{"Adventure", "Magic", "Ages 5+"},
		ReadingTime:          4,
		Hero:                 &hero,
		Illustration:         library.ForestImage,
		QuestionnaireAnswers: s.params.QuestionnaireAnswers.Clone(),
		TemplateID:           s.params.TemplateID,
		IsTemplateBased:      s.params.IsTemplateBased,
	}
}

func toLLMMessages(messages []types.ChatMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, len(messages))
	for i, m := range messages {
		out[i] = llm.ChatMessage{Role: string(m.Role), Content: m.Content}
	}
	return out
}
