package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/azyu/ploomer/internal/commit"
	"github.com/azyu/ploomer/internal/generation"
	"github.com/azyu/ploomer/internal/library"
	"github.com/azyu/ploomer/internal/llm"
	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

func init() {
	// Disable colors for consistent test output across environments
	lipgloss.SetColorProfile(termenv.Ascii)
}

// testConfig holds common test configuration values.
var testConfig = struct {
	Width  int
	Height int
}{
	Width:  80,
	Height: 24,
}

// scriptedProvider answers with queued replies, or err when set.
type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (p *scriptedProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	reply := "and then?"
	if len(p.replies) > 0 {
		reply, p.replies = p.replies[0], p.replies[1:]
	}
	return &llm.ChatResponse{Message: llm.NewAssistantMessage(reply)}, nil
}

func (p *scriptedProvider) Capabilities() llm.Capabilities { return llm.Capabilities{} }
func (p *scriptedProvider) Close() error                   { return nil }

func dialogueParams() types.CreationParameters {
	return types.CreationParameters{
		HeroType:   types.HeroBoy,
		HeroName:   "Max",
		StoryTitle: "Moon Trip",
		Mode:       types.ModeDialogue,
	}
}

// newTestModel creates a chat model over an in-memory library.
func newTestModel(t *testing.T, p llm.Provider, params types.CreationParameters) (*Model, *library.Store) {
	t.Helper()

	ctx := context.Background()
	store := library.NewStore(storage.NewMemoryKV())
	_, err := store.Load(ctx)
	require.NoError(t, err)

	session, err := generation.NewSession(ctx, p, params)
	require.NoError(t, err)
	t.Cleanup(session.Close)

	m := New(ctx, session, commit.NewResolver(store), time.Millisecond)
	m.ready = true
	m.width = testConfig.Width
	m.height = testConfig.Height
	m.viewport = viewport.New(testConfig.Width, testConfig.Height-8)
	m.textarea.SetWidth(testConfig.Width - 4)
	m.toast.TTL = time.Millisecond
	return m, store
}

// sendRunesMsg sends runes (typed text) to the model and returns the updated model.
func sendRunesMsg(m *Model, s string) *Model {
	for _, r := range s {
		model, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = model.(*Model)
	}
	return m
}

// typeAndSubmit types text and sends Enter to submit.
func typeAndSubmit(m *Model, text string) (*Model, tea.Cmd) {
	m = sendRunesMsg(m, text)
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return model.(*Model), cmd
}

// runCmd executes cmd and returns the messages it produced, flattening
// batches. Spinner ticks and cursor blinks are dropped.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, runCmd(c)...)
		}
		return out
	case replyMsg, generatedMsg, committedMsg, tea.QuitMsg:
		return []tea.Msg{msg}
	default:
		return nil
	}
}

// settle feeds the messages produced by cmd back into the model until no
// session messages are left, and returns the last command seen.
func settle(t *testing.T, m *Model, cmd tea.Cmd) (*Model, []tea.Msg) {
	t.Helper()
	var seen []tea.Msg
	for i := 0; i < 10; i++ {
		msgs := runCmd(cmd)
		if len(msgs) == 0 {
			return m, seen
		}
		cmd = nil
		for _, msg := range msgs {
			seen = append(seen, msg)
			if _, ok := msg.(tea.QuitMsg); ok {
				continue
			}
			var model tea.Model
			var next tea.Cmd
			model, next = m.Update(msg)
			m = model.(*Model)
			if next != nil {
				cmd = next
			}
		}
	}
	t.Fatal("model did not settle")
	return m, seen
}
