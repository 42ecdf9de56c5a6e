// Package tui provides the terminal user interface using Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/azyu/ploomer/internal/commit"
	"github.com/azyu/ploomer/internal/generation"
	"github.com/azyu/ploomer/internal/tui/styles"
	"github.com/azyu/ploomer/internal/tui/toast"
	"github.com/azyu/ploomer/pkg/types"
)

// ViewState represents the current view mode.
type ViewState int

const (
	ViewChat ViewState = iota
	ViewHelp
)

// Model is the chat screen of a generation session.
type Model struct {
	ctx       context.Context
	session   *generation.Session
	resolver  *commit.Resolver
	autoDelay time.Duration

	// View state
	view       ViewState
	width      int
	height     int
	ready      bool
	err        error
	statusText string
	toast      toast.Model

	// Chat components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	// pendingText is shown until the session records the user turn.
	pendingText string
	waiting     bool
	generating  bool

	outcome *commit.Outcome
}

// New creates the chat screen. Prefilled sessions generate on their own
// after autoDelay.
func New(ctx context.Context, session *generation.Session, resolver *commit.Resolver, autoDelay time.Duration) *Model {
	ta := textarea.New()
	ta.Placeholder = "Tell Ploomer about your story... (/help for commands)"
	ta.Focus()
	ta.CharLimit = 2000
	ta.SetWidth(80)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		ctx:       ctx,
		session:   session,
		resolver:  resolver,
		autoDelay: autoDelay,
		textarea:  ta,
		spinner:   sp,
		view:      ViewChat,
		toast:     toast.New(),
	}
}

// Outcome returns the committed story and its destination once the session
// has finished.
func (m *Model) Outcome() (commit.Outcome, bool) {
	if m.outcome == nil {
		return commit.Outcome{}, false
	}
	return *m.outcome, true
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink}
	if m.session.AutoGenerates() {
		m.generating = true
		m.statusText = "Crafting your story..."
		cmds = append(cmds, waitForResult(m.session.ScheduleGenerate(m.ctx, m.autoDelay)), m.spinner.Tick)
	}
	return tea.Batch(cmds...)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if model, cmd, handled := m.handleKeyMsg(msg); handled {
			return model, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-8)
			m.viewport.YPosition = 2
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 8
		}

		m.textarea.SetWidth(styles.Width(msg.Width))
		m.updateViewport()

	case spinner.TickMsg:
		if m.busy() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case replyMsg:
		return m.handleReply(msg.reply)

	case generatedMsg:
		return m.handleGenerated(msg)

	case committedMsg:
		return m.handleCommitted(msg)

	case toast.ExpiredMsg:
		m.toast.Update(msg)
	}

	if !m.busy() {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) busy() bool {
	return m.waiting || m.generating
}

// handleKeyMsg handles keyboard input. handled is false for keys that
// belong to the textarea.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.session.Close()
		return m, tea.Quit, true

	case tea.KeyEsc:
		if m.view != ViewChat {
			m.view = ViewChat
			m.updateViewport()
			return m, nil, true
		}
		m.session.Close()
		return m, tea.Quit, true

	case tea.KeyCtrlG:
		model, cmd := m.startGenerate()
		return model, cmd, true

	case tea.KeyEnter:
		if m.busy() {
			return m, nil, true
		}
		model, cmd := m.handleSubmit()
		return model, cmd, true
	}

	return m, nil, false
}

// handleSubmit processes user input.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.textarea.Value())
	if input == "" {
		return m, nil
	}

	if strings.HasPrefix(input, "/") {
		return m.handleCommand(input)
	}

	m.textarea.Reset()
	m.err = nil
	m.pendingText = input
	m.waiting = true
	m.updateViewport()

	session, ctx := m.session, m.ctx
	send := func() tea.Msg {
		return replyMsg{reply: session.SendUserMessage(ctx, input)}
	}
	return m, tea.Batch(send, m.spinner.Tick)
}

// handleCommand processes slash commands.
func (m *Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	m.textarea.Reset()
	cmd := strings.ToLower(strings.Fields(input)[0])

	switch cmd {
	case "/generate", "/g":
		return m.startGenerate()

	case "/help":
		m.view = ViewHelp
		m.updateViewport()

	case "/back":
		m.view = ViewChat
		m.updateViewport()

	case "/quit", "/exit", "/q":
		m.session.Close()
		return m, tea.Quit

	default:
		m.err = fmt.Errorf("unknown command: %s", cmd)
	}
	return m, nil
}

func (m *Model) startGenerate() (tea.Model, tea.Cmd) {
	if m.busy() {
		return m, nil
	}
	m.generating = true
	m.statusText = "Crafting your story..."
	m.updateViewport()

	session, ctx := m.session, m.ctx
	gen := func() tea.Msg {
		return generatedMsg{result: session.Generate(ctx), ok: true}
	}
	return m, tea.Batch(gen, m.spinner.Tick)
}

func (m *Model) handleReply(reply generation.Reply) (tea.Model, tea.Cmd) {
	m.waiting = false
	m.pendingText = ""
	m.textarea.Focus()
	m.updateViewport()

	if reply.Status == generation.StatusFallback {
		return m, m.toast.Show("Ploomer could not be reached", toast.Warning)
	}
	return m, nil
}

func (m *Model) handleGenerated(msg generatedMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		// the scheduled generation was canceled
		m.generating = false
		m.statusText = ""
		return m, nil
	}

	res := msg.result
	switch res.Status {
	case generation.StatusIgnored:
		m.generating = false
		m.statusText = "Ploomer is still busy, try again in a moment"
		return m, nil
	case generation.StatusCanceled:
		m.generating = false
		m.statusText = ""
		return m, nil
	}

	m.statusText = "Saving your story..."
	ctx, resolver, params := m.ctx, m.resolver, m.session.Params()
	save := func() tea.Msg {
		out, err := resolver.Commit(ctx, params, res)
		return committedMsg{outcome: out, err: err}
	}
	return m, save
}

func (m *Model) handleCommitted(msg committedMsg) (tea.Model, tea.Cmd) {
	m.generating = false
	m.statusText = ""

	if msg.err != nil {
		m.err = msg.err
		return m, m.toast.Show("Story could not be saved", toast.Error)
	}

	out := msg.outcome
	m.outcome = &out
	m.session.Close()
	return m, tea.Quit
}

// updateViewport updates the viewport content.
func (m *Model) updateViewport() {
	var content string

	switch m.view {
	case ViewChat:
		content = m.renderChat()
	case ViewHelp:
		content = m.renderHelp()
	}

	m.viewport.SetContent(content)
	m.viewport.GotoBottom()
}

// renderChat renders the chat view.
func (m *Model) renderChat() string {
	var sb strings.Builder
	wrap := lipgloss.NewStyle().Width(max(styles.Width(m.width), 20))

	msgs := m.session.Messages()
	for _, msg := range msgs {
		switch msg.Role {
		case types.RoleUser:
			sb.WriteString(styles.UserMessage.Render(wrap.Render("You: " + msg.Content)))
		case types.RoleAssistant:
			sb.WriteString(styles.AssistantMessage.Render(wrap.Render("Ploomer: " + msg.Content)))
		}
		sb.WriteString("\n\n")
	}

	if m.pendingText != "" && (len(msgs) == 0 || msgs[len(msgs)-1].Role != types.RoleUser) {
		sb.WriteString(styles.UserMessage.Render(wrap.Render("You: " + m.pendingText)))
		sb.WriteString("\n\n")
	}

	if m.busy() {
		label := "Thinking..."
		if m.generating {
			label = "Crafting your story..."
		}
		sb.WriteString(m.spinner.View() + " " + label)
	}

	return sb.String()
}

// renderHelp renders the help view.
func (m *Model) renderHelp() string {
	help := `
PLOOMER - Help

Commands:
  /generate  - Finish the conversation and write the story
  /help      - Show this help
  /back      - Return to chat view
  /quit      - Leave without saving

Keyboard Shortcuts:
  Enter      - Send message
  Ctrl+G     - Write the story
  Esc        - Return to chat / Leave
  Ctrl+C     - Leave without saving

Press /back or Esc to return to chat.
`
	return styles.InfoText.Render(help)
}

// View renders the TUI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	params := m.session.Params()
	sb.WriteString(styles.Header.Render(fmt.Sprintf("PLOOMER - %s", params.StoryTitle)))
	sb.WriteString("\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(styles.ErrorText.Render("Error: "+m.err.Error()) + "\n")
	}

	if m.statusText != "" {
		sb.WriteString(styles.StatusBar.Render(m.statusText) + "\n")
	}

	if m.view == ViewChat {
		sb.WriteString(styles.InputPrompt.Render("> "))
		sb.WriteString(m.textarea.View())
	}

	helpHint := styles.HelpKey.Render("/generate") + styles.HelpDesc.Render(" to write the story  ") +
		styles.HelpKey.Render("/help") + styles.HelpDesc.Render(" for commands")
	sb.WriteString("\n")
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Right, helpHint))

	return m.toast.Overlay(sb.String(), m.width, 1)
}

type replyMsg struct {
	reply generation.Reply
}

type generatedMsg struct {
	result generation.Result
	ok     bool
}

type committedMsg struct {
	outcome commit.Outcome
	err     error
}

// waitForResult delivers the scheduled generation, or ok=false when it was
// canceled before running.
func waitForResult(ch <-chan generation.Result) tea.Cmd {
	return func() tea.Msg {
		res, ok := <-ch
		return generatedMsg{result: res, ok: ok}
	}
}

// ErrAborted is returned by Run when the user leaves before a story is saved.
var ErrAborted = errors.New("story creation aborted")

// Run shows the chat screen until the story is committed or the user leaves.
func Run(ctx context.Context, session *generation.Session, resolver *commit.Resolver, autoDelay time.Duration) (commit.Outcome, error) {
	m := New(ctx, session, resolver, autoDelay)
	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		return commit.Outcome{}, err
	}
	out, ok := m.Outcome()
	if !ok {
		return commit.Outcome{}, ErrAborted
	}
	return out, nil
}
