// Package toast shows short notices over the top right corner of a screen.
package toast

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/ansi"
	"github.com/muesli/reflow/truncate"

	"github.com/azyu/ploomer/internal/tui/styles"
)

// DefaultTTL is how long a notice stays up.
const DefaultTTL = 3 * time.Second

// Level selects the icon and colour of a notice.
type Level int

const (
	Info Level = iota
	Success
	Warning
	Error
)

type look struct {
	icon  string
	color lipgloss.Color
}

var looks = map[Level]look{
	Info:    {"ℹ", styles.Primary},
	Success: {"✓", styles.Success},
	Warning: {"⚠", styles.Warning},
	Error:   {"✗", styles.Error},
}

var frame = lipgloss.NewStyle().
	Padding(0, 1).
	BorderStyle(lipgloss.RoundedBorder())

// ExpiredMsg hides the notice it was scheduled for. A newer notice is left alone.
type ExpiredMsg struct {
	seq int
}

// Model holds at most one visible notice.
type Model struct {
	TTL   time.Duration
	text  string
	level Level
	seq   int
	shown bool
}

// New returns an empty notice area.
func New() Model {
	return Model{TTL: DefaultTTL}
}

// Show replaces the current notice and schedules its expiry.
func (m *Model) Show(text string, level Level) tea.Cmd {
	m.seq++
	m.text, m.level, m.shown = text, level, true
	seq := m.seq
	return tea.Tick(m.TTL, func(time.Time) tea.Msg {
		return ExpiredMsg{seq: seq}
	})
}

// Update handles expiry.
func (m *Model) Update(msg tea.Msg) {
	if e, ok := msg.(ExpiredMsg); ok && e.seq == m.seq {
		m.shown = false
		m.text = ""
	}
}

// Visible reports whether a notice is up.
func (m Model) Visible() bool {
	return m.shown && m.text != ""
}

// Level is the level of the notice on screen.
func (m Model) Level() Level {
	return m.level
}

// Text is the message of the notice on screen.
func (m Model) Text() string {
	return m.text
}

// Render draws the notice box, shortening the message to fit maxWidth.
func (m Model) Render(maxWidth int) string {
	if !m.Visible() {
		return ""
	}
	l, ok := looks[m.level]
	if !ok {
		l = looks[Info]
	}

	text := m.text
	if room := maxWidth - 10; room > 3 && ansi.PrintableRuneWidth(text) > room {
		text = truncate.StringWithTail(text, uint(room), "...")
	}
	return frame.BorderForeground(l.color).Foreground(l.color).Render(l.icon + " " + text)
}

// Overlay draws the notice over the top right corner of screen, margin
// cells in from both edges.
func (m Model) Overlay(screen string, width, margin int) string {
	return Place(m.Render(width), screen, margin)
}

// Place composes box over the top right corner of screen.
func Place(box, screen string, margin int) string {
	if box == "" {
		return screen
	}

	boxRows := strings.Split(box, "\n")
	rows := strings.Split(screen, "\n")
	boxW, screenW := lipgloss.Width(box), lipgloss.Width(screen)
	if boxW >= screenW && len(boxRows) >= len(rows) {
		return box
	}

	col := clamp(screenW-boxW-margin, 0, screenW-boxW)
	top := clamp(margin, 0, len(rows)-len(boxRows))

	for i, fg := range boxRows {
		r := top + i
		if r >= len(rows) {
			break
		}
		rows[r] = splice(rows[r], fg, col)
	}
	return strings.Join(rows, "\n")
}

// splice writes fg into row starting at cell col, padding short rows.
func splice(row, fg string, col int) string {
	left := truncate.String(row, uint(col))
	if w := ansi.PrintableRuneWidth(left); w < col {
		left += strings.Repeat(" ", col-w)
	}
	end := col + ansi.PrintableRuneWidth(fg)
	return left + fg + skipCells(row, end)
}

// skipCells drops the first n printable cells of s.
func skipCells(s string, n int) string {
	cells := 0
	for i, r := range s {
		if cells >= n {
			return s[i:]
		}
		cells += ansi.PrintableRuneWidth(string(r))
	}
	return ""
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
