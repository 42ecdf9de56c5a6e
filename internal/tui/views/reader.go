package views

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/azyu/ploomer/internal/reader"
	"github.com/azyu/ploomer/internal/tui/styles"
	"github.com/azyu/ploomer/internal/tui/toast"
	"github.com/azyu/ploomer/pkg/types"
)

// ReaderModel shows a story one page at a time and ends on "The End".
type ReaderModel struct {
	ctx       context.Context
	favorites Favoriter

	story    types.Story
	pages    []reader.Page
	cursor   reader.Cursor
	finished bool
	notice   toast.Model
	width    int
}

// NewReader paginates story. Stories without any paragraph get a single page
// holding the summary.
func NewReader(ctx context.Context, story types.Story, favorites Favoriter) *ReaderModel {
	pages := reader.Paginate(story.Content, reader.DefaultWordsPerPage)
	if len(pages) == 0 {
		pages = []reader.Page{{Number: 1, Paragraphs: []string{story.Summary}}}
	}
	return &ReaderModel{
		ctx:       ctx,
		favorites: favorites,
		story:     story,
		pages:     pages,
		cursor:    reader.Cursor{Total: len(pages)},
		notice:    toast.New(),
		width:     80,
	}
}

func (m *ReaderModel) Init() tea.Cmd {
	return nil
}

func (m *ReaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case toast.ExpiredMsg:
		m.notice.Update(msg)
	}
	return m, nil
}

func (m *ReaderModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return tea.Quit
	case "right", "l", "n", " ", "enter":
		if m.finished {
			return tea.Quit
		}
		if !m.cursor.Next() {
			m.finished = true
		}
	case "left", "h", "p":
		if m.finished {
			m.finished = false
			return nil
		}
		m.cursor.Prev()
	case "f":
		story, ok, cmd := toggleFavorite(m.ctx, m.favorites, m.story.ID, &m.notice)
		if ok {
			m.story = story
		}
		return cmd
	}
	return nil
}

// Page returns the open page.
func (m *ReaderModel) Page() reader.Page {
	return m.pages[m.cursor.Current]
}

// Finished reports whether the reader is on the end screen.
func (m *ReaderModel) Finished() bool {
	return m.finished
}

// Story returns the story as last seen by the reader, favorite flag included.
func (m *ReaderModel) Story() types.Story {
	return m.story
}

func (m *ReaderModel) View() string {
	var sb strings.Builder

	title := m.story.Title
	if m.story.IsFavorite {
		title += " " + styles.Favorite.Render("♥")
	}
	sb.WriteString(styles.Header.Render(title))
	sb.WriteString("\n")

	if m.finished {
		sb.WriteString(m.renderEnd())
	} else {
		sb.WriteString(m.renderPage())
	}
	return m.notice.Overlay(sb.String(), m.width, 1)
}

func (m *ReaderModel) renderPage() string {
	var sb strings.Builder

	status := fmt.Sprintf("Page %d/%d  %d min left", m.cursor.Current+1, m.cursor.Total, m.cursor.RemainingMinutes())
	sb.WriteString(styles.MutedText.Render(status))
	sb.WriteString("\n\n")

	sb.WriteString(styles.Page.Width(styles.Width(m.width)).Render(m.Page().Text()))
	sb.WriteString("\n\n")

	dots := make([]string, m.cursor.Total)
	for i := range dots {
		dots[i] = "○"
		if i == m.cursor.Current {
			dots[i] = "●"
		}
	}
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, strings.Join(dots, " ")))
	sb.WriteString("\n")

	next := "next page"
	if m.cursor.Current == m.cursor.Total-1 {
		next = "finish story"
	}
	sb.WriteString(styles.HelpKey.Render("→") + styles.HelpDesc.Render(" "+next+"  ") +
		styles.HelpKey.Render("←") + styles.HelpDesc.Render(" back  ") +
		styles.HelpKey.Render("f") + styles.HelpDesc.Render(" favorite  ") +
		styles.HelpKey.Render("q") + styles.HelpDesc.Render(" close"))
	return sb.String()
}

func (m *ReaderModel) renderEnd() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("The End"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("Hope you enjoyed your adventure!"))
	sb.WriteString("\n\n")
	sb.WriteString(styles.HelpKey.Render("enter") + styles.HelpDesc.Render(" close  ") +
		styles.HelpKey.Render("←") + styles.HelpDesc.Render(" last page  ") +
		styles.HelpKey.Render("f") + styles.HelpDesc.Render(" favorite"))
	return sb.String()
}
