package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/azyu/ploomer/internal/tui/styles"
	"github.com/azyu/ploomer/internal/tui/toast"
	"github.com/azyu/ploomer/pkg/types"
)

// storyItem adapts a story to the list delegate.
type storyItem struct {
	story types.Story
}

func (i storyItem) Title() string {
	if i.story.IsFavorite {
		return "♥ " + i.story.Title
	}
	return i.story.Title
}

func (i storyItem) Description() string {
	return fmt.Sprintf("%s · %d min · %s", i.story.HeroName, i.story.ReadingTime, strings.Join(i.story.Tags, ", "))
}

func (i storyItem) FilterValue() string {
	return i.story.Title + " " + i.story.HeroName
}

var favoriteKey = key.NewBinding(
	key.WithKeys("f"),
	key.WithHelp("f", "favorite"),
)

// LibraryModel lists stored stories. Enter picks one to read.
type LibraryModel struct {
	ctx       context.Context
	favorites Favoriter
	list      list.Model
	selected  *types.Story
	notice    toast.Model
	width     int
}

// NewLibrary builds the browser over stories, newest first as given.
func NewLibrary(ctx context.Context, title string, stories []types.Story, favorites Favoriter) *LibraryModel {
	items := make([]list.Item, len(stories))
	for i, s := range stories {
		items[i] = storyItem{story: s}
	}

	l := list.New(items, list.NewDefaultDelegate(), 80, 20)
	l.Title = title
	l.Styles.Title = styles.Header
	l.SetStatusBarItemName("story", "stories")
	l.AdditionalShortHelpKeys = func() []key.Binding { return []key.Binding{favoriteKey} }

	return &LibraryModel{ctx: ctx, favorites: favorites, list: l, notice: toast.New(), width: 80}
}

func (m *LibraryModel) Init() tea.Cmd {
	return nil
}

func (m *LibraryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.list.SetSize(msg.Width, msg.Height-1)
		return m, nil

	case toast.ExpiredMsg:
		m.notice.Update(msg)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case msg.Type == tea.KeyCtrlC:
			return m, tea.Quit
		case msg.Type == tea.KeyEnter:
			if item, ok := m.list.SelectedItem().(storyItem); ok {
				story := item.story
				m.selected = &story
				return m, tea.Quit
			}
			return m, nil
		case key.Matches(msg, favoriteKey):
			return m, m.toggleFavorite()
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *LibraryModel) toggleFavorite() tea.Cmd {
	item, ok := m.list.SelectedItem().(storyItem)
	if !ok {
		return nil
	}
	story, ok, cmd := toggleFavorite(m.ctx, m.favorites, item.story.ID, &m.notice)
	if ok {
		m.list.SetItem(m.list.Index(), storyItem{story: story})
	}
	return cmd
}

// Selected returns the story picked with Enter.
func (m *LibraryModel) Selected() (types.Story, bool) {
	if m.selected == nil {
		return types.Story{}, false
	}
	return *m.selected, true
}

func (m *LibraryModel) View() string {
	return m.notice.Overlay(m.list.View(), m.width, 1)
}
