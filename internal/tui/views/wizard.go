// Package views provides TUI view components for the Ploomer application.
package views

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/azyu/ploomer/internal/creation"
	"github.com/azyu/ploomer/internal/tui/styles"
	"github.com/azyu/ploomer/pkg/types"
)

type choice struct {
	id          string
	label       string
	description string
}

var heroChoices = []choice{
	{id: string(types.HeroBoy), label: "Boy"},
	{id: string(types.HeroGirl), label: "Girl"},
	{id: string(types.HeroAnimal), label: "Animal"},
}

var modeChoices = []choice{
	{id: string(types.ModeDialogue), label: "Dialogue", description: "Chat with Ploomer to build the story together"},
	{id: string(types.ModeQuestionnaire), label: "Questionnaire", description: "Answer a few questions and let Ploomer write"},
	{id: string(types.ModeCustomization), label: "Customization", description: "Start from a story template"},
}

// WizardModel implements tea.Model for the story creation wizard. Every key
// press is translated into a creation event; the state machine decides what
// is allowed.
type WizardModel struct {
	state     creation.State
	err       error
	cancelled bool
	width     int

	cursor int

	// identity step
	nameInput  textinput.Model
	titleInput textinput.Model
	focusTitle bool

	// appearance rows: hair, skin, clothing
	colorRow   int
	colorIndex [3]int

	// template browser
	category int
	search   textinput.Model

	// template customization
	customTitle textinput.Model
}

// NewWizard creates a wizard at the first step.
func NewWizard() *WizardModel {
	name := textinput.New()
	name.Placeholder = "Hero name"
	name.CharLimit = 40
	name.Width = 40

	title := textinput.New()
	title.Placeholder = "Story title"
	title.CharLimit = 80
	title.Width = 40

	custom := textinput.New()
	custom.CharLimit = 80
	custom.Width = 40

	search := textinput.New()
	search.Placeholder = "Search templates"
	search.Prompt = "Search: "
	search.CharLimit = 40
	search.Width = 40

	return &WizardModel{
		state:       creation.Start(),
		nameInput:   name,
		titleInput:  title,
		search:      search,
		customTitle: custom,
	}
}

// Init initializes the wizard.
func (m *WizardModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m *WizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}
	return m, m.updateInputs(msg)
}

func (m *WizardModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.cancelled = true
		return m, tea.Quit
	case tea.KeyEsc:
		if m.state.Step == creation.StepSelectHeroType {
			m.cancelled = true
			return m, tea.Quit
		}
		return m, m.apply(creation.Back{})
	}

	switch m.state.Step {
	case creation.StepSelectHeroType:
		return m, m.handleChoice(msg, len(heroChoices), func(i int) creation.Event {
			return creation.SelectHeroType{Type: types.HeroType(heroChoices[i].id)}
		})

	case creation.StepEnterIdentity:
		switch msg.Type {
		case tea.KeyTab, tea.KeyShiftTab, tea.KeyUp, tea.KeyDown:
			m.focusTitle = !m.focusTitle
			return m, m.focusIdentity()
		case tea.KeyEnter:
			if !m.focusTitle {
				m.focusTitle = true
				return m, m.focusIdentity()
			}
			return m, m.apply(creation.EnterIdentity{
				HeroName:   m.nameInput.Value(),
				StoryTitle: m.titleInput.Value(),
			})
		}
		return m, m.updateInputs(msg)

	case creation.StepSelectMode:
		return m, m.handleChoice(msg, len(modeChoices), func(i int) creation.Event {
			return creation.SelectMode{Mode: types.Mode(modeChoices[i].id)}
		})

	case creation.StepAppearance:
		if m.handleColorKey(msg) {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			return m, m.apply(creation.ChooseAppearance{Appearance: m.appearance()})
		}

	case creation.StepQuestionnaire:
		q, _ := m.state.CurrentQuestion()
		switch {
		case msg.Type == tea.KeySpace || msg.String() == "x":
			return m, m.apply(creation.ToggleOption{OptionID: q.Options[m.cursor].ID})
		case msg.Type == tea.KeyEnter:
			return m, m.apply(creation.ConfirmQuestion{})
		default:
			m.moveCursor(msg, len(q.Options))
		}

	case creation.StepTemplateBrowse:
		visible := m.visibleTemplates()
		switch msg.Type {
		case tea.KeyTab:
			m.category = (m.category + 1) % len(creation.Categories())
			m.cursor = 0
			return m, nil
		case tea.KeyUp, tea.KeyDown, tea.KeyEnter:
			return m, m.handleChoice(msg, len(visible), func(i int) creation.Event {
				return creation.SelectTemplate{TemplateID: visible[i].ID}
			})
		}
		// everything else edits the search query
		before := m.search.Value()
		cmd := m.updateInputs(msg)
		if m.search.Value() != before {
			m.cursor = 0
		}
		return m, cmd

	case creation.StepTemplateCustomize:
		if m.handleColorKey(msg) {
			return m, nil
		}
		if msg.Type == tea.KeyEnter {
			return m, m.apply(creation.CustomizeTemplate{
				Title:      m.customTitle.Value(),
				Appearance: m.appearance(),
			})
		}
		return m, m.updateInputs(msg)
	}

	return m, nil
}

// handleChoice moves the cursor over n entries and applies the event for
// the highlighted entry on Enter.
func (m *WizardModel) handleChoice(msg tea.KeyMsg, n int, event func(int) creation.Event) tea.Cmd {
	if msg.Type == tea.KeyEnter {
		if n == 0 {
			return nil
		}
		return m.apply(event(m.cursor))
	}
	m.moveCursor(msg, n)
	return nil
}

func (m *WizardModel) moveCursor(msg tea.KeyMsg, n int) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	}
}

// handleColorKey moves through the appearance palettes. Up and down pick a
// row, left and right a colour.
func (m *WizardModel) handleColorKey(msg tea.KeyMsg) bool {
	palettes := [3][]string{creation.HairColors, creation.SkinColors, creation.ClothingColors}
	switch msg.Type {
	case tea.KeyUp:
		if m.colorRow > 0 {
			m.colorRow--
		}
	case tea.KeyDown:
		if m.colorRow < len(palettes)-1 {
			m.colorRow++
		}
	case tea.KeyLeft:
		if m.colorIndex[m.colorRow] > 0 {
			m.colorIndex[m.colorRow]--
		}
	case tea.KeyRight:
		if m.colorIndex[m.colorRow] < len(palettes[m.colorRow])-1 {
			m.colorIndex[m.colorRow]++
		}
	default:
		return false
	}
	return true
}

func (m *WizardModel) appearance() types.Appearance {
	return types.Appearance{
		HairColor:     creation.HairColors[m.colorIndex[0]],
		SkinColor:     creation.SkinColors[m.colorIndex[1]],
		ClothingColor: creation.ClothingColors[m.colorIndex[2]],
	}
}

// apply runs ev through the state machine. Rejected events leave the state
// as it was and show the reason.
func (m *WizardModel) apply(ev creation.Event) tea.Cmd {
	prev, prevQuestion := m.state.Step, m.state.Question
	next, err := creation.Transition(m.state, ev)
	if err != nil {
		m.err = err
		return nil
	}
	m.err = nil
	m.state = next

	if next.Step == creation.StepDone {
		return tea.Quit
	}
	if next.Step == creation.StepQuestionnaire && next.Question != prevQuestion {
		m.cursor = 0
	}
	if next.Step != prev {
		m.cursor = 0
		m.colorRow = 0
		m.search.Blur()
		if next.Step == creation.StepTemplateCustomize {
			if tpl, ok := creation.FindTemplate(next.TemplateID); ok {
				m.customTitle.Placeholder = tpl.Title
			}
			return m.customTitle.Focus()
		}
		if next.Step == creation.StepEnterIdentity {
			return m.focusIdentity()
		}
		if next.Step == creation.StepTemplateBrowse {
			return m.search.Focus()
		}
	}
	return nil
}

func (m *WizardModel) focusIdentity() tea.Cmd {
	if m.focusTitle {
		m.nameInput.Blur()
		return m.titleInput.Focus()
	}
	m.titleInput.Blur()
	return m.nameInput.Focus()
}

func (m *WizardModel) updateInputs(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.state.Step {
	case creation.StepEnterIdentity:
		if m.focusTitle {
			m.titleInput, cmd = m.titleInput.Update(msg)
		} else {
			m.nameInput, cmd = m.nameInput.Update(msg)
		}
	case creation.StepTemplateBrowse:
		m.search, cmd = m.search.Update(msg)
	case creation.StepTemplateCustomize:
		m.customTitle, cmd = m.customTitle.Update(msg)
	}
	return cmd
}

func (m *WizardModel) visibleTemplates() []types.StoryTemplate {
	categories := creation.Categories()
	return creation.FilterTemplates(m.search.Value(), categories[m.category].ID)
}

func (m *WizardModel) stepTitle() string {
	switch m.state.Step {
	case creation.StepSelectHeroType:
		return "Who is the hero of your story?"
	case creation.StepEnterIdentity:
		return "Name your hero and your story"
	case creation.StepSelectMode:
		return "How shall we create it?"
	case creation.StepAppearance:
		return fmt.Sprintf("What does %s look like?", m.state.HeroName)
	case creation.StepQuestionnaire:
		q, _ := m.state.CurrentQuestion()
		return strings.ReplaceAll(q.TitleFor(m.state.HeroName), "\n", " ")
	case creation.StepTemplateBrowse:
		return "Choose a story template"
	case creation.StepTemplateCustomize:
		return "Make the template your own"
	default:
		return ""
	}
}

func (m *WizardModel) stepHelp() string {
	switch m.state.Step {
	case creation.StepEnterIdentity:
		return "Tab: switch field | Enter: continue | Esc: back"
	case creation.StepAppearance:
		return "↑/↓: feature | ←/→: colour | Enter: continue | Esc: back"
	case creation.StepQuestionnaire:
		return "↑/↓: move | Space: select | Enter: next question | Esc: back"
	case creation.StepTemplateBrowse:
		return "Type to search | ↑/↓: move | Tab: category | Enter: choose | Esc: back"
	case creation.StepTemplateCustomize:
		return "Type a title | ↑/↓ ←/→: colours | Enter: create | Esc: back"
	default:
		return "↑/↓: move | Enter: choose | Esc: back"
	}
}

// View renders the wizard.
func (m *WizardModel) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Header.Render("PLOOMER - New Story"))
	sb.WriteString("\n")
	sb.WriteString(styles.Title.Render(m.stepTitle()))
	sb.WriteString("\n\n")
	sb.WriteString(m.renderStep())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(styles.ErrorText.Render("Error: " + m.err.Error()))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(styles.HelpDesc.Render(m.stepHelp()))
	return sb.String()
}

func (m *WizardModel) renderStep() string {
	switch m.state.Step {
	case creation.StepSelectHeroType:
		return m.renderChoices(heroChoices, false, nil)

	case creation.StepEnterIdentity:
		return m.nameInput.View() + "\n" + m.titleInput.View()

	case creation.StepSelectMode:
		return m.renderChoices(modeChoices, false, nil)

	case creation.StepAppearance:
		return m.renderPalettes()

	case creation.StepQuestionnaire:
		q, _ := m.state.CurrentQuestion()
		items := make([]choice, len(q.Options))
		for i, o := range q.Options {
			items[i] = choice{id: o.ID, label: strings.TrimSpace(o.Emoji + " " + o.Label)}
		}
		total := len(creation.Questions())
		progress := styles.MutedText.Render(fmt.Sprintf("Question %d of %d: %s", m.state.Question+1, total, q.Subtitle))
		return progress + "\n\n" + m.renderChoices(items, true, m.state.Selection)

	case creation.StepTemplateBrowse:
		return m.renderTemplates()

	case creation.StepTemplateCustomize:
		return m.customTitle.View() + "\n\n" + m.renderPalettes()
	}
	return ""
}

func (m *WizardModel) renderChoices(items []choice, multi bool, selected []string) string {
	var sb strings.Builder
	for i, item := range items {
		cursor := "  "
		style := styles.MutedText
		if i == m.cursor {
			cursor = "> "
			style = styles.InputPrompt
		}
		check := ""
		if multi {
			check = "[ ] "
			if slices.Contains(selected, item.id) {
				check = "[x] "
			}
		}
		line := cursor + check + item.label
		if item.description != "" {
			line += styles.HelpDesc.Render("  " + item.description)
		}
		sb.WriteString(style.Render(line))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *WizardModel) renderPalettes() string {
	rows := []struct {
		name    string
		palette []string
	}{
		{"Hair", creation.HairColors},
		{"Skin", creation.SkinColors},
		{"Clothes", creation.ClothingColors},
	}

	var sb strings.Builder
	for r, row := range rows {
		marker := "  "
		if r == m.colorRow {
			marker = "> "
		}
		sb.WriteString(fmt.Sprintf("%s%-8s", marker, row.name))
		for i, c := range row.palette {
			swatch := lipgloss.NewStyle().Background(lipgloss.Color(c)).Render("  ")
			if i == m.colorIndex[r] {
				swatch = "[" + swatch + "]"
			} else {
				swatch = " " + swatch + " "
			}
			sb.WriteString(swatch)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m *WizardModel) renderTemplates() string {
	var sb strings.Builder

	var tabs []string
	for i, c := range creation.Categories() {
		label := c.Label
		if i == m.category {
			label = styles.InputPrompt.Render("[" + label + "]")
		}
		tabs = append(tabs, label)
	}
	sb.WriteString(strings.Join(tabs, "  "))
	sb.WriteString("\n")
	sb.WriteString(m.search.View())
	sb.WriteString("\n\n")

	visible := m.visibleTemplates()
	if len(visible) == 0 {
		if strings.TrimSpace(m.search.Value()) != "" {
			sb.WriteString(styles.MutedText.Render("No templates match your search"))
		} else {
			sb.WriteString(styles.MutedText.Render("No templates in this category"))
		}
		return sb.String()
	}

	items := make([]choice, len(visible))
	for i, tpl := range visible {
		items[i] = choice{
			id:          tpl.ID,
			label:       tpl.Title,
			description: fmt.Sprintf("%s (%d min)", tpl.Description, tpl.EstimatedTime),
		}
	}
	sb.WriteString(m.renderChoices(items, false, nil))
	return sb.String()
}

// State returns the current wizard state.
func (m *WizardModel) State() creation.State {
	return m.state
}

// Result returns the finished creation parameters.
func (m *WizardModel) Result() (types.CreationParameters, error) {
	return m.state.Parameters()
}

// Params returns the finished parameters as the navigation bag the chat
// screen is started from.
func (m *WizardModel) Params() (map[string]string, error) {
	p, err := m.Result()
	if err != nil {
		return nil, err
	}
	return creation.EncodeParams(p)
}

// Completed returns true if the wizard was completed.
func (m *WizardModel) Completed() bool {
	return m.state.Step == creation.StepDone
}

// Cancelled returns true if the wizard was cancelled.
func (m *WizardModel) Cancelled() bool {
	return m.cancelled
}
