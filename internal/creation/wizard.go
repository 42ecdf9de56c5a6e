// Package creation implements the story creation wizard as a pure state machine.
//
// Transition never mutates its input: maps and slices in State are copied
// before they change, so a caller may keep earlier states around (for
// example to render a back stack).
package creation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/azyu/ploomer/pkg/types"
)

var (
	ErrInvalidEvent    = errors.New("event not allowed in this step")
	ErrMissingField    = errors.New("required field missing")
	ErrInvalidMode     = errors.New("unknown creation mode")
	ErrUnknownOption   = errors.New("unknown option")
	ErrEmptySelection  = errors.New("select at least one option")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrUnknownColor    = errors.New("color not in palette")
	ErrNotDone         = errors.New("wizard not finished")
)

// Step is a screen of the wizard.
type Step int

const (
	StepSelectHeroType Step = iota
	StepEnterIdentity
	StepSelectMode
	StepAppearance
	StepQuestionnaire
	StepTemplateBrowse
	StepTemplateCustomize
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepSelectHeroType:
		return "select-hero-type"
	case StepEnterIdentity:
		return "enter-identity"
	case StepSelectMode:
		return "select-mode"
	case StepAppearance:
		return "appearance"
	case StepQuestionnaire:
		return "questionnaire"
	case StepTemplateBrowse:
		return "template-browse"
	case StepTemplateCustomize:
		return "template-customize"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// State is a snapshot of the wizard.
type State struct {
	Step       Step
	HeroType   types.HeroType
	HeroName   string
	StoryTitle string
	Mode       types.Mode

	// Questionnaire progress. Answers holds the selection of every question
	// the user has left, Selection the working set of the current one.
	Question  int
	Answers   types.QuestionnaireAnswers
	Selection []string

	TemplateID string

	// Set once the wizard reaches StepDone.
	Hero            *types.Hero
	IsTemplateBased bool
}

// Start returns the initial state.
func Start() State {
	return State{Step: StepSelectHeroType}
}

// CurrentQuestion returns the question being asked, if in the questionnaire.
func (s State) CurrentQuestion() (Question, bool) {
	if s.Step != StepQuestionnaire || s.Question < 0 || s.Question >= len(questions) {
		return Question{}, false
	}
	return questions[s.Question], true
}

// CanConfirm reports whether ConfirmQuestion would be accepted.
func (s State) CanConfirm() bool {
	return s.Step == StepQuestionnaire && len(s.Selection) > 0
}

// Parameters returns the finished creation parameters.
func (s State) Parameters() (types.CreationParameters, error) {
	if s.Step != StepDone {
		return types.CreationParameters{}, ErrNotDone
	}
	p := types.CreationParameters{
		HeroType:        s.HeroType,
		HeroName:        s.HeroName,
		StoryTitle:      s.StoryTitle,
		Mode:            s.Mode,
		TemplateID:      s.TemplateID,
		IsTemplateBased: s.IsTemplateBased,
	}
	if s.Hero != nil {
		hero := *s.Hero
		p.Hero = &hero
	}
	if s.Mode == types.ModeQuestionnaire {
		p.QuestionnaireAnswers = s.Answers.Clone()
	}
	if err := p.Validate(); err != nil {
		return types.CreationParameters{}, err
	}
	return p, nil
}

// Event is an input to the wizard.
type Event interface {
	apply(State) (State, error)
}

// Transition applies ev to s. On error the returned state is s unchanged.
func Transition(s State, ev Event) (State, error) {
	next, err := ev.apply(s)
	if err != nil {
		return s, err
	}
	return next, nil
}

func wrongStep(s State, ev Event) error {
	return fmt.Errorf("%w: %T in %s", ErrInvalidEvent, ev, s.Step)
}

// SelectHeroType picks boy, girl or animal.
type SelectHeroType struct {
	Type types.HeroType
}

func (e SelectHeroType) apply(s State) (State, error) {
	if s.Step != StepSelectHeroType {
		return s, wrongStep(s, e)
	}
	if !e.Type.Valid() {
		return s, fmt.Errorf("%w: hero type", ErrMissingField)
	}
	s.HeroType = e.Type
	s.Step = StepEnterIdentity
	return s, nil
}

// EnterIdentity names the hero and the story.
type EnterIdentity struct {
	HeroName   string
	StoryTitle string
}

func (e EnterIdentity) apply(s State) (State, error) {
	if s.Step != StepEnterIdentity {
		return s, wrongStep(s, e)
	}
	name := strings.TrimSpace(e.HeroName)
	title := strings.TrimSpace(e.StoryTitle)
	switch {
	case !s.HeroType.Valid():
		return s, fmt.Errorf("%w: hero type", ErrMissingField)
	case name == "":
		return s, fmt.Errorf("%w: hero name", ErrMissingField)
	case title == "":
		return s, fmt.Errorf("%w: story title", ErrMissingField)
	}
	s.HeroName = name
	s.StoryTitle = title
	s.Step = StepSelectMode
	return s, nil
}

// SelectMode routes to the branch of the chosen creation mode.
type SelectMode struct {
	Mode types.Mode
}

func (e SelectMode) apply(s State) (State, error) {
	if s.Step != StepSelectMode {
		return s, wrongStep(s, e)
	}
	s.Mode = e.Mode
	s.TemplateID = ""
	s.IsTemplateBased = false
	s.Hero = nil
	switch e.Mode {
	case types.ModeDialogue:
		s.Step = StepAppearance
	case types.ModeQuestionnaire:
		s.Step = StepQuestionnaire
		s.Question = 0
		s.Answers = types.QuestionnaireAnswers{}
		s.Selection = nil
	case types.ModeCustomization:
		s.Step = StepTemplateBrowse
	default:
		return s, fmt.Errorf("%w: %q", ErrInvalidMode, e.Mode)
	}
	return s, nil
}

// ChooseAppearance finishes the dialogue branch.
type ChooseAppearance struct {
	Appearance types.Appearance
}

func (e ChooseAppearance) apply(s State) (State, error) {
	if s.Step != StepAppearance {
		return s, wrongStep(s, e)
	}
	hero, err := buildHero(s, e.Appearance)
	if err != nil {
		return s, err
	}
	s.Hero = &hero
	s.Step = StepDone
	return s, nil
}

// ToggleOption adds or removes an option of the current question.
type ToggleOption struct {
	OptionID string
}

func (e ToggleOption) apply(s State) (State, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, wrongStep(s, e)
	}
	if !q.HasOption(e.OptionID) {
		return s, fmt.Errorf("%w: %q for %s", ErrUnknownOption, e.OptionID, q.ID)
	}
	if i := slices.Index(s.Selection, e.OptionID); i >= 0 {
		s.Selection = slices.Delete(slices.Clone(s.Selection), i, i+1)
	} else {
		s.Selection = append(slices.Clone(s.Selection), e.OptionID)
	}
	return s, nil
}

// ConfirmQuestion stores the current selection and moves on. Confirming the
// last question finishes the questionnaire branch.
type ConfirmQuestion struct{}

func (e ConfirmQuestion) apply(s State) (State, error) {
	q, ok := s.CurrentQuestion()
	if !ok {
		return s, wrongStep(s, e)
	}
	if len(s.Selection) == 0 {
		return s, ErrEmptySelection
	}

	answers := s.Answers.Clone()
	if answers == nil {
		answers = types.QuestionnaireAnswers{}
	}
	answers[q.ID] = slices.Clone(s.Selection)
	s.Answers = answers

	if s.Question < len(questions)-1 {
		s.Question++
		s.Selection = slices.Clone(answers[questions[s.Question].ID])
		return s, nil
	}

	final := types.QuestionnaireAnswers{}
	for k, v := range answers {
		if len(v) > 0 {
			final[k] = v
		}
	}
	hero := types.Hero{Name: s.HeroName, Type: s.HeroType, Appearance: types.DefaultAppearance()}
	s.Answers = final
	s.Selection = nil
	s.Hero = &hero
	s.Step = StepDone
	return s, nil
}

// SelectTemplate picks a catalog template.
type SelectTemplate struct {
	TemplateID string
}

func (e SelectTemplate) apply(s State) (State, error) {
	if s.Step != StepTemplateBrowse {
		return s, wrongStep(s, e)
	}
	if _, ok := FindTemplate(e.TemplateID); !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownTemplate, e.TemplateID)
	}
	s.TemplateID = e.TemplateID
	s.Step = StepTemplateCustomize
	return s, nil
}

// CustomizeTemplate finishes the customization branch. An empty Title falls
// back to the template's title.
type CustomizeTemplate struct {
	Title      string
	Appearance types.Appearance
}

func (e CustomizeTemplate) apply(s State) (State, error) {
	if s.Step != StepTemplateCustomize {
		return s, wrongStep(s, e)
	}
	tpl, ok := FindTemplate(s.TemplateID)
	if !ok {
		return s, fmt.Errorf("%w: %q", ErrUnknownTemplate, s.TemplateID)
	}
	hero, err := buildHero(s, e.Appearance)
	if err != nil {
		return s, err
	}

	title := strings.TrimSpace(e.Title)
	if title == "" {
		title = tpl.Title
	}
	if title == "" {
		title = s.StoryTitle
	}

	s.StoryTitle = title
	s.Hero = &hero
	s.IsTemplateBased = true
	s.Step = StepDone
	return s, nil
}

// Back returns to the previous screen. In the questionnaire the current
// selection is kept, so going forward again restores it.
type Back struct{}

func (e Back) apply(s State) (State, error) {
	switch s.Step {
	case StepEnterIdentity:
		s.Step = StepSelectHeroType
	case StepSelectMode:
		s.Step = StepEnterIdentity
	case StepAppearance, StepTemplateBrowse:
		s.Step = StepSelectMode
	case StepTemplateCustomize:
		s.Step = StepTemplateBrowse
	case StepQuestionnaire:
		answers := s.Answers.Clone()
		if answers == nil {
			answers = types.QuestionnaireAnswers{}
		}
		answers[questions[s.Question].ID] = slices.Clone(s.Selection)
		s.Answers = answers
		if s.Question == 0 {
			s.Selection = nil
			s.Step = StepSelectMode
			return s, nil
		}
		s.Question--
		s.Selection = slices.Clone(answers[questions[s.Question].ID])
	default:
		return s, wrongStep(s, e)
	}
	return s, nil
}

func buildHero(s State, a types.Appearance) (types.Hero, error) {
	if a == (types.Appearance{}) {
		a = types.DefaultAppearance()
	}
	if !slices.Contains(HairColors, a.HairColor) ||
		!slices.Contains(SkinColors, a.SkinColor) ||
		!slices.Contains(ClothingColors, a.ClothingColor) {
		return types.Hero{}, ErrUnknownColor
	}
	a.AnimalType = ""
	if s.HeroType == types.HeroAnimal {
		a.AnimalType = DefaultAnimalType
	}
	return types.Hero{Name: s.HeroName, Type: s.HeroType, Appearance: a}, nil
}
