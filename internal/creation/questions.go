package creation

import "strings"

// Option is one selectable answer of a question.
type Option struct {
	ID    string
	Label string
	Emoji string
}

// Question is a multi-select questionnaire step.
type Question struct {
	ID       string
	Title    string // may contain {heroName}
	Subtitle string
	Options  []Option
}

// TitleFor renders the question title for a hero.
func (q Question) TitleFor(heroName string) string {
	return strings.ReplaceAll(q.Title, "{heroName}", heroName)
}

// HasOption reports whether id is one of the question's options.
func (q Question) HasOption(id string) bool {
	for _, o := range q.Options {
		if o.ID == id {
			return true
		}
	}
	return false
}

// Question ids, in the order they are asked.
const (
	QuestionTopic    = "topic"
	QuestionAnimal   = "animal"
	QuestionLocation = "location"
)

var questions = []Question{
	{
		ID:       QuestionTopic,
		Title:    "What topic\nshall we explore?",
		Subtitle: "Pick as many as you like",
		Options: []Option{
			{ID: "courage", Label: "Courage", Emoji: "🏆"},
			{ID: "nature", Label: "Nature", Emoji: "🌍"},
			{ID: "friendship", Label: "Friendship", Emoji: "🤝"},
			{ID: "solitude", Label: "Solitude", Emoji: "☁️"},
			{ID: "fear", Label: "Fear", Emoji: "👻"},
			{ID: "curiosity", Label: "Curiosity", Emoji: "🔍"},
		},
	},
	{
		ID:       QuestionAnimal,
		Title:    "Which animal\ndoes {heroName} meet?",
		Subtitle: "Pick as many as you like",
		Options: []Option{
			{ID: "bear", Label: "A bear", Emoji: "🐻"},
			{ID: "wolf", Label: "A wolf", Emoji: "🐺"},
			{ID: "monkey", Label: "A monkey", Emoji: "🐵"},
			{ID: "lion", Label: "A lion", Emoji: "🦁"},
			{ID: "deer", Label: "A deer", Emoji: "🦌"},
			{ID: "parrot", Label: "A parrot", Emoji: "🦜"},
		},
	},
	{
		ID:       QuestionLocation,
		Title:    "Where does\n{heroName}'s story happen?",
		Subtitle: "Pick as many as you like",
		Options: []Option{
			{ID: "city", Label: "In the city", Emoji: "🏙️"},
			{ID: "forest", Label: "In the forest", Emoji: "🌲"},
			{ID: "desert", Label: "In a desert", Emoji: "🏜️"},
			{ID: "castle", Label: "In a castle", Emoji: "🏰"},
			{ID: "planet", Label: "On another planet", Emoji: "🪐"},
			{ID: "paris", Label: "In Paris", Emoji: "🗼"},
		},
	},
}

// Questions returns the questionnaire in order.
func Questions() []Question {
	out := make([]Question, len(questions))
	copy(out, questions)
	return out
}

// Colour palettes offered by the appearance and template customization steps.
var (
	HairColors     = []string{"#8B4513", "#FFD700", "#000000", "#FF6B35", "#9B7BC7"}
	SkinColors     = []string{"#FDBCB4", "#F1C27D", "#E0AC69", "#C68642", "#8D5524"}
	ClothingColors = []string{"#4CAF50", "#2196F3", "#FF9800", "#E91E63", "#9C27B0"}
)

// DefaultAnimalType is given to every animal hero.
const DefaultAnimalType = "fox"
