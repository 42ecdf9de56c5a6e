package generation

import (
	"fmt"
	"strings"

	"github.com/azyu/ploomer/pkg/types"
)

// FallbackReply is appended to the chat when the service cannot be reached.
const FallbackReply = "I'm having trouble connecting right now. Let's try again!"

const greetingPrefix = "Hi! I'm Ploomer, your magical story companion! 🌸"

// Greeting is the first assistant message of a session.
func Greeting(p types.CreationParameters) string {
	name := p.HeroOrDefault().Name

	switch p.Mode {
	case types.ModeQuestionnaire:
		var parts []string
		if v := p.QuestionnaireAnswers["topic"]; len(v) > 0 {
			parts = append(parts, "exploring themes of "+strings.Join(v, ", "))
		}
		if v := p.QuestionnaireAnswers["animal"]; len(v) > 0 {
			parts = append(parts, "meeting "+strings.Join(v, ", "))
		}
		if v := p.QuestionnaireAnswers["location"]; len(v) > 0 {
			parts = append(parts, "in "+strings.Join(v, ", "))
		}
		elements := ""
		if len(parts) > 0 {
			elements = " " + strings.Join(parts, " ")
		}
		return fmt.Sprintf("%s Based on your choices, I'm excited to create \"%s\" with %s%s! Let me craft this adventure for you...",
			greetingPrefix, p.StoryTitle, name, elements)
	case types.ModeCustomization:
		return fmt.Sprintf("%s I'm excited to help you create \"%s\" using your chosen template with %s! Let me craft this personalized adventure for you...",
			greetingPrefix, p.StoryTitle, name)
	default:
		return fmt.Sprintf("%s I'm so excited to help you create \"%s\" with %s! Tell me, what kind of adventure would you like to create together?",
			greetingPrefix, p.StoryTitle, name)
	}
}

// SystemPrompt frames every chat turn.
func SystemPrompt(p types.CreationParameters) string {
	hero := p.HeroOrDefault()

	var b strings.Builder
	fmt.Fprintf(&b, "You are Ploomer, a magical storytelling companion for children. "+
		"You help create personalized stories titled \"%s\" featuring %s, a %s. "+
		"Keep responses engaging, age-appropriate, and encourage creativity. "+
		"Ask follow-up questions to develop the story.", p.StoryTitle, hero.Name, hero.Type)

	switch p.Mode {
	case types.ModeQuestionnaire:
		fmt.Fprintf(&b, " The user has chosen these story elements: topics (%s), animals (%s), locations (%s). "+
			"Incorporate these elements naturally into the story development.",
			joinOr(p.QuestionnaireAnswers["topic"], "none"),
			joinOr(p.QuestionnaireAnswers["animal"], "none"),
			joinOr(p.QuestionnaireAnswers["location"], "none"))
	case types.ModeCustomization:
		fmt.Fprintf(&b, " The user has chosen a story template (ID: %s). "+
			"Create a story that follows the template's structure while incorporating the user's customizations.", p.TemplateID)
	}
	return b.String()
}

// SummaryPrompt instructs the service to write the story blurb.
func SummaryPrompt(p types.CreationParameters) string {
	prompt := "Create a brief, engaging summary (2-3 sentences) for this children's story. " +
		"Make it sound magical and appealing to parents and children."

	switch p.Mode {
	case types.ModeQuestionnaire:
		prompt += fmt.Sprintf(" The story incorporates these elements: %s, %s, %s.",
			strings.Join(p.QuestionnaireAnswers["topic"], ", "),
			strings.Join(p.QuestionnaireAnswers["animal"], ", "),
			strings.Join(p.QuestionnaireAnswers["location"], ", "))
	case types.ModeCustomization:
		prompt += fmt.Sprintf(" The story is based on template ID: %s.", p.TemplateID)
	}
	return prompt
}

// SummaryRequest is the user turn carrying the story to summarize.
func SummaryRequest(p types.CreationParameters, content string) string {
	hero := p.HeroOrDefault()
	return fmt.Sprintf("Story title: \"%s\"\nHero: %s (%s)\nStory content: %s", p.StoryTitle, hero.Name, hero.Type, content)
}

// FallbackSummary is used when no summary could be generated.
func FallbackSummary(p types.CreationParameters) string {
	return fmt.Sprintf("Join %s on a magical adventure in \"%s\". A wonderful tale of courage, friendship, and discovery awaits!",
		p.HeroOrDefault().Name, p.StoryTitle)
}

// FallbackContent is the canned story of a failed generation.
func FallbackContent(p types.CreationParameters) string {
	hero := p.HeroOrDefault()
	return fmt.Sprintf("Once upon a time, there was a %s named %s who lived in a magical world. "+
		"%s was brave and kind, always ready for adventure. "+
		"One day, an incredible journey began that would change everything...", hero.Type, hero.Name, hero.Name)
}

func openingLine(p types.CreationParameters) string {
	return fmt.Sprintf("Once upon a time, %s embarked on an incredible adventure...", p.HeroOrDefault().Name)
}

func joinOr(values []string, empty string) string {
	if len(values) == 0 {
		return empty
	}
	return strings.Join(values, ", ")
}
