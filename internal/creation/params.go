package creation

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/azyu/ploomer/pkg/types"
)

// Keys of the flat navigation parameter bag.
const (
	ParamHeroType             = "heroType"
	ParamHeroName             = "heroName"
	ParamHero                 = "hero"
	ParamStoryTitle           = "storyTitle"
	ParamMode                 = "mode"
	ParamQuestionnaireAnswers = "questionnaireAnswers"
	ParamTemplateID           = "templateId"
	ParamIsTemplateBased      = "isTemplateBased"
)

// EncodeParams flattens p into the string bag carried across screens.
// Structured fields are JSON encoded.
func EncodeParams(p types.CreationParameters) (map[string]string, error) {
	bag := map[string]string{
		ParamHeroType:   string(p.HeroType),
		ParamHeroName:   p.HeroName,
		ParamStoryTitle: p.StoryTitle,
		ParamMode:       string(p.Mode),
	}
	if p.Hero != nil {
		data, err := json.Marshal(p.Hero)
		if err != nil {
			return nil, fmt.Errorf("failed to encode hero: %w", err)
		}
		bag[ParamHero] = string(data)
	}
	if len(p.QuestionnaireAnswers) > 0 {
		data, err := json.Marshal(p.QuestionnaireAnswers)
		if err != nil {
			return nil, fmt.Errorf("failed to encode answers: %w", err)
		}
		bag[ParamQuestionnaireAnswers] = string(data)
	}
	if p.TemplateID != "" {
		bag[ParamTemplateID] = p.TemplateID
	}
	if p.IsTemplateBased {
		bag[ParamIsTemplateBased] = "true"
	}
	return bag, nil
}

// DecodeParams rebuilds creation parameters from a navigation bag. Hero type
// and name fall back to the serialized hero when the flat keys are absent.
// The result is validated.
func DecodeParams(bag map[string]string) (types.CreationParameters, error) {
	p := types.CreationParameters{
		HeroType:   types.HeroType(bag[ParamHeroType]),
		HeroName:   bag[ParamHeroName],
		StoryTitle: bag[ParamStoryTitle],
		Mode:       types.Mode(bag[ParamMode]),
		TemplateID: bag[ParamTemplateID],
	}

	if raw, ok := bag[ParamHero]; ok && raw != "" {
		var hero types.Hero
		if err := json.Unmarshal([]byte(raw), &hero); err != nil {
			return types.CreationParameters{}, fmt.Errorf("failed to decode hero: %w", err)
		}
		p.Hero = &hero
		if p.HeroName == "" {
			p.HeroName = hero.Name
		}
		if p.HeroType == "" {
			p.HeroType = hero.Type
		}
	}

	if raw, ok := bag[ParamQuestionnaireAnswers]; ok && raw != "" {
		var answers types.QuestionnaireAnswers
		if err := json.Unmarshal([]byte(raw), &answers); err != nil {
			return types.CreationParameters{}, fmt.Errorf("failed to decode answers: %w", err)
		}
		p.QuestionnaireAnswers = answers
	}

	if raw, ok := bag[ParamIsTemplateBased]; ok && raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return types.CreationParameters{}, fmt.Errorf("invalid %s: %w", ParamIsTemplateBased, err)
		}
		p.IsTemplateBased = v
	}

	if err := p.Validate(); err != nil {
		return types.CreationParameters{}, err
	}
	return p, nil
}
