package types

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultGlobalConfig(t *testing.T) {
	cfg := DefaultGlobalConfig()

	assert.Equal(t, 1, cfg.Version)
	assert.Equal(t, "toolkit", cfg.Defaults.Provider)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 2*time.Second, cfg.Generation.AutoGenerateDelay)
	assert.Equal(t, "1", cfg.Generation.UserID)
	assert.NotNil(t, cfg.Providers)
}

func TestMode(t *testing.T) {
	tests := []struct {
		mode      Mode
		valid     bool
		prefilled bool
	}{
		{ModeDialogue, true, false},
		{ModeQuestionnaire, true, true},
		{ModeCustomization, true, true},
		{Mode("freestyle"), false, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.mode.Valid())
			assert.Equal(t, tt.prefilled, tt.mode.Prefilled())
		})
	}
}

func TestCreationParameters_Validate(t *testing.T) {
	base := CreationParameters{
		HeroType:   HeroGirl,
		HeroName:   "Luna",
		StoryTitle: "The Forest's Whisper",
		Mode:       ModeDialogue,
	}

	tests := []struct {
		name      string
		mutate    func(p *CreationParameters)
		wantField string
	}{
		{"valid dialogue", func(p *CreationParameters) {}, ""},
		{"unknown hero type", func(p *CreationParameters) { p.HeroType = "dragon" }, "heroType"},
		{"blank name", func(p *CreationParameters) { p.HeroName = "  " }, "heroName"},
		{"blank title", func(p *CreationParameters) { p.StoryTitle = "" }, "storyTitle"},
		{"unknown mode", func(p *CreationParameters) { p.Mode = "x" }, "mode"},
		{"questionnaire without answers", func(p *CreationParameters) {
			p.Mode = ModeQuestionnaire
			p.QuestionnaireAnswers = QuestionnaireAnswers{"topic": nil}
		}, "questionnaireAnswers"},
		{"questionnaire with answers", func(p *CreationParameters) {
			p.Mode = ModeQuestionnaire
			p.QuestionnaireAnswers = QuestionnaireAnswers{"topic": {"courage"}}
		}, ""},
		{"customization without template", func(p *CreationParameters) { p.Mode = ModeCustomization }, "templateId"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
		})
	}
}

func TestCreationParameters_HeroOrDefault(t *testing.T) {
	p := CreationParameters{HeroType: HeroBoy, HeroName: "Max"}
	hero := p.HeroOrDefault()
	assert.Equal(t, "Max", hero.Name)
	assert.Equal(t, HeroBoy, hero.Type)
	assert.Equal(t, DefaultAppearance(), hero.Appearance)

	custom := &Hero{Name: "Rusty", Type: HeroAnimal, Appearance: Appearance{AnimalType: "fox"}}
	p.Hero = custom
	assert.Equal(t, *custom, p.HeroOrDefault())
}

func TestQuestionnaireAnswers_Clone(t *testing.T) {
	orig := QuestionnaireAnswers{"topic": {"courage", "nature"}}
	clone := orig.Clone()
	clone["topic"][0] = "fear"

	assert.Equal(t, "courage", orig["topic"][0])
	assert.Nil(t, QuestionnaireAnswers(nil).Clone())
}

func TestStory_JSONFieldNames(t *testing.T) {
	s := Story{
		ID:              "1",
		HeroName:        "Luna",
		HeroType:        HeroGirl,
		ImageURL:        "u",
		ReadingTime:     5,
		IsFavorite:      true,
		TemplateID:      "t1",
		IsTemplateBased: true,
		Hero:            Hero{Appearance: Appearance{HairColor: "#000000"}},
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"hero_name", "hero_type", "image_url", "reading_time", "isFavorite", "created_at", "updated_at", "userId", "template_id", "is_template_based"} {
		assert.Contains(t, raw, key)
	}
	hero := raw["hero"].(map[string]any)
	appearance := hero["appearance"].(map[string]any)
	assert.Equal(t, "#000000", appearance["hairColor"])
	assert.NotContains(t, appearance, "animalType")
}
