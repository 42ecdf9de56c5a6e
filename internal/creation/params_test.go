package creation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azyu/ploomer/pkg/types"
)

func TestEncodeDecodeParams(t *testing.T) {
	p := types.CreationParameters{
		HeroType:   types.HeroAnimal,
		HeroName:   "Rusty",
		StoryTitle: "Test",
		Mode:       types.ModeQuestionnaire,
		Hero: &types.Hero{
			Name:       "Rusty",
			Type:       types.HeroAnimal,
			Appearance: types.DefaultAppearance(),
		},
		QuestionnaireAnswers: types.QuestionnaireAnswers{"topic": {"courage", "fear"}},
	}

	bag, err := EncodeParams(p)
	require.NoError(t, err)
	assert.Equal(t, "questionnaire", bag[ParamMode])
	assert.NotContains(t, bag, ParamIsTemplateBased)

	got, err := DecodeParams(bag)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestDecodeParams(t *testing.T) {
	t.Run("hero fills missing flat keys", func(t *testing.T) {
		got, err := DecodeParams(map[string]string{
			ParamHero:            `{"name":"Luna","type":"girl","appearance":{"hairColor":"#000000","skinColor":"#FDBCB4","clothingColor":"#4CAF50"}}`,
			ParamStoryTitle:      "Sea",
			ParamMode:            "customization",
			ParamTemplateID:      "ocean-rescue",
			ParamIsTemplateBased: "true",
		})
		require.NoError(t, err)
		assert.Equal(t, "Luna", got.HeroName)
		assert.Equal(t, types.HeroGirl, got.HeroType)
		assert.True(t, got.IsTemplateBased)
	})

	t.Run("malformed hero", func(t *testing.T) {
		_, err := DecodeParams(map[string]string{ParamHero: "{"})
		assert.Error(t, err)
	})

	t.Run("mode invariants are enforced", func(t *testing.T) {
		_, err := DecodeParams(map[string]string{
			ParamHeroType:   "boy",
			ParamHeroName:   "Max",
			ParamStoryTitle: "Moon",
			ParamMode:       "customization",
		})
		var verr *types.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "templateId", verr.Field)
	})
}

func TestFilterTemplates(t *testing.T) {
	assert.Len(t, FilterTemplates("", CategoryAll), len(Templates()))
	assert.Len(t, FilterTemplates("", ""), len(Templates()))

	adventure := FilterTemplates("", "adventure")
	require.Len(t, adventure, 2)
	for _, tpl := range adventure {
		assert.Equal(t, "adventure", tpl.Category)
	}

	byDescription := FilterTemplates("SEA CREATURES", CategoryAll)
	require.Len(t, byDescription, 1)
	assert.Equal(t, "ocean-rescue", byDescription[0].ID)

	assert.Empty(t, FilterTemplates("dragon", "bedtime"))
}
