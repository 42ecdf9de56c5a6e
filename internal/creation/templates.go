package creation

import (
	"strings"

	"github.com/azyu/ploomer/pkg/types"
)

// CategoryAll matches every template in FilterTemplates.
const CategoryAll = "all"

// Category groups templates in the browser.
type Category struct {
	ID    string
	Label string
	Color string
}

var categories = []Category{
	{ID: CategoryAll, Label: "All", Color: "#9B7BC7"},
	{ID: "adventure", Label: "Adventure", Color: "#FF6B35"},
	{ID: "friendship", Label: "Friendship", Color: "#E91E63"},
	{ID: "nature", Label: "Nature", Color: "#4CAF50"},
	{ID: "bedtime", Label: "Bedtime", Color: "#2196F3"},
}

var templates = []types.StoryTemplate{
	{
		ID:                "treasure-map",
		Title:             "The Lost Treasure Map",
		CoverImage:        "https://images.unsplash.com/photo-1519681393784-d120267933ba?w=400&h=300&fit=crop",
		Category:          "adventure",
		Description:       "An old map leads our hero across rivers and mountains to a hidden treasure.",
		Tags:              []string{"Adventure", "Explorer", "Ages 5+"},
		Difficulty:        types.DifficultyMedium,
		EstimatedTime:     6,
		IllustrationStyle: "watercolor",
	},
	{
		ID:                "new-friend",
		Title:             "A Friend in the Meadow",
		CoverImage:        "https://images.unsplash.com/photo-1500382017468-9049fed747ef?w=400&h=300&fit=crop",
		Category:          "friendship",
		Description:       "A shy newcomer learns that kindness is the best way to make friends.",
		Tags:              []string{"Friendship", "Kindness", "Ages 4+"},
		Difficulty:        types.DifficultyEasy,
		EstimatedTime:     4,
		IllustrationStyle: "pastel",
	},
	{
		ID:                "ocean-rescue",
		Title:             "Ocean Rescue",
		CoverImage:        "https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=400&h=300&fit=crop",
		Category:          "nature",
		Description:       "Our hero dives under the waves to help sea creatures clean up their home.",
		Tags:              []string{"Nature", "Ocean", "Ages 5+"},
		Difficulty:        types.DifficultyMedium,
		EstimatedTime:     5,
		IllustrationStyle: "bright",
	},
	{
		ID:                "sleepy-stars",
		Title:             "Counting Sleepy Stars",
		CoverImage:        "https://images.unsplash.com/photo-1419242902214-272b3f66ee7a?w=400&h=300&fit=crop",
		Category:          "bedtime",
		Description:       "A gentle journey across the night sky that ends snug in bed.",
		Tags:              []string{"Bedtime", "Calm", "Ages 3+"},
		Difficulty:        types.DifficultyEasy,
		EstimatedTime:     3,
		IllustrationStyle: "soft",
	},
	{
		ID:                "dragon-mountain",
		Title:             "The Dragon of Misty Mountain",
		CoverImage:        "https://images.unsplash.com/photo-1464822759023-fed622ff2c3b?w=400&h=300&fit=crop",
		Category:          "adventure",
		Description:       "A misunderstood dragon needs help, and only a brave hero will listen.",
		Tags:              []string{"Adventure", "Courage", "Ages 6+"},
		Difficulty:        types.DifficultyHard,
		EstimatedTime:     8,
		IllustrationStyle: "storybook",
	},
}

// Categories returns the template categories, "all" first.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// Templates returns the full catalog.
func Templates() []types.StoryTemplate {
	out := make([]types.StoryTemplate, len(templates))
	copy(out, templates)
	return out
}

// FindTemplate looks up a template by id.
func FindTemplate(id string) (types.StoryTemplate, bool) {
	for _, t := range templates {
		if t.ID == id {
			return t, true
		}
	}
	return types.StoryTemplate{}, false
}

// FilterTemplates returns the templates whose title or description contains
// query (case-insensitive) and whose category matches. An empty category
// behaves like CategoryAll.
func FilterTemplates(query, category string) []types.StoryTemplate {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []types.StoryTemplate
	for _, t := range templates {
		if category != "" && category != CategoryAll && t.Category != category {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(t.Title), query) &&
			!strings.Contains(strings.ToLower(t.Description), query) {
			continue
		}
		out = append(out, t)
	}
	return out
}
