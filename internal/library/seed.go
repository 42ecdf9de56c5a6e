package library

import (
	"time"

	"github.com/azyu/ploomer/pkg/types"
)

// SeedStories is the demo collection a fresh or unreadable store starts from.
func SeedStories() []types.Story {
	luna := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	rusty := time.Date(2024, 1, 14, 15, 30, 0, 0, time.UTC)

	return []types.Story{
		{
			ID:           "1",
			Title:        "The Forest's Whisper",
			HeroName:     "Luna",
			HeroType:     types.HeroGirl,
			ImageURL:     ForestImage,
			ReadingTime:  5,
			Summary:      "A magical adventure where Luna discovers talking animals in an enchanted forest.",
			Content:      "Once upon a time, in a forest filled with wonder...",
			Illustration: ForestImage,
			Tags:         []string{"Adventure", "Nature", "Ages 5+"},
			Hero: types.Hero{
				Name: "Luna",
				Type: types.HeroGirl,
				Appearance: types.Appearance{
					HairColor:     "#8B4513",
					SkinColor:     "#FDBCB4",
					ClothingColor: "#4CAF50",
				},
			},
			IsFavorite: true,
			CreatedAt:  luna,
			UpdatedAt:  luna,
			UserID:     DefaultUserID,
		},
		{
			ID:           "2",
			Title:        "The Brave Little Fox",
			HeroName:     "Rusty",
			HeroType:     types.HeroAnimal,
			ImageURL:     PlaceholderImage,
			ReadingTime:  4,
			Summary:      "Rusty the fox learns about courage while helping his forest friends.",
			Content:      "In a cozy den beneath the old oak tree...",
			Illustration: PlaceholderImage,
			Tags:         []string{"Courage", "Friendship", "Ages 4+"},
			Hero: types.Hero{
				Name: "Rusty",
				Type: types.HeroAnimal,
				Appearance: types.Appearance{
					HairColor:     "#FF6B35",
					SkinColor:     "#FF6B35",
					ClothingColor: "#2E8B57",
					AnimalType:    "fox",
				},
			},
			IsFavorite: false,
			CreatedAt:  rusty,
			UpdatedAt:  rusty,
			UserID:     DefaultUserID,
		},
	}
}
