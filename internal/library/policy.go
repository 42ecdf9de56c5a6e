package library

import (
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azyu/ploomer/pkg/types"
)

// Placeholder artwork used when a story has no image of its own.
const (
	PlaceholderImage = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400&h=300&fit=crop"
	ForestImage      = "https://images.unsplash.com/photo-1441974231531-c6227db76b6e?w=400&h=300&fit=crop"
)

const (
	DefaultTitle    = "Untitled Story"
	DefaultHeroName = "Hero"
	DefaultSummary  = "A wonderful adventure awaits in this magical tale..."
	DefaultContent  = "Once upon a time..."
	DefaultUserID   = "1"

	minReadingTime = 3
	readingSpread  = 5 // reading time lands in [3, 7]
)

// DefaultTags returns the tags a story gets when none were supplied.
func DefaultTags() []string {
	return []string{"Adventure", "Magic", "Ages 5+"}
}

// Policy fills in everything a draft leaves out. The function fields make the
// non-deterministic parts pinnable in tests.
type Policy struct {
	Now    func() time.Time
	NewID  func() string
	Intn   func(n int) int
	UserID string
}

// DefaultPolicy uses the wall clock, random UUIDs and math/rand.
func DefaultPolicy() Policy {
	return Policy{
		Now:    time.Now,
		NewID:  uuid.NewString,
		Intn:   rand.IntN,
		UserID: DefaultUserID,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Now == nil {
		p.Now = d.Now
	}
	if p.NewID == nil {
		p.NewID = d.NewID
	}
	if p.Intn == nil {
		p.Intn = d.Intn
	}
	if p.UserID == "" {
		p.UserID = d.UserID
	}
	return p
}

// Normalize turns a partial draft into a complete Story stamped at now.
func (p Policy) Normalize(d types.Draft, now time.Time) types.Story {
	p = p.withDefaults()

	heroName := firstNonBlank(d.HeroName, heroField(d.Hero, func(h *types.Hero) string { return h.Name }), DefaultHeroName)
	heroType := d.HeroType
	if !heroType.Valid() {
		heroType = types.HeroType(heroField(d.Hero, func(h *types.Hero) string { return string(h.Type) }))
	}
	if !heroType.Valid() {
		heroType = types.HeroBoy
	}

	hero := types.Hero{Name: heroName, Type: heroType, Appearance: types.DefaultAppearance()}
	if d.Hero != nil {
		hero = *d.Hero
		if hero.Name == "" {
			hero.Name = heroName
		}
		if !hero.Type.Valid() {
			hero.Type = heroType
		}
	}

	readingTime := d.ReadingTime
	if readingTime <= 0 {
		readingTime = minReadingTime + p.Intn(readingSpread)
	}

	tags := append([]string(nil), d.Tags...)
	if len(tags) == 0 {
		tags = DefaultTags()
	}

	return types.Story{
		ID:                   p.NewID(),
		Title:                firstNonBlank(d.Title, DefaultTitle),
		HeroName:             heroName,
		HeroType:             heroType,
		ImageURL:             firstNonBlank(d.ImageURL, d.Illustration, PlaceholderImage),
		ReadingTime:          readingTime,
		Summary:              firstNonBlank(d.Summary, DefaultSummary),
		Content:              firstNonBlank(d.Content, DefaultContent),
		Illustration:         firstNonBlank(d.Illustration, d.ImageURL, PlaceholderImage),
		Tags:                 tags,
		Hero:                 hero,
		IsFavorite:           false,
		AudioURL:             d.AudioURL,
		CreatedAt:            now,
		UpdatedAt:            now,
		UserID:               p.UserID,
		QuestionnaireAnswers: d.QuestionnaireAnswers.Clone(),
		TemplateID:           d.TemplateID,
		IsTemplateBased:      d.IsTemplateBased,
	}
}

func heroField(h *types.Hero, get func(*types.Hero) string) string {
	if h == nil {
		return ""
	}
	return get(h)
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
