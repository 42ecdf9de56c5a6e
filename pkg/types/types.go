// Package types provides shared data models for ploomer.
package types

import (
	"strings"
	"time"
)

// HeroType is the kind of protagonist a story is built around.
type HeroType string

const (
	HeroBoy    HeroType = "boy"
	HeroGirl   HeroType = "girl"
	HeroAnimal HeroType = "animal"
)

// Valid reports whether t is one of the known hero types.
func (t HeroType) Valid() bool {
	switch t {
	case HeroBoy, HeroGirl, HeroAnimal:
		return true
	}
	return false
}

// Appearance describes how a hero looks. AnimalType is only set for animal heroes.
type Appearance struct {
	HairColor     string `json:"hairColor" yaml:"hair_color"`
	SkinColor     string `json:"skinColor" yaml:"skin_color"`
	ClothingColor string `json:"clothingColor" yaml:"clothing_color"`
	AnimalType    string `json:"animalType,omitempty" yaml:"animal_type,omitempty"`
}

// DefaultAppearance is used whenever the user never picked colours.
func DefaultAppearance() Appearance {
	return Appearance{
		HairColor:     "#8B4513",
		SkinColor:     "#FDBCB4",
		ClothingColor: "#4CAF50",
	}
}

// Hero is the protagonist of a story.
type Hero struct {
	Name       string     `json:"name"`
	Type       HeroType   `json:"type"`
	Appearance Appearance `json:"appearance"`
}

// Mode selects how a story gets created.
type Mode string

const (
	ModeDialogue      Mode = "dialogue"
	ModeQuestionnaire Mode = "questionnaire"
	ModeCustomization Mode = "customization"
)

// Valid reports whether m is one of the known creation modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeDialogue, ModeQuestionnaire, ModeCustomization:
		return true
	}
	return false
}

// Prefilled reports whether the mode collects its story elements up front,
// which makes the chat session generate automatically.
func (m Mode) Prefilled() bool {
	return m == ModeQuestionnaire || m == ModeCustomization
}

// QuestionnaireAnswers maps question id to the selected option ids in selection order.
type QuestionnaireAnswers map[string][]string

// Clone returns a deep copy.
func (a QuestionnaireAnswers) Clone() QuestionnaireAnswers {
	if a == nil {
		return nil
	}
	out := make(QuestionnaireAnswers, len(a))
	for k, v := range a {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// Empty reports whether no question has any selection.
func (a QuestionnaireAnswers) Empty() bool {
	for _, v := range a {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// CreationParameters is the immutable output of the creation wizard and the
// input of a generation session.
type CreationParameters struct {
	HeroType             HeroType             `json:"heroType"`
	HeroName             string               `json:"heroName"`
	StoryTitle           string               `json:"storyTitle"`
	Mode                 Mode                 `json:"mode"`
	Hero                 *Hero                `json:"hero,omitempty"`
	QuestionnaireAnswers QuestionnaireAnswers `json:"questionnaireAnswers,omitempty"`
	TemplateID           string               `json:"templateId,omitempty"`
	IsTemplateBased      bool                 `json:"isTemplateBased,omitempty"`
}

// Validate checks the invariants every finished set of parameters holds.
func (p CreationParameters) Validate() error {
	switch {
	case !p.HeroType.Valid():
		return &ValidationError{Field: "heroType", Reason: "unknown hero type"}
	case strings.TrimSpace(p.HeroName) == "":
		return &ValidationError{Field: "heroName", Reason: "required"}
	case strings.TrimSpace(p.StoryTitle) == "":
		return &ValidationError{Field: "storyTitle", Reason: "required"}
	case !p.Mode.Valid():
		return &ValidationError{Field: "mode", Reason: "unknown mode"}
	case p.Mode == ModeQuestionnaire && p.QuestionnaireAnswers.Empty():
		return &ValidationError{Field: "questionnaireAnswers", Reason: "required in questionnaire mode"}
	case p.Mode == ModeCustomization && p.TemplateID == "":
		return &ValidationError{Field: "templateId", Reason: "required in customization mode"}
	}
	return nil
}

// HeroOrDefault returns the assembled hero, or one built from name and type
// with the default appearance.
func (p CreationParameters) HeroOrDefault() Hero {
	if p.Hero != nil {
		return *p.Hero
	}
	return Hero{Name: p.HeroName, Type: p.HeroType, Appearance: DefaultAppearance()}
}

// ValidationError reports a parameter that breaks an invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Role is the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one entry of a generation session's log.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Draft is a partial story. Zero values mean "not provided": nil Tags, zero
// ReadingTime and nil Hero are all filled in by the store when saved.
type Draft struct {
	Title                string
	HeroName             string
	HeroType             HeroType
	ImageURL             string
	ReadingTime          int
	Summary              string
	Content              string
	Illustration         string
	Tags                 []string
	Hero                 *Hero
	AudioURL             string
	QuestionnaireAnswers QuestionnaireAnswers
	TemplateID           string
	IsTemplateBased      bool
}

// Story is a persisted, fully populated story record.
type Story struct {
	ID                   string               `json:"id"`
	Title                string               `json:"title"`
	HeroName             string               `json:"hero_name"`
	HeroType             HeroType             `json:"hero_type"`
	ImageURL             string               `json:"image_url"`
	ReadingTime          int                  `json:"reading_time"`
	Summary              string               `json:"summary"`
	Content              string               `json:"content"`
	Illustration         string               `json:"illustration"`
	Tags                 []string             `json:"tags"`
	Hero                 Hero                 `json:"hero"`
	IsFavorite           bool                 `json:"isFavorite"`
	AudioURL             string               `json:"audioUrl,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
	UserID               string               `json:"userId"`
	QuestionnaireAnswers QuestionnaireAnswers `json:"questionnaireAnswers,omitempty"`
	TemplateID           string               `json:"template_id,omitempty"`
	IsTemplateBased      bool                 `json:"is_template_based,omitempty"`
}

// Difficulty grades a story template.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// StoryTemplate is a catalog entry for customization mode.
type StoryTemplate struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	CoverImage        string     `json:"cover_image"`
	Category          string     `json:"category"`
	Description       string     `json:"description"`
	Tags              []string   `json:"tags"`
	Difficulty        Difficulty `json:"difficulty"`
	EstimatedTime     int        `json:"estimated_time"`
	IllustrationStyle string     `json:"illustration_style"`
}

// User is the locally stored, mock-authenticated account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GlobalConfig is the user-wide configuration at ~/.config/ploomer/config.yaml.
type GlobalConfig struct {
	Version    int                        `yaml:"version"`
	DataDir    string                     `yaml:"data_dir"`
	Providers  map[string]*ProviderConfig `yaml:"providers"`
	Defaults   DefaultsConfig             `yaml:"defaults"`
	Logging    LoggingConfig              `yaml:"logging"`
	Storage    StorageConfig              `yaml:"storage"`
	Generation GenerationConfig           `yaml:"generation"`
}

// ProviderConfig holds API configuration for an LLM provider.
type ProviderConfig struct {
	APIKey       string `yaml:"api_key"`
	DefaultModel string `yaml:"default_model"`
	BaseURL      string `yaml:"base_url,omitempty"`
}

// DefaultsConfig specifies default settings.
type DefaultsConfig struct {
	Provider string `yaml:"provider"`
}

// LoggingConfig specifies logging settings.
type LoggingConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
	Output   string `yaml:"output,omitempty"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend string `yaml:"backend"` // sqlite, file, memory
}

// GenerationConfig tunes the chat session.
type GenerationConfig struct {
	AutoGenerateDelay  time.Duration `yaml:"auto_generate_delay"`
	RequestTimeout     time.Duration `yaml:"request_timeout"`
	HistoryTokenBudget int           `yaml:"history_token_budget"`
	UserID             string        `yaml:"user_id"`
}

// DefaultGlobalConfig returns a new GlobalConfig with sensible defaults.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Version:   1,
		DataDir:   "~/.local/share/ploomer",
		Providers: make(map[string]*ProviderConfig),
		Defaults: DefaultsConfig{
			Provider: "toolkit",
		},
		Logging: LoggingConfig{
			Level:    "warn",
			Encoding: "console",
			Output:   "stderr",
		},
		Storage: StorageConfig{
			Backend: "sqlite",
		},
		Generation: GenerationConfig{
			AutoGenerateDelay:  2 * time.Second,
			RequestTimeout:     60 * time.Second,
			HistoryTokenBudget: 6000,
			UserID:             "1",
		},
	}
}
