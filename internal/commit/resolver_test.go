package commit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/azyu/ploomer/internal/generation"
	"github.com/azyu/ploomer/internal/library"
	"github.com/azyu/ploomer/internal/llm"
	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) Save(ctx context.Context, draft types.Draft) (types.Story, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(types.Story), args.Error(1)
}

func params(mode types.Mode) types.CreationParameters {
	p := types.CreationParameters{
		HeroType:   types.HeroAnimal,
		HeroName:   "Rusty",
		StoryTitle: "Test",
		Mode:       mode,
	}
	switch mode {
	case types.ModeQuestionnaire:
		p.QuestionnaireAnswers = types.QuestionnaireAnswers{"topic": {"courage"}}
	case types.ModeCustomization:
		p.TemplateID = "ocean-rescue"
		p.IsTemplateBased = true
	}
	return p
}

func TestResolveDestination(t *testing.T) {
	tests := []struct {
		mode types.Mode
		want Destination
	}{
		{types.ModeQuestionnaire, Destination{Route: RouteReader, Params: map[string]string{ParamStoryID: "s1"}}},
		{types.ModeCustomization, Destination{Route: RouteReader, Params: map[string]string{ParamStoryID: "s1"}}},
		{types.ModeDialogue, Destination{Route: RouteHome}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveDestination(tt.mode, "s1"))
		})
	}
}

func TestCommit(t *testing.T) {
	draft := types.Draft{Title: "Test", HeroName: "Rusty"}
	saved := types.Story{ID: "s1", Title: "Test"}

	t.Run("success and fallback route the same way", func(t *testing.T) {
		for _, status := range []generation.Status{generation.StatusOK, generation.StatusFallback} {
			saver := &mockSaver{}
			saver.On("Save", mock.Anything, draft).Return(saved, nil).Once()

			out, err := NewResolver(saver).Commit(context.Background(), params(types.ModeCustomization),
				generation.Result{Status: status, Draft: draft})
			require.NoError(t, err)
			assert.Equal(t, RouteReader, out.Destination.Route)
			assert.Equal(t, "s1", out.Destination.Params[ParamStoryID])
			assert.Equal(t, status == generation.StatusFallback, out.Fallback)
			saver.AssertExpectations(t)
		}
	})

	t.Run("ignored result is not saved", func(t *testing.T) {
		saver := &mockSaver{}
		_, err := NewResolver(saver).Commit(context.Background(), params(types.ModeDialogue),
			generation.Result{Status: generation.StatusIgnored})
		assert.ErrorIs(t, err, ErrNothingToCommit)
		saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("fallback can be rejected", func(t *testing.T) {
		cause := errors.New("offline")
		saver := &mockSaver{}
		_, err := NewResolver(saver, AcceptFallback(false)).Commit(context.Background(), params(types.ModeDialogue),
			generation.Result{Status: generation.StatusFallback, Draft: draft, Err: cause})
		assert.ErrorIs(t, err, ErrFallbackRejected)
		assert.ErrorIs(t, err, cause)
		saver.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("store failure is returned", func(t *testing.T) {
		saver := &mockSaver{}
		saver.On("Save", mock.Anything, draft).Return(types.Story{}, library.ErrPersist)

		_, err := NewResolver(saver).Commit(context.Background(), params(types.ModeDialogue),
			generation.Result{Status: generation.StatusOK, Draft: draft})
		assert.ErrorIs(t, err, library.ErrPersist)
	})
}

// failingProvider makes every generation fall back.
type failingProvider struct{}

func (failingProvider) Chat(context.Context, llm.ChatRequest) (*llm.ChatResponse, error) {
	return nil, llm.ErrAPIError
}
func (failingProvider) Capabilities() llm.Capabilities { return llm.Capabilities{} }
func (failingProvider) Close() error                   { return nil }

func TestCommit_FallbackEndToEnd(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	store := library.NewStore(storage.NewMemoryKV(), library.WithPolicy(library.Policy{
		Now:    func() time.Time { return now },
		NewID:  func() string { return "new-story" },
		Intn:   func(int) int { return 0 },
		UserID: "1",
	}))
	_, err := store.Load(ctx)
	require.NoError(t, err)
	before := len(store.Stories())

	p := params(types.ModeQuestionnaire)
	session, err := generation.NewSession(ctx, failingProvider{}, p)
	require.NoError(t, err)
	defer session.Close()

	res := session.Generate(ctx)
	require.Equal(t, generation.StatusFallback, res.Status)

	out, err := NewResolver(store).Commit(ctx, p, res)
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, Destination{Route: RouteReader, Params: map[string]string{ParamStoryID: "new-story"}}, out.Destination)

	stories := store.Stories()
	require.Len(t, stories, before+1)
	head := stories[0]
	assert.Equal(t, "new-story", head.ID)
	assert.Equal(t, "Rusty", head.HeroName)
	assert.Equal(t, types.HeroAnimal, head.HeroType)
	assert.Equal(t, "Test", head.Title)
	assert.False(t, head.IsTemplateBased)
	assert.Equal(t, []string{"Adventure", "Magic", "Ages 5+"}, head.Tags)
	assert.Equal(t, 4, head.ReadingTime)
	assert.Equal(t, p.QuestionnaireAnswers, head.QuestionnaireAnswers)
	assert.False(t, head.IsFavorite)
}
