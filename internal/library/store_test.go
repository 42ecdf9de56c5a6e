package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

// mockKV is a testify mock of storage.KV.
type mockKV struct {
	mock.Mock
}

func (m *mockKV) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *mockKV) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockKV) Close() error {
	return m.Called().Error(0)
}

// testClock hands out strictly increasing instants one second apart.
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func testPolicy() Policy {
	clock := &testClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	n := 0
	return Policy{
		Now: clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("story-%d", n)
		},
		Intn:   func(int) int { return 2 },
		UserID: "u-test",
	}
}

func newTestStore(t *testing.T) (*Store, *storage.MemoryKV) {
	t.Helper()
	kv := storage.NewMemoryKV()
	return NewStore(kv, WithPolicy(testPolicy())), kv
}

func assertFavoritesDerived(t *testing.T, s *Store) {
	t.Helper()
	var want []types.Story
	for _, st := range s.Stories() {
		if st.IsFavorite {
			want = append(want, st)
		}
	}
	got := s.Favorites()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
	}
}

// =============================================================================
// Load
// =============================================================================

func TestStore_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds when nothing is stored", func(t *testing.T) {
		s, _ := newTestStore(t)

		source, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceSeeded, source)

		stories := s.Stories()
		require.Len(t, stories, 2)
		assert.Equal(t, "1", stories[0].ID)
		assert.Equal(t, "2", stories[1].ID)

		favorites := s.Favorites()
		require.Len(t, favorites, 1)
		assert.Equal(t, "The Forest's Whisper", favorites[0].Title)
	})

	t.Run("sorts persisted stories newest first", func(t *testing.T) {
		s, kv := newTestStore(t)
		require.NoError(t, kv.Set(ctx, StoriesKey, `[
			{"id":"old","created_at":"2024-01-01T00:00:00Z"},
			{"id":"new","created_at":"2024-06-01T00:00:00Z","isFavorite":true},
			{"id":"mid","created_at":"2024-03-01T00:00:00Z"}
		]`))

		source, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourcePersisted, source)

		var ids []string
		for _, st := range s.Stories() {
			ids = append(ids, st.ID)
		}
		assert.Equal(t, []string{"new", "mid", "old"}, ids)
		assertFavoritesDerived(t, s)
	})

	t.Run("corrupt data is logged and replaced by seed", func(t *testing.T) {
		core, logs := observer.New(zap.WarnLevel)
		kv := storage.NewMemoryKV()
		require.NoError(t, kv.Set(ctx, StoriesKey, "{not json"))
		s := NewStore(kv, WithLogger(zap.New(core)))

		source, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceRecovered, source)
		assert.Len(t, s.Stories(), 2)
		assert.Equal(t, 1, logs.Len())
	})

	t.Run("corrupt storage file recovers and saves", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "storage.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		kv, err := storage.Open(storage.BackendFile, dir)
		require.NoError(t, err)
		defer kv.Close()

		s := NewStore(kv, WithPolicy(testPolicy()))
		source, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Contains(t, []Source{SourceSeeded, SourceRecovered}, source)
		assert.Len(t, s.Stories(), 2)

		story, err := s.Save(ctx, types.Draft{Title: "After the storm"})
		require.NoError(t, err)

		reloaded := NewStore(kv)
		source, err = reloaded.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourcePersisted, source)
		got, ok := reloaded.Get(story.ID)
		require.True(t, ok)
		assert.Equal(t, "After the storm", got.Title)
	})

	t.Run("read failure falls back to seed", func(t *testing.T) {
		kv := new(mockKV)
		kv.On("Get", mock.Anything, StoriesKey).Return("", errors.New("disk on fire"))
		s := NewStore(kv)

		source, err := s.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourceRecovered, source)
		assert.Len(t, s.Stories(), 2)
		kv.AssertExpectations(t)
	})

	t.Run("cancelled context is the only error", func(t *testing.T) {
		s, _ := newTestStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Load(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("refresh is idempotent", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, err := s.Save(ctx, types.Draft{Title: "Kept"})
		require.NoError(t, err)

		before := s.Stories()
		require.NoError(t, s.Refresh(ctx))
		require.NoError(t, s.Refresh(ctx))
		assert.Equal(t, before, s.Stories())
	})
}

// =============================================================================
// Save
// =============================================================================

func TestStore_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("empty draft satisfies every invariant", func(t *testing.T) {
		s, _ := newTestStore(t)

		story, err := s.Save(ctx, types.Draft{})
		require.NoError(t, err)

		assert.Equal(t, "story-1", story.ID)
		assert.Equal(t, DefaultTitle, story.Title)
		assert.Equal(t, DefaultHeroName, story.HeroName)
		assert.Equal(t, types.HeroBoy, story.HeroType)
		assert.Equal(t, []string{"Adventure", "Magic", "Ages 5+"}, story.Tags)
		assert.Equal(t, 5, story.ReadingTime)
		assert.Equal(t, PlaceholderImage, story.Illustration)
		assert.Equal(t, PlaceholderImage, story.ImageURL)
		assert.Equal(t, DefaultSummary, story.Summary)
		assert.Equal(t, DefaultContent, story.Content)
		assert.Equal(t, types.DefaultAppearance(), story.Hero.Appearance)
		assert.Equal(t, DefaultHeroName, story.Hero.Name)
		assert.False(t, story.IsFavorite)
		assert.False(t, story.IsTemplateBased)
		assert.Equal(t, "u-test", story.UserID)
		assert.Equal(t, story.CreatedAt, story.UpdatedAt)
	})

	t.Run("hero fields derive from hero", func(t *testing.T) {
		s, _ := newTestStore(t)
		hero := &types.Hero{Name: "Rusty", Type: types.HeroAnimal, Appearance: types.Appearance{AnimalType: "fox"}}

		story, err := s.Save(ctx, types.Draft{Hero: hero})
		require.NoError(t, err)
		assert.Equal(t, "Rusty", story.HeroName)
		assert.Equal(t, types.HeroAnimal, story.HeroType)
		assert.Equal(t, "fox", story.Hero.Appearance.AnimalType)
	})

	t.Run("provided fields are kept", func(t *testing.T) {
		s, _ := newTestStore(t)
		draft := types.Draft{
			Title:                "Test",
			HeroName:             "Max",
			HeroType:             types.HeroBoy,
			ReadingTime:          9,
			Tags:                 []string{"Space"},
			Illustration:         "https://example.com/a.png",
			QuestionnaireAnswers: types.QuestionnaireAnswers{"topic": {"courage"}},
			TemplateID:           "tpl-1",
			IsTemplateBased:      true,
		}

		story, err := s.Save(ctx, draft)
		require.NoError(t, err)
		assert.Equal(t, "Test", story.Title)
		assert.Equal(t, 9, story.ReadingTime)
		assert.Equal(t, []string{"Space"}, story.Tags)
		assert.Equal(t, "https://example.com/a.png", story.ImageURL)
		assert.Equal(t, []string{"courage"}, story.QuestionnaireAnswers["topic"])
		assert.Equal(t, "tpl-1", story.TemplateID)
		assert.True(t, story.IsTemplateBased)
	})

	t.Run("empty tag slice still defaults", func(t *testing.T) {
		s, _ := newTestStore(t)
		story, err := s.Save(ctx, types.Draft{Tags: []string{}})
		require.NoError(t, err)
		assert.Equal(t, DefaultTags(), story.Tags)
	})

	t.Run("saved story heads the collection after reload", func(t *testing.T) {
		s, kv := newTestStore(t)
		_, err := s.Save(ctx, types.Draft{Title: "First"})
		require.NoError(t, err)
		second, err := s.Save(ctx, types.Draft{Title: "Second"})
		require.NoError(t, err)

		reopened := NewStore(kv, WithPolicy(testPolicy()))
		source, err := reopened.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, SourcePersisted, source)

		stories := reopened.Stories()
		require.Len(t, stories, 4)
		assert.Equal(t, second.ID, stories[0].ID)
		assert.Equal(t, "First", stories[1].Title)
	})

	t.Run("ids are unique", func(t *testing.T) {
		kv := storage.NewMemoryKV()
		s := NewStore(kv)
		seen := map[string]bool{}
		for range 20 {
			story, err := s.Save(ctx, types.Draft{})
			require.NoError(t, err)
			assert.False(t, seen[story.ID])
			seen[story.ID] = true
			assert.GreaterOrEqual(t, story.ReadingTime, 3)
			assert.LessOrEqual(t, story.ReadingTime, 7)
		}
	})

	t.Run("write failure is surfaced and rolled back", func(t *testing.T) {
		kv := new(mockKV)
		kv.On("Get", mock.Anything, StoriesKey).Return("[]", nil)
		kv.On("Set", mock.Anything, StoriesKey, mock.Anything).Return(errors.New("quota exceeded"))
		s := NewStore(kv, WithPolicy(testPolicy()))

		_, err := s.Save(ctx, types.Draft{Title: "Lost"})
		require.ErrorIs(t, err, ErrPersist)
		assert.Empty(t, s.Stories())
		kv.AssertExpectations(t)
	})
}

// =============================================================================
// ToggleFavorite
// =============================================================================

func TestStore_ToggleFavorite(t *testing.T) {
	ctx := context.Background()

	t.Run("twice restores the flag and advances updated_at", func(t *testing.T) {
		s, _ := newTestStore(t)
		story, err := s.Save(ctx, types.Draft{Title: "Fav"})
		require.NoError(t, err)

		first, err := s.ToggleFavorite(ctx, story.ID)
		require.NoError(t, err)
		assert.True(t, first.IsFavorite)
		assert.True(t, first.UpdatedAt.After(story.UpdatedAt))
		assertFavoritesDerived(t, s)

		second, err := s.ToggleFavorite(ctx, story.ID)
		require.NoError(t, err)
		assert.False(t, second.IsFavorite)
		assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
		assertFavoritesDerived(t, s)
	})

	t.Run("advances even when the clock stands still", func(t *testing.T) {
		frozen := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
		p := testPolicy()
		p.Now = func() time.Time { return frozen }
		s := NewStore(storage.NewMemoryKV(), WithPolicy(p))

		story, err := s.Save(ctx, types.Draft{})
		require.NoError(t, err)
		toggled, err := s.ToggleFavorite(ctx, story.ID)
		require.NoError(t, err)
		assert.True(t, toggled.UpdatedAt.After(story.UpdatedAt))
	})

	t.Run("unknown id reports not found", func(t *testing.T) {
		s, _ := newTestStore(t)
		_, err := s.ToggleFavorite(ctx, "nope")
		assert.ErrorIs(t, err, ErrStoryNotFound)
	})

	t.Run("write failure keeps previous flag", func(t *testing.T) {
		kv := new(mockKV)
		kv.On("Get", mock.Anything, StoriesKey).Return("", storage.ErrKeyNotFound)
		kv.On("Set", mock.Anything, StoriesKey, mock.Anything).Return(errors.New("read-only"))
		s := NewStore(kv)

		_, err := s.ToggleFavorite(ctx, "2")
		require.ErrorIs(t, err, ErrPersist)

		story, ok := s.Get("2")
		require.True(t, ok)
		assert.False(t, story.IsFavorite)
		assert.Len(t, s.Favorites(), 1)
	})
}

func TestStore_AccessorsReturnCopies(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Load(context.Background())
	require.NoError(t, err)

	stories := s.Stories()
	stories[0].Title = "mutated"

	got, ok := s.Get(stories[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", got.Title)
}
