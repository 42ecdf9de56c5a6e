package views

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azyu/ploomer/internal/library"
	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

type fakeFavoriter struct {
	err   error
	unset bool
	calls []string
}

func (f *fakeFavoriter) ToggleFavorite(_ context.Context, id string) (types.Story, error) {
	f.calls = append(f.calls, id)
	if f.err != nil {
		return types.Story{}, f.err
	}
	return types.Story{ID: id, Title: "Moon Trip", IsFavorite: !f.unset}, nil
}

func threePageStory() types.Story {
	para := strings.TrimSpace(strings.Repeat("word ", 60))
	return types.Story{
		ID:      "s1",
		Title:   "Moon Trip",
		Summary: "Max flies to the moon.",
		Content: para + "\n\n" + para + "\n\n" + para,
	}
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestReader_Pages(t *testing.T) {
	r := NewReader(context.Background(), threePageStory(), nil)

	assert.Equal(t, 1, r.Page().Number)
	view := r.View()
	assert.Contains(t, view, "Moon Trip")
	assert.Contains(t, view, "Page 1/3")
	assert.Contains(t, view, "8 min left")
	assert.Contains(t, view, "next page")
}

func TestReader_Navigation(t *testing.T) {
	r := NewReader(context.Background(), threePageStory(), nil)

	r.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 1, r.Page().Number, "first page is a floor")

	r.Update(tea.KeyMsg{Type: tea.KeyRight})
	r.Update(runeKey('l'))
	assert.Equal(t, 3, r.Page().Number)
	assert.Contains(t, r.View(), "finish story")
	assert.Contains(t, r.View(), "3 min left")

	r.Update(tea.KeyMsg{Type: tea.KeySpace})
	require.True(t, r.Finished())
	assert.Contains(t, r.View(), "The End")

	r.Update(tea.KeyMsg{Type: tea.KeyLeft})
	assert.False(t, r.Finished())
	assert.Equal(t, 3, r.Page().Number)

	r.Update(tea.KeyMsg{Type: tea.KeyRight})
	_, cmd := r.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestReader_EmptyContent(t *testing.T) {
	story := threePageStory()
	story.Content = ""
	r := NewReader(context.Background(), story, nil)

	assert.Equal(t, "Max flies to the moon.", r.Page().Text())
	assert.Contains(t, r.View(), "Page 1/1")
}

func TestReader_Favorite(t *testing.T) {
	t.Run("toggles", func(t *testing.T) {
		fav := &fakeFavoriter{}
		r := NewReader(context.Background(), threePageStory(), fav)

		_, cmd := r.Update(runeKey('f'))
		require.NotNil(t, cmd)
		assert.Equal(t, []string{"s1"}, fav.calls)
		assert.True(t, r.Story().IsFavorite)
		assert.Contains(t, r.View(), "♥")
		assert.Contains(t, r.View(), "✓ Saved to favorites")
	})

	t.Run("unfavoriting says so", func(t *testing.T) {
		fav := &fakeFavoriter{unset: true}
		r := NewReader(context.Background(), threePageStory(), fav)

		r.Update(runeKey('f'))
		assert.False(t, r.Story().IsFavorite)
		assert.Contains(t, r.View(), "ℹ Removed from favorites")
	})

	t.Run("error is shown", func(t *testing.T) {
		fav := &fakeFavoriter{err: errors.New("disk full")}
		r := NewReader(context.Background(), threePageStory(), fav)

		r.Update(runeKey('f'))
		assert.False(t, r.Story().IsFavorite)
		assert.Contains(t, r.View(), "✗ Could not update favorite: disk full")
	})
}

func TestReader_Quit(t *testing.T) {
	r := NewReader(context.Background(), threePageStory(), nil)
	_, cmd := r.Update(runeKey('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()
	store := library.NewStore(storage.NewMemoryKV())
	_, err := store.Load(ctx)
	require.NoError(t, err)

	stories := store.Stories()
	require.NotEmpty(t, stories)
	first := stories[0]

	m := NewLibrary(ctx, "Your stories", stories, store)
	m.notice.TTL = 0
	assert.Contains(t, m.View(), first.Title)

	_, cmd := m.Update(runeKey('f'))
	require.NotNil(t, cmd)
	got, ok := store.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, !first.IsFavorite, got.IsFavorite)
	if got.IsFavorite {
		assert.Contains(t, m.View(), "Saved to favorites")
	} else {
		assert.Contains(t, m.View(), "Removed from favorites")
	}

	m.Update(cmd())
	assert.False(t, m.notice.Visible())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, first.ID, sel.ID)
	assert.Equal(t, got.IsFavorite, sel.IsFavorite)
}

func TestLibrary_Empty(t *testing.T) {
	m := NewLibrary(context.Background(), "Favorites", nil, nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	_, ok := m.Selected()
	assert.False(t, ok)
}
