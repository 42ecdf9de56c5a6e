package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/azyu/ploomer/internal/tui/toast"
	"github.com/azyu/ploomer/pkg/types"
)

// Favoriter flips the favorite flag of a stored story.
type Favoriter interface {
	ToggleFavorite(ctx context.Context, id string) (types.Story, error)
}

// toggleFavorite flips id through f and raises a notice with the result.
// ok is false when nothing changed.
func toggleFavorite(ctx context.Context, f Favoriter, id string, notice *toast.Model) (types.Story, bool, tea.Cmd) {
	if f == nil {
		return types.Story{}, false, nil
	}
	story, err := f.ToggleFavorite(ctx, id)
	if err != nil {
		return types.Story{}, false, notice.Show("Could not update favorite: "+err.Error(), toast.Error)
	}
	if story.IsFavorite {
		return story, true, notice.Show("Saved to favorites", toast.Success)
	}
	return story, true, notice.Show("Removed from favorites", toast.Info)
}
