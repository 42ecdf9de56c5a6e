// Package commit persists the draft produced by a generation session and
// decides which screen comes next.
package commit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/azyu/ploomer/internal/generation"
	"github.com/azyu/ploomer/pkg/types"
)

var (
	ErrNothingToCommit  = errors.New("no draft to commit")
	ErrFallbackRejected = errors.New("fallback draft rejected")
)

// Route names a screen.
type Route string

const (
	RouteHome   Route = "home"
	RouteReader Route = "reader"
)

// ParamStoryID is the navigation parameter carrying the new story's id.
const ParamStoryID = "storyId"

// Destination is where the app goes after a commit.
type Destination struct {
	Route  Route
	Params map[string]string
}

// ResolveDestination sends prefilled modes straight to the reader and
// everything else back to the story list.
func ResolveDestination(mode types.Mode, storyID string) Destination {
	if mode.Prefilled() {
		return Destination{Route: RouteReader, Params: map[string]string{ParamStoryID: storyID}}
	}
	return Destination{Route: RouteHome}
}

// Saver persists a draft. *library.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, draft types.Draft) (types.Story, error)
}

// Outcome is a committed story and the next screen.
type Outcome struct {
	Story       types.Story
	Destination Destination
	Fallback    bool
}

// Resolver commits generation results.
type Resolver struct {
	saver          Saver
	acceptFallback bool
	logger         *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// AcceptFallback controls whether fallback drafts are saved. Defaults to true.
func AcceptFallback(accept bool) Option {
	return func(r *Resolver) {
		r.acceptFallback = accept
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewResolver(saver Saver, opts ...Option) *Resolver {
	r := &Resolver{
		saver:          saver,
		acceptFallback: true,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Commit saves the draft of result and resolves the destination from the
// creation mode in params. Success and fallback drafts route the same way.
func (r *Resolver) Commit(ctx context.Context, params types.CreationParameters, result generation.Result) (Outcome, error) {
	fallback := false
	switch result.Status {
	case generation.StatusOK:
	case generation.StatusFallback:
		if !r.acceptFallback {
			return Outcome{}, fmt.Errorf("%w: %w", ErrFallbackRejected, result.Err)
		}
		fallback = true
	default:
		return Outcome{}, fmt.Errorf("%w: generation %s", ErrNothingToCommit, result.Status)
	}

	story, err := r.saver.Save(ctx, result.Draft)
	if err != nil {
		return Outcome{}, fmt.Errorf("commit story: %w", err)
	}

	dest := ResolveDestination(params.Mode, story.ID)
	r.logger.Info("story committed",
		zap.String("story_id", story.ID),
		zap.String("route", string(dest.Route)),
		zap.Bool("fallback", fallback))

	return Outcome{Story: story, Destination: dest, Fallback: fallback}, nil
}
