// Package library owns the user's persisted story collection.
//
// The collection lives under a single key of a storage.KV and is rewritten in
// full on every mutation. One local writer is assumed: the mutex only keeps
// in-process readers (the TUI) consistent, it is not a multi-writer protocol.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/azyu/ploomer/internal/storage"
	"github.com/azyu/ploomer/pkg/types"
)

// StoriesKey is the KV key holding the JSON-encoded collection.
const StoriesKey = "stories"

var (
	ErrStoryNotFound = errors.New("story not found")
	ErrPersist       = errors.New("failed to persist stories")
)

// Source reports where the collection came from on the last load.
type Source int

const (
	SourcePersisted Source = iota
	SourceSeeded           // nothing stored yet
	SourceRecovered        // stored data was unreadable and replaced by the seed
)

func (s Source) String() string {
	switch s {
	case SourcePersisted:
		return "persisted"
	case SourceSeeded:
		return "seeded"
	case SourceRecovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Store is the single source of truth for stories.
type Store struct {
	kv     storage.KV
	policy Policy
	logger *zap.Logger

	mu        sync.RWMutex
	loaded    bool
	stories   []types.Story
	favorites []types.Story
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report recovered reads.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithPolicy replaces the default normalization policy.
func WithPolicy(p Policy) Option {
	return func(s *Store) {
		s.policy = p.withDefaults()
	}
}

// NewStore creates a store over kv. Nothing is read until Load or the first mutation.
func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		kv:     kv,
		policy: DefaultPolicy(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads the persisted collection. A missing key seeds the demo stories;
// an unreadable value is logged and replaced by the seed. The only error
// returned is ctx's.
func (s *Store) Load(ctx context.Context) (Source, error) {
	if err := ctx.Err(); err != nil {
		return SourcePersisted, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(ctx)
}

func (s *Store) loadLocked(ctx context.Context) (Source, error) {
	stories, source, err := s.read(ctx)
	if err != nil {
		return source, err
	}

	slices.SortStableFunc(stories, func(a, b types.Story) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	s.stories = stories
	s.loaded = true
	s.recomputeLocked()
	return source, nil
}

func (s *Store) read(ctx context.Context) ([]types.Story, Source, error) {
	raw, err := s.kv.Get(ctx, StoriesKey)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return SeedStories(), SourceSeeded, nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, SourcePersisted, ctxErr
		}
		s.logger.Warn("failed to read stories, falling back to demo collection", zap.Error(err))
		return SeedStories(), SourceRecovered, nil
	}

	var stories []types.Story
	if err := json.Unmarshal([]byte(raw), &stories); err != nil {
		s.logger.Warn("stored stories are corrupt, falling back to demo collection",
			zap.Error(err), zap.Int("bytes", len(raw)))
		return SeedStories(), SourceRecovered, nil
	}
	if stories == nil {
		stories = []types.Story{}
	}
	return stories, SourcePersisted, nil
}

// Refresh re-runs Load. With a local-only substrate it is idempotent.
func (s *Store) Refresh(ctx context.Context) error {
	_, err := s.Load(ctx)
	return err
}

// Save normalizes draft into a complete Story, prepends it and persists the
// collection. On a write failure the in-memory collection is left untouched
// and the error wraps ErrPersist.
func (s *Store) Save(ctx context.Context, draft types.Draft) (types.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return types.Story{}, err
	}

	now := s.policy.Now()
	if len(s.stories) > 0 && now.Before(s.stories[0].CreatedAt) {
		// keep newest-first ordering stable across a clock step backwards
		now = s.stories[0].CreatedAt
	}
	story := s.policy.Normalize(draft, now)

	next := make([]types.Story, 0, len(s.stories)+1)
	next = append(next, story)
	next = append(next, s.stories...)

	if err := s.persistLocked(ctx, next); err != nil {
		return types.Story{}, err
	}
	s.stories = next
	s.recomputeLocked()

	s.logger.Debug("story saved", zap.String("id", story.ID), zap.String("title", story.Title))
	return story, nil
}

// ToggleFavorite flips the favorite flag of the story with id and returns the
// updated story. updated_at always moves strictly forward.
func (s *Store) ToggleFavorite(ctx context.Context, id string) (types.Story, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoadedLocked(ctx); err != nil {
		return types.Story{}, err
	}

	idx := slices.IndexFunc(s.stories, func(st types.Story) bool { return st.ID == id })
	if idx < 0 {
		return types.Story{}, fmt.Errorf("%w: %s", ErrStoryNotFound, id)
	}

	next := slices.Clone(s.stories)
	story := next[idx]
	story.IsFavorite = !story.IsFavorite
	story.UpdatedAt = advance(story.UpdatedAt, s.policy.Now())
	next[idx] = story

	if err := s.persistLocked(ctx, next); err != nil {
		return types.Story{}, err
	}
	s.stories = next
	s.recomputeLocked()
	return story, nil
}

// advance returns now, or the smallest representable step after prev when the
// clock has not moved past it.
func advance(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Millisecond)
}

func (s *Store) ensureLoadedLocked(ctx context.Context) error {
	if s.loaded {
		return ctx.Err()
	}
	_, err := s.loadLocked(ctx)
	return err
}

func (s *Store) persistLocked(ctx context.Context, stories []types.Story) error {
	data, err := json.Marshal(stories)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	if err := s.kv.Set(ctx, StoriesKey, string(data)); err != nil {
		s.logger.Error("failed to write stories", zap.Error(err), zap.Int("count", len(stories)))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (s *Store) recomputeLocked() {
	favorites := make([]types.Story, 0, len(s.stories))
	for _, st := range s.stories {
		if st.IsFavorite {
			favorites = append(favorites, st)
		}
	}
	s.favorites = favorites
}

// Stories returns a copy of the collection, newest first.
func (s *Store) Stories() []types.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.stories)
}

// Favorites returns a copy of the favorite stories in collection order.
func (s *Store) Favorites() []types.Story {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.favorites)
}

// Get looks up a story by id.
func (s *Store) Get(id string) (types.Story, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, st := range s.stories {
		if st.ID == id {
			return st, true
		}
	}
	return types.Story{}, false
}
