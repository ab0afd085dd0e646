package notes

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/session"
	"github.com/desertthunder/jot/internal/shared"
)

// Strategy selects how the held collection is reconciled after a mutation.
type Strategy string

const (
	// StrategyPatch applies the single record returned by the mutation.
	StrategyPatch Strategy = "patch"
	// StrategyRefetch reloads the whole collection after every successful mutation.
	StrategyRefetch Strategy = "refetch"
)

// ParseStrategy maps a config value to a Strategy. The empty string selects [StrategyPatch].
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyPatch:
		return StrategyPatch, nil
	case StrategyRefetch:
		return StrategyRefetch, nil
	default:
		return "", fmt.Errorf("%w: unknown reconcile strategy %q", shared.ErrInvalidConfig, s)
	}
}

// API is the part of [services.NotesAPI] used for notes.
type API interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)
	CreateNote(ctx context.Context, title, content string) (*models.Note, error)
	UpdateNote(ctx context.Context, id int64, title, content string) (*models.Note, error)
	DeleteNote(ctx context.Context, id int64) error
	UpdatePositions(ctx context.Context, positions []models.Position) error
}

// Opts configures a [Service].
type Opts struct {
	Strategy Strategy
	Logger   *log.Logger
}

// Service is the notes state for the current user.
//
// The lock is never held across a network call, so responses are applied in
// the order they resolve. A response to a call started before the last
// [Service.Clear] is discarded.
type Service struct {
	api      API
	strategy Strategy
	logger   *log.Logger

	mu     sync.RWMutex
	notes  []models.Note
	loaded bool
	gen    uint64
}

// New creates a notes service.
func New(api API, opts Opts) *Service {
	if opts.Strategy == "" {
		opts.Strategy = StrategyPatch
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Service{api: api, strategy: opts.Strategy, logger: opts.Logger}
}

// Strategy returns the configured reconciliation strategy.
func (s *Service) Strategy() Strategy { return s.strategy }

// Notes returns a copy of the held collection.
func (s *Service) Notes() []models.Note {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.notes)
}

// Loaded reports whether a load has succeeded since the last [Service.Clear].
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get returns the held note with id.
func (s *Service) Get(id int64) (models.Note, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.notes[i], true
	}
	return models.Note{}, false
}

// Clear drops the held collection.
func (s *Service) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = nil
	s.loaded = false
	s.gen++
}

// generation returns the number of clears so far.
func (s *Service) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// stale reports whether a clear happened since gen. Callers hold mu.
func (s *Service) stale(gen uint64, op string) bool {
	if s.gen == gen {
		return false
	}
	s.logger.Debug("discarding response from before clear", "op", op)
	return true
}

// refetch reloads the collection unless a clear happened since gen.
func (s *Service) refetch(ctx context.Context, gen uint64, op string) {
	s.mu.RLock()
	stale := s.stale(gen, op)
	s.mu.RUnlock()
	if !stale {
		s.Load(ctx)
	}
}

// Bind loads notes whenever sess gains a user and clears them when it loses one.
//
// If sess already holds a user the collection is loaded immediately.
func (s *Service) Bind(ctx context.Context, sess *session.Service) {
	sess.Subscribe(func(u *models.User) {
		if u == nil {
			s.Clear()
			return
		}
		s.Load(ctx)
	})
	if sess.Authenticated() {
		s.Load(ctx)
	}
}

// Load replaces the held collection with the backend's.
func (s *Service) Load(ctx context.Context) bool {
	gen := s.generation()
	notes, err := s.api.ListNotes(ctx)
	if err != nil {
		s.logger.Error("failed to fetch notes", "err", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "load") {
		return false
	}
	s.notes = slices.Clone(notes)
	s.loaded = true
	return true
}

// Search returns the backend's notes whose title or content contains query.
//
// The held collection is not modified.
func (s *Service) Search(ctx context.Context, query string) []models.Note {
	notes, err := s.api.SearchNotes(ctx, query)
	if err != nil {
		s.logger.Error("failed to search notes", "query", query, "err", err)
		return nil
	}
	return notes
}

// Add creates a note and appends the server's representation.
//
// Callers are expected to reject an empty title or content.
func (s *Service) Add(ctx context.Context, title, content string) *models.Note {
	gen := s.generation()
	note, err := s.api.CreateNote(ctx, title, content)
	if err != nil {
		s.logger.Error("failed to add note", "err", err)
		return nil
	}

	if s.strategy == StrategyRefetch {
		s.refetch(ctx, gen, "add")
		return note
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "add") {
		return note
	}
	s.notes = append(s.notes, *note)
	return note
}

// Update replaces a note's title and content, then swaps in the server's representation.
func (s *Service) Update(ctx context.Context, id int64, title, content string) *models.Note {
	gen := s.generation()
	note, err := s.api.UpdateNote(ctx, id, title, content)
	if err != nil {
		s.logger.Error("failed to update note", "id", id, "err", err)
		return nil
	}

	if s.strategy == StrategyRefetch {
		s.refetch(ctx, gen, "update")
		return note
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "update") {
		return note
	}
	if i := s.index(id); i >= 0 {
		s.notes[i] = *note
	}
	return note
}

// Delete removes a note on the backend and then from the held collection.
//
// The request is sent even when id is not held locally.
func (s *Service) Delete(ctx context.Context, id int64) bool {
	gen := s.generation()
	if err := s.api.DeleteNote(ctx, id); err != nil {
		s.logger.Error("failed to delete note", "id", id, "err", err)
		return false
	}

	if s.strategy == StrategyRefetch {
		s.refetch(ctx, gen, "delete")
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "delete") {
		return true
	}
	if i := s.index(id); i >= 0 {
		s.notes = slices.Delete(s.notes, i, i+1)
	}
	return true
}

// UpdatePositions persists ordered as the new order.
//
// Each note's position becomes its index in ordered. On success the held
// collection is exactly ordered with renumbered positions, whatever the strategy.
func (s *Service) UpdatePositions(ctx context.Context, ordered []models.Note) bool {
	gen := s.generation()
	if err := s.api.UpdatePositions(ctx, models.Positions(ordered)); err != nil {
		s.logger.Error("failed to update note positions", "err", err)
		return false
	}

	next := slices.Clone(ordered)
	for i := range next {
		next[i].Position = i
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(gen, "update positions") {
		return false
	}
	s.notes = next
	return true
}

// index returns the slice index of id or -1. Callers hold mu.
func (s *Service) index(id int64) int {
	return slices.IndexFunc(s.notes, func(n models.Note) bool { return n.ID == id })
}
