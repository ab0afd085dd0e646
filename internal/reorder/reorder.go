// Package reorder turns a drag from one list index to another into a persisted dense order.
package reorder

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// Move returns a copy of notes with the element at from reinserted at to.
// Every position in the result equals its index.
func Move(notes []models.Note, from, to int) ([]models.Note, error) {
	if from < 0 || from >= len(notes) {
		return nil, fmt.Errorf("%w: from %d (len %d)", shared.ErrIndexOutOfRange, from, len(notes))
	}
	if to < 0 || to >= len(notes) {
		return nil, fmt.Errorf("%w: to %d (len %d)", shared.ErrIndexOutOfRange, to, len(notes))
	}

	out := slices.Clone(notes)
	moved := out[from]
	out = slices.Delete(out, from, from+1)
	out = slices.Insert(out, to, moved)
	for i := range out {
		out[i].Position = i
	}
	return out, nil
}

// Persister stores a new order. [notes.Service] implements it.
type Persister interface {
	UpdatePositions(ctx context.Context, ordered []models.Note) bool
	Notes() []models.Note
}

// Controller applies drags to the held order and persists them.
//
// With a zero debounce each drag is persisted before Drag returns. With a
// positive debounce drags update a pending order and only the last order of a
// burst is sent once the debounce has elapsed without another drag.
//
// Saves run one at a time. A drag made while a save is in flight starts from
// the order being saved, not from the store's older one.
type Controller struct {
	store    Persister
	debounce time.Duration
	logger   *log.Logger

	save sync.Mutex

	mu      sync.Mutex
	pending []models.Note
	latest  []models.Note // order handed to the store and not yet settled
	seq     int
	ctx     context.Context
	timer   *time.Timer
}

// Opts configures a [Controller].
type Opts struct {
	Debounce time.Duration
	Logger   *log.Logger
}

// NewController creates a controller persisting through store.
func NewController(store Persister, opts Opts) *Controller {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &Controller{store: store, debounce: opts.Debounce, logger: opts.Logger}
}

// current returns the order the next drag applies to. Callers hold mu.
func (c *Controller) current() []models.Note {
	switch {
	case c.pending != nil:
		return c.pending
	case c.latest != nil:
		return slices.Clone(c.latest)
	default:
		return c.store.Notes()
	}
}

// Drag moves the note at from to to.
//
// It returns the resulting order, which is what a view should display. For an
// immediate controller a failed save reports false and returns the order held
// before the drag.
func (c *Controller) Drag(ctx context.Context, from, to int) ([]models.Note, bool) {
	c.mu.Lock()
	current := c.current()

	next, err := Move(current, from, to)
	if err != nil {
		c.mu.Unlock()
		c.logger.Warn("ignoring drag", "from", from, "to", to, "err", err)
		return current, false
	}
	if from == to {
		c.mu.Unlock()
		return next, true
	}

	if c.debounce <= 0 {
		seq := c.handOff(next)
		c.mu.Unlock()
		if !c.persist(ctx, next, seq) {
			return current, false
		}
		return next, true
	}

	c.pending = next
	c.ctx = ctx
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() { c.Flush() })
	c.mu.Unlock()
	return slices.Clone(next), true
}

// handOff records order as the one being saved. Callers hold mu.
func (c *Controller) handOff(order []models.Note) int {
	c.seq++
	c.latest = order
	return c.seq
}

// persist saves order once earlier saves have finished.
func (c *Controller) persist(ctx context.Context, order []models.Note, seq int) bool {
	c.save.Lock()
	ok := c.store.UpdatePositions(ctx, order)
	c.save.Unlock()

	c.mu.Lock()
	if c.seq == seq {
		c.latest = nil
	}
	c.mu.Unlock()
	return ok
}

// Pending returns the order waiting to be persisted, or nil.
func (c *Controller) Pending() []models.Note {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.pending)
}

// Flush persists the pending order now. It reports true when nothing was pending.
func (c *Controller) Flush() bool {
	c.mu.Lock()
	pending, ctx := c.pending, c.ctx
	c.pending, c.ctx = nil, nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if pending == nil {
		c.mu.Unlock()
		return true
	}
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		c.logger.Debug("dropping pending order", "err", err)
		return false
	}
	seq := c.handOff(pending)
	c.mu.Unlock()

	return c.persist(ctx, pending, seq)
}

// Stop discards any pending order without persisting it.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending, c.ctx = nil, nil
}
