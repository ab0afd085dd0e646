package tasks

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// DefaultStatusInterval matches the navigation bar's polling interval.
const DefaultStatusInterval = 30 * time.Second

// Prober is the part of [services.NotesAPI] used for health checks.
type Prober interface {
	Status(ctx context.Context) (*models.Status, error)
}

// StatusUpdate is the result of one health probe.
type StatusUpdate struct {
	Online    bool
	Status    string // raw status value, empty on error
	Err       error
	CheckedAt time.Time
}

// Label returns the indicator text for the update.
func (u StatusUpdate) Label() string {
	if u.Online {
		return "System Online"
	}
	return "System Offline"
}

// StatusMonitor polls the backend health endpoint.
type StatusMonitor struct {
	api      Prober
	interval time.Duration
	logger   *log.Logger
	now      func() time.Time
}

// NewStatusMonitor creates a monitor. A non-positive interval uses [DefaultStatusInterval].
func NewStatusMonitor(api Prober, interval time.Duration, logger *log.Logger) *StatusMonitor {
	if interval <= 0 {
		interval = DefaultStatusInterval
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &StatusMonitor{api: api, interval: interval, logger: logger, now: time.Now}
}

// Interval returns the polling interval.
func (m *StatusMonitor) Interval() time.Duration { return m.interval }

// Check performs a single probe.
func (m *StatusMonitor) Check(ctx context.Context) StatusUpdate {
	update := StatusUpdate{CheckedAt: m.now()}

	status, err := m.api.Status(ctx)
	if err != nil {
		m.logger.Debug("status check failed", "err", err)
		update.Err = err
		return update
	}

	update.Status = status.Status
	update.Online = status.Online()
	if !update.Online {
		update.Err = fmt.Errorf("%w: backend reported status %q", shared.ErrServiceUnavailable, status.Status)
	}
	return update
}

// Run probes immediately and then on every interval until ctx is done.
//
// Updates are sent without blocking; a slow receiver misses updates.
func (m *StatusMonitor) Run(ctx context.Context, updates chan<- StatusUpdate) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		update := m.Check(ctx)
		if ctx.Err() != nil {
			return
		}
		send(updates, update)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// send delivers v on ch without blocking. A nil channel drops the value.
func send[T any](ch chan<- T, v T) {
	if ch == nil {
		return
	}
	select {
	case ch <- v:
	default:
	}
}
