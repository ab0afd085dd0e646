package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/jot/internal/shared"
	"github.com/desertthunder/jot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Status probes GET /api/status once, or keeps polling with --watch until interrupted.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("watch") {
		update := r.monitor.Check(ctx)
		r.printStatus(update)
		if !update.Online {
			return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, update.Err)
		}
		return nil
	}

	monitor := r.monitor
	if cmd.IsSet("interval") {
		monitor = tasks.NewStatusMonitor(r.client, cmd.Duration("interval"), r.logger)
	}
	r.logger.Info("watching API status", "api", r.client.BaseURL(), "interval", monitor.Interval())

	updates := make(chan tasks.StatusUpdate, 1)
	go monitor.Run(ctx, updates)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			r.printStatus(update)
		}
	}
}

func (r *Runner) printStatus(update tasks.StatusUpdate) {
	mark := "✓"
	if !update.Online {
		mark = "✗"
	}
	r.writePlain("%s %s  %s  (%s)\n", mark, update.Label(), r.client.BaseURL(), update.CheckedAt.Format(time.TimeOnly))
	if update.Err != nil {
		r.logger.Debug("status check failed", "err", update.Err)
	}
}
