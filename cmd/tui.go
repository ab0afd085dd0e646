package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/desertthunder/jot/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive notes interface.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/jot-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	if err := r.openStore(); err != nil {
		return err
	}
	r.bind(ctx)

	model := ui.NewModel(ctx, ui.Opts{
		Session: r.session,
		Notes:   r.notes,
		Reorder: r.reorder,
		Monitor: r.monitor,
		Logger:  r.logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
