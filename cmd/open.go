package main

import (
	"context"

	"github.com/desertthunder/jot/internal/shared"
	"github.com/urfave/cli/v3"
)

// Open launches the default browser on a frontend route such as /notes.
func (r *Runner) Open(ctx context.Context, cmd *cli.Command) error {
	target, err := shared.PageURL(r.config.API.BaseURL, cmd.StringArg("route"))
	if err != nil {
		return err
	}

	r.logger.Info("opening browser", "url", target)
	if err := shared.OpenBrowser(target); err != nil {
		return err
	}
	return r.writePlain("Opened %s\n", target)
}
