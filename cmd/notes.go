package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/desertthunder/jot/internal/formatter"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/desertthunder/jot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// NotesList prints the user's notes, or the backend's search results with --search.
func (r *Runner) NotesList(ctx context.Context, cmd *cli.Command) error {
	if err := r.authenticate(ctx); err != nil {
		return err
	}

	list := r.notes.Notes()
	if query := cmd.String("search"); query != "" {
		list = r.notes.Search(ctx, query)
		if list == nil {
			return fmt.Errorf("%w: search failed", shared.ErrAPIRequest)
		}
	}

	if cmd.Bool("json") {
		if list == nil {
			list = []models.Note{}
		}
		return r.writeJSON(list, true)
	}

	if len(list) == 0 {
		return r.writePlain("No notes.\n")
	}
	for i, n := range list {
		r.writePlain("%3d. %s  (id %d)\n", i+1, n.Title, n.ID)
		for _, line := range strings.Split(strings.TrimSpace(n.Content), "\n") {
			r.writePlain("     %s\n", line)
		}
	}
	return nil
}

// NotesAdd creates a note.
func (r *Runner) NotesAdd(ctx context.Context, cmd *cli.Command) error {
	in := models.NoteInput{Title: cmd.String("title"), Content: cmd.String("content")}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	if err := r.authenticate(ctx); err != nil {
		return err
	}

	note := r.notes.Add(ctx, in.Title, in.Content)
	if note == nil {
		return fmt.Errorf("%w: failed to create note", shared.ErrAPIRequest)
	}
	return r.writeNote("Created", note, cmd.Bool("json"))
}

// NotesEdit replaces a note's title and content; an omitted flag keeps the current value.
func (r *Runner) NotesEdit(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Int64Arg("id")
	if id <= 0 {
		return fmt.Errorf("%w: note id is required", shared.ErrMissingArgument)
	}
	if !cmd.IsSet("title") && !cmd.IsSet("content") {
		return fmt.Errorf("%w: pass --title and/or --content", shared.ErrMissingArgument)
	}

	if err := r.authenticate(ctx); err != nil {
		return err
	}

	current, ok := r.notes.Get(id)
	if !ok {
		return fmt.Errorf("%w: id %d", shared.ErrNoteNotFound, id)
	}

	in := models.NoteInput{Title: current.Title, Content: current.Content}
	if cmd.IsSet("title") {
		in.Title = cmd.String("title")
	}
	if cmd.IsSet("content") {
		in.Content = cmd.String("content")
	}
	if err := in.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	note := r.notes.Update(ctx, id, in.Title, in.Content)
	if note == nil {
		return fmt.Errorf("%w: failed to update note %d", shared.ErrAPIRequest, id)
	}
	return r.writeNote("Updated", note, cmd.Bool("json"))
}

// NotesDelete deletes a note.
func (r *Runner) NotesDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.Int64Arg("id")
	if id <= 0 {
		return fmt.Errorf("%w: note id is required", shared.ErrMissingArgument)
	}

	if err := r.authenticate(ctx); err != nil {
		return err
	}

	if !r.notes.Delete(ctx, id) {
		return fmt.Errorf("%w: failed to delete note %d", shared.ErrAPIRequest, id)
	}
	return r.writePlain("✓ Deleted note %d\n", id)
}

// NotesMove moves the note at list position from to position to, as a drag would.
func (r *Runner) NotesMove(ctx context.Context, cmd *cli.Command) error {
	from, to := cmd.IntArg("from"), cmd.IntArg("to")
	if err := r.authenticate(ctx); err != nil {
		return err
	}

	count := len(r.notes.Notes())
	if from < 1 || from > count || to < 1 || to > count {
		return fmt.Errorf("%w: positions must be between 1 and %d", shared.ErrInvalidArgument, count)
	}

	order, ok := r.reorder.Drag(ctx, from-1, to-1)
	if ok {
		ok = r.reorder.Flush()
	}
	if !ok {
		return fmt.Errorf("%w: failed to save the new order", shared.ErrAPIRequest)
	}

	for i, n := range order {
		r.writePlain("%3d. %s\n", i+1, n.Title)
	}
	return nil
}

// NotesExport writes the user's notes to a single file, or one file per note with --dir or --bulk.
func (r *Runner) NotesExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if err := r.authenticate(ctx); err != nil {
		return err
	}

	if cmd.IsSet("dir") || cmd.Bool("bulk") {
		return r.bulkExport(ctx, format, cmd.String("dir"), cmd.Int("workers"))
	}

	heading := "Notes"
	if user := r.session.User(); user != nil {
		heading = user.DisplayName() + "'s notes"
	}

	path, err := formatter.WriteExport(format, heading, r.notes.Notes(), cmd.String("output"))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Exported %d notes to %s\n", len(r.notes.Notes()), path)
}

func (r *Runner) bulkExport(ctx context.Context, format formatter.Format, dir string, workers int) error {
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := tasks.BulkExport(ctx, progress, r.client, tasks.BulkExportOpts{
		Format:     format,
		OutputDir:  dir,
		NumWorkers: workers,
	})
	close(progress)
	<-done
	if err != nil {
		return err
	}

	r.writePlainHeader("Bulk export")
	r.writePlain("Exported: %d/%d\n", result.SuccessfulExports, result.TotalNotes)
	r.writePlain("Directory: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", filepath.Base(result.ManifestPath))
	if result.FailedExports > 0 {
		r.writePlainln("Failed:")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  • %s: %s\n", res.Title, res.ErrorMsg)
			}
		}
	}
	return nil
}

func (r *Runner) writeNote(verb string, note *models.Note, asJSON bool) error {
	if asJSON {
		return r.writeJSON(note, true)
	}
	return r.writePlain("✓ %s note %d: %s\n", verb, note.ID, note.Title)
}
