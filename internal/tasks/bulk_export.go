package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/desertthunder/jot/internal/formatter"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// NoteSource lists the notes to export.
type NoteSource interface {
	ListNotes(ctx context.Context) ([]models.Note, error)
}

// BulkExportOpts contains configuration for bulk note exports.
type BulkExportOpts struct {
	Format     formatter.Format // defaults to JSON
	OutputDir  string           // defaults to notes_export_{epoch}
	NumWorkers int              // concurrent writers (default: 4, max: 10)
}

// NoteExportResult describes one exported note.
type NoteExportResult struct {
	NoteID   int64  `json:"note_id"`
	Title    string `json:"title"`
	Success  bool   `json:"success"`
	File     string `json:"file,omitempty"`
	Error    error  `json:"-"`
	ErrorMsg string `json:"error,omitempty"`
}

// BulkExportResult summarizes a [BulkExport] run. Results are ordered by note position.
type BulkExportResult struct {
	TotalNotes        int                `json:"total_notes"`
	SuccessfulExports int                `json:"successful_exports"`
	FailedExports     int                `json:"failed_exports"`
	Format            formatter.Format   `json:"format"`
	OutputDirectory   string             `json:"output_directory"`
	ManifestPath      string             `json:"-"`
	ExportedAt        time.Time          `json:"exported_at"`
	Results           []NoteExportResult `json:"results"`
}

// BulkExport writes every note from src to its own file in opts.OutputDir.
//
// Individual write failures are recorded in the result and do not stop the run.
// A canceled context stops handing out work and returns the partial result.
func BulkExport(ctx context.Context, prog chan<- ProgressUpdate, src NoteSource, opts BulkExportOpts) (*BulkExportResult, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: note source not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("notes_export_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	send(prog, fetchingNotesUpdate())
	notes, err := src.ListNotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	send(prog, fetchedNotesUpdate(len(notes)))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkExportResult{
		TotalNotes:      len(notes),
		Format:          opts.Format,
		OutputDirectory: opts.OutputDir,
		ExportedAt:      time.Now().UTC(),
		Results:         make([]NoteExportResult, 0, len(notes)),
	}

	jobs := make(chan models.Note, len(notes))
	results := make(chan NoteExportResult, len(notes))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go exportWorker(ctx, &wg, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for _, note := range notes {
			select {
			case <-ctx.Done():
				return
			case jobs <- note:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Success {
			result.SuccessfulExports++
			send(prog, exportCompletedUpdate(completed, len(notes), res))
		} else {
			result.FailedExports++
			send(prog, exportFailedUpdate(completed, len(notes), res))
		}
	}

	order := make(map[int64]int, len(notes))
	for i, n := range notes {
		order[n.ID] = i
	}
	slices.SortFunc(result.Results, func(a, b NoteExportResult) int { return order[a.NoteID] - order[b.NoteID] })

	manifestPath := filepath.Join(opts.OutputDir, "export_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	send(prog, manifestUpdate(manifestPath))
	return result, nil
}

// exportWorker writes notes from the jobs channel until it is closed or ctx is done.
func exportWorker(ctx context.Context, wg *sync.WaitGroup, jobs <-chan models.Note, results chan<- NoteExportResult, opts BulkExportOpts) {
	defer wg.Done()

	for note := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- exportNote(note, opts)
	}
}

func exportNote(note models.Note, opts BulkExportOpts) NoteExportResult {
	res := NoteExportResult{NoteID: note.ID, Title: note.Title}

	path, err := formatter.WriteNote(opts.Format, note, opts.OutputDir)
	if err != nil {
		res.Error = err
		res.ErrorMsg = err.Error()
		return res
	}
	res.File = path
	res.Success = true
	return res
}
