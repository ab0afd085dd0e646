package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchNotes Phase = iota
	ExportNotes
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchNotes:
		return "fetch_notes"
	case ExportNotes:
		return "export_notes"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchingNotesUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchNotes, Step: 0, Total: 1, Message: "Fetching notes..."}
}

func fetchedNotesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchNotes,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d notes", count),
		Data:    count,
	}
}

func exportCompletedUpdate(step, total int, res NoteExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportNotes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Title),
		Data:    res,
	}
}

func exportFailedUpdate(step, total int, res NoteExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportNotes,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{Phase: WriteManifest, Step: 1, Total: 1, Message: "Wrote " + path}
}
