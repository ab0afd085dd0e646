// package formatter renders notes as CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// Format names an export format.
type Format string

const (
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
)

// Formats lists the supported formats in display order.
var Formats = []Format{JSON, CSV, Markdown, Text}

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "txt", "text":
		return Text, nil
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f including the dot.
func (f Format) Ext() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	default:
		return ".json"
	}
}

// Export renders notes in format f. The heading is used by Markdown and Text.
func Export(f Format, heading string, notes []models.Note) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(notes)
	case Markdown:
		return ExportToMarkdown(heading, notes)
	case Text:
		return ExportToText(heading, notes)
	default:
		return shared.MarshalJSON(notes, true)
	}
}

// ExportNote renders a single note in format f.
func ExportNote(f Format, note models.Note) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV([]models.Note{note})
	case Markdown:
		return NoteToMarkdown(note), nil
	case Text:
		return []byte(note.Title + "\n\n" + note.Content + "\n"), nil
	default:
		return shared.MarshalJSON(note, true)
	}
}

// ExportToCSV converts notes to CSV with columns: ID, Position, Title, Content
func ExportToCSV(notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Position", "Title", "Content"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, note := range notes {
		record := []string{
			strconv.FormatInt(note.ID, 10),
			strconv.Itoa(note.Position),
			note.Title,
			note.Content,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders notes as one document with a section per note.
func ExportToMarkdown(heading string, notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer

	if heading == "" {
		heading = "Notes"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", heading))
	buf.WriteString(fmt.Sprintf("**Notes**: %d\n", len(notes)))

	for i, note := range notes {
		buf.WriteString(fmt.Sprintf("\n## %d. %s\n\n", i+1, note.Title))
		buf.WriteString(strings.TrimRight(note.Content, "\n"))
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// NoteToMarkdown renders a single note with its title as the heading.
func NoteToMarkdown(note models.Note) []byte {
	return []byte(fmt.Sprintf("# %s\n\n%s\n", note.Title, strings.TrimRight(note.Content, "\n")))
}

// ExportToText converts notes to a numbered plain text listing
func ExportToText(heading string, notes []models.Note) ([]byte, error) {
	var buf bytes.Buffer

	if heading != "" {
		buf.WriteString(heading + "\n")
	}
	buf.WriteString(fmt.Sprintf("Notes: %d\n\n", len(notes)))

	for i, note := range notes {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, note.Title))
		for _, line := range strings.Split(strings.TrimRight(note.Content, "\n"), "\n") {
			buf.WriteString("   " + line + "\n")
		}
	}

	return buf.Bytes(), nil
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// Filename returns a file name for note: its id followed by a slug of the title.
func Filename(note models.Note, f Format) string {
	slug := strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(note.Title), "-"), "-")
	if len(slug) > 40 {
		slug = strings.TrimRight(slug[:40], "-")
	}
	if slug == "" {
		return strconv.FormatInt(note.ID, 10) + f.Ext()
	}
	return fmt.Sprintf("%d-%s%s", note.ID, slug, f.Ext())
}

// WriteExport renders notes in format f and writes them to path.
//
// Defaults to notes{ext} in the working directory.
func WriteExport(f Format, heading string, notes []models.Note, path string) (string, error) {
	if path == "" {
		path = "notes" + f.Ext()
	}

	data, err := Export(f, heading, notes)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}

// WriteNote writes a single note into dir and returns the file path.
func WriteNote(f Format, note models.Note, dir string) (string, error) {
	data, err := ExportNote(f, note)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	path := filepath.Join(dir, Filename(note, f))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write note file: %w", err)
	}
	return path, nil
}

// WriteManifest writes v as indented JSON to path.
func WriteManifest(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to generate manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
