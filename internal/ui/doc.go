// Package ui implements the interactive notes client using bubbletea's Elm architecture.
//
// The TUI moves between a few views:
//  1. [CheckingView] : Restore the persisted session on startup
//  2. [LoginView] : Username and password form
//  3. [NotesView] : Browse, filter and reorder notes
//  4. [AddView] / [EditView] : Title and content form for one note
//  5. [ConfirmView] : Confirm deleting the selected note
//
// The [Model] never touches the network directly. Every action runs as a [tea.Cmd] against the
// session, notes and reorder services and reports back through the Msg union type. Backend status
// updates flow through a channel from [tasks.StatusMonitor] and are shown in the header.
//
// Keyboard navigation uses vim-style bindings (j/k, J/K to move a note, a/e/d, esc, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
