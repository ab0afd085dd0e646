package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChecked MsgKind = iota
	MsgLoggedIn
	MsgNotesLoaded
	MsgNoteSaved
	MsgNoteDeleted
	MsgReordered
	MsgStatusUpdate
)

// sessionCheckedMsg is the constructor for [MsgSessionChecked]
func sessionCheckedMsg(user *models.User) Msg {
	return Msg{kind: MsgSessionChecked, data: user}
}

// loggedInMsg is the constructor for [MsgLoggedIn]; errMsg is the session's user-visible message.
func loggedInMsg(ok bool, errMsg string) Msg {
	return Msg{
		kind: MsgLoggedIn,
		data: struct {
			ok     bool
			errMsg string
		}{ok, errMsg},
	}
}

// notesLoadedMsg is the constructor for [MsgNotesLoaded]
func notesLoadedMsg(ok bool) Msg {
	return Msg{kind: MsgNotesLoaded, data: ok}
}

// noteSavedMsg is the constructor for [MsgNoteSaved]; note is nil when saving failed.
func noteSavedMsg(note *models.Note) Msg {
	return Msg{kind: MsgNoteSaved, data: note}
}

// noteDeletedMsg is the constructor for [MsgNoteDeleted]
func noteDeletedMsg(ok bool) Msg {
	return Msg{kind: MsgNoteDeleted, data: ok}
}

// reorderedMsg is the constructor for [MsgReordered]
func reorderedMsg(order []models.Note, selected int, ok bool) Msg {
	return Msg{
		kind: MsgReordered,
		data: struct {
			order    []models.Note
			selected int
			ok       bool
		}{order, selected, ok},
	}
}

// statusUpdateMsg is the constructor for [MsgStatusUpdate]
func statusUpdateMsg(update tasks.StatusUpdate) Msg {
	return Msg{kind: MsgStatusUpdate, data: update}
}
