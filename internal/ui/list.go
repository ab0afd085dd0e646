package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/jot/internal/models"
)

var _ list.Item = noteItem{}

const previewLen = 60

// noteItem wraps [models.Note] to implement [list.Item].
type noteItem struct {
	note models.Note
}

func (i noteItem) FilterValue() string { return i.note.Title + " " + i.note.Content }
func (i noteItem) Title() string       { return i.note.Title }
func (i noteItem) Description() string {
	desc := strings.Join(strings.Fields(i.note.Content), " ")
	if r := []rune(desc); len(r) > previewLen {
		desc = string(r[:previewLen-1]) + "…"
	}
	return desc
}

func noteItems(notes []models.Note) []list.Item {
	items := make([]list.Item, len(notes))
	for i, n := range notes {
		items[i] = noteItem{note: n}
	}
	return items
}
