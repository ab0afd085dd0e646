package models

import (
	"fmt"
	"time"
)

// NoteRecord is a backend note row: the wire [Note] plus ownership and bookkeeping.
type NoteRecord struct {
	note      Note
	accountID int64
	deleted   bool
	createdAt time.Time
	updatedAt time.Time
}

var _ Model = (*NoteRecord)(nil)

// NewNoteRecord creates an unsaved note owned by accountID.
func NewNoteRecord(accountID int64, title, content string) *NoteRecord {
	now := time.Now()
	return &NoteRecord{
		note:      Note{Title: title, Content: content},
		accountID: accountID,
		createdAt: now,
		updatedAt: now,
	}
}

func (r *NoteRecord) Key() int64               { return r.note.ID }
func (r *NoteRecord) SetKey(id int64)          { r.note.ID = id }
func (r *NoteRecord) Note() Note               { return r.note }
func (r *NoteRecord) AccountID() int64         { return r.accountID }
func (r *NoteRecord) Position() int            { return r.note.Position }
func (r *NoteRecord) SetPosition(p int)        { r.note.Position = p }
func (r *NoteRecord) Deleted() bool            { return r.deleted }
func (r *NoteRecord) SetDeleted(d bool)        { r.deleted = d }
func (r *NoteRecord) CreatedAt() time.Time     { return r.createdAt }
func (r *NoteRecord) UpdatedAt() time.Time     { return r.updatedAt }
func (r *NoteRecord) SetCreatedAt(t time.Time) { r.createdAt = t }
func (r *NoteRecord) SetUpdatedAt(t time.Time) { r.updatedAt = t }

// SetContent replaces the title and content.
func (r *NoteRecord) SetContent(title, content string) {
	r.note.Title = title
	r.note.Content = content
	r.updatedAt = time.Now()
}

// Validate applies the [NoteInput] field rules and requires an owner.
func (r *NoteRecord) Validate() error {
	if r.accountID == 0 {
		return fmt.Errorf("account is required")
	}
	return NoteInput{Title: r.note.Title, Content: r.note.Content}.Validate()
}
