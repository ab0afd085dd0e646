package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// NoteRepository implements [models.Repository] for [models.NoteRecord] persistence.
//
// Deleted notes stay in the table with is_deleted set and are invisible to every read.
type NoteRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.NoteRecord] = (*NoteRepository)(nil)

// NewNoteRepository creates a new [NoteRepository] with the given database connection
func NewNoteRepository(db *sql.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

const noteColumns = `id, account_id, title, content, position, is_deleted, created_at, updated_at`

// Create inserts a note at the end of its owner's list.
//
// The position is the owner's count of live notes at insert time.
func (r *NoteRepository) Create(rec *models.NoteRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	return withTx(r.db, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRow(`SELECT COUNT(*) FROM notes WHERE account_id = ? AND is_deleted = 0`, rec.AccountID()).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count notes: %w", err)
		}

		n := rec.Note()
		query := `
			INSERT INTO notes (account_id, title, content, position, is_deleted, created_at, updated_at)
			VALUES (?, ?, ?, ?, 0, ?, ?)
		`
		result, err := tx.Exec(query, rec.AccountID(), n.Title, n.Content, count, rec.CreatedAt(), rec.UpdatedAt())
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get note id: %w", err)
		}
		rec.SetKey(id)
		rec.SetPosition(count)
		return nil
	})
}

// Get retrieves a live note by ID regardless of owner
func (r *NoteRepository) Get(id int64) (*models.NoteRecord, error) {
	row := r.db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND is_deleted = 0`, id)
	rec, err := scanNote(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: id %d", shared.ErrNoteNotFound, id)
	}
	return rec, err
}

// GetForAccount retrieves a live note owned by accountID.
func (r *NoteRepository) GetForAccount(accountID, id int64) (*models.NoteRecord, error) {
	row := r.db.QueryRow(`SELECT `+noteColumns+` FROM notes WHERE id = ? AND account_id = ? AND is_deleted = 0`, id, accountID)
	rec, err := scanNote(row)
	if isNoRows(err) {
		return nil, fmt.Errorf("%w: id %d", shared.ErrNoteNotFound, id)
	}
	return rec, err
}

// Update saves a note's title, content and position
func (r *NoteRepository) Update(rec *models.NoteRecord) error {
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	now := time.Now()
	rec.SetUpdatedAt(now)

	n := rec.Note()
	query := `
		UPDATE notes
		SET title = ?, content = ?, position = ?, updated_at = ?
		WHERE id = ? AND account_id = ? AND is_deleted = 0
	`
	result, err := r.db.Exec(query, n.Title, n.Content, n.Position, now, n.ID, rec.AccountID())
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: id %d", shared.ErrNoteNotFound, n.ID))
}

// Delete soft-deletes a note by ID
func (r *NoteRepository) Delete(id int64) error {
	query := `UPDATE notes SET is_deleted = 1, updated_at = ? WHERE id = ? AND is_deleted = 0`
	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return expectOne(result, fmt.Errorf("%w: id %d", shared.ErrNoteNotFound, id))
}

// List returns the account's live notes ordered by position.
//
// A non-empty search keeps notes whose title or content contains it, ignoring case.
func (r *NoteRepository) List(accountID int64, search string) ([]*models.NoteRecord, error) {
	query := `SELECT ` + noteColumns + ` FROM notes WHERE account_id = ? AND is_deleted = 0`
	args := []any{accountID}

	if search != "" {
		query += ` AND (title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\')`
		p := likePattern(search)
		args = append(args, p, p)
	}
	query += ` ORDER BY position ASC, id ASC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.NoteRecord
	for rows.Next() {
		rec, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return notes, nil
}

// UpdatePositions applies every {id, position} pair owned by accountID in one transaction.
//
// Pairs naming another account's note or a deleted note are skipped.
func (r *NoteRepository) UpdatePositions(accountID int64, positions []models.Position) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`UPDATE notes SET position = ?, updated_at = ? WHERE id = ? AND account_id = ? AND is_deleted = 0`)
		if err != nil {
			return fmt.Errorf("failed to prepare position update: %w", err)
		}
		defer stmt.Close()

		now := time.Now()
		for _, p := range positions {
			if _, err := stmt.Exec(p.Position, now, p.ID, accountID); err != nil {
				return fmt.Errorf("failed to update position of note %d: %w", p.ID, err)
			}
		}
		return nil
	})
}

func scanNote(row scanner) (*models.NoteRecord, error) {
	var (
		id        int64
		accountID int64
		title     string
		content   string
		position  int
		deleted   bool
		createdAt time.Time
		updatedAt time.Time
	)

	err := row.Scan(&id, &accountID, &title, &content, &position, &deleted, &createdAt, &updatedAt)
	if isNoRows(err) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}

	rec := models.NewNoteRecord(accountID, title, content)
	rec.SetKey(id)
	rec.SetPosition(position)
	rec.SetDeleted(deleted)
	rec.SetCreatedAt(createdAt)
	rec.SetUpdatedAt(updatedAt)
	return rec, nil
}
