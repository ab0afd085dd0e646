// package services defines the notes API surface and its HTTP implementation
package services

import (
	"context"
	"fmt"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
)

// NotesAPI is the complete endpoint set the client consumes. [Client] implements it.
type NotesAPI interface {
	// ObtainToken exchanges credentials for an access/refresh pair (POST /api/token/).
	ObtainToken(ctx context.Context, username, password string) (*models.Session, error)

	// Me returns the authenticated user (GET /api/me/).
	Me(ctx context.Context) (*models.User, error)

	// ListNotes returns the user's notes ordered by position (GET /api/notes/).
	ListNotes(ctx context.Context) ([]models.Note, error)

	// SearchNotes filters notes by title or content (GET /api/notes/?search=).
	SearchNotes(ctx context.Context, query string) ([]models.Note, error)

	// CreateNote creates a note; the server assigns id and position (POST /api/notes/).
	CreateNote(ctx context.Context, title, content string) (*models.Note, error)

	// UpdateNote replaces title and content (PUT /api/notes/{id}/).
	UpdateNote(ctx context.Context, id int64, title, content string) (*models.Note, error)

	// DeleteNote deletes a note (DELETE /api/notes/{id}/).
	DeleteNote(ctx context.Context, id int64) error

	// UpdatePositions persists a bulk reorder (POST /api/notes/positions/).
	UpdatePositions(ctx context.Context, positions []models.Position) error

	// Status probes backend health (GET /api/status).
	Status(ctx context.Context) (*models.Status, error)
}

var _ NotesAPI = (*Client)(nil)

// APIError is returned for any non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap makes every APIError match [shared.ErrAPIRequest].
func (e *APIError) Unwrap() error { return shared.ErrAPIRequest }

// Unauthorized reports a 401 or 403 response.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}
