// package models defines the data model for the notes client and backend
package models

import (
	"fmt"
	"strings"
	"time"
)

// Model defines the base interface for persistent backend records.
type Model interface {
	Key() int64           // Key returns the unique identifier for this model
	CreatedAt() time.Time // CreatedAt returns when this model was created
	UpdatedAt() time.Time // UpdatedAt returns when this model was last updated
	Validate() error      // Validate checks if the model's data is valid and returns an error if not
}

// Repository defines the interface for data access operations.
type Repository[T Model] interface {
	Create(model T) error    // Create inserts a new model into the database
	Get(id int64) (T, error) // Get retrieves a model by its ID
	Update(model T) error    // Update modifies an existing model in the database
	Delete(id int64) error   // Delete removes a model from the database by its ID
}

// User is the profile returned by GET /api/me/.
//
// The client never mutates it; it is replaced wholesale on login and cleared on logout.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// DisplayName returns "First Last" when available, falling back to the username.
func (u User) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// Note is a single user note. ID and Position are assigned by the server.
type Note struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Position int    `json:"position"`
}

// Session holds the bearer tokens issued by POST /api/token/.
type Session struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// Position is one {id, position} pair sent to POST /api/notes/positions/.
type Position struct {
	ID       int64 `json:"id"`
	Position int   `json:"position"`
}

// Positions maps an ordered note sequence to its dense position list.
func Positions(notes []Note) []Position {
	out := make([]Position, len(notes))
	for i, n := range notes {
		out[i] = Position{ID: n.ID, Position: i}
	}
	return out
}

// Status is the GET /api/status response body.
type Status struct {
	Status string `json:"status"`
}

// Online reports whether the backend considers itself healthy.
func (s Status) Online() bool { return s.Status == "ok" }

// NoteInput is the request body for creating and updating notes.
type NoteInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Validate enforces the backend's field rules.
func (in NoteInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(in.Title) > 200 {
		return fmt.Errorf("title must be at most 200 characters")
	}
	if strings.TrimSpace(in.Content) == "" {
		return fmt.Errorf("content is required")
	}
	return nil
}
