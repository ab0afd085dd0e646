package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/repositories"
	"github.com/desertthunder/jot/internal/shared"
)

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes a {"detail": msg} error body.
func writeDetail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

// fieldErrors validates a note body the way the form serializer reports it.
func fieldErrors(in models.NoteInput) map[string][]string {
	errs := map[string][]string{}
	if strings.TrimSpace(in.Title) == "" {
		errs["title"] = []string{"This field may not be blank."}
	} else if len(in.Title) > 200 {
		errs["title"] = []string{"Ensure this field has no more than 200 characters."}
	}
	if strings.TrimSpace(in.Content) == "" {
		errs["content"] = []string{"This field may not be blank."}
	}
	return errs
}

// StatusHandler serves the unauthenticated health probe.
type StatusHandler struct {
	db *sql.DB
}

// NewStatusHandler creates a [StatusHandler] that pings db.
func NewStatusHandler(db *sql.DB) *StatusHandler {
	return &StatusHandler{db: db}
}

func (h *StatusHandler) Routes() []string {
	return []string{"GET /api/status"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, models.Status{Status: "error"})
		return
	}
	writeJSON(w, http.StatusOK, models.Status{Status: "ok"})
}

// TokenHandler exchanges credentials for a token pair.
type TokenHandler struct {
	users  *repositories.UserRepository
	issuer *TokenIssuer
	logger *log.Logger
}

// NewTokenHandler creates a [TokenHandler].
func NewTokenHandler(users *repositories.UserRepository, issuer *TokenIssuer, logger *log.Logger) *TokenHandler {
	return &TokenHandler{users: users, issuer: issuer, logger: logger}
}

func (h *TokenHandler) Routes() []string {
	return []string{"POST /api/token/{$}"}
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	errs := map[string][]string{}
	if body.Username == "" {
		errs["username"] = []string{"This field is required."}
	}
	if body.Password == "" {
		errs["password"] = []string{"This field is required."}
	}
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	acct, err := h.users.GetByUsername(body.Username)
	if err == nil {
		err = VerifyPassword(acct.PasswordHash(), body.Password)
	}
	if err != nil {
		if !errors.Is(err, shared.ErrUserNotFound) && !errors.Is(err, shared.ErrInvalidCredentials) {
			h.logger.Error("token lookup failed", "err", err)
		}
		writeDetail(w, http.StatusUnauthorized, "No active account found with the given credentials")
		return
	}

	pair, err := h.issuer.Issue(acct)
	if err != nil {
		h.logger.Error("failed to issue tokens", "err", err)
		writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

// MeHandler returns the authenticated user's profile.
type MeHandler struct{}

// NewMeHandler creates a [MeHandler]. Wrap it with [RequireAuth].
func NewMeHandler() *MeHandler { return &MeHandler{} }

func (h *MeHandler) Routes() []string {
	return []string{"GET /api/me/{$}"}
}

func (h *MeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	acct, ok := AccountFrom(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	writeJSON(w, http.StatusOK, acct.User())
}

// NotesHandler serves the note collection of the authenticated account.
type NotesHandler struct {
	notes  *repositories.NoteRepository
	logger *log.Logger
}

// NewNotesHandler creates a [NotesHandler]. Wrap it with [RequireAuth].
func NewNotesHandler(notes *repositories.NoteRepository, logger *log.Logger) *NotesHandler {
	return &NotesHandler{notes: notes, logger: logger}
}

const (
	routeNotes     = "GET /api/notes/{$}"
	routeCreate    = "POST /api/notes/{$}"
	routeNote      = "GET /api/notes/{id}/{$}"
	routeUpdate    = "PUT /api/notes/{id}/{$}"
	routeDelete    = "DELETE /api/notes/{id}/{$}"
	routePositions = "POST /api/notes/positions/{$}"
)

func (h *NotesHandler) Routes() []string {
	return []string{routeNotes, routeCreate, routeNote, routeUpdate, routeDelete, routePositions}
}

func (h *NotesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	acct, ok := AccountFrom(r.Context())
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	switch r.Pattern {
	case routeNotes:
		h.list(w, r, acct)
	case routeCreate:
		h.create(w, r, acct)
	case routeNote, routeUpdate, routeDelete:
		h.detail(w, r, acct)
	case routePositions:
		h.positions(w, r, acct)
	default:
		writeDetail(w, http.StatusNotFound, "Not found.")
	}
}

func (h *NotesHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, shared.ErrNoteNotFound) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	h.logger.Error("notes request failed", "path", r.URL.Path, "err", err, "request_id", RequestIDFrom(r.Context()))
	writeDetail(w, http.StatusInternalServerError, "A server error occurred.")
}

func (h *NotesHandler) list(w http.ResponseWriter, r *http.Request, acct *models.Account) {
	recs, err := h.notes.List(acct.Key(), r.URL.Query().Get("search"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	out := make([]models.Note, len(recs))
	for i, rec := range recs {
		out[i] = rec.Note()
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *NotesHandler) create(w http.ResponseWriter, r *http.Request, acct *models.Account) {
	var in models.NoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}
	if errs := fieldErrors(in); len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, errs)
		return
	}

	rec := models.NewNoteRecord(acct.Key(), in.Title, in.Content)
	if err := h.notes.Create(rec); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec.Note())
}

func (h *NotesHandler) detail(w http.ResponseWriter, r *http.Request, acct *models.Account) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}

	rec, err := h.notes.GetForAccount(acct.Key(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, rec.Note())

	case http.MethodPut:
		var in models.NoteInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeDetail(w, http.StatusBadRequest, "JSON parse error")
			return
		}
		if errs := fieldErrors(in); len(errs) > 0 {
			writeJSON(w, http.StatusBadRequest, errs)
			return
		}
		rec.SetContent(in.Title, in.Content)
		if err := h.notes.Update(rec); err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, rec.Note())

	case http.MethodDelete:
		if err := h.notes.Delete(rec.Key()); err != nil {
			h.fail(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *NotesHandler) positions(w http.ResponseWriter, r *http.Request, acct *models.Account) {
	var positions []models.Position
	if err := json.NewDecoder(r.Body).Decode(&positions); err != nil {
		writeDetail(w, http.StatusBadRequest, "JSON parse error")
		return
	}

	if err := h.notes.UpdatePositions(acct.Key(), positions); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}
