// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/services"
	"golang.org/x/oauth2"
)

// FakeAPI is an in-memory test double for [services.NotesAPI].
//
// It stores a single user's notes, records every call by method name and can be told to fail any method.
type FakeAPI struct {
	// Tokens supplies the bearer token Me validates. Nil means every Me call is unauthorized.
	Tokens oauth2.TokenSource

	mu       sync.Mutex
	accounts map[string]fakeAccount
	issued   map[string]string
	notes    []models.Note
	nextID   int64
	calls    []string
	failures map[string]error
	status   string
}

type fakeAccount struct {
	password string
	user     models.User
}

var _ services.NotesAPI = (*FakeAPI)(nil)

// NewFakeAPI returns an empty FakeAPI with a healthy status.
func NewFakeAPI() *FakeAPI {
	return &FakeAPI{
		accounts: make(map[string]fakeAccount),
		issued:   make(map[string]string),
		failures: make(map[string]error),
		nextID:   1,
		status:   "ok",
	}
}

// AddUser registers credentials accepted by ObtainToken.
func (f *FakeAPI) AddUser(user models.User, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[user.Username] = fakeAccount{password: password, user: user}
}

// IssueToken registers a bearer token for username without a login call.
func (f *FakeAPI) IssueToken(token, username string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issued[token] = username
}

// SetNotes replaces the stored notes. Later creates get ids above the largest seeded id.
func (f *FakeAPI) SetNotes(notes []models.Note) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notes = slices.Clone(notes)
	for _, n := range notes {
		if n.ID >= f.nextID {
			f.nextID = n.ID + 1
		}
	}
}

// SetNextID forces the id assigned to the next created note.
func (f *FakeAPI) SetNextID(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID = id
}

// Stored returns the backend's notes ordered by position.
func (f *FakeAPI) Stored() []models.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked()
}

// SetStatus sets the value returned by Status.
func (f *FakeAPI) SetStatus(status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Fail makes every call to method return err until [FakeAPI.Recover] is called.
func (f *FakeAPI) Fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

// Recover clears the injected failure for method.
func (f *FakeAPI) Recover(method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, method)
}

// Calls returns the names of all methods invoked so far.
func (f *FakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// CallCount returns how many times method was invoked.
func (f *FakeAPI) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeAPI) enter(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, method)
	return f.failures[method]
}

func (f *FakeAPI) sortedLocked() []models.Note {
	out := slices.Clone(f.notes)
	slices.SortStableFunc(out, func(a, b models.Note) int { return a.Position - b.Position })
	return out
}

func unauthorized(method, path string) error {
	return &services.APIError{Method: method, Path: path, StatusCode: http.StatusUnauthorized}
}

func notFound(method, path string) error {
	return &services.APIError{Method: method, Path: path, StatusCode: http.StatusNotFound}
}

func (f *FakeAPI) ObtainToken(ctx context.Context, username, password string) (*models.Session, error) {
	if err := f.enter("ObtainToken"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	acct, ok := f.accounts[username]
	if !ok || acct.password != password {
		return nil, unauthorized(http.MethodPost, "/api/token/")
	}

	access := "access-" + username
	f.issued[access] = username
	return &models.Session{AccessToken: access, RefreshToken: "refresh-" + username}, nil
}

func (f *FakeAPI) Me(ctx context.Context) (*models.User, error) {
	if err := f.enter("Me"); err != nil {
		return nil, err
	}
	if f.Tokens == nil {
		return nil, unauthorized(http.MethodGet, "/api/me/")
	}
	tok, err := f.Tokens.Token()
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	username, ok := f.issued[tok.AccessToken]
	if !ok {
		return nil, unauthorized(http.MethodGet, "/api/me/")
	}
	user := f.accounts[username].user
	return &user, nil
}

func (f *FakeAPI) ListNotes(ctx context.Context) ([]models.Note, error) {
	if err := f.enter("ListNotes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sortedLocked(), nil
}

func (f *FakeAPI) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	if err := f.enter("SearchNotes"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	q := strings.ToLower(query)
	out := []models.Note{}
	for _, n := range f.sortedLocked() {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *FakeAPI) CreateNote(ctx context.Context, title, content string) (*models.Note, error) {
	if err := f.enter("CreateNote"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	note := models.Note{ID: f.nextID, Title: title, Content: content, Position: len(f.notes)}
	f.nextID++
	f.notes = append(f.notes, note)
	return &note, nil
}

func (f *FakeAPI) UpdateNote(ctx context.Context, id int64, title, content string) (*models.Note, error) {
	if err := f.enter("UpdateNote"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.notes {
		if f.notes[i].ID == id {
			f.notes[i].Title = title
			f.notes[i].Content = content
			note := f.notes[i]
			return &note, nil
		}
	}
	return nil, notFound(http.MethodPut, "/api/notes/")
}

func (f *FakeAPI) DeleteNote(ctx context.Context, id int64) error {
	if err := f.enter("DeleteNote"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := slices.IndexFunc(f.notes, func(n models.Note) bool { return n.ID == id })
	if idx < 0 {
		return notFound(http.MethodDelete, "/api/notes/")
	}
	f.notes = slices.Delete(f.notes, idx, idx+1)
	return nil
}

func (f *FakeAPI) UpdatePositions(ctx context.Context, positions []models.Position) error {
	if err := f.enter("UpdatePositions"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range positions {
		for i := range f.notes {
			if f.notes[i].ID == p.ID {
				f.notes[i].Position = p.Position
			}
		}
	}
	return nil
}

func (f *FakeAPI) Status(ctx context.Context) (*models.Status, error) {
	if err := f.enter("Status"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return &models.Status{Status: f.status}, nil
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

var _ io.Writer = (*FWriter)(nil)

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
