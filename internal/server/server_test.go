package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var alice = models.User{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := shared.OpenMigrated(":memory:", 0, 0)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	srv, err := New(db, Opts{Secret: "test-secret"})
	require.NoError(t, err)
	_, err = srv.AddUser(alice, "pw")
	require.NoError(t, err)
	return srv
}

// do sends a request through the server and decodes a JSON response into out when non-nil.
func do(t *testing.T, srv http.Handler, method, path, token string, body any, out any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func login(t *testing.T, srv http.Handler) string {
	t.Helper()
	var pair models.Session
	rec := do(t, srv, http.MethodPost, "/api/token/", "", map[string]string{"username": "alice", "password": "pw"}, &pair)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	return pair.AccessToken
}

func TestNew(t *testing.T) {
	db, err := shared.OpenMigrated(":memory:", 0, 0)
	require.NoError(t, err)
	defer db.Close()

	_, err = New(db, Opts{})
	assert.ErrorIs(t, err, shared.ErrMissingConfig)
}

func TestStatus(t *testing.T) {
	srv := newTestServer(t)

	var status models.Status
	rec := do(t, srv, http.MethodGet, "/api/status", "", nil, &status)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", status.Status)

	srv.db.Close()
	rec = do(t, srv, http.MethodGet, "/api/status", "", nil, &status)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, status.Online())
}

func TestToken(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Valid Credentials", func(t *testing.T) {
		token := login(t, srv)
		claims, err := srv.Issuer().Parse(token, AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "access", claims.TokenType)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		var body map[string]string
		rec := do(t, srv, http.MethodPost, "/api/token/", "", map[string]string{"username": "alice", "password": "nope"}, &body)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "No active account found with the given credentials", body["detail"])
	})

	t.Run("Unknown User", func(t *testing.T) {
		rec := do(t, srv, http.MethodPost, "/api/token/", "", map[string]string{"username": "bob", "password": "pw"}, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Missing Fields", func(t *testing.T) {
		var body map[string][]string
		rec := do(t, srv, http.MethodPost, "/api/token/", "", map[string]string{}, &body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, body, "username")
		assert.Contains(t, body, "password")
	})

	t.Run("Wrong Method", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/token/", "", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestMe(t *testing.T) {
	srv := newTestServer(t)

	t.Run("Authenticated", func(t *testing.T) {
		var user models.User
		rec := do(t, srv, http.MethodGet, "/api/me/", login(t, srv), nil, &user)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, alice, user)
	})

	t.Run("Rejected Tokens", func(t *testing.T) {
		acct, err := srv.users.GetByUsername("alice")
		require.NoError(t, err)
		pair, err := srv.Issuer().Issue(acct)
		require.NoError(t, err)

		expired := NewTokenIssuer("test-secret", time.Minute, time.Hour)
		expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
		old, err := expired.Issue(acct)
		require.NoError(t, err)

		other, err := NewTokenIssuer("other-secret", 0, 0).Issue(acct)
		require.NoError(t, err)

		tests := []struct {
			name  string
			token string
		}{
			{"missing", ""},
			{"garbage", "not-a-jwt"},
			{"refresh token", pair.RefreshToken},
			{"expired", old.AccessToken},
			{"wrong secret", other.AccessToken},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var body map[string]string
				rec := do(t, srv, http.MethodGet, "/api/me/", tt.token, nil, &body)
				assert.Equal(t, http.StatusUnauthorized, rec.Code)
				assert.NotEmpty(t, body["detail"])
			})
		}
	})

	t.Run("Deleted Account", func(t *testing.T) {
		acct, err := srv.AddUser(models.User{Username: "carol"}, "pw")
		require.NoError(t, err)
		pair, err := srv.Issuer().Issue(acct)
		require.NoError(t, err)
		require.NoError(t, srv.users.Delete(acct.Key()))

		rec := do(t, srv, http.MethodGet, "/api/me/", pair.AccessToken, nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestNotes(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	create := func(title, content string) models.Note {
		var note models.Note
		rec := do(t, srv, http.MethodPost, "/api/notes/", token, models.NoteInput{Title: title, Content: content}, &note)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return note
	}
	list := func(query string) []models.Note {
		var notes []models.Note
		rec := do(t, srv, http.MethodGet, "/api/notes/"+query, token, nil, &notes)
		require.Equal(t, http.StatusOK, rec.Code)
		return notes
	}

	t.Run("Empty List Is An Array", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/notes/", token, nil, nil)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	first := create("Groceries", "milk,eggs")
	second := create("Ideas", "build a notes app")
	third := create("Travel", "pack the MILK")

	t.Run("Create Assigns Positions", func(t *testing.T) {
		assert.Equal(t, 0, first.Position)
		assert.Equal(t, 1, second.Position)
		assert.Equal(t, 2, third.Position)
		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("Create Validation", func(t *testing.T) {
		var errs map[string][]string
		rec := do(t, srv, http.MethodPost, "/api/notes/", token, models.NoteInput{Title: "", Content: ""}, &errs)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, errs, "title")
		assert.Contains(t, errs, "content")
	})

	t.Run("Requires Auth", func(t *testing.T) {
		rec := do(t, srv, http.MethodGet, "/api/notes/", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("List Ordered By Position", func(t *testing.T) {
		notes := list("")
		require.Len(t, notes, 3)
		assert.Equal(t, []models.Note{first, second, third}, notes)
	})

	t.Run("Search", func(t *testing.T) {
		notes := list("?search=milk")
		require.Len(t, notes, 2)
		assert.Equal(t, first.ID, notes[0].ID)
		assert.Equal(t, third.ID, notes[1].ID)
	})

	t.Run("Get", func(t *testing.T) {
		var note models.Note
		rec := do(t, srv, http.MethodGet, "/api/notes/"+strconv.FormatInt(second.ID, 10)+"/", token, nil, &note)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, second, note)
	})

	t.Run("Update", func(t *testing.T) {
		var note models.Note
		path := "/api/notes/" + strconv.FormatInt(second.ID, 10) + "/"
		rec := do(t, srv, http.MethodPut, path, token, models.NoteInput{Title: "Big ideas", Content: "ship it"}, &note)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.Note{ID: second.ID, Title: "Big ideas", Content: "ship it", Position: 1}, note)
		second = note
	})

	t.Run("Unknown Note", func(t *testing.T) {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			rec := do(t, srv, method, "/api/notes/9999/", token, models.NoteInput{Title: "x", Content: "y"}, nil)
			assert.Equal(t, http.StatusNotFound, rec.Code, method)
		}
		rec := do(t, srv, http.MethodGet, "/api/notes/abc/", token, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Other Account Cannot See Notes", func(t *testing.T) {
		_, err := srv.AddUser(models.User{Username: "bob"}, "pw2")
		require.NoError(t, err)
		var pair models.Session
		do(t, srv, http.MethodPost, "/api/token/", "", map[string]string{"username": "bob", "password": "pw2"}, &pair)

		var notes []models.Note
		do(t, srv, http.MethodGet, "/api/notes/", pair.AccessToken, nil, &notes)
		assert.Empty(t, notes)

		rec := do(t, srv, http.MethodDelete, "/api/notes/"+strconv.FormatInt(first.ID, 10)+"/", pair.AccessToken, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Positions", func(t *testing.T) {
		body := []models.Position{{ID: third.ID, Position: 0}, {ID: first.ID, Position: 1}, {ID: second.ID, Position: 2}}
		rec := do(t, srv, http.MethodPost, "/api/notes/positions/", token, body, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		notes := list("")
		require.Len(t, notes, 3)
		assert.Equal(t, []int64{third.ID, first.ID, second.ID}, []int64{notes[0].ID, notes[1].ID, notes[2].ID})
	})

	t.Run("Delete Is Soft", func(t *testing.T) {
		path := "/api/notes/" + strconv.FormatInt(first.ID, 10) + "/"
		rec := do(t, srv, http.MethodDelete, path, token, nil, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, srv, http.MethodGet, path, token, nil, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Len(t, list(""), 2)

		var deleted bool
		require.NoError(t, srv.db.QueryRow(`SELECT is_deleted FROM notes WHERE id = ?`, first.ID).Scan(&deleted))
		assert.True(t, deleted)
	})

	t.Run("Create After Delete Uses Live Count", func(t *testing.T) {
		note := create("Fourth", "four")
		assert.Equal(t, 2, note.Position)
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Request ID Is Echoed", func(t *testing.T) {
		srv := newTestServer(t)
		req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

		rec = httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
	})

	t.Run("Recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(shared.NewLogger(nil)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("boom")
		}))

		var body map[string]string
		rec := do(t, router, http.MethodGet, "/boom", "", nil, &body)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotEmpty(t, body["detail"])
	})

	t.Run("Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/x", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		do(t, router, http.MethodGet, "/x", "", nil, nil)
		assert.Equal(t, []string{"first", "second", "handler"}, order)

		rec := do(t, router, http.MethodPost, "/x", "", nil, nil)
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestSeed(t *testing.T) {
	srv := newTestServer(t)
	seeds := []shared.SeedAccount{
		{Username: "alice", Password: "ignored"},
		{Username: "dave", Password: "pw", Email: "dave@example.com"},
	}

	require.NoError(t, srv.Seed(seeds))
	require.NoError(t, srv.Seed(seeds), "seeding is idempotent")

	accounts, err := srv.users.List()
	require.NoError(t, err)
	assert.Len(t, accounts, 2)

	rec := do(t, srv, http.MethodPost, "/api/token/", "", map[string]string{"username": "alice", "password": "pw"}, nil)
	assert.Equal(t, http.StatusOK, rec.Code, "existing passwords are not overwritten")

	err = srv.Seed([]shared.SeedAccount{{Username: "erin"}})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestServe(t *testing.T) {
	srv := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/api/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
