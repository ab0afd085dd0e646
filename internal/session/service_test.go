package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/services"
	"github.com/desertthunder/jot/internal/shared"
	tu "github.com/desertthunder/jot/internal/testing"
)

var alice = models.User{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"}

// newFakeSession wires a session to a FakeAPI that reads tokens from the session.
func newFakeSession(t *testing.T) (*Service, *tu.FakeAPI, *MemoryStore, *[]string) {
	t.Helper()
	fake := tu.NewFakeAPI()
	fake.AddUser(alice, "pw")
	store := NewMemoryStore()
	var routes []string
	svc := New(fake, store, Opts{Navigate: func(r string) { routes = append(routes, r) }})
	fake.Tokens = svc
	return svc, fake, store, &routes
}

func TestLogin(t *testing.T) {
	t.Run("Stores Tokens And Holds User", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("POST /api/token/", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"access": "A", "refresh": "R"})
		})
		mux.HandleFunc("GET /api/me/", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer A" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(alice)
		})
		server := httptest.NewServer(mux)
		defer server.Close()

		store := NewMemoryStore()
		client := services.NewClient(services.ClientOpts{BaseURL: server.URL, Tokens: Tokens(store)})
		var routes []string
		svc := New(client, store, Opts{Navigate: func(r string) { routes = append(routes, r) }})

		if !svc.Login(context.Background(), "alice", "pw") {
			t.Fatalf("expected login to succeed, error %q", svc.Error())
		}

		user := svc.User()
		if user == nil || *user != alice {
			t.Errorf("expected held user %+v, got %+v", alice, user)
		}
		if got, _ := store.Get(AccessTokenKey); got != "A" {
			t.Errorf("expected accessToken=A, got %q", got)
		}
		if got, _ := store.Get(RefreshTokenKey); got != "R" {
			t.Errorf("expected refreshToken=R, got %q", got)
		}
		if len(routes) != 1 || routes[0] != RouteHome {
			t.Errorf("expected navigation to %s, got %v", RouteHome, routes)
		}
		if svc.Error() != "" {
			t.Errorf("expected no error, got %q", svc.Error())
		}
	})

	t.Run("Rejected Credentials", func(t *testing.T) {
		svc, fake, store, routes := newFakeSession(t)

		if svc.Login(context.Background(), "alice", "wrong") {
			t.Fatal("expected login to fail")
		}
		if svc.Error() != MsgInvalidCredentials {
			t.Errorf("expected %q, got %q", MsgInvalidCredentials, svc.Error())
		}
		if svc.Authenticated() {
			t.Error("expected no user")
		}
		if store.Len() != 0 {
			t.Error("expected nothing stored")
		}
		if fake.CallCount("Me") != 0 {
			t.Error("expected no user lookup")
		}
		if len(*routes) != 0 {
			t.Errorf("expected no navigation, got %v", *routes)
		}
	})

	t.Run("Transport Failure", func(t *testing.T) {
		svc, fake, _, _ := newFakeSession(t)
		fake.Fail("ObtainToken", errors.New("connection refused"))

		if svc.Login(context.Background(), "alice", "pw") {
			t.Fatal("expected login to fail")
		}
		if svc.Error() != MsgLoginFailed {
			t.Errorf("expected %q, got %q", MsgLoginFailed, svc.Error())
		}
	})

	t.Run("Success Clears Previous Error", func(t *testing.T) {
		svc, _, _, _ := newFakeSession(t)
		svc.Login(context.Background(), "alice", "wrong")
		if !svc.Login(context.Background(), "alice", "pw") {
			t.Fatal("expected second login to succeed")
		}
		if svc.Error() != "" {
			t.Errorf("expected error to be cleared, got %q", svc.Error())
		}
	})

	t.Run("User Lookup Rejected Keeps Tokens", func(t *testing.T) {
		svc, fake, store, routes := newFakeSession(t)
		fake.Fail("Me", &services.APIError{StatusCode: http.StatusInternalServerError})

		if svc.Login(context.Background(), "alice", "pw") {
			t.Fatal("expected login to report no user")
		}
		if svc.Authenticated() {
			t.Error("expected no user")
		}
		if got, _ := store.Get(AccessTokenKey); got == "" {
			t.Error("expected tokens to remain stored")
		}
		if svc.Error() != "" {
			t.Errorf("expected no error message, got %q", svc.Error())
		}
		if len(*routes) != 0 {
			t.Errorf("expected no navigation, got %v", *routes)
		}
	})

	t.Run("Notifies Listeners", func(t *testing.T) {
		svc, _, _, _ := newFakeSession(t)
		var seen []*models.User
		svc.Subscribe(func(u *models.User) { seen = append(seen, u) })

		svc.Login(context.Background(), "alice", "pw")
		svc.Logout()

		if len(seen) != 2 {
			t.Fatalf("expected 2 notifications, got %d", len(seen))
		}
		if seen[0] == nil || seen[0].Username != "alice" {
			t.Errorf("expected alice first, got %+v", seen[0])
		}
		if seen[1] != nil {
			t.Errorf("expected nil after logout, got %+v", seen[1])
		}
	})
}

func TestLogout(t *testing.T) {
	svc, fake, store, routes := newFakeSession(t)
	svc.Login(context.Background(), "alice", "pw")
	calls := len(fake.Calls())

	svc.Logout()

	if svc.User() != nil {
		t.Error("expected user to be cleared")
	}
	if store.Len() != 0 {
		t.Error("expected both tokens to be removed")
	}
	if len(fake.Calls()) != calls {
		t.Error("logout must not call the backend")
	}
	if last := (*routes)[len(*routes)-1]; last != RouteHome {
		t.Errorf("expected navigation to %s, got %s", RouteHome, last)
	}
	if _, err := svc.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated after logout, got %v", err)
	}
}

func TestInit(t *testing.T) {
	t.Run("No Stored Token", func(t *testing.T) {
		svc, fake, _, _ := newFakeSession(t)

		svc.Init(context.Background())

		if svc.User() != nil {
			t.Error("expected no user")
		}
		if fake.CallCount("Me") != 0 {
			t.Error("expected no /api/me/ call without a token")
		}
		if svc.Checking() {
			t.Error("expected check to be finished")
		}
	})

	t.Run("Valid Token Restores User", func(t *testing.T) {
		svc, fake, store, routes := newFakeSession(t)
		fake.IssueToken("A", "alice")
		store.Set(AccessTokenKey, "A")
		store.Set(RefreshTokenKey, "R")

		svc.Init(context.Background())

		if u := svc.User(); u == nil || u.Username != "alice" {
			t.Errorf("expected alice, got %+v", u)
		}
		if len(*routes) != 0 {
			t.Errorf("init should not navigate, got %v", *routes)
		}
	})

	t.Run("Invalid Token Is Cleared Silently", func(t *testing.T) {
		svc, fake, store, _ := newFakeSession(t)
		store.Set(AccessTokenKey, "expired")
		store.Set(RefreshTokenKey, "R")

		svc.Init(context.Background())

		if svc.User() != nil {
			t.Error("expected no user")
		}
		if store.Len() != 0 {
			t.Error("expected both tokens to be cleared")
		}
		if svc.Error() != "" {
			t.Errorf("expected no surfaced error, got %q", svc.Error())
		}

		svc.Init(context.Background())
		if fake.CallCount("Me") != 1 {
			t.Errorf("expected the failed check not to be retried, got %d calls", fake.CallCount("Me"))
		}
	})

	t.Run("Transport Failure Keeps Tokens", func(t *testing.T) {
		svc, fake, store, _ := newFakeSession(t)
		store.Set(AccessTokenKey, "A")
		fake.Fail("Me", errors.New("connection refused"))

		svc.Init(context.Background())

		if svc.User() != nil {
			t.Error("expected no user")
		}
		if got, _ := store.Get(AccessTokenKey); got != "A" {
			t.Error("expected token to be kept")
		}
	})

	t.Run("Checking While In Flight", func(t *testing.T) {
		store := NewMemoryStore()
		store.Set(AccessTokenKey, "A")
		var during atomic.Bool
		var svc *Service
		svc = New(authFunc(func(ctx context.Context) (*models.User, error) {
			during.Store(svc.Checking())
			return &alice, nil
		}), store, Opts{})

		if svc.Checking() {
			t.Error("expected not checking before Init")
		}
		svc.Init(context.Background())
		if !during.Load() {
			t.Error("expected Checking to be true during the lookup")
		}
		if svc.Checking() {
			t.Error("expected not checking after Init")
		}
	})
}

func TestTokens(t *testing.T) {
	store := NewMemoryStore()
	src := Tokens(store)

	if _, err := src.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Errorf("expected ErrNotAuthenticated, got %v", err)
	}

	store.Set(AccessTokenKey, "A")
	store.Set(RefreshTokenKey, "R")
	tok, err := src.Token()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok.AccessToken != "A" || tok.RefreshToken != "R" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}
	if !tok.Valid() {
		t.Error("expected token without expiry to be valid")
	}
}

// authFunc is an Authenticator whose Me is fn and whose ObtainToken always fails.
type authFunc func(ctx context.Context) (*models.User, error)

func (f authFunc) ObtainToken(context.Context, string, string) (*models.Session, error) {
	return nil, &services.APIError{StatusCode: http.StatusUnauthorized}
}

func (f authFunc) Me(ctx context.Context) (*models.User, error) { return f(ctx) }
