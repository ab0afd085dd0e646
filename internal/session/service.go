package session

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/services"
	"github.com/desertthunder/jot/internal/shared"
	"golang.org/x/oauth2"
)

// Routes the navigator is asked to show.
const (
	RouteHome  = "/"
	RouteLogin = "/login"
	RouteNotes = "/notes"
)

// User-visible login failures.
const (
	MsgInvalidCredentials = "Invalid credentials"
	MsgLoginFailed        = "An error occurred during login"
)

// Authenticator is the part of [services.NotesAPI] the session needs.
type Authenticator interface {
	ObtainToken(ctx context.Context, username, password string) (*models.Session, error)
	Me(ctx context.Context) (*models.User, error)
}

// Navigator moves the UI to a route.
type Navigator func(route string)

// Listener is called with the held user (nil when signed out) after every change.
type Listener func(*models.User)

// Opts configures a [Service].
type Opts struct {
	Navigate Navigator
	Logger   *log.Logger
}

// Service is the session state: the held user, the last login error and the persisted tokens.
type Service struct {
	api      Authenticator
	store    TokenStore
	tokens   oauth2.TokenSource
	navigate Navigator
	logger   *log.Logger

	mu        sync.RWMutex
	user      *models.User
	errMsg    string
	checking  bool
	listeners []Listener
}

var _ oauth2.TokenSource = (*Service)(nil)

// New creates a session service. The API's authenticated calls should read
// their bearer token from the same store, usually through [Tokens] or the service itself.
func New(api Authenticator, store TokenStore, opts Opts) *Service {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Navigate == nil {
		opts.Navigate = func(string) {}
	}
	return &Service{
		api:      api,
		store:    store,
		tokens:   Tokens(store),
		navigate: opts.Navigate,
		logger:   opts.Logger,
	}
}

// Token implements [oauth2.TokenSource] by reading the persisted access token.
func (s *Service) Token() (*oauth2.Token, error) { return s.tokens.Token() }

// User returns a copy of the held user, or nil.
func (s *Service) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Authenticated reports whether a user is held.
func (s *Service) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Error returns the last login error message, or "".
func (s *Service) Error() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.errMsg
}

// Checking reports whether the startup check in [Service.Init] is still running.
//
// Views should not redirect to the login route while it is true.
func (s *Service) Checking() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checking
}

// Subscribe registers fn to be called after every change of the held user.
func (s *Service) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Init restores the session from a persisted access token.
//
// Without a stored token no request is made. A rejected token is removed
// silently; a transport failure is only logged and the tokens are kept.
func (s *Service) Init(ctx context.Context) {
	access, err := s.store.Get(AccessTokenKey)
	if err != nil {
		s.logger.Error("failed to read stored token", "err", err)
		return
	}
	if access == "" {
		return
	}

	s.mu.Lock()
	s.checking = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.checking = false
		s.mu.Unlock()
	}()

	user, err := s.api.Me(ctx)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			s.logger.Debug("stored token rejected", "status", apiErr.StatusCode)
			s.clearTokens()
			return
		}
		s.logger.Error("failed to fetch user data", "err", err)
		return
	}

	s.setUser(user)
}

// Login exchanges credentials for tokens, stores them and fetches the user.
//
// It reports whether a user is now held. Failures are exposed through [Service.Error].
func (s *Service) Login(ctx context.Context, username, password string) bool {
	pair, err := s.api.ObtainToken(ctx, username, password)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("login rejected", "username", username, "status", apiErr.StatusCode)
			s.setError(MsgInvalidCredentials)
		} else {
			s.logger.Error("login error", "err", err)
			s.setError(MsgLoginFailed)
		}
		return false
	}

	if err := s.store.Set(AccessTokenKey, pair.AccessToken); err != nil {
		s.logger.Error("login error", "err", err)
		s.setError(MsgLoginFailed)
		return false
	}
	if err := s.store.Set(RefreshTokenKey, pair.RefreshToken); err != nil {
		s.logger.Error("login error", "err", err)
		s.setError(MsgLoginFailed)
		return false
	}

	user, err := s.api.Me(ctx)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			s.logger.Warn("user lookup rejected after login", "status", apiErr.StatusCode)
			return false
		}
		s.logger.Error("login error", "err", err)
		s.setError(MsgLoginFailed)
		return false
	}

	s.mu.Lock()
	s.errMsg = ""
	s.mu.Unlock()
	s.setUser(user)
	s.navigate(RouteHome)
	return true
}

// Logout removes the stored tokens and the held user. No request is made.
func (s *Service) Logout() {
	s.clearTokens()
	s.setUser(nil)
	s.navigate(RouteHome)
}

func (s *Service) clearTokens() {
	for _, key := range []string{AccessTokenKey, RefreshTokenKey} {
		if err := s.store.Delete(key); err != nil {
			s.logger.Error("failed to remove stored token", "key", key, "err", err)
		}
	}
}

func (s *Service) setError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = msg
}

// setUser replaces the held user and notifies listeners outside the lock.
func (s *Service) setUser(user *models.User) {
	s.mu.Lock()
	if user != nil {
		u := *user
		user = &u
	}
	s.user = user
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		if user == nil {
			fn(nil)
			continue
		}
		u := *user
		fn(&u)
	}
}
