package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/repositories"
	"github.com/desertthunder/jot/internal/shared"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers in the notes service.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the "METHOD /path" patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Opts configures a [Server].
type Opts struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Logger     *log.Logger
}

// Server wires repositories, token issuance and handlers into one [http.Handler].
type Server struct {
	db     *sql.DB
	router *BasicRouter
	issuer *TokenIssuer
	users  *repositories.UserRepository
	notes  *repositories.NoteRepository
	logger *log.Logger
}

// New creates a server on a migrated database.
func New(db *sql.DB, opts Opts) (*Server, error) {
	if opts.Secret == "" {
		return nil, fmt.Errorf("%w: server secret is required", shared.ErrMissingConfig)
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	s := &Server{
		db:     db,
		router: NewBasicRouter(),
		issuer: NewTokenIssuer(opts.Secret, opts.AccessTTL, opts.RefreshTTL),
		users:  repositories.NewUserRepository(db),
		notes:  repositories.NewNoteRepository(db),
		logger: opts.Logger,
	}

	s.router.Use(RequestID, Logging(s.logger), Recover(s.logger))

	auth := RequireAuth(s.issuer, s.users)
	s.router.Handler(NewStatusHandler(db))
	s.router.Handler(NewTokenHandler(s.users, s.issuer, s.logger))
	s.router.Handler(Protect(NewMeHandler(), auth))
	s.router.Handler(Protect(NewNotesHandler(s.notes, s.logger), auth))

	return s, nil
}

// ServeHTTP implements [http.Handler].
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Issuer returns the server's token issuer.
func (s *Server) Issuer() *TokenIssuer { return s.issuer }

// AddUser creates an account with a bcrypt hash of password.
func (s *Server) AddUser(user models.User, password string) (*models.Account, error) {
	if password == "" {
		return nil, fmt.Errorf("%w: password is required", shared.ErrInvalidInput)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	acct := models.NewAccount(user, hash)
	if err := s.users.Create(acct); err != nil {
		return nil, err
	}
	return acct, nil
}

// Seed creates every configured account that does not exist yet.
func (s *Server) Seed(accounts []shared.SeedAccount) error {
	for _, a := range accounts {
		if _, err := s.users.GetByUsername(a.Username); err == nil {
			continue
		} else if !errors.Is(err, shared.ErrUserNotFound) {
			return err
		}

		user := models.User{Username: a.Username, Email: a.Email, FirstName: a.FirstName, LastName: a.LastName}
		if _, err := s.AddUser(user, a.Password); err != nil {
			return fmt.Errorf("failed to seed %s: %w", a.Username, err)
		}
		s.logger.Info("seeded account", "username", a.Username)
	}
	return nil
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving notes API", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
