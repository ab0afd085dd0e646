package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/notes"
	"github.com/desertthunder/jot/internal/reorder"
	"github.com/desertthunder/jot/internal/repositories"
	"github.com/desertthunder/jot/internal/services"
	"github.com/desertthunder/jot/internal/session"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/desertthunder/jot/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	db         *sql.DB
	store      session.TokenStore
	persistent bool
	bound      bool
	client     *services.Client
	session    *session.Service
	notes      *notes.Service
	reorder    *reorder.Controller
	monitor    *tasks.StatusMonitor
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      session.TokenStore // defaults to the local_storage table of the client database
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		persistent: opts.Store != nil,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
	if r.store == nil {
		r.store = session.NewMemoryStore()
	}
	r.wire()
	return r
}

// wire builds the client-side services from the current config and token store.
func (r *Runner) wire() {
	r.client = services.NewClient(services.ClientOpts{
		BaseURL:    r.config.API.BaseURL,
		HTTPClient: r.httpClient,
		Tokens:     session.Tokens(r.store),
		RateLimit:  r.config.API.RateLimit,
		Logger:     shared.WithLogger(r.logger, "component", "client"),
	})

	r.session = session.New(r.client, r.store, session.Opts{
		Navigate: func(route string) { r.logger.Debug("navigate", "route", route) },
		Logger:   shared.WithLogger(r.logger, "component", "session"),
	})

	strategy, err := notes.ParseStrategy(r.config.Notes.Reconcile)
	if err != nil {
		r.logger.Warn("using default reconcile strategy", "err", err)
		strategy = notes.StrategyPatch
	}
	r.notes = notes.New(r.client, notes.Opts{
		Strategy: strategy,
		Logger:   shared.WithLogger(r.logger, "component", "notes"),
	})

	r.reorder = reorder.NewController(r.notes, reorder.Opts{
		Debounce: r.config.Notes.ReorderDebounce.Duration,
		Logger:   shared.WithLogger(r.logger, "component", "reorder"),
	})

	r.monitor = tasks.NewStatusMonitor(r.client, r.config.Notes.StatusInterval.Duration, r.logger)
	r.bound = false
}

// bind keeps the notes collection in step with the session for the rest of the run.
func (r *Runner) bind(ctx context.Context) {
	if !r.bound {
		r.notes.Bind(ctx, r.session)
		r.bound = true
	}
}

// SetLogger replaces the logger and rebuilds the services that hold it.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

// Before loads the configuration named by --config, falling back to defaults when the file does not exist.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	r.configPath = path
	if _, err := os.Stat(path); err == nil {
		config, err := shared.LoadConfig(path)
		if err != nil {
			return ctx, err
		}
		r.config = config
		r.logger.Debug("loaded config", "path", path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return ctx, fmt.Errorf("failed to stat config: %w", err)
	}

	r.wire()
	return ctx, nil
}

// After flushes pending reorders and closes the client database.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.reorder != nil && !r.reorder.Flush() {
		r.logger.Warn("pending reorder was not saved")
	}
	if r.db != nil {
		err := r.db.Close()
		r.db = nil
		return err
	}
	return nil
}

// openStore switches the token store to the client database so the session survives between runs.
func (r *Runner) openStore() error {
	if r.persistent {
		return nil
	}

	db, err := shared.OpenMigrated(r.config.Database.Path, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("failed to open client database: %w", err)
	}

	r.db = db
	r.store = repositories.NewLocalStorage(db)
	r.persistent = true
	r.wire()
	return nil
}

// authenticate restores the persisted session and loads the user's notes.
func (r *Runner) authenticate(ctx context.Context) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.bind(ctx)
	r.session.Init(ctx)
	if !r.session.Authenticated() {
		return fmt.Errorf("%w: run `jot auth login` first", shared.ErrNotAuthenticated)
	}
	if !r.notes.Loaded() {
		return fmt.Errorf("%w: failed to load notes", shared.ErrAPIRequest)
	}
	return nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, notesCommand, statusCommand, apiCommand, serveCommand, openCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
