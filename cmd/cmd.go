// submodule cmd contains command definitions
package main

import (
	"github.com/desertthunder/jot/internal/tasks"
	"github.com/urfave/cli/v3"
)

var jsonFlag = &cli.BoolFlag{Name: "json", Usage: "Output raw JSON"}

// setupCommand handles setup operations for configuration and databases.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example config.toml to the --config path",
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the client database and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "server",
						Usage: "Migrate the reference backend database instead",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles session operations
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage the stored session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Exchange credentials for tokens and store them",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "username",
						Aliases:  []string{"u"},
						Usage:    "Account username",
						Required: true,
						Sources:  cli.EnvVars("JOT_USERNAME"),
					},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "Account password",
						Required: true,
						Sources:  cli.EnvVars("JOT_PASSWORD"),
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:   "logout",
				Usage:  "Forget the stored tokens",
				Action: r.AuthLogout,
			},
			{
				Name:   "whoami",
				Usage:  "Show the authenticated user",
				Flags:  []cli.Flag{jsonFlag},
				Action: r.AuthWhoami,
			},
			{
				Name:   "status",
				Usage:  "Show which tokens are stored locally",
				Action: r.AuthStatus,
			},
			{
				Name:  "import",
				Usage: "Import a bearer token from a browser \"Copy as cURL\" command",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
				},
				Action: r.AuthImport,
			},
		},
	}
}

// notesCommand handles note operations
func notesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "notes",
		Aliases: []string{"n"},
		Usage:   "List, edit and reorder notes",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List notes in display order",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "search",
						Aliases: []string{"s"},
						Usage:   "Only show notes whose title or content contains this text",
					},
					jsonFlag,
				},
				Action: r.NotesList,
			},
			{
				Name:  "add",
				Usage: "Create a note",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Note title", Required: true},
					&cli.StringFlag{Name: "content", Aliases: []string{"m"}, Usage: "Note content", Required: true},
					jsonFlag,
				},
				Action: r.NotesAdd,
			},
			{
				Name:  "edit",
				Usage: "Replace a note's title and/or content",
				Arguments: []cli.Argument{
					&cli.Int64Arg{Name: "id"},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "New title"},
					&cli.StringFlag{Name: "content", Aliases: []string{"m"}, Usage: "New content"},
					jsonFlag,
				},
				Action: r.NotesEdit,
			},
			{
				Name:    "rm",
				Aliases: []string{"delete"},
				Usage:   "Delete a note",
				Arguments: []cli.Argument{
					&cli.Int64Arg{Name: "id"},
				},
				Action: r.NotesDelete,
			},
			{
				Name:  "move",
				Usage: "Move the note at one list position to another (1-based)",
				Arguments: []cli.Argument{
					&cli.IntArg{Name: "from"},
					&cli.IntArg{Name: "to"},
				},
				Action: r.NotesMove,
			},
			{
				Name:  "export",
				Usage: "Export notes to a file, or one file per note with --dir",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format: json, csv, markdown or txt",
						Value:   "json",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Write one file per note plus a manifest into this directory",
					},
					&cli.BoolFlag{
						Name:  "bulk",
						Usage: "Bulk export into a timestamped directory",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent export workers",
						Value: 4,
					},
				},
				Action: r.NotesExport,
			},
		},
	}
}

// statusCommand reports backend health
func statusCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Check whether the notes API is online",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "watch",
				Aliases: []string{"w"},
				Usage:   "Keep polling until interrupted",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Usage: "Polling interval for --watch (defaults to notes.status_interval)",
				Value: tasks.DefaultStatusInterval,
			},
		},
		Action: r.Status,
	}
}

// apiCommand handles direct API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Direct calls to the notes API",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Direct GET, prints the raw response",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output compact JSON",
						Value: true,
					},
				},
				Action: r.APIGet,
			},
			{
				Name:  "post",
				Usage: "Direct POST with JSON body",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "path",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "data",
						Aliases:  []string{"d"},
						Usage:    "JSON body to send",
						Required: true,
					},
				},
				Action: r.APIPost,
			},
		},
	}
}

// serveCommand runs the reference backend
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the reference notes API backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
		},
		Action: r.Serve,
		Commands: []*cli.Command{
			{
				Name:  "adduser",
				Usage: "Create a backend account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Sources: cli.EnvVars("JOT_PASSWORD")},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				},
				Action: r.ServeAddUser,
			},
		},
	}
}

// openCommand opens a page of the web frontend
func openCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "open",
		Usage: "Open the web frontend in the default browser",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "route", Value: "/notes"},
		},
		Action: r.Open,
	}
}

// tuiCommand returns the top-level TUI command for interactive note management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive notes TUI",
		Action:  r.TUI,
	}
}
