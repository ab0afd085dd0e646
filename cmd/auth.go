package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/desertthunder/jot/internal/session"
	"github.com/desertthunder/jot/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges credentials for tokens and stores them in the client database.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	username := cmd.String("username")
	r.logger.Info("logging in", "username", username, "api", r.client.BaseURL())

	if !r.session.Login(ctx, username, cmd.String("password")) {
		msg := r.session.Error()
		if msg == "" {
			msg = "profile request was rejected"
		}
		return fmt.Errorf("%w: %s", shared.ErrAuthFailed, msg)
	}

	return r.writePlain("✓ Logged in as %s\n", r.session.User().DisplayName())
}

// AuthLogout forgets the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.session.Logout()
	return r.writePlain("✓ Logged out\n")
}

// AuthWhoami validates the stored session and prints the user.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.session.Init(ctx)
	user := r.session.User()
	if user == nil {
		return fmt.Errorf("%w: run `jot auth login` first", shared.ErrNotAuthenticated)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}

	r.writePlain("Username: %s\n", user.Username)
	if name := user.DisplayName(); name != user.Username {
		r.writePlain("Name:     %s\n", name)
	}
	if user.Email != "" {
		r.writePlain("Email:    %s\n", user.Email)
	}
	return nil
}

// AuthStatus lists the locally stored session keys without contacting the API.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	r.writePlainHeader("Stored session")
	for _, key := range []string{session.AccessTokenKey, session.RefreshTokenKey} {
		value, err := r.store.Get(key)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", key, err)
		}
		r.writePlain("%-13s %s\n", key+":", mask(value))
	}
	return nil
}

// AuthImport stores the bearer token from a browser request and verifies it against the API.
func (r *Runner) AuthImport(ctx context.Context, cmd *cli.Command) error {
	curlCmd := cmd.String("curl")
	curlFile := cmd.String("curl-file")

	if curlCmd == "" && curlFile == "" {
		return fmt.Errorf("%w: either --curl or --curl-file must be provided", shared.ErrMissingArgument)
	}

	if curlCmd != "" && curlFile != "" {
		return fmt.Errorf("%w: cannot specify both --curl and --curl-file", shared.ErrInvalidArgument)
	}

	var req *shared.CurlRequest
	var err error
	if curlFile != "" {
		req, err = shared.ParseCurlFile(curlFile)
		if err != nil {
			return fmt.Errorf("failed to parse cURL file: %w", err)
		}
		r.logger.Info("parsed cURL from file", "file", curlFile)
	} else {
		req, err = shared.ParseCurlCommand(curlCmd)
		if err != nil {
			return fmt.Errorf("failed to parse cURL command: %w", err)
		}
		r.logger.Info("parsed cURL command")
	}

	token, err := req.BearerToken()
	if err != nil {
		return err
	}

	if u, err := url.Parse(req.URL); err == nil && u.Host != "" {
		origin := u.Scheme + "://" + u.Host
		if origin != r.client.BaseURL() {
			r.logger.Warn("cURL request targets a different API", "curl", origin, "configured", r.client.BaseURL())
		}
	}

	if err := r.openStore(); err != nil {
		return err
	}
	if err := r.store.Set(session.AccessTokenKey, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	r.session.Init(ctx)
	user := r.session.User()
	if user == nil {
		return fmt.Errorf("%w: could not verify the imported token", shared.ErrAuthFailed)
	}
	return r.writePlain("✓ Imported session for %s\n", user.DisplayName())
}

// mask hides all but the last four characters of a token.
func mask(token string) string {
	if token == "" {
		return "(none)"
	}
	if len(token) <= 4 {
		return strings.Repeat("*", len(token))
	}
	return strings.Repeat("*", 8) + token[len(token)-4:]
}
