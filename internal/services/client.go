package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jot/internal/models"
	"github.com/desertthunder/jot/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "http://127.0.0.1:8000"

// RequestIDHeader carries a per-request uuid for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// Client is the HTTP implementation of [NotesAPI].
type Client struct {
	baseURL    string
	httpClient *http.Client
	authClient *http.Client
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	logger     *log.Logger
}

// ClientOpts configures a [Client].
type ClientOpts struct {
	BaseURL    string             // defaults to http://127.0.0.1:8000
	HTTPClient *http.Client       // defaults to [http.DefaultClient]
	Tokens     oauth2.TokenSource // access token source for authenticated endpoints
	RateLimit  float64            // requests per second, 0 disables throttling
	Logger     *log.Logger
}

// NewClient creates a new notes API client.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		tokens:     opts.Tokens,
		logger:     opts.Logger,
	}

	src := opts.Tokens
	if src == nil {
		src = noTokens{}
	}
	c.authClient = &http.Client{
		Transport:     &oauth2.Transport{Source: src, Base: opts.HTTPClient.Transport},
		CheckRedirect: opts.HTTPClient.CheckRedirect,
		Jar:           opts.HTTPClient.Jar,
		Timeout:       opts.HTTPClient.Timeout,
	}

	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return c
}

// BaseURL returns the API base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// noTokens is the token source used when none was configured.
type noTokens struct{}

func (noTokens) Token() (*oauth2.Token, error) { return nil, shared.ErrNotAuthenticated }

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ObtainToken exchanges credentials for an access/refresh token pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (*models.Session, error) {
	var session models.Session
	if err := c.do(ctx, false, http.MethodPost, "/api/token/", credentials{username, password}, &session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("%w: token response missing access token", shared.ErrAPIRequest)
	}
	return &session, nil
}

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.do(ctx, true, http.MethodGet, "/api/me/", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListNotes fetches all of the user's notes.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	notes := []models.Note{}
	if err := c.do(ctx, true, http.MethodGet, "/api/notes/", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// SearchNotes fetches notes whose title or content contains query.
func (c *Client) SearchNotes(ctx context.Context, query string) ([]models.Note, error) {
	notes := []models.Note{}
	path := "/api/notes/?search=" + url.QueryEscape(query)
	if err := c.do(ctx, true, http.MethodGet, path, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// CreateNote creates a note and returns the server's representation.
func (c *Client) CreateNote(ctx context.Context, title, content string) (*models.Note, error) {
	var note models.Note
	body := models.NoteInput{Title: title, Content: content}
	if err := c.do(ctx, true, http.MethodPost, "/api/notes/", body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// UpdateNote replaces a note's title and content.
func (c *Client) UpdateNote(ctx context.Context, id int64, title, content string) (*models.Note, error) {
	var note models.Note
	body := models.NoteInput{Title: title, Content: content}
	if err := c.do(ctx, true, http.MethodPut, notePath(id), body, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

// DeleteNote deletes a note. The response body is ignored.
func (c *Client) DeleteNote(ctx context.Context, id int64) error {
	return c.do(ctx, true, http.MethodDelete, notePath(id), nil, nil)
}

// UpdatePositions sends the full {id, position} list for a reorder.
func (c *Client) UpdatePositions(ctx context.Context, positions []models.Position) error {
	if positions == nil {
		positions = []models.Position{}
	}
	return c.do(ctx, true, http.MethodPost, "/api/notes/positions/", positions, nil)
}

// Status probes the unauthenticated health endpoint.
func (c *Client) Status(ctx context.Context) (*models.Status, error) {
	var status models.Status
	if err := c.do(ctx, false, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func notePath(id int64) string {
	return "/api/notes/" + strconv.FormatInt(id, 10) + "/"
}

// do sends a JSON request and decodes a JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, authed bool, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	client := c.httpClient
	if authed {
		client = c.authClient
	}

	res, err := c.send(ctx, client, method, path, body)
	if err != nil {
		return err
	}

	data := res.body
	if res.status < 200 || res.status >= 300 {
		return &APIError{Method: method, Path: path, StatusCode: res.status, Body: data}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to decode %s %s response: %v", shared.ErrAPIRequest, method, path, err)
	}
	return nil
}

type result struct {
	status int
	header http.Header
	body   []byte
}

// send performs one request and returns the status code, headers and body.
func (c *Client) send(ctx context.Context, client *http.Client, method, path string, body io.Reader) (*result, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := shared.GenerateID()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("api request", "method", method, "path", path, "request_id", requestID)

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, shared.ErrNotAuthenticated) {
			return nil, shared.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("%w: request failed: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrAPIRequest, err)
	}

	c.logger.Debug("api response", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	return &result{status: resp.StatusCode, header: resp.Header, body: data}, nil
}
