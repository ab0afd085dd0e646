// Raw HTTP access to the notes API for `jot api`
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// Get performs a GET request to the specified path and returns the raw response.
//
// The bearer token is attached when one is available.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.raw(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.raw(ctx, http.MethodPost, path, data)
}

func (c *Client) raw(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	client := c.httpClient
	if c.tokens != nil {
		if tok, err := c.tokens.Token(); err == nil && tok.AccessToken != "" {
			client = c.authClient
		}
	}

	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	res, err := c.send(ctx, client, method, path, body)
	if err != nil {
		return nil, err
	}

	apiResp := &APIResponse{StatusCode: res.status, Headers: res.header, Body: res.body}

	var jsonData any
	if err := json.Unmarshal(res.body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
