// Package services implements the HTTP client for the notes REST API.
//
// # Client
//
// [Client] exposes one typed method per endpoint (token, me, notes CRUD, positions, status) and the
// raw [Client.Get]/[Client.Post] helpers used by `jot api`.
//
// # Authentication
//
// Authenticated requests go through an [oauth2.Transport] whose token source is supplied by the caller.
// The session service implements [oauth2.TokenSource] by reading the persisted access token, so every
// request picks up the current token without the client caching it. Tokens are never refreshed.
//
// # Throttling
//
// An optional [rate.Limiter] caps the request rate. Each call waits on the limiter before sending and
// gives up when its context is canceled.
//
// # Error Handling
//
// Transport failures are wrapped with [shared.ErrAPIRequest]. Non-2xx responses return an [*APIError]
// carrying the status code and body, which also matches [shared.ErrAPIRequest] via errors.Is.
// A missing token surfaces as [shared.ErrNotAuthenticated].
package services
