// package session holds the signed-in user and the persisted bearer tokens.
//
// A [Service] is the single source of truth for "who is logged in". It stores
// the access and refresh tokens under the keys accessToken and refreshToken in a
// [TokenStore], fetches the current user from the API, and notifies subscribers
// whenever the held user changes. The service also implements
// [golang.org/x/oauth2.TokenSource] so the REST client reads the persisted
// access token on every request.
package session
