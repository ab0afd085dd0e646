package session

import (
	"sync"

	"github.com/desertthunder/jot/internal/shared"
	"golang.org/x/oauth2"
)

// Keys under which the token pair is persisted.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// TokenStore is client-local persistent key/value storage.
//
// Get returns "" and a nil error for a missing key.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// MemoryStore is a [TokenStore] that lives for the process only.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Len reports the number of stored keys.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.values)
}

// storeTokens reads the token pair from a [TokenStore] on every call.
type storeTokens struct {
	store TokenStore
}

// Tokens returns an [oauth2.TokenSource] backed by store.
//
// It exists so the REST client can be built before the [Service] that wraps the same store.
func Tokens(store TokenStore) oauth2.TokenSource {
	return storeTokens{store: store}
}

func (s storeTokens) Token() (*oauth2.Token, error) {
	access, err := s.store.Get(AccessTokenKey)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, shared.ErrNotAuthenticated
	}
	refresh, err := s.store.Get(RefreshTokenKey)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer"}, nil
}
