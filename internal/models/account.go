package models

import (
	"fmt"
	"strings"
	"time"
)

// Account is a backend user record with credentials.
type Account struct {
	id           int64
	user         User
	passwordHash string
	createdAt    time.Time
	updatedAt    time.Time
}

var _ Model = (*Account)(nil)

// NewAccount creates an unsaved [Account] for the given profile and password hash.
func NewAccount(user User, passwordHash string) *Account {
	now := time.Now()
	return &Account{user: user, passwordHash: passwordHash, createdAt: now, updatedAt: now}
}

func (a *Account) Key() int64               { return a.id }
func (a *Account) SetKey(id int64)          { a.id = id }
func (a *Account) User() User               { return a.user }
func (a *Account) Username() string         { return a.user.Username }
func (a *Account) PasswordHash() string     { return a.passwordHash }
func (a *Account) CreatedAt() time.Time     { return a.createdAt }
func (a *Account) UpdatedAt() time.Time     { return a.updatedAt }
func (a *Account) SetCreatedAt(t time.Time) { a.createdAt = t }
func (a *Account) SetUpdatedAt(t time.Time) { a.updatedAt = t }

// SetUser replaces the profile fields.
func (a *Account) SetUser(u User) {
	a.user = u
	a.updatedAt = time.Now()
}

// Validate checks required fields.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.user.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if a.passwordHash == "" {
		return fmt.Errorf("password hash is required")
	}
	return nil
}
