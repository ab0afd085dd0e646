// Package repositories implements SQLite persistence for jot.
//
// Key Implementations:
//   - [LocalStorage] : client-side key/value store holding the accessToken and refreshToken entries
//   - [UserRepository] : backend accounts with username lookups and bcrypt hashes
//   - [NoteRepository] : backend notes scoped to an account, with soft deletes, search and bulk reordering
//
// Backend repositories implement models.Repository[T]. Notes are soft deleted via an
// is_deleted flag and excluded from every query by default.
package repositories
