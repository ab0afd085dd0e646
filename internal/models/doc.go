// Package models defines the entities shared by the jot client, its REST client, and the reference backend.
//
// The package contains two categories of types:
//
// 1. Wire types: structs exchanged with the notes API
//   - [User] : the authenticated user's profile
//   - [Note] : a short text note with a dense, zero-based [Note.Position]
//   - [Session] : the access/refresh token pair issued at login
//   - [Position] : one entry of a bulk reorder request
//   - [Status] : the backend health probe response
//
// 2. Persistent entities: backend-only records
//   - [Account] : a user with a bcrypt password hash
//   - [NoteRecord] : a stored note with its owner and soft-delete flag
//
// The Repository[T] interface defines the CRUD surface the backend repositories implement.
package models
