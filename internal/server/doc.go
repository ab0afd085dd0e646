// Package server is the reference notes backend served by `jot serve`.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns, so a request with the wrong
// method gets a 405 and a path wildcard such as {id} is available through [http.Request.PathValue].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
// [Protect] wraps a Handler so every route requires a bearer token.
//
// # Endpoints
//
//	POST   /api/token/            exchange username/password for {access, refresh}
//	GET    /api/me/               the authenticated user
//	GET    /api/notes/            live notes ordered by position, optional ?search=
//	POST   /api/notes/            create a note at the end of the list
//	GET    /api/notes/{id}/       one note
//	PUT    /api/notes/{id}/       replace title and content
//	DELETE /api/notes/{id}/       soft delete, 204
//	POST   /api/notes/positions/  bulk [{id, position}] update
//	GET    /api/status            {"status": "ok"} while the database answers
//
// Tokens are HS256 JWTs. Errors use a {"detail": "..."} body; validation failures map
// field names to messages.
package server
