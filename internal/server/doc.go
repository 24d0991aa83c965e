// Package server provides HTTP routing, middleware, and an in-memory Vorplay API used for local development and tests.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns ("GET /users/{id}") internally.
//
// # Fake API
//
// [FakeAPI] implements every endpoint the client consumes, backed by maps guarded by a mutex. Credentials are
// HS256 JWTs signed with a per-instance key. Tests seed it with [FakeAPI.AddUser] and the catalog helpers, inject
// failures with [FakeAPI.SetFailure], and assert that no remote call happened with [FakeAPI.Calls].
//
// `vorplay dev api` serves a demo-seeded instance on the configured host and port.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
