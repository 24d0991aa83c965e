// Package services implements the HTTP client for the Vorplay API.
//
// # Raw Client
//
// [APIService] performs requests against the configured base URL and returns an [APIResponse] holding the status,
// headers, raw body and (when the body parses) decoded JSON. Every request carries an X-Request-ID header.
// Authenticated calls pass the bearer credential, which is attached by an [oauth2.Transport] over a static token
// source; the client never refreshes or inspects tokens. An optional [rate.Limiter] throttles outgoing requests.
//
// # Typed Client
//
// [VorplayService] wraps the raw client with one method per API operation (auth, profile, reviews, favorites,
// playlists, follows, search history and catalog), decoding responses into [models] types.
//
// # Error Handling
//
// Non-success responses become [*APIError]. Its message is the server's "message" field, used verbatim as the text
// shown to users, and it unwraps to a category from the shared package:
//   - [shared.ErrInvalidInput] : 400 and 422
//   - [shared.ErrNotAuthenticated] : 401 and 403 (login maps 401 to [shared.ErrInvalidCredentials])
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrConflict] : 409 (register maps it to [shared.ErrEmailTaken])
//   - [shared.ErrServiceUnavailable] : 5xx and transport failures
//   - [shared.ErrAPIRequest] : anything else
//
// Operations that need a credential fail with [shared.ErrNotAuthenticated] before any request is sent when none is given.
package services
