// Package models defines the records exchanged with the Vorplay API.
//
// The package contains three groups of types:
//
// 1. Session records: who is logged in
//   - [Identity] : the authoritative user profile returned by the API
//   - [AuthResult] : credential exchange response (bearer token, expiry, identity)
//
// 2. Catalog records: read-only music metadata
//   - [Track], [Artist], [Album], [SearchResults]
//
// 3. User content: everything a user creates
//   - [Review], [Favorite], [Playlist], [PlaylistDetail], [Follow], [Profile], [SearchEntry]
//
// Input types ([ReviewInput], [PlaylistInput], [ProfilePatch]) validate themselves before a request is sent.
package models
