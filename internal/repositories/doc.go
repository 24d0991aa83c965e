// package repositories provides the SQLite persistence layer for client-side state.
//
// [LocalStorage] is a key/value table standing in for the web client's localStorage. It backs the session
// store, writing and erasing the credential and identity snapshot inside a single transaction.
package repositories
