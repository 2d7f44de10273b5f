// Package models defines the domain types of the ptb tools client.
//
// The package contains three categories of types:
//
// 1. Wire types: request and response bodies of the tools backend
//   - [PlaylistInfo], [Video], [VideoInfo] : YouTube metadata
//   - [JobProgress] : one poll of a playlist packaging job
//   - [PasswordOptions], [QRConfig] : generator requests with client-side validation
//
// 2. UI state: [Selection] holds the range and toggled set of playlist videos queued for download.
//
// 3. Persisted records: [PlaylistJob] and [Conversion] keep local history in SQLite.
// Both implement [Model]; the Repository[T] interface defines CRUD access for them.
package models
