// Package services is the HTTP layer between ptb and the tools backend.
//
// # Raw client
//
// [APIService] issues GET, JSON POST and multipart POST requests against a base URL
// supplied by the caller. It never interprets status codes itself; [APIResponse.Err],
// [APIResponse.Decode] and [APIResponse.File] do that for typed callers, while the
// `api get|post` commands print raw responses.
//
// # Typed tools
//
// [Tools] wraps one backend endpoint per method (PDF, image conversion, passwords,
// QR codes, mocking text, YouTube). Each method validates its inputs first and
// returns a [shared.ValidationError] without touching the network when they are bad.
//
// # Error Handling
//
// Errors are classified by sentinel:
//   - [shared.ErrValidation] : bad input, nothing was sent
//   - [shared.ErrNetwork] : transport failure or unreadable body
//   - [shared.ErrAPIRequest] : non-2xx status, as a [*RequestError] carrying the backend's detail message
//
// # Files
//
// Binary responses become a [File]. Its name comes from Content-Disposition,
// preferring the RFC 5987 filename* form, and otherwise from a per-tool default.
package services
