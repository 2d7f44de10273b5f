// Package tasks holds the client-side operations that outlive a single request.
//
// # Playlist jobs
//
// [Poller] is an explicit state machine for the asynchronous playlist download:
//
//  1. [Poller.Start] validates the selection (1 to 50 videos), submits the job and
//     moves to Polling with progress (0, N) and an "Initializing..." label.
//  2. [Poller.Tick] performs one poll. "complete" records the zip name and finishes,
//     "error" fails with the backend message, anything else updates the label and counters.
//  3. Poll failures are tolerated up to five in a row; the sixth fails the job.
//  4. [Poller.Run] drives Tick on a fixed interval; [Poller.Stop] halts it on teardown.
//
// Starting a new job supersedes the old one and late responses for the old handle are ignored.
//
// # Progress Reporting
//
// Transitions are published as [ProgressUpdate] values on an optional channel.
// Updates use select with default to prevent blocking. An optional [JobRecorder]
// receives the same transitions for history.
//
// # Debounced previews
//
// [Debouncer] delivers only the last value of a burst of triggers after a quiet period.
// Its [Scheduler] is injectable so tests can drive time by hand.
//
// # Batches
//
// [RunBatch] fans repeated backend calls out over a small worker pool behind a
// golang.org/x/time/rate limiter, as used by `ptb password generate --count`.
package tasks
