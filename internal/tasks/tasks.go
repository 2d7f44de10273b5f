package tasks

import (
	"context"
	"fmt"

	"github.com/awesamdood/ptb/internal/models"
)

// ErrSuperseded is returned by [Poller.Start] when a newer Start call replaced the job
// before the backend answered.
var ErrSuperseded = fmt.Errorf("job superseded")

// JobClient is the subset of the tools backend used by the poller.
// services.Tools satisfies it.
type JobClient interface {
	StartPlaylistDownload(ctx context.Context, playlistURL string, videoIDs []string) (string, error)
	PlaylistProgress(ctx context.Context, jobID string) (*models.JobProgress, error)
	ZipURL(zipName string) string
}

// JobRecorder receives every state transition of a poller, for example to keep history.
// Errors are logged and otherwise ignored so that persistence never blocks a download.
type JobRecorder interface {
	Record(s Snapshot) error
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}
