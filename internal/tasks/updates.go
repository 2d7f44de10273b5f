package tasks

import (
	"fmt"

	"github.com/awesamdood/ptb/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	JobStart Phase = iota
	JobPoll
	JobComplete
	JobFailed
	BatchItem
	PreviewRender
)

func (p Phase) String() string {
	switch p {
	case JobStart:
		return "job_start"
	case JobPoll:
		return "job_poll"
	case JobComplete:
		return "job_complete"
	case JobFailed:
		return "job_failed"
	case BatchItem:
		return "batch_item"
	case PreviewRender:
		return "preview_render"
	default:
		return ""
	}
}

// jobUpdate maps a poller snapshot to the phase of its state.
func jobUpdate(s Snapshot) ProgressUpdate {
	phase := JobPoll
	switch s.State {
	case models.JobStarting:
		phase = JobStart
	case models.JobComplete:
		phase = JobComplete
	case models.JobFailed:
		phase = JobFailed
	}
	return ProgressUpdate{
		Phase:   phase,
		Step:    s.Current,
		Total:   s.Total,
		Message: s.Status,
		Data:    s,
	}
}

func batchDoneUpdate(step, total, index int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ item %d", step, total, index+1),
	}
}

func batchFailedUpdate(step, total, index int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BatchItem,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ item %d: %v", step, total, index+1, err),
	}
}

// PreviewUpdate reports a regenerated preview written to path.
func PreviewUpdate(generation int, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PreviewRender,
		Step:    generation,
		Message: fmt.Sprintf("Preview updated: %s", path),
		Data:    path,
	}
}
