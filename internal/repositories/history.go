package repositories

import (
	"sync"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/tasks"
)

// JobHistory persists poller transitions. It implements [tasks.JobRecorder].
//
// The first snapshot of each poller generation creates a row; later ones update it.
type JobHistory struct {
	repo *JobRepository

	mu      sync.Mutex
	current *models.PlaylistJob
	gen     uint64
}

// NewJobHistory records into repo.
func NewJobHistory(repo *JobRepository) *JobHistory {
	return &JobHistory{repo: repo}
}

// Record saves s.
func (h *JobHistory) Record(s tasks.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.current == nil || h.gen != s.Generation {
		job := models.NewPlaylistJob(0, s.SourceURL, s.VideoIDs)
		apply(job, s)
		if err := h.repo.Create(job); err != nil {
			return err
		}
		h.current, h.gen = job, s.Generation
		return nil
	}

	apply(h.current, s)
	return h.repo.Update(h.current)
}

// Last returns the job written for the most recent generation, if any.
func (h *JobHistory) Last() *models.PlaylistJob {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func apply(job *models.PlaylistJob, s tasks.Snapshot) {
	job.SetJobID(s.JobID)
	job.SetState(s.State, s.Status)
	job.SetProgress(s.Current, s.Total)
	job.SetVideoIDs(s.VideoIDs)
	job.SetArtifact(s.Artifact)
	job.SetErrorMessage(s.Error)
}
