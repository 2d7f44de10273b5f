package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/charmbracelet/log"
)

// Status labels shown for client-side transitions.
const (
	StatusInitializing   = "Initializing..."
	StatusReady          = "Ready to download"
	DefaultJobError      = "An error occurred during download."
	PollFailedMessage    = "Failed to get download progress. Please try again."
	DefaultPollInterval  = 2 * time.Second
	DefaultMaxPollErrors = 5
)

// PollerOpts configures a [Poller]. Zero values select the defaults.
type PollerOpts struct {
	Interval   time.Duration         // Delay between polls (default 2s)
	MaxRetries int                   // Consecutive poll failures tolerated (default 5)
	Progress   chan<- ProgressUpdate // Optional non-blocking transition feed
	Recorder   JobRecorder           // Optional history sink
	Logger     *log.Logger
}

// Snapshot is an immutable copy of poller state for renderers and recorders.
type Snapshot struct {
	Generation uint64 // Increments on every Start
	State      models.JobState
	SourceURL  string
	JobID      string // Backend handle as issued, kept after the poller discards it
	VideoIDs   []string
	Status     string
	Current    int
	Total      int
	Artifact   string
	Error      string
	Retries    int
}

// Percent returns completion in the range 0-100.
func (s Snapshot) Percent() int {
	if s.Total <= 0 {
		return 0
	}
	return min(100, s.Current*100/s.Total)
}

// Poller tracks one asynchronous playlist job at a time.
//
// States move Idle → Starting → Polling → Complete or Failed. A new Start supersedes
// the previous job: its loop is cancelled and late responses for its handle are dropped.
// Polls never overlap.
type Poller struct {
	client JobClient
	opts   PollerOpts
	logger *log.Logger

	tickMu sync.Mutex // serializes polls

	mu         sync.Mutex
	generation uint64
	state      models.JobState
	sourceURL  string
	jobID      string
	handle     string
	videoIDs   []string
	status     string
	current    int
	total      int
	artifact   string
	errMsg     string
	retries    int
	halted     bool
	cancel     context.CancelFunc
}

// NewPoller creates an idle poller backed by client.
func NewPoller(client JobClient, opts PollerOpts) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultPollInterval
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxPollErrors
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Poller{client: client, opts: opts, logger: logger, state: models.JobIdle}
}

// Interval is the delay between polls.
func (p *Poller) Interval() time.Duration { return p.opts.Interval }

// Start submits a new job for videoIDs and moves to Polling.
//
// Validation failures leave the current job untouched. A failed backend call
// moves to Failed and returns the error.
func (p *Poller) Start(ctx context.Context, sourceURL string, videoIDs []string) (string, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return "", shared.Invalid("url", "Please enter a YouTube URL.")
	}
	if len(videoIDs) == 0 {
		return "", shared.Invalid("", "Please select at least one video to download.")
	}
	if len(videoIDs) > models.MaxPlaylistSelection {
		return "", shared.Invalid("", fmt.Sprintf("You can download at most %d videos at a time.", models.MaxPlaylistSelection))
	}

	p.mu.Lock()
	p.stopLocked()
	p.generation++
	gen := p.generation
	p.state = models.JobStarting
	p.sourceURL = sourceURL
	p.jobID, p.handle = "", ""
	p.videoIDs = slices.Clone(videoIDs)
	p.status = StatusInitializing
	p.current, p.total = 0, len(videoIDs)
	p.artifact, p.errMsg = "", ""
	p.retries = 0
	p.halted = false
	snap := p.snapshotLocked()
	p.mu.Unlock()
	p.emit(snap)

	handle, err := p.client.StartPlaylistDownload(ctx, sourceURL, videoIDs)

	p.mu.Lock()
	if gen != p.generation {
		p.mu.Unlock()
		return "", ErrSuperseded
	}
	if err != nil {
		p.failLocked(errorText(err))
		snap = p.snapshotLocked()
		p.mu.Unlock()
		p.emit(snap)
		return "", err
	}
	p.state = models.JobPolling
	p.jobID, p.handle = handle, handle
	snap = p.snapshotLocked()
	p.mu.Unlock()

	p.logger.Info("playlist job started", "job_id", handle, "videos", len(videoIDs))
	p.emit(snap)
	return handle, nil
}

// Tick performs exactly one poll when the poller is active.
//
// A transient failure below the retry ceiling returns an error wrapping
// [shared.ErrTransientPoll] and leaves the state in Polling.
func (p *Poller) Tick(ctx context.Context) error {
	p.tickMu.Lock()
	defer p.tickMu.Unlock()

	p.mu.Lock()
	if p.state != models.JobPolling || p.halted {
		p.mu.Unlock()
		return nil
	}
	gen, handle := p.generation, p.handle
	p.mu.Unlock()

	progress, err := p.client.PlaylistProgress(ctx, handle)

	p.mu.Lock()
	if gen != p.generation || p.state != models.JobPolling || p.halted {
		p.mu.Unlock()
		return nil
	}

	if err != nil {
		if ctx.Err() != nil {
			p.mu.Unlock()
			return ctx.Err()
		}
		p.retries++
		if p.retries <= p.opts.MaxRetries {
			retries := p.retries
			p.mu.Unlock()
			p.logger.Warn("progress poll failed", "job_id", handle, "attempt", retries, "err", err)
			return fmt.Errorf("%w: %v", shared.ErrTransientPoll, err)
		}
		p.failLocked(PollFailedMessage)
		snap := p.snapshotLocked()
		p.mu.Unlock()
		p.logger.Error("giving up on progress polling", "job_id", handle, "err", err)
		p.emit(snap)
		return nil
	}

	p.retries = 0
	switch progress.Status {
	case models.StatusComplete:
		total := progress.Total
		if total == 0 {
			total = p.total
		}
		p.artifact = progress.ZipName
		p.current, p.total = total, total
		p.state = models.JobComplete
		p.status = StatusReady
		p.discardLocked()
	case models.StatusError:
		msg := progress.Message
		if msg == "" {
			msg = DefaultJobError
		}
		p.failLocked(msg)
	default:
		p.status = progress.Status
		p.current, p.total = progress.Current, progress.Total
	}
	snap := p.snapshotLocked()
	p.mu.Unlock()

	if snap.State.Terminal() {
		p.logger.Info("playlist job finished", "job_id", snap.JobID, "state", snap.State, "artifact", snap.Artifact)
	}
	p.emit(snap)
	return nil
}

// Run polls on a fixed interval until the job is terminal, Stop is called, or ctx ends.
// It returns ctx.Err() only when the parent context ended the loop.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.state != models.JobPolling || p.halted {
		p.mu.Unlock()
		return nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.mu.Unlock()
	defer cancel()

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.Tick(loopCtx); err != nil && !errors.Is(err, shared.ErrTransientPoll) {
				return ctx.Err()
			}
			if !p.Active() {
				return nil
			}
		}
	}
}

// Stop halts polling. It is safe to call any number of times.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.halted = true
}

// Active reports whether polls are still scheduled.
func (p *Poller) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == models.JobPolling && !p.halted
}

// Snapshot returns a copy of the current state.
func (p *Poller) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

// DownloadURL returns the browser link for the finished archive.
func (p *Poller) DownloadURL() (string, error) {
	p.mu.Lock()
	artifact := p.artifact
	p.mu.Unlock()

	if artifact == "" {
		return "", shared.ErrNoArtifact
	}
	return p.client.ZipURL(artifact), nil
}

func (p *Poller) failLocked(msg string) {
	p.state = models.JobFailed
	p.errMsg = msg
	p.status = msg
	p.discardLocked()
}

// discardLocked releases the handle and the loop once a job is terminal.
func (p *Poller) discardLocked() {
	p.handle = ""
	p.stopLocked()
}

func (p *Poller) stopLocked() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

func (p *Poller) snapshotLocked() Snapshot {
	return Snapshot{
		Generation: p.generation,
		State:      p.state,
		SourceURL:  p.sourceURL,
		JobID:      p.jobID,
		VideoIDs:   slices.Clone(p.videoIDs),
		Status:     p.status,
		Current:    p.current,
		Total:      p.total,
		Artifact:   p.artifact,
		Error:      p.errMsg,
		Retries:    p.retries,
	}
}

func (p *Poller) emit(s Snapshot) {
	sendProgress(p.opts.Progress, jobUpdate(s))
	if p.opts.Recorder == nil {
		return
	}
	if err := p.opts.Recorder.Record(s); err != nil {
		p.logger.Warn("failed to record job state", "job_id", s.JobID, "err", err)
	}
}

// errorText prefers the backend's own message for request errors.
func errorText(err error) string {
	var verr *shared.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
