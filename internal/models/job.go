package models

import (
	"fmt"
	"strings"
	"time"
)

// PlaylistJob is the persisted history of one playlist download started from this client.
type PlaylistJob struct {
	record
	sourceURL    string
	jobID        string
	state        JobState
	status       string
	current      int
	total        int
	videoIDs     []string
	artifact     string
	errorMessage string
}

// NewPlaylistJob creates an unsaved job in the starting state.
func NewPlaylistJob(sequence int, sourceURL string, videoIDs []string) *PlaylistJob {
	return &PlaylistJob{
		record:    newRecord(sequence),
		sourceURL: sourceURL,
		state:     JobStarting,
		videoIDs:  videoIDs,
		total:     len(videoIDs),
	}
}

func (j *PlaylistJob) SourceURL() string    { return j.sourceURL }
func (j *PlaylistJob) JobID() string        { return j.jobID }
func (j *PlaylistJob) State() JobState      { return j.state }
func (j *PlaylistJob) Status() string       { return j.status }
func (j *PlaylistJob) Current() int         { return j.current }
func (j *PlaylistJob) Total() int           { return j.total }
func (j *PlaylistJob) VideoIDs() []string   { return j.videoIDs }
func (j *PlaylistJob) Artifact() string     { return j.artifact }
func (j *PlaylistJob) ErrorMessage() string { return j.errorMessage }

func (j *PlaylistJob) SetJobID(id string)       { j.jobID = id }
func (j *PlaylistJob) SetArtifact(name string)  { j.artifact = name }
func (j *PlaylistJob) SetErrorMessage(m string) { j.errorMessage = m }
func (j *PlaylistJob) SetVideoIDs(ids []string) { j.videoIDs = ids }

func (j *PlaylistJob) SetProgress(current, total int) {
	j.current, j.total = current, total
}

// SetState records a transition along with the status label shown to the user.
func (j *PlaylistJob) SetState(state JobState, status string) {
	j.state = state
	j.status = status
}

// EncodeVideoIDs joins ids for storage in a single column.
func EncodeVideoIDs(ids []string) string { return strings.Join(ids, ",") }

// DecodeVideoIDs splits a stored id column. An empty column yields nil.
func DecodeVideoIDs(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Validate checks required fields and state consistency.
func (j *PlaylistJob) Validate() error {
	if j.ID() == "" {
		return fmt.Errorf("ID is required")
	}
	if strings.TrimSpace(j.sourceURL) == "" {
		return fmt.Errorf("source URL is required")
	}
	switch j.state {
	case JobIdle, JobStarting, JobPolling, JobComplete, JobFailed:
	default:
		return fmt.Errorf("unknown job state %q", j.state)
	}
	if j.current < 0 || j.total < 0 {
		return fmt.Errorf("progress counters cannot be negative")
	}
	return nil
}

// Conversion records a file produced by a one-shot tool call.
type Conversion struct {
	record
	tool       string
	inputCount int
	outputPath string
	bytes      int64
}

// NewConversion creates an unsaved conversion record.
func NewConversion(sequence int, tool string, inputCount int, outputPath string, size int64) *Conversion {
	return &Conversion{
		record:     newRecord(sequence),
		tool:       tool,
		inputCount: inputCount,
		outputPath: outputPath,
		bytes:      size,
	}
}

func (c *Conversion) Tool() string       { return c.tool }
func (c *Conversion) InputCount() int    { return c.inputCount }
func (c *Conversion) OutputPath() string { return c.outputPath }
func (c *Conversion) Bytes() int64       { return c.bytes }

// SetOutputPath records a new location for the produced file.
func (c *Conversion) SetOutputPath(path string) { c.outputPath = path }

// Validate checks required fields.
func (c *Conversion) Validate() error {
	if c.ID() == "" {
		return fmt.Errorf("ID is required")
	}
	if c.tool == "" {
		return fmt.Errorf("tool is required")
	}
	if c.outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	return nil
}

// Age returns how long ago the record was created, truncated to seconds.
func Age(m Model, now time.Time) time.Duration {
	return now.Sub(m.CreatedAt()).Truncate(time.Second)
}
