package models

import "strings"

// MaxPlaylistSelection caps how many videos a single playlist job may request.
const MaxPlaylistSelection = 50

// DefaultSelectionSize is the initial range length offered for a freshly loaded playlist.
const DefaultSelectionSize = 10

// Video is one entry of a playlist listing.
type Video struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// PlaylistInfo is the response of the playlist-info endpoint.
type PlaylistInfo struct {
	Title  string  `json:"title"`
	Videos []Video `json:"videos"`
}

// VideoInfo is the response of the single video info endpoint.
type VideoInfo struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
}

// MediaFormat selects the container requested from the single video download endpoint.
type MediaFormat string

const (
	FormatMP3 MediaFormat = "mp3"
	FormatMP4 MediaFormat = "mp4"
)

// ParseMediaFormat accepts mp3 or mp4 in any case.
func ParseMediaFormat(s string) (MediaFormat, bool) {
	switch f := MediaFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMP3, FormatMP4:
		return f, true
	default:
		return "", false
	}
}

// Backend job status strings reported by the progress endpoint.
const (
	StatusInitializing = "initializing"
	StatusProcessing   = "processing"
	StatusZipping      = "zipping"
	StatusComplete     = "complete"
	StatusError        = "error"
)

// JobProgress is one snapshot returned by the playlist progress endpoint.
// Absent counters decode to zero.
type JobProgress struct {
	Status  string `json:"status"`
	Current int    `json:"current"`
	Total   int    `json:"total"`
	ZipName string `json:"zip_name,omitempty"`
	Message string `json:"message,omitempty"`
}

// Terminal reports whether the backend considers the job finished.
func (p JobProgress) Terminal() bool {
	return p.Status == StatusComplete || p.Status == StatusError
}

// JobState is the client-side lifecycle of a playlist job.
type JobState string

const (
	JobIdle     JobState = "idle"
	JobStarting JobState = "starting"
	JobPolling  JobState = "polling"
	JobComplete JobState = "complete"
	JobFailed   JobState = "failed"
)

// Terminal reports whether no further polling will happen in this state.
func (s JobState) Terminal() bool {
	return s == JobComplete || s == JobFailed
}

func (s JobState) String() string { return string(s) }
