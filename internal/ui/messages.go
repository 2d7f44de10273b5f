package ui

import (
	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/tasks"
)

type playlistFetchedMsg struct {
	url  string
	info *models.PlaylistInfo
	err  error
}

type jobStartedMsg struct {
	snapshot tasks.Snapshot
	err      error
}

// pollTickMsg asks for one poll of the given generation. Ticks for older
// generations are dropped.
type pollTickMsg struct {
	generation uint64
}

type polledMsg struct {
	snapshot tasks.Snapshot
	err      error
}

type savedMsg struct {
	path string
	err  error
}
