package ui

import (
	"fmt"

	"github.com/awesamdood/ptb/internal/formatter"
	"github.com/awesamdood/ptb/internal/models"
	"github.com/charmbracelet/bubbles/list"
)

var _ list.Item = videoItem{}

// videoItem wraps [models.Video] to implement [list.Item]. It reads membership
// from the shared selection so toggles show up without rebuilding the list.
type videoItem struct {
	video models.Video
	pos   int // 1-based playlist position
	sel   *models.Selection
}

func (i videoItem) FilterValue() string { return i.video.Title }

func (i videoItem) Title() string {
	box := "[ ]"
	if i.sel.IsSelected(i.video.ID) {
		box = "[x]"
	}
	return fmt.Sprintf("%s %d. %s", box, i.pos, i.video.Title)
}

func (i videoItem) Description() string {
	desc := formatter.WatchURL(i.video.ID)
	if start, end := i.sel.Range(); i.pos >= start && i.pos <= end {
		desc += " • in range"
	}
	return desc
}

func videoItems(videos []models.Video, sel *models.Selection) []list.Item {
	items := make([]list.Item, len(videos))
	for i, v := range videos {
		items[i] = videoItem{video: v, pos: i + 1, sel: sel}
	}
	return items
}
