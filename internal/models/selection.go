package models

// Selection tracks which videos of a playlist are queued for download.
//
// The range is 1-based and inclusive. Setting it recomputes the selected set;
// toggles adjust the set afterwards without moving the range. The selection
// itself does not cap toggled items; job start re-checks the limit.
type Selection struct {
	videos   []Video
	known    map[string]struct{}
	selected map[string]struct{}
	start    int
	end      int
}

// NewSelection builds a selection over videos with the range [1, min(N, 10)].
func NewSelection(videos []Video) *Selection {
	s := &Selection{
		videos:   videos,
		known:    make(map[string]struct{}, len(videos)),
		selected: make(map[string]struct{}),
	}
	for _, v := range videos {
		s.known[v.ID] = struct{}{}
	}
	if len(videos) > 0 {
		s.SetRange(1, min(len(videos), DefaultSelectionSize))
	}
	return s
}

// Videos returns the playlist in order.
func (s *Selection) Videos() []Video { return s.videos }

// Max is the largest valid range end, min(N, 50).
func (s *Selection) Max() int { return min(len(s.videos), MaxPlaylistSelection) }

// Range returns the current bounds. Both are zero for an empty playlist.
func (s *Selection) Range() (start, end int) { return s.start, s.end }

// SetRange clamps start and end into [1, Max()], swapping them when inverted,
// and replaces the selected set with exactly those positions.
func (s *Selection) SetRange(start, end int) {
	hi := s.Max()
	if hi == 0 {
		return
	}
	if start > end {
		start, end = end, start
	}
	start = clamp(start, 1, hi)
	end = clamp(end, 1, hi)

	s.start, s.end = start, end
	clear(s.selected)
	for _, v := range s.videos[start-1 : end] {
		s.selected[v.ID] = struct{}{}
	}
}

// Toggle flips membership of id and reports whether it is now selected.
// Unknown ids are ignored.
func (s *Selection) Toggle(id string) bool {
	if _, ok := s.known[id]; !ok {
		return false
	}
	if _, ok := s.selected[id]; ok {
		delete(s.selected, id)
		return false
	}
	s.selected[id] = struct{}{}
	return true
}

// IsSelected reports whether id is in the selected set.
func (s *Selection) IsSelected(id string) bool {
	_, ok := s.selected[id]
	return ok
}

// Len is the size of the selected set.
func (s *Selection) Len() int { return len(s.selected) }

// Selected returns the selected ids in playlist order. An id listed more than
// once in the playlist appears only at its first position.
func (s *Selection) Selected() []string {
	ids := make([]string, 0, len(s.selected))
	seen := make(map[string]struct{}, len(s.selected))
	for _, v := range s.videos {
		if _, ok := s.selected[v.ID]; !ok {
			continue
		}
		if _, dup := seen[v.ID]; dup {
			continue
		}
		seen[v.ID] = struct{}{}
		ids = append(ids, v.ID)
	}
	return ids
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
