package models

import (
	"fmt"
	"slices"
	"testing"
)

func videos(n int) []Video {
	vs := make([]Video, n)
	for i := range vs {
		vs[i] = Video{ID: fmt.Sprintf("v%d", i+1), Title: fmt.Sprintf("Video %d", i+1)}
	}
	return vs
}

func TestSelection(t *testing.T) {
	t.Run("DefaultRange", func(t *testing.T) {
		tests := []struct {
			n        int
			wantEnd  int
			wantMax  int
			selected int
		}{
			{n: 3, wantEnd: 3, wantMax: 3, selected: 3},
			{n: 10, wantEnd: 10, wantMax: 10, selected: 10},
			{n: 30, wantEnd: 10, wantMax: 30, selected: 10},
			{n: 80, wantEnd: 10, wantMax: 50, selected: 10},
		}

		for _, tt := range tests {
			s := NewSelection(videos(tt.n))
			start, end := s.Range()
			if start != 1 || end != tt.wantEnd {
				t.Errorf("n=%d: expected range [1,%d], got [%d,%d]", tt.n, tt.wantEnd, start, end)
			}
			if s.Max() != tt.wantMax {
				t.Errorf("n=%d: expected max %d, got %d", tt.n, tt.wantMax, s.Max())
			}
			if s.Len() != tt.selected {
				t.Errorf("n=%d: expected %d selected, got %d", tt.n, tt.selected, s.Len())
			}
		}
	})

	t.Run("EmptyPlaylist", func(t *testing.T) {
		s := NewSelection(nil)
		start, end := s.Range()
		if start != 0 || end != 0 {
			t.Errorf("expected zero range, got [%d,%d]", start, end)
		}
		s.SetRange(1, 5)
		if s.Len() != 0 {
			t.Errorf("expected nothing selected, got %d", s.Len())
		}
	})

	t.Run("SetRangeSelectsExactPositions", func(t *testing.T) {
		s := NewSelection(videos(12))
		s.SetRange(3, 5)

		want := []string{"v3", "v4", "v5"}
		if got := s.Selected(); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("SetRangeClampsAndSwaps", func(t *testing.T) {
		s := NewSelection(videos(60))

		s.SetRange(0, 100)
		if start, end := s.Range(); start != 1 || end != 50 {
			t.Errorf("expected [1,50], got [%d,%d]", start, end)
		}
		if s.Len() != 50 {
			t.Errorf("expected 50 selected, got %d", s.Len())
		}

		s.SetRange(8, 4)
		if start, end := s.Range(); start != 4 || end != 8 {
			t.Errorf("expected [4,8], got [%d,%d]", start, end)
		}
	})

	t.Run("ToggleLeavesRange", func(t *testing.T) {
		s := NewSelection(videos(12))
		s.SetRange(3, 5)

		if s.Toggle("v4") {
			t.Error("expected v4 to be deselected")
		}
		if !s.Toggle("v9") {
			t.Error("expected v9 to be selected")
		}

		want := []string{"v3", "v5", "v9"}
		if got := s.Selected(); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		if start, end := s.Range(); start != 3 || end != 5 {
			t.Errorf("toggle moved range to [%d,%d]", start, end)
		}
	})

	t.Run("SetRangeDiscardsToggles", func(t *testing.T) {
		s := NewSelection(videos(12))
		s.Toggle("v11")
		s.Toggle("v1")
		s.SetRange(2, 3)

		want := []string{"v2", "v3"}
		if got := s.Selected(); !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("ToggleUnknownID", func(t *testing.T) {
		s := NewSelection(videos(2))
		if s.Toggle("missing") {
			t.Error("unknown id should not become selected")
		}
		if s.Len() != 2 {
			t.Errorf("expected 2 selected, got %d", s.Len())
		}
	})

	t.Run("TogglesAreNotCapped", func(t *testing.T) {
		s := NewSelection(videos(60))
		s.SetRange(1, 50)
		for _, v := range s.Videos()[50:] {
			s.Toggle(v.ID)
		}
		if s.Len() != 60 {
			t.Errorf("expected 60 selected, got %d", s.Len())
		}
	})

	t.Run("DuplicateIDsSelectedOnce", func(t *testing.T) {
		vs := append(videos(3), Video{ID: "v2", Title: "Video 2 again"})
		s := NewSelection(vs)

		got := s.Selected()
		if want := []string{"v1", "v2", "v3"}; !slices.Equal(got, want) {
			t.Errorf("expected %v, got %v", want, got)
		}
		if len(got) != s.Len() {
			t.Errorf("Selected has %d ids but Len is %d", len(got), s.Len())
		}
	})
}
