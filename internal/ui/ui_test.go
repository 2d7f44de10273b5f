package ui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/services"
	"github.com/awesamdood/ptb/internal/tasks"
	th "github.com/awesamdood/ptb/internal/testing"
	tea "github.com/charmbracelet/bubbletea"
)

// fakeBackend serves both the TUI's direct calls and the poller's job calls.
type fakeBackend struct {
	mu       sync.Mutex
	info     *models.PlaylistInfo
	infoErr  error
	startErr error
	started  []string
	progress []*models.JobProgress
	polls    int
}

func (f *fakeBackend) PlaylistInfo(ctx context.Context, url string) (*models.PlaylistInfo, error) {
	return f.info, f.infoErr
}

func (f *fakeBackend) DownloadZip(ctx context.Context, name string) (*services.File, error) {
	return &services.File{Name: name, ContentType: "application/zip", Data: []byte("PK")}, nil
}

func (f *fakeBackend) StartPlaylistDownload(ctx context.Context, url string, ids []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = ids
	return "job-1", f.startErr
}

func (f *fakeBackend) PlaylistProgress(ctx context.Context, jobID string) (*models.JobProgress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := f.progress[min(f.polls, len(f.progress)-1)]
	f.polls++
	return p, nil
}

func (f *fakeBackend) ZipURL(name string) string {
	return "http://backend/api/youtube/download-zip/?filename=" + name
}

func newTestModel(t *testing.T, backend *fakeBackend, opts Options) (*Model, *tasks.Poller) {
	t.Helper()
	if backend.info == nil {
		backend.info = &models.PlaylistInfo{
			Title: "Mix",
			Videos: []models.Video{
				{ID: "aaa", Title: "One"},
				{ID: "bbb", Title: "Two"},
				{ID: "ccc", Title: "Three"},
			},
		}
	}
	poller := tasks.NewPoller(backend, tasks.PollerOpts{Interval: time.Millisecond})
	m := NewModel(context.Background(), backend, poller, opts)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, poller
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

// send delivers msg and runs the returned command once, feeding its message back.
func send(m *Model, msg tea.Msg) tea.Msg {
	_, cmd := m.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

// loadPlaylist types a URL and feeds the fetch result back into the model.
func loadPlaylist(t *testing.T, m *Model) {
	t.Helper()
	m.input.SetValue("https://youtube.com/playlist?list=PL1")
	_, cmd := m.Update(keyEnter)
	if cmd == nil {
		t.Fatal("expected fetch command")
	}
	m.Update(m.fetchPlaylist("https://youtube.com/playlist?list=PL1")())
	if m.State() != SelectView {
		t.Fatalf("expected SelectView, got %v (err %v)", m.State(), m.err)
	}
}

func TestURLView(t *testing.T) {
	t.Run("empty URL shows notice", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeBackend{}, Options{})

		m.Update(keyEnter)
		if m.State() != URLView {
			t.Errorf("expected to stay on URLView")
		}
		if !strings.Contains(m.View(), "Please enter a YouTube URL.") {
			t.Errorf("missing notice in view: %s", m.View())
		}
	})

	t.Run("fetch error stays on URL view", func(t *testing.T) {
		backend := &fakeBackend{infoErr: &services.RequestError{StatusCode: 400, Message: "Invalid playlist URL"}}
		m, _ := newTestModel(t, backend, Options{})

		m.Update(playlistFetchedMsg{url: "x", err: backend.infoErr})
		if m.State() != URLView {
			t.Errorf("expected URLView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "Invalid playlist URL") {
			t.Errorf("view should show backend message: %s", m.View())
		}
	})

	t.Run("prefilled URL fetches on init", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeBackend{}, Options{URL: "https://youtube.com/playlist?list=PL1"})

		if m.Init() == nil {
			t.Fatal("expected init command")
		}
		if !m.loading {
			t.Error("expected loading state")
		}
	})

	t.Run("empty playlist", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeBackend{}, Options{})

		m.Update(playlistFetchedMsg{url: "x", info: &models.PlaylistInfo{Title: "Empty"}})
		if m.State() != URLView {
			t.Errorf("expected URLView, got %v", m.State())
		}
	})
}

func TestSelectView(t *testing.T) {
	t.Run("default range selects everything", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeBackend{}, Options{})
		loadPlaylist(t, m)

		if got := strings.Join(m.selection.Selected(), ","); got != "aaa,bbb,ccc" {
			t.Errorf("unexpected default selection %q", got)
		}
		if !strings.Contains(m.videos.Title, "3 selected (range 1-3)") {
			t.Errorf("unexpected title %q", m.videos.Title)
		}
	})

	t.Run("range keys and toggle", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeBackend{}, Options{})
		loadPlaylist(t, m)

		m.Update(keyDown)
		m.Update(keyRunes("s"))
		if start, end := m.selection.Range(); start != 2 || end != 3 {
			t.Errorf("expected range 2-3, got %d-%d", start, end)
		}

		m.Update(keySpace)
		if got := strings.Join(m.selection.Selected(), ","); got != "ccc" {
			t.Errorf("expected toggle to drop bbb, got %q", got)
		}

		m.Update(keyRunes("e"))
		if start, end := m.selection.Range(); start != 2 || end != 2 {
			t.Errorf("expected range 2-2, got %d-%d", start, end)
		}
		if got := strings.Join(m.selection.Selected(), ","); got != "bbb" {
			t.Errorf("setting the range should discard toggles, got %q", got)
		}
	})

	t.Run("empty selection is rejected before any request", func(t *testing.T) {
		backend := &fakeBackend{}
		m, _ := newTestModel(t, backend, Options{})
		loadPlaylist(t, m)

		for _, id := range []string{"aaa", "bbb", "ccc"} {
			m.selection.Toggle(id)
		}

		m.Update(send(m, keyEnter))
		if m.State() != SelectView {
			t.Errorf("expected SelectView, got %v", m.State())
		}
		if backend.started != nil {
			t.Error("no job should be submitted")
		}
		if !strings.Contains(m.View(), "Please select at least one video to download.") {
			t.Errorf("missing validation notice: %s", m.View())
		}
	})

	t.Run("esc returns to URL view", func(t *testing.T) {
		m, _ := newTestModel(t, &fakeBackend{}, Options{})
		loadPlaylist(t, m)

		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.State() != URLView {
			t.Errorf("expected URLView, got %v", m.State())
		}
	})
}

func TestProgressFlow(t *testing.T) {
	complete := &models.JobProgress{Status: models.StatusComplete, ZipName: "mix.zip"}

	t.Run("polls until complete then saves", func(t *testing.T) {
		backend := &fakeBackend{progress: []*models.JobProgress{
			{Status: "Downloading 1 of 3", Current: 1, Total: 3},
			complete,
		}}
		dir := t.TempDir()
		var opened string
		m, poller := newTestModel(t, backend, Options{
			DownloadDir: dir,
			Open:        func(u string) error { opened = u; return nil },
		})
		loadPlaylist(t, m)

		m.Update(send(m, keyEnter))
		if m.State() != ProgressView {
			t.Fatalf("expected ProgressView, got %v", m.State())
		}
		if got := strings.Join(backend.started, ","); got != "aaa,bbb,ccc" {
			t.Errorf("unexpected submitted ids %q", got)
		}

		gen := m.snapshot.Generation
		m.Update(send(m, pollTickMsg{generation: gen}))
		if m.State() != ProgressView || m.snapshot.Current != 1 {
			t.Fatalf("expected progress 1/3, got %v %d", m.State(), m.snapshot.Current)
		}
		if !strings.Contains(m.View(), "Downloading 1 of 3") {
			t.Errorf("progress view missing status label: %s", m.View())
		}
		if view := m.View(); !strings.Contains(view, "33%") || !strings.Contains(view, "1/3") {
			t.Errorf("progress view missing bar percentage or counts: %s", view)
		}

		m.Update(send(m, pollTickMsg{generation: gen}))
		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.State())
		}
		if poller.Active() {
			t.Error("poller should be idle after completion")
		}
		if !strings.Contains(m.View(), "Ready to download") {
			t.Errorf("result view missing label: %s", m.View())
		}

		m.Update(keyRunes("o"))
		if opened != "http://backend/api/youtube/download-zip/?filename=mix.zip" {
			t.Errorf("unexpected opened URL %q", opened)
		}

		m.Update(send(m, keyRunes("d")))
		if m.saved != filepath.Join(dir, "mix.zip") {
			t.Errorf("unexpected saved path %q (err %v)", m.saved, m.err)
		}
		th.AssertFileExists(t, m.saved)
	})

	t.Run("stale ticks are ignored", func(t *testing.T) {
		backend := &fakeBackend{progress: []*models.JobProgress{complete}}
		m, _ := newTestModel(t, backend, Options{})
		loadPlaylist(t, m)
		m.Update(send(m, keyEnter))

		_, cmd := m.Update(pollTickMsg{generation: m.snapshot.Generation + 1})
		if cmd != nil {
			t.Error("tick for another generation should not poll")
		}
		if backend.polls != 0 {
			t.Errorf("expected no polls, got %d", backend.polls)
		}
	})

	t.Run("start failure shows retry", func(t *testing.T) {
		backend := &fakeBackend{startErr: errors.New("backend down")}
		m, _ := newTestModel(t, backend, Options{})
		loadPlaylist(t, m)

		m.Update(send(m, keyEnter))
		if m.State() != ResultView {
			t.Fatalf("expected ResultView, got %v", m.State())
		}
		if !strings.Contains(m.View(), "backend down") {
			t.Errorf("failure view missing message: %s", m.View())
		}

		m.Update(keyRunes("r"))
		if m.State() != SelectView {
			t.Errorf("retry should return to selection, got %v", m.State())
		}
	})

	t.Run("quit stops the poller", func(t *testing.T) {
		backend := &fakeBackend{progress: []*models.JobProgress{{Status: models.StatusProcessing}}}
		m, poller := newTestModel(t, backend, Options{})
		loadPlaylist(t, m)
		m.Update(send(m, keyEnter))

		if !poller.Active() {
			t.Fatal("expected active poller")
		}

		_, cmd := m.Update(keyCtrlC)
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
		if poller.Active() {
			t.Error("poller should be stopped on quit")
		}
	})
}

func TestVideoItem(t *testing.T) {
	videos := []models.Video{{ID: "aaa", Title: "One"}, {ID: "bbb", Title: "Two"}}
	sel := models.NewSelection(videos)
	sel.SetRange(1, 1)

	items := videoItems(videos, sel)
	first, second := items[0].(videoItem), items[1].(videoItem)

	if first.Title() != "[x] 1. One" {
		t.Errorf("unexpected title %q", first.Title())
	}
	if second.Title() != "[ ] 2. Two" {
		t.Errorf("unexpected title %q", second.Title())
	}
	if !strings.HasSuffix(first.Description(), "in range") || strings.HasSuffix(second.Description(), "in range") {
		t.Errorf("unexpected descriptions %q / %q", first.Description(), second.Description())
	}
}
