package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/services"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/awesamdood/ptb/internal/tasks"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	URLView ViewState = iota
	SelectView
	ProgressView
	ResultView
)

// PlaylistClient is the subset of [services.Tools] the TUI calls directly.
// Job submission and polling go through the [tasks.Poller].
type PlaylistClient interface {
	PlaylistInfo(ctx context.Context, playlistURL string) (*models.PlaylistInfo, error)
	DownloadZip(ctx context.Context, zipName string) (*services.File, error)
}

// Options configures a [Model].
type Options struct {
	URL         string             // Prefilled playlist URL; fetched on Init when set
	DownloadDir string             // Where "save zip" writes (default ".")
	Open        func(string) error // Browser launcher (default [shared.OpenBrowser])
	Logger      *log.Logger
}

// Model represents the TUI application state.
type Model struct {
	ctx    context.Context
	view   ViewState
	client PlaylistClient
	poller *tasks.Poller
	opts   Options
	logger *log.Logger

	width  int
	height int

	input     textinput.Model
	spinner   spinner.Model
	bar       progress.Model
	videos    list.Model
	loading   bool
	sourceURL string
	info      *models.PlaylistInfo
	selection *models.Selection
	snapshot  tasks.Snapshot
	notice    string
	saved     string
	err       error

	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, client PlaylistClient, poller *tasks.Poller, opts Options) *Model {
	if opts.DownloadDir == "" {
		opts.DownloadDir = "."
	}
	if opts.Open == nil {
		opts.Open = shared.OpenBrowser
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	input := textinput.New()
	input.Placeholder = "https://www.youtube.com/playlist?list=..."
	input.Prompt = "URL › "
	input.CharLimit = 512
	input.Width = 60
	input.SetValue(opts.URL)
	input.Focus()

	return &Model{
		ctx:     ctx,
		view:    URLView,
		client:  client,
		poller:  poller,
		opts:    opts,
		logger:  logger,
		input:   input,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(30)),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// View returns the active view.
func (m *Model) View() string {
	switch m.view {
	case SelectView:
		return m.renderSelect()
	case ProgressView:
		return m.renderProgress()
	case ResultView:
		return m.renderResult()
	default:
		return m.renderURL()
	}
}

// State returns the active view, mainly for tests and logging.
func (m *Model) State() ViewState { return m.view }

// Init starts the cursor blink and, when a URL was supplied, fetches it.
func (m *Model) Init() tea.Cmd {
	url := strings.TrimSpace(m.opts.URL)
	if url == "" {
		return textinput.Blink
	}
	m.loading = true
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.fetchPlaylist(url))
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(60, max(10, msg.Width-20))
		if m.info != nil {
			m.videos.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.forceQuit) {
			return m, m.quit()
		}
		switch m.view {
		case URLView:
			return m.handleURLKeys(msg)
		case SelectView:
			return m.handleSelectKeys(msg)
		case ProgressView:
			return m.handleProgressKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case playlistFetchedMsg:
		return m.handlePlaylistFetched(msg)

	case jobStartedMsg:
		return m.handleJobStarted(msg)

	case pollTickMsg:
		if m.view != ProgressView || msg.generation != m.snapshot.Generation {
			return m, nil
		}
		return m, m.poll()

	case polledMsg:
		return m.handlePolled(msg)

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logger.Error("failed to save archive", "err", msg.err)
			return m, nil
		}
		m.err = nil
		m.saved = msg.path
		m.logger.Info("archive saved", "path", msg.path)
		return m, nil

	case spinner.TickMsg:
		if !m.loading && m.view != ProgressView {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m.updateComponents(msg)
}

// Close stops any polling. The command layer calls it after the program exits.
func (m *Model) Close() {
	m.poller.Stop()
}

func (m *Model) quit() tea.Cmd {
	m.poller.Stop()
	return tea.Quit
}

func (m *Model) handleURLKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		return m, m.quit()
	case key.Matches(msg, m.keys.enter):
		if m.loading {
			return m, nil
		}
		url := strings.TrimSpace(m.input.Value())
		if url == "" {
			m.notice = "Please enter a YouTube URL."
			return m, nil
		}
		m.loading = true
		m.notice, m.err = "", nil
		return m, tea.Batch(m.spinner.Tick, m.fetchPlaylist(url))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleSelectKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.videos.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.videos, cmd = m.videos.Update(msg)
		return m, cmd
	}

	item, _ := m.videos.SelectedItem().(videoItem)

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case key.Matches(msg, m.keys.back):
		if m.videos.FilterState() == list.FilterApplied {
			m.videos.ResetFilter()
			return m, nil
		}
		m.view = URLView
		m.notice = ""
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.toggle):
		if item.sel != nil {
			m.selection.Toggle(item.video.ID)
			m.refreshTitle()
		}
		return m, nil
	case key.Matches(msg, m.keys.start):
		if item.sel != nil {
			_, end := m.selection.Range()
			m.selection.SetRange(item.pos, end)
			m.refreshTitle()
		}
		return m, nil
	case key.Matches(msg, m.keys.end):
		if item.sel != nil {
			start, _ := m.selection.Range()
			m.selection.SetRange(start, item.pos)
			m.refreshTitle()
		}
		return m, nil
	case key.Matches(msg, m.keys.download):
		return m, m.startJob()
	}

	var cmd tea.Cmd
	m.videos, cmd = m.videos.Update(msg)
	return m, cmd
}

func (m *Model) handleProgressKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		return m, m.quit()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	complete := m.snapshot.State == models.JobComplete

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, m.quit()
	case complete && key.Matches(msg, m.keys.open):
		url, err := m.poller.DownloadURL()
		if err == nil {
			err = m.opts.Open(url)
		}
		if err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.notice = "Opened " + url
		return m, nil
	case complete && key.Matches(msg, m.keys.save):
		m.notice = "Saving " + m.snapshot.Artifact + "..."
		return m, m.saveArchive(m.snapshot.Artifact)
	case !complete && key.Matches(msg, m.keys.retry):
		m.view = SelectView
		m.notice, m.err = "", nil
		return m, nil
	case key.Matches(msg, m.keys.restart):
		m.reset()
		return m, textinput.Blink
	}
	return m, nil
}

func (m *Model) handlePlaylistFetched(msg playlistFetchedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		m.err = msg.err
		m.logger.Error("failed to fetch playlist", "url", msg.url, "err", msg.err)
		return m, nil
	}
	if len(msg.info.Videos) == 0 {
		m.notice = "This playlist has no videos."
		return m, nil
	}

	m.err, m.notice = nil, ""
	m.sourceURL = msg.url
	m.info = msg.info
	m.selection = models.NewSelection(msg.info.Videos)

	m.videos = list.New(videoItems(msg.info.Videos, m.selection), list.NewDefaultDelegate(), 0, 0)
	m.videos.DisableQuitKeybindings()
	m.videos.SetShowHelp(false)
	m.videos.SetSize(max(m.width-4, 20), max(m.height-8, 10))
	m.refreshTitle()

	m.input.Blur()
	m.view = SelectView
	m.logger.Info("playlist loaded", "title", msg.info.Title, "videos", len(msg.info.Videos))
	return m, nil
}

func (m *Model) handleJobStarted(msg jobStartedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, tasks.ErrSuperseded) {
		return m, nil
	}

	var verr *shared.ValidationError
	if errors.As(msg.err, &verr) {
		m.notice = verr.Message
		m.view = SelectView
		return m, nil
	}

	m.snapshot = msg.snapshot
	m.saved, m.notice = "", ""
	if msg.err != nil || msg.snapshot.State.Terminal() {
		m.view = ResultView
		return m, nil
	}

	m.view = ProgressView
	return m, tea.Batch(m.spinner.Tick, m.scheduleTick(msg.snapshot.Generation))
}

func (m *Model) handlePolled(msg polledMsg) (tea.Model, tea.Cmd) {
	if msg.snapshot.Generation != m.snapshot.Generation || m.view != ProgressView {
		return m, nil
	}

	m.snapshot = msg.snapshot
	m.notice = ""
	if errors.Is(msg.err, shared.ErrTransientPoll) {
		m.notice = fmt.Sprintf("Connection problem, retrying (%d)...", msg.snapshot.Retries)
	}

	if msg.snapshot.State.Terminal() {
		m.view = ResultView
		return m, nil
	}
	if !m.poller.Active() {
		return m, nil
	}
	return m, m.scheduleTick(msg.snapshot.Generation)
}

func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case URLView:
		m.input, cmd = m.input.Update(msg)
	case SelectView:
		m.videos, cmd = m.videos.Update(msg)
	}
	return m, cmd
}

func (m *Model) reset() {
	m.poller.Stop()
	m.view = URLView
	m.info, m.selection = nil, nil
	m.snapshot = tasks.Snapshot{}
	m.notice, m.saved, m.err = "", "", nil
	m.input.SetValue("")
	m.input.Focus()
}

func (m *Model) refreshTitle() {
	start, end := m.selection.Range()
	m.videos.Title = fmt.Sprintf("%s · %d selected (range %d-%d)", m.info.Title, m.selection.Len(), start, end)
}

func (m *Model) fetchPlaylist(url string) tea.Cmd {
	return func() tea.Msg {
		info, err := m.client.PlaylistInfo(m.ctx, url)
		return playlistFetchedMsg{url: url, info: info, err: err}
	}
}

func (m *Model) startJob() tea.Cmd {
	url := m.sourceURL
	ids := m.selection.Selected()
	return func() tea.Msg {
		_, err := m.poller.Start(m.ctx, url, ids)
		return jobStartedMsg{snapshot: m.poller.Snapshot(), err: err}
	}
}

func (m *Model) scheduleTick(generation uint64) tea.Cmd {
	return tea.Tick(m.poller.Interval(), func(time.Time) tea.Msg {
		return pollTickMsg{generation: generation}
	})
}

func (m *Model) poll() tea.Cmd {
	return func() tea.Msg {
		err := m.poller.Tick(m.ctx)
		return polledMsg{snapshot: m.poller.Snapshot(), err: err}
	}
}

func (m *Model) saveArchive(name string) tea.Cmd {
	dir := m.opts.DownloadDir
	return func() tea.Msg {
		file, err := m.client.DownloadZip(m.ctx, name)
		if err != nil {
			return savedMsg{err: err}
		}
		path, err := file.Save(dir)
		return savedMsg{path: path, err: err}
	}
}

func (m *Model) renderNotice() string {
	var out string
	if m.err != nil {
		out += "\n" + styles.err.Render("Error: "+m.err.Error())
	}
	if m.notice != "" {
		out += "\n" + styles.warn.Render(m.notice)
	}
	return out
}

func (m *Model) renderURL() string {
	title := styles.title.Render("YouTube Playlist Downloader")
	body := m.input.View()
	if m.loading {
		body += "\n\n" + m.spinner.View() + " Fetching playlist..."
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.back})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, body, m.renderNotice(), helpView)
}

func (m *Model) renderSelect() string {
	helpKeys := []key.Binding{m.keys.toggle, m.keys.start, m.keys.end, m.keys.download, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s%s\n\n%s", m.videos.View(), m.renderNotice(), helpView)
}

func (m *Model) renderProgress() string {
	s := m.snapshot
	title := styles.title.Render("Downloading Playlist")
	status := fmt.Sprintf("%s %s", m.spinner.View(), s.Status)
	bar := fmt.Sprintf("%s %d/%d", m.bar.ViewAs(float64(s.Percent())/100.0), s.Current, s.Total)
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n%s\n\n%s", title, status, bar, m.renderNotice(), helpView)
}

func (m *Model) renderResult() string {
	s := m.snapshot
	if s.State != models.JobComplete {
		title := styles.err.Render("Download failed")
		helpView := m.help.ShortHelpView([]key.Binding{m.keys.retry, m.keys.restart, m.keys.quit})
		return fmt.Sprintf("%s\n\n%s\n%s\n\n%s", title, s.Error, m.renderNotice(), helpView)
	}

	title := styles.ok.Render("✓ " + s.Status)
	info := fmt.Sprintf("\nArchive: %s\nVideos: %d", s.Artifact, s.Total)
	if m.saved != "" {
		info += "\nSaved to: " + m.saved
	}
	helpView := m.help.ShortHelpView([]key.Binding{m.keys.open, m.keys.save, m.keys.restart, m.keys.quit})
	return fmt.Sprintf("%s\n%s\n%s\n\n%s", title, info, m.renderNotice(), helpView)
}
