package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/awesamdood/ptb/internal/formatter"
	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/repositories"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/awesamdood/ptb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// YTInfo prints the title and thumbnail of a single video.
func (r *Runner) YTInfo(ctx context.Context, cmd *cli.Command) error {
	videoURL := cmd.StringArg("url")
	info, err := r.tools.VideoInfo(ctx, videoURL)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if err := r.writeJSON(info, true); err != nil {
			return err
		}
	} else {
		r.writePlain("Title:     %s\n", info.Title)
		r.writePlain("Thumbnail: %s\n", info.Thumbnail)
	}

	if dest := cmd.String("thumbnail"); dest != "" {
		data, err := formatter.DownloadImage(ctx, info.Thumbnail)
		if err != nil {
			return fmt.Errorf("failed to download thumbnail: %w", err)
		}
		if err := os.WriteFile(dest, data, 0644); err != nil {
			return fmt.Errorf("failed to write thumbnail: %w", err)
		}
		r.logger.Info("thumbnail saved", "path", dest, "bytes", len(data))
		if !cmd.Bool("json") {
			r.writePlain("✓ Thumbnail saved: %s\n", dest)
		}
	}
	return nil
}

// YTDownload saves a single video as mp3 or mp4.
func (r *Runner) YTDownload(ctx context.Context, cmd *cli.Command) error {
	format, ok := models.ParseMediaFormat(cmd.String("format"))
	if !ok {
		return fmt.Errorf("%w: --format must be mp3 or mp4", shared.ErrInvalidFlag)
	}

	r.writePlain("Downloading %s...\n", format)
	file, err := r.tools.DownloadVideo(ctx, cmd.StringArg("url"), format)
	if err != nil {
		return err
	}

	path, err := r.saveFile(file, r.downloadDir(cmd), "youtube-"+string(format), 1)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s (%s)\n", path, formatter.HumanBytes(file.Size()))
}

func (r *Runner) downloadDir(cmd *cli.Command) string {
	if dir := cmd.String("out-dir"); dir != "" {
		return dir
	}
	return r.config.Playlist.DownloadDir
}

// parseRange reads a 1-based inclusive "start-end" range. A single number selects one video.
func parseRange(s string) (int, int, error) {
	a, b, found := strings.Cut(s, "-")
	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: --range expects start-end, got %q", shared.ErrInvalidFlag, s)
	}
	if !found {
		return start, start, nil
	}
	end, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: --range expects start-end, got %q", shared.ErrInvalidFlag, s)
	}
	return start, end, nil
}

// selection builds the playlist selection from --range and --exclude.
func selection(info *models.PlaylistInfo, cmd *cli.Command) (*models.Selection, error) {
	sel := models.NewSelection(info.Videos)
	if s := cmd.String("range"); s != "" {
		start, end, err := parseRange(s)
		if err != nil {
			return nil, err
		}
		sel.SetRange(start, end)
	}
	for _, id := range cmd.StringSlice("exclude") {
		if sel.IsSelected(id) {
			sel.Toggle(id)
		}
	}
	return sel, nil
}

// YTPlaylistInfo lists a playlist and optionally exports it.
func (r *Runner) YTPlaylistInfo(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	info, err := r.tools.PlaylistInfo(ctx, cmd.StringArg("url"))
	if err != nil {
		return err
	}

	var sel *models.Selection
	if cmd.IsSet("range") || cmd.IsSet("exclude") {
		if sel, err = selection(info, cmd); err != nil {
			return err
		}
	}

	if cmd.IsSet("output") {
		path, err := formatter.WritePlaylistExport(info, sel, format, cmd.String("output"))
		if err != nil {
			return err
		}
		r.logger.Info("playlist exported", "path", path, "videos", len(info.Videos))
		return r.writePlain("✓ Exported %s to %s\n", shared.Plural(len(info.Videos), "video"), path)
	}

	data, err := formatter.RenderPlaylist(info, sel, format)
	if err != nil {
		return err
	}
	if format == formatter.FormatText {
		r.writePlainHeader(info.Title)
	}
	return r.writeBytes(data)
}

// jobRecorder returns a history recorder, or nil when the database is unavailable.
func (r *Runner) jobRecorder() tasks.JobRecorder {
	db, err := r.database()
	if err != nil {
		r.logger.Warn("history unavailable", "error", err)
		return nil
	}
	return repositories.NewJobHistory(repositories.NewJobRepository(db))
}

// newPoller builds a poller from [shared.PlaylistConfig], overriding the interval when set.
func (r *Runner) newPoller(interval time.Duration, progress chan<- tasks.ProgressUpdate) *tasks.Poller {
	if interval <= 0 {
		interval = time.Duration(r.config.Playlist.PollIntervalMS) * time.Millisecond
	}
	return tasks.NewPoller(r.tools, tasks.PollerOpts{
		Interval:   interval,
		MaxRetries: r.config.Playlist.MaxPollRetries,
		Progress:   progress,
		Recorder:   r.jobRecorder(),
		Logger:     r.logger,
	})
}

// YTPlaylistDownload starts a zip job for the selected videos, polls it to completion,
// then saves the archive or opens its link in a browser.
func (r *Runner) YTPlaylistDownload(ctx context.Context, cmd *cli.Command) error {
	playlistURL := cmd.StringArg("url")
	info, err := r.tools.PlaylistInfo(ctx, playlistURL)
	if err != nil {
		return err
	}
	sel, err := selection(info, cmd)
	if err != nil {
		return err
	}

	start, end := sel.Range()
	r.writePlain("%s: %s selected (range %d-%d)\n", info.Title, shared.Plural(sel.Len(), "video"), start, end)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := make(chan tasks.ProgressUpdate, 16)
	poller := r.newPoller(cmd.Duration("interval"), progress)
	defer poller.Stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range progress {
			r.writeProgress(u)
		}
	}()

	jobID, err := poller.Start(ctx, playlistURL, sel.Selected())
	if err == nil {
		r.logger.Debug("polling", "job_id", jobID, "interval", poller.Interval())
		err = poller.Run(ctx)
	}
	close(progress)
	wg.Wait()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			r.writePlain("\nCancelled.\n")
			return nil
		}
		return err
	}

	snap := poller.Snapshot()
	if snap.State == models.JobFailed {
		return fmt.Errorf("%w: %s", shared.ErrAPIRequest, snap.Error)
	}

	if cmd.Bool("open") {
		link, err := poller.DownloadURL()
		if err != nil {
			return err
		}
		r.writePlain("Opening %s\n", link)
		return shared.OpenBrowser(link)
	}

	file, err := r.tools.DownloadZip(ctx, snap.Artifact)
	if err != nil {
		return err
	}
	path, err := r.saveFile(file, r.downloadDir(cmd), "youtube-playlist", len(snap.VideoIDs))
	if err != nil {
		return err
	}
	return r.writePlain("✓ Saved %s (%s)\n", path, formatter.HumanBytes(file.Size()))
}

// writeProgress draws one line per poller transition.
func (r *Runner) writeProgress(u tasks.ProgressUpdate) {
	switch u.Phase {
	case tasks.JobStart:
		r.writePlain("%s\n", u.Message)
	case tasks.JobPoll:
		percent := 0
		if s, ok := u.Data.(tasks.Snapshot); ok {
			percent = s.Percent()
		}
		r.writePlain("%s %3d%% %d/%d %s\n", formatter.ProgressBar(u.Step, u.Total, 30), percent, u.Step, u.Total, u.Message)
	case tasks.JobComplete:
		r.writePlain("%s 100%% %s\n", formatter.ProgressBar(1, 1, 30), u.Message)
	case tasks.JobFailed:
		r.writePlain("✗ %s\n", u.Message)
	}
}
