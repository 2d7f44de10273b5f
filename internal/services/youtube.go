package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
)

func requireURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return shared.Invalid("url", "Please enter a YouTube URL.")
	}
	return nil
}

// VideoInfo fetches the title and thumbnail of a single video.
func (t *Tools) VideoInfo(ctx context.Context, videoURL string) (*models.VideoInfo, error) {
	if err := requireURL(videoURL); err != nil {
		return nil, err
	}

	resp, err := t.api.PostJSON(ctx, PathVideoInfo, map[string]string{"url": videoURL})
	if err != nil {
		return nil, err
	}

	var info models.VideoInfo
	if err := resp.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// DownloadVideo downloads a single video as mp3 audio or mp4 video.
func (t *Tools) DownloadVideo(ctx context.Context, videoURL string, format models.MediaFormat) (*File, error) {
	if err := requireURL(videoURL); err != nil {
		return nil, err
	}
	if _, ok := models.ParseMediaFormat(string(format)); !ok {
		return nil, shared.Invalid("format", "Invalid format specified.")
	}

	resp, err := t.api.PostJSON(ctx, PathVideoDownload+string(format), map[string]string{"url": videoURL})
	if err != nil {
		return nil, err
	}
	return resp.File("download." + string(format))
}

// PlaylistInfo lists the videos of a playlist.
func (t *Tools) PlaylistInfo(ctx context.Context, playlistURL string) (*models.PlaylistInfo, error) {
	if err := requireURL(playlistURL); err != nil {
		return nil, err
	}

	resp, err := t.api.PostJSON(ctx, PathPlaylistInfo, map[string]string{"url": playlistURL})
	if err != nil {
		return nil, err
	}

	var info models.PlaylistInfo
	if err := resp.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// StartPlaylistDownload starts packaging videoIDs into a zip and returns the job handle.
func (t *Tools) StartPlaylistDownload(ctx context.Context, playlistURL string, videoIDs []string) (string, error) {
	if err := requireURL(playlistURL); err != nil {
		return "", err
	}
	if len(videoIDs) == 0 {
		return "", shared.Invalid("", "Please select at least one video to download.")
	}

	resp, err := t.api.PostJSON(ctx, PathPlaylistStart, map[string]any{
		"url":       playlistURL,
		"video_ids": videoIDs,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		JobID string `json:"job_id"`
	}
	if err := resp.Decode(&out); err != nil {
		return "", err
	}
	if out.JobID == "" {
		return "", fmt.Errorf("%w: response did not include a job id", shared.ErrAPIRequest)
	}
	return out.JobID, nil
}

// PlaylistProgress polls a job once.
func (t *Tools) PlaylistProgress(ctx context.Context, jobID string) (*models.JobProgress, error) {
	if jobID == "" {
		return nil, shared.Invalid("job_id", "job id is required")
	}

	resp, err := t.api.Get(ctx, PathPlaylistProgress+url.PathEscape(jobID))
	if err != nil {
		return nil, err
	}

	var progress models.JobProgress
	if err := resp.Decode(&progress); err != nil {
		return nil, err
	}
	return &progress, nil
}

// ZipURL is the browser download link for a finished playlist archive.
func (t *Tools) ZipURL(zipName string) string {
	return t.api.URL(PathDownloadZip, url.Values{"filename": {zipName}})
}

// DownloadZip fetches a finished playlist archive.
func (t *Tools) DownloadZip(ctx context.Context, zipName string) (*File, error) {
	if zipName == "" {
		return nil, shared.ErrNoArtifact
	}

	resp, err := t.api.Get(ctx, PathDownloadZip+"?"+url.Values{"filename": {zipName}}.Encode())
	if err != nil {
		return nil, err
	}
	return resp.File(zipName)
}
