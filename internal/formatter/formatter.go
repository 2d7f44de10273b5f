// package formatter renders playlist listings and job history as plain text, CSV, Markdown, or JSON
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts a format name or a common file extension (txt, md).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "", "text", "txt":
		return FormatText, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
}

// Ext returns the file extension used when writing f.
func (f Format) Ext() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	}
	return ".txt"
}

// WatchURL returns the public page for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

// selectedFn reports whether the video at i is marked. A nil selection marks nothing.
func selectedFn(sel *models.Selection) func(id string) bool {
	if sel == nil {
		return func(string) bool { return false }
	}
	return sel.IsSelected
}

// PlaylistToCSV converts a playlist listing to CSV with columns: Position, ID, Title, URL, Selected
func PlaylistToCSV(info *models.PlaylistInfo, sel *models.Selection) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "ID", "Title", "URL", "Selected"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	isSelected := selectedFn(sel)
	for i, video := range info.Videos {
		record := []string{
			strconv.Itoa(i + 1),
			video.ID,
			video.Title,
			WatchURL(video.ID),
			strconv.FormatBool(isSelected(video.ID)),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaylistToMarkdown renders a playlist as a numbered list of links.
// Selected videos are rendered as checked task items when sel is non-nil.
func PlaylistToMarkdown(info *models.PlaylistInfo, sel *models.Selection) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", info.Title)
	fmt.Fprintf(&buf, "**Videos**: %d\n", len(info.Videos))
	if sel != nil {
		start, end := sel.Range()
		fmt.Fprintf(&buf, "**Selected**: %d (range %d-%d)\n", sel.Len(), start, end)
	}
	buf.WriteString("\n## Videos\n\n")

	isSelected := selectedFn(sel)
	for i, video := range info.Videos {
		box := ""
		if sel != nil {
			box = "[ ] "
			if isSelected(video.ID) {
				box = "[x] "
			}
		}
		fmt.Fprintf(&buf, "%d. %s[%s](%s)\n", i+1, box, video.Title, WatchURL(video.ID))
	}

	return buf.Bytes(), nil
}

// PlaylistToText converts a playlist to plain text format
func PlaylistToText(info *models.PlaylistInfo, sel *models.Selection) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Playlist: %s\n", info.Title)
	fmt.Fprintf(&buf, "Videos: %d\n\n", len(info.Videos))

	isSelected := selectedFn(sel)
	for i, video := range info.Videos {
		mark := " "
		if isSelected(video.ID) {
			mark = "*"
		}
		fmt.Fprintf(&buf, "%s %3d. %s (%s)\n", mark, i+1, video.Title, video.ID)
	}

	return buf.Bytes(), nil
}

// playlistDocument is the JSON shape of an exported listing.
type playlistDocument struct {
	Title    string         `json:"title"`
	Count    int            `json:"count"`
	Videos   []models.Video `json:"videos"`
	Selected []string       `json:"selected,omitempty"`
}

// PlaylistToJSON renders the listing and, when sel is non-nil, the selected ids.
func PlaylistToJSON(info *models.PlaylistInfo, sel *models.Selection) ([]byte, error) {
	doc := playlistDocument{Title: info.Title, Count: len(info.Videos), Videos: info.Videos}
	if doc.Videos == nil {
		doc.Videos = []models.Video{}
	}
	if sel != nil {
		doc.Selected = sel.Selected()
	}
	return MarshalJSON(doc)
}

// RenderPlaylist dispatches to the renderer for f.
func RenderPlaylist(info *models.PlaylistInfo, sel *models.Selection, f Format) ([]byte, error) {
	switch f {
	case FormatCSV:
		return PlaylistToCSV(info, sel)
	case FormatMarkdown:
		return PlaylistToMarkdown(info, sel)
	case FormatJSON:
		return PlaylistToJSON(info, sel)
	default:
		return PlaylistToText(info, sel)
	}
}

// WritePlaylistExport renders the listing and writes it to path.
//
// An empty path defaults to a slug of the playlist title with the format's extension.
func WritePlaylistExport(info *models.PlaylistInfo, sel *models.Selection, f Format, path string) (string, error) {
	if path == "" {
		path = Slug(info.Title) + f.Ext()
	}

	data, err := RenderPlaylist(info, sel, f)
	if err != nil {
		return "", fmt.Errorf("failed to render playlist: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}

	return path, nil
}

// Slug lowercases s and replaces runs of non-alphanumerics with a single dash.
// An empty result becomes "playlist".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "playlist"
	}
	return out
}

// MarshalJSON encodes v with two-space indentation and a trailing newline.
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ProgressBar draws a fixed-width bar for current out of total.
func ProgressBar(current, total, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = min(width, max(0, current*width/total))
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

// DownloadImage fetches an image such as a video thumbnail and returns the raw bytes
func DownloadImage(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty URL provided", shared.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download image: %w", shared.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}
