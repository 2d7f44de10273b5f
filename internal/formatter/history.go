package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// JobRow is the exported shape of a persisted playlist job.
type JobRow struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	SourceURL string    `json:"source_url"`
	JobID     string    `json:"job_id,omitempty"`
	State     string    `json:"state"`
	Status    string    `json:"status,omitempty"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	VideoIDs  []string  `json:"video_ids"`
	Artifact  string    `json:"artifact,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewJobRow copies job into a JobRow.
func NewJobRow(job *models.PlaylistJob) JobRow {
	ids := job.VideoIDs()
	if ids == nil {
		ids = []string{}
	}
	return JobRow{
		ID:        job.ID(),
		Sequence:  job.Sequence(),
		SourceURL: job.SourceURL(),
		JobID:     job.JobID(),
		State:     string(job.State()),
		Status:    job.Status(),
		Current:   job.Current(),
		Total:     job.Total(),
		VideoIDs:  ids,
		Artifact:  job.Artifact(),
		Error:     job.ErrorMessage(),
		CreatedAt: job.CreatedAt(),
		UpdatedAt: job.UpdatedAt(),
	}
}

// JobsToText renders jobs as an aligned table. Ages are relative to now.
func JobsToText(jobs []*models.PlaylistJob, now time.Time) []byte {
	var buf bytes.Buffer
	if len(jobs) == 0 {
		buf.WriteString("No playlist jobs recorded.\n")
		return buf.Bytes()
	}

	rows := make([][]string, 0, len(jobs))
	for _, job := range jobs {
		artifact := job.Artifact()
		if artifact == "" {
			artifact = "-"
		}
		rows = append(rows, []string{
			strconv.Itoa(job.Sequence()),
			string(job.State()),
			fmt.Sprintf("%d/%d", job.Current(), job.Total()),
			artifact,
			models.Age(job, now).String(),
			job.SourceURL(),
		})
	}
	buf.WriteString(renderTable([]string{"SEQ", "STATE", "PROGRESS", "ARTIFACT", "AGE", "URL"}, rows))
	return buf.Bytes()
}

// JobDetail renders a single job as labelled lines.
func JobDetail(job *models.PlaylistJob) []byte {
	var buf bytes.Buffer
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&buf, "%-10s %s\n", label+":", value)
		}
	}

	line("ID", job.ID())
	line("Sequence", strconv.Itoa(job.Sequence()))
	line("URL", job.SourceURL())
	line("Job", job.JobID())
	line("State", string(job.State()))
	line("Status", job.Status())
	line("Progress", fmt.Sprintf("%d/%d %s", job.Current(), job.Total(), ProgressBar(job.Current(), job.Total(), 20)))
	line("Videos", strings.Join(job.VideoIDs(), ", "))
	line("Artifact", job.Artifact())
	line("Error", job.ErrorMessage())
	line("Created", job.CreatedAt().Format(time.RFC3339))
	line("Updated", job.UpdatedAt().Format(time.RFC3339))
	return buf.Bytes()
}

// JobsToCSV converts jobs to CSV with columns: Sequence, ID, State, Current, Total, Artifact, URL, Created
func JobsToCSV(jobs []*models.PlaylistJob) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Sequence", "ID", "State", "Current", "Total", "Artifact", "URL", "Created"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, job := range jobs {
		record := []string{
			strconv.Itoa(job.Sequence()),
			job.ID(),
			string(job.State()),
			strconv.Itoa(job.Current()),
			strconv.Itoa(job.Total()),
			job.Artifact(),
			job.SourceURL(),
			job.CreatedAt().Format(time.RFC3339),
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

// ConversionsToText renders recorded tool outputs as an aligned table.
func ConversionsToText(items []*models.Conversion, now time.Time) []byte {
	var buf bytes.Buffer
	if len(items) == 0 {
		buf.WriteString("No conversions recorded.\n")
		return buf.Bytes()
	}

	rows := make([][]string, 0, len(items))
	for _, c := range items {
		rows = append(rows, []string{
			strconv.Itoa(c.Sequence()),
			c.Tool(),
			strconv.Itoa(c.InputCount()),
			HumanBytes(c.Bytes()),
			models.Age(c, now).String(),
			c.OutputPath(),
		})
	}
	buf.WriteString(renderTable([]string{"SEQ", "TOOL", "INPUTS", "SIZE", "AGE", "OUTPUT"}, rows))
	return buf.Bytes()
}

// renderTable draws a bordered table with one cell of horizontal padding.
func renderTable(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	header := cell.Bold(true)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String() + "\n"
}

// HumanBytes formats n using binary units.
func HumanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
