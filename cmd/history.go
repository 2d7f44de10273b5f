package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/awesamdood/ptb/internal/formatter"
	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/repositories"
	"github.com/awesamdood/ptb/internal/shared"
	"github.com/urfave/cli/v3"
)

// HistoryList prints recorded playlist jobs, or tool outputs with --conversions.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	criteria := map[string]any{"limit": int(cmd.Int("limit"))}

	if cmd.Bool("conversions") {
		if tool := cmd.String("tool"); tool != "" {
			criteria["tool"] = tool
		}
		items, err := repositories.NewConversionRepository(db).List(criteria)
		if err != nil {
			return err
		}
		return r.writeBytes(formatter.ConversionsToText(items, time.Now()))
	}

	if state := cmd.String("state"); state != "" {
		criteria["state"] = models.JobState(state)
	}
	jobs, err := repositories.NewJobRepository(db).List(criteria)
	if err != nil {
		return err
	}

	switch {
	case cmd.Bool("json"):
		rows := make([]formatter.JobRow, 0, len(jobs))
		for _, job := range jobs {
			rows = append(rows, formatter.NewJobRow(job))
		}
		return r.writeJSON(rows, true)
	case cmd.Bool("csv"):
		data, err := formatter.JobsToCSV(jobs)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	default:
		return r.writeBytes(formatter.JobsToText(jobs, time.Now()))
	}
}

// findJob looks a job up by record id or, when numeric, by sequence.
func findJob(repo *repositories.JobRepository, ref string) (*models.PlaylistJob, error) {
	if ref == "" {
		return nil, fmt.Errorf("%w: job id or sequence is required", shared.ErrMissingArgument)
	}
	if seq, err := strconv.Atoi(ref); err == nil {
		return repo.GetBySequence(seq)
	}
	return repo.Get(ref)
}

// HistoryShow prints one recorded job.
func (r *Runner) HistoryShow(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	job, err := findJob(repositories.NewJobRepository(db), cmd.StringArg("id"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(formatter.NewJobRow(job), true)
	}
	return r.writeBytes(formatter.JobDetail(job))
}

// HistoryDelete soft-deletes one recorded job.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	db, err := r.database()
	if err != nil {
		return err
	}

	repo := repositories.NewJobRepository(db)
	job, err := findJob(repo, cmd.StringArg("id"))
	if err != nil {
		return err
	}
	if err := repo.Delete(job.ID()); err != nil {
		return err
	}

	r.logger.Info("job deleted", "id", job.ID(), "sequence", job.Sequence())
	return r.writePlain("✓ Deleted job %d\n", job.Sequence())
}
