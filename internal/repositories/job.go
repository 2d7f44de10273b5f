package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
)

// JobRepository implements models.Repository[*models.PlaylistJob] for playlist download history.
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository with the given database connection
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

const jobColumns = `id, sequence, source_url, job_id, state, status, current, total, video_ids, artifact, error_message, created_at, updated_at, deleted_at`

// Create inserts a new job into the database with generated ID and sequence
func (r *JobRepository) Create(job *models.PlaylistJob) error {
	sequence, err := NextSequence(r.db, "playlist_jobs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	job.SetID(shared.GenerateID())
	job.SetSequence(sequence)

	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO playlist_jobs (` + jobColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = r.db.Exec(query,
		job.ID(),
		job.Sequence(),
		job.SourceURL(),
		job.JobID(),
		string(job.State()),
		job.Status(),
		job.Current(),
		job.Total(),
		models.EncodeVideoIDs(job.VideoIDs()),
		job.Artifact(),
		job.ErrorMessage(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	return nil
}

// Get retrieves a job by ID, excluding soft-deleted jobs
func (r *JobRepository) Get(id string) (*models.PlaylistJob, error) {
	query := `SELECT ` + jobColumns + ` FROM playlist_jobs WHERE id = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a job by its sequence number
func (r *JobRepository) GetBySequence(sequence int) (*models.PlaylistJob, error) {
	query := `SELECT ` + jobColumns + ` FROM playlist_jobs WHERE sequence = ? AND deleted_at IS NULL`
	return r.scan(r.db.QueryRow(query, sequence))
}

// GetByJobID retrieves the most recent job with the given backend handle
func (r *JobRepository) GetByJobID(jobID string) (*models.PlaylistJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM playlist_jobs
		WHERE job_id = ? AND deleted_at IS NULL
		ORDER BY sequence DESC
		LIMIT 1
	`
	return r.scan(r.db.QueryRow(query, jobID))
}

// Update writes the mutable progress fields of a job
func (r *JobRepository) Update(job *models.PlaylistJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE playlist_jobs
		SET job_id = ?, state = ?, status = ?, current = ?, total = ?, video_ids = ?, artifact = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		job.JobID(),
		string(job.State()),
		job.Status(),
		job.Current(),
		job.Total(),
		models.EncodeVideoIDs(job.VideoIDs()),
		job.Artifact(),
		job.ErrorMessage(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}

	return requireRow(result, "job", job.ID())
}

// Delete soft-deletes a job by ID
func (r *JobRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE playlist_jobs SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return requireRow(result, "job", id)
}

// List retrieves jobs matching criteria, newest first. Supported keys are
// "state" (string or models.JobState) and "limit" (int).
func (r *JobRepository) List(criteria map[string]any) ([]*models.PlaylistJob, error) {
	query := `SELECT ` + jobColumns + ` FROM playlist_jobs WHERE deleted_at IS NULL`
	args := []any{}

	switch state := criteria["state"].(type) {
	case string:
		if state != "" {
			query += " AND state = ?"
			args = append(args, state)
		}
	case models.JobState:
		query += " AND state = ?"
		args = append(args, string(state))
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.PlaylistJob
	for rows.Next() {
		job, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scan reads one row from either [sql.Row] or [sql.Rows] into a [models.PlaylistJob]
func (r *JobRepository) scan(row scanner) (*models.PlaylistJob, error) {
	var (
		id, sourceURL, jobID, state, status string
		videoIDs, artifact, errorMessage    string
		sequence, current, total            int
		createdAt, updatedAt                time.Time
		deletedAt                           sql.NullTime
	)

	err := row.Scan(&id, &sequence, &sourceURL, &jobID, &state, &status, &current, &total,
		&videoIDs, &artifact, &errorMessage, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrJobNotFound, "no matching job")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}

	job := models.NewPlaylistJob(sequence, sourceURL, models.DecodeVideoIDs(videoIDs))
	job.SetID(id)
	job.SetJobID(jobID)
	job.SetState(models.JobState(state), status)
	job.SetProgress(current, total)
	job.SetArtifact(artifact)
	job.SetErrorMessage(errorMessage)
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}

	return job, nil
}

// scanner is satisfied by both [sql.Row] and [sql.Rows].
type scanner interface {
	Scan(dest ...any) error
}

func requireRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s not found or already deleted: %s", kind, id)
	}
	return nil
}
