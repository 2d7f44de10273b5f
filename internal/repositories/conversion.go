package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/awesamdood/ptb/internal/models"
	"github.com/awesamdood/ptb/internal/shared"
)

// ConversionRepository implements models.Repository[*models.Conversion].
type ConversionRepository struct {
	db *sql.DB
}

// NewConversionRepository creates a new ConversionRepository with the given database connection
func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

const conversionColumns = `id, sequence, tool, input_count, output_path, bytes, created_at, updated_at, deleted_at`

// Create inserts a new conversion with generated ID and sequence
func (r *ConversionRepository) Create(c *models.Conversion) error {
	sequence, err := NextSequence(r.db, "conversions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	c.SetID(shared.GenerateID())
	c.SetSequence(sequence)

	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO conversions (`+conversionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`, c.ID(), c.Sequence(), c.Tool(), c.InputCount(), c.OutputPath(), c.Bytes(), c.CreatedAt(), c.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	return nil
}

// Get retrieves a conversion by ID, excluding soft-deleted rows
func (r *ConversionRepository) Get(id string) (*models.Conversion, error) {
	return r.scan(r.db.QueryRow(`SELECT `+conversionColumns+` FROM conversions WHERE id = ? AND deleted_at IS NULL`, id))
}

// Update rewrites the output location of a conversion, for example after the file is moved
func (r *ConversionRepository) Update(c *models.Conversion) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	c.SetUpdatedAt(now)

	result, err := r.db.Exec(`
		UPDATE conversions SET output_path = ?, bytes = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`, c.OutputPath(), c.Bytes(), now, c.ID())
	if err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}
	return requireRow(result, "conversion", c.ID())
}

// Delete soft-deletes a conversion by ID
func (r *ConversionRepository) Delete(id string) error {
	result, err := r.db.Exec(`UPDATE conversions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}
	return requireRow(result, "conversion", id)
}

// List retrieves conversions newest first. Supported keys are "tool" (string) and "limit" (int).
func (r *ConversionRepository) List(criteria map[string]any) ([]*models.Conversion, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE deleted_at IS NULL`
	args := []any{}

	if tool, ok := criteria["tool"].(string); ok && tool != "" {
		query += " AND tool = ?"
		args = append(args, tool)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var out []*models.Conversion
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return out, nil
}

func (r *ConversionRepository) scan(row scanner) (*models.Conversion, error) {
	var (
		id, tool, outputPath string
		sequence, inputCount int
		size                 int64
		createdAt, updatedAt time.Time
		deletedAt            sql.NullTime
	)

	err := row.Scan(&id, &sequence, &tool, &inputCount, &outputPath, &size, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: conversion", shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversion: %w", err)
	}

	c := models.NewConversion(sequence, tool, inputCount, outputPath, size)
	c.SetID(id)
	c.SetCreatedAt(createdAt)
	c.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		c.SetDeletedAt(&deletedAt.Time)
	}
	return c, nil
}
