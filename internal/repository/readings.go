package repository

import (
	"context"
	"errors"
	"fmt"

	"farmops/internal/domain"

	"github.com/jackc/pgx/v5"
)

func (r *Repository) InsertReading(ctx context.Context, reading domain.Reading) error {
	if _, err := r.pool.Exec(ctx, `
		INSERT INTO readings (created_at, temperature, humidity, ammonia, light)
		VALUES ($1, $2, $3, $4, $5)
	`, reading.CreatedAt, reading.Temperature, reading.Humidity, reading.Ammonia, reading.Light); err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (r *Repository) LatestReading(ctx context.Context) (*domain.Reading, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, created_at, temperature, humidity, ammonia, light
		FROM readings
		ORDER BY id DESC
		LIMIT 1
	`)
	var reading domain.Reading
	if err := row.Scan(
		&reading.ID,
		&reading.CreatedAt,
		&reading.Temperature,
		&reading.Humidity,
		&reading.Ammonia,
		&reading.Light,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return &reading, nil
}

// ReadingHistory returns the last `limit` readings in chronological
// order, matching the dashboard's chart window.
func (r *Repository) ReadingHistory(ctx context.Context, limit int) ([]domain.Reading, error) {
	limit = normalizeLimit(limit)
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, temperature, humidity, ammonia, light
		FROM (
			SELECT id, created_at, temperature, humidity, ammonia, light
			FROM readings
			ORDER BY id DESC
			LIMIT $1
		) latest
		ORDER BY id ASC
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()
	return collectReadings(rows, limit)
}

func (r *Repository) AllReadings(ctx context.Context) ([]domain.Reading, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, created_at, temperature, humidity, ammonia, light
		FROM readings
		ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("all readings: %w", err)
	}
	defer rows.Close()
	return collectReadings(rows, 0)
}

func collectReadings(rows pgx.Rows, capacity int) ([]domain.Reading, error) {
	readings := make([]domain.Reading, 0, capacity)
	for rows.Next() {
		var reading domain.Reading
		if err := rows.Scan(
			&reading.ID,
			&reading.CreatedAt,
			&reading.Temperature,
			&reading.Humidity,
			&reading.Ammonia,
			&reading.Light,
		); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		readings = append(readings, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	return readings, nil
}
