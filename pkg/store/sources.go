package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pharmintel/core/internal/models"
)

// GetSourceByURL returns the tracked state for a monitored URL, or
// (nil, nil) when the URL has never been seen.
func (s *Store) GetSourceByURL(ctx context.Context, url string) (*models.TrackedSource, error) {
	var src models.TrackedSource
	err := s.pool.QueryRow(ctx, `
		SELECT id, authority, url, selector, content_hash, last_content, last_checked
		FROM regulatory_sources WHERE url = $1`,
		url,
	).Scan(&src.ID, &src.Authority, &src.URL, &src.Selector, &src.ContentHash, &src.LastContent, &src.LastChecked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load source: %w", err)
	}
	return &src, nil
}

// InsertSource records a source seen for the first time.
func (s *Store) InsertSource(ctx context.Context, src models.TrackedSource) error {
	if src.LastChecked.IsZero() {
		src.LastChecked = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO regulatory_sources (authority, url, selector, content_hash, last_content, last_checked)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		src.Authority, src.URL, src.Selector, src.ContentHash, src.LastContent, src.LastChecked,
	)
	if err != nil {
		return fmt.Errorf("failed to insert source: %w", err)
	}
	return nil
}

// TouchSource bumps last_checked without altering the stored hash.
func (s *Store) TouchSource(ctx context.Context, url string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE regulatory_sources SET last_checked = $2 WHERE url = $1`,
		url, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to touch source: %w", err)
	}
	return nil
}

// UpdateSourceContent stores the new hash and content after a detected
// change.
func (s *Store) UpdateSourceContent(ctx context.Context, url, contentHash, content string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE regulatory_sources
		SET content_hash = $2, last_content = $3, last_checked = $4
		WHERE url = $1`,
		url, contentHash, content, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to update source: %w", err)
	}
	return nil
}

// InsertAlert appends one alert record. No deduplication.
func (s *Store) InsertAlert(ctx context.Context, alert models.Alert) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO alerts (authority, title, summary, url)
		VALUES ($1, $2, $3, $4)`,
		alert.Authority, alert.Title, alert.Summary, alert.URL,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	return nil
}

func (s *Store) ListAlerts(ctx context.Context, limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, authority, title, summary, url, created_at
		FROM alerts ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.Authority, &a.Title, &a.Summary, &a.URL, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
