// Package stats aggregates library metrics for the dashboard.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/contextdeck/contextdeck/internal/db"
)

// uploadsWindowDays is how far back the per-day upload series reaches.
const uploadsWindowDays = 30

// topTagLimit caps the tag leaderboard.
const topTagLimit = 10

// Overview is the aggregate snapshot served by /api/stats.
type Overview struct {
	TotalContexts      int            `json:"total_contexts"`
	TotalChunks        int            `json:"total_chunks"`
	TotalPages         int            `json:"total_pages"`
	PublishedPages     int            `json:"published_pages"`
	TotalSize          int64          `json:"total_size"`
	TotalSizeHuman     string         `json:"total_size_human"`
	CountsByKind       map[string]int `json:"counts_by_kind"`
	UploadsPerDay      []DayCount     `json:"uploads_per_day"`
	TopTags            []TagCount     `json:"top_tags"`
	AnnotatedContexts  int            `json:"annotated_contexts"`
	AnnotationCoverage float64        `json:"annotation_coverage"`
}

// DayCount is the number of uploads on a single day.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// TagCount is how often a suggested tag appears across annotations.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Service computes library statistics from the database.
type Service struct {
	db *db.DB
}

// NewService creates a Service backed by the given database.
func NewService(database *db.DB) *Service {
	return &Service{db: database}
}

// Collect builds the full overview in one pass.
func (s *Service) Collect(ctx context.Context) (*Overview, error) {
	ov := &Overview{
		CountsByKind:  map[string]int{},
		UploadsPerDay: []DayCount{},
		TopTags:       []TagCount{},
	}

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(size), 0) FROM media_contexts").
		Scan(&ov.TotalContexts, &ov.TotalSize)
	if err != nil {
		return nil, fmt.Errorf("counting contexts: %w", err)
	}
	ov.TotalSizeHuman = humanize.Bytes(uint64(ov.TotalSize))

	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM media_chunks").Scan(&ov.TotalChunks); err != nil {
		return nil, fmt.Errorf("counting chunks: %w", err)
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			   COALESCE(SUM(CASE WHEN status = 'published' THEN 1 ELSE 0 END), 0)
		FROM generated_pages`).
		Scan(&ov.TotalPages, &ov.PublishedPages)
	if err != nil {
		return nil, fmt.Errorf("counting pages: %w", err)
	}

	if err := s.countsByKind(ctx, ov); err != nil {
		return nil, err
	}
	if err := s.uploadsPerDay(ctx, ov); err != nil {
		return nil, err
	}
	if err := s.topTags(ctx, ov); err != nil {
		return nil, err
	}
	if err := s.coverage(ctx, ov); err != nil {
		return nil, err
	}

	return ov, nil
}

func (s *Service) countsByKind(ctx context.Context, ov *Overview) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, COUNT(*) FROM media_contexts GROUP BY kind")
	if err != nil {
		return fmt.Errorf("counting by kind: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return err
		}
		ov.CountsByKind[kind] = count
	}
	return rows.Err()
}

func (s *Service) uploadsPerDay(ctx context.Context, ov *Overview) error {
	since := time.Now().UTC().AddDate(0, 0, -uploadsWindowDays).Format(time.DateOnly)

	rows, err := s.db.QueryContext(ctx, `
		SELECT date(created_at) AS day, COUNT(*)
		FROM media_contexts
		WHERE date(created_at) >= ?
		GROUP BY day ORDER BY day`, since)
	if err != nil {
		return fmt.Errorf("counting uploads per day: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return err
		}
		ov.UploadsPerDay = append(ov.UploadsPerDay, dc)
	}
	return rows.Err()
}

// topTags tallies comma-separated suggested tags across context and chunk
// annotations using SQLite's recursive split.
func (s *Service) topTags(ctx context.Context, ov *Overview) error {
	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE all_tags(tags) AS (
			SELECT suggested_tags FROM media_contexts WHERE suggested_tags != ''
			UNION ALL
			SELECT suggested_tags FROM media_chunks WHERE suggested_tags != ''
		),
		split(tag, rest) AS (
			SELECT '', tags || ',' FROM all_tags
			UNION ALL
			SELECT trim(substr(rest, 1, instr(rest, ',') - 1)),
				   substr(rest, instr(rest, ',') + 1)
			FROM split WHERE rest != ''
		)
		SELECT lower(tag), COUNT(*) FROM split
		WHERE tag != ''
		GROUP BY lower(tag)
		ORDER BY COUNT(*) DESC, lower(tag)
		LIMIT ?`, topTagLimit)
	if err != nil {
		return fmt.Errorf("counting tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return err
		}
		ov.TopTags = append(ov.TopTags, tc)
	}
	return rows.Err()
}

func (s *Service) coverage(ctx context.Context, ov *Overview) error {
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM media_contexts c
		WHERE c.summary != ''
		   OR EXISTS (SELECT 1 FROM media_chunks ch WHERE ch.media_context_id = c.id)`).
		Scan(&ov.AnnotatedContexts)
	if err != nil {
		return fmt.Errorf("counting annotated contexts: %w", err)
	}
	if ov.TotalContexts > 0 {
		ov.AnnotationCoverage = float64(ov.AnnotatedContexts) / float64(ov.TotalContexts)
	}
	return nil
}
