package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

func (s *Store) GetInsight(ctx context.Context, key string) (models.Insight, error) {
	var (
		in        models.Insight
		ids       string
		createdAt string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT key, check_in_ids, summary, category, created_at FROM insights WHERE key = ?", key,
	).Scan(&in.Key, &ids, &in.Summary, &in.Category, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Insight{}, fmt.Errorf("insight %s: %w", key, apperrors.ErrNotFound)
	}
	if err != nil {
		return models.Insight{}, fmt.Errorf("failed to read insight: %w", err)
	}

	if in.CheckInIDs, err = models.ParseIDs(ids); err != nil {
		return models.Insight{}, err
	}
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		in.CreatedAt = t.Local()
	}
	return in, nil
}

func (s *Store) SaveInsight(ctx context.Context, in models.Insight) error {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO insights (key, check_in_ids, summary, category, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, in.Key, models.JoinIDs(in.CheckInIDs), in.Summary, in.Category, in.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("failed to save insight: %w", err)
	}
	return nil
}

func (s *Store) DeleteInsight(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM insights WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete insight: %w", err)
	}
	return nil
}

func (s *Store) DeleteInsightsForCheckIn(ctx context.Context, id int64) (int, error) {
	pattern := "%," + strconv.FormatInt(id, 10) + ",%"
	res, err := s.db.ExecContext(ctx, "DELETE FROM insights WHERE ',' || check_in_ids || ',' LIKE ?", pattern)
	if err != nil {
		return 0, fmt.Errorf("failed to invalidate insights for check-in %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
