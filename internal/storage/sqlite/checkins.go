package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

const checkInColumns = "id, date, mood, tags, competency, statement_response, polarity, company, note"

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeTags(tags []int) (string, error) {
	if tags == nil {
		tags = []int{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(b), nil
}

func decodeTags(raw string) ([]int, error) {
	var tags []int
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return tags, nil
}

func polarityOrDefault(p models.Polarity) models.Polarity {
	if p == "" {
		return models.PolarityPos
	}
	return p
}

func scanCheckIn(row rowScanner) (models.CheckIn, error) {
	var (
		c          models.CheckIn
		date, tags string
		competency int
		polarity   string
	)
	if err := row.Scan(&c.ID, &date, &c.Mood.Color, &tags, &competency,
		&c.Mood.StatementResponse, &polarity, &c.Mood.Company, &c.Note); err != nil {
		return models.CheckIn{}, err
	}

	t, err := time.Parse(timeLayout, date)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("invalid check-in date %q: %w", date, err)
	}
	c.Date = t.Local()
	c.Mood.Competency = models.CompetencyID(competency)
	c.Mood.Polarity = models.Polarity(polarity)
	if c.Mood.Tags, err = decodeTags(tags); err != nil {
		return models.CheckIn{}, err
	}
	return c, nil
}

func (s *Store) AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error) {
	tags, err := encodeTags(c.Mood.Tags)
	if err != nil {
		return models.CheckIn{}, err
	}
	if c.Date.IsZero() {
		c.Date = time.Now()
	}
	c.Mood.Polarity = polarityOrDefault(c.Mood.Polarity)

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO check_ins (date, mood, tags, competency, statement_response, polarity, company, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.Date.UTC().Format(timeLayout), c.Mood.Color, tags, int(c.Mood.Competency),
		c.Mood.StatementResponse, string(c.Mood.Polarity), c.Mood.Company, c.Note,
	)
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("failed to insert check-in: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("failed to read check-in id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (s *Store) GetCheckIn(ctx context.Context, id int64) (models.CheckIn, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+checkInColumns+" FROM check_ins WHERE id = ?", id)
	c, err := scanCheckIn(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.CheckIn{}, fmt.Errorf("check-in %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return models.CheckIn{}, fmt.Errorf("failed to read check-in %d: %w", id, err)
	}
	return c, nil
}

func (s *Store) queryCheckIns(ctx context.Context, query string, args ...any) ([]models.CheckIn, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query check-ins: %w", err)
	}
	defer rows.Close()

	var out []models.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) GetCheckIns(ctx context.Context, start, end time.Time) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx,
		"SELECT "+checkInColumns+" FROM check_ins WHERE date >= ? AND date < ? ORDER BY id",
		start.UTC().Format(timeLayout), end.UTC().Format(timeLayout),
	)
}

func (s *Store) GetAllCheckIns(ctx context.Context) ([]models.CheckIn, error) {
	return s.queryCheckIns(ctx, "SELECT "+checkInColumns+" FROM check_ins ORDER BY id")
}

func (s *Store) DeleteCheckIn(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM check_ins WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete check-in %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete check-in %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("check-in %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func (s *Store) CountCheckInsByMood(ctx context.Context, start, end time.Time) (map[int]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT mood, COUNT(*) FROM check_ins
		WHERE date >= ? AND date < ?
		GROUP BY mood
	`, start.UTC().Format(timeLayout), end.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to count check-ins by mood: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var mood, n int
		if err := rows.Scan(&mood, &n); err != nil {
			return nil, err
		}
		counts[mood] = n
	}
	return counts, rows.Err()
}

func (s *Store) AddCheckInRecord(ctx context.Context, day string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO check_in_record (day, created_at) VALUES (?, ?)",
		day, time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert check-in record: %w", err)
	}
	return nil
}

func (s *Store) CountCheckInRecords(ctx context.Context, day string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM check_in_record WHERE day = ?", day).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count check-in records: %w", err)
	}
	return n, nil
}
