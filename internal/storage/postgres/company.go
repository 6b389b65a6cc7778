package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/moodlit/internal/models"
)

func (s *Store) EnrollUser(ctx context.Context, company, userKey string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO company_users (user_key, company, enrolled_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_key, company) DO NOTHING
	`, userKey, company, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to enroll user: %w", err)
	}
	return nil
}

func (s *Store) CountEnrolledUsers(ctx context.Context, company string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM company_users WHERE company = $1", company).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count enrolled users: %w", err)
	}
	return n, nil
}

func (s *Store) CountActiveUsers(ctx context.Context, company string, start, end time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT user_key) FROM company_check_ins
		WHERE company = $1 AND date >= $2 AND date < $3
	`, company, start.UTC(), end.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return n, nil
}

func (s *Store) AddCompanyCheckIn(ctx context.Context, c models.CompanyCheckIn) (models.CompanyCheckIn, error) {
	tags, err := encodeTags(c.Mood.Tags)
	if err != nil {
		return models.CompanyCheckIn{}, err
	}
	if c.Date.IsZero() {
		c.Date = time.Now()
	}
	if c.Week == "" {
		c.Week = models.ISOWeek(c.Date)
	}
	if c.Mood.Polarity == "" {
		c.Mood.Polarity = models.PolarityPos
	}

	err = s.db.QueryRowContext(ctx, `
		INSERT INTO company_check_ins (user_key, company, week, date, mood, tags, competency, statement_response, polarity, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`,
		c.UserKey, c.Company, c.Week, c.Date.UTC(), c.Mood.Color, tags,
		int(c.Mood.Competency), c.Mood.StatementResponse, string(c.Mood.Polarity), c.Note,
	).Scan(&c.ID)
	if err != nil {
		return models.CompanyCheckIn{}, fmt.Errorf("failed to insert company check-in: %w", err)
	}
	return c, nil
}

func (s *Store) GetCompanyCheckIns(ctx context.Context, company string, start, end time.Time, category int) ([]models.CompanyCheckIn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_key, company, week, date, mood, tags, competency, statement_response, polarity, note
		FROM company_check_ins
		WHERE company = $1 AND date >= $2 AND date < $3 AND ($4 = 0 OR competency / 100 = $4)
		ORDER BY id
	`, company, start.UTC(), end.UTC(), category)
	if err != nil {
		return nil, fmt.Errorf("failed to query company check-ins: %w", err)
	}
	defer rows.Close()

	var out []models.CompanyCheckIn
	for rows.Next() {
		var (
			c              models.CompanyCheckIn
			tags, polarity string
			competency     int
		)
		if err := rows.Scan(&c.ID, &c.UserKey, &c.Company, &c.Week, &c.Date, &c.Mood.Color, &tags,
			&competency, &c.Mood.StatementResponse, &polarity, &c.Note); err != nil {
			return nil, err
		}
		c.Mood.Competency = models.CompetencyID(competency)
		c.Mood.Polarity = models.Polarity(polarity)
		c.Mood.Company = c.Company
		if c.Mood.Tags, err = decodeTags(tags); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) AddInsightReport(ctx context.Context, company, key, reason string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO insight_reports (company, insight_key, reason, created_at) VALUES ($1, $2, $3, $4)",
		company, key, reason, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record insight report: %w", err)
	}
	return nil
}
