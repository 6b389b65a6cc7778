package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// MoodValue is the mood payload of a check-in. Color holds the mood id.
type MoodValue struct {
	Color      int          `json:"color"`
	Tags       []int        `json:"tags"`
	Competency CompetencyID `json:"competency"`
	// StatementResponse is agreement with the positive form of the statement,
	// 0-1, whatever polarity was shown.
	StatementResponse float64  `json:"statementResponse"`
	Polarity          Polarity `json:"polarity,omitempty"`
	Company           string   `json:"company,omitempty"`
}

// CheckIn is a single submitted check-in. Check-ins are never updated.
type CheckIn struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`
	Mood MoodValue `json:"mood"`
	Note string    `json:"note,omitempty"`
}

// Day returns the local calendar day of the check-in.
func (c CheckIn) Day(loc *time.Location) string {
	return c.Date.In(loc).Format("2006-01-02")
}

// DisplayResponse returns the slider position to redisplay a stored response
// for the polarity the statement was shown in.
func DisplayResponse(stored float64, shown Polarity) float64 {
	if shown == PolarityNeg {
		return math.Round((1-stored)*100) / 100
	}
	return stored
}

// CompanyCheckIn is a check-in mirrored to the company service. UserKey is an
// opaque identity that never leaves the service.
type CompanyCheckIn struct {
	ID      int64     `json:"id"`
	UserKey string    `json:"-"`
	Company string    `json:"company"`
	Week    string    `json:"week"`
	Date    time.Time `json:"date"`
	Mood    MoodValue `json:"mood"`
	Note    string    `json:"note,omitempty"`
}

// AsCheckIn drops the company fields so company rows can flow through code
// written for personal check-ins.
func (c CompanyCheckIn) AsCheckIn() CheckIn {
	return CheckIn{ID: c.ID, Date: c.Date, Mood: c.Mood, Note: c.Note}
}

// ISOWeek returns the ISO week bucket label for t, e.g. "2026-W07".
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// Insight is a cached natural-language summary of a set of check-ins.
type Insight struct {
	Key        string    `json:"key"`
	CheckInIDs []int64   `json:"checkInIds"`
	Summary    string    `json:"summary"`
	Category   int       `json:"category,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// JoinIDs renders ids as a comma-separated list, the form used for insight
// keys and the insights table.
func JoinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}

// ParseIDs is the inverse of JoinIDs.
func ParseIDs(s string) ([]int64, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, p := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid check-in id %q: %w", p, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
