package storage

import (
	"context"
	"time"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

// ErrNotFound is returned for missing settings, check-ins and insights.
var ErrNotFound = apperrors.ErrNotFound

// Provider is the device-local store: a key/value settings table, the
// append-only check-in event log, the per-day company mirror markers and
// the insight cache.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	RemoveSetting(ctx context.Context, key string) error

	// Check-ins
	AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error)
	GetCheckIn(ctx context.Context, id int64) (models.CheckIn, error)
	// GetCheckIns returns check-ins with start <= date < end in id order.
	GetCheckIns(ctx context.Context, start, end time.Time) ([]models.CheckIn, error)
	GetAllCheckIns(ctx context.Context) ([]models.CheckIn, error)
	DeleteCheckIn(ctx context.Context, id int64) error
	// CountCheckInsByMood groups check-ins in [start, end) by mood id.
	CountCheckInsByMood(ctx context.Context, start, end time.Time) (map[int]int, error)

	// Company mirror markers, one row per successful mirror keyed by local day.
	AddCheckInRecord(ctx context.Context, day string) error
	CountCheckInRecords(ctx context.Context, day string) (int, error)

	// Insights
	GetInsight(ctx context.Context, key string) (models.Insight, error)
	SaveInsight(ctx context.Context, insight models.Insight) error
	DeleteInsight(ctx context.Context, key string) error
	// DeleteInsightsForCheckIn removes every insight built from the check-in
	// and returns how many were removed.
	DeleteInsightsForCheckIn(ctx context.Context, id int64) (int, error)

	// Utils
	GetConfigPath() string
}

// CompanyProvider is the server-side store behind the aggregation service.
type CompanyProvider interface {
	Provider

	EnrollUser(ctx context.Context, company, userKey string) error
	CountEnrolledUsers(ctx context.Context, company string) (int, error)
	// CountActiveUsers counts distinct users with a check-in in [start, end).
	CountActiveUsers(ctx context.Context, company string, start, end time.Time) (int, error)

	AddCompanyCheckIn(ctx context.Context, c models.CompanyCheckIn) (models.CompanyCheckIn, error)
	// GetCompanyCheckIns returns a company's check-ins in [start, end) in id
	// order. A nonzero category keeps only competencies of that category.
	GetCompanyCheckIns(ctx context.Context, company string, start, end time.Time, category int) ([]models.CompanyCheckIn, error)

	AddInsightReport(ctx context.Context, company, key, reason string) error
}
