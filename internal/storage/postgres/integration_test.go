package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

// TestStore_Integration runs against a real database.
// Set POSTGRES_TEST_URL to run it, e.g.
// POSTGRES_TEST_URL="postgres://moodlit@localhost:5432/moodlit_test?sslmode=disable"
func TestStore_Integration(t *testing.T) {
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	store := New(connStr)
	if err := store.Init(); err != nil {
		t.Fatalf("Failed to initialize store: %v", err)
	}
	defer store.Close()

	ctx := context.Background()

	t.Run("Settings", func(t *testing.T) {
		if err := store.SetSetting(ctx, "it_key", "v1"); err != nil {
			t.Fatalf("SetSetting: %v", err)
		}
		if err := store.SetSetting(ctx, "it_key", "v2"); err != nil {
			t.Fatalf("SetSetting upsert: %v", err)
		}
		if v, err := store.GetSetting(ctx, "it_key"); err != nil || v != "v2" {
			t.Errorf("GetSetting = %q, %v", v, err)
		}
		if err := store.RemoveSetting(ctx, "it_key"); err != nil {
			t.Fatalf("RemoveSetting: %v", err)
		}
	})

	t.Run("CheckIns", func(t *testing.T) {
		now := time.Now().Truncate(time.Microsecond)
		c, err := store.AddCheckIn(ctx, models.CheckIn{
			Date: now,
			Mood: models.MoodValue{Color: 3, Tags: []int{1, 5}, Competency: 302, StatementResponse: 0.4},
		})
		if err != nil {
			t.Fatalf("AddCheckIn: %v", err)
		}
		got, err := store.GetCheckIn(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetCheckIn: %v", err)
		}
		if !got.Date.Equal(now) || got.Mood.Competency != 302 || len(got.Mood.Tags) != 2 {
			t.Errorf("GetCheckIn = %+v", got)
		}

		if err := store.SaveInsight(ctx, models.Insight{Key: "it", CheckInIDs: []int64{c.ID}, Summary: "s"}); err != nil {
			t.Fatalf("SaveInsight: %v", err)
		}
		if n, err := store.DeleteInsightsForCheckIn(ctx, c.ID); err != nil || n != 1 {
			t.Errorf("DeleteInsightsForCheckIn = %d, %v", n, err)
		}

		if err := store.DeleteCheckIn(ctx, c.ID); err != nil {
			t.Fatalf("DeleteCheckIn: %v", err)
		}
		if _, err := store.GetCheckIn(ctx, c.ID); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("GetCheckIn after delete = %v", err)
		}
	})

	t.Run("Company", func(t *testing.T) {
		company := "it-" + time.Now().Format("150405.000000")
		if err := store.EnrollUser(ctx, company, "u1"); err != nil {
			t.Fatalf("EnrollUser: %v", err)
		}
		if _, err := store.AddCompanyCheckIn(ctx, models.CompanyCheckIn{
			UserKey: "u1", Company: company,
			Mood: models.MoodValue{Color: 1, Competency: 101, StatementResponse: 0.8},
		}); err != nil {
			t.Fatalf("AddCompanyCheckIn: %v", err)
		}
		start, end := time.Now().Add(-time.Hour), time.Now().Add(time.Hour)
		rows, err := store.GetCompanyCheckIns(ctx, company, start, end, 1)
		if err != nil || len(rows) != 1 {
			t.Errorf("GetCompanyCheckIns = %d, %v", len(rows), err)
		}
		if n, err := store.CountActiveUsers(ctx, company, start, end); err != nil || n != 1 {
			t.Errorf("CountActiveUsers = %d, %v", n, err)
		}
	})
}
