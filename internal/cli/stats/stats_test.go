package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
	"github.com/julianstephens/moodlit/internal/textgen"
)

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local)

func setupTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "moodlit.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	out := &bytes.Buffer{}
	ctx := cli.New(store, cli.Env{})
	ctx.Out = out
	ctx.Now = func() time.Time { return fixedNow }
	return ctx, out
}

func seed(t *testing.T, ctx *cli.Context, moods ...int) {
	t.Helper()
	for i, mood := range moods {
		_, err := ctx.Store.AddCheckIn(context.Background(), models.CheckIn{
			Date: fixedNow.Add(-time.Duration(i) * time.Hour),
			Mood: models.MoodValue{
				Color:             mood,
				Tags:              []int{1},
				Competency:        301,
				StatementResponse: 0.5,
				Polarity:          models.PolarityPos,
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
}

func TestStatsCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	seed(t, ctx, 1, 1, 7)

	if err := (&StatsCmd{}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	got := out.String()
	for _, want := range []string{"Moods (3 check-ins)", "Joyful", "Tired", "Burnout risk", "Top tags", "Productive", "Recent colors"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestStatsCmdWeekAndEmpty(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := (&StatsCmd{Week: true}).Run(ctx); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if !strings.Contains(out.String(), "Mar 2 to Mar 8, 2026") {
		t.Errorf("expected Monday-start week header, got %q", out.String())
	}
	if !strings.Contains(out.String(), "No check-ins") {
		t.Errorf("expected empty message, got %q", out.String())
	}

	if err := (&StatsCmd{From: "bad"}).Run(ctx); err == nil {
		t.Error("expected error for invalid --from")
	}
}

func TestTierMarker(t *testing.T) {
	if got := tierMarker(models.TagWeight{Tier: 1}); !strings.HasPrefix(got, "▮▮▮▮▮▮") {
		t.Errorf("tier 1 marker = %q", got)
	}
	if got := strings.Count(tierMarker(models.TagWeight{Tier: 6}), "▮"); got != 1 {
		t.Errorf("tier 6 marker has %d bars", got)
	}
}

func TestInsightCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	seed(t, ctx, 1, 2)
	gen := &textgen.Static{Response: "You felt upbeat this week."}
	ctx.Generator = gen

	if err := (&InsightCmd{}).Run(ctx); err != nil {
		t.Fatalf("insight failed: %v", err)
	}
	if !strings.Contains(out.String(), "You felt upbeat this week.") {
		t.Errorf("unexpected output %q", out.String())
	}

	// Same set of check-ins is served from the cache.
	if err := (&InsightCmd{IDs: "2,1"}).Run(ctx); err != nil {
		t.Fatalf("insight by ids failed: %v", err)
	}
	if gen.Calls() != 1 {
		t.Errorf("expected 1 generation, got %d", gen.Calls())
	}

	out.Reset()
	if err := (&InsightCmd{Report: true}).Run(ctx); err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(out.String(), "removed") {
		t.Errorf("unexpected report output %q", out.String())
	}
	if err := (&InsightCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 2 {
		t.Errorf("expected regeneration after report, got %d calls", gen.Calls())
	}
}

func TestInsightCmdCategory(t *testing.T) {
	ctx, _ := setupTestContext(t)
	seed(t, ctx, 1, 2)
	gen := &textgen.Static{Response: "summary"}
	ctx.Generator = gen

	if err := (&InsightCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&InsightCmd{Category: 3}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 2 {
		t.Errorf("expected a separate summary for the category, got %d calls", gen.Calls())
	}

	if err := (&InsightCmd{Category: 3, Report: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if err := (&InsightCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 2 {
		t.Errorf("reporting the category summary dropped the unfocused one, got %d calls", gen.Calls())
	}
	if err := (&InsightCmd{Category: 3}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 3 {
		t.Errorf("expected regeneration of the reported category summary, got %d calls", gen.Calls())
	}
}

func TestInsightCmdErrors(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&InsightCmd{}).Run(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "No check-ins") {
		t.Errorf("expected empty message, got %q", out.String())
	}

	seed(t, ctx, 1)
	if err := (&InsightCmd{}).Run(ctx); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("expected missing key error, got %v", err)
	}
	ctx.Generator = &textgen.Static{Response: "x"}
	if err := (&InsightCmd{Category: 99}).Run(ctx); err == nil {
		t.Error("expected error for unknown category")
	}
	if err := (&InsightCmd{IDs: "42"}).Run(ctx); err == nil {
		t.Error("expected error for unknown check-in id")
	}
}
