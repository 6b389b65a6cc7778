package insights

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
	"github.com/julianstephens/moodlit/internal/taxonomy"
	"github.com/julianstephens/moodlit/internal/textgen"
)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "moodlit.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleCheckIns() []models.CheckIn {
	day := time.Date(2026, 3, 2, 18, 0, 0, 0, time.Local)
	return []models.CheckIn{
		{ID: 3, Date: day, Mood: models.MoodValue{Color: 1, Tags: []int{1, 2}, Competency: 101, StatementResponse: 0.75, Polarity: models.PolarityPos}, Note: "shipped the\nrelease"},
		{ID: 1, Date: day.AddDate(0, 0, 1), Mood: models.MoodValue{Color: 1, Tags: []int{1}, Competency: 101, StatementResponse: 0.4, Polarity: models.PolarityNeg}},
	}
}

func TestKey(t *testing.T) {
	if got := Key([]int64{1, 2, 3}); got != "8a6ae15122001229edb8866f56e342af12ae8187203c3e3b33931743e7c0c48d" {
		t.Errorf("Key(1,2,3) = %s", got)
	}
	if Key([]int64{3, 1, 2}) != Key([]int64{1, 2, 3}) {
		t.Error("Key depends on id order")
	}
	if Key([]int64{1, 2}) == Key([]int64{1, 2, 3}) {
		t.Error("different sets share a key")
	}
	if ScopedKey("acme", []int64{1, 2, 3}) == Key([]int64{1, 2, 3}) {
		t.Error("scoped key equals unscoped key")
	}

	ids := []int64{9, 4}
	Key(ids)
	if ids[0] != 9 {
		t.Error("Key reordered its argument")
	}
}

func TestCategoryKey(t *testing.T) {
	ids := []int64{1, 2, 3}
	if CategoryKey("", 0, ids) != Key(ids) {
		t.Error("unfocused key differs from Key")
	}
	if CategoryKey("acme", 0, ids) != ScopedKey("acme", ids) {
		t.Error("unfocused scoped key differs from ScopedKey")
	}
	if CategoryKey("", 3, ids) == Key(ids) {
		t.Error("focused key equals unfocused key")
	}
	if CategoryKey("", 3, ids) == CategoryKey("", 4, ids) {
		t.Error("two categories share a key")
	}
	if CategoryKey("acme", 3, ids) == CategoryKey("", 3, ids) {
		t.Error("scope ignored for a focused key")
	}
}

func TestSummarizeCachesPerCategory(t *testing.T) {
	ctx := context.Background()
	gen := &textgen.Static{Response: "summary"}
	svc := NewService(NewStoreCache(setupStore(t)), gen, taxonomy.Default())

	plain, err := svc.Summarize(ctx, sampleCheckIns(), 0)
	if err != nil {
		t.Fatal(err)
	}
	focused, err := svc.Summarize(ctx, sampleCheckIns(), 3)
	if err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 2 {
		t.Errorf("generator called %d times, want 2 for a new category", gen.Calls())
	}
	if plain.Key == focused.Key || focused.Category != 3 {
		t.Errorf("focused insight = %+v", focused)
	}

	if _, err := svc.Summarize(ctx, sampleCheckIns(), 3); err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 2 {
		t.Errorf("focused summary not cached, %d calls", gen.Calls())
	}

	if err := svc.Report(ctx, focused.Key); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Summarize(ctx, sampleCheckIns(), 0); err != nil {
		t.Fatal(err)
	}
	if gen.Calls() != 2 {
		t.Errorf("reporting the focused summary dropped the unfocused one, %d calls", gen.Calls())
	}
}

func TestSummarizeMemoizes(t *testing.T) {
	ctx := context.Background()
	gen := &textgen.Static{Response: "  You had a steady week.  "}
	svc := NewService(NewStoreCache(setupStore(t)), gen, taxonomy.Default())

	first, err := svc.Summarize(ctx, sampleCheckIns(), 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if first.Summary != "You had a steady week." {
		t.Errorf("Summary = %q", first.Summary)
	}
	if first.Key != Key([]int64{1, 3}) {
		t.Errorf("Key = %s", first.Key)
	}
	if len(first.CheckInIDs) != 2 || first.CheckInIDs[0] != 1 {
		t.Errorf("CheckInIDs = %v, want sorted [1 3]", first.CheckInIDs)
	}

	second, err := svc.Summarize(ctx, sampleCheckIns(), 0)
	if err != nil {
		t.Fatalf("Summarize again: %v", err)
	}
	if second.Summary != first.Summary {
		t.Errorf("cached summary = %q", second.Summary)
	}
	if gen.Calls() != 1 {
		t.Errorf("generator called %d times, want 1", gen.Calls())
	}

	if _, err := svc.Summarize(ctx, sampleCheckIns()[:1], 0); err != nil {
		t.Fatalf("Summarize subset: %v", err)
	}
	if gen.Calls() != 2 {
		t.Errorf("generator called %d times for a new set, want 2", gen.Calls())
	}
}

func TestInvalidation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	gen := &textgen.Static{Response: "summary"}
	svc := NewService(NewStoreCache(store), gen, taxonomy.Default())

	insight, err := svc.Summarize(ctx, sampleCheckIns(), 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	t.Run("report", func(t *testing.T) {
		if err := svc.Report(ctx, insight.Key); err != nil {
			t.Fatalf("Report: %v", err)
		}
		if _, err := store.GetInsight(ctx, insight.Key); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("insight still cached after report: %v", err)
		}
		if err := svc.Report(ctx, ""); !errors.Is(err, ErrEmptyKey) {
			t.Errorf("Report(\"\") = %v", err)
		}
	})

	t.Run("check-in deleted", func(t *testing.T) {
		if _, err := svc.Summarize(ctx, sampleCheckIns(), 0); err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		n, err := svc.CheckInDeleted(ctx, 3)
		if err != nil {
			t.Fatalf("CheckInDeleted: %v", err)
		}
		if n != 1 {
			t.Errorf("removed %d insights, want 1", n)
		}
		before := gen.Calls()
		if _, err := svc.Summarize(ctx, sampleCheckIns(), 0); err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if gen.Calls() != before+1 {
			t.Error("expected regeneration after the check-in was deleted")
		}
	})
}

func TestSummarizeErrors(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	svc := NewService(NewStoreCache(store), &textgen.Static{Response: "x"}, taxonomy.Default())
	if _, err := svc.Summarize(ctx, nil, 0); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Summarize(nil) = %v, want ErrEmptyKey", err)
	}

	failing := NewService(NewStoreCache(store), &textgen.Static{Err: apperrors.ErrTransient}, taxonomy.Default())
	if _, err := failing.Summarize(ctx, sampleCheckIns(), 0); !errors.Is(err, apperrors.ErrTransient) {
		t.Errorf("Summarize with failing generator = %v", err)
	}
	if _, err := store.GetInsight(ctx, Key([]int64{1, 3})); !errors.Is(err, apperrors.ErrNotFound) {
		t.Error("failed generation must not be cached")
	}

	empty := NewService(NewStoreCache(store), &textgen.Static{Response: ""}, taxonomy.Default())
	if _, err := empty.Summarize(ctx, sampleCheckIns(), 0); err == nil {
		t.Error("expected error for an empty summary")
	}
}

func TestUserPrompt(t *testing.T) {
	svc := NewService(nil, nil, taxonomy.Default())
	prompt := svc.UserPrompt(sampleCheckIns(), 1)

	for _, want := range []string{
		`Focus on the "Recognition" area`,
		"Mon 2026-03-02",
		"mood: Joyful",
		"tags: Productive, Appreciated",
		`"My contributions were noticed this week." agreement: 75%`,
		"agreement: 40%",
		"note: shipped the release",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
	if lines := strings.Count(prompt, "\n- "); lines != 2 {
		t.Errorf("prompt has %d check-in lines, want 2", lines)
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("MOODLIT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MOODLIT_TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	client, err := DialRedis(ctx, addr, "", 0)
	if err != nil {
		t.Fatalf("DialRedis: %v", err)
	}
	defer client.Close()

	cache := NewRedisCache(client, time.Minute)
	ids := []int64{900001, 900002}
	in := models.Insight{Key: ScopedKey("test", ids), CheckInIDs: ids, Summary: "hello"}
	t.Cleanup(func() {
		_ = cache.Invalidate(ctx, in.Key)
		_, _ = cache.InvalidateCheckIn(ctx, 900001)
		_, _ = cache.InvalidateCheckIn(ctx, 900002)
	})

	if err := cache.Put(ctx, in); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := cache.Get(ctx, in.Key)
	if err != nil || got.Summary != "hello" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	n, err := cache.InvalidateCheckIn(ctx, 900002)
	if err != nil || n != 1 {
		t.Fatalf("InvalidateCheckIn = %d, %v", n, err)
	}
	if _, err := cache.Get(ctx, in.Key); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("Get after invalidation = %v", err)
	}
}
