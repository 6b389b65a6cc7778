package recorder

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/insights"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/selector"
	"github.com/julianstephens/moodlit/internal/session"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
	"github.com/julianstephens/moodlit/internal/taxonomy"
	"github.com/julianstephens/moodlit/internal/textgen"
)

type fakeMirror struct {
	err    error
	posted []models.CheckIn
}

func (m *fakeMirror) PostCheckIn(ctx context.Context, c models.CheckIn) error {
	m.posted = append(m.posted, c)
	return m.err
}

type fakeTokens struct {
	token   string
	deleted bool
}

func (f *fakeTokens) Get() (string, error) {
	if f.token == "" {
		return "", apperrors.ErrNotFound
	}
	return f.token, nil
}

func (f *fakeTokens) Delete() error {
	f.token = ""
	f.deleted = true
	return nil
}

var fixedNow = time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC)

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "moodlit.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func validSubmission() Submission {
	return Submission{
		MoodID:      1,
		Tags:        []int{1, 2},
		Competency:  101,
		RawResponse: 0.8,
		Polarity:    models.PolarityPos,
		Note:        "  good day  ",
	}
}

func sharingState() session.State {
	return session.State{Consent: true, Company: "acme", Timezone: "UTC"}
}

func TestConvertResponse(t *testing.T) {
	tests := []struct {
		raw      float64
		polarity models.Polarity
		want     float64
	}{
		{0.8, models.PolarityPos, 0.8},
		{0.333, models.PolarityPos, 0.33},
		{0.126, models.PolarityPos, 0.13},
		{0.9, models.PolarityNeg, 0.1},
		{0.7, models.PolarityNeg, 0.3},
		{0.555, models.PolarityNeg, 0.44},
		{0, models.PolarityNeg, 1},
		{1, models.PolarityNeg, 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v_%s", tt.raw, tt.polarity), func(t *testing.T) {
			if got := ConvertResponse(tt.raw, tt.polarity); got != tt.want {
				t.Errorf("ConvertResponse(%v, %s) = %v, want %v", tt.raw, tt.polarity, got, tt.want)
			}
		})
	}
}

func TestConvertThenDisplay(t *testing.T) {
	for _, raw := range []float64{0, 0.1, 0.25, 0.5, 0.7, 0.9, 1} {
		stored := ConvertResponse(raw, models.PolarityNeg)
		if got := models.DisplayResponse(stored, models.PolarityNeg); got != raw {
			t.Errorf("display of neg %v = %v", raw, got)
		}
	}
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	rec := New(store, taxonomy.Default(), nil, WithClock(func() time.Time { return fixedNow }))

	sub := validSubmission()
	sub.Polarity = models.PolarityNeg
	sub.RawResponse = 0.9
	c, err := rec.Record(ctx, sub)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if c.ID == 0 {
		t.Error("expected an assigned id")
	}
	if c.Mood.StatementResponse != 0.1 || c.Mood.Polarity != models.PolarityNeg {
		t.Errorf("stored response = %v %s", c.Mood.StatementResponse, c.Mood.Polarity)
	}
	if c.Note != "good day" {
		t.Errorf("note = %q", c.Note)
	}

	got, err := store.GetCheckIn(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetCheckIn: %v", err)
	}
	if !got.Date.Equal(fixedNow) {
		t.Errorf("date = %v, want %v", got.Date, fixedNow)
	}

	next, err := rec.Record(ctx, validSubmission())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if next.ID <= c.ID {
		t.Errorf("ids not increasing: %d then %d", c.ID, next.ID)
	}
}

func TestRecordValidation(t *testing.T) {
	rec := New(setupStore(t), taxonomy.Default(), nil)

	tests := []struct {
		name   string
		modify func(*Submission)
		want   error
	}{
		{"unknown mood", func(s *Submission) { s.MoodID = 13 }, taxonomy.ErrUnknownMood},
		{"no tags", func(s *Submission) { s.Tags = nil }, selector.ErrNoTags},
		{"unknown tag", func(s *Submission) { s.Tags = []int{1, 99} }, taxonomy.ErrUnknownTag},
		{"unknown competency", func(s *Submission) { s.Competency = 199 }, taxonomy.ErrUnknownCompetency},
		{"response too high", func(s *Submission) { s.RawResponse = 1.2 }, ErrInvalidResponse},
		{"response negative", func(s *Submission) { s.RawResponse = -0.1 }, ErrInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			tt.modify(&sub)
			if _, err := rec.Record(context.Background(), sub); !errors.Is(err, tt.want) {
				t.Errorf("Record() error = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("bad polarity", func(t *testing.T) {
		sub := validSubmission()
		sub.Polarity = "meh"
		if _, err := rec.Record(context.Background(), sub); err == nil {
			t.Error("expected error")
		}
	})
}

func TestMirrorToCompany(t *testing.T) {
	ctx := context.Background()
	clock := WithClock(func() time.Time { return fixedNow })

	t.Run("not configured", func(t *testing.T) {
		rec := New(setupStore(t), taxonomy.Default(), nil, clock)
		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, sharingState(), selector.Result{}); got != MirrorNotConfigured {
			t.Errorf("outcome = %s", got)
		}
	})

	t.Run("without consent", func(t *testing.T) {
		mirror := &fakeMirror{}
		rec := New(setupStore(t), taxonomy.Default(), nil, clock, WithMirror(mirror, &fakeTokens{token: "tok"}))
		st := sharingState()
		st.Consent = false
		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, st, selector.Result{}); got != MirrorNotSharing {
			t.Errorf("outcome = %s", got)
		}
		if len(mirror.posted) != 0 {
			t.Error("posted without consent")
		}
	})

	t.Run("without token", func(t *testing.T) {
		mirror := &fakeMirror{}
		rec := New(setupStore(t), taxonomy.Default(), nil, clock, WithMirror(mirror, &fakeTokens{}))
		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, sharingState(), selector.Result{}); got != MirrorNoIdentity {
			t.Errorf("outcome = %s", got)
		}
	})

	t.Run("once per day", func(t *testing.T) {
		store := setupStore(t)
		mirror := &fakeMirror{}
		rec := New(store, taxonomy.Default(), nil, clock, WithMirror(mirror, &fakeTokens{token: "tok"}))
		sel := selector.Result{CompetencyID: 302, FocusedCategory: 3, PersistFocused: true}

		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, sharingState(), sel); got != MirrorSent {
			t.Fatalf("first outcome = %s", got)
		}
		if mirror.posted[0].Mood.Company != "acme" {
			t.Errorf("company = %q", mirror.posted[0].Mood.Company)
		}
		if n, _ := store.CountCheckInRecords(ctx, "2026-03-04"); n != 1 {
			t.Errorf("markers = %d, want 1", n)
		}
		if v, _ := store.GetSetting(ctx, constants.SettingPreviousFocusedStatement); v != "3.02" {
			t.Errorf("previous focused statement = %q, want 3.02", v)
		}

		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 2}, sharingState(), sel); got != MirrorAlreadySent {
			t.Errorf("second outcome = %s", got)
		}
		if len(mirror.posted) != 1 {
			t.Errorf("posted %d times, want 1", len(mirror.posted))
		}
	})

	t.Run("exhausted focus is cleared", func(t *testing.T) {
		store := setupStore(t)
		if err := session.SetFocus(ctx, store, 3); err != nil {
			t.Fatal(err)
		}
		rec := New(store, taxonomy.Default(), nil, clock, WithMirror(&fakeMirror{}, &fakeTokens{token: "tok"}))
		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, sharingState(), selector.Result{CompetencyID: 104, ClearFocus: true}); got != MirrorSent {
			t.Fatalf("outcome = %s", got)
		}
		if _, err := store.GetSetting(ctx, constants.SettingFocusedCategory); !errors.Is(err, apperrors.ErrNotFound) {
			t.Errorf("focused category still set: %v", err)
		}
	})

	t.Run("transient failure writes no marker", func(t *testing.T) {
		store := setupStore(t)
		mirror := &fakeMirror{err: fmt.Errorf("%w: timeout", apperrors.ErrTransient)}
		rec := New(store, taxonomy.Default(), nil, clock, WithMirror(mirror, &fakeTokens{token: "tok"}))
		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, sharingState(), selector.Result{}); got != MirrorFailed {
			t.Errorf("outcome = %s", got)
		}
		if n, _ := store.CountCheckInRecords(ctx, "2026-03-04"); n != 0 {
			t.Errorf("markers = %d after failure", n)
		}
	})

	t.Run("unauthorized clears identity", func(t *testing.T) {
		store := setupStore(t)
		if err := session.JoinCompany(ctx, store, "acme", []int{1, 2}); err != nil {
			t.Fatal(err)
		}
		if err := session.SetConsent(ctx, store, true); err != nil {
			t.Fatal(err)
		}
		tokens := &fakeTokens{token: "tok"}
		rec := New(store, taxonomy.Default(), nil, clock, WithMirror(&fakeMirror{err: apperrors.ErrUnauthorized}, tokens))

		if got := rec.MirrorToCompany(ctx, models.CheckIn{ID: 1}, sharingState(), selector.Result{}); got != MirrorUnauthorized {
			t.Fatalf("outcome = %s", got)
		}
		if !tokens.deleted {
			t.Error("identity token not deleted")
		}
		st, err := session.Load(ctx, store)
		if err != nil {
			t.Fatalf("session.Load: %v", err)
		}
		if st.Sharing() || st.Consent {
			t.Errorf("sharing state survived a 401: %+v", st)
		}
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)
	gen := &textgen.Static{Response: "summary"}
	svc := insights.NewService(insights.NewStoreCache(store), gen, taxonomy.Default())
	rec := New(store, taxonomy.Default(), svc)

	c, err := rec.Record(ctx, validSubmission())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	insight, err := svc.Summarize(ctx, []models.CheckIn{c}, 0)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}

	if err := rec.Delete(ctx, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetCheckIn(ctx, c.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("check-in still present: %v", err)
	}
	if _, err := store.GetInsight(ctx, insight.Key); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("insight survived deletion: %v", err)
	}
	if err := rec.Delete(ctx, c.ID); !errors.Is(err, apperrors.ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}
