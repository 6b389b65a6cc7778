package checkins

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/keyring"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/session"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
)

type fakeTokens struct {
	token string
}

func (f *fakeTokens) Get() (string, error) {
	if f.token == "" {
		return "", keyring.ErrNotFound
	}
	return f.token, nil
}

func (f *fakeTokens) Set(s string) error { f.token = s; return nil }
func (f *fakeTokens) Delete() error      { f.token = ""; return nil }

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
	ctx.Tokens = &fakeTokens{}
	ctx.Rand = rand.New(rand.NewPCG(1, 2))
	ctx.Now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local) }
	return ctx, out
}

func ptr(f float64) *float64 { return &f }

func TestCheckInValidate(t *testing.T) {
	if err := (&CheckInCmd{Response: ptr(101)}).Validate(); err == nil {
		t.Error("expected error for response above 100")
	}
	if err := (&CheckInCmd{Response: ptr(-1)}).Validate(); err == nil {
		t.Error("expected error for negative response")
	}
	if err := (&CheckInCmd{Response: ptr(40)}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckInWithFlags(t *testing.T) {
	ctx, out := setupTestContext(t)

	cmd := &CheckInCmd{Mood: "joyful", Tags: []string{"Productive,2"}, Response: ptr(75), Note: "good day"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}
	if !strings.Contains(out.String(), "Checked in #1: Joyful (Productive, Appreciated)") {
		t.Errorf("unexpected output: %q", out.String())
	}

	list, err := ctx.Store.GetAllCheckIns(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 check-in, got %d", len(list))
	}
	got := list[0]
	if got.Mood.Color != 1 || got.Note != "good day" || len(got.Mood.Tags) != 2 {
		t.Errorf("unexpected check-in %+v", got)
	}
	if display := models.DisplayResponse(got.Mood.StatementResponse, got.Mood.Polarity); display != 0.75 {
		t.Errorf("expected redisplayed agreement 0.75, got %v", display)
	}
}

func TestCheckInFlagResponseWithNegativeTags(t *testing.T) {
	ctx, out := setupTestContext(t)

	// Drained and Distracted are both negative, so the negative wording is picked.
	cmd := &CheckInCmd{Mood: "tired", Tags: []string{"Drained", "Distracted"}, Response: ptr(80)}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("checkin failed: %v", err)
	}

	list, err := ctx.Store.GetAllCheckIns(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 check-in, got %d", len(list))
	}
	got := list[0]
	if got.Mood.Polarity != models.PolarityNeg {
		t.Fatalf("expected negative polarity, got %q", got.Mood.Polarity)
	}
	if got.Mood.StatementResponse != 0.8 {
		t.Errorf("expected stored agreement 0.8, got %v", got.Mood.StatementResponse)
	}
	if display := models.DisplayResponse(got.Mood.StatementResponse, got.Mood.Polarity); display != 0.2 {
		t.Errorf("expected agreement 0.2 with the negative wording, got %v", display)
	}

	comp, err := ctx.Taxonomy.Competency(got.Mood.Competency)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), comp.Statement(models.PolarityPos)+": 80%") {
		t.Errorf("expected the positive wording in output, got %q", out.String())
	}
}

func TestCheckInUnknownValues(t *testing.T) {
	ctx, _ := setupTestContext(t)

	tests := []struct {
		name string
		cmd  CheckInCmd
	}{
		{"unknown mood name", CheckInCmd{Mood: "ecstatic", Tags: []string{"1"}, Response: ptr(50)}},
		{"unknown mood id", CheckInCmd{Mood: "42", Tags: []string{"1"}, Response: ptr(50)}},
		{"unknown tag", CheckInCmd{Mood: "1", Tags: []string{"nope"}, Response: ptr(50)}},
		{"blank tags", CheckInCmd{Mood: "1", Tags: []string{" , "}, Response: ptr(50)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func companyServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/check-in" || r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req models.CheckInRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.CheckIn.Note != "" {
			t.Error("note must not leave the device")
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.Envelope[any]{Message: "ok"})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckInMirrorsOncePerDay(t *testing.T) {
	ctx, out := setupTestContext(t)
	var hits atomic.Int32
	ctx.Env.APIURL = companyServer(t, &hits).URL
	ctx.Tokens = &fakeTokens{token: "tok"}

	bg := context.Background()
	if err := session.JoinCompany(bg, ctx.Store, "Acme", nil); err != nil {
		t.Fatal(err)
	}
	if err := session.SetConsent(bg, ctx.Store, true); err != nil {
		t.Fatal(err)
	}

	cmd := &CheckInCmd{Mood: "1", Tags: []string{"1"}, Response: ptr(60), Note: "private"}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("first checkin failed: %v", err)
	}
	if !strings.Contains(out.String(), "Shared anonymously with Acme") {
		t.Errorf("expected share message, got %q", out.String())
	}

	out.Reset()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("second checkin failed: %v", err)
	}
	if !strings.Contains(out.String(), "Already shared") {
		t.Errorf("expected already-shared message, got %q", out.String())
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("expected 1 mirror request, got %d", got)
	}
}

func TestCheckInUnauthorizedClearsIdentity(t *testing.T) {
	ctx, out := setupTestContext(t)
	var hits atomic.Int32
	ctx.Env.APIURL = companyServer(t, &hits).URL
	tokens := &fakeTokens{token: "revoked"}
	ctx.Tokens = tokens

	bg := context.Background()
	session.JoinCompany(bg, ctx.Store, "Acme", nil)
	session.SetConsent(bg, ctx.Store, true)

	cmd := &CheckInCmd{Mood: "1", Tags: []string{"1"}, Response: ptr(60)}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("checkin must succeed locally: %v", err)
	}
	if !strings.Contains(out.String(), "Access denied") {
		t.Errorf("expected access denied message, got %q", out.String())
	}
	if tokens.token != "" {
		t.Error("expected identity token to be removed")
	}
	st, err := session.Load(bg, ctx.Store)
	if err != nil {
		t.Fatal(err)
	}
	if st.Sharing() {
		t.Error("expected sharing to be turned off")
	}
	n, _ := ctx.Store.GetAllCheckIns(bg)
	if len(n) != 1 {
		t.Errorf("expected the local check-in to be kept, got %d", len(n))
	}
}

func TestListShowDelete(t *testing.T) {
	ctx, out := setupTestContext(t)
	bg := context.Background()

	for _, mood := range []string{"1", "7"} {
		cmd := &CheckInCmd{Mood: mood, Tags: []string{"1"}, Response: ptr(50)}
		if err := cmd.Run(ctx); err != nil {
			t.Fatal(err)
		}
	}
	today := ctx.Now().Format("2006-01-02")

	out.Reset()
	if err := (&ListCmd{From: today, To: today}).Run(ctx); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	for _, want := range []string{"Joyful", "Tired", "Productive", "50%"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q: %q", want, out.String())
		}
	}

	out.Reset()
	if err := (&ShowCmd{ID: 2}).Run(ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Check-in #2") || !strings.Contains(out.String(), "Tired") {
		t.Errorf("unexpected show output: %q", out.String())
	}

	if err := (&DeleteCmd{ID: 1}).Run(ctx); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := (&ShowCmd{ID: 1}).Run(ctx); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found after delete, got %v", err)
	}
	if err := (&DeleteCmd{ID: 1}).Run(ctx); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found on second delete, got %v", err)
	}

	list, _ := ctx.Store.GetAllCheckIns(bg)
	if len(list) != 1 {
		t.Errorf("expected 1 remaining check-in, got %d", len(list))
	}
}

func TestListEmpty(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := (&ListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No check-ins") {
		t.Errorf("unexpected output: %q", out.String())
	}
}
