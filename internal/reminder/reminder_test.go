package reminder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
)

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []string
}

func (f *fakeSender) Send(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func setupStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store := sqlite.NewStore(filepath.Join(t.TempDir(), "moodlit.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func addCheckIn(t *testing.T, store *sqlite.Store, at time.Time) {
	t.Helper()
	_, err := store.AddCheckIn(context.Background(), models.CheckIn{
		Date: at.UTC(),
		Mood: models.MoodValue{Color: 2, Tags: []int{1}, Competency: 101, StatementResponse: 0.5, Polarity: models.PolarityPos},
	})
	if err != nil {
		t.Fatalf("failed to add check-in: %v", err)
	}
}

func TestTick(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}
	now := time.Date(2026, 3, 4, 17, 0, 0, 0, loc)
	ctx := context.Background()

	t.Run("sends when today is empty", func(t *testing.T) {
		store := setupStore(t)
		// Yesterday evening local time does not cover today.
		addCheckIn(t, store, now.Add(-20*time.Hour))

		sender := &fakeSender{}
		r := New(store, sender, loc, WithClock(func() time.Time { return now }))
		sent, err := r.Tick(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !sent || sender.count() != 1 {
			t.Fatalf("expected one reminder, sent=%v count=%d", sent, sender.count())
		}
		if sender.sent[0] != constants.DefaultReminderText {
			t.Errorf("unexpected text %q", sender.sent[0])
		}
	})

	t.Run("skips when already checked in", func(t *testing.T) {
		store := setupStore(t)
		addCheckIn(t, store, time.Date(2026, 3, 4, 0, 30, 0, 0, loc))

		sender := &fakeSender{}
		r := New(store, sender, loc, WithClock(func() time.Time { return now }))
		sent, err := r.Tick(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if sent || sender.count() != 0 {
			t.Errorf("expected no reminder, sent=%v count=%d", sent, sender.count())
		}
	})

	t.Run("custom text and sender failure", func(t *testing.T) {
		store := setupStore(t)
		sender := &fakeSender{err: errors.New("offline")}
		r := New(store, sender, loc, WithClock(func() time.Time { return now }), WithText("check in!"))
		sent, err := r.Tick(ctx)
		if err == nil || sent {
			t.Fatalf("expected failure, sent=%v err=%v", sent, err)
		}
		if sender.sent[0] != "check in!" {
			t.Errorf("unexpected text %q", sender.sent[0])
		}
	})
}

func TestRun(t *testing.T) {
	store := setupStore(t)
	sender := &fakeSender{}
	r := New(store, sender, time.UTC)

	if err := r.Run(context.Background(), "not a schedule"); err == nil {
		t.Fatal("expected invalid schedule error")
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, "@every 1s") }()

	deadline := time.After(3 * time.Second)
	for sender.count() == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("reminder never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		spec    string
		wantErr bool
	}{
		{spec: constants.DefaultReminderSchedule},
		{spec: "30 9 * * *"},
		{spec: "* * *", wantErr: true},
		{spec: "61 * * * *", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			if err := ValidateSchedule(tt.spec); (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.spec, err, tt.wantErr)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	first := &fakeSender{err: errors.New("tray down")}
	second := &fakeSender{}

	if err := (Fallback{first, second}).Send(ctx, "hi"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.count() != 1 || second.count() != 1 {
		t.Errorf("expected both senders tried once, got %d and %d", first.count(), second.count())
	}

	second.err = errors.New("telegram down")
	err := (Fallback{first, second}).Send(ctx, "hi")
	if err == nil || !strings.Contains(err.Error(), "tray down") || !strings.Contains(err.Error(), "telegram down") {
		t.Errorf("expected joined error, got %v", err)
	}

	if err := (Fallback{}).Send(ctx, "hi"); err == nil {
		t.Error("expected error with no senders")
	}
}

func TestTelegramSender(t *testing.T) {
	var mu sync.Mutex
	var got struct {
		chatID, text, mode string
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"moodlit","username":"moodlit_bot"}}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			if err := r.ParseForm(); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			mu.Lock()
			got.chatID = r.FormValue("chat_id")
			got.text = r.FormValue("text")
			got.mode = r.FormValue("parse_mode")
			mu.Unlock()
			_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":7,"date":0,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	if _, err := NewTelegramSender("", 42, srv.URL+"/bot%s/%s"); err == nil {
		t.Error("expected error for missing token")
	}

	sender, err := NewTelegramSender("123:abc", 42, srv.URL+"/bot%s/%s")
	if err != nil {
		t.Fatalf("NewTelegramSender: %v", err)
	}
	if err := sender.Send(context.Background(), "a & b"); err != nil {
		t.Fatalf("Send: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got.chatID != "42" || got.mode != "HTML" {
		t.Errorf("unexpected request chat=%s mode=%s", got.chatID, got.mode)
	}
	if !strings.Contains(got.text, "a &amp; b") {
		t.Errorf("expected escaped text, got %q", got.text)
	}
}
