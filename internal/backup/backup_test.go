package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
)

func setupDB(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moodlit.db")
	store := sqlite.NewStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, path
}

func addCheckIn(t *testing.T, store *sqlite.Store) {
	t.Helper()
	_, err := store.AddCheckIn(context.Background(), models.CheckIn{
		Mood: models.MoodValue{Color: 1, Competency: 301, StatementResponse: 0.5},
	})
	if err != nil {
		t.Fatal(err)
	}
}

// steppedClock advances one minute per call.
func steppedClock() func() time.Time {
	t := time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestCreateAndList(t *testing.T) {
	store, path := setupDB(t)
	addCheckIn(t, store)

	m := NewManager(path)
	m.now = steppedClock()
	first, err := m.Create()
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	second, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}

	list, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(list))
	}
	if list[0].Path != second || list[1].Path != first {
		t.Errorf("expected newest first, got %s, %s", list[0].Path, list[1].Path)
	}
	if list[0].Size == 0 {
		t.Error("expected non-empty backup")
	}
}

func TestCreateSameSecond(t *testing.T) {
	_, path := setupDB(t)
	m := NewManager(path)
	fixed := time.Date(2026, 3, 4, 9, 0, 0, 0, time.Local)
	m.now = func() time.Time { return fixed }

	a, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("expected unique names, both %s", a)
	}
}

func TestRotation(t *testing.T) {
	_, path := setupDB(t)
	m := NewManager(path)
	m.now = steppedClock()
	for range MaxBackups + 3 {
		if _, err := m.Create(); err != nil {
			t.Fatal(err)
		}
	}
	list, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", MaxBackups, len(list))
	}
}

func TestListMissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "moodlit.db"))
	list, err := m.List()
	if err != nil || len(list) != 0 {
		t.Errorf("List() = %v, %v", list, err)
	}
	if _, err := m.Create(); err == nil {
		t.Error("expected error backing up a missing database")
	}
}

func TestParseStamp(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"20260304-120000", true},
		{"20260304-120000-3", true},
		{"20260304-1200", true},
		{"20260304-1200-2", true},
		{"20260304", false},
		{"notastamp-x", false},
	}
	for _, tt := range tests {
		if _, ok := parseStamp(tt.in); ok != tt.ok {
			t.Errorf("parseStamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}

func TestRestore(t *testing.T) {
	store, path := setupDB(t)
	m := NewManager(path)
	m.now = steppedClock()

	snap, err := m.Create()
	if err != nil {
		t.Fatal(err)
	}
	addCheckIn(t, store)
	addCheckIn(t, store)
	store.Close()

	if err := m.Restore(snap); err != nil {
		t.Fatalf("Restore() failed: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatal(err)
	}
	list, err := store.GetAllCheckIns(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("expected restored database without check-ins, got %d", len(list))
	}

	backups, _ := m.List()
	if len(backups) != 2 {
		t.Errorf("expected a safety backup before restore, got %d backups", len(backups))
	}
}

func TestRestoreRejectsGarbage(t *testing.T) {
	_, path := setupDB(t)
	bad := filepath.Join(t.TempDir(), "bad.db")
	if err := os.WriteFile(bad, []byte("not a database"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := NewManager(path).Restore(bad); err == nil {
		t.Error("expected error restoring garbage")
	}
}
