package backups

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/julianstephens/moodlit/internal/backup"
	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/storage/sqlite"
)

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
	return ctx, out
}

func TestBackupCreateListRestore(t *testing.T) {
	ctx, out := setupTestContext(t)

	if err := (&BackupListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "No backups found.") {
		t.Errorf("unexpected output %q", out.String())
	}

	out.Reset()
	if err := (&BackupCreateCmd{}).Run(ctx); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if !strings.Contains(out.String(), "✓ Backup created: moodlit-") {
		t.Errorf("unexpected output %q", out.String())
	}

	list, err := backup.NewManager(ctx.Store.GetConfigPath()).List()
	if err != nil || len(list) != 1 {
		t.Fatalf("List() = %v, %v", list, err)
	}

	if _, err := ctx.Store.AddCheckIn(context.Background(), models.CheckIn{
		Mood: models.MoodValue{Color: 1, Competency: 301, StatementResponse: 0.5},
	}); err != nil {
		t.Fatal(err)
	}

	out.Reset()
	cmd := &BackupRestoreCmd{BackupFile: filepath.Base(list[0].Path), Yes: true}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if err := ctx.Store.Load(); err != nil {
		t.Fatal(err)
	}
	all, _ := ctx.Store.GetAllCheckIns(context.Background())
	if len(all) != 0 {
		t.Errorf("expected restored database without check-ins, got %d", len(all))
	}
}

func TestBackupRestoreMissing(t *testing.T) {
	ctx, _ := setupTestContext(t)
	if err := (&BackupRestoreCmd{BackupFile: "nope.db", Yes: true}).Run(ctx); err == nil {
		t.Error("expected error for missing backup")
	}
}
