package system

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/julianstephens/moodlit/internal/cli"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/keyring"
	"github.com/julianstephens/moodlit/internal/notifier"
	"github.com/julianstephens/moodlit/internal/storage"
	"github.com/julianstephens/moodlit/internal/utils"
)

type DoctorCmd struct{}

type check struct {
	name string
	// gatesDB marks the reachability check; needsDB checks are skipped when
	// it fails.
	gatesDB bool
	needsDB bool
	// warn checks report problems without failing the run.
	warn bool
	run  func(ctx *cli.Context) error
}

var checks = []check{
	{name: "Database reachable", gatesDB: true, run: checkDBReachable},
	{name: "Migrations complete", needsDB: true, run: checkMigrationsComplete},
	{name: "Settings valid", needsDB: true, run: checkSettings},
	{name: "Check-in integrity", needsDB: true, run: checkCheckIns},
	{name: "Clock/timezone", run: checkClockTimezone},
	{name: "OS keyring", warn: true, run: checkKeyring},
	{name: "Company identity", needsDB: true, warn: true, run: checkIdentity},
	{name: "Tray notifier", warn: true, run: checkTray},
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	dbReachable := true
	for _, c := range checks {
		if c.needsDB && !dbReachable {
			ctx.Printf("⊘ %s: SKIPPED (database not reachable)\n", c.name)
			continue
		}
		err := c.run(ctx)
		switch {
		case err == nil:
			ctx.Printf("✓ %s: OK\n", c.name)
		case c.warn:
			ctx.Printf("⚠ %s: WARNING\n", c.name)
			ctx.Printf("   %v\n", err)
		default:
			ctx.Printf("❌ %s: FAIL\n", c.name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			if c.gatesDB {
				dbReachable = false
			}
		}
	}

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return errors.New("one or more health checks failed")
	}
	ctx.Println("All diagnostics passed!")
	return nil
}

func checkDBReachable(ctx *cli.Context) error {
	if err := ctx.Store.Load(); err != nil {
		return fmt.Errorf("failed to load database: %w", err)
	}
	_, err := ctx.Store.GetSetting(context.Background(), "doctor_probe")
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("failed to query database: %w", err)
	}
	return nil
}

func checkMigrationsComplete(ctx *cli.Context) error {
	m, ok := ctx.Store.(storage.Migrator)
	if !ok {
		return nil
	}
	current, latest, err := m.SchemaVersion()
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return nil
}

func checkSettings(ctx *cli.Context) error {
	st, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	if st.Timezone != "" && !utils.ValidateTimezone(st.Timezone) {
		return fmt.Errorf("invalid timezone %q", st.Timezone)
	}
	for _, id := range st.AvailableCategories {
		if _, err := ctx.Taxonomy.Category(id); err != nil {
			return fmt.Errorf("available categories: %w", err)
		}
	}
	if st.FocusedCategory != 0 {
		if _, err := ctx.Taxonomy.Category(st.FocusedCategory); err != nil {
			return fmt.Errorf("focused category: %w", err)
		}
	}
	return nil
}

// checkCheckIns verifies every stored check-in still resolves against the
// taxonomy.
func checkCheckIns(ctx *cli.Context) error {
	list, err := ctx.Store.GetAllCheckIns(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read check-ins: %w", err)
	}
	bad := 0
	for _, ci := range list {
		if !knownMoodAndTags(ctx, ci.Mood.Color, ci.Mood.Tags) || !ctx.Taxonomy.HasCompetency(ci.Mood.Competency) ||
			ci.Mood.StatementResponse < 0 || ci.Mood.StatementResponse > 1 {
			bad++
		}
	}
	if bad > 0 {
		return fmt.Errorf("found %d of %d check-ins that do not match the taxonomy", bad, len(list))
	}
	return nil
}

func knownMoodAndTags(ctx *cli.Context, mood int, tags []int) bool {
	if _, err := ctx.Taxonomy.Mood(mood); err != nil {
		return false
	}
	for _, id := range tags {
		if _, err := ctx.Taxonomy.Tag(id); err != nil {
			return false
		}
	}
	return true
}

func checkClockTimezone(ctx *cli.Context) error {
	now := ctx.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}

func checkKeyring(*cli.Context) error {
	if !keyring.IsAvailable() {
		return errors.New("OS keyring is not available; company identity cannot be stored")
	}
	return nil
}

func checkIdentity(ctx *cli.Context) error {
	st, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	if st.Company == "" {
		return nil
	}
	if _, err := ctx.Tokens.Get(); err != nil {
		return fmt.Errorf("joined %s but no identity token is stored: %w", st.Company, err)
	}
	if st.Sharing() && ctx.Env.APIURL == "" {
		return errors.New("sharing is on but MOODLIT_API_URL is not set")
	}
	return nil
}

func checkTray(*cli.Context) error {
	if err := notifier.TrayRunning(); err != nil {
		return fmt.Errorf("desktop reminders unavailable: %w", err)
	}
	return nil
}
