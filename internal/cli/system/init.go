package system

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/storage"
)

type InitCmd struct {
	Force  bool   `help:"Force reset by deleting existing database before initialization."`
	Source string `help:"Source database path or connection string to import check-ins and settings from."`
}

// sessionKeys are the settings carried over by --source.
var sessionKeys = []string{
	constants.SettingDeviceID,
	constants.SettingConsent,
	constants.SettingCompany,
	constants.SettingFocusedCategory,
	constants.SettingPreviousFocusedStatement,
	constants.SettingAvailableCategories,
	constants.SettingTimezone,
	constants.SettingMinUserWeeks,
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized %s storage at: %s\n", constants.AppName, ctx.Store.GetConfigPath())

	if c.Source != "" {
		ctx.Printf("Importing data from: %s\n", c.Source)
		if err := c.importData(ctx); err != nil {
			return fmt.Errorf("import failed: %w", err)
		}
		ctx.Println("Import completed successfully!")
	}
	return nil
}

func (c *InitCmd) reset(ctx *cli.Context) error {
	dbPath := ctx.Store.GetConfigPath()
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	if c.Source != "" {
		if abs, err := filepath.Abs(c.Source); err == nil && abs == dbPath {
			return fmt.Errorf("cannot use --force when source and destination are the same: %s", dbPath)
		}
	}

	if _, err := os.Stat(dbPath); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(dbPath); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", dbPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}

func (c *InitCmd) importData(ctx *cli.Context) error {
	source, err := storage.Open(c.Source)
	if err != nil {
		return err
	}
	if err := source.Load(); err != nil {
		return fmt.Errorf("failed to load source database: %w", err)
	}
	defer source.Close()

	bg := context.Background()
	ctx.Println("  Importing settings...")
	copied := 0
	for _, key := range sessionKeys {
		v, err := source.GetSetting(bg, key)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read setting %s from source: %w", key, err)
		}
		if err := ctx.Store.SetSetting(bg, key, v); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", key, err)
		}
		copied++
	}
	ctx.Printf("    Imported %d settings\n", copied)

	ctx.Println("  Importing check-ins...")
	list, err := source.GetAllCheckIns(bg)
	if err != nil {
		return fmt.Errorf("failed to get check-ins from source: %w", err)
	}
	for _, ci := range list {
		if _, err := ctx.Store.AddCheckIn(bg, ci); err != nil {
			return fmt.Errorf("failed to add check-in %d: %w", ci.ID, err)
		}
	}
	ctx.Printf("    Imported %d check-ins\n", len(list))
	return nil
}
