package system

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/julianstephens/moodlit/internal/cli"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
)

type DebugCmd struct {
	DBPath       DebugDBPathCmd       `cmd:"" help:"Show database path."`
	DumpCheckIn  DebugDumpCheckInCmd  `cmd:"" help:"Dump a check-in as JSON."`
	DumpSettings DebugDumpSettingsCmd `cmd:"" help:"Dump the session settings as JSON."`
}

func printJSON(ctx *cli.Context, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	ctx.Println(string(b))
	return nil
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	return printJSON(ctx, map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpCheckInCmd struct {
	ID int64 `arg:"" help:"Check-in id."`
}

func (cmd *DebugDumpCheckInCmd) Run(ctx *cli.Context) error {
	ci, err := ctx.Store.GetCheckIn(context.Background(), cmd.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check-in %d not found", cmd.ID)
	}
	if err != nil {
		return err
	}
	return printJSON(ctx, ci)
}

type DebugDumpSettingsCmd struct{}

func (cmd *DebugDumpSettingsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	out := make(map[string]string, len(sessionKeys))
	for _, key := range sessionKeys {
		v, err := ctx.Store.GetSetting(bg, key)
		if errors.Is(err, apperrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		out[key] = v
	}
	return printJSON(ctx, out)
}
