package settings

import (
	"context"
	"fmt"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/session"
)

type SettingsCmd struct {
	List bool `help:"List current settings."`

	Timezone     *string `help:"IANA timezone for day and week boundaries, or Local."`
	MinUserWeeks *int    `help:"User-weeks a company category needs before it is scored."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.Timezone == nil && c.MinUserWeeks == nil {
		if !c.List {
			ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
			return nil
		}
		return c.list(bg, ctx)
	}

	if c.Timezone != nil {
		if err := session.SetTimezone(bg, ctx.Store, *c.Timezone); err != nil {
			return err
		}
	}
	if c.MinUserWeeks != nil {
		if err := session.SetMinUserWeeks(bg, ctx.Store, *c.MinUserWeeks); err != nil {
			return err
		}
	}
	ctx.Println("Settings updated successfully.")
	if c.List {
		return c.list(bg, ctx)
	}
	return nil
}

func (c *SettingsCmd) list(bg context.Context, ctx *cli.Context) error {
	st, err := ctx.Session(bg)
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	ctx.Println("Current Settings:")
	ctx.Printf("  Timezone:       %s\n", st.Timezone)
	ctx.Printf("  Min User-Weeks: %d\n", st.MinUserWeeks)
	ctx.Printf("  Device ID:      %s\n", st.DeviceID)
	return nil
}
