// Package company holds the commands that join a company and read its
// anonymous aggregates.
package company

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/keyring"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/remote"
	"github.com/julianstephens/moodlit/internal/session"
)

type CompanyCmd struct {
	Login   LoginCmd   `cmd:"" help:"Store an identity token and join a company."`
	Logout  LogoutCmd  `cmd:"" help:"Forget the company identity."`
	Consent ConsentCmd `cmd:"" help:"Turn anonymous sharing on or off."`
	Status  StatusCmd  `cmd:"" help:"Show company membership and sharing state." default:"1"`
	Focus   FocusCmd   `cmd:"" help:"Walk through a category's statements in order."`
	Stats   StatsCmd   `cmd:"" help:"Show company category scores."`
	Insight InsightCmd `cmd:"" help:"Summarize company check-ins."`
}

type LoginCmd struct {
	Token      string `required:"" env:"MOODLIT_IDENTITY_TOKEN" help:"Identity token issued by your company."`
	Company    string `required:"" help:"Company name."`
	Categories string `help:"Comma-separated category ids your company enables. Empty enables all."`
	Consent    bool   `default:"true" negatable:"" help:"Share check-ins anonymously."`
}

func (c *LoginCmd) Run(ctx *cli.Context) error {
	company := strings.TrimSpace(c.Company)
	if company == "" {
		return errors.New("company cannot be empty")
	}
	cats, err := session.ParseCategories(c.Categories)
	if err != nil {
		return err
	}
	for _, id := range cats {
		if _, err := ctx.Taxonomy.Category(id); err != nil {
			return err
		}
	}

	if err := ctx.Tokens.Set(strings.TrimSpace(c.Token)); err != nil {
		return fmt.Errorf("failed to store identity token: %w", err)
	}
	bg := context.Background()
	if err := session.JoinCompany(bg, ctx.Store, company, cats); err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	if err := session.SetConsent(bg, ctx.Store, c.Consent); err != nil {
		return fmt.Errorf("failed to save consent: %w", err)
	}

	ctx.Printf("✓ Joined %s\n", company)
	if c.Consent {
		ctx.Println("  Your next check-in each day is shared anonymously.")
	} else {
		ctx.Printf("  Sharing is off. Turn it on with '%s company consent on'.\n", constants.AppName)
	}
	return nil
}

type LogoutCmd struct{}

func (c *LogoutCmd) Run(ctx *cli.Context) error {
	if err := forget(context.Background(), ctx); err != nil {
		return err
	}
	ctx.Println("✓ Company identity removed. Local check-ins are kept.")
	return nil
}

// forget drops the identity token and every setting tied to it.
func forget(bg context.Context, ctx *cli.Context) error {
	if err := ctx.Tokens.Delete(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to delete identity token: %w", err)
	}
	if err := session.ClearIdentity(bg, ctx.Store); err != nil {
		return fmt.Errorf("failed to clear company settings: %w", err)
	}
	return nil
}

// remoteError clears the local identity on a rejected token and maps err to
// a message for the user.
func remoteError(bg context.Context, ctx *cli.Context, err error) error {
	if errors.Is(err, remote.ErrNoIdentity) {
		return err
	}
	if errors.Is(err, apperrors.ErrUnauthorized) {
		logger.Warn("Company identity rejected, clearing local identity", "error", err)
		if ferr := forget(bg, ctx); ferr != nil {
			logger.Error("Failed to clear identity", "error", ferr)
		}
	} else {
		logger.Error("Company service request failed", "error", err)
	}
	return errors.New(apperrors.UserMessage(err))
}

type ConsentCmd struct {
	State string `arg:"" enum:"on,off" help:"on or off."`
}

func (c *ConsentCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	on := c.State == "on"
	if on && st.Company == "" {
		return fmt.Errorf("join a company first with '%s company login'", constants.AppName)
	}
	if err := session.SetConsent(bg, ctx.Store, on); err != nil {
		return fmt.Errorf("failed to save consent: %w", err)
	}
	if on {
		ctx.Println("✓ Anonymous sharing is on.")
	} else {
		ctx.Println("✓ Anonymous sharing is off. Check-ins stay on this device.")
	}
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if st.Company == "" {
		ctx.Printf("Not part of a company. Join with '%s company login'.\n", constants.AppName)
		return nil
	}

	ctx.Printf("Company:    %s\n", st.Company)
	ctx.Printf("Sharing:    %s\n", onOff(st.Consent))
	if _, err := ctx.Tokens.Get(); err != nil {
		ctx.Println("Identity:   missing")
	} else {
		ctx.Println("Identity:   stored")
	}
	if ctx.Env.APIURL == "" {
		ctx.Println("Service:    not configured (set MOODLIT_API_URL)")
	} else {
		ctx.Printf("Service:    %s\n", ctx.Env.APIURL)
	}

	if len(st.AvailableCategories) == 0 {
		ctx.Println("Categories: all")
	} else {
		names := make([]string, 0, len(st.AvailableCategories))
		for _, id := range st.AvailableCategories {
			if cat, err := ctx.Taxonomy.Category(id); err == nil {
				names = append(names, cat.Title)
			}
		}
		ctx.Printf("Categories: %s\n", strings.Join(names, ", "))
	}
	if st.FocusedCategory != 0 {
		cat, err := ctx.Taxonomy.Category(st.FocusedCategory)
		if err == nil {
			ctx.Printf("Focus:      %s", cat.Title)
			if st.PreviousFocusedStatement != 0 {
				ctx.Printf(" (last %s)", st.PreviousFocusedStatement)
			}
			ctx.Println()
		}
	}

	day := ctx.Now().In(st.Location()).Format(constants.DateFormat)
	n, err := ctx.Store.CountCheckInRecords(bg, day)
	if err != nil {
		return fmt.Errorf("failed to read share markers: %w", err)
	}
	if n > 0 {
		ctx.Println("Today:      shared")
	} else {
		ctx.Println("Today:      not shared yet")
	}
	return nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

type FocusCmd struct {
	Category int `arg:"" help:"Category id, or 0 to stop focusing."`
}

func (c *FocusCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	if c.Category == 0 {
		if err := session.ClearFocus(bg, ctx.Store); err != nil {
			return fmt.Errorf("failed to clear focus: %w", err)
		}
		ctx.Println("✓ Focus cleared.")
		return nil
	}

	cat, err := ctx.Taxonomy.Category(c.Category)
	if err != nil {
		return err
	}
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if len(st.AvailableCategories) > 0 && !slices.Contains(st.AvailableCategories, c.Category) {
		return fmt.Errorf("%s is not enabled for %s", cat.Title, st.Company)
	}
	if err := session.SetFocus(bg, ctx.Store, c.Category); err != nil {
		return fmt.Errorf("failed to save focus: %w", err)
	}
	ctx.Printf("✓ Next check-ins walk through %s statements in order.\n", cat.Title)
	return nil
}
