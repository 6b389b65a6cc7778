package checkins

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
)

type ListCmd struct {
	From string `help:"First day to include (YYYY-MM-DD). Defaults to 7 days ago."`
	To   string `help:"Last day to include (YYYY-MM-DD). Defaults to today."`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	loc := st.Location()
	start, end, err := cli.ParseRange(c.From, c.To, ctx.Now(), loc)
	if err != nil {
		return err
	}

	list, err := ctx.Store.GetCheckIns(bg, start, end)
	if err != nil {
		return fmt.Errorf("failed to read check-ins: %w", err)
	}
	if len(list) == 0 {
		ctx.Println("No check-ins in this range.")
		return nil
	}

	ctx.Printf("%-5s %-16s %-12s %-9s %s\n", "ID", "WHEN", "MOOD", "AGREE", "TAGS")
	for _, ci := range list {
		agree := models.DisplayResponse(ci.Mood.StatementResponse, ci.Mood.Polarity)
		ctx.Printf("%-5d %-16s %-12s %-9s %s\n",
			ci.ID,
			ci.Date.In(loc).Format(constants.DateFormat+" "+constants.TimeFormat),
			ctx.MoodName(ci.Mood.Color),
			fmt.Sprintf("%.0f%%", agree*100),
			strings.Join(ctx.TagNames(ci.Mood.Tags), ", "),
		)
	}
	return nil
}

type ShowCmd struct {
	ID int64 `arg:"" help:"Check-in id."`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	ci, err := ctx.Store.GetCheckIn(bg, c.ID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return fmt.Errorf("check-in %d not found", c.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to read check-in: %w", err)
	}

	ctx.Printf("Check-in #%d\n", ci.ID)
	ctx.Printf("  When:      %s\n", ci.Date.In(st.Location()).Format(constants.DateFormat+" "+constants.TimeFormat))
	ctx.Printf("  Mood:      %s\n", ctx.MoodName(ci.Mood.Color))
	ctx.Printf("  Tags:      %s\n", strings.Join(ctx.TagNames(ci.Mood.Tags), ", "))
	ctx.Printf("  Statement: %s (%s)\n", statement(ctx, ci), ci.Mood.Competency)
	ctx.Printf("  Agreement: %.0f%%\n", models.DisplayResponse(ci.Mood.StatementResponse, ci.Mood.Polarity)*100)
	if ci.Note != "" {
		ctx.Printf("  Note:      %s\n", ci.Note)
	}
	return nil
}

type DeleteCmd struct {
	ID int64 `arg:"" help:"Check-in id."`
}

func (c *DeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	if err := ctx.Recorder(st).Delete(bg, c.ID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("check-in %d not found", c.ID)
		}
		return fmt.Errorf("failed to delete check-in: %w", err)
	}
	ctx.Printf("✓ Deleted check-in #%d\n", c.ID)
	return nil
}
