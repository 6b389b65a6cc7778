package stats

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/moodlit/internal/cli"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/insights"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/textgen"
)

type InsightCmd struct {
	From     string `help:"First day to include (YYYY-MM-DD). Defaults to 7 days ago."`
	To       string `help:"Last day to include (YYYY-MM-DD). Defaults to today."`
	IDs      string `name:"ids" help:"Comma-separated check-in ids instead of a date range."`
	Category int    `help:"Focus the summary on a category id."`
	Report   bool   `help:"Report the cached summary for these check-ins and category and drop it."`
}

func (c *InsightCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	list, err := c.checkIns(bg, ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		ctx.Println("No check-ins to summarize.")
		return nil
	}
	if c.Category != 0 {
		if _, err := ctx.Taxonomy.Category(c.Category); err != nil {
			return err
		}
	}

	if c.Report {
		key := insights.CategoryKey("", c.Category, ids(list))
		if err := ctx.Insights(nil).Report(bg, key); err != nil {
			return fmt.Errorf("failed to report insight: %w", err)
		}
		ctx.Println("✓ Thanks, the summary was removed and will be regenerated next time.")
		return nil
	}

	gen, err := ctx.TextGenerator()
	if errors.Is(err, textgen.ErrNotConfigured) {
		return errors.New("summaries need an API key; set MOODLIT_OPENAI_API_KEY")
	}
	if err != nil {
		return err
	}

	in, err := ctx.Insights(gen).Summarize(bg, list, c.Category)
	if err != nil {
		logger.Error("Failed to summarize check-ins", "count", len(list), "error", err)
		return errors.New(apperrors.UserMessage(err))
	}
	ctx.Println(in.Summary)
	return nil
}

func (c *InsightCmd) checkIns(bg context.Context, ctx *cli.Context) ([]models.CheckIn, error) {
	if c.IDs != "" {
		idList, err := cli.ParseIDList(c.IDs)
		if err != nil {
			return nil, err
		}
		out := make([]models.CheckIn, 0, len(idList))
		for _, id := range idList {
			ci, err := ctx.Store.GetCheckIn(bg, id)
			if err != nil {
				return nil, fmt.Errorf("failed to read check-in %d: %w", id, err)
			}
			out = append(out, ci)
		}
		return out, nil
	}

	st, err := ctx.Session(bg)
	if err != nil {
		return nil, err
	}
	start, end, err := cli.ParseRange(c.From, c.To, ctx.Now(), st.Location())
	if err != nil {
		return nil, err
	}
	list, err := ctx.Store.GetCheckIns(bg, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to read check-ins: %w", err)
	}
	return list, nil
}

func ids(list []models.CheckIn) []int64 {
	out := make([]int64, len(list))
	for i, c := range list {
		out[i] = c.ID
	}
	return out
}
