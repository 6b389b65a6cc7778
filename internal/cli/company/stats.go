package company

import (
	"context"
	"errors"
	"fmt"

	"github.com/julianstephens/moodlit/internal/aggregator"
	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/remote"
	"github.com/julianstephens/moodlit/internal/session"
	"github.com/julianstephens/moodlit/internal/textgen"
)

// client returns the company service client, or an actionable error when the
// device has not joined a company.
func client(bg context.Context, ctx *cli.Context) (session.State, *remote.Client, error) {
	st, err := ctx.Session(bg)
	if err != nil {
		return session.State{}, nil, err
	}
	if st.Company == "" {
		return st, nil, fmt.Errorf("join a company first with '%s company login'", constants.AppName)
	}
	rc, err := ctx.Remote(st)
	if errors.Is(err, remote.ErrNotConfigured) {
		return st, nil, errors.New("company service URL is not configured; set MOODLIT_API_URL")
	}
	if err != nil {
		return st, nil, err
	}
	return st, rc, nil
}

type StatsCmd struct {
	From string `help:"First day to include (YYYY-MM-DD). Defaults to 7 days ago."`
	To   string `help:"Last day to include (YYYY-MM-DD). Defaults to today."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, rc, err := client(bg, ctx)
	if err != nil {
		return err
	}
	start, end, err := cli.ParseRange(c.From, c.To, ctx.Now(), st.Location())
	if err != nil {
		return err
	}

	rctx, cancel := context.WithTimeout(bg, constants.RemoteTimeout)
	defer cancel()
	resp, err := rc.Categories(rctx, start, end)
	if err != nil {
		return remoteError(bg, ctx, err)
	}

	ctx.Printf("%s, %s to %s\n\n", st.Company, start.Format("Jan 2"), end.AddDate(0, 0, -1).Format("Jan 2, 2006"))
	scores := make(map[int]models.CategoryScore, len(resp.Scores))
	for _, s := range resp.Scores {
		scores[s.Category] = s
	}
	for _, cat := range ctx.Taxonomy.Categories() {
		s, ok := scores[cat.ID]
		switch {
		case !ok:
			ctx.Printf("  %-14s no check-ins\n", cat.Title)
		case s.Pending:
			ctx.Printf("  %-14s pending (%d user-weeks)\n", cat.Title, s.UserWeeks)
		default:
			ctx.Printf("  %-14s %3d/100  %s\n", cat.Title, s.Score, trendArrow(s.Trend))
		}
	}
	ctx.Printf("\nParticipation: %d%% (%d of %d) %s\n",
		resp.Participation, resp.ActiveUsers, resp.TotalUsers, aggregator.ParticipationLevel(resp.Participation))
	return nil
}

func trendArrow(t models.Trend) string {
	switch t {
	case models.TrendIncreasing:
		return "↑"
	case models.TrendDecreasing:
		return "↓"
	}
	return "→"
}

type InsightCmd struct {
	From     string `help:"First day to include (YYYY-MM-DD). Defaults to 7 days ago."`
	To       string `help:"Last day to include (YYYY-MM-DD). Defaults to today."`
	Category int    `help:"Limit to one category id."`
	Report   string `help:"Report the summary for this range with a reason."`
}

func (c *InsightCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, rc, err := client(bg, ctx)
	if err != nil {
		return err
	}
	start, end, err := cli.ParseRange(c.From, c.To, ctx.Now(), st.Location())
	if err != nil {
		return err
	}
	if c.Category != 0 {
		if _, err := ctx.Taxonomy.Category(c.Category); err != nil {
			return err
		}
	}

	rctx, cancel := context.WithTimeout(bg, constants.RemoteTimeout)
	defer cancel()
	rows, err := rc.CheckIns(rctx, start, end, c.Category)
	if err != nil {
		return remoteError(bg, ctx, err)
	}
	if len(rows) == 0 {
		ctx.Println("No company check-ins to summarize.")
		return nil
	}
	ids := make([]int64, len(rows))
	list := make([]models.CheckIn, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
		list[i] = r.AsCheckIn()
	}

	if c.Report != "" {
		if err := rc.Report(rctx, ids, c.Category, c.Report); err != nil {
			return remoteError(bg, ctx, err)
		}
		ctx.Println("✓ Thanks, the summary was removed and will be regenerated next time.")
		return nil
	}

	summary, found, err := rc.Insight(rctx, ids, c.Category)
	if err != nil {
		return remoteError(bg, ctx, err)
	}
	if !found {
		gen, err := ctx.TextGenerator()
		if errors.Is(err, textgen.ErrNotConfigured) {
			return errors.New("summaries need an API key; set MOODLIT_OPENAI_API_KEY")
		}
		if err != nil {
			return err
		}
		summary, err = ctx.Insights(gen).Generate(bg, list, c.Category)
		if err != nil {
			return err
		}
		sctx, scancel := context.WithTimeout(bg, constants.RemoteTimeout)
		defer scancel()
		if err := rc.SaveInsight(sctx, ids, c.Category, summary); err != nil {
			return remoteError(bg, ctx, err)
		}
	}
	ctx.Println(summary)
	return nil
}
