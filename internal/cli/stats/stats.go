package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/moodlit/internal/aggregator"
	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/models"
)

type StatsCmd struct {
	From string `help:"First day to include (YYYY-MM-DD). Defaults to 7 days ago."`
	To   string `help:"Last day to include (YYYY-MM-DD). Defaults to today."`
	Week bool   `help:"Use the current Monday-start week instead of --from/--to."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}
	loc := st.Location()

	start, end, err := cli.ParseRange(c.From, c.To, ctx.Now(), loc)
	if c.Week {
		start, end = aggregator.WeekRange(ctx.Now().In(loc))
		err = nil
	}
	if err != nil {
		return err
	}

	list, err := ctx.Store.GetCheckIns(bg, start, end)
	if err != nil {
		return fmt.Errorf("failed to read check-ins: %w", err)
	}
	counts, err := ctx.Store.CountCheckInsByMood(bg, start, end)
	if err != nil {
		return fmt.Errorf("failed to count moods: %w", err)
	}

	ctx.Printf("%s to %s\n", start.Format("Jan 2"), end.AddDate(0, 0, -1).Format("Jan 2, 2006"))
	if len(list) == 0 {
		ctx.Println("No check-ins in this range.")
		return nil
	}
	snap := aggregator.Summarize(list, ctx.Taxonomy)

	ctx.Printf("\nMoods (%d check-ins)\n", snap.Total)
	for _, s := range aggregator.DistributionFromCounts(counts, ctx.Taxonomy) {
		ctx.Printf("  %-12s %3.0f%%  (%d)\n", s.Label, s.Percent, s.Count)
	}

	if snap.HasBurnout {
		ctx.Printf("\nBurnout risk: %d/100 (gauge %.0f°)\n", snap.Burnout, snap.Rotation)
		ctx.Printf("Sentiment:    %d/100\n", snap.Sentiment)
	}

	if len(snap.Tags) > 0 {
		ctx.Println("\nTop tags")
		for _, t := range snap.Tags {
			ctx.Printf("  %s %-16s %5.1f%%\n", tierMarker(t), t.Name, t.Percent)
		}
	}
	ctx.Printf("\nRecent colors: %s\n", strings.Join(snap.Colors, " "))
	return nil
}

// tierMarker renders the display tier as a bar, widest for tier 1.
func tierMarker(t models.TagWeight) string {
	n := max(1, 7-t.Tier)
	return fmt.Sprintf("%-6s", strings.Repeat("▮", n))
}
