package system

import (
	"context"

	"github.com/julianstephens/moodlit/internal/cli"
	"github.com/julianstephens/moodlit/internal/tui"
)

type DashboardCmd struct{}

func (c *DashboardCmd) Run(ctx *cli.Context) error {
	st, err := ctx.Session(context.Background())
	if err != nil {
		return err
	}
	return tui.Run(ctx.Store, ctx.Taxonomy, st.Location())
}
