package checkins

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/moodlit/internal/cli"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/recorder"
	"github.com/julianstephens/moodlit/internal/selector"
)

type CheckInCmd struct {
	Mood     string   `short:"m" help:"Mood id or name. Prompts when omitted."`
	Tags     []string `short:"t" help:"Tag ids or names. Prompts when omitted."`
	Response *float64 `short:"r" help:"Agreement with the positive wording of the picked statement, 0-100. Prompts when omitted."`
	Note     string   `short:"n" help:"Optional free-text note."`
}

func (c *CheckInCmd) Validate() error {
	if c.Response != nil && (*c.Response < 0 || *c.Response > 100) {
		return errors.New("--response must be between 0 and 100")
	}
	return nil
}

func (c *CheckInCmd) interactive() bool {
	return c.Mood == "" || len(c.Tags) == 0 || c.Response == nil
}

func (c *CheckInCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	st, err := ctx.Session(bg)
	if err != nil {
		return err
	}

	moodID, err := c.resolveMood(ctx)
	if err != nil {
		return err
	}
	tags, err := c.resolveTags(ctx, moodID)
	if err != nil {
		return err
	}

	sel, err := ctx.Selector().Select(st.SelectorRequest(tags))
	if err != nil {
		return fmt.Errorf("failed to pick a statement: %w", err)
	}

	raw, err := c.resolveResponse(ctx, sel)
	if err != nil {
		return err
	}
	note := c.Note
	if c.interactive() && note == "" {
		if err := huh.NewText().Title("Anything else? (optional)").CharLimit(500).Value(&note).Run(); err != nil {
			return fmt.Errorf("interactive form error: %w", err)
		}
	}

	rec := ctx.Recorder(st)
	saved, err := rec.Record(bg, recorder.Submission{
		MoodID:      moodID,
		Tags:        tags,
		Competency:  sel.CompetencyID,
		RawResponse: raw,
		Polarity:    sel.Polarity,
		Note:        note,
	})
	if err != nil {
		return fmt.Errorf("check-in was not saved: %w", err)
	}

	ctx.Printf("✓ Checked in #%d: %s (%s)\n", saved.ID, ctx.MoodName(moodID), strings.Join(ctx.TagNames(tags), ", "))

	switch outcome := rec.MirrorToCompany(bg, saved, st, sel); outcome {
	case recorder.MirrorSent:
		ctx.Printf("  Shared anonymously with %s.\n", st.Company)
	case recorder.MirrorAlreadySent:
		ctx.Println("  Already shared with your company today; kept locally.")
	case recorder.MirrorUnauthorized:
		ctx.Println("  " + apperrors.UserMessage(apperrors.ErrUnauthorized))
	case recorder.MirrorFailed, recorder.MirrorNoIdentity:
		ctx.Printf("  Saved locally, but sharing %s. %s\n", outcome, apperrors.UserMessage(apperrors.ErrTransient))
	}
	return nil
}

func (c *CheckInCmd) resolveMood(ctx *cli.Context) (int, error) {
	if c.Mood != "" {
		return lookupMood(ctx, c.Mood)
	}

	var id int
	opts := make([]huh.Option[int], 0, 12)
	for _, m := range ctx.Taxonomy.Moods() {
		opts = append(opts, huh.NewOption(m.Name, m.ID))
	}
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().Title("How are you feeling?").Options(opts...).Value(&id),
	))
	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("interactive form error: %w", err)
	}
	return id, nil
}

func lookupMood(ctx *cli.Context, v string) (int, error) {
	if id, err := strconv.Atoi(v); err == nil {
		if _, err := ctx.Taxonomy.Mood(id); err != nil {
			return 0, err
		}
		return id, nil
	}
	for _, m := range ctx.Taxonomy.Moods() {
		if strings.EqualFold(m.Name, v) {
			return m.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown mood %q", v)
}

func (c *CheckInCmd) resolveTags(ctx *cli.Context, moodID int) ([]int, error) {
	if len(c.Tags) > 0 {
		return lookupTags(ctx, c.Tags)
	}

	offered, err := ctx.Taxonomy.MoodTags(moodID)
	if err != nil {
		return nil, err
	}
	opts := make([]huh.Option[int], 0, len(offered))
	for _, t := range offered {
		opts = append(opts, huh.NewOption(t.Name, t.ID))
	}
	var ids []int
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[int]().
			Title("What describes it best?").
			Options(opts...).
			Validate(func(v []int) error {
				if len(v) == 0 {
					return selector.ErrNoTags
				}
				return nil
			}).
			Value(&ids),
	))
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("interactive form error: %w", err)
	}
	return ids, nil
}

func lookupTags(ctx *cli.Context, values []string) ([]int, error) {
	byName := make(map[string]int)
	for _, t := range ctx.Taxonomy.Tags() {
		byName[strings.ToLower(t.Name)] = t.ID
	}
	var ids []int
	for _, raw := range values {
		for _, v := range strings.Split(raw, ",") {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			if id, err := strconv.Atoi(v); err == nil {
				if _, err := ctx.Taxonomy.Tag(id); err != nil {
					return nil, err
				}
				ids = append(ids, id)
				continue
			}
			id, ok := byName[strings.ToLower(v)]
			if !ok {
				return nil, fmt.Errorf("unknown tag %q", v)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, selector.ErrNoTags
	}
	return ids, nil
}

// resolveResponse returns agreement with the statement as shown. A --response
// value is agreement with the positive wording, so it is flipped when the
// negative wording was picked.
func (c *CheckInCmd) resolveResponse(ctx *cli.Context, sel selector.Result) (float64, error) {
	if c.Response != nil {
		wording := sel.Statement
		if comp, err := ctx.Taxonomy.Competency(sel.CompetencyID); err == nil {
			wording = comp.Statement(models.PolarityPos)
		}
		ctx.Printf("%s: %.0f%%\n", wording, *c.Response)
		return models.DisplayResponse(*c.Response/100, sel.Polarity), nil
	}

	input := "50"
	form := huh.NewForm(huh.NewGroup(
		huh.NewNote().Title("Statement").Description(sel.Statement),
		huh.NewInput().
			Title("How much do you agree? (0-100)").
			Value(&input).
			Validate(func(s string) error {
				n, err := strconv.Atoi(strings.TrimSpace(s))
				if err != nil || n < 0 || n > 100 {
					return errors.New("enter a whole number from 0 to 100")
				}
				return nil
			}),
	))
	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("interactive form error: %w", err)
	}
	n, _ := strconv.Atoi(strings.TrimSpace(input))
	return float64(n) / 100, nil
}

// statement returns the text the user saw for a stored check-in.
func statement(ctx *cli.Context, c models.CheckIn) string {
	comp, err := ctx.Taxonomy.Competency(c.Mood.Competency)
	if err != nil {
		return c.Mood.Competency.String()
	}
	return comp.Statement(c.Mood.Polarity)
}
