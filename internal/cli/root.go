// Package cli holds the state shared by every moodlit command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/moodlit/internal/insights"
	"github.com/julianstephens/moodlit/internal/keyring"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/recorder"
	"github.com/julianstephens/moodlit/internal/remote"
	"github.com/julianstephens/moodlit/internal/selector"
	"github.com/julianstephens/moodlit/internal/session"
	"github.com/julianstephens/moodlit/internal/storage"
	"github.com/julianstephens/moodlit/internal/taxonomy"
	"github.com/julianstephens/moodlit/internal/textgen"
	"github.com/julianstephens/moodlit/internal/utils"
)

// TokenStore holds the company identity token. keyring.Store satisfies it.
type TokenStore interface {
	Get() (string, error)
	Set(secret string) error
	Delete() error
}

// Env is configuration read from flags and the environment.
type Env struct {
	APIURL        string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
}

type Context struct {
	Store    storage.CompanyProvider
	Taxonomy *taxonomy.Taxonomy
	Tokens   TokenStore
	Env      Env
	Out      io.Writer

	// Generator overrides the configured text generation client.
	Generator textgen.Generator
	// Rand seeds statement selection; nil means random.
	Rand *rand.Rand
	Now  func() time.Time
}

// New returns a context over store with the embedded taxonomy and the OS
// keyring.
func New(store storage.CompanyProvider, env Env) *Context {
	return &Context{
		Store:    store,
		Taxonomy: taxonomy.Default(),
		Tokens:   keyring.Identity(),
		Env:      env,
		Out:      os.Stdout,
		Now:      time.Now,
	}
}

func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.Out, format, args...)
}

func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.Out, args...)
}

// Session loads the device session from the settings table.
func (c *Context) Session(ctx context.Context) (session.State, error) {
	st, err := session.Load(ctx, c.Store)
	if err != nil {
		logger.Error("Failed to load session", "error", err)
		return session.State{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return st, nil
}

// Remote returns a client of the company service for the device in st.
func (c *Context) Remote(st session.State) (*remote.Client, error) {
	return remote.New(c.Env.APIURL, st.DeviceID, c.Tokens)
}

// TextGenerator returns the override or an OpenAI-compatible client.
func (c *Context) TextGenerator() (textgen.Generator, error) {
	if c.Generator != nil {
		return c.Generator, nil
	}
	return textgen.NewOpenAIClient(textgen.Config{
		APIKey:  c.Env.OpenAIKey,
		BaseURL: c.Env.OpenAIBaseURL,
		Model:   c.Env.OpenAIModel,
	})
}

// Insights returns the personal insight service backed by the local store.
// gen may be nil for callers that only invalidate.
func (c *Context) Insights(gen textgen.Generator) *insights.Service {
	return insights.NewService(insights.NewStoreCache(c.Store), gen, c.Taxonomy)
}

// Recorder wires the recorder with company mirroring when a service URL is
// configured.
func (c *Context) Recorder(st session.State) *recorder.Recorder {
	opts := []recorder.Option{recorder.WithClock(c.Now)}
	if client, err := c.Remote(st); err == nil {
		opts = append(opts, recorder.WithMirror(client, c.Tokens))
	} else if !errors.Is(err, remote.ErrNotConfigured) {
		logger.Warn("Company mirror unavailable", "error", err)
	}
	return recorder.New(c.Store, c.Taxonomy, c.Insights(nil), opts...)
}

func (c *Context) Selector() *selector.Selector {
	return selector.New(c.Taxonomy, c.Rand)
}

// ParseRange resolves --from/--to flags in loc. Empty values default to the
// last 7 days ending today; to is inclusive.
func ParseRange(from, to string, now time.Time, loc *time.Location) (start, end time.Time, err error) {
	today := utils.StartOfDay(now.In(loc))
	end = today.AddDate(0, 0, 1)
	if to != "" {
		t, err := utils.ParseDateInLocation(to, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date: %w", err)
		}
		end = t.AddDate(0, 0, 1)
	}
	start = end.AddDate(0, 0, -7)
	if from != "" {
		t, err := utils.ParseDateInLocation(from, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date: %w", err)
		}
		start = t
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, errors.New("--from must not be after --to")
	}
	return start, end, nil
}

// ParseIDList parses "1,2,3" into check-in ids.
func ParseIDList(s string) ([]int64, error) {
	ids, err := models.ParseIDs(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id <= 0 {
			return nil, fmt.Errorf("invalid check-in id %s", strconv.FormatInt(id, 10))
		}
	}
	return utils.Unique(ids), nil
}

// MoodName returns the mood's name, or its id when unknown.
func (c *Context) MoodName(id int) string {
	if m, err := c.Taxonomy.Mood(id); err == nil {
		return m.Name
	}
	return fmt.Sprintf("mood %d", id)
}

// TagNames resolves tag ids, skipping unknown ones.
func (c *Context) TagNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if t, err := c.Taxonomy.Tag(id); err == nil {
			names = append(names, t.Name)
		}
	}
	return names
}
