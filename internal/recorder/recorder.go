// Package recorder persists completed check-ins and mirrors them to the
// company service.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/julianstephens/moodlit/internal/constants"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/selector"
	"github.com/julianstephens/moodlit/internal/session"
)

const floorEpsilon = 1e-9

var ErrInvalidResponse = errors.New("statement response must be between 0 and 1")

// Store is the slice of storage.Provider the recorder writes to.
type Store interface {
	session.KV
	AddCheckIn(ctx context.Context, c models.CheckIn) (models.CheckIn, error)
	DeleteCheckIn(ctx context.Context, id int64) error
	AddCheckInRecord(ctx context.Context, day string) error
	CountCheckInRecords(ctx context.Context, day string) (int, error)
}

// Taxonomy validates submitted ids.
type Taxonomy interface {
	Mood(id int) (models.Mood, error)
	Tag(id int) (models.Tag, error)
	Competency(id models.CompetencyID) (models.Competency, error)
}

// Mirror sends a check-in to the company service.
type Mirror interface {
	PostCheckIn(ctx context.Context, checkIn models.CheckIn) error
}

// Tokens holds the company identity token.
type Tokens interface {
	Get() (string, error)
	Delete() error
}

// Invalidator drops cached insights that include a check-in.
type Invalidator interface {
	CheckInDeleted(ctx context.Context, id int64) (int, error)
}

// Submission is a completed check-in form. RawResponse is the slider
// position for the statement as shown in Polarity.
type Submission struct {
	MoodID      int
	Tags        []int
	Competency  models.CompetencyID
	RawResponse float64
	Polarity    models.Polarity
	Note        string
}

type Recorder struct {
	store    Store
	tax      Taxonomy
	insights Invalidator
	mirror   Mirror
	tokens   Tokens
	now      func() time.Time
}

type Option func(*Recorder)

// WithMirror enables company mirroring through m, authenticated by tokens.
func WithMirror(m Mirror, tokens Tokens) Option {
	return func(r *Recorder) {
		r.mirror = m
		r.tokens = tokens
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

func New(store Store, tax Taxonomy, insights Invalidator, opts ...Option) *Recorder {
	r := &Recorder{store: store, tax: tax, insights: insights, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ConvertResponse turns a slider position into agreement with the positive
// statement. A negative statement is inverted and truncated to hundredths.
func ConvertResponse(raw float64, polarity models.Polarity) float64 {
	if polarity == models.PolarityNeg {
		// 1-0.9 is 0.09999...; the epsilon keeps the floor on the intended step.
		return math.Floor((1-raw)*100+floorEpsilon) / 100
	}
	return math.Round(raw*100) / 100
}

// Record validates sub and appends it to the local event log.
func (r *Recorder) Record(ctx context.Context, sub Submission) (models.CheckIn, error) {
	if err := r.validate(sub); err != nil {
		return models.CheckIn{}, err
	}

	c := models.CheckIn{
		Date: r.now().UTC(),
		Mood: models.MoodValue{
			Color:             sub.MoodID,
			Tags:              sub.Tags,
			Competency:        sub.Competency,
			StatementResponse: ConvertResponse(sub.RawResponse, sub.Polarity),
			Polarity:          sub.Polarity,
		},
		Note: strings.TrimSpace(sub.Note),
	}

	saved, err := r.store.AddCheckIn(ctx, c)
	if err != nil {
		logger.Error("Failed to record check-in", "error", err)
		return models.CheckIn{}, err
	}
	logger.Debug("Recorded check-in", "id", saved.ID, "mood", saved.Mood.Color, "competency", saved.Mood.Competency)
	return saved, nil
}

func (r *Recorder) validate(sub Submission) error {
	if _, err := r.tax.Mood(sub.MoodID); err != nil {
		return err
	}
	if len(sub.Tags) == 0 {
		return selector.ErrNoTags
	}
	for _, id := range sub.Tags {
		if _, err := r.tax.Tag(id); err != nil {
			return err
		}
	}
	if _, err := r.tax.Competency(sub.Competency); err != nil {
		return err
	}
	if !sub.Polarity.Valid() {
		return fmt.Errorf("invalid polarity %q", sub.Polarity)
	}
	if math.IsNaN(sub.RawResponse) || sub.RawResponse < 0 || sub.RawResponse > 1 {
		return fmt.Errorf("%w: got %v", ErrInvalidResponse, sub.RawResponse)
	}
	return nil
}

// Delete removes a check-in and every insight built from it.
func (r *Recorder) Delete(ctx context.Context, id int64) error {
	if r.insights != nil {
		n, err := r.insights.CheckInDeleted(ctx, id)
		if err != nil {
			logger.Error("Failed to invalidate insights", "check_in", id, "error", err)
			return err
		}
		if n > 0 {
			logger.Debug("Invalidated insights", "check_in", id, "count", n)
		}
	}
	if err := r.store.DeleteCheckIn(ctx, id); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to delete check-in", "id", id, "error", err)
		}
		return err
	}
	return nil
}

// MirrorOutcome reports what MirrorToCompany did.
type MirrorOutcome int

const (
	MirrorSent MirrorOutcome = iota
	MirrorNotConfigured
	MirrorNotSharing
	MirrorAlreadySent
	MirrorNoIdentity
	MirrorUnauthorized
	MirrorFailed
)

func (o MirrorOutcome) String() string {
	switch o {
	case MirrorSent:
		return "sent"
	case MirrorNotConfigured:
		return "not configured"
	case MirrorNotSharing:
		return "not sharing"
	case MirrorAlreadySent:
		return "already sent today"
	case MirrorNoIdentity:
		return "no identity"
	case MirrorUnauthorized:
		return "unauthorized"
	case MirrorFailed:
		return "failed"
	}
	return fmt.Sprintf("MirrorOutcome(%d)", int(o))
}

// MirrorToCompany sends c to the company service at most once per local
// day. It never returns an error: failures are logged, the local check-in
// stays, and nothing is retried. On success the day marker is written and
// the focused-category continuation in sel is persisted. A rejected identity
// clears the keyring token and the local sharing state.
func (r *Recorder) MirrorToCompany(ctx context.Context, c models.CheckIn, st session.State, sel selector.Result) MirrorOutcome {
	if r.mirror == nil || r.tokens == nil {
		return MirrorNotConfigured
	}
	if !st.Sharing() {
		return MirrorNotSharing
	}

	day := r.now().In(st.Location()).Format(constants.DateFormat)
	n, err := r.store.CountCheckInRecords(ctx, day)
	if err != nil {
		logger.Error("Failed to read mirror markers", "day", day, "error", err)
		return MirrorFailed
	}
	if n > 0 {
		return MirrorAlreadySent
	}

	if _, err := r.tokens.Get(); err != nil {
		logger.Warn("No identity token for company mirror", "error", err)
		return MirrorNoIdentity
	}

	c.Mood.Company = st.Company
	if err := r.mirror.PostCheckIn(ctx, c); err != nil {
		if errors.Is(err, apperrors.ErrUnauthorized) {
			logger.Warn("Company identity rejected, clearing local identity", "error", err)
			r.forgetIdentity(ctx)
			return MirrorUnauthorized
		}
		logger.Error("Failed to mirror check-in", "id", c.ID, "error", err)
		return MirrorFailed
	}

	if err := r.store.AddCheckInRecord(ctx, day); err != nil {
		logger.Error("Failed to write mirror marker", "day", day, "error", err)
	}
	if err := session.ApplySelection(ctx, r.store, sel); err != nil {
		logger.Error("Failed to persist focused statement", "error", err)
	}
	logger.Info("Mirrored check-in", "id", c.ID, "day", day)
	return MirrorSent
}

func (r *Recorder) forgetIdentity(ctx context.Context) {
	if err := r.tokens.Delete(); err != nil {
		logger.Warn("Failed to delete identity token", "error", err)
	}
	if err := session.ClearIdentity(ctx, r.store); err != nil {
		logger.Error("Failed to clear sharing state", "error", err)
	}
}
