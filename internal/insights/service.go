package insights

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/textgen"
)

const systemPrompt = `You are a supportive workplace wellbeing companion.
You receive a list of mood check-ins. Each line has the date, the mood, the
tags picked, a workplace statement with how strongly the person agreed with
it, and an optional note.
Write a short, warm summary in second person (at most three short
paragraphs): name recurring patterns, what seems to help, and one gentle
suggestion. Do not diagnose, do not invent facts, and do not quote notes
verbatim.`

// Taxonomy resolves the names used in prompts.
type Taxonomy interface {
	Mood(id int) (models.Mood, error)
	Tag(id int) (models.Tag, error)
	Competency(id models.CompetencyID) (models.Competency, error)
	Category(id int) (models.Category, error)
}

// Service summarizes check-ins, reusing cached summaries for a set it has
// seen before.
type Service struct {
	cache Cache
	gen   textgen.Generator
	tax   Taxonomy
	now   func() time.Time
}

func NewService(cache Cache, gen textgen.Generator, tax Taxonomy) *Service {
	return &Service{cache: cache, gen: gen, tax: tax, now: time.Now}
}

// Summarize returns the insight for checkIns focused on category, generating
// and caching it on a miss. Two concurrent misses may both generate; the last Put wins.
func (s *Service) Summarize(ctx context.Context, checkIns []models.CheckIn, category int) (models.Insight, error) {
	if len(checkIns) == 0 {
		return models.Insight{}, ErrEmptyKey
	}
	ids := checkInIDs(checkIns)
	key := CategoryKey("", category, ids)

	cached, err := s.cache.Get(ctx, key)
	if err == nil {
		logger.Debug("Insight cache hit", "key", key)
		return cached, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		logger.Warn("Insight cache lookup failed", "key", key, "error", err)
	}

	summary, err := s.Generate(ctx, checkIns, category)
	if err != nil {
		return models.Insight{}, err
	}

	insight := models.Insight{
		Key:        key,
		CheckInIDs: ids,
		Summary:    summary,
		Category:   category,
		CreatedAt:  s.now(),
	}
	if err := s.cache.Put(ctx, insight); err != nil {
		logger.Warn("Failed to cache insight", "key", key, "error", err)
	}
	return insight, nil
}

// Generate builds the prompts for checkIns and calls the generator without
// consulting the cache.
func (s *Service) Generate(ctx context.Context, checkIns []models.CheckIn, category int) (string, error) {
	if len(checkIns) == 0 {
		return "", ErrEmptyKey
	}
	summary, err := s.gen.Generate(ctx, systemPrompt, s.UserPrompt(checkIns, category))
	if err != nil {
		logger.Error("Text generation failed", "check_ins", len(checkIns), "error", err)
		return "", fmt.Errorf("generate insight: %w", err)
	}
	if summary == "" {
		return "", fmt.Errorf("generate insight: %w: empty response", apperrors.ErrTransient)
	}
	return summary, nil
}

// Report drops a summary the user flagged so the next request regenerates it.
func (s *Service) Report(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		return fmt.Errorf("invalidate insight: %w", err)
	}
	logger.Info("Insight reported", "key", key)
	return nil
}

// CheckInDeleted drops every summary that was built from the check-in.
func (s *Service) CheckInDeleted(ctx context.Context, id int64) (int, error) {
	n, err := s.cache.InvalidateCheckIn(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("invalidate insights for check-in %d: %w", id, err)
	}
	return n, nil
}

// UserPrompt renders one line per check-in.
func (s *Service) UserPrompt(checkIns []models.CheckIn, category int) string {
	var b strings.Builder
	if category != 0 {
		if cat, err := s.tax.Category(category); err == nil {
			fmt.Fprintf(&b, "Focus on the %q area: %s\n\n", cat.Title, cat.Description)
		}
	}
	b.WriteString("Check-ins:\n")
	for _, c := range checkIns {
		b.WriteString("- ")
		b.WriteString(c.Date.Format("Mon 2006-01-02"))

		mood := "unknown"
		if m, err := s.tax.Mood(c.Mood.Color); err == nil {
			mood = m.Name
		}
		fmt.Fprintf(&b, " | mood: %s", mood)

		if names := s.tagNames(c.Mood.Tags); len(names) > 0 {
			fmt.Fprintf(&b, " | tags: %s", strings.Join(names, ", "))
		}
		if comp, err := s.tax.Competency(c.Mood.Competency); err == nil {
			agreement := int(math.Round(c.Mood.StatementResponse * 100))
			fmt.Fprintf(&b, " | statement: %q agreement: %d%%", comp.PosStatement, agreement)
		}
		if note := strings.TrimSpace(c.Note); note != "" {
			fmt.Fprintf(&b, " | note: %s", strings.ReplaceAll(note, "\n", " "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (s *Service) tagNames(ids []int) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if tag, err := s.tax.Tag(id); err == nil {
			names = append(names, tag.Name)
		}
	}
	return names
}

func checkInIDs(checkIns []models.CheckIn) []int64 {
	ids := make([]int64, len(checkIns))
	for i, c := range checkIns {
		ids[i] = c.ID
	}
	slices.Sort(ids)
	return ids
}
