// Package taxonomy holds the static reference data check-ins are built from:
// moods, tags, competencies and categories. The data is validated once when
// loaded and never mutated afterwards, so a *Taxonomy is safe to share.
package taxonomy

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/julianstephens/moodlit/internal/models"
)

//go:embed data/taxonomy.json
var embedded []byte

const (
	minMoodID = 1
	maxMoodID = 12
)

var (
	ErrUnknownMood       = errors.New("unknown mood")
	ErrUnknownTag        = errors.New("unknown tag")
	ErrUnknownCompetency = errors.New("unknown competency")
	ErrUnknownCategory   = errors.New("unknown category")
)

type document struct {
	Moods        []models.Mood       `json:"moods"`
	Tags         []models.Tag        `json:"tags"`
	Categories   []models.Category   `json:"categories"`
	Competencies []models.Competency `json:"competencies"`
}

// Taxonomy is an immutable, validated set of lookup tables.
type Taxonomy struct {
	moods        map[int]models.Mood
	tags         map[int]models.Tag
	categories   map[int]models.Category
	competencies map[models.CompetencyID]models.Competency

	moodOrder       []int
	tagOrder        []int
	categoryOrder   []int
	competencyOrder []models.CompetencyID
}

var (
	defaultOnce sync.Once
	defaultTax  *Taxonomy
)

// Default returns the taxonomy compiled into the binary.
func Default() *Taxonomy {
	defaultOnce.Do(func() {
		t, err := Load(bytes.NewReader(embedded))
		if err != nil {
			panic(fmt.Sprintf("embedded taxonomy is invalid: %v", err))
		}
		defaultTax = t
	})
	return defaultTax
}

// Load parses and validates a taxonomy document.
func Load(r io.Reader) (*Taxonomy, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode taxonomy: %w", err)
	}
	return New(doc.Moods, doc.Tags, doc.Categories, doc.Competencies)
}

// New builds a taxonomy from in-memory records, applying the same validation
// as Load.
func New(moods []models.Mood, tags []models.Tag, categories []models.Category, competencies []models.Competency) (*Taxonomy, error) {
	t := &Taxonomy{
		moods:        make(map[int]models.Mood, len(moods)),
		tags:         make(map[int]models.Tag, len(tags)),
		categories:   make(map[int]models.Category, len(categories)),
		competencies: make(map[models.CompetencyID]models.Competency, len(competencies)),
	}

	for _, c := range categories {
		if c.ID <= 0 {
			return nil, fmt.Errorf("category %q: id must be positive", c.Title)
		}
		if _, dup := t.categories[c.ID]; dup {
			return nil, fmt.Errorf("duplicate category id %d", c.ID)
		}
		t.categories[c.ID] = c
		t.categoryOrder = append(t.categoryOrder, c.ID)
	}

	for _, c := range competencies {
		if _, ok := t.categories[c.ID.Category()]; !ok {
			return nil, fmt.Errorf("competency %s: %w %d", c.ID, ErrUnknownCategory, c.ID.Category())
		}
		if c.ID.Sequence() == 0 {
			return nil, fmt.Errorf("competency %s: sequence must start at .01", c.ID)
		}
		if _, dup := t.competencies[c.ID]; dup {
			return nil, fmt.Errorf("duplicate competency id %s", c.ID)
		}
		if c.PosStatement == "" || c.NegStatement == "" {
			return nil, fmt.Errorf("competency %s: both statements are required", c.ID)
		}
		t.competencies[c.ID] = c
		t.competencyOrder = append(t.competencyOrder, c.ID)
	}
	slices.Sort(t.competencyOrder)

	// Sequences inside a category must be contiguous from .01 so that
	// continuation can walk them by single steps.
	for _, id := range t.competencyOrder {
		if id.Sequence() > 1 {
			prev := models.NewCompetencyID(id.Category(), id.Sequence()-1)
			if _, ok := t.competencies[prev]; !ok {
				return nil, fmt.Errorf("competency %s: missing predecessor %s", id, prev)
			}
		}
	}

	for _, tag := range tags {
		if !tag.Type.Valid() {
			return nil, fmt.Errorf("tag %d (%s): invalid polarity %q", tag.ID, tag.Name, tag.Type)
		}
		if _, dup := t.tags[tag.ID]; dup {
			return nil, fmt.Errorf("duplicate tag id %d", tag.ID)
		}
		for _, cid := range tag.Competencies {
			if _, ok := t.competencies[cid]; !ok {
				return nil, fmt.Errorf("tag %d (%s): %w %s", tag.ID, tag.Name, ErrUnknownCompetency, cid)
			}
		}
		t.tags[tag.ID] = tag
		t.tagOrder = append(t.tagOrder, tag.ID)
	}

	for _, m := range moods {
		if m.ID < minMoodID || m.ID > maxMoodID {
			return nil, fmt.Errorf("mood %q: id %d out of range %d-%d", m.Name, m.ID, minMoodID, maxMoodID)
		}
		if _, dup := t.moods[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mood id %d", m.ID)
		}
		for _, attr := range []int{m.Energy, m.Stress, m.Satisfaction} {
			if attr < 0 || attr > 100 {
				return nil, fmt.Errorf("mood %d (%s): attribute %d out of range 0-100", m.ID, m.Name, attr)
			}
		}
		for _, tid := range append(slices.Clone(m.Tags), m.SecondaryTags...) {
			if _, ok := t.tags[tid]; !ok {
				return nil, fmt.Errorf("mood %d (%s): %w %d", m.ID, m.Name, ErrUnknownTag, tid)
			}
		}
		t.moods[m.ID] = m
		t.moodOrder = append(t.moodOrder, m.ID)
	}
	slices.Sort(t.moodOrder)

	return t, nil
}

func (t *Taxonomy) Mood(id int) (models.Mood, error) {
	m, ok := t.moods[id]
	if !ok {
		return models.Mood{}, fmt.Errorf("%w: %d", ErrUnknownMood, id)
	}
	return m, nil
}

func (t *Taxonomy) Tag(id int) (models.Tag, error) {
	tag, ok := t.tags[id]
	if !ok {
		return models.Tag{}, fmt.Errorf("%w: %d", ErrUnknownTag, id)
	}
	return tag, nil
}

func (t *Taxonomy) Competency(id models.CompetencyID) (models.Competency, error) {
	c, ok := t.competencies[id]
	if !ok {
		return models.Competency{}, fmt.Errorf("%w: %s", ErrUnknownCompetency, id)
	}
	return c, nil
}

func (t *Taxonomy) Category(id int) (models.Category, error) {
	c, ok := t.categories[id]
	if !ok {
		return models.Category{}, fmt.Errorf("%w: %d", ErrUnknownCategory, id)
	}
	return c, nil
}

// HasCompetency reports whether a competency with the given id exists.
func (t *Taxonomy) HasCompetency(id models.CompetencyID) bool {
	_, ok := t.competencies[id]
	return ok
}

// CompetenciesInCategories returns, in ascending id order, every competency
// id whose category is one of cats.
func (t *Taxonomy) CompetenciesInCategories(cats []int) []models.CompetencyID {
	if len(cats) == 0 {
		return nil
	}
	var out []models.CompetencyID
	for _, id := range t.competencyOrder {
		if slices.Contains(cats, id.Category()) {
			out = append(out, id)
		}
	}
	return out
}

// Moods returns all moods ordered by id.
func (t *Taxonomy) Moods() []models.Mood {
	out := make([]models.Mood, 0, len(t.moodOrder))
	for _, id := range t.moodOrder {
		out = append(out, t.moods[id])
	}
	return out
}

// Tags returns all tags in document order.
func (t *Taxonomy) Tags() []models.Tag {
	out := make([]models.Tag, 0, len(t.tagOrder))
	for _, id := range t.tagOrder {
		out = append(out, t.tags[id])
	}
	return out
}

// Categories returns all categories in document order.
func (t *Taxonomy) Categories() []models.Category {
	out := make([]models.Category, 0, len(t.categoryOrder))
	for _, id := range t.categoryOrder {
		out = append(out, t.categories[id])
	}
	return out
}

// MoodTags returns the primary and secondary tags offered for a mood.
func (t *Taxonomy) MoodTags(moodID int) ([]models.Tag, error) {
	m, err := t.Mood(moodID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Tag, 0, len(m.Tags)+len(m.SecondaryTags))
	for _, id := range append(slices.Clone(m.Tags), m.SecondaryTags...) {
		out = append(out, t.tags[id])
	}
	return out, nil
}
