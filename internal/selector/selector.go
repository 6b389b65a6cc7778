// Package selector picks the workplace statement shown during a check-in.
//
// Selection is either a deterministic continuation through a focused
// category (one competency per check-in, stepping by .01) or a weighted
// random pick among the competencies linked to the selected tags: candidates
// are shuffled and the most frequent one wins, so a competency reachable from
// several tags is proportionally more likely while ties break randomly.
package selector

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/utils"
)

var (
	ErrNoTags       = errors.New("at least one tag must be selected")
	ErrNoCandidates = errors.New("no eligible competency for the selected tags")
)

// Taxonomy is the subset of reference data lookups the selector needs.
type Taxonomy interface {
	Tag(id int) (models.Tag, error)
	Competency(id models.CompetencyID) (models.Competency, error)
	HasCompetency(id models.CompetencyID) bool
	CompetenciesInCategories(cats []int) []models.CompetencyID
}

// Request carries the check-in input and the caller's continuation state.
type Request struct {
	SelectedTags []int
	// FocusedCategory is the category being walked in order; 0 when inactive.
	FocusedCategory int
	// AvailableCategories restricts selection to the company's categories;
	// empty means unrestricted.
	AvailableCategories []int
	// PreviousFocusedStatement is the last competency shown in continuation
	// mode, 0 if none.
	PreviousFocusedStatement models.CompetencyID
}

// Result is the chosen statement plus the state changes the caller must
// persist.
type Result struct {
	CompetencyID models.CompetencyID
	Statement    string
	Polarity     models.Polarity

	// FocusedCategory is the focused category in effect after selection.
	FocusedCategory int
	// PersistFocused is set when CompetencyID continues a focused category
	// and should be stored as the next PreviousFocusedStatement.
	PersistFocused bool
	// ClearFocus is set when the focused category ran out of competencies.
	ClearFocus bool
}

// Selector is not safe for concurrent use because it owns its random source.
type Selector struct {
	tax Taxonomy
	rng *rand.Rand
}

// New returns a Selector. A nil rng is replaced by a randomly seeded one.
func New(tax Taxonomy, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Selector{tax: tax, rng: rng}
}

func (s *Selector) Select(req Request) (Result, error) {
	if len(req.SelectedTags) == 0 {
		return Result{}, ErrNoTags
	}

	var res Result
	focus := req.FocusedCategory
	companyRandom := false
	var forced models.CompetencyID

	if focus != 0 {
		next := models.NewCompetencyID(focus, 1)
		if prev := req.PreviousFocusedStatement; prev != 0 && prev.Category() == focus {
			next = prev.Next()
		}
		if s.tax.HasCompetency(next) {
			forced = next
		} else {
			res.ClearFocus = true
			focus = 0
			companyRandom = true
		}
	}

	company := s.tax.CompetenciesInCategories(req.AvailableCategories)
	unrestricted := len(req.AvailableCategories) == 0

	var candidates []models.CompetencyID
	polarities := make([]models.Polarity, 0, len(req.SelectedTags))
	for _, id := range req.SelectedTags {
		tag, err := s.tax.Tag(id)
		if err != nil {
			return Result{}, err
		}
		polarities = append(polarities, tag.Type)

		for _, cid := range tag.Competencies {
			inCompany := slices.Contains(company, cid)
			if unrestricted || (focus == 0 && inCompany) || (companyRandom && inCompany) {
				candidates = append(candidates, cid)
			}
		}
	}

	polarity, _ := utils.MostCommon(polarities)

	var chosen models.CompetencyID
	if forced != 0 {
		chosen = forced
		res.PersistFocused = true
	} else {
		if len(candidates) == 0 {
			candidates = company
		}
		mode, ok := utils.MostCommon(utils.Shuffle(s.rng, candidates))
		if !ok {
			return Result{}, ErrNoCandidates
		}
		chosen = mode
	}

	comp, err := s.tax.Competency(chosen)
	if err != nil {
		return Result{}, fmt.Errorf("selected competency: %w", err)
	}

	res.CompetencyID = chosen
	res.Statement = comp.Statement(polarity)
	res.Polarity = polarity
	res.FocusedCategory = focus
	return res, nil
}
