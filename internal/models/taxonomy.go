package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Polarity is the tone of a tag or of the statement shown to the user.
type Polarity string

const (
	PolarityPos Polarity = "pos"
	PolarityNeg Polarity = "neg"
)

// Valid reports whether p is one of the two known polarities.
func (p Polarity) Valid() bool {
	return p == PolarityPos || p == PolarityNeg
}

// CompetencyID identifies a competency as category.sequence in hundredths:
// 302 is competency 3.02, the second statement of category 3. It marshals to
// and from the float form used by the reference data and the remote API.
type CompetencyID int

// NewCompetencyID builds an id from a category and a 1-based sequence.
func NewCompetencyID(category, sequence int) CompetencyID {
	return CompetencyID(category*100 + sequence)
}

// ParseCompetencyID converts a float such as 3.02 into a CompetencyID.
func ParseCompetencyID(f float64) CompetencyID {
	return CompetencyID(math.Round(f * 100))
}

// Category returns the integer part of the id.
func (c CompetencyID) Category() int {
	return int(c) / 100
}

// Sequence returns the position of the competency inside its category.
func (c CompetencyID) Sequence() int {
	return int(c) % 100
}

// Next returns the id 0.01 above c.
func (c CompetencyID) Next() CompetencyID {
	return c + 1
}

// Float returns the two-decimal float form.
func (c CompetencyID) Float() float64 {
	return float64(c) / 100
}

func (c CompetencyID) String() string {
	return strconv.FormatFloat(c.Float(), 'f', 2, 64)
}

func (c CompetencyID) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *CompetencyID) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("competency id: %w", err)
	}
	*c = ParseCompetencyID(f)
	return nil
}

// Mood is one of the twelve fixed mood categories.
type Mood struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Color         string `json:"color"`
	Energy        int    `json:"energy"`       // 0-100
	Stress        int    `json:"stress"`       // 0-100
	Satisfaction  int    `json:"satisfaction"` // 0-100
	Tags          []int  `json:"tags"`
	SecondaryTags []int  `json:"secondaryTags"`
}

// Tag is a short descriptor the user picks to describe their day.
type Tag struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Type         Polarity       `json:"type"`
	Competencies []CompetencyID `json:"competencies"`
}

// Competency is an agree/disagree statement in both polarities.
type Competency struct {
	ID           CompetencyID `json:"id"`
	PosStatement string       `json:"posStatement"`
	NegStatement string       `json:"negStatement"`
	Type         string       `json:"type"`
}

// Statement returns the statement text for polarity p.
func (c Competency) Statement(p Polarity) string {
	if p == PolarityNeg {
		return c.NegStatement
	}
	return c.PosStatement
}

// Category groups competencies.
type Category struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}
