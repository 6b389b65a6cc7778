// Package aggregator turns check-ins into the statistics shown by the
// dashboard, the stats command and the company service. Every function is
// pure and returns zero values or pending results for empty input.
package aggregator

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/utils"
)

// Taxonomy resolves mood attributes and tag names.
type Taxonomy interface {
	Mood(id int) (models.Mood, error)
	Tag(id int) (models.Tag, error)
}

const otherColor = "#9E9E9E"

// DefaultPalette backs the color strip when there are no check-ins.
var DefaultPalette = []string{"#FFD23F", "#3BCEAC", "#0EAD69", "#540D6E", "#EE4266"}

// percent rounds share*100 half away from zero.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	p, _ := stats.Round(float64(part)/float64(total)*100, 0)
	return p
}

// MoodDistribution returns the share of each mood, largest first. Moods past
// the first TopMoodSlices are folded into one Other slice.
func MoodDistribution(checkIns []models.CheckIn, tax Taxonomy) []models.MoodSlice {
	counts := make(map[int]int)
	for _, c := range checkIns {
		counts[c.Mood.Color]++
	}
	return DistributionFromCounts(counts, tax)
}

// DistributionFromCounts is MoodDistribution over pre-grouped counts, such as
// the store's GROUP BY query.
func DistributionFromCounts(counts map[int]int, tax Taxonomy) []models.MoodSlice {
	total := 0
	ids := make([]int, 0, len(counts))
	for id, n := range counts {
		if n <= 0 {
			continue
		}
		ids = append(ids, id)
		total += n
	}
	if total == 0 {
		return nil
	}
	slices.Sort(ids)
	slices.SortStableFunc(ids, func(a, b int) int {
		return cmp.Compare(counts[b], counts[a])
	})

	out := make([]models.MoodSlice, 0, min(len(ids), constants.TopMoodSlices+1))
	other := 0
	for i, id := range ids {
		if i >= constants.TopMoodSlices {
			other += counts[id]
			continue
		}
		slice := models.MoodSlice{MoodID: id, Label: "Unknown", Color: otherColor, Count: counts[id]}
		if m, err := tax.Mood(id); err == nil {
			slice.Label = m.Name
			slice.Color = m.Color
		}
		slice.Percent = percent(slice.Count, total)
		out = append(out, slice)
	}
	if other > 0 {
		out = append(out, models.MoodSlice{
			Label:   constants.OtherSliceLabel,
			Color:   otherColor,
			Count:   other,
			Percent: percent(other, total),
		})
	}
	return out
}

// moodAttribute averages one static mood attribute across checkIns,
// skipping unknown moods. ok is false when nothing contributed.
func moodAttribute(checkIns []models.CheckIn, tax Taxonomy, attr func(models.Mood) int) (float64, bool) {
	values := make(stats.Float64Data, 0, len(checkIns))
	for _, c := range checkIns {
		m, err := tax.Mood(c.Mood.Color)
		if err != nil {
			continue
		}
		values = append(values, float64(attr(m)))
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0, false
	}
	return mean, true
}

// BurnoutRisk combines average stress and lack of energy into a 0-100
// score. ok is false for an empty set.
func BurnoutRisk(checkIns []models.CheckIn, tax Taxonomy) (risk int, ok bool) {
	stress, ok := moodAttribute(checkIns, tax, func(m models.Mood) int { return m.Stress })
	if !ok {
		return 0, false
	}
	energy, _ := moodAttribute(checkIns, tax, func(m models.Mood) int { return m.Energy })
	r, _ := stats.Round((stress+(100-energy))/2, 0)
	return max(0, min(100, int(r))), true
}

// Rotation maps a burnout risk to a gauge needle angle in degrees, -90 at 0
// and 90 at 100.
func Rotation(risk int) float64 {
	return -90 + 180*float64(risk)/100
}

// SentimentIndex is the rounded average satisfaction of the set.
func SentimentIndex(checkIns []models.CheckIn, tax Taxonomy) (int, bool) {
	sat, ok := moodAttribute(checkIns, tax, func(m models.Mood) int { return m.Satisfaction })
	if !ok {
		return 0, false
	}
	return int(math.Round(sat)), true
}

// BackgroundColors returns up to n mood colors from the most recent
// check-ins, oldest first, with consecutive repeats collapsed. An empty set
// yields DefaultPalette.
func BackgroundColors(checkIns []models.CheckIn, tax Taxonomy, n int) []string {
	var colors []string
	for i := len(checkIns) - 1; i >= 0 && len(colors) < n; i-- {
		m, err := tax.Mood(checkIns[i].Mood.Color)
		if err != nil {
			continue
		}
		if len(colors) > 0 && colors[len(colors)-1] == m.Color {
			continue
		}
		colors = append(colors, m.Color)
	}
	if len(colors) == 0 {
		return slices.Clone(DefaultPalette)
	}
	slices.Reverse(colors)
	return colors
}

// WeekRange returns the Monday-start week containing t in t's location.
func WeekRange(t time.Time) (start, end time.Time) {
	return utils.WeekBounds(t)
}

// Snapshot bundles the personal statistics for one range of check-ins.
type Snapshot struct {
	Total      int
	Moods      []models.MoodSlice
	Burnout    int
	HasBurnout bool
	Rotation   float64
	Sentiment  int
	Tags       []models.TagWeight
	Colors     []string
}

func Summarize(checkIns []models.CheckIn, tax Taxonomy) Snapshot {
	s := Snapshot{
		Total:  len(checkIns),
		Moods:  MoodDistribution(checkIns, tax),
		Tags:   TagFrequency(checkIns, tax),
		Colors: BackgroundColors(checkIns, tax, 5),
	}
	s.Burnout, s.HasBurnout = BurnoutRisk(checkIns, tax)
	if s.HasBurnout {
		s.Rotation = Rotation(s.Burnout)
	}
	s.Sentiment, _ = SentimentIndex(checkIns, tax)
	return s
}
