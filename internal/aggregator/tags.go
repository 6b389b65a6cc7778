package aggregator

import (
	"cmp"
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/models"
)

// tierThresholds are the minimum percentages for tiers 1-5; anything
// smaller is tier 6.
var tierThresholds = []float64{20, 15, 10, 5, 2.5}

// Tier maps a percentage share to a display size, 1 largest.
func Tier(pct float64) int {
	for i, threshold := range tierThresholds {
		if pct >= threshold {
			return i + 1
		}
	}
	return len(tierThresholds) + 1
}

// TagFrequency counts tag occurrences and returns the TopTags most frequent
// with their share of all occurrences.
func TagFrequency(checkIns []models.CheckIn, tax Taxonomy) []models.TagWeight {
	counts := make(map[int]int)
	total := 0
	for _, c := range checkIns {
		for _, id := range c.Mood.Tags {
			counts[id]++
			total++
		}
	}
	if total == 0 {
		return nil
	}

	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	slices.SortStableFunc(ids, func(a, b int) int {
		return cmp.Compare(counts[b], counts[a])
	})
	if len(ids) > constants.TopTags {
		ids = ids[:constants.TopTags]
	}

	out := make([]models.TagWeight, 0, len(ids))
	for _, id := range ids {
		share := float64(counts[id]) / float64(total) * 100
		w := models.TagWeight{TagID: id, Name: "Unknown", Count: counts[id], Tier: Tier(share)}
		w.Percent, _ = stats.Round(share, 1)
		if tag, err := tax.Tag(id); err == nil {
			w.Name = tag.Name
			w.Type = tag.Type
		}
		out = append(out, w)
	}
	return out
}
