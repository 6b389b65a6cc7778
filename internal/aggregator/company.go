package aggregator

import (
	"slices"

	"github.com/montanaflynn/stats"

	"github.com/julianstephens/moodlit/internal/models"
)

type userWeek struct {
	user string
	week string
}

// bucketAverages groups one category's check-ins by user and ISO week and
// averages each bucket. Buckets come back in order of first appearance.
func bucketAverages(checkIns []models.CompanyCheckIn) []float64 {
	var order []userWeek
	values := make(map[userWeek]stats.Float64Data)
	for _, c := range checkIns {
		week := c.Week
		if week == "" {
			week = models.ISOWeek(c.Date)
		}
		k := userWeek{user: c.UserKey, week: week}
		if _, seen := values[k]; !seen {
			order = append(order, k)
		}
		values[k] = append(values[k], c.Mood.StatementResponse)
	}

	avgs := make([]float64, 0, len(order))
	for _, k := range order {
		mean, err := stats.Mean(values[k])
		if err != nil {
			continue
		}
		avgs = append(avgs, mean)
	}
	return avgs
}

// CategoryScores computes the company score of every category present in
// checkIns. Responses are averaged per user-week first and the bucket means
// are averaged again, so a frequent user weighs as much as an occasional
// one. A category with fewer than minUserWeeks buckets is Pending.
func CategoryScores(checkIns []models.CompanyCheckIn, minUserWeeks int) []models.CategoryScore {
	minUserWeeks = max(minUserWeeks, 1)

	byCategory := make(map[int][]models.CompanyCheckIn)
	for _, c := range checkIns {
		cat := c.Mood.Competency.Category()
		byCategory[cat] = append(byCategory[cat], c)
	}

	cats := make([]int, 0, len(byCategory))
	for cat := range byCategory {
		cats = append(cats, cat)
	}
	slices.Sort(cats)

	scores := make([]models.CategoryScore, 0, len(cats))
	for _, cat := range cats {
		avgs := bucketAverages(byCategory[cat])
		score := models.CategoryScore{
			Category:  cat,
			UserWeeks: len(avgs),
			CheckIns:  len(byCategory[cat]),
			Trend:     Trend(avgs),
			Pending:   len(avgs) < minUserWeeks,
		}
		if !score.Pending {
			mean, err := stats.Mean(avgs)
			if err != nil {
				score.Pending = true
			} else {
				r, _ := stats.Round(mean*100, 0)
				score.Score = int(r)
			}
		}
		scores = append(scores, score)
	}
	return scores
}

// Trend labels a series by comparing its strictly rising and strictly
// falling adjacent pairs.
func Trend(values []float64) models.Trend {
	up, down := 0, 0
	for i := 1; i < len(values); i++ {
		switch {
		case values[i] > values[i-1]:
			up++
		case values[i] < values[i-1]:
			down++
		}
	}
	switch {
	case up > down:
		return models.TrendIncreasing
	case down > up:
		return models.TrendDecreasing
	}
	return models.TrendStable
}

// Participation is the percentage of eligible users active in a period.
func Participation(active, total int) int {
	if total <= 0 || active <= 0 {
		return 0
	}
	return int(percent(min(active, total), total))
}

// ParticipationLevel buckets a participation percentage for end users.
func ParticipationLevel(pct int) string {
	switch {
	case pct >= 80:
		return "VERY HIGH"
	case pct >= 60:
		return "HIGH"
	case pct >= 40:
		return "MODERATE"
	case pct >= 20:
		return "LIMITED"
	}
	return "LOW"
}
