package models

// Trend classifies a sequence of user-week averages.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// CategoryScore is the company-level statement score of one category.
type CategoryScore struct {
	Category int `json:"category"`
	// Score is 0-100 and only meaningful when Pending is false.
	Score     int   `json:"score"`
	Pending   bool  `json:"pending"`
	UserWeeks int   `json:"userWeeks"`
	CheckIns  int   `json:"checkIns"`
	Trend     Trend `json:"trend"`
}

// MoodSlice is one slice of the mood distribution.
type MoodSlice struct {
	MoodID  int     `json:"moodId"` // 0 for the Other slice
	Label   string  `json:"label"`
	Color   string  `json:"color"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// TagWeight is a tag's share of all tag occurrences with its display tier
// (1 = largest).
type TagWeight struct {
	TagID   int      `json:"tagId"`
	Name    string   `json:"name"`
	Type    Polarity `json:"type"`
	Count   int      `json:"count"`
	Percent float64  `json:"percent"`
	Tier    int      `json:"tier"`
}
