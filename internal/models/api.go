package models

import "time"

// Envelope is the uniform body of every company service response.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// CheckInRequest mirrors one check-in to the company service.
type CheckInRequest struct {
	UUID    string  `json:"uuid"`
	CheckIn CheckIn `json:"checkIn"`
}

// RangeRequest selects company check-ins or scores in [Start, End).
type RangeRequest struct {
	UUID     string    `json:"uuid"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Category int       `json:"category,omitempty"`
}

// InsightRequest looks up a summary for a set of check-ins.
type InsightRequest struct {
	UUID       string  `json:"uuid"`
	CheckInIDs []int64 `json:"ids"`
	Category   int     `json:"category,omitempty"`
}

// SaveInsightRequest stores a generated summary.
type SaveInsightRequest struct {
	UUID       string  `json:"uuid"`
	CheckInIDs []int64 `json:"ids"`
	Summary    string  `json:"summary"`
	Category   int     `json:"category,omitempty"`
}

// ReportRequest flags a generated summary as low quality.
type ReportRequest struct {
	UUID       string  `json:"uuid"`
	CheckInIDs []int64 `json:"ids"`
	Category   int     `json:"category,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// CheckInsResponse is the body of POST /check-ins.
type CheckInsResponse struct {
	CheckIns []CompanyCheckIn `json:"checkIns"`
}

// InsightResponse is the body of POST /insights.
type InsightResponse struct {
	Summary string `json:"summary"`
	Found   bool   `json:"found"`
}

// CategoriesResponse is the body of POST /categories.
type CategoriesResponse struct {
	Scores        []CategoryScore `json:"scores"`
	ActiveUsers   int             `json:"activeUsers"`
	TotalUsers    int             `json:"totalUsers"`
	Participation int             `json:"participation"`
}
