package server

import (
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/moodlit/internal/aggregator"
	apperrors "github.com/julianstephens/moodlit/internal/errors"
	"github.com/julianstephens/moodlit/internal/insights"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
)

const maxRange = 366 * 24 * time.Hour

func (s *Server) clean(text string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(text))
}

func (s *Server) internalError(c *gin.Context, msg string, err error) {
	logger.Error(msg, "path", c.FullPath(), "error", err)
	respondError(c, http.StatusInternalServerError, 50001, "internal error")
}

func validRange(start, end time.Time) bool {
	return !start.IsZero() && end.After(start) && end.Sub(start) <= maxRange
}

func (s *Server) postCheckIn(c *gin.Context) {
	var req models.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	mood := req.CheckIn.Mood
	if _, err := s.tax.Mood(mood.Color); err != nil {
		respondError(c, http.StatusBadRequest, 40002, "unknown mood")
		return
	}
	if !s.tax.HasCompetency(mood.Competency) {
		respondError(c, http.StatusBadRequest, 40003, "unknown competency")
		return
	}
	if math.IsNaN(mood.StatementResponse) || mood.StatementResponse < 0 || mood.StatementResponse > 1 {
		respondError(c, http.StatusBadRequest, 40004, "statement response out of range")
		return
	}
	if mood.Polarity != "" && !mood.Polarity.Valid() {
		respondError(c, http.StatusBadRequest, 40005, "invalid polarity")
		return
	}

	claims := claimsFrom(c)
	date := req.CheckIn.Date.UTC()
	if req.CheckIn.Date.IsZero() || date.After(s.now().Add(time.Hour)) {
		date = s.now().UTC()
	}
	mood.Company = claims.Company

	saved, err := s.store.AddCompanyCheckIn(c.Request.Context(), models.CompanyCheckIn{
		UserKey: claims.UserKey,
		Company: claims.Company,
		Week:    models.ISOWeek(date),
		Date:    date,
		Mood:    mood,
		Note:    s.clean(req.CheckIn.Note),
	})
	if err != nil {
		s.internalError(c, "Failed to store company check-in", err)
		return
	}
	respondOK(c, gin.H{"id": saved.ID, "week": saved.Week})
}

func (s *Server) listCheckIns(c *gin.Context) {
	var req models.RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validRange(req.Start, req.End) {
		respondError(c, http.StatusBadRequest, 40011, "invalid date range")
		return
	}

	claims := claimsFrom(c)
	rows, err := s.store.GetCompanyCheckIns(c.Request.Context(), claims.Company, req.Start, req.End, req.Category)
	if err != nil {
		s.internalError(c, "Failed to read company check-ins", err)
		return
	}
	if rows == nil {
		rows = []models.CompanyCheckIn{}
	}
	respondOK(c, models.CheckInsResponse{CheckIns: rows})
}

func (s *Server) categories(c *gin.Context) {
	var req models.RangeRequest
	if err := c.ShouldBindJSON(&req); err != nil || !validRange(req.Start, req.End) {
		respondError(c, http.StatusBadRequest, 40021, "invalid date range")
		return
	}

	ctx := c.Request.Context()
	company := claimsFrom(c).Company
	rows, err := s.store.GetCompanyCheckIns(ctx, company, req.Start, req.End, 0)
	if err != nil {
		s.internalError(c, "Failed to read company check-ins", err)
		return
	}
	active, err := s.store.CountActiveUsers(ctx, company, req.Start, req.End)
	if err != nil {
		s.internalError(c, "Failed to count active users", err)
		return
	}
	total, err := s.store.CountEnrolledUsers(ctx, company)
	if err != nil {
		s.internalError(c, "Failed to count enrolled users", err)
		return
	}

	respondOK(c, models.CategoriesResponse{
		Scores:        aggregator.CategoryScores(rows, s.cfg.MinUserWeeks),
		ActiveUsers:   active,
		TotalUsers:    total,
		Participation: aggregator.Participation(active, total),
	})
}

func (s *Server) insightKey(c *gin.Context, ids []int64, category int) (string, bool) {
	if len(ids) == 0 {
		respondError(c, http.StatusBadRequest, 40031, "ids are required")
		return "", false
	}
	return insights.CategoryKey(claimsFrom(c).Company, category, ids), true
}

func (s *Server) getInsight(c *gin.Context) {
	var req models.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	key, ok := s.insightKey(c, req.CheckInIDs, req.Category)
	if !ok {
		return
	}

	in, err := s.cache.Get(c.Request.Context(), key)
	if errors.Is(err, apperrors.ErrNotFound) {
		respondOK(c, models.InsightResponse{})
		return
	}
	if err != nil {
		s.internalError(c, "Failed to read insight", err)
		return
	}
	respondOK(c, models.InsightResponse{Summary: in.Summary, Found: true})
}

func (s *Server) saveInsight(c *gin.Context) {
	var req models.SaveInsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	key, ok := s.insightKey(c, req.CheckInIDs, req.Category)
	if !ok {
		return
	}
	summary := s.clean(req.Summary)
	if summary == "" {
		respondError(c, http.StatusBadRequest, 40032, "summary is required")
		return
	}

	err := s.cache.Put(c.Request.Context(), models.Insight{
		Key:        key,
		CheckInIDs: req.CheckInIDs,
		Summary:    summary,
		Category:   req.Category,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.internalError(c, "Failed to save insight", err)
		return
	}
	respondOK(c, nil)
}

func (s *Server) deleteInsight(c *gin.Context) {
	var req models.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	key, ok := s.insightKey(c, req.CheckInIDs, req.Category)
	if !ok {
		return
	}
	if err := s.cache.Invalidate(c.Request.Context(), key); err != nil {
		s.internalError(c, "Failed to delete insight", err)
		return
	}
	respondOK(c, nil)
}

func (s *Server) report(c *gin.Context) {
	var req models.ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	key, ok := s.insightKey(c, req.CheckInIDs, req.Category)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	company := claimsFrom(c).Company
	if err := s.store.AddInsightReport(ctx, company, key, s.clean(req.Reason)); err != nil {
		s.internalError(c, "Failed to record insight report", err)
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.internalError(c, "Failed to drop reported insight", err)
		return
	}
	logger.Info("Insight reported", "company", company)
	respondOK(c, nil)
}
