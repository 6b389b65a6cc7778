// Package server is the company aggregation service. It receives anonymized
// check-ins mirrored by enrolled devices and answers the range, score and
// insight queries of the remote client.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"

	"github.com/julianstephens/moodlit/internal/constants"
	"github.com/julianstephens/moodlit/internal/insights"
	"github.com/julianstephens/moodlit/internal/logger"
	"github.com/julianstephens/moodlit/internal/models"
	"github.com/julianstephens/moodlit/internal/storage"
)

type Config struct {
	Addr               string
	AllowedOrigins     []string
	RateLimitPerMinute int
	MinUserWeeks       int
	ShutdownTimeout    time.Duration
}

// Taxonomy validates incoming check-ins.
type Taxonomy interface {
	Mood(id int) (models.Mood, error)
	HasCompetency(id models.CompetencyID) bool
}

type Server struct {
	cfg       Config
	store     storage.CompanyProvider
	cache     insights.Cache
	issuer    *Issuer
	tax       Taxonomy
	sanitizer *bluemonday.Policy
	limiter   *ipLimiter
	now       func() time.Time
}

// New builds a server. cache holds company insights; pass an
// insights.StoreCache over store when no shared cache is configured.
func New(store storage.CompanyProvider, cache insights.Cache, issuer *Issuer, tax Taxonomy, cfg Config) (*Server, error) {
	if store == nil || cache == nil || issuer == nil || tax == nil {
		return nil, errors.New("server requires a store, an insight cache, an issuer and a taxonomy")
	}
	if cfg.Addr == "" {
		cfg.Addr = constants.DefaultServerAddr
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = constants.DefaultRateLimitPerMin
	}
	if cfg.MinUserWeeks <= 0 {
		cfg.MinUserWeeks = constants.MinUserWeeksForScore
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	return &Server{
		cfg:       cfg,
		store:     store,
		cache:     cache,
		issuer:    issuer,
		tax:       tax,
		sanitizer: bluemonday.StrictPolicy(),
		limiter:   newIPLimiter(cfg.RateLimitPerMinute),
		now:       time.Now,
	}, nil
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Authorization", "Content-Type", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(s.cfg.AllowedOrigins) == 0 || (len(s.cfg.AllowedOrigins) == 1 && s.cfg.AllowedOrigins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	return cfg
}

// Router wires middleware and routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(), cors.New(s.corsConfig()), s.limiter.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		respondOK(c, gin.H{"version": constants.Version})
	})

	api := r.Group("/", authRequired(s.issuer))
	api.POST("/check-in", s.postCheckIn)
	api.POST("/check-ins", s.listCheckIns)
	api.POST("/categories", s.categories)
	api.POST("/insights", s.getInsight)
	api.POST("/insights/save", s.saveInsight)
	api.POST("/insights/delete", s.deleteInsight)
	api.POST("/report", s.report)
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Company service listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("company service stopped: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down company service")
		return srv.Shutdown(shutdownCtx)
	}
}
