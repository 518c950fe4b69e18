package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/david/tender-radar/internal/analytics"
	"github.com/david/tender-radar/internal/auth"
	"github.com/david/tender-radar/internal/config"
	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/report"
)

// Collector gathers raw notices from every configured source.
type Collector interface {
	CollectTenders(ctx context.Context, days int) ingest.Collection
}

type Scorer interface {
	ScoreTenders(tenders []models.RawTender) []models.ScoredTender
}

type FrameworkSource interface {
	Intelligence(ctx context.Context) models.FrameworkIntelligence
}

// Mailer delivers the daily digest. sent is false when delivery is not
// configured.
type Mailer interface {
	Send(ctx context.Context, result models.ScrapeResult) (sent bool, err error)
}

type Server struct {
	Collector   Collector
	Scorer      Scorer
	Frameworks  FrameworkSource
	Mailer      Mailer
	AuthService *auth.Service
	Echo        *echo.Echo
	Now         func() time.Time

	cronSecret   string
	lookbackDays int
}

type Deps struct {
	Collector  Collector
	Scorer     Scorer
	Frameworks FrameworkSource
	Mailer     Mailer
	Auth       *auth.Service
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))

	s := &Server{
		Collector:    deps.Collector,
		Scorer:       deps.Scorer,
		Frameworks:   deps.Frameworks,
		Mailer:       deps.Mailer,
		AuthService:  deps.Auth,
		Echo:         e,
		Now:          time.Now,
		cronSecret:   cfg.Auth.CronSecret,
		lookbackDays: config.ClampDays(cfg.Collect.LookbackDays),
	}
	if s.cronSecret == "" {
		log.Print("[API] CRON_SECRET is not set; /api/v1/cron is open")
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	api.POST("/auth", s.handleLogin)
	api.DELETE("/auth", s.handleLogout)

	api.GET("/cron", s.handleCron, auth.CronMiddleware(s.cronSecret))

	protected := api.Group("")
	protected.Use(s.AuthService.Middleware)
	protected.GET("/scrape", s.handleScrape)
	protected.GET("/analytics", s.handleAnalytics)
	protected.GET("/frameworks", s.handleFrameworks)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Bad request"})
	}

	token, err := s.AuthService.Login(req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		c.Logger().Errorf("Login failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	c.SetCookie(s.AuthService.NewSessionCookie(token))
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleLogout(c echo.Context) error {
	c.SetCookie(s.AuthService.ClearSessionCookie())
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// run collects, scores and summarises one lookback window.
func (s *Server) run(ctx context.Context, days int) models.ScrapeResult {
	collection := s.Collector.CollectTenders(ctx, days)
	scored := s.Scorer.ScoreTenders(collection.Tenders)
	return report.Build(collection, scored, days, s.now())
}

// queryInt reads an integer query parameter, returning 0 when it is absent
// or malformed.
func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
	if err != nil {
		return 0
	}
	return v
}

// lookback resolves the days query parameter, falling back to the
// configured LOOKBACK_DAYS when it is absent or not positive.
func (s *Server) lookback(c echo.Context) int {
	days := queryInt(c, "days")
	if days <= 0 {
		days = s.lookbackDays
	}
	return config.ClampDays(days)
}

func (s *Server) handleScrape(c echo.Context) error {
	days := s.lookback(c)
	minScore := queryInt(c, "minScore")

	result := s.run(c.Request().Context(), days)
	result.Tenders = report.FilterMinScore(result.Tenders, minScore)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleAnalytics(c echo.Context) error {
	days := s.lookback(c)

	result := s.run(c.Request().Context(), days)
	return c.JSON(http.StatusOK, analytics.Compute(result.Tenders, s.now()))
}

func (s *Server) handleFrameworks(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Frameworks.Intelligence(c.Request().Context()))
}

type cronResponse struct {
	Success bool               `json:"success"`
	Stats   models.ScrapeStats `json:"stats"`
	Message string             `json:"message"`
}

// handleCron runs the daily one-day collection and emails the digest.
func (s *Server) handleCron(c echo.Context) error {
	ctx := c.Request().Context()
	result := s.run(ctx, 1)

	if _, err := s.Mailer.Send(ctx, result); err != nil {
		log.Printf("[Cron] digest failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error":   "Cron job failed",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, cronResponse{
		Success: true,
		Stats:   result.Stats,
		Message: fmt.Sprintf("Digest sent: %d eligible tenders, %d high priority",
			result.Stats.AfterExclusions, result.Stats.HighPriority),
	})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
