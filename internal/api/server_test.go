package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/david/tender-radar/internal/auth"
	"github.com/david/tender-radar/internal/config"
	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubCollector struct {
	mu   sync.Mutex
	days []int
}

func (s *stubCollector) CollectTenders(ctx context.Context, days int) ingest.Collection {
	s.mu.Lock()
	s.days = append(s.days, days)
	s.mu.Unlock()
	return ingest.Collection{
		RunID: "run-1",
		Tenders: []models.RawTender{
			{ID: "fat-1", Title: "Electricity supply", Buyer: "Bolton Council", Source: models.SourceFindATender},
			{ID: "cf-2", Title: "Energy supply", Buyer: "Leeds NHS", Source: models.SourceContractsFinder},
			{ID: "x-3", Title: "Gas supply", Buyer: "Wigan", Source: models.SourceContractsFinder},
		},
		TotalFound: 4,
		SourceHealth: []models.SourceHealth{
			{Name: "Find a Tender", OK: true, Count: 1},
			{Name: "Contracts Finder", OK: true, Count: 3},
		},
	}
}

func (s *stubCollector) lastDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.days) == 0 {
		return -1
	}
	return s.days[len(s.days)-1]
}

var stubScores = map[string]int{"fat-1": 72, "cf-2": 45, "x-3": 0}

type stubScorer struct{}

func (stubScorer) ScoreTenders(tenders []models.RawTender) []models.ScoredTender {
	out := make([]models.ScoredTender, 0, len(tenders))
	for _, t := range tenders {
		st := models.ScoredTender{RawTender: t, Score: models.ScoreBreakdown{Total: stubScores[t.ID]}}
		switch {
		case strings.HasPrefix(t.ID, "x-"):
			reason := "Gas supply"
			st.Excluded = true
			st.ExclusionReason = &reason
			st.Priority = models.PrioritySkip
		case st.Score.Total >= 65:
			st.Priority = models.PriorityHigh
			st.Recommendation = models.RecommendStrongFit
		default:
			st.Priority = models.PriorityMedium
			st.Recommendation = models.RecommendReview
		}
		out = append(out, st)
	}
	return out
}

type stubFrameworks struct{}

func (stubFrameworks) Intelligence(ctx context.Context) models.FrameworkIntelligence {
	return models.FrameworkIntelligence{
		Frameworks:          []models.TrackedFramework{{ID: "ccs-rm6251", Name: "Supply of Energy"}},
		ContractExpiries:    []models.ContractExpiry{},
		TotalFrameworkValue: "£52bn+",
	}
}

type stubMailer struct {
	err  error
	sent []models.ScrapeResult
}

func (m *stubMailer) Send(ctx context.Context, result models.ScrapeResult) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.sent = append(m.sent, result)
	return true, nil
}

func testConfig(cronSecret string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Auth: config.AuthConfig{
			Username:      "growth",
			Password:      "correct horse",
			SessionSecret: "test-secret",
			CronSecret:    cronSecret,
		},
	}
}

func newTestServer(t *testing.T, cronSecret string) (*Server, *stubCollector, *stubMailer) {
	t.Helper()
	return newTestServerWithConfig(t, testConfig(cronSecret))
}

func newTestServerWithConfig(t *testing.T, cfg *config.Config) (*Server, *stubCollector, *stubMailer) {
	t.Helper()
	authSvc, err := auth.NewService(cfg.Auth, false)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	collector := &stubCollector{}
	mailer := &stubMailer{}
	s := NewServer(cfg, Deps{
		Collector:  collector,
		Scorer:     stubScorer{},
		Frameworks: stubFrameworks{},
		Mailer:     mailer,
		Auth:       authSvc,
	})
	s.Now = func() time.Time { return testNow }
	return s, collector, mailer
}

func do(s *Server, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	rec := do(s, http.MethodPost, "/api/v1/auth", `{"username":"growth","password":"correct horse"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(s, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}

func TestLogin(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid", `{"username":"growth","password":"correct horse"}`, http.StatusOK},
		{"wrong password", `{"username":"growth","password":"nope"}`, http.StatusUnauthorized},
		{"malformed", `{"username":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodPost, "/api/v1/auth", tt.body)
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	rec := do(s, http.MethodDelete, "/api/v1/auth", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != auth.SessionCookie || cookies[0].MaxAge >= 0 {
		t.Fatalf("expected expired session cookie, got %+v", cookies)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	s, collector, _ := newTestServer(t, "")
	for _, path := range []string{"/api/v1/scrape", "/api/v1/analytics", "/api/v1/frameworks"} {
		rec := do(s, http.MethodGet, path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", path, rec.Code)
		}
	}
	if collector.lastDays() != -1 {
		t.Error("collector should not run for unauthenticated requests")
	}
}

func TestScrape(t *testing.T) {
	s, collector, _ := newTestServer(t, "")
	session := login(t, s)

	tests := []struct {
		name     string
		query    string
		wantDays int
		wantIDs  []string
	}{
		{"defaults", "", 3, []string{"fat-1", "cf-2", "x-3"}},
		{"clamped", "?days=90", 30, []string{"fat-1", "cf-2", "x-3"}},
		{"malformed days", "?days=abc", 3, []string{"fat-1", "cf-2", "x-3"}},
		{"min score", "?days=7&minScore=50", 7, []string{"fat-1", "x-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, "/api/v1/scrape"+tt.query, "", session)
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := collector.lastDays(); got != tt.wantDays {
				t.Errorf("expected days %d, got %d", tt.wantDays, got)
			}

			var result models.ScrapeResult
			if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(result.Tenders) != len(tt.wantIDs) {
				t.Fatalf("expected %d tenders, got %d", len(tt.wantIDs), len(result.Tenders))
			}
			for i, id := range tt.wantIDs {
				if result.Tenders[i].ID != id {
					t.Errorf("tender %d: expected %s, got %s", i, id, result.Tenders[i].ID)
				}
			}
			if result.Stats.TotalFound != 4 || result.Stats.AfterDedup != 3 || result.Stats.AfterExclusions != 2 {
				t.Errorf("unexpected stats %+v", result.Stats)
			}
			if result.Stats.DaysSearched != tt.wantDays {
				t.Errorf("expected daysSearched %d, got %d", tt.wantDays, result.Stats.DaysSearched)
			}
			if len(result.SourceHealth) != 2 {
				t.Errorf("expected 2 health entries, got %d", len(result.SourceHealth))
			}
		})
	}
}

func TestScrapeUsesConfiguredLookback(t *testing.T) {
	tests := []struct {
		name     string
		lookback int
		query    string
		wantDays int
	}{
		{"configured default", 7, "", 7},
		{"zero days falls back", 7, "?days=0", 7},
		{"query wins", 7, "?days=2", 2},
		{"configured value clamped", 90, "", 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig("")
			cfg.Collect.LookbackDays = tt.lookback
			s, collector, _ := newTestServerWithConfig(t, cfg)
			session := login(t, s)

			for _, path := range []string{"/api/v1/scrape", "/api/v1/analytics"} {
				rec := do(s, http.MethodGet, path+tt.query, "", session)
				if rec.Code != http.StatusOK {
					t.Fatalf("%s: expected 200, got %d", path, rec.Code)
				}
				if got := collector.lastDays(); got != tt.wantDays {
					t.Errorf("%s: expected days %d, got %d", path, tt.wantDays, got)
				}
			}
		})
	}
}

func TestAnalytics(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	session := login(t, s)

	rec := do(s, http.MethodGet, "/api/v1/analytics?days=5", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var data models.AnalyticsData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}

	counts := map[string]int{}
	for _, sb := range data.SourceBreakdown {
		counts[sb.Source] = sb.Count
	}
	if counts["Contracts Finder"] != 2 || counts["Find a Tender"] != 1 {
		t.Errorf("unexpected source breakdown %+v", data.SourceBreakdown)
	}
	if len(data.ValueBands) == 0 {
		t.Error("expected value bands")
	}
}

func TestFrameworks(t *testing.T) {
	s, _, _ := newTestServer(t, "")
	session := login(t, s)

	rec := do(s, http.MethodGet, "/api/v1/frameworks", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var fi models.FrameworkIntelligence
	if err := json.Unmarshal(rec.Body.Bytes(), &fi); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(fi.Frameworks) != 1 || fi.TotalFrameworkValue != "£52bn+" {
		t.Errorf("unexpected intelligence %+v", fi)
	}
}

func TestCron(t *testing.T) {
	s, collector, mailer := newTestServer(t, "s3cret")

	rec := do(s, http.MethodGet, "/api/v1/cron", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without secret, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cron", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if collector.lastDays() != 1 {
		t.Errorf("cron should collect one day, got %d", collector.lastDays())
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected one digest, got %d", len(mailer.sent))
	}

	var resp cronResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.Message != "Digest sent: 2 eligible tenders, 1 high priority" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestCronMailerFailure(t *testing.T) {
	s, _, mailer := newTestServer(t, "")
	mailer.err = errors.New("resend returned status 500")

	rec := do(s, http.MethodGet, "/api/v1/cron", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Cron job failed") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestShutdownStopsServer(t *testing.T) {
	s, _, _ := newTestServer(t, "")

	errCh := make(chan error, 1)
	go func() { errCh <- s.Start("0") }()

	deadline := time.Now().Add(5 * time.Second)
	for s.Echo.ListenerAddr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server did not start listening")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + s.Echo.ListenerAddr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			t.Errorf("Start returned %v, want http.ErrServerClosed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Shutdown")
	}
}
