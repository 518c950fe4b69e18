// Package digest renders the daily tender summary and emails it through
// Resend.
package digest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/david/tender-radar/internal/config"
	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/scoring"
)

const (
	MaxRecommended = 5
	resendEndpoint = "https://api.resend.com/emails"
	subjectPrefix  = "[UC Tenders]"
)

//go:embed template.html
var templateHTML string

var effortColors = map[models.EffortEstimate]template.CSS{
	models.EffortLow:    "#00DCBC",
	models.EffortMedium: "#F59E0B",
	models.EffortHigh:   "#EF4444",
}

var page = template.Must(template.New("digest").Funcs(template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"gbp": func(v float64) string {
		return models.FormatValue(&v, "Not disclosed")
	},
	"value": func(v *float64) string {
		return models.FormatValue(v, "Not disclosed")
	},
	"deadline": formatDeadline,
	"effortColor": func(e models.EffortEstimate) template.CSS {
		if c, ok := effortColors[e]; ok {
			return c
		}
		return "#94A3B8"
	},
}).Parse(templateHTML))

// Recommended returns every eligible tender labelled as worth bidding, in
// score order.
func Recommended(result models.ScrapeResult) []models.ScoredTender {
	var out []models.ScoredTender
	for _, t := range result.Tenders {
		if !t.Excluded && t.Recommendation.IsBid() {
			out = append(out, t)
		}
	}
	return out
}

// Subject builds the email subject line.
func Subject(result models.ScrapeResult) string {
	if n := len(Recommended(result)); n > 0 {
		return fmt.Sprintf("%s %d recommended to bid - %d high priority", subjectPrefix, n, result.Stats.HighPriority)
	}
	eligible := result.Stats.AfterExclusions
	suffix := "s"
	if eligible == 1 {
		suffix = ""
	}
	return fmt.Sprintf("%s Daily digest - %d eligible tender%s", subjectPrefix, eligible, suffix)
}

type pageData struct {
	Date         string
	Stats        models.ScrapeStats
	Recommended  []models.ScoredTender
	Remaining    int
	DashboardURL string
}

// Render builds the HTML body: the top five recommendations, or a short
// note when there are none.
func Render(result models.ScrapeResult, dashboardURL string, now time.Time) (string, error) {
	top := Recommended(result)
	if len(top) > MaxRecommended {
		top = top[:MaxRecommended]
	}
	data := pageData{
		Date:         now.Format("Monday 2 January 2006"),
		Stats:        result.Stats,
		Recommended:  top,
		Remaining:    result.Stats.AfterExclusions - len(top),
		DashboardURL: dashboardURL,
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render digest: %w", err)
	}
	return buf.String(), nil
}

func formatDeadline(deadline *string) string {
	t, ok := scoring.ParseDeadline(deadline)
	if !ok {
		if deadline != nil && *deadline != "" {
			return *deadline
		}
		return "Not specified"
	}
	return t.Format("2 Jan 2006")
}

// Notifier sends the digest through the Resend API.
type Notifier struct {
	APIKey       string
	To           string
	From         string
	DashboardURL string
	Endpoint     string
	Client       *http.Client
	Now          func() time.Time
}

func NewNotifier(cfg config.DigestConfig) *Notifier {
	return &Notifier{
		APIKey:       cfg.ResendAPIKey,
		To:           cfg.AlertEmail,
		From:         cfg.FromEmail,
		DashboardURL: cfg.DashboardURL,
		Endpoint:     resendEndpoint,
		Client:       &http.Client{Timeout: 30 * time.Second},
		Now:          time.Now,
	}
}

// Enabled reports whether both a recipient and an API key are configured.
func (n *Notifier) Enabled() bool {
	return n.To != "" && n.APIKey != ""
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Send emails the digest. It returns sent=false without error when the
// notifier is not configured.
func (n *Notifier) Send(ctx context.Context, result models.ScrapeResult) (bool, error) {
	if !n.Enabled() {
		log.Print("[Digest] ALERT_EMAIL or RESEND_API_KEY not set, skipping email send")
		return false, nil
	}

	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	body, err := Render(result, n.DashboardURL, now())
	if err != nil {
		return false, err
	}
	payload, err := json.Marshal(resendEmail{
		From:    n.From,
		To:      []string{n.To},
		Subject: Subject(result),
		HTML:    body,
	})
	if err != nil {
		return false, fmt.Errorf("encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+n.APIKey)
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return false, fmt.Errorf("resend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	log.Printf("[Digest] sent %q to %s", Subject(result), n.To)
	return true, nil
}
