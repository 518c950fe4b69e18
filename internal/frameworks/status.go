package frameworks

import (
	"regexp"
	"strconv"
	"time"

	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/scoring"
)

const expiringSoonDays = 365

// StatusDecision is the derived status of a framework and the rule that
// produced it.
type StatusDecision struct {
	Status models.FrameworkStatus
	Reason string
}

var leadingYear = regexp.MustCompile(`^\s*(\d+)`)

// DecideStatus derives a framework's status from its live signals, its
// expiry date and its next procurement window, in that order.
func DecideStatus(fw models.TrackedFramework, signals []models.FrameworkSignal, now time.Time) StatusDecision {
	for _, s := range signals {
		if s.Type == models.SignalReprocurement || s.Type == models.SignalMarketEngagement {
			return StatusDecision{Status: models.FrameworkReprocuring, Reason: "reprocurement_signal"}
		}
	}

	if expiry, ok := scoring.ParseDeadline(fw.ExpiryDate); ok {
		days := scoring.DaysUntil(expiry, now)
		if days < 0 {
			return StatusDecision{Status: models.FrameworkExpired, Reason: "expiry_passed"}
		}
		if days <= expiringSoonDays {
			return StatusDecision{Status: models.FrameworkExpiringSoon, Reason: "expiry_within_year"}
		}
	}

	if year, ok := windowYear(fw.NextProcurementWindow); ok {
		if year <= now.Year() {
			return StatusDecision{Status: models.FrameworkReprocuring, Reason: "window_open"}
		}
		if year == now.Year()+1 {
			return StatusDecision{Status: models.FrameworkExpiringSoon, Reason: "window_next_year"}
		}
	}

	return StatusDecision{Status: models.FrameworkActive, Reason: "no_activity"}
}

// windowYear reads the first year of a window such as "2026-2027".
func windowYear(window *string) (int, bool) {
	if window == nil {
		return 0, false
	}
	m := leadingYear.FindStringSubmatch(*window)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}
