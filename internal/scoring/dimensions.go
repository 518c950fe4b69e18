package scoring

import (
	"math"
	"strings"
	"time"
)

const (
	MaxFit            = 30
	MaxValue          = 20
	MaxTimeline       = 15
	MaxWinProbability = 20
	MaxGeography      = 10
	MaxStrategic      = 5

	// UndisclosedValueScore is the value score for notices without a published amount.
	UndisclosedValueScore = 8
	// MissingDeadlineScore is the timeline score when no deadline is published.
	MissingDeadlineScore = 7
)

// ScoreFit sums keyword weights and adds the first matching CPV prefix bonus.
func (r *Rules) ScoreFit(text string, cpvCodes []string) int {
	score := 0
	for _, kw := range r.FitKeywords {
		if kw.Pattern.MatchString(text) {
			score += kw.Points
		}
	}
	for _, bonus := range r.CPVBonuses {
		if hasCPVPrefix(cpvCodes, bonus.Prefix) {
			score += bonus.Points
			break
		}
	}
	return min(score, MaxFit)
}

func hasCPVPrefix(codes []string, prefix string) bool {
	for _, c := range codes {
		if strings.HasPrefix(strings.TrimSpace(c), prefix) {
			return true
		}
	}
	return false
}

// ScoreValue bands the contract value, peaking at £500k-£2m.
func ScoreValue(value *float64) int {
	if value == nil || *value == 0 {
		return UndisclosedValueScore
	}
	v := *value
	switch {
	case v < 50_000:
		return 2
	case v < 100_000:
		return 5
	case v < 200_000:
		return 8
	case v < 500_000:
		return 14
	case v <= 2_000_000:
		return 20
	case v <= 5_000_000:
		return 14
	case v <= 10_000_000:
		return 8
	case v <= 20_000_000:
		return 5
	default:
		return 2
	}
}

// ScoreTimeline scores the days left to respond. Past deadlines score zero.
func ScoreTimeline(deadline *string, now time.Time) int {
	dl, ok := ParseDeadline(deadline)
	if !ok {
		return MissingDeadlineScore
	}
	daysLeft := DaysUntil(dl, now)
	switch {
	case daysLeft < 0:
		return 0
	case daysLeft < 3:
		return 2
	case daysLeft <= 7:
		return 8
	case daysLeft <= 14:
		return 12
	case daysLeft <= 45:
		return 15
	case daysLeft <= 90:
		return 10
	default:
		return 5
	}
}

var deadlineLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDeadline parses the ISO forms adapters emit. Unparseable values are
// treated as absent.
func ParseDeadline(deadline *string) (time.Time, bool) {
	if deadline == nil {
		return time.Time{}, false
	}
	s := strings.TrimSpace(*deadline)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DaysUntil returns the whole days from now to t, rounded up.
func DaysUntil(t, now time.Time) int {
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}

// ScoreWinProbability starts from the route's base and adds SME, social
// value and local supplier bonuses.
func (r *Rules) ScoreWinProbability(text, route string) int {
	base, ok := r.RouteBaseWin[route]
	if !ok {
		base = r.DefaultBaseWin
	}
	for _, b := range r.WinBonuses {
		if b.Pattern.MatchString(text) {
			base += b.Points
		}
	}
	return min(base, MaxWinProbability)
}

func (r *Rules) ScoreGeography(region string) int {
	if s, ok := r.RegionScores[region]; ok {
		return s
	}
	return r.DefaultGeography
}

func (r *Rules) ScoreStrategic(buyerType string) int {
	if s, ok := r.BuyerTypeScores[buyerType]; ok {
		return s
	}
	return r.DefaultStrategic
}
