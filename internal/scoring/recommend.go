package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/david/tender-radar/internal/models"
)

const (
	HighThreshold   = 70
	MediumThreshold = 50
	LowThreshold    = 30

	largeFrameworkValue = 10_000_000
	unknownBuyer        = "Unknown buyer"
	undisclosedValue    = "undisclosed value"
)

var frameworkPattern = regexp.MustCompile(`(?i)framework`)

// PriorityFor bands a total score. Excluded tenders are always SKIP.
func PriorityFor(total int, excluded bool) models.Priority {
	switch {
	case excluded:
		return models.PrioritySkip
	case total >= HighThreshold:
		return models.PriorityHigh
	case total >= MediumThreshold:
		return models.PriorityMedium
	case total >= LowThreshold:
		return models.PriorityLow
	default:
		return models.PrioritySkip
	}
}

// EstimateEffort maps a procurement route to the bid effort it usually takes.
func (r *Rules) EstimateEffort(route string) models.EffortEstimate {
	if e, ok := r.RouteEffort[route]; ok {
		return e
	}
	return models.EffortMedium
}

type strength struct {
	text      string
	magnitude float64
}

// Recommend picks the recommendation label and writes its justification.
// It reads the score, exclusion and classification fields of st.
func Recommend(st models.ScoredTender) (models.Recommendation, string) {
	if st.Excluded {
		reason := "non-supply services"
		if st.ExclusionReason != nil && *st.ExclusionReason != "" {
			reason = strings.ToLower(*st.ExclusionReason)
		}
		return models.RecommendSkip, fmt.Sprintf("Skip: Contract is for %s, not electricity supply", reason)
	}

	s := st.Score
	buyer := st.Buyer
	if strings.TrimSpace(buyer) == "" {
		buyer = unknownBuyer
	}
	val := models.FormatValue(st.Value, undisclosedValue)
	hasValue := st.Value != nil && *st.Value != 0

	switch {
	case s.Total >= HighThreshold:
		detail := strings.Join(topStrengths(st, val, hasValue, 3), ", ")
		if detail == "" {
			detail = "high overall match across dimensions"
		}
		return models.RecommendStrongFit, fmt.Sprintf("Strong fit: %s for %s", detail, buyer)

	case s.Total >= MediumThreshold:
		var highlights []string
		if st.BuyerType != BuyerOther {
			highlights = append(highlights, fmt.Sprintf("%s in %s", st.BuyerType, st.Region))
		}
		if hasValue {
			highlights = append(highlights, val+" contract")
		}
		if s.Fit >= 12 {
			highlights = append(highlights, "relevant supply keywords")
		}
		detail := "moderate fit across dimensions for " + buyer
		if len(highlights) > 0 {
			detail = strings.Join(highlights[:min(2, len(highlights))], ", ")
		}
		return models.RecommendWorthPursuing, fmt.Sprintf(
			"Worth pursuing: %s - review requirements and assess capacity to bid", detail)

	case s.Total >= LowThreshold && isLargeFramework(st.RawTender):
		return models.RecommendMonitor, fmt.Sprintf(
			"Monitor: Large framework worth %s - too large to win outright but watch for regional call-off lots from %s", val, buyer)

	case s.Total >= LowThreshold:
		return models.RecommendReview, fmt.Sprintf(
			"Review: %s %s opportunity scores moderately - needs manual review of full tender documents to assess fit", buyer, val)
	}

	weakness := "poor fit"
	if s.Fit < 8 {
		weakness = "weak keyword relevance"
	}
	return models.RecommendSkip, fmt.Sprintf("Skip: Low overall match (%d/100) - %s for our supply model", s.Total, weakness)
}

// topStrengths lists the qualifying dimensions, strongest first relative
// to each dimension's maximum, and keeps at most n.
func topStrengths(st models.ScoredTender, val string, hasValue bool, n int) []string {
	s := st.Score
	var c []strength
	switch {
	case s.Fit >= 20:
		c = append(c, strength{"strong match for HH electricity supply", ratio(s.Fit, MaxFit)})
	case s.Fit >= 12:
		c = append(c, strength{"good electricity supply fit", ratio(s.Fit, MaxFit)})
	}
	if s.Value >= 16 && hasValue {
		c = append(c, strength{val + " value sits in our sweet spot", ratio(s.Value, MaxValue)})
	}
	if s.WinProbability >= 15 {
		c = append(c, strength{strings.ToLower(st.ProcurementRoute) + " route means lower competition", ratio(s.WinProbability, MaxWinProbability)})
	}
	if s.Geography >= 8 {
		c = append(c, strength{st.Region + " geographic fit", ratio(s.Geography, MaxGeography)})
	}
	if s.Strategic >= 4 {
		c = append(c, strength{st.BuyerType + " is a strong reference customer", ratio(s.Strategic, MaxStrategic)})
	}

	sort.SliceStable(c, func(i, j int) bool { return c[i].magnitude > c[j].magnitude })

	out := make([]string, 0, n)
	for i := 0; i < len(c) && i < n; i++ {
		out = append(out, c[i].text)
	}
	return out
}

func ratio(score, ceiling int) float64 {
	return float64(score) / float64(ceiling)
}

func isLargeFramework(t models.RawTender) bool {
	if t.Value != nil && *t.Value > largeFrameworkValue {
		return true
	}
	return frameworkPattern.MatchString(t.Title + " " + t.Description)
}
