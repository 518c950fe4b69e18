// Package analytics aggregates a batch of scored tenders into the
// breakdowns shown on the insights view. Everything here is pure.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/scoring"
)

const (
	maxInsights     = 4
	weeklyBuckets   = 4
	monthlyBuckets  = 18
	alwaysShowMonth = 6
	closingSoonDays = 14
	sweetSpotMin    = 500_000
	sweetSpotMax    = 5_000_000
)

// Compute builds the analytics view. Excluded tenders only count towards
// the source breakdown.
func Compute(tenders []models.ScoredTender, now time.Time) models.AnalyticsData {
	eligible := make([]models.ScoredTender, 0, len(tenders))
	for _, t := range tenders {
		if !t.Excluded {
			eligible = append(eligible, t)
		}
	}

	regions := Regions(eligible)
	buyerTypes := BuyerTypes(eligible)
	return models.AnalyticsData{
		Regions:           regions,
		ProcurementRoutes: ProcurementRoutes(eligible),
		ValueBands:        ValueBands(eligible),
		Timeline:          Timeline(eligible, now),
		BuyerTypes:        buyerTypes,
		Insights:          Insights(eligible, regions, buyerTypes, now),
		SourceBreakdown:   SourceBreakdown(tenders),
	}
}

func valueOf(t models.ScoredTender) float64 {
	if t.Value == nil {
		return 0
	}
	return *t.Value
}

// Regions counts tenders and sums value per region, largest count first.
func Regions(tenders []models.ScoredTender) []models.RegionData {
	index := make(map[string]int)
	out := []models.RegionData{}
	for _, t := range tenders {
		region := t.Region
		if region == "" {
			region = scoring.RegionNotSpecified
		}
		i, ok := index[region]
		if !ok {
			i = len(out)
			index[region] = i
			out = append(out, models.RegionData{Region: region})
		}
		out[i].Count++
		out[i].TotalValue += valueOf(t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// ProcurementRoutes counts tenders per route with their rounded mean score.
func ProcurementRoutes(tenders []models.ScoredTender) []models.ProcurementRouteData {
	index := make(map[string]int)
	var (
		out    = []models.ProcurementRouteData{}
		totals []int
	)
	for _, t := range tenders {
		i, ok := index[t.ProcurementRoute]
		if !ok {
			i = len(out)
			index[t.ProcurementRoute] = i
			out = append(out, models.ProcurementRouteData{Route: t.ProcurementRoute})
			totals = append(totals, 0)
		}
		out[i].Count++
		totals[i] += t.Score.Total
	}
	for i := range out {
		out[i].AvgScore = int(math.Round(float64(totals[i]) / float64(out[i].Count)))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

type valueBand struct {
	label    string
	min, max float64
	sweet    bool
}

// bands are half-open [min, max); undisclosed holds nil and zero values.
var bands = []valueBand{
	{"Under £100k", 0, 100_000, false},
	{"£100k-500k", 100_000, 500_000, false},
	{"£500k-2m", 500_000, 2_000_000, true},
	{"£2m-5m", 2_000_000, 5_000_000, true},
	{"£5m+", 5_000_000, math.Inf(1), false},
}

const undisclosedBand = "Undisclosed"

// ValueBands is the fixed six-band value histogram.
func ValueBands(tenders []models.ScoredTender) []models.ValueBand {
	out := make([]models.ValueBand, 0, len(bands)+1)
	for _, b := range bands {
		n := 0
		for _, t := range tenders {
			if t.Value != nil && *t.Value >= b.min && *t.Value < b.max {
				n++
			}
		}
		out = append(out, models.ValueBand{Band: b.label, Count: n, IsSweet: b.sweet})
	}
	undisclosed := 0
	for _, t := range tenders {
		if valueOf(t) == 0 {
			undisclosed++
		}
	}
	return append(out, models.ValueBand{Band: undisclosedBand, Count: undisclosed})
}

// Timeline buckets deadlines into the next four weeks, then calendar
// months for a year and a half. Empty months are listed for the first six
// months only.
func Timeline(tenders []models.ScoredTender, now time.Time) []models.TimelineEntry {
	var deadlines []time.Time
	for _, t := range tenders {
		if dl, ok := scoring.ParseDeadline(t.DeadlineDate); ok {
			deadlines = append(deadlines, dl)
		}
	}
	count := func(start, end time.Time) int {
		n := 0
		for _, dl := range deadlines {
			if !dl.Before(start) && dl.Before(end) {
				n++
			}
		}
		return n
	}

	entries := make([]models.TimelineEntry, 0, weeklyBuckets+alwaysShowMonth)
	for i := 0; i < weeklyBuckets; i++ {
		start := now.AddDate(0, 0, i*7)
		end := start.AddDate(0, 0, 7)
		entries = append(entries, models.TimelineEntry{Week: weekLabel(i), Count: count(start, end)})
	}

	for m := 1; m <= monthlyBuckets; m++ {
		start := time.Date(now.Year(), now.Month()+time.Month(m), 1, 0, 0, 0, 0, now.Location())
		end := start.AddDate(0, 1, 0)
		n := count(start, end)
		if n > 0 || m <= alwaysShowMonth {
			entries = append(entries, models.TimelineEntry{Week: start.Format("Jan 2006"), Count: n})
		}
	}
	return entries
}

func weekLabel(i int) string {
	switch i {
	case 0:
		return "This week"
	case 1:
		return "Next week"
	default:
		return fmt.Sprintf("Week %d", i+1)
	}
}

// BuyerTypes counts tenders and sums value per buyer type, largest value
// first.
func BuyerTypes(tenders []models.ScoredTender) []models.BuyerTypeData {
	index := make(map[string]int)
	out := []models.BuyerTypeData{}
	for _, t := range tenders {
		i, ok := index[t.BuyerType]
		if !ok {
			i = len(out)
			index[t.BuyerType] = i
			out = append(out, models.BuyerTypeData{Type: t.BuyerType})
		}
		out[i].Count++
		out[i].TotalValue += valueOf(t)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalValue > out[j].TotalValue })
	return out
}

// SourceBreakdown counts tenders per portal display label, excluded ones
// included.
func SourceBreakdown(tenders []models.ScoredTender) []models.SourceBreakdownData {
	index := make(map[string]int)
	out := []models.SourceBreakdownData{}
	for _, t := range tenders {
		label := t.Source.Label()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, models.SourceBreakdownData{Source: label})
		}
		out[i].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

// Insights generates up to four cards from fixed heuristics, in order:
// dominant region, call-offs closing soon, dominant buyer type, sweet spot
// and high priority.
func Insights(tenders []models.ScoredTender, regions []models.RegionData, buyerTypes []models.BuyerTypeData, now time.Time) []models.InsightCard {
	total := len(tenders)
	if total == 0 {
		return []models.InsightCard{}
	}
	var cards []models.InsightCard

	if len(regions) > 0 {
		top := regions[0]
		pct := int(math.Round(float64(top.Count) / float64(total) * 100))
		card := models.InsightCard{
			Text: fmt.Sprintf("%d%% of current opportunities are in %s", pct, top.Region),
			Type: models.InsightNeutral,
		}
		if top.Region == scoring.RegionNorthWest {
			card.Text += " - your strongest region"
			card.Type = models.InsightPositive
		}
		cards = append(cards, card)
	}

	closingSoon := 0
	for _, t := range tenders {
		if !isCallOff(t.ProcurementRoute) {
			continue
		}
		dl, ok := scoring.ParseDeadline(t.DeadlineDate)
		if !ok {
			continue
		}
		if days := scoring.DaysUntil(dl, now); days > 0 && days <= closingSoonDays {
			closingSoon++
		}
	}
	if closingSoon > 0 {
		cards = append(cards, models.InsightCard{
			Text: fmt.Sprintf("%d framework call-off%s closing in the next 14 days - low effort, high win probability",
				closingSoon, plural(closingSoon, "", "s")),
			Type: models.InsightAction,
		})
	}

	if len(buyerTypes) > 0 && buyerTypes[0].TotalValue > 0 {
		top := buyerTypes[0]
		cards = append(cards, models.InsightCard{
			Text: fmt.Sprintf("%s represent %s in pipeline value", pluralLabel(top.Type), models.FormatGBP(top.TotalValue)),
			Type: models.InsightNeutral,
		})
	}

	sweet := 0
	for _, t := range tenders {
		if t.Value != nil && *t.Value >= sweetSpotMin && *t.Value <= sweetSpotMax {
			sweet++
		}
	}
	if sweet > 0 {
		cards = append(cards, models.InsightCard{
			Text: fmt.Sprintf("%d tender%s in the £500k-£5m sweet spot - highest ROI for bid effort", sweet, plural(sweet, "", "s")),
			Type: models.InsightPositive,
		})
	}

	high := 0
	for _, t := range tenders {
		if t.Priority == models.PriorityHigh {
			high++
		}
	}
	if high > 0 {
		cards = append(cards, models.InsightCard{
			Text: fmt.Sprintf("%d high-priority opportunit%s recommended for immediate bid action", high, plural(high, "y", "ies")),
			Type: models.InsightAction,
		})
	}

	if len(cards) > maxInsights {
		cards = cards[:maxInsights]
	}
	return cards
}

func isCallOff(route string) bool {
	switch route {
	case scoring.RouteCallOff, scoring.RouteFurtherCompetition, scoring.RouteDirectAward:
		return true
	}
	return false
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// pluralLabel pluralises a buyer type label: "Local Authority" becomes
// "Local Authorities", "NHS Trust" becomes "NHS Trusts".
func pluralLabel(label string) string {
	switch {
	case strings.HasSuffix(label, "s"):
		return label
	case strings.HasSuffix(label, "y"):
		return strings.TrimSuffix(label, "y") + "ies"
	default:
		return label + "s"
	}
}
