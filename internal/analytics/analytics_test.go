package analytics

import (
	"testing"
	"time"

	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/scoring"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func sampleTenders() []models.ScoredTender {
	mk := func(source models.SourceTag, region, route, buyerType string, value *float64, deadline *string, total int, p models.Priority) models.ScoredTender {
		return models.ScoredTender{
			RawTender: models.RawTender{
				Source:       source,
				Value:        value,
				DeadlineDate: deadline,
			},
			Region:           region,
			ProcurementRoute: route,
			BuyerType:        buyerType,
			Score:            models.ScoreBreakdown{Total: total},
			Priority:         p,
		}
	}

	excluded := mk(models.SourcePCS, scoring.RegionScotland, scoring.RouteOpenTender, scoring.BuyerLocalAuth, ptr(9_000_000.0), nil, 0, models.PrioritySkip)
	excluded.Excluded = true

	return []models.ScoredTender{
		mk(models.SourceTheChest, scoring.RegionNorthWest, scoring.RouteCallOff, scoring.BuyerLocalAuth,
			ptr(1_000_000.0), ptr(testNow.AddDate(0, 0, 5).Format(time.RFC3339)), 80, models.PriorityHigh),
		mk(models.SourceFindATender, scoring.RegionNorthWest, scoring.RouteOpenTender, scoring.BuyerLocalAuth,
			ptr(3_000_000.0), ptr("2026-05-10T12:00:00Z"), 60, models.PriorityMedium),
		mk(models.SourceFindATender, scoring.RegionLondon, scoring.RouteOpenTender, scoring.BuyerNHS,
			nil, nil, 40, models.PriorityLow),
		excluded,
		mk(models.SourceBidstats, "", scoring.RouteNotSpecified, scoring.BuyerOther,
			ptr(50_000.0), ptr("2027-06-15T12:00:00Z"), 20, models.PrioritySkip),
	}
}

func TestComputeExcludesIneligibleTenders(t *testing.T) {
	data := Compute(sampleTenders(), testNow)

	wantRegions := []models.RegionData{
		{Region: scoring.RegionNorthWest, Count: 2, TotalValue: 4_000_000},
		{Region: scoring.RegionLondon, Count: 1, TotalValue: 0},
		{Region: scoring.RegionNotSpecified, Count: 1, TotalValue: 50_000},
	}
	if len(data.Regions) != len(wantRegions) {
		t.Fatalf("expected %d regions, got %+v", len(wantRegions), data.Regions)
	}
	for i, w := range wantRegions {
		if data.Regions[i] != w {
			t.Errorf("region %d: expected %+v, got %+v", i, w, data.Regions[i])
		}
	}

	wantSources := []models.SourceBreakdownData{
		{Source: "Find a Tender", Count: 2},
		{Source: "The Chest (NW)", Count: 1},
		{Source: "PCS (Scotland)", Count: 1},
		{Source: "Bidstats", Count: 1},
	}
	if len(data.SourceBreakdown) != len(wantSources) {
		t.Fatalf("expected %d sources, got %+v", len(wantSources), data.SourceBreakdown)
	}
	for i, w := range wantSources {
		if data.SourceBreakdown[i] != w {
			t.Errorf("source %d: expected %+v, got %+v", i, w, data.SourceBreakdown[i])
		}
	}
}

func TestProcurementRoutes(t *testing.T) {
	data := Compute(sampleTenders(), testNow)

	first := data.ProcurementRoutes[0]
	if first.Route != scoring.RouteOpenTender || first.Count != 2 || first.AvgScore != 50 {
		t.Errorf("unexpected top route %+v", first)
	}
	if len(data.ProcurementRoutes) != 3 {
		t.Errorf("expected 3 routes, got %d", len(data.ProcurementRoutes))
	}
}

func TestValueBands(t *testing.T) {
	data := Compute(sampleTenders(), testNow)

	want := []models.ValueBand{
		{Band: "Under £100k", Count: 1},
		{Band: "£100k-500k", Count: 0},
		{Band: "£500k-2m", Count: 1, IsSweet: true},
		{Band: "£2m-5m", Count: 1, IsSweet: true},
		{Band: "£5m+", Count: 0},
		{Band: "Undisclosed", Count: 1},
	}
	if len(data.ValueBands) != len(want) {
		t.Fatalf("expected 6 bands, got %d", len(data.ValueBands))
	}
	for i, w := range want {
		if data.ValueBands[i] != w {
			t.Errorf("band %d: expected %+v, got %+v", i, w, data.ValueBands[i])
		}
	}
}

func TestTimeline(t *testing.T) {
	entries := Timeline(sampleTenders(), testNow)

	labels := []string{
		"This week", "Next week", "Week 3", "Week 4",
		"Apr 2026", "May 2026", "Jun 2026", "Jul 2026", "Aug 2026", "Sep 2026",
		"Jun 2027",
	}
	if len(entries) != len(labels) {
		t.Fatalf("expected %d entries, got %+v", len(labels), entries)
	}
	for i, l := range labels {
		if entries[i].Week != l {
			t.Errorf("entry %d: expected %q, got %q", i, l, entries[i].Week)
		}
	}
	if entries[0].Count != 1 {
		t.Errorf("expected 1 deadline this week, got %d", entries[0].Count)
	}
	if entries[5].Count != 1 {
		t.Errorf("expected 1 deadline in May, got %d", entries[5].Count)
	}
	if entries[10].Count != 1 {
		t.Errorf("expected the far deadline in Jun 2027, got %d", entries[10].Count)
	}
}

func TestBuyerTypesSortedByValue(t *testing.T) {
	data := Compute(sampleTenders(), testNow)

	want := []string{scoring.BuyerLocalAuth, scoring.BuyerOther, scoring.BuyerNHS}
	if len(data.BuyerTypes) != len(want) {
		t.Fatalf("expected %d buyer types, got %+v", len(want), data.BuyerTypes)
	}
	for i, w := range want {
		if data.BuyerTypes[i].Type != w {
			t.Errorf("buyer type %d: expected %s, got %s", i, w, data.BuyerTypes[i].Type)
		}
	}
}

func TestInsights(t *testing.T) {
	data := Compute(sampleTenders(), testNow)

	want := []models.InsightCard{
		{Text: "50% of current opportunities are in North West - your strongest region", Type: models.InsightPositive},
		{Text: "1 framework call-off closing in the next 14 days - low effort, high win probability", Type: models.InsightAction},
		{Text: "Local Authorities represent £4.0m in pipeline value", Type: models.InsightNeutral},
		{Text: "2 tenders in the £500k-£5m sweet spot - highest ROI for bid effort", Type: models.InsightPositive},
	}
	if len(data.Insights) != len(want) {
		t.Fatalf("expected %d insights, got %+v", len(want), data.Insights)
	}
	for i, w := range want {
		if data.Insights[i] != w {
			t.Errorf("insight %d: expected %+v, got %+v", i, w, data.Insights[i])
		}
	}
}

func TestComputeEmpty(t *testing.T) {
	data := Compute(nil, testNow)

	if len(data.Regions) != 0 || len(data.Insights) != 0 || len(data.SourceBreakdown) != 0 {
		t.Errorf("expected empty aggregates, got %+v", data)
	}
	if len(data.ValueBands) != 6 {
		t.Errorf("expected all six bands even when empty, got %d", len(data.ValueBands))
	}
	if len(data.Timeline) != 10 {
		t.Errorf("expected 4 weeks and 6 months, got %d", len(data.Timeline))
	}
}

func TestPluralLabel(t *testing.T) {
	tests := map[string]string{
		"Local Authority":    "Local Authorities",
		"NHS Trust":          "NHS Trusts",
		"Emergency Services": "Emergency Services",
	}
	for in, want := range tests {
		if got := pluralLabel(in); got != want {
			t.Errorf("pluralLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
