package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/models"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("BST", 3600))

func scored(total int, p models.Priority, value *float64, pipeline, excluded bool) models.ScoredTender {
	return models.ScoredTender{
		RawTender: models.RawTender{Value: value, IsPipeline: pipeline},
		Score:     models.ScoreBreakdown{Total: total},
		Priority:  p,
		Excluded:  excluded,
	}
}

func val(v float64) *float64 { return &v }

func TestComputeStats(t *testing.T) {
	tenders := []models.ScoredTender{
		scored(85, models.PriorityHigh, val(1_000_000), false, false),
		scored(60, models.PriorityMedium, nil, true, false),
		scored(55, models.PriorityMedium, val(250_000), false, false),
		scored(35, models.PriorityLow, val(9_000_000), true, false),
		scored(10, models.PrioritySkip, val(50_000), false, false),
		scored(0, models.PrioritySkip, val(7_000_000), false, true),
	}

	stats := ComputeStats(9, tenders, 3, testNow)

	want := models.ScrapeStats{
		TotalFound:      9,
		AfterDedup:      6,
		AfterExclusions: 5,
		HighPriority:    1,
		MediumPriority:  2,
		LowPriority:     1,
		SkipCount:       1,
		PipelineCount:   2,
		PipelineValue:   1_250_000,
		AvgScore:        49,
		ScrapedAt:       "2026-03-01T11:00:00Z",
		DaysSearched:    3,
	}
	if stats != want {
		t.Errorf("unexpected stats\n got: %+v\nwant: %+v", stats, want)
	}
}

func TestComputeStatsNoEligibleTenders(t *testing.T) {
	tenders := []models.ScoredTender{scored(0, models.PrioritySkip, nil, false, true)}

	stats := ComputeStats(1, tenders, 1, testNow)
	if stats.AvgScore != 0 {
		t.Errorf("expected avgScore 0, got %d", stats.AvgScore)
	}
	if stats.AfterExclusions != 0 || stats.SkipCount != 0 {
		t.Errorf("excluded tenders must not be counted: %+v", stats)
	}
}

func TestBuildNeverEmitsNullLists(t *testing.T) {
	res := Build(ingest.Collection{}, nil, 3, testNow)

	raw, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	for _, key := range []string{"tenders", "sourceHealth", "recentAwards"} {
		if _, ok := decoded[key].([]any); !ok {
			t.Errorf("expected %s to be an array, got %v", key, decoded[key])
		}
	}
}

func TestFilterMinScore(t *testing.T) {
	tenders := []models.ScoredTender{
		scored(80, models.PriorityHigh, nil, false, false),
		scored(40, models.PriorityLow, nil, false, false),
		scored(0, models.PrioritySkip, nil, false, true),
	}

	tests := []struct {
		name     string
		minScore int
		want     int
	}{
		{"disabled", 0, 3},
		{"negative", -5, 3},
		{"drops low scores", 50, 2},
		{"exact boundary kept", 40, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FilterMinScore(tenders, tt.minScore); len(got) != tt.want {
				t.Errorf("expected %d tenders, got %d", tt.want, len(got))
			}
		})
	}
}
