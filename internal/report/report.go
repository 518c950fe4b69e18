// Package report assembles the collection output contract served to the
// dashboard and used by the digest.
package report

import (
	"math"
	"time"

	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/models"
)

// Eligible returns the tenders that were not excluded, in order.
func Eligible(tenders []models.ScoredTender) []models.ScoredTender {
	out := make([]models.ScoredTender, 0, len(tenders))
	for _, t := range tenders {
		if !t.Excluded {
			out = append(out, t)
		}
	}
	return out
}

// Build wraps a scored collection with its run statistics. scored must be
// the scoring of c.Tenders.
func Build(c ingest.Collection, scored []models.ScoredTender, days int, now time.Time) models.ScrapeResult {
	if scored == nil {
		scored = []models.ScoredTender{}
	}
	health := c.SourceHealth
	if health == nil {
		health = []models.SourceHealth{}
	}
	awards := c.RecentAwards
	if awards == nil {
		awards = []models.AwardNotice{}
	}

	return models.ScrapeResult{
		Tenders:      scored,
		Stats:        ComputeStats(c.TotalFound, scored, days, now),
		SourceHealth: health,
		RecentAwards: awards,
	}
}

// ComputeStats derives the run statistics. All counts except totalFound
// and afterDedup are over eligible tenders only.
func ComputeStats(totalFound int, scored []models.ScoredTender, days int, now time.Time) models.ScrapeStats {
	eligible := Eligible(scored)
	stats := models.ScrapeStats{
		TotalFound:      totalFound,
		AfterDedup:      len(scored),
		AfterExclusions: len(eligible),
		ScrapedAt:       now.UTC().Format(time.RFC3339),
		DaysSearched:    days,
	}

	sum := 0
	for _, t := range eligible {
		sum += t.Score.Total
		if t.IsPipeline {
			stats.PipelineCount++
		}
		switch t.Priority {
		case models.PriorityHigh:
			stats.HighPriority++
		case models.PriorityMedium:
			stats.MediumPriority++
		case models.PriorityLow:
			stats.LowPriority++
		default:
			stats.SkipCount++
		}
		if (t.Priority == models.PriorityHigh || t.Priority == models.PriorityMedium) && t.Value != nil {
			stats.PipelineValue += *t.Value
		}
	}
	if len(eligible) > 0 {
		stats.AvgScore = int(math.Round(float64(sum) / float64(len(eligible))))
	}
	return stats
}

// FilterMinScore drops eligible tenders scoring below minScore. Excluded
// tenders are kept so callers can still show why they were filtered out.
// A minScore of zero or less returns tenders unchanged.
func FilterMinScore(tenders []models.ScoredTender, minScore int) []models.ScoredTender {
	if minScore <= 0 {
		return tenders
	}
	out := make([]models.ScoredTender, 0, len(tenders))
	for _, t := range tenders {
		if t.Excluded || t.Score.Total >= minScore {
			out = append(out, t)
		}
	}
	return out
}
