package scoring

import (
	"sort"
	"time"

	"github.com/david/tender-radar/internal/models"
)

// Engine scores tenders against a fixed rule set. It holds no mutable state
// and is safe for concurrent use.
type Engine struct {
	Rules *Rules
	Now   func() time.Time
}

// NewEngine returns an engine using rules, or DefaultRules when rules is nil.
func NewEngine(rules *Rules) *Engine {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Engine{Rules: rules, Now: time.Now}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// ScoreTender classifies, scores and annotates a single tender.
func (e *Engine) ScoreTender(t models.RawTender) models.ScoredTender {
	r := e.Rules
	text := t.Title + " " + t.Description

	st := models.ScoredTender{
		RawTender:        t,
		ProcurementRoute: r.DetectProcurementRoute(text),
		BuyerType:        r.DetectBuyerType(t.Buyer, t.Description),
		Region:           r.DetectRegion(t.Location, t.Buyer, t.Description),
	}

	reason := r.CheckExclusion(text)
	if reason == "" && !r.PassesRelevanceGate(text) {
		reason = NoSupplyKeywordsReason
	}
	if reason != "" {
		st.Excluded = true
		st.ExclusionReason = &reason
	} else {
		st.Score = models.ScoreBreakdown{
			Fit:            r.ScoreFit(text, t.CPVCodes),
			Value:          ScoreValue(t.Value),
			Timeline:       ScoreTimeline(t.DeadlineDate, e.now()),
			WinProbability: r.ScoreWinProbability(text, st.ProcurementRoute),
			Geography:      r.ScoreGeography(st.Region),
			Strategic:      r.ScoreStrategic(st.BuyerType),
		}
		st.Score.Total = st.Score.Sum()
	}

	st.Priority = PriorityFor(st.Score.Total, st.Excluded)
	st.EffortEstimate = r.EstimateEffort(st.ProcurementRoute)
	st.Recommendation, st.RecommendationWhy = Recommend(st)
	return st
}

// ScoreTenders scores every tender and orders the result by total score,
// highest first. Ties keep their input order.
func (e *Engine) ScoreTenders(tenders []models.RawTender) []models.ScoredTender {
	out := make([]models.ScoredTender, 0, len(tenders))
	for _, t := range tenders {
		out = append(out, e.ScoreTender(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score.Total > out[j].Score.Total
	})
	return out
}
