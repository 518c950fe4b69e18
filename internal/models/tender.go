package models

// SourceTag identifies the portal a notice was collected from.
type SourceTag string

const (
	SourceFindATender     SourceTag = "find-a-tender"
	SourceContractsFinder SourceTag = "contracts-finder"
	SourceBidstats        SourceTag = "bidstats"
	SourcePCS             SourceTag = "pcs"
	SourceSell2Wales      SourceTag = "sell2wales"
	SourceD3Tenders       SourceTag = "d3-tenders"
	SourceTheChest        SourceTag = "the-chest"
	SourceETendersNI      SourceTag = "etendersni"
	SourceDelta           SourceTag = "delta"
	SourceDueNorth        SourceTag = "due-north"
)

var sourceLabels = map[SourceTag]string{
	SourceFindATender:     "Find a Tender",
	SourceContractsFinder: "Contracts Finder",
	SourceBidstats:        "Bidstats",
	SourcePCS:             "PCS (Scotland)",
	SourceSell2Wales:      "Sell2Wales",
	SourceD3Tenders:       "D3 Tenders",
	SourceTheChest:        "The Chest (NW)",
	SourceETendersNI:      "eTendersNI",
	SourceDelta:           "Delta eSourcing",
	SourceDueNorth:        "Due North Portals",
}

// Label is the display name of the portal. Unknown tags render as-is.
func (s SourceTag) Label() string {
	if l, ok := sourceLabels[s]; ok {
		return l
	}
	return string(s)
}

// RawTender is a normalized procurement notice as returned by a source adapter.
type RawTender struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	PublishedDate string    `json:"publishedDate"`
	DeadlineDate  *string   `json:"deadlineDate"`
	Value         *float64  `json:"value"` // nil = undisclosed
	Currency      string    `json:"currency"`
	Buyer         string    `json:"buyer"`
	Location      string    `json:"location"`
	Source        SourceTag `json:"source"`
	URL           string    `json:"url"`
	CPVCodes      []string  `json:"cpvCodes"`
	IsPipeline    bool      `json:"isPipeline"`
}

type ScoreBreakdown struct {
	Fit            int `json:"fit"`
	Value          int `json:"value"`
	Timeline       int `json:"timeline"`
	WinProbability int `json:"winProbability"`
	Geography      int `json:"geography"`
	Strategic      int `json:"strategic"`
	Total          int `json:"total"`
}

// Sum returns the additive total of the six dimensions.
func (b ScoreBreakdown) Sum() int {
	return b.Fit + b.Value + b.Timeline + b.WinProbability + b.Geography + b.Strategic
}

type Recommendation string

const (
	RecommendStrongFit     Recommendation = "Bid - Strong Fit"
	RecommendWorthPursuing Recommendation = "Bid - Worth Pursuing"
	RecommendMonitor       Recommendation = "Monitor - Watch for Calloffs"
	RecommendReview        Recommendation = "Review - Needs Assessment"
	RecommendSkip          Recommendation = "Skip"
)

// IsBid reports whether the label recommends submitting a bid.
func (r Recommendation) IsBid() bool {
	return r == RecommendStrongFit || r == RecommendWorthPursuing
}

type EffortEstimate string

const (
	EffortLow    EffortEstimate = "Low"
	EffortMedium EffortEstimate = "Medium"
	EffortHigh   EffortEstimate = "High"
)

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
	PrioritySkip   Priority = "SKIP"
)

// ScoredTender is a RawTender with its classification, score and recommendation.
type ScoredTender struct {
	RawTender
	Score             ScoreBreakdown `json:"score"`
	Excluded          bool           `json:"excluded"`
	ExclusionReason   *string        `json:"exclusionReason"`
	Recommendation    Recommendation `json:"recommendation"`
	RecommendationWhy string         `json:"recommendationWhy"`
	EffortEstimate    EffortEstimate `json:"effortEstimate"`
	Priority          Priority       `json:"priority"`
	ProcurementRoute  string         `json:"procurementRoute"`
	BuyerType         string         `json:"buyerType"`
	Region            string         `json:"region"`
}

// AwardNotice is a historical contract award used for market intelligence views.
type AwardNotice struct {
	Title     string   `json:"title"`
	Buyer     string   `json:"buyer"`
	Winner    string   `json:"winner"`
	Value     *float64 `json:"value"`
	AwardDate string   `json:"awardDate"`
	Region    string   `json:"region"`
	URL       string   `json:"url"`
}

// SourceHealth reports the outcome of one adapter in one collection run.
type SourceHealth struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
}

type ScrapeStats struct {
	TotalFound      int     `json:"totalFound"`
	AfterDedup      int     `json:"afterDedup"`
	AfterExclusions int     `json:"afterExclusions"`
	HighPriority    int     `json:"highPriority"`
	MediumPriority  int     `json:"mediumPriority"`
	LowPriority     int     `json:"lowPriority"`
	SkipCount       int     `json:"skipCount"`
	PipelineCount   int     `json:"pipelineCount"`
	PipelineValue   float64 `json:"pipelineValue"`
	AvgScore        int     `json:"avgScore"`
	ScrapedAt       string  `json:"scrapedAt"`
	DaysSearched    int     `json:"daysSearched"`
}

// ScrapeResult is the collection output contract consumed by the dashboard and digest.
type ScrapeResult struct {
	Tenders      []ScoredTender `json:"tenders"`
	Stats        ScrapeStats    `json:"stats"`
	SourceHealth []SourceHealth `json:"sourceHealth"`
	RecentAwards []AwardNotice  `json:"recentAwards"`
}
