package models

type RegionData struct {
	Region     string  `json:"region"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

type ProcurementRouteData struct {
	Route    string `json:"route"`
	Count    int    `json:"count"`
	AvgScore int    `json:"avgScore"`
}

type ValueBand struct {
	Band    string `json:"band"`
	Count   int    `json:"count"`
	IsSweet bool   `json:"isSweet"`
}

type TimelineEntry struct {
	Week  string `json:"week"`
	Count int    `json:"count"`
}

type BuyerTypeData struct {
	Type       string  `json:"type"`
	Count      int     `json:"count"`
	TotalValue float64 `json:"totalValue"`
}

type InsightType string

const (
	InsightPositive InsightType = "positive"
	InsightNeutral  InsightType = "neutral"
	InsightAction   InsightType = "action"
)

type InsightCard struct {
	Text string      `json:"text"`
	Type InsightType `json:"type"`
}

type SourceBreakdownData struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

type AnalyticsData struct {
	Regions           []RegionData           `json:"regions"`
	ProcurementRoutes []ProcurementRouteData `json:"procurementRoutes"`
	ValueBands        []ValueBand            `json:"valueBands"`
	Timeline          []TimelineEntry        `json:"timeline"`
	BuyerTypes        []BuyerTypeData        `json:"buyerTypes"`
	Insights          []InsightCard          `json:"insights"`
	SourceBreakdown   []SourceBreakdownData  `json:"sourceBreakdown"`
}
