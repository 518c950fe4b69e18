package models

type FrameworkStatus string

const (
	FrameworkActive       FrameworkStatus = "active"
	FrameworkExpiringSoon FrameworkStatus = "expiring-soon"
	FrameworkReprocuring  FrameworkStatus = "re-procuring"
	FrameworkExpired      FrameworkStatus = "expired"
)

type SignalType string

const (
	SignalPipeline         SignalType = "pipeline"
	SignalMarketEngagement SignalType = "market-engagement"
	SignalAward            SignalType = "award"
	SignalReprocurement    SignalType = "re-procurement"
)

// FrameworkSignal is a Find a Tender notice that mentions a tracked framework.
type FrameworkSignal struct {
	Title string     `json:"title"`
	URL   string     `json:"url"`
	Date  string     `json:"date"`
	Type  SignalType `json:"type"`
}

// TrackedFramework is a known electricity buying framework plus its live signals.
type TrackedFramework struct {
	ID                    string            `json:"id" yaml:"id"`
	Name                  string            `json:"name" yaml:"name"`
	Operator              string            `json:"operator" yaml:"operator"`
	Reference             string            `json:"reference" yaml:"reference"`
	Description           string            `json:"description" yaml:"description"`
	EstimatedValue        string            `json:"estimatedValue" yaml:"estimated_value"`
	ExpiryDate            *string           `json:"expiryDate" yaml:"expiry_date"`
	NextProcurementWindow *string           `json:"nextProcurementWindow" yaml:"next_procurement_window"`
	Relevance             string            `json:"relevance" yaml:"relevance"`
	ActionRequired        string            `json:"actionRequired" yaml:"action_required"`
	Tier                  string            `json:"tier" yaml:"tier"`
	SearchTerms           []string          `json:"-" yaml:"search_terms"`
	FTSSignals            []FrameworkSignal `json:"ftsSignals" yaml:"-"`
	CurrentStatus         FrameworkStatus   `json:"currentStatus" yaml:"-"`
}

// ContractExpiry is an awarded electricity contract with its known or estimated end date.
type ContractExpiry struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Buyer               string    `json:"buyer"`
	Value               *float64  `json:"value"`
	AwardDate           string    `json:"awardDate"`
	ExpiryDate          *string   `json:"expiryDate"`
	EstimatedExpiryDate *string   `json:"estimatedExpiryDate"`
	Region              string    `json:"region"`
	Source              SourceTag `json:"source"`
	URL                 string    `json:"url"`
	DaysUntilExpiry     *int      `json:"daysUntilExpiry"`
}

type FrameworkIntelligence struct {
	Frameworks             []TrackedFramework `json:"frameworks"`
	ContractExpiries       []ContractExpiry   `json:"contractExpiries"`
	UpcomingReprocurements int                `json:"upcomingReprocurements"`
	ExpiringNext6Months    int                `json:"expiringNext6Months"`
	TotalFrameworkValue    string             `json:"totalFrameworkValue"`
}
