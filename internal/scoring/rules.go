package scoring

import (
	"regexp"

	"github.com/david/tender-radar/internal/models"
)

// LabelRule maps a pattern to a label. Tables of LabelRule are evaluated in
// order and the first match wins.
type LabelRule struct {
	Pattern *regexp.Regexp
	Label   string
}

// WeightRule maps a pattern to points. Every matching rule contributes.
type WeightRule struct {
	Pattern *regexp.Regexp
	Points  int
}

// PrefixRule awards a bonus when any CPV code starts with Prefix.
// Only the first matching prefix in the table is applied.
type PrefixRule struct {
	Prefix string
	Points int
}

// BonusRule adds a small fixed bonus to win probability.
type BonusRule struct {
	Pattern *regexp.Regexp
	Points  int
}

// Rules is the immutable configuration the engine scores against.
type Rules struct {
	SupplyKeywords   []*regexp.Regexp
	Exclusions       []LabelRule
	Routes           []LabelRule
	BuyerTypes       []LabelRule
	Regions          []LabelRule
	FitKeywords      []WeightRule
	CPVBonuses       []PrefixRule
	RouteBaseWin     map[string]int
	DefaultBaseWin   int
	WinBonuses       []BonusRule
	RegionScores     map[string]int
	DefaultGeography int
	BuyerTypeScores  map[string]int
	DefaultStrategic int
	RouteEffort      map[string]models.EffortEstimate
	HomeRegion       string
}

const (
	RouteDirectAward         = "Direct Award"
	RouteCallOff             = "Framework Call-off"
	RouteFurtherCompetition  = "Further Competition"
	RouteMiniCompetition     = "Mini Competition"
	RouteDPS                 = "DPS"
	RouteFramework           = "Framework"
	RouteOpenTender          = "Open Tender"
	RouteRestricted          = "Restricted"
	RouteCompetitiveDialogue = "Competitive Dialogue"
	RouteNotSpecified        = "Not Specified"

	BuyerNHS        = "NHS Trust"
	BuyerUniversity = "University"
	BuyerLocalAuth  = "Local Authority"
	BuyerHousing    = "Housing Association"
	BuyerEmergency  = "Emergency Services"
	BuyerMOD        = "MOD"
	BuyerEducation  = "Education"
	BuyerOther      = "Other Public Sector"

	RegionNorthWest       = "North West"
	RegionNorthEast       = "North East / Yorkshire"
	RegionMidlands        = "Midlands"
	RegionLondon          = "London"
	RegionSouthEast       = "South East"
	RegionSouthWest       = "South West"
	RegionEast            = "East of England"
	RegionScotland        = "Scotland"
	RegionWales           = "Wales"
	RegionNorthernIreland = "Northern Ireland"
	RegionNational        = "National"
	RegionNotSpecified    = "Not Specified"

	NoSupplyKeywordsReason = "No supply keywords found"
)

var re = regexp.MustCompile

// DefaultRules returns the electricity-supply rule set. Call it once at
// startup and share the result; the engine never mutates it.
func DefaultRules() *Rules {
	return &Rules{
		SupplyKeywords: []*regexp.Regexp{
			re(`(?i)electricity\s+supply`),
			re(`(?i)energy\s+supply`),
			re(`(?i)supply\s+of\s+electricity`),
			re(`(?i)supply\s+of\s+energy`),
			re(`(?i)electricity\s+framework`),
			re(`(?i)power\s+purchase`),
			re(`\bPPA\b`),
			re(`\bCPPA\b`),
			re(`(?i)half[\s-]?hourly`),
			re(`(?i)\bHH\s+supply`),
			re(`(?i)renewable\s+energy\s+supply`),
			re(`(?i)green\s+energy`),
			re(`\bREGO\b`),
			re(`(?i)utility\s+supply`),
			re(`(?i)gas\s+and\s+electricity`),
			re(`(?i)electricity\s+and\s+gas`),
			re(`(?i)supply\s+of\s+utilities`),
			re(`(?i)licensed\s+supplier`),
			re(`(?i)flexible\s+purchas`),
			re(`(?i)flexible\s+procurement\s+and\s+supply`),
			re(`(?i)electricity\s+procurement`),
			re(`(?i)energy\s+procurement`),
			re(`(?i)renewable\s+supply`),
			re(`(?i)green\s+tariff`),
			re(`(?i)energy\s+framework`),
			re(`(?i)electricity\s+contract`),
			re(`(?i)energy\s+contract`),
			re(`(?i)electricity\s+tender`),
			re(`(?i)energy\s+tender`),
			re(`(?i)public\s+buying\s+organisation`),
			re(`\bPBO\b`),
			re(`(?i)electricity\s+portfolio`),
		},
		Exclusions: []LabelRule{
			{re(`(?i)solar\s+(panel|install|farm|pv)`), "Solar installation"},
			{re(`(?i)heat\s+network`), "Heat networks"},
			{re(`(?i)\bev\s+charg`), "EV charging"},
			{re(`(?i)electric\s+vehicle\s+charg`), "EV charging"},
			{re(`(?i)consultancy`), "Consultancy"},
			{re(`(?i)energy\s+audit`), "Energy audit"},
			{re(`(?i)metering\s+(service|install)`), "Metering"},
			{re(`(?i)smart\s+meter`), "Smart metering"},
			{re(`(?i)\bretrofit\b`), "Retrofit"},
			{re(`(?i)\binsulation\b`), "Insulation"},
			{re(`(?i)electrical\s+(works|install)`), "Electrical works"},
			{re(`(?i)street\s+light`), "Street lighting"},
			{re(`(?i)generation\s+(plant|facility|asset)`), "Generation"},
			{re(`(?i)traffic\s+management`), "Traffic management"},
			{re(`(?i)\bCCTV\b`), "CCTV"},
			{re(`(?i)\bgritting\b`), "Gritting"},
			{re(`(?i)\bhighways?\b`), "Highways"},
			{re(`(?i)\bconstruction\b`), "Construction"},
			{re(`(?i)\bdemolition\b`), "Demolition"},
			{re(`(?i)\bcleaning\s+(service|contract)`), "Cleaning"},
			{re(`(?i)\bcatering\b`), "Catering"},
			{re(`(?i)waste\s+(collection|management|disposal)`), "Waste management"},
			{re(`(?i)water\s+supply`), "Water supply"},
			{re(`(?i)\btelecoms?\b`), "Telecoms"},
			{re(`\bIT\s+services?\b`), "IT services"},
			{re(`(?i)\bprinting\b`), "Printing"},
			{re(`(?i)\bfurniture\b`), "Furniture"},
			{re(`(?i)\bvehicles?\b`), "Vehicles"},
			{re(`(?i)spill\s+response`), "Spill response"},
			{re(`(?i)\bflood\b`), "Flood"},
			{re(`(?i)\bdrainage\b`), "Drainage"},
			{re(`(?i)\broad\s+(surface|maintenance|marking)`), "Roads"},
			{re(`(?i)\bsignage\b`), "Signage"},
			{re(`(?i)\bparking\b`), "Parking"},
			{re(`(?i)security\s+(guard|service|patrol)`), "Security"},
			{re(`(?i)\bHVAC\b`), "HVAC"},
			{re(`(?i)\bplumbing\b`), "Plumbing"},
			{re(`(?i)\broofing\b`), "Roofing"},
			{re(`(?i)\bscaffolding\b`), "Scaffolding"},
			{re(`(?i)\basbestos\b`), "Asbestos"},
			{re(`(?i)pest\s+control`), "Pest control"},
			{re(`(?i)\blandscaping\b`), "Landscaping"},
			{re(`(?i)\bpostal\b`), "Postal"},
			{re(`(?i)\bcourier\b`), "Courier"},
			{re(`(?i)training\s+(service|provision|course)`), "Training"},
			{re(`(?i)\brecruitment\b`), "Recruitment"},
			{re(`(?i)legal\s+services?`), "Legal services"},
			{re(`(?i)\btranslation\b`), "Translation"},
			{re(`(?i)\badvertising\b`), "Advertising"},
			{re(`(?i)media\s+buying`), "Media buying"},
		},
		// Several route terms can co-occur ("call-off from the framework"),
		// so the most specific route must come first.
		Routes: []LabelRule{
			{re(`(?i)direct\s+award`), RouteDirectAward},
			{re(`(?i)call[\s-]?off`), RouteCallOff},
			{re(`(?i)further\s+competition`), RouteFurtherCompetition},
			{re(`(?i)mini[\s-]?competition`), RouteMiniCompetition},
			{re(`(?i:dynamic\s+purchas)|\bDPS\b`), RouteDPS},
			{re(`(?i)open\s+(tender|procedure)`), RouteOpenTender},
			{re(`(?i)restricted\s+(tender|procedure)`), RouteRestricted},
			{re(`(?i)competitive\s+dialogue`), RouteCompetitiveDialogue},
			{re(`(?i)framework`), RouteFramework},
		},
		BuyerTypes: []LabelRule{
			{re(`(?i)nhs|health|hospital|clinical|commissioning\s+group|medical`), BuyerNHS},
			{re(`(?i)universit|college`), BuyerUniversity},
			{re(`(?i)council|borough|county|city\s+of|district|metropolitan`), BuyerLocalAuth},
			{re(`(?i)housing|homes\s+(association|group)|habitation`), BuyerHousing},
			{re(`(?i)police|fire|ambulance|emergency\s+service`), BuyerEmergency},
			{re(`(?i)\bmod\b|ministry\s+of\s+defence|defence\b`), BuyerMOD},
			{re(`(?i)school|academy|education|learning`), BuyerEducation},
		},
		Regions: []LabelRule{
			{re(`(?i)north\s*west|manchester|lancashire|liverpool|cheshire|cumbria|merseyside|warrington|bolton|salford|stockport|wigan|oldham|rochdale|\bbury\b|tameside|trafford|preston|blackburn|blackpool`), RegionNorthWest},
			{re(`(?i)north\s*east|newcastle|durham|sunderland|tyne|tees|yorkshire|leeds|sheffield|bradford|\bhull\b|\byork\b`), RegionNorthEast},
			{re(`(?i)birmingham|nottingham|leicester|derby|coventry|wolverhampton|stoke|midlands`), RegionMidlands},
			{re(`(?i)\blondon\b|westminster|camden|hackney|tower\s+hamlets|islington|southwark|lambeth`), RegionLondon},
			{re(`(?i)south\s*east|kent|surrey|sussex|hampshire|berkshire|oxford|brighton`), RegionSouthEast},
			{re(`(?i)south\s*west|bristol|\bbath\b|devon|cornwall|somerset|dorset|gloucester|wiltshire`), RegionSouthWest},
			{re(`(?i)east\s+(anglia|of\s+england)|norfolk|suffolk|cambridge|essex|hertford|bedford`), RegionEast},
			{re(`(?i)scotland|scottish|edinburgh|glasgow|aberdeen|dundee`), RegionScotland},
			{re(`(?i)wales|welsh|cardiff|swansea|newport`), RegionWales},
			{re(`(?i)northern\s+ireland|belfast`), RegionNorthernIreland},
			{re(`(?i)national|uk[\s-]?wide|across\s+the\s+uk|england\s+wide`), RegionNational},
		},
		FitKeywords: []WeightRule{
			{re(`(?i)supply\s+of\s+electricity`), 6},
			{re(`(?i)electricity\s+supply`), 5},
			{re(`(?i)half[\s-]?hourly`), 5},
			{re(`(?i)\bHH\s+(supply|data|meter)`), 5},
			{re(`(?i)renewable\s+(energy|electricity)`), 4},
			{re(`(?i)\bPPA\b|power\s+purchase\s+agreement`), 5},
			{re(`(?i)\bREGO\b|renewable\s+energy\s+guarantee`), 5},
			{re(`(?i)flexible\s+(purchas|supply|contract)`), 4},
			{re(`(?i)green\s+tariff`), 4},
			{re(`(?i)green\s+energy`), 3},
			{re(`(?i)corporate\s+PPA|CPPA`), 5},
			{re(`(?i)sleeved\s+PPA`), 5},
			{re(`(?i)renewable\s+matching`), 4},
			{re(`(?i)carbon\s+neutral`), 3},
			{re(`(?i)net[\s-]?zero`), 3},
			{re(`(?i)licensed\s+(electricity\s+)?supplier`), 5},
		},
		CPVBonuses: []PrefixRule{
			{"09310", 4}, // electricity
			{"09300", 3}, // electricity, heating, solar and nuclear energy
			{"65310", 3}, // electricity distribution
			{"31682", 2}, // electricity supplies
			{"65000", 2}, // public utilities
			{"09121", 2},
		},
		RouteBaseWin: map[string]int{
			RouteDirectAward:         18,
			RouteCallOff:             16,
			RouteFurtherCompetition:  16,
			RouteMiniCompetition:     13,
			RouteDPS:                 12,
			RouteFramework:           11,
			RouteOpenTender:          8,
			RouteRestricted:          6,
			RouteCompetitiveDialogue: 5,
		},
		DefaultBaseWin: 10,
		WinBonuses: []BonusRule{
			{re(`(?i)\bSME\b|sme[\s-]?friendly`), 2},
			{re(`(?i)social\s+value`), 1},
			{re(`(?i)local\s+supplier`), 1},
		},
		RegionScores: map[string]int{
			RegionNorthWest:       10,
			RegionNorthEast:       7,
			RegionMidlands:        5,
			RegionNational:        4,
			RegionLondon:          3,
			RegionSouthEast:       3,
			RegionSouthWest:       3,
			RegionEast:            3,
			RegionScotland:        2,
			RegionWales:           2,
			RegionNorthernIreland: 2,
		},
		DefaultGeography: 4,
		BuyerTypeScores: map[string]int{
			BuyerNHS:        5,
			BuyerUniversity: 5,
			BuyerLocalAuth:  4,
			BuyerHousing:    4,
			BuyerEmergency:  4,
			BuyerMOD:        4,
			BuyerEducation:  3,
		},
		DefaultStrategic: 1,
		RouteEffort: map[string]models.EffortEstimate{
			RouteDirectAward:         models.EffortLow,
			RouteCallOff:             models.EffortLow,
			RouteFurtherCompetition:  models.EffortMedium,
			RouteMiniCompetition:     models.EffortMedium,
			RouteDPS:                 models.EffortMedium,
			RouteFramework:           models.EffortMedium,
			RouteOpenTender:          models.EffortHigh,
			RouteRestricted:          models.EffortHigh,
			RouteCompetitiveDialogue: models.EffortHigh,
		},
		HomeRegion: RegionNorthWest,
	}
}

// firstLabel returns the label of the first rule matching text, or fallback.
func firstLabel(rules []LabelRule, text, fallback string) string {
	for _, r := range rules {
		if r.Pattern.MatchString(text) {
			return r.Label
		}
	}
	return fallback
}
