package scoring

// PassesRelevanceGate reports whether text contains at least one
// electricity-supply signal.
func (r *Rules) PassesRelevanceGate(text string) bool {
	for _, kw := range r.SupplyKeywords {
		if kw.MatchString(text) {
			return true
		}
	}
	return false
}

// CheckExclusion returns the label of the first out-of-scope topic found in
// text, or "" when none matches.
func (r *Rules) CheckExclusion(text string) string {
	return firstLabel(r.Exclusions, text, "")
}

func (r *Rules) DetectProcurementRoute(text string) string {
	return firstLabel(r.Routes, text, RouteNotSpecified)
}

func (r *Rules) DetectBuyerType(buyer, text string) string {
	return firstLabel(r.BuyerTypes, buyer+" "+text, BuyerOther)
}

// DetectRegion matches place names in location, buyer and description, in
// that order of concatenation.
func (r *Rules) DetectRegion(location, buyer, description string) string {
	return firstLabel(r.Regions, location+" "+buyer+" "+description, RegionNotSpecified)
}
