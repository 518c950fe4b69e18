package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

// moneyPattern matches sterling amounts such as £1.2m, £450k, £1,200,000,
// £2bn and "GBP 350,000".
var moneyPattern = regexp.MustCompile(`(?i)(?:£|GBP\s?)\s?(\d[\d,]*(?:\.\d+)?)\s*(bn|billion|m|million|k|thousand)?\b`)

var moneyMultipliers = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"m": 1e6, "million": 1e6,
	"bn": 1e9, "billion": 1e9,
}

// parseMoney returns the first sterling amount found in text, or nil.
func parseMoney(text string) *float64 {
	m := moneyPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || v <= 0 {
		return nil
	}
	if mult, ok := moneyMultipliers[strings.ToLower(m[2])]; ok {
		v *= mult
	}
	return &v
}

// parseAmountRobust returns the largest sterling amount in text. Ranges
// like "£200k - £450k" resolve to their upper bound.
func parseAmountRobust(text string) *float64 {
	var best *float64
	for _, idx := range moneyPattern.FindAllStringIndex(text, -1) {
		v := parseMoney(text[idx[0]:idx[1]])
		if v != nil && (best == nil || *v > *best) {
			best = v
		}
	}
	return best
}
