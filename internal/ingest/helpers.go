package ingest

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText normalizes whitespace (alias for normalizeSpace)
func cleanText(s string) string {
	return normalizeSpace(s)
}

// appendUnique appends a string to a slice if it doesn't already exist (case-insensitive).
func appendUnique(list []string, v string) []string {
	vClean := strings.TrimSpace(v)
	if vClean == "" {
		return list
	}
	for _, existing := range list {
		if strings.EqualFold(existing, vClean) {
			return list
		}
	}
	return append(list, vClean)
}

// containsAnyFold reports whether text contains any of the keywords,
// ignoring case. An empty keyword list matches everything.
func containsAnyFold(text string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

var pipelinePattern = regexp.MustCompile(`(?i)prior\s+information|market\s+engagement|pre[\s-]?market|planning\s+notice|\bPIN\b|early\s+engagement`)

// looksLikePipeline reports whether a notice announces future procurement
// rather than an open competition.
func looksLikePipeline(text string) bool {
	return pipelinePattern.MatchString(text)
}

// expandSeed substitutes {keyword} in a seed URL with the query-escaped keyword.
func expandSeed(seed, keyword string) string {
	return strings.ReplaceAll(seed, "{keyword}", url.QueryEscape(keyword))
}

// resolveURL resolves href against base, returning href unchanged when
// either fails to parse.
func resolveURL(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

// stableID derives a short id from a notice URL for portals that publish none.
func stableID(s string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s)).String()[:13]
}

var (
	buyerContextPattern    = regexp.MustCompile(`(?i)(?:buyer|published by|contracting (?:authority|body)|organisation|authority)\s*[:\-]\s*([^\n|;]{3,120}?)(?:\s{2,}|\s*[|;\n]|\s+(?:value|deadline|closing|published|location)\b|$)`)
	deadlineContextPattern = regexp.MustCompile(`(?i)(?:deadline|closing date|closes|closing|response date|tender end date)\s*(?:date)?\s*[:\-]?\s*([0-9]{1,2}(?:st|nd|rd|th)?[\s/\-][0-9A-Za-z]{1,9}[\s/\-][0-9]{4}(?:\s+[0-9]{1,2}:[0-9]{2})?|[0-9]{4}-[0-9]{2}-[0-9]{2}(?:T[0-9:]+Z?)?)`)
)

// noticeContext holds the fields scraped from the text around a notice link.
type noticeContext struct {
	Buyer    string
	Value    *float64
	Deadline *string
}

// extractContext pulls buyer, value and deadline out of free text. Missing
// fields stay empty.
func extractContext(text string) noticeContext {
	var nc noticeContext
	if m := buyerContextPattern.FindStringSubmatch(text); m != nil {
		nc.Buyer = cleanText(m[1])
	}
	nc.Value = parseAmountRobust(text)
	if m := deadlineContextPattern.FindStringSubmatch(text); m != nil {
		if d := normalizeDate(m[1]); d != "" {
			nc.Deadline = &d
		}
	}
	return nc
}
