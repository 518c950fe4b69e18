package ingest

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"

	"github.com/david/tender-radar/internal/models"
)

const maxDescriptionLen = 2000

var strictPolicy = bluemonday.StrictPolicy()

// TruncateText cuts a string to max length, appending ellipsis if truncated.
func TruncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	// back off to a rune boundary
	cut := maxLen
	if maxLen > 3 {
		cut = maxLen - 3
	}
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	if maxLen > 3 {
		return text[:cut] + "..."
	}
	return text[:cut]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// HTMLToText converts HTML to plain text, collapsing whitespace.
func HTMLToText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return cleanText(s)
	}
	return cleanText(doc.Text())
}

// sanitizeText strips every tag from upstream text and unescapes entities,
// leaving plain single-spaced text.
func sanitizeText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return cleanText(s)
	}
	return cleanText(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// NormalizeTender cleans the free-text fields of a tender in place.
func NormalizeTender(t *models.RawTender) {
	t.Title = sanitizeText(t.Title)
	t.Description = TruncateText(sanitizeText(t.Description), maxDescriptionLen)
	t.Buyer = sanitizeText(t.Buyer)
	t.Location = cleanText(t.Location)
	if t.Currency == "" {
		t.Currency = "GBP"
	}
	if t.CPVCodes == nil {
		t.CPVCodes = []string{}
	}
	if t.Value != nil && *t.Value <= 0 {
		t.Value = nil
	}
	if t.DeadlineDate != nil && strings.TrimSpace(*t.DeadlineDate) == "" {
		t.DeadlineDate = nil
	}
}
