package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"02/01/2006 15:04",
	"2/1/2006 15:04",
	"2 January 2006 15:04",
	"2 January 2006 3:04pm",
}

// date-only layouts, resolved to the end of the day
var dayLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2 January 2006",
	"2 Jan 2006",
	"02 January 2006",
	"02 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// parseDateRobust parses the date formats UK portals publish. Slash dates
// are read day-first.
func parseDateRobust(text string) (time.Time, error) {
	text = cleanDateString(text)
	text = ordinalSuffix.ReplaceAllString(text, "$1")
	text = strings.NewReplacer("a.m.", "am", "p.m.", "pm", " AM", "am", " PM", "pm").Replace(text)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return toEndOfDay(t), nil
		}
	}
	if t := parseDateWithRegex(text); !t.IsZero() {
		return toEndOfDay(t), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %s", text)
}

// normalizeDate returns text as an RFC 3339 timestamp, or "" when it
// cannot be parsed.
func normalizeDate(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	t, err := parseDateRobust(text)
	if err != nil {
		return ""
	}
	return t.Format(time.RFC3339)
}

// toEndOfDay sets the time to 23:59:59 UTC
func toEndOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

var (
	ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)
	isoDateRegex  = regexp.MustCompile(`\b(20\d{2})-(\d{2})-(\d{2})\b`)
	ukDateRegex   = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(20\d{2})\b`)
	monthRegex    = regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)\s+(20\d{2})\b`)
)

// parseDateWithRegex finds the first date embedded in free text
func parseDateWithRegex(text string) time.Time {
	if m := isoDateRegex.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}
	if m := ukDateRegex.FindStringSubmatch(text); len(m) == 4 {
		if t, err := time.Parse("2/1/2006", m[1]+"/"+m[2]+"/"+m[3]); err == nil {
			return t
		}
	}
	if m := monthRegex.FindStringSubmatch(text); len(m) == 4 {
		month := strings.ToUpper(m[2][:1]) + strings.ToLower(m[2][1:])
		if month == "Sept" {
			month = "Sep"
		}
		layout := "2 Jan 2006"
		if len(month) > 3 {
			layout = "2 January 2006"
		}
		if t, err := time.Parse(layout, m[1]+" "+month+" "+m[3]); err == nil {
			return t
		}
	}
	return time.Time{}
}

// cleanDateString removes common prefixes and cleans up date strings
func cleanDateString(s string) string {
	prefixes := []string{
		"Closing date:", "Deadline:", "Published:", "Publication date:",
		"Date published:", "Tender deadline:", "Due date:", "Expires:", "Ends:",
	}
	sLower := strings.ToLower(s)
	for _, p := range prefixes {
		if idx := strings.Index(sLower, strings.ToLower(p)); idx != -1 {
			s = s[idx+len(p):]
			sLower = sLower[idx+len(p):]
		}
	}
	return strings.TrimSpace(s)
}
