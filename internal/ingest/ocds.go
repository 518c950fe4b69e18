package ingest

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Record is one decoded JSON object from an upstream API. Field names and
// shapes vary between publishers and API versions, so every read goes
// through the Lookup helpers.
type Record map[string]any

// Page is one decoded page of an OCDS search or release package response.
type Page struct {
	Releases []Record
	Next     string // absolute next-page URL, or ""
	Cursor   string // opaque cursor when the API returns one instead of a link
}

// DecodePage flattens the response shapes seen across the OCDS endpoints:
// a release package, a list of release packages, or a flat list of notices.
func DecodePage(body []byte) (Page, error) {
	var root Record
	if err := json.Unmarshal(body, &root); err != nil {
		return Page{}, fmt.Errorf("decode ocds page: %w", err)
	}

	var page Page
	for _, key := range []string{"releases", "results", "notices", "releasePackages"} {
		for _, item := range LookupArray(root, key) {
			rec, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if nested := LookupArray(rec, "releases"); len(nested) > 0 {
				for _, r := range nested {
					if rm, ok := r.(map[string]any); ok {
						page.Releases = append(page.Releases, inheritPackage(Record(rm), Record(rec)))
					}
				}
				continue
			}
			page.Releases = append(page.Releases, Record(rec))
		}
	}
	page.Next = LookupString(root, "links.next", "next", "nextPage")
	page.Cursor = LookupString(root, "cursor", "nextCursor", "links.cursor")
	return page, nil
}

// inheritPackage copies package-level ocid and buyer onto a release that
// lacks them.
func inheritPackage(release, pkg Record) Record {
	for _, key := range []string{"ocid", "buyer"} {
		if _, ok := release[key]; !ok {
			if v, ok := pkg[key]; ok {
				release[key] = v
			}
		}
	}
	return release
}

func lookupPath(rec map[string]any, path string) (any, bool) {
	var cur any = rec
	for _, part := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[part]
			if !ok || v == nil {
				return nil, false
			}
			cur = v
		case Record:
			v, ok := node[part]
			if !ok || v == nil {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// LookupString returns the first non-empty scalar found at any of the
// dotted paths, formatted as a string.
func LookupString(rec map[string]any, paths ...string) string {
	for _, p := range paths {
		v, ok := lookupPath(rec, p)
		if !ok {
			continue
		}
		var s string
		switch x := v.(type) {
		case string:
			s = x
		case float64:
			s = strconv.FormatFloat(x, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(x)
		case json.Number:
			s = x.String()
		default:
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

// LookupFloat returns the first positive number at any of the paths.
// Numeric strings such as "1,200,000" are accepted.
func LookupFloat(rec map[string]any, paths ...string) *float64 {
	for _, p := range paths {
		v, ok := lookupPath(rec, p)
		if !ok {
			continue
		}
		var f float64
		switch x := v.(type) {
		case float64:
			f = x
		case string:
			parsed, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(x), ",", ""), 64)
			if err != nil {
				continue
			}
			f = parsed
		default:
			continue
		}
		if f > 0 {
			return &f
		}
	}
	return nil
}

// LookupArray returns the array at the first path holding one.
func LookupArray(rec map[string]any, paths ...string) []any {
	for _, p := range paths {
		if v, ok := lookupPath(rec, p); ok {
			if arr, ok := v.([]any); ok {
				return arr
			}
		}
	}
	return nil
}

// LookupRecord returns the object at the first path holding one.
func LookupRecord(rec map[string]any, paths ...string) Record {
	for _, p := range paths {
		if v, ok := lookupPath(rec, p); ok {
			switch m := v.(type) {
			case map[string]any:
				return Record(m)
			case Record:
				return m
			}
		}
	}
	return nil
}

var ocidPrefix = regexp.MustCompile(`(?i)^ocds-[a-z0-9]+-`)

// NoticeID strips the publisher prefix from an OCDS ocid.
func NoticeID(ocid string) string {
	return ocidPrefix.ReplaceAllString(ocid, "")
}

// cpvCodes collects classification ids from the item list, the main
// classification, and flat cpvCodes fields.
func cpvCodes(rec Record) []string {
	var codes []string
	for _, item := range LookupArray(rec, "tender.items", "items") {
		if m, ok := item.(map[string]any); ok {
			codes = appendUnique(codes, LookupString(m, "classification.id"))
			for _, extra := range LookupArray(m, "additionalClassifications") {
				if em, ok := extra.(map[string]any); ok {
					codes = appendUnique(codes, LookupString(em, "id"))
				}
			}
		}
	}
	codes = appendUnique(codes, LookupString(rec, "tender.classification.id"))
	for _, c := range LookupArray(rec, "cpvCodes") {
		if s, ok := c.(string); ok {
			codes = appendUnique(codes, s)
		}
	}
	codes = appendUnique(codes, LookupString(rec, "cpvCodes"))
	if codes == nil {
		codes = []string{}
	}
	return codes
}
