package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/david/tender-radar/internal/models"
)

const (
	minLinkTitleLen = 12
	maxContextLen   = 1200
)

// HTMLLinksAdapter scrapes portal listing pages (Bidstats, The Chest, D3
// Tenders, Delta, Due North). Notices are found by matching link targets
// against the source's link pattern; buyer, value and deadline come from
// the text around the link.
type HTMLLinksAdapter struct {
	cfg         SourceConfig
	fetcher     Fetcher
	linkPattern *regexp.Regexp
}

func NewHTMLLinksAdapter(cfg SourceConfig, fetcher Fetcher) (*HTMLLinksAdapter, error) {
	pattern := cfg.Selectors.LinkPattern
	if pattern == "" {
		pattern = `(?i)(tender|notice|opportunit|contract)`
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid link_pattern: %w", cfg.ID, err)
	}
	if cfg.Selectors.Container == "" {
		cfg.Selectors.Container = "li, tr, article"
	}
	return &HTMLLinksAdapter{cfg: cfg, fetcher: fetcher, linkPattern: re}, nil
}

func (a *HTMLLinksAdapter) Name() string { return a.cfg.Name }

func (a *HTMLLinksAdapter) Fetch(ctx context.Context, w Window) ([]models.RawTender, error) {
	var (
		tenders   []models.RawTender
		seen      = make(map[string]bool)
		attempted int
		failed    int
	)
	for _, page := range a.pages() {
		pageURL := page.url
		if ctx.Err() != nil {
			break
		}
		attempted++
		body, err := readAll(ctx, a.fetcher, pageURL)
		if err != nil {
			failed++
			log.Printf("[Ingest] %s page %s failed: %v", a.cfg.Name, pageURL, err)
			continue
		}
		for _, t := range a.parseListing(pageURL, body, page.filter) {
			if seen[t.URL] {
				continue
			}
			seen[t.URL] = true
			tenders = append(tenders, t)
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("%s: %w", a.cfg.Name, ErrAllQueriesFailed)
	}
	return tenders, nil
}

type listingPage struct {
	url string
	// filter is set for plain listings; search result pages are already
	// narrowed by the portal.
	filter bool
}

func (a *HTMLLinksAdapter) pages() []listingPage {
	var out []listingPage
	for _, seed := range a.cfg.Seeds {
		if !strings.Contains(seed, "{keyword}") {
			out = append(out, listingPage{url: seed, filter: true})
			continue
		}
		for _, kw := range a.cfg.Keywords {
			out = append(out, listingPage{url: expandSeed(seed, kw)})
		}
	}
	return out
}

// parseListing never fails: markup it cannot read yields no notices.
func (a *HTMLLinksAdapter) parseListing(pageURL string, body []byte, filter bool) []models.RawTender {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		log.Printf("[Ingest] %s: unreadable page %s: %v", a.cfg.Name, pageURL, err)
		return nil
	}

	var out []models.RawTender
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return
		}
		if !a.linkPattern.MatchString(href) {
			return
		}
		title := cleanText(s.Text())
		if len(title) < minLinkTitleLen {
			title = cleanText(s.AttrOr("title", title))
		}
		if len(title) < minLinkTitleLen {
			return
		}

		surrounding := title
		if c := s.Closest(a.cfg.Selectors.Container); c.Length() > 0 {
			surrounding = TruncateText(cleanText(c.Text()), maxContextLen)
		}
		if filter && !containsAnyFold(surrounding, a.cfg.Keywords) {
			return
		}

		link := resolveURL(pageURL, href)
		nc := extractContext(strings.Replace(surrounding, title, " ", 1))
		t := models.RawTender{
			ID:           string(a.cfg.Source) + "-" + stableID(link),
			Title:        title,
			Description:  surrounding,
			DeadlineDate: nc.Deadline,
			Value:        nc.Value,
			Buyer:        nc.Buyer,
			Location:     a.cfg.Location,
			Source:       models.SourceTag(a.cfg.Source),
			URL:          link,
			IsPipeline:   looksLikePipeline(surrounding),
		}
		NormalizeTender(&t)
		out = append(out, t)
	})
	return out
}
