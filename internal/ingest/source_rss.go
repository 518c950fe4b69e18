package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/david/tender-radar/internal/models"
)

// RSSAdapter reads notice feeds from portals without an API (Public
// Contracts Scotland, Sell2Wales, eTendersNI). Items are kept when their
// text mentions one of the source keywords.
type RSSAdapter struct {
	cfg     SourceConfig
	fetcher Fetcher
}

func NewRSSAdapter(cfg SourceConfig, fetcher Fetcher) *RSSAdapter {
	return &RSSAdapter{cfg: cfg, fetcher: fetcher}
}

func (a *RSSAdapter) Name() string { return a.cfg.Name }

func (a *RSSAdapter) Fetch(ctx context.Context, w Window) ([]models.RawTender, error) {
	var (
		tenders   []models.RawTender
		seen      = make(map[string]bool)
		attempted int
		failed    int
	)
	for _, feedURL := range seedURLs(a.cfg) {
		if ctx.Err() != nil {
			break
		}
		attempted++
		body, err := readAll(ctx, a.fetcher, feedURL)
		if err != nil {
			failed++
			log.Printf("[Ingest] %s feed %s failed: %v", a.cfg.Name, feedURL, err)
			continue
		}
		for _, t := range a.parseFeed(body, w) {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tenders = append(tenders, t)
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("%s: %w", a.cfg.Name, ErrAllQueriesFailed)
	}
	return tenders, nil
}

// parseFeed reads RSS 2.0 items and Atom entries. Malformed XML yields no
// notices.
func (a *RSSAdapter) parseFeed(body []byte, w Window) []models.RawTender {
	doc, err := xmlquery.Parse(bytes.NewReader(body))
	if err != nil {
		log.Printf("[Ingest] %s: unreadable feed: %v", a.cfg.Name, err)
		return nil
	}

	var out []models.RawTender
	nodes := xmlquery.Find(doc, "//item")
	if len(nodes) == 0 {
		nodes = xmlquery.Find(doc, "//entry")
	}
	for _, n := range nodes {
		t, ok := a.mapItem(n, w)
		if ok {
			out = append(out, t)
		}
	}
	return out
}

func (a *RSSAdapter) mapItem(n *xmlquery.Node, w Window) (models.RawTender, bool) {
	title := sanitizeText(childText(n, "title"))
	link := childText(n, "link")
	if link == "" {
		if l := xmlquery.FindOne(n, "link"); l != nil {
			link = l.SelectAttr("href")
		}
	}
	if title == "" || link == "" {
		return models.RawTender{}, false
	}

	desc := sanitizeText(firstNonEmpty(childText(n, "description"), childText(n, "summary"), childText(n, "content")))
	if !containsAnyFold(title+" "+desc, a.cfg.Keywords) {
		return models.RawTender{}, false
	}

	published := firstNonEmpty(childText(n, "pubDate"), childText(n, "published"), childText(n, "updated"))
	if pt, err := parseDateRobust(published); err == nil && pt.Before(w.Since.Add(-24*time.Hour)) {
		return models.RawTender{}, false
	}

	guid := firstNonEmpty(childText(n, "guid"), childText(n, "id"))
	if guid == "" {
		guid = link
	}

	nc := extractContext(desc)
	t := models.RawTender{
		ID:            string(a.cfg.Source) + "-" + stableID(guid),
		Title:         title,
		Description:   desc,
		PublishedDate: dateOrRaw(published),
		DeadlineDate:  nc.Deadline,
		Value:         nc.Value,
		Buyer:         firstNonEmpty(nc.Buyer, sanitizeText(childText(n, "author"))),
		Location:      a.cfg.Location,
		Source:        models.SourceTag(a.cfg.Source),
		URL:           link,
		IsPipeline:    looksLikePipeline(title + " " + desc),
	}
	NormalizeTender(&t)
	return t, true
}

func childText(n *xmlquery.Node, name string) string {
	if c := xmlquery.FindOne(n, name); c != nil {
		return cleanText(c.InnerText())
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// seedURLs expands {keyword} seeds once per source keyword.
func seedURLs(cfg SourceConfig) []string {
	var urls []string
	for _, seed := range cfg.Seeds {
		if !strings.Contains(seed, "{keyword}") {
			urls = append(urls, seed)
			continue
		}
		for _, kw := range cfg.Keywords {
			urls = append(urls, expandSeed(seed, kw))
		}
	}
	return urls
}
