package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/david/tender-radar/internal/models"
)

// OCDSAdapter collects tenders from an OCDS search API (Find a Tender,
// Contracts Finder). It queries the electricity CPV code first and sweeps
// the keyword list only when that yields nothing.
type OCDSAdapter struct {
	cfg      SourceConfig
	client   *OCDSClient
	cpv      string
	keywords []string
}

func NewOCDSAdapter(cfg SourceConfig, fetcher Fetcher, cpv string, keywords []string) *OCDSAdapter {
	if len(cfg.Keywords) > 0 {
		keywords = cfg.Keywords
	}
	return &OCDSAdapter{
		cfg:      cfg,
		client:   NewOCDSClient(cfg, fetcher),
		cpv:      cpv,
		keywords: keywords,
	}
}

func (a *OCDSAdapter) Name() string { return a.cfg.Name }

func (a *OCDSAdapter) Fetch(ctx context.Context, w Window) ([]models.RawTender, error) {
	var (
		tenders   []models.RawTender
		seen      = make(map[string]bool)
		attempted int
		failed    int
	)

	run := func(q url.Values) {
		attempted++
		recs, err := a.client.Search(ctx, q)
		if err != nil {
			failed++
			log.Printf("[Ingest] %s query failed: %v", a.cfg.Name, err)
			return
		}
		for _, rec := range recs {
			t, ok := a.mapRelease(rec)
			if !ok || seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			tenders = append(tenders, t)
		}
	}

	if a.cpv != "" && a.cfg.Query.CPV != "" {
		run(a.client.Params(&w, a.cfg.Query.CPV, a.cpv))
	}
	if len(tenders) == 0 && a.cfg.Query.Keyword != "" {
		for _, kw := range a.keywords {
			if ctx.Err() != nil {
				break
			}
			run(a.client.KeywordParams(&w, kw))
		}
	}

	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("%s: %w", a.cfg.Name, ErrAllQueriesFailed)
	}
	return tenders, nil
}

// mapRelease reads one release or flat notice. Records without a title or
// id are dropped.
func (a *OCDSAdapter) mapRelease(rec Record) (models.RawTender, bool) {
	rawID := LookupString(rec, "ocid", "id", "noticeId", "noticeIdentifier")
	title := LookupString(rec, "tender.title", "title", "name")
	if rawID == "" || title == "" {
		return models.RawTender{}, false
	}

	t := models.RawTender{
		ID:            a.cfg.IDPrefix + NoticeID(rawID),
		Title:         title,
		Description:   LookupString(rec, "tender.description", "description", "summary"),
		PublishedDate: dateOrRaw(LookupString(rec, "datePublished", "publishedDate", "date")),
		Value: LookupFloat(rec,
			"tender.value.amount", "tender.minValue.amount", "planning.budget.amount.amount",
			"value.amount", "value.max", "estimatedValue.amount", "value"),
		Currency: LookupString(rec, "tender.value.currency", "value.currency"),
		Buyer:    LookupString(rec, "buyer.name", "organisationName", "buyer", "parties.0.name"),
		Location: LookupString(rec,
			"tender.deliveryAddresses.0.region", "tender.items.0.deliveryAddresses.0.region",
			"tender.items.0.deliveryAddresses.0.locality", "tender.deliveryLocations.0.description",
			"region", "location", "placeOfPerformance"),
		Source:   models.SourceTag(a.cfg.Source),
		URL:      a.client.NoticeURL(rec),
		CPVCodes: cpvCodes(rec),
	}
	if t.Location == "" {
		t.Location = a.cfg.Location
	}
	if dl := LookupString(rec, "tender.tenderPeriod.endDate", "deadlineDate", "submissionDeadline", "closingDate"); dl != "" {
		d := dateOrRaw(dl)
		t.DeadlineDate = &d
	}
	t.IsPipeline = isPlanningRelease(rec, t.Title)

	NormalizeTender(&t)
	return t, true
}

func isPlanningRelease(rec Record, title string) bool {
	for _, tag := range LookupArray(rec, "tag") {
		if s, ok := tag.(string); ok && strings.HasPrefix(strings.ToLower(s), "planning") {
			return true
		}
	}
	return looksLikePipeline(title + " " + LookupString(rec, "noticeType", "tender.status"))
}

// dateOrRaw normalizes a date, keeping the upstream text when it cannot be
// parsed.
func dateOrRaw(s string) string {
	if n := normalizeDate(s); n != "" {
		return n
	}
	return s
}
