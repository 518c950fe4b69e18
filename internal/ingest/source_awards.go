package ingest

import (
	"context"
	"fmt"
	"log"

	"github.com/david/tender-radar/internal/models"
)

// AwardsAdapter reads award-stage releases into AwardNotice records.
type AwardsAdapter struct {
	cfg      SourceConfig
	client   *OCDSClient
	keywords []string
}

func NewAwardsAdapter(cfg SourceConfig, fetcher Fetcher, keywords []string) *AwardsAdapter {
	if len(cfg.Keywords) > 0 {
		keywords = cfg.Keywords
	}
	return &AwardsAdapter{cfg: cfg, client: NewOCDSClient(cfg, fetcher), keywords: keywords}
}

func (a *AwardsAdapter) Name() string { return a.cfg.Name }

func (a *AwardsAdapter) FetchAwards(ctx context.Context, w Window) ([]models.AwardNotice, error) {
	var (
		awards    []models.AwardNotice
		seen      = make(map[string]bool)
		attempted int
		failed    int
	)
	for _, kw := range a.keywords {
		if ctx.Err() != nil {
			break
		}
		attempted++
		recs, err := a.client.Search(ctx, a.client.KeywordParams(&w, kw))
		if err != nil {
			failed++
			log.Printf("[Ingest] %s query failed: %v", a.cfg.Name, err)
			continue
		}
		for _, rec := range recs {
			for _, n := range a.mapAwards(rec) {
				key := n.URL + "|" + n.Winner
				if seen[key] {
					continue
				}
				seen[key] = true
				awards = append(awards, n)
			}
		}
	}
	if attempted > 0 && failed == attempted {
		return nil, fmt.Errorf("%s: %w", a.cfg.Name, ErrAllQueriesFailed)
	}
	return awards, nil
}

// mapAwards returns one notice per award in the release.
func (a *AwardsAdapter) mapAwards(rec Record) []models.AwardNotice {
	title := sanitizeText(LookupString(rec, "tender.title", "title"))
	if title == "" {
		return nil
	}
	buyer := sanitizeText(LookupString(rec, "buyer.name", "organisationName", "buyer"))
	region := LookupString(rec,
		"tender.deliveryAddresses.0.region", "tender.items.0.deliveryAddresses.0.region",
		"tender.deliveryAddresses.0.locality", "buyer.address.region")
	url := a.client.NoticeURL(rec)

	var out []models.AwardNotice
	for _, item := range LookupArray(rec, "awards") {
		award, ok := item.(map[string]any)
		if !ok {
			continue
		}
		out = append(out, models.AwardNotice{
			Title:     title,
			Buyer:     buyer,
			Winner:    sanitizeText(LookupString(award, "suppliers.0.name")),
			Value:     LookupFloat(award, "value.amount"),
			AwardDate: dateOrRaw(LookupString(award, "date", "contractPeriod.startDate")),
			Region:    region,
			URL:       url,
		})
	}
	if len(out) == 0 && LookupString(rec, "awardedSupplier", "supplier") != "" {
		out = append(out, models.AwardNotice{
			Title:     title,
			Buyer:     buyer,
			Winner:    sanitizeText(LookupString(rec, "awardedSupplier", "supplier")),
			Value:     LookupFloat(rec, "awardedValue", "value.amount"),
			AwardDate: dateOrRaw(LookupString(rec, "awardedDate", "datePublished")),
			Region:    region,
			URL:       url,
		})
	}
	return out
}
