package frameworks

import (
	"context"
	"log"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/david/tender-radar/internal/ingest"
	"github.com/david/tender-radar/internal/models"
	"github.com/david/tender-radar/internal/scoring"
)

const (
	signalTermsPerFramework = 2
	maxSignals              = 5
	signalPageSize          = 10
	signalTimeout           = 15 * time.Second
	expiryPageSize          = 50
	maxExpiries             = 50
	assumedContractYears    = 4
	expiringWindowDays      = 180
)

var (
	engagementPattern    = regexp.MustCompile(`(?i)market\s+engagement|\bPIN\b|prior\s+information`)
	awardPattern         = regexp.MustCompile(`(?i)award`)
	reprocurementPattern = regexp.MustCompile(`(?i)expir|renew|re-?procur`)
)

// Service gathers framework intelligence from Find a Tender.
type Service struct {
	Catalogue *Catalogue
	Now       func() time.Time

	signals  *ingest.OCDSClient
	expiries *ingest.OCDSClient
}

// NewService builds a service over the catalogue. A nil fetcher uses the
// rate-limited HTTP fetcher.
func NewService(cat *Catalogue, fetcher ingest.Fetcher) *Service {
	if fetcher == nil {
		fetcher = ingest.NewRateLimitedFetcher(ingest.FetchConfig{Accept: "application/json"})
	}
	base := ingest.SourceConfig{
		ID:        "fts_frameworks",
		Name:      "Find a Tender (frameworks)",
		Source:    string(models.SourceFindATender),
		BaseURL:   cat.FTS.SearchURL,
		NoticeURL: cat.FTS.NoticeURL,
		MaxPages:  1,
		Query:     ingest.QueryConfig{Keyword: "keyword", Size: "size"},
	}

	signalCfg := base
	signalCfg.PageSize = signalPageSize

	expiryCfg := base
	expiryCfg.PageSize = expiryPageSize
	expiryCfg.Query.Extra = map[string]string{"stage": "award"}

	return &Service{
		Catalogue: cat,
		Now:       time.Now,
		signals:   ingest.NewOCDSClient(signalCfg, fetcher),
		expiries:  ingest.NewOCDSClient(expiryCfg, fetcher),
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Intelligence returns every tracked framework with its signals and
// status, plus the upcoming contract expiries. Upstream failures leave the
// affected lists empty.
func (s *Service) Intelligence(ctx context.Context) models.FrameworkIntelligence {
	start := time.Now()
	frameworks := make([]models.TrackedFramework, len(s.Catalogue.Frameworks))
	copy(frameworks, s.Catalogue.Frameworks)

	var (
		wg       sync.WaitGroup
		expiries []models.ContractExpiry
	)
	for i := range frameworks {
		wg.Add(1)
		go func(fw *models.TrackedFramework) {
			defer wg.Done()
			fw.FTSSignals = s.Signals(ctx, *fw)
		}(&frameworks[i])
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		expiries = s.Expiries(ctx)
	}()
	wg.Wait()

	now := s.now()
	intel := models.FrameworkIntelligence{
		Frameworks:          frameworks,
		TotalFrameworkValue: s.Catalogue.TotalFrameworkValue,
	}
	for i := range frameworks {
		d := DecideStatus(frameworks[i], frameworks[i].FTSSignals, now)
		frameworks[i].CurrentStatus = d.Status
		if d.Status == models.FrameworkReprocuring || d.Status == models.FrameworkExpiringSoon {
			intel.UpcomingReprocurements++
		}
	}
	for _, e := range expiries {
		if e.DaysUntilExpiry != nil && *e.DaysUntilExpiry > 0 && *e.DaysUntilExpiry <= expiringWindowDays {
			intel.ExpiringNext6Months++
		}
	}
	if len(expiries) > maxExpiries {
		expiries = expiries[:maxExpiries]
	}
	intel.ContractExpiries = expiries

	log.Printf("[Frameworks] %d frameworks, %d expiries, %d upcoming re-procurements in %s",
		len(frameworks), len(expiries), intel.UpcomingReprocurements, time.Since(start).Round(time.Millisecond))
	return intel
}

// Signals searches Find a Tender with the framework's first two search
// terms and returns up to five classified notices.
func (s *Service) Signals(ctx context.Context, fw models.TrackedFramework) []models.FrameworkSignal {
	signals := []models.FrameworkSignal{}
	terms := fw.SearchTerms
	if len(terms) > signalTermsPerFramework {
		terms = terms[:signalTermsPerFramework]
	}
	for _, term := range terms {
		recs, err := s.searchSignals(ctx, term)
		if err != nil {
			log.Printf("[Frameworks] %s: search %q failed: %v", fw.ID, term, err)
			continue
		}
		for _, rec := range recs {
			signals = append(signals, s.mapSignal(rec))
		}
	}
	if len(signals) > maxSignals {
		signals = signals[:maxSignals]
	}
	return signals
}

func (s *Service) searchSignals(ctx context.Context, term string) ([]ingest.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, signalTimeout)
	defer cancel()
	return s.signals.Search(ctx, s.signals.KeywordParams(nil, term))
}

func (s *Service) mapSignal(rec ingest.Record) models.FrameworkSignal {
	title := ingest.LookupString(rec, "tender.title", "title")
	tag := ingest.LookupString(rec, "tag.0")
	return models.FrameworkSignal{
		Title: title,
		URL:   s.signals.NoticeURL(rec),
		Date:  ingest.LookupString(rec, "datePublished", "date"),
		Type:  ClassifySignal(title, tag),
	}
}

// ClassifySignal labels a notice by its title and first release tag.
func ClassifySignal(title, tag string) models.SignalType {
	switch {
	case engagementPattern.MatchString(title):
		return models.SignalMarketEngagement
	case awardPattern.MatchString(tag) || awardPattern.MatchString(title):
		return models.SignalAward
	case reprocurementPattern.MatchString(title):
		return models.SignalReprocurement
	default:
		return models.SignalPipeline
	}
}

// Expiries reads electricity award notices and returns one expiry per
// award, soonest first. Awards without an end date are assumed to run for
// four years.
func (s *Service) Expiries(ctx context.Context) []models.ContractExpiry {
	now := s.now()
	var all []models.ContractExpiry
	for _, term := range s.Catalogue.ExpirySearchTerms {
		recs, err := s.expiries.Search(ctx, s.expiries.KeywordParams(nil, term))
		if err != nil {
			log.Printf("[Frameworks] expiry search %q failed: %v", term, err)
			continue
		}
		for _, rec := range recs {
			all = append(all, s.mapExpiries(rec, now)...)
		}
	}

	seen := make(map[string]bool, len(all))
	out := []models.ContractExpiry{}
	for _, e := range all {
		key := ingest.DedupKey(e.Title, e.Buyer)
		if seen[key] {
			continue
		}
		seen[key] = true
		if e.DaysUntilExpiry != nil {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].DaysUntilExpiry < *out[j].DaysUntilExpiry })
	return out
}

func (s *Service) mapExpiries(rec ingest.Record, now time.Time) []models.ContractExpiry {
	ocid := ingest.LookupString(rec, "ocid", "id")
	title := ingest.LookupString(rec, "tender.title", "title")
	buyer := ingest.LookupString(rec, "buyer.name")
	region := ingest.LookupString(rec, "tender.deliveryAddresses.0.region", "tender.deliveryAddresses.0.locality")
	url := s.signals.NoticeURL(rec)

	var out []models.ContractExpiry
	for _, item := range ingest.LookupArray(rec, "awards") {
		award, ok := item.(map[string]any)
		if !ok {
			continue
		}
		awardDate := ingest.LookupString(award, "date")
		if awardDate == "" {
			awardDate = ingest.LookupString(rec, "datePublished")
		}

		e := models.ContractExpiry{
			ID:        "expiry-" + ocid + "-" + ingest.LookupString(award, "id"),
			Title:     title,
			Buyer:     buyer,
			Value:     ingest.LookupFloat(award, "value.amount"),
			AwardDate: awardDate,
			Region:    region,
			Source:    models.SourceFindATender,
			URL:       url,
		}

		expiry := ingest.LookupString(award, "contractPeriod.endDate")
		if expiry != "" {
			e.ExpiryDate = &expiry
		} else if awarded, ok := scoring.ParseDeadline(&awardDate); ok {
			est := awarded.AddDate(assumedContractYears, 0, 0).Format("2006-01-02")
			e.EstimatedExpiryDate = &est
			expiry = est
		}
		if end, ok := scoring.ParseDeadline(&expiry); ok {
			days := scoring.DaysUntil(end, now)
			e.DaysUntilExpiry = &days
		}
		out = append(out, e)
	}
	return out
}
