package ingest

import (
	"fmt"
	"log"
)

// StrategyBuilder constructs an adapter for one registry entry. It returns
// an Adapter or an AwardAdapter.
type StrategyBuilder func(cfg SourceConfig, reg *Registry, fetcher Fetcher) (any, error)

// StrategyFactory maps strategy IDs (from sources.yaml) to builders.
type StrategyFactory struct {
	strategies map[string]StrategyBuilder
}

func NewStrategyFactory() *StrategyFactory {
	return &StrategyFactory{
		strategies: make(map[string]StrategyBuilder),
	}
}

func (f *StrategyFactory) Register(id string, builder StrategyBuilder) {
	f.strategies[id] = builder
}

func (f *StrategyFactory) Get(id string) (StrategyBuilder, error) {
	builder, ok := f.strategies[id]
	if !ok {
		return nil, fmt.Errorf("strategy not found: %s", id)
	}
	return builder, nil
}

// Global factory instance
var GlobalStrategyFactory = NewStrategyFactory()

func init() {
	ocds := func(cfg SourceConfig, reg *Registry, f Fetcher) (any, error) {
		return NewOCDSAdapter(cfg, f, reg.CPVCode, reg.KeywordFallbacks), nil
	}
	GlobalStrategyFactory.Register("ocds_find_a_tender", ocds)
	GlobalStrategyFactory.Register("ocds_contracts_finder", ocds)
	GlobalStrategyFactory.Register("rss", func(cfg SourceConfig, _ *Registry, f Fetcher) (any, error) {
		return NewRSSAdapter(cfg, f), nil
	})
	GlobalStrategyFactory.Register("html_links", func(cfg SourceConfig, _ *Registry, f Fetcher) (any, error) {
		return NewHTMLLinksAdapter(cfg, f)
	})
	GlobalStrategyFactory.Register("ocds_awards", func(cfg SourceConfig, reg *Registry, f Fetcher) (any, error) {
		return NewAwardsAdapter(cfg, f, reg.KeywordFallbacks), nil
	})
}

// FetcherFactory picks the transport for a source.
type FetcherFactory func(cfg SourceConfig) Fetcher

// DefaultFetcher uses Colly for scraped HTML portals and the rate-limited
// HTTP client for JSON APIs and feeds.
func DefaultFetcher(cfg SourceConfig) Fetcher {
	if cfg.Strategy == "html_links" {
		return NewCollyFetcher(cfg.Fetch)
	}
	return NewRateLimitedFetcher(cfg.Fetch)
}

// BuildAdapters instantiates every enabled source in registry order.
func BuildAdapters(reg *Registry, factory *StrategyFactory, fetchers FetcherFactory) ([]Adapter, []AwardAdapter, error) {
	if factory == nil {
		factory = GlobalStrategyFactory
	}
	if fetchers == nil {
		fetchers = DefaultFetcher
	}

	var (
		tenders []Adapter
		awards  []AwardAdapter
	)
	for _, cfg := range reg.Sources {
		if cfg.Disabled {
			log.Printf("[Ingest] source %s disabled, skipping", cfg.ID)
			continue
		}
		builder, err := factory.Get(cfg.Strategy)
		if err != nil {
			return nil, nil, fmt.Errorf("source %s: %w", cfg.ID, err)
		}
		built, err := builder(cfg, reg, fetchers(cfg))
		if err != nil {
			return nil, nil, err
		}
		switch {
		case cfg.Kind == KindAwards:
			a, ok := built.(AwardAdapter)
			if !ok {
				return nil, nil, fmt.Errorf("source %s: strategy %s does not collect awards", cfg.ID, cfg.Strategy)
			}
			awards = append(awards, a)
		default:
			a, ok := built.(Adapter)
			if !ok {
				return nil, nil, fmt.Errorf("source %s: strategy %s does not collect tenders", cfg.ID, cfg.Strategy)
			}
			tenders = append(tenders, a)
		}
	}
	return tenders, awards, nil
}
