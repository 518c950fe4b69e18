package ingest

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed config/sources.yaml
var sourcesYAML embed.FS

const (
	KindTenders = "tenders"
	KindAwards  = "awards"
)

// Registry holds the configuration for all tender and award sources, in
// the order their results are merged.
type Registry struct {
	CPVCode          string         `yaml:"cpv_code"`
	KeywordFallbacks []string       `yaml:"keyword_fallbacks"`
	Sources          []SourceConfig `yaml:"sources"`
}

// FetchConfig defines HTTP fetching configuration for a source.
type FetchConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty"` // Default: 30
	MaxRetries     int     `yaml:"max_retries,omitempty"`     // Default: 2
	RateLimitRPS   float64 `yaml:"rate_limit_rps,omitempty"`  // Requests per second, default: 2.0
	ProxyURL       string  `yaml:"proxy_url,omitempty"`
	AcceptLanguage string  `yaml:"accept_language,omitempty"`
	Accept         string  `yaml:"accept,omitempty"` // e.g. "application/json"
}

// QueryConfig names the query parameters of an OCDS search endpoint.
type QueryConfig struct {
	CPV     string            `yaml:"cpv,omitempty"`
	Keyword string            `yaml:"keyword,omitempty"`
	Since   string            `yaml:"since,omitempty"`
	Size    string            `yaml:"size,omitempty"`
	Extra   map[string]string `yaml:"extra,omitempty"`
}

// SelectorConfig drives the html_links scraper.
type SelectorConfig struct {
	Container   string `yaml:"container,omitempty"`    // closest element holding a notice's context
	LinkPattern string `yaml:"link_pattern,omitempty"` // regex over href identifying notice links
}

// SourceConfig defines a single source adapter.
type SourceConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Kind     string `yaml:"kind"` // "tenders" or "awards"
	Source   string `yaml:"source"`
	Strategy string `yaml:"strategy"` // "ocds_find_a_tender", "ocds_contracts_finder", "rss", "html_links", "ocds_awards"
	Disabled bool   `yaml:"disabled,omitempty"`

	BaseURL   string   `yaml:"base_url,omitempty"`
	NoticeURL string   `yaml:"notice_url,omitempty"` // fmt template taking the notice id
	IDPrefix  string   `yaml:"id_prefix,omitempty"`
	Seeds     []string `yaml:"seed_urls,omitempty"` // may contain {keyword}
	Keywords  []string `yaml:"keywords,omitempty"`
	Location  string   `yaml:"default_location,omitempty"`
	PageSize  int      `yaml:"page_size,omitempty"`
	MaxPages  int      `yaml:"max_pages,omitempty"`

	Query     QueryConfig    `yaml:"query,omitempty"`
	Fetch     FetchConfig    `yaml:"fetch,omitempty"`
	Selectors SelectorConfig `yaml:"selectors,omitempty"`
}

// LoadRegistry reads the embedded sources.yaml, or path when it is set,
// and returns a Registry.
func LoadRegistry(path string) (*Registry, error) {
	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
	} else {
		data, err = sourcesYAML.ReadFile("config/sources.yaml")
	}
	if err != nil {
		return nil, fmt.Errorf("read source registry: %w", err)
	}

	// Expand environment variables within the YAML content (e.g. ${FTS_BASE_URL})
	expanded := os.ExpandEnv(string(data))

	var reg Registry
	if err := yaml.Unmarshal([]byte(expanded), &reg); err != nil {
		return nil, fmt.Errorf("parse source registry: %w", err)
	}
	if err := reg.validate(); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Registry) validate() error {
	seen := make(map[string]bool, len(r.Sources))
	for _, s := range r.Sources {
		if s.ID == "" || s.Strategy == "" {
			return fmt.Errorf("source registry: entry %q needs id and strategy", s.Name)
		}
		if seen[s.ID] {
			return fmt.Errorf("source registry: duplicate id %q", s.ID)
		}
		seen[s.ID] = true
		if s.Kind != KindTenders && s.Kind != KindAwards {
			return fmt.Errorf("source registry: %s has unknown kind %q", s.ID, s.Kind)
		}
	}
	return nil
}
