// Package frameworks tracks the public sector electricity buying
// frameworks, watches Find a Tender for signs of their re-procurement and
// estimates when awarded electricity contracts expire.
package frameworks

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/david/tender-radar/internal/models"
)

//go:embed config/frameworks.yaml
var frameworksYAML embed.FS

// FTSConfig locates the Find a Tender release search.
type FTSConfig struct {
	SearchURL string `yaml:"search_url"`
	NoticeURL string `yaml:"notice_url"` // fmt template taking the notice id
}

// Catalogue is the set of known frameworks plus the searches run against
// them.
type Catalogue struct {
	FTS                 FTSConfig                 `yaml:"fts"`
	TotalFrameworkValue string                    `yaml:"total_framework_value"`
	ExpirySearchTerms   []string                  `yaml:"expiry_search_terms"`
	Frameworks          []models.TrackedFramework `yaml:"frameworks"`
}

// LoadCatalogue reads the embedded frameworks.yaml, or path when it is set.
func LoadCatalogue(path string) (*Catalogue, error) {
	var (
		data []byte
		err  error
	)
	if path == "" {
		data, err = frameworksYAML.ReadFile("config/frameworks.yaml")
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read framework catalogue: %w", err)
	}

	var cat Catalogue
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("failed to parse framework catalogue: %w", err)
	}

	seen := make(map[string]bool, len(cat.Frameworks))
	for _, fw := range cat.Frameworks {
		if fw.ID == "" {
			return nil, fmt.Errorf("framework %q has no id", fw.Name)
		}
		if seen[fw.ID] {
			return nil, fmt.Errorf("duplicate framework id: %s", fw.ID)
		}
		seen[fw.ID] = true
	}
	if cat.FTS.SearchURL == "" {
		return nil, fmt.Errorf("framework catalogue has no fts.search_url")
	}
	return &cat, nil
}
