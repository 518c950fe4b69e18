package ingest

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/david/tender-radar/internal/models"
)

// Collection is the merged output of one collection run.
type Collection struct {
	RunID        string
	Tenders      []models.RawTender
	TotalFound   int // before dedup
	SourceHealth []models.SourceHealth
	RecentAwards []models.AwardNotice
}

type Pipeline struct {
	Adapters      []Adapter
	AwardAdapters []AwardAdapter
	Now           func() time.Time
}

func NewPipeline(adapters []Adapter, awards []AwardAdapter) *Pipeline {
	return &Pipeline{Adapters: adapters, AwardAdapters: awards, Now: time.Now}
}

// NewPipelineFromRegistry loads the embedded source registry and builds
// the production adapters.
func NewPipelineFromRegistry(registryPath string) (*Pipeline, error) {
	reg, err := LoadRegistry(registryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	tenders, awards, err := BuildAdapters(reg, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build adapters: %w", err)
	}
	return NewPipeline(tenders, awards), nil
}

type tenderOutcome struct {
	tenders []models.RawTender
	err     error
}

type awardOutcome struct {
	awards []models.AwardNotice
	err    error
}

// CollectTenders runs every adapter concurrently over the last days days
// and merges the results. A failing adapter only marks its own health
// entry; CollectTenders itself never fails.
func (p *Pipeline) CollectTenders(ctx context.Context, days int) Collection {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	runID := uuid.NewString()
	w := NewWindow(days, now())
	start := time.Now()
	log.Printf("[Pipeline] run %s: collecting %d day(s) from %d tender and %d award sources",
		runID, w.Days, len(p.Adapters), len(p.AwardAdapters))

	tenderResults := make([]tenderOutcome, len(p.Adapters))
	awardResults := make([]awardOutcome, len(p.AwardAdapters))

	var wg sync.WaitGroup
	for i, a := range p.Adapters {
		wg.Add(1)
		go func(i int, a Adapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					tenderResults[i] = tenderOutcome{err: fmt.Errorf("panic: %v", r)}
				}
			}()
			t, err := a.Fetch(ctx, w)
			tenderResults[i] = tenderOutcome{tenders: t, err: err}
		}(i, a)
	}
	for i, a := range p.AwardAdapters {
		wg.Add(1)
		go func(i int, a AwardAdapter) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					awardResults[i] = awardOutcome{err: fmt.Errorf("panic: %v", r)}
				}
			}()
			aw, err := a.FetchAwards(ctx, w)
			awardResults[i] = awardOutcome{awards: aw, err: err}
		}(i, a)
	}
	wg.Wait()

	c := Collection{RunID: runID, SourceHealth: make([]models.SourceHealth, 0, len(p.Adapters)+len(p.AwardAdapters))}

	var all []models.RawTender
	for i, a := range p.Adapters {
		res := tenderResults[i]
		if res.err != nil {
			log.Printf("[Pipeline] run %s: %s failed: %v", runID, a.Name(), res.err)
			c.SourceHealth = append(c.SourceHealth, models.SourceHealth{Name: a.Name()})
			continue
		}
		c.SourceHealth = append(c.SourceHealth, models.SourceHealth{
			Name:  a.Name(),
			OK:    len(res.tenders) >= 1,
			Count: len(res.tenders),
		})
		all = append(all, res.tenders...)
	}

	var awards []models.AwardNotice
	for i, a := range p.AwardAdapters {
		res := awardResults[i]
		if res.err != nil {
			log.Printf("[Pipeline] run %s: %s failed: %v", runID, a.Name(), res.err)
			c.SourceHealth = append(c.SourceHealth, models.SourceHealth{Name: a.Name()})
			continue
		}
		c.SourceHealth = append(c.SourceHealth, models.SourceHealth{Name: a.Name(), OK: true, Count: len(res.awards)})
		awards = append(awards, res.awards...)
	}

	c.TotalFound = len(all)
	c.Tenders = Dedup(all)
	c.RecentAwards = DedupAwards(awards)

	log.Printf("[Pipeline] run %s: %d found, %d after dedup, %d awards in %s",
		runID, c.TotalFound, len(c.Tenders), len(c.RecentAwards), time.Since(start).Round(time.Millisecond))
	return c
}

// DedupKey is the case-insensitive title|buyer key notices are merged on.
func DedupKey(title, buyer string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(buyer))
}

// Dedup keeps the first tender seen for each title|buyer key, preserving
// order. Applying it twice gives the same result as applying it once.
func Dedup(tenders []models.RawTender) []models.RawTender {
	seen := make(map[string]bool, len(tenders))
	out := make([]models.RawTender, 0, len(tenders))
	for _, t := range tenders {
		key := DedupKey(t.Title, t.Buyer)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// DedupAwards dedups awards on the same key as tenders and orders them by
// award date, newest first.
func DedupAwards(awards []models.AwardNotice) []models.AwardNotice {
	seen := make(map[string]bool, len(awards))
	out := make([]models.AwardNotice, 0, len(awards))
	for _, a := range awards {
		key := DedupKey(a.Title, a.Buyer)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return awardTime(out[i]).After(awardTime(out[j]))
	})
	return out
}

func awardTime(a models.AwardNotice) time.Time {
	t, err := parseDateRobust(a.AwardDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
