package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/david/tender-radar/internal/models"
)

type stubAdapter struct {
	name    string
	tenders []models.RawTender
	err     error
	panics  bool
	delay   time.Duration
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, w Window) ([]models.RawTender, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	if s.panics {
		panic("selector exploded")
	}
	return s.tenders, s.err
}

type stubAwards struct {
	name   string
	awards []models.AwardNotice
	err    error
}

func (s *stubAwards) Name() string { return s.name }

func (s *stubAwards) FetchAwards(ctx context.Context, w Window) ([]models.AwardNotice, error) {
	return s.awards, s.err
}

func tender(id, title, buyer string) models.RawTender {
	return models.RawTender{ID: id, Title: title, Buyer: buyer}
}

func TestCollectTendersMergesInRegistryOrder(t *testing.T) {
	p := NewPipeline([]Adapter{
		&stubAdapter{name: "Find a Tender", delay: 20 * time.Millisecond, tenders: []models.RawTender{
			tender("fat-1", "Supply of Electricity", "Leeds City Council"),
			tender("fat-2", "Energy Framework", "YPO"),
		}},
		&stubAdapter{name: "Contracts Finder", tenders: []models.RawTender{
			tender("cf-1", "  supply of electricity ", "LEEDS CITY COUNCIL"),
			tender("cf-2", "Electricity for Schools", "Bolton Council"),
		}},
	}, nil)
	p.Now = func() time.Time { return testNow }

	c := p.CollectTenders(context.Background(), 7)

	if c.TotalFound != 4 {
		t.Errorf("expected 4 found before dedup, got %d", c.TotalFound)
	}
	var ids []string
	for _, tn := range c.Tenders {
		ids = append(ids, tn.ID)
	}
	want := []string{"fat-1", "fat-2", "cf-2"}
	if len(ids) != len(want) {
		t.Fatalf("expected %v, got %v", want, ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
	if c.RunID == "" {
		t.Error("expected run id")
	}
}

func TestCollectTendersHealth(t *testing.T) {
	p := NewPipeline([]Adapter{
		&stubAdapter{name: "ok", tenders: []models.RawTender{tender("a", "Electricity", "X")}},
		&stubAdapter{name: "empty"},
		&stubAdapter{name: "failing", err: errors.New("connection refused")},
		&stubAdapter{name: "panicking", panics: true},
	}, []AwardAdapter{
		&stubAwards{name: "awards-empty"},
		&stubAwards{name: "awards-failing", err: ErrAllQueriesFailed},
	})
	p.Now = func() time.Time { return testNow }

	c := p.CollectTenders(context.Background(), 7)

	want := []models.SourceHealth{
		{Name: "ok", OK: true, Count: 1},
		{Name: "empty", OK: false, Count: 0},
		{Name: "failing", OK: false, Count: 0},
		{Name: "panicking", OK: false, Count: 0},
		{Name: "awards-empty", OK: true, Count: 0},
		{Name: "awards-failing", OK: false, Count: 0},
	}
	if len(c.SourceHealth) != len(want) {
		t.Fatalf("expected %d health entries, got %d", len(want), len(c.SourceHealth))
	}
	for i, h := range want {
		if c.SourceHealth[i] != h {
			t.Errorf("entry %d: expected %+v, got %+v", i, h, c.SourceHealth[i])
		}
	}
	if len(c.Tenders) != 1 {
		t.Errorf("expected the healthy source's tender, got %d", len(c.Tenders))
	}
}

func TestCollectTendersAllSourcesDown(t *testing.T) {
	p := NewPipeline([]Adapter{
		&stubAdapter{name: "a", err: errors.New("timeout")},
		&stubAdapter{name: "b", panics: true},
	}, nil)

	c := p.CollectTenders(context.Background(), 0)

	if len(c.Tenders) != 0 || c.TotalFound != 0 {
		t.Errorf("expected empty collection, got %+v", c)
	}
	if len(c.SourceHealth) != 2 {
		t.Errorf("expected health for both sources, got %d", len(c.SourceHealth))
	}
}

func TestDedupIsIdempotent(t *testing.T) {
	in := []models.RawTender{
		tender("1", "Electricity Supply", "Council A"),
		tender("2", "electricity supply", "council a"),
		tender("3", "Electricity Supply", "Council B"),
		tender("4", " Electricity Supply ", " Council B "),
	}

	once := Dedup(in)
	twice := Dedup(once)

	if len(once) != 2 {
		t.Fatalf("expected 2 unique tenders, got %d", len(once))
	}
	if once[0].ID != "1" || once[1].ID != "3" {
		t.Errorf("expected first-seen to win, got %s %s", once[0].ID, once[1].ID)
	}
	if len(twice) != len(once) {
		t.Fatalf("dedup not idempotent: %d vs %d", len(twice), len(once))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Errorf("position %d changed on second pass", i)
		}
	}
}

func TestDedupAwardsSortsNewestFirst(t *testing.T) {
	in := []models.AwardNotice{
		{Title: "Electricity", Buyer: "A", Winner: "EDF", AwardDate: "2025-06-01T00:00:00Z"},
		{Title: "Gas", Buyer: "B", Winner: "Total", AwardDate: "2026-01-15T00:00:00Z"},
		{Title: "electricity", Buyer: "a", Winner: "Npower", AwardDate: "2026-02-01T00:00:00Z"},
		{Title: "Power", Buyer: "C", Winner: "Octopus", AwardDate: "not a date"},
	}

	got := DedupAwards(in)

	want := []string{"Total", "EDF", "Octopus"}
	if len(got) != len(want) {
		t.Fatalf("expected %d awards, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].Winner != w {
			t.Errorf("position %d: expected %s, got %s", i, w, got[i].Winner)
		}
	}
}
