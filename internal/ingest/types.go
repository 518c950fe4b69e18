package ingest

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/david/tender-radar/internal/models"
)

// ErrAllQueriesFailed is returned by an adapter when every query it
// attempted failed. Zero matches on a reachable source is not an error.
var ErrAllQueriesFailed = errors.New("all queries failed")

// Window is the lookback window of one collection run.
type Window struct {
	Days  int
	Since time.Time
}

// NewWindow returns the window covering the last days days before now.
func NewWindow(days int, now time.Time) Window {
	if days < 1 {
		days = 1
	}
	return Window{Days: days, Since: now.AddDate(0, 0, -days)}
}

// SinceDate formats the window start the way the OCDS search APIs expect.
func (w Window) SinceDate() string {
	return w.Since.UTC().Format("2006-01-02")
}

// Adapter collects tender notices from one portal.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, w Window) ([]models.RawTender, error)
}

// AwardAdapter collects historical award notices. It only reports health
// and feeds the recent awards list.
type AwardAdapter interface {
	Name() string
	FetchAwards(ctx context.Context, w Window) ([]models.AwardNotice, error)
}

// FetchedDocument represents the raw result of a fetch operation.
type FetchedDocument struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        io.ReadCloser
	FetchedAt   time.Time
	Headers     map[string][]string
}

// Fetcher retrieves raw content from a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchedDocument, error)
}

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 16 << 20
)

// readAll fetches url under its own timeout and returns the whole body.
func readAll(ctx context.Context, f Fetcher, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	doc, err := f.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer doc.Body.Close()
	return io.ReadAll(io.LimitReader(doc.Body, maxBodyBytes))
}
