package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"
)

// CollyFetcher implements Fetcher using Colly. The HTML portals are
// fetched through it for its per-domain delay, charset detection and
// robots.txt handling.
type CollyFetcher struct {
	UserAgent      string
	MaxRetries     int
	RequestTimeout time.Duration
	DomainDelay    time.Duration
	MaxBodySize    int
}

// NewCollyFetcher creates a CollyFetcher from a source's fetch config.
func NewCollyFetcher(cfg FetchConfig) *CollyFetcher {
	cfg = cfg.withDefaults()
	return &CollyFetcher{
		UserAgent:      defaultUserAgent,
		MaxRetries:     cfg.MaxRetries,
		RequestTimeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		DomainDelay:    time.Duration(float64(time.Second) / cfg.RateLimitRPS),
		MaxBodySize:    maxBodyBytes,
	}
}

func (f *CollyFetcher) buildCollector(domain string) *colly.Collector {
	c := colly.NewCollector(
		colly.UserAgent(f.UserAgent),
		colly.MaxBodySize(f.MaxBodySize),
		colly.AllowedDomains(domain),
		colly.AllowURLRevisit(),
		colly.DetectCharset(),
	)
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       f.DomainDelay,
		RandomDelay: f.DomainDelay / 2,
	})
	c.SetRequestTimeout(f.RequestTimeout)
	return c
}

// Fetch visits targetURL and returns the response body. Failed visits are
// retried up to MaxRetries times.
func (f *CollyFetcher) Fetch(ctx context.Context, targetURL string) (*FetchedDocument, error) {
	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	c := f.buildCollector(parsedURL.Hostname())

	type outcome struct {
		doc *FetchedDocument
		err error
	}
	done := make(chan outcome, 1)
	send := func(o outcome) {
		select {
		case done <- o:
		default:
		}
	}

	c.OnResponse(func(r *colly.Response) {
		send(outcome{doc: &FetchedDocument{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        io.NopCloser(bytes.NewReader(r.Body)),
			FetchedAt:   time.Now(),
			Headers:     map[string][]string(r.Headers.Clone()),
		}})
	})

	attempts := 0
	c.OnError(func(r *colly.Response, err error) {
		if attempts < f.MaxRetries && ctx.Err() == nil {
			attempts++
			log.Printf("[Colly] Retry %d/%d for %s: %v", attempts, f.MaxRetries, r.Request.URL, err)
			time.Sleep(time.Duration(attempts) * time.Second)
			if rerr := r.Request.Retry(); rerr == nil {
				return
			}
		}
		send(outcome{err: fmt.Errorf("fetch %s failed after %d retries: %w", targetURL, attempts, err)})
	})

	go func() {
		if err := c.Visit(targetURL); err != nil {
			send(outcome{err: fmt.Errorf("visit failed: %w", err)})
		}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case o := <-done:
		return o.doc, o.err
	}
}
