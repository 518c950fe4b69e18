package ingest

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
)

// OCDSClient pages through an OCDS search endpoint described by a source
// config.
type OCDSClient struct {
	cfg     SourceConfig
	fetcher Fetcher
}

func NewOCDSClient(cfg SourceConfig, fetcher Fetcher) *OCDSClient {
	if cfg.MaxPages < 1 {
		cfg.MaxPages = 1
	}
	if cfg.PageSize < 1 {
		cfg.PageSize = 100
	}
	return &OCDSClient{cfg: cfg, fetcher: fetcher}
}

// Params builds the query for one search. Empty names in the source's
// query config are skipped.
func (c *OCDSClient) Params(w *Window, field, value string) url.Values {
	q := url.Values{}
	if field != "" && value != "" {
		q.Set(field, value)
	}
	if w != nil && c.cfg.Query.Since != "" {
		q.Set(c.cfg.Query.Since, w.SinceDate())
	}
	if c.cfg.Query.Size != "" {
		q.Set(c.cfg.Query.Size, strconv.Itoa(c.cfg.PageSize))
	}
	for k, v := range c.cfg.Query.Extra {
		q.Set(k, v)
	}
	return q
}

// KeywordParams is Params for a free-text search.
func (c *OCDSClient) KeywordParams(w *Window, keyword string) url.Values {
	return c.Params(w, c.cfg.Query.Keyword, keyword)
}

func (c *OCDSClient) pageURL(q url.Values) string {
	sep := "?"
	if strings.Contains(c.cfg.BaseURL, "?") {
		sep = "&"
	}
	return c.cfg.BaseURL + sep + q.Encode()
}

// Search returns the releases of up to MaxPages pages. A failure on the
// first page fails the search; a failure on a later page ends pagination
// and keeps what was already read.
func (c *OCDSClient) Search(ctx context.Context, q url.Values) ([]Record, error) {
	next := c.pageURL(q)
	var out []Record
	for page := 1; next != "" && page <= c.cfg.MaxPages; page++ {
		body, err := readAll(ctx, c.fetcher, next)
		if err == nil {
			var p Page
			p, err = DecodePage(body)
			if err == nil {
				out = append(out, p.Releases...)
				next = c.nextURL(q, p)
				continue
			}
		}
		if page == 1 {
			return nil, fmt.Errorf("%s: %w", c.cfg.Name, err)
		}
		log.Printf("[Ingest] %s: stopping at page %d: %v", c.cfg.Name, page, err)
		break
	}
	return out, nil
}

func (c *OCDSClient) nextURL(q url.Values, p Page) string {
	if p.Next != "" {
		return resolveURL(c.cfg.BaseURL, p.Next)
	}
	if p.Cursor != "" {
		nq := url.Values{}
		for k, v := range q {
			nq[k] = v
		}
		nq.Set("cursor", p.Cursor)
		return c.pageURL(nq)
	}
	return ""
}

// NoticeURL returns the public page of a notice.
func (c *OCDSClient) NoticeURL(rec Record) string {
	id := NoticeID(LookupString(rec, "ocid", "id", "noticeId"))
	if c.cfg.NoticeURL != "" && id != "" {
		return fmt.Sprintf(c.cfg.NoticeURL, id)
	}
	return LookupString(rec, "url", "links.self", "uri")
}
