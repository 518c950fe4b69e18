package ingest

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultUserAgent      = "Mozilla/5.0 (compatible; TenderRadar/1.0; +https://github.com/david/tender-radar)"
	defaultAccept         = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	defaultAcceptLanguage = "en-GB,en;q=0.8"
)

var blockedPrefixStrings = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
}

var blockedPrefixes = func() []netip.Prefix {
	prefixes := make([]netip.Prefix, 0, len(blockedPrefixStrings))
	for _, s := range blockedPrefixStrings {
		if p, err := netip.ParsePrefix(s); err == nil {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}()

// withDefaults fills unset fields of a source's fetch config.
func (c FetchConfig) withDefaults() FetchConfig {
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = int(requestTimeout / time.Second)
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RateLimitRPS == 0 {
		c.RateLimitRPS = 2.0
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = defaultAcceptLanguage
	}
	if c.Accept == "" {
		c.Accept = defaultAccept
	}
	return c
}

// RateLimitedFetcher provides rate limiting, retries, and configurable timeouts per domain
type RateLimitedFetcher struct {
	clients  map[string]*http.Client
	limiters map[string]*time.Ticker
	config   FetchConfig
	mu       sync.Mutex
}

// NewRateLimitedFetcher creates a fetcher for one source's fetch config.
func NewRateLimitedFetcher(cfg FetchConfig) *RateLimitedFetcher {
	return &RateLimitedFetcher{
		clients:  make(map[string]*http.Client),
		limiters: make(map[string]*time.Ticker),
		config:   cfg.withDefaults(),
	}
}

// getDomain extracts the domain from a URL
func getDomain(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", rawURL)
	}
	return u.Host, nil
}

// getClient returns or creates the HTTP client and limiter for a domain
func (f *RateLimitedFetcher) getClient(domain string) (*http.Client, *time.Ticker) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.clients[domain]; ok {
		return client, f.limiters[domain]
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           safeDialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if f.config.ProxyURL != "" {
		if proxyURL, err := url.Parse(f.config.ProxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	client := &http.Client{
		Timeout:       time.Duration(f.config.TimeoutSeconds) * time.Second,
		Transport:     transport,
		CheckRedirect: safeCheckRedirect,
	}
	interval := time.Duration(float64(time.Second) / f.config.RateLimitRPS)
	if interval <= 0 {
		interval = time.Second
	}
	limiter := time.NewTicker(interval)

	f.clients[domain] = client
	f.limiters[domain] = limiter
	return client, limiter
}

// safeDialContext wraps the default dialer to block private IPs
func safeDialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	d := &net.Dialer{
		Timeout:   requestTimeout,
		KeepAlive: 30 * time.Second,
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	ips, err := net.DefaultResolver.LookupIP(ctx, "ip", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("blocked private IP: %s", ip)
		}
	}
	return d.DialContext(ctx, network, addr)
}

// isPrivateIP checks if an IP is in a private range or loopback/link-local
func isPrivateIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsLinkLocalMulticast() || ip.IsLinkLocalUnicast() || ip.IsMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	if addr, ok := netip.AddrFromSlice(ip); ok {
		for _, prefix := range blockedPrefixes {
			if prefix.Contains(addr.Unmap()) {
				return true
			}
		}
	}
	return false
}

// safeCheckRedirect limits redirects and validates destinations
func safeCheckRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return fmt.Errorf("stopped after 10 redirects")
	}
	if req.URL == nil {
		return fmt.Errorf("invalid redirect URL")
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("redirect scheme blocked")
	}
	host := req.URL.Hostname()
	if host == "" {
		return fmt.Errorf("redirect host missing")
	}
	if strings.EqualFold(host, "localhost") || strings.HasSuffix(strings.ToLower(host), ".local") {
		return fmt.Errorf("redirect to internal host blocked")
	}
	return nil
}

// shouldRetry determines if an error or status code should trigger a retry
func shouldRetry(err error, statusCode int) bool {
	if err != nil {
		if netErr, ok := err.(interface{ Timeout() bool }); ok && netErr.Timeout() {
			return true
		}
		return false
	}
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Fetch implements the Fetcher interface with rate limiting and retries
func (f *RateLimitedFetcher) Fetch(ctx context.Context, rawURL string) (*FetchedDocument, error) {
	domain, err := getDomain(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	client, limiter := f.getClient(domain)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-limiter.C:
	}

	var lastErr error
	for attempt := 0; attempt <= f.config.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 0.5s, 1s, 2s + jitter
			backoff := time.Duration(500*(1<<uint(attempt-1))) * time.Millisecond
			jitter := time.Duration(rand.Intn(100)) * time.Millisecond
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff + jitter):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("User-Agent", defaultUserAgent)
		req.Header.Set("Accept", f.config.Accept)
		req.Header.Set("Accept-Language", f.config.AcceptLanguage)
		req.Header.Set("Cache-Control", "no-cache")

		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(err, 0) {
				continue
			}
			return nil, fmt.Errorf("failed to execute request: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &FetchedDocument{
				URL:         rawURL,
				StatusCode:  resp.StatusCode,
				ContentType: resp.Header.Get("Content-Type"),
				Body:        resp.Body,
				FetchedAt:   time.Now(),
				Headers:     resp.Header,
			}, nil
		}

		resp.Body.Close()
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		if !shouldRetry(nil, resp.StatusCode) {
			return nil, lastErr
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
