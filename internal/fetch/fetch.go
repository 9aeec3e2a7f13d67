package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/quickresearch/internal/cache"
	"github.com/hyperifyio/quickresearch/internal/fault"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "quickresearch/1.0 (+https://github.com/hyperifyio/quickresearch)"
	// MaxBodyBytes bounds how much of a page is read into memory.
	MaxBodyBytes = 8 << 20
)

// Page is a fetched response body with the metadata extraction needs.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// RobotsPolicy decides whether a URL may be crawled and how long to wait
// between requests to its host.
type RobotsPolicy interface {
	Check(ctx context.Context, rawURL string) (allowed bool, crawlDelay time.Duration)
}

// Client issues single-attempt GET requests with an explicit timeout and
// classifies failures into transient and permanent faults. Retrying is the
// caller's concern.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request. Zero means DefaultTimeout.
	PerRequestTimeout time.Duration
	// RedirectMaxHops caps redirect following to avoid loops. Zero means default (5).
	RedirectMaxHops int
	// MaxConcurrent limits concurrent in-flight requests per client instance.
	// Zero means unlimited.
	MaxConcurrent int
	// Limiter, when set, paces outgoing requests.
	Limiter *rate.Limiter
	// AcceptAny disables HTML content-type gating (used for JSON APIs).
	AcceptAny bool
	// Robots, when set, is consulted before every request and its crawl
	// delay paces requests per host.
	Robots RobotsPolicy
	// Cache, when set, serves fresh pages from disk and revalidates stale ones.
	Cache *cache.PageCache

	limiter     chan struct{}
	limiterOnce sync.Once

	hostMu       sync.Mutex
	hostLimiters map[string]*rate.Limiter
}

func (c *Client) timeout() time.Duration {
	if c.PerRequestTimeout > 0 {
		return c.PerRequestTimeout
	}
	return DefaultTimeout
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.timeout(), CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches rawURL once. Errors are *fault.Error values.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	if err := c.acquire(ctx); err != nil {
		return Page{}, fault.New(fault.Permanent, "fetch", err)
	}
	defer c.release()

	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return Page{}, fault.New(fault.Permanent, "fetch", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fault.Permanentf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return Page{}, fault.Permanentf("unsupported URL scheme: %q", rawURL)
	}
	var crawlDelay time.Duration
	if c.Robots != nil {
		allowed, delay := c.Robots.Check(ctx, rawURL)
		if !allowed {
			return Page{}, fault.Permanentf("disallowed by robots.txt: %s", rawURL)
		}
		crawlDelay = delay
	}
	cached, cachedBody, hit := c.Cache.Lookup(rawURL)
	if hit && c.Cache.Fresh(cached) {
		return Page{URL: cached.FinalURL, ContentType: cached.ContentType, Body: cachedBody}, nil
	}
	if crawlDelay > 0 {
		if err := c.hostLimiter(req.URL.Host, crawlDelay).Wait(ctx); err != nil {
			return Page{}, fault.New(fault.Permanent, "fetch", err)
		}
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	if !c.AcceptAny {
		req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")
	}
	if hit && cached.Validators() {
		if cached.ETag != "" {
			req.Header.Set("If-None-Match", cached.ETag)
		}
		if cached.LastModified != "" {
			req.Header.Set("If-Modified-Since", cached.LastModified)
		}
	}

	reqCtx, cancel := context.WithTimeout(req.Context(), c.timeout())
	defer cancel()
	req = req.WithContext(reqCtx)

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return Page{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && hit {
		if err := c.Cache.Touch(cached); err != nil {
			log.Debug().Err(err).Str("url", rawURL).Msg("cache touch failed")
		}
		return Page{URL: cached.FinalURL, ContentType: cached.ContentType, Body: cachedBody}, nil
	}
	if err := CheckStatus(resp.StatusCode); err != nil {
		return Page{}, err
	}

	contentType := resp.Header.Get("Content-Type")
	if !c.AcceptAny && !isAllowedHTMLContentType(contentType) {
		return Page{}, fault.Permanentf("unsupported content type: %s", contentType)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodyBytes))
	if err != nil {
		return Page{}, fault.Transientf("read body: %w", err)
	}
	final := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}
	if c.Cache != nil {
		entry := cache.Entry{
			URL:          rawURL,
			FinalURL:     final,
			ContentType:  contentType,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := c.Cache.Save(entry, b); err != nil {
			log.Debug().Err(err).Str("url", rawURL).Msg("cache save failed")
		}
	}
	return Page{URL: final, ContentType: contentType, Body: b}, nil
}

// CheckStatus maps an HTTP status to a fault. Missing resources and client
// errors are permanent; throttling, request timeouts and server errors are
// transient.
func CheckStatus(status int) error {
	switch {
	case status >= 200 && status <= 299:
		return nil
	case status == http.StatusNotFound || status == http.StatusGone:
		return fault.Permanentf("not found: %d", status)
	case status == http.StatusTooManyRequests || status == http.StatusRequestTimeout:
		return fault.Transientf("throttled: %d", status)
	case status >= 500 && status <= 599:
		return fault.Transientf("server error: %d", status)
	default:
		return fault.Permanentf("unexpected status: %d", status)
	}
}

func classifyTransportError(ctx context.Context, err error) error {
	// The caller's own context ending is not something a retry can fix.
	if ctx.Err() != nil {
		return fault.New(fault.Permanent, "fetch", ctx.Err())
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fault.New(fault.Transient, "fetch", fmt.Errorf("timeout: %w", err))
	}
	if strings.Contains(err.Error(), "redirect") {
		return fault.New(fault.Permanent, "fetch", err)
	}
	return fault.New(fault.Transient, "fetch", err)
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		// Only allow http/https during redirects
		if req.URL == nil || !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isAllowedHTMLContentType(ct string) bool {
	ct = strings.ToLower(strings.TrimSpace(ct))
	// allow text/html variants and application/xhtml+xml
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// hostLimiter returns the pacing limiter for host, created on first use with
// the host's crawl delay.
func (c *Client) hostLimiter(host string, delay time.Duration) *rate.Limiter {
	c.hostMu.Lock()
	defer c.hostMu.Unlock()
	if c.hostLimiters == nil {
		c.hostLimiters = make(map[string]*rate.Limiter)
	}
	l, ok := c.hostLimiters[host]
	if !ok {
		l = rate.NewLimiter(rate.Every(delay), 1)
		c.hostLimiters[host] = l
	}
	return l
}

func (c *Client) acquire(ctx context.Context) error {
	if c.MaxConcurrent <= 0 {
		return nil
	}
	c.limiterOnce.Do(func() {
		c.limiter = make(chan struct{}, c.MaxConcurrent)
	})
	select {
	case c.limiter <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	if c.MaxConcurrent <= 0 || c.limiter == nil {
		return
	}
	select {
	case <-c.limiter:
	default:
	}
}
