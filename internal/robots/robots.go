// Package robots decides whether a page may be fetched according to the
// robots.txt of its host.
package robots

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultExpiry is how long a host's rules are reused before refetching.
const DefaultExpiry = 30 * time.Minute

type rule struct {
	allow bool
	re    *regexp.Regexp
	// specificity is the pattern length without wildcards and the end anchor.
	specificity int
}

type group struct {
	agents     []string
	rules      []rule
	crawlDelay time.Duration
}

// Rules is a parsed robots.txt.
type Rules struct {
	groups []group
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		groups  []group
		current group
		inRules bool
	)
	flush := func() {
		if len(current.agents) > 0 {
			groups = append(groups, current)
		}
		current = group{}
		inRules = false
	}
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		switch key {
		case "user-agent", "useragent":
			// A user-agent line after rules starts a new group.
			if inRules {
				flush()
			}
			current.agents = append(current.agents, strings.ToLower(val))
		case "allow", "disallow":
			inRules = true
			if val == "" {
				continue
			}
			current.rules = append(current.rules, rule{
				allow:       key == "allow",
				re:          compilePattern(val),
				specificity: len(strings.ReplaceAll(strings.TrimSuffix(val, "$"), "*", "")),
			})
		case "crawl-delay", "crawldelay":
			inRules = true
			if d, err := time.ParseDuration(val + "s"); err == nil && d > 0 {
				current.crawlDelay = d
			}
		}
	}
	flush()
	return Rules{groups: groups}
}

// compilePattern turns a robots path pattern into an anchored regexp: '*'
// matches any sequence and a trailing '$' anchors the end.
func compilePattern(p string) *regexp.Regexp {
	anchorEnd := strings.HasSuffix(p, "$")
	p = strings.TrimSuffix(p, "$")
	var b strings.Builder
	b.WriteString("^")
	for i, part := range strings.Split(p, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	if anchorEnd {
		b.WriteString("$")
	}
	return regexp.MustCompile(b.String())
}

// selectGroup picks the group whose agent token is the longest substring of
// userAgent; "*" matches everything but loses to any named match.
func (r Rules) selectGroup(userAgent string) *group {
	ua := strings.ToLower(userAgent)
	best, bestScore := -1, -1
	for i, g := range r.groups {
		for _, a := range g.agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > bestScore {
				best, bestScore = i, score
			}
		}
	}
	if best < 0 {
		return nil
	}
	return &r.groups[best]
}

// Allowed reports whether path (with optional query) may be fetched by
// userAgent. The most specific matching rule wins and Allow wins ties. No
// match means allowed.
func (r Rules) Allowed(userAgent, path string) bool {
	g := r.selectGroup(userAgent)
	if g == nil {
		return true
	}
	best, allow := -1, true
	for _, rl := range g.rules {
		if !rl.re.MatchString(path) {
			continue
		}
		if rl.specificity > best || (rl.specificity == best && rl.allow) {
			best, allow = rl.specificity, rl.allow
		}
	}
	return allow
}

// CrawlDelay returns the delay requested for userAgent, or zero.
func (r Rules) CrawlDelay(userAgent string) time.Duration {
	if g := r.selectGroup(userAgent); g != nil {
		return g.crawlDelay
	}
	return 0
}

type hostEntry struct {
	rules  Rules
	expiry time.Time
}

// Checker fetches and caches robots.txt per scheme and host. It fails open:
// a missing, unreachable or erroring robots.txt allows everything.
type Checker struct {
	HTTPClient *http.Client
	UserAgent  string
	Expiry     time.Duration

	mu    sync.Mutex
	hosts map[string]hostEntry
	now   func() time.Time
}

func (c *Checker) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// Check reports whether rawURL may be fetched and the crawl delay its host
// asks of our user agent.
func (c *Checker) Check(ctx context.Context, rawURL string) (bool, time.Duration) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true, 0
	}
	rules := c.rulesFor(ctx, u.Scheme+"://"+u.Host)
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.Allowed(c.UserAgent, path), rules.CrawlDelay(c.UserAgent)
}

func (c *Checker) rulesFor(ctx context.Context, origin string) Rules {
	c.mu.Lock()
	if c.hosts == nil {
		c.hosts = make(map[string]hostEntry)
	}
	if e, ok := c.hosts[origin]; ok && c.clock().Before(e.expiry) {
		c.mu.Unlock()
		return e.rules
	}
	c.mu.Unlock()

	rules := c.fetch(ctx, origin)
	exp := c.Expiry
	if exp <= 0 {
		exp = DefaultExpiry
	}
	c.mu.Lock()
	c.hosts[origin] = hostEntry{rules: rules, expiry: c.clock().Add(exp)}
	c.mu.Unlock()
	return rules
}

func (c *Checker) fetch(ctx context.Context, origin string) Rules {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, origin+"/robots.txt", nil)
	if err != nil {
		return Rules{}
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		log.Debug().Err(err).Str("origin", origin).Msg("robots.txt unavailable")
		return Rules{}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Rules{}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return Rules{}
	}
	return Parse(string(b))
}
