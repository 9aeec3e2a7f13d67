package robots

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestRules_Allowed(t *testing.T) {
	r := Parse(`# comment
User-agent: *
Disallow: /private
Allow: /private/public
Disallow: /*.pdf$

User-agent: quickresearch
Disallow: /bots-only
Crawl-delay: 2
`)
	cases := []struct {
		ua, path string
		want     bool
	}{
		{"other/1.0", "/", true},
		{"other/1.0", "/private/x", false},
		{"other/1.0", "/private/public/x", true},
		{"other/1.0", "/docs/a.pdf", false},
		{"other/1.0", "/docs/a.pdf?x=1", true},
		{"quickresearch/1.0", "/private/x", true},
		{"quickresearch/1.0", "/bots-only/page", false},
	}
	for _, tc := range cases {
		if got := r.Allowed(tc.ua, tc.path); got != tc.want {
			t.Errorf("Allowed(%q, %q) = %v, want %v", tc.ua, tc.path, got, tc.want)
		}
	}
	if d := r.CrawlDelay("QuickResearch/1.0"); d != 2*time.Second {
		t.Fatalf("crawl delay = %v", d)
	}
	if d := r.CrawlDelay("other"); d != 0 {
		t.Fatalf("crawl delay = %v", d)
	}
}

func TestRules_EmptyAllowsEverything(t *testing.T) {
	r := Parse("User-agent: *\nDisallow:\n")
	if !r.Allowed("x", "/anything") {
		t.Fatal("empty disallow must allow")
	}
	if !(Rules{}).Allowed("x", "/") {
		t.Fatal("no rules must allow")
	}
}

func TestChecker_CachesPerHost(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\nCrawl-delay: 1\n"))
	}))
	defer srv.Close()

	now := time.Now()
	c := &Checker{HTTPClient: srv.Client(), UserAgent: "quickresearch/1.0", Expiry: time.Minute, now: func() time.Time { return now }}
	ctx := context.Background()
	if ok, delay := c.Check(ctx, srv.URL+"/public"); !ok || delay != time.Second {
		t.Fatalf("public should be allowed with 1s delay, got %v %v", ok, delay)
	}
	if ok, _ := c.Check(ctx, srv.URL+"/private/doc"); ok {
		t.Fatal("private should be disallowed")
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected one robots fetch, got %d", n)
	}
	now = now.Add(2 * time.Minute)
	_, _ = c.Check(ctx, srv.URL+"/public")
	if n := atomic.LoadInt32(&hits); n != 2 {
		t.Fatalf("expected refetch after expiry, got %d", n)
	}
}

func TestChecker_FailsOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	c := &Checker{HTTPClient: srv.Client()}
	if ok, delay := c.Check(context.Background(), srv.URL+"/private"); !ok || delay != 0 {
		t.Fatal("server error must allow without delay")
	}
	if ok, _ := c.Check(context.Background(), "http://127.0.0.1:1/x"); !ok {
		t.Fatal("unreachable host must allow")
	}
}
