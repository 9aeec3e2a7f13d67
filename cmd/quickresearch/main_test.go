package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseOptions(t *testing.T) {
	o, err := parseOptions([]string{
		"-search.provider", "news",
		"-news.feeds", "https://a.example/rss, https://b.example/rss",
		"-n", "3", "-style", "table", "-retry.delay", "5ms", "-deadline", "1m",
		"python", "programming",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if o.query != "python programming" || o.numResults != 3 || o.style != "table" {
		t.Fatalf("unexpected options: %+v", o)
	}
	if len(o.flags.NewsFeeds) != 2 || o.flags.SearchProvider != "news" || o.flags.RetryDelay != 5*time.Millisecond {
		t.Fatalf("unexpected config flags: %+v", o.flags)
	}
	if o.flags.PipelineTimeout != time.Minute {
		t.Fatalf("deadline flag not parsed: %v", o.flags.PipelineTimeout)
	}
	if o.flags.Workers != 0 || o.flags.LLMModel != "" {
		t.Fatalf("unset flags must stay zero: %+v", o.flags)
	}
}

// Smoke test: one-shot query with offline search and a chat stub writes a
// Markdown report.
func TestRun_OneShotMarkdown(t *testing.T) {
	pages := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><head><title>Go</title></head><body><article><p>Go is an open source language.</p></article></body></html>`)
	}))
	defer pages.Close()
	llmSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/models") {
			fmt.Fprint(w, `{"data":[{"id":"stub"}]}`)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"- Go is open source."}}]}`)
	}))
	defer llmSrv.Close()

	dir := t.TempDir()
	results, _ := json.Marshal([]map[string]string{{"title": "Go language", "url": pages.URL + "/go"}})
	searchFile := filepath.Join(dir, "results.json")
	if err := os.WriteFile(searchFile, results, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	clearEnv(t)

	o, err := parseOptions([]string{
		"-env", filepath.Join(dir, "none.env"),
		"-search.file", searchFile,
		"-llm.base", llmSrv.URL + "/v1",
		"-llm.model", "stub",
		"-format", "markdown",
		"-query", "go",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var out bytes.Buffer
	if err := run(context.Background(), o, &out); err != nil {
		t.Fatalf("run: %v", err)
	}
	md := out.String()
	if !strings.Contains(md, "- Go is open source.") || !strings.Contains(md, "[Go]("+pages.URL+"/go)") {
		t.Fatalf("unexpected report:\n%s", md)
	}
}

func TestRun_RequiresQuery(t *testing.T) {
	dir := t.TempDir()
	searchFile := filepath.Join(dir, "results.json")
	_ = os.WriteFile(searchFile, []byte(`[]`), 0o600)
	clearEnv(t)
	o, _ := parseOptions([]string{"-env", "", "-search.file", searchFile, "-local.url", "http://127.0.0.1:1"})
	err := run(context.Background(), o, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "query") {
		t.Fatalf("expected query error, got %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SEARCH_PROVIDER", "SEARX_URL", "SEARXNG_URL", "SERPAPI_KEY", "SERPAPI_API_KEY",
		"NEWS_FEEDS", "SEARCH_FILE", "EXTRACT_STRATEGY", "SUMMARIZER",
		"LLM_BASE_URL", "LLM_MODEL", "LLM_API_KEY", "LOCAL_SUMMARIZER_URL",
		"QUICKRESEARCH_CONFIG", "CACHE_DIR", "RESPECT_ROBOTS", "PIPELINE_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}
