package main

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/quickresearch/internal/llm"
	"github.com/hyperifyio/quickresearch/internal/research"
	"github.com/hyperifyio/quickresearch/internal/summarize"
)

func TestStubServesChatSummarizer(t *testing.T) {
	srv := httptest.NewServer(newMux("stub"))
	defer srv.Close()

	c := &summarize.Chat{Client: llm.NewOpenAI(srv.URL+"/v1", "", nil), Model: "stub"}
	got := c.Summarize(context.Background(), []string{"Go is fast.", "Go is simple."}, research.StyleBullet)
	if got != "- Go is fast.\n- Go is simple." {
		t.Fatalf("unexpected summary %q", got)
	}
	got = c.Summarize(context.Background(), []string{"Go is fast."}, research.StyleTable)
	if !strings.HasPrefix(got, "| # | Point |") {
		t.Fatalf("expected table, got %q", got)
	}
}

func TestStubServesLocalSummarizer(t *testing.T) {
	srv := httptest.NewServer(newMux("stub"))
	defer srv.Close()

	l := &summarize.Local{URL: srv.URL + "/summarize", MaxLength: 3}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := l.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	got := l.Summarize(ctx, []string{"one two", "three four five"}, research.StyleBullet)
	if got != "one two three" {
		t.Fatalf("unexpected summary %q", got)
	}
}
