package extract

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/research"
	"github.com/hyperifyio/quickresearch/internal/retry"
	"github.com/hyperifyio/quickresearch/internal/search"
)

type scriptedStrategy struct {
	errs  []error
	doc   Document
	calls int
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) Extract(context.Context, search.Result) (Document, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return Document{}, s.errs[s.calls-1]
	}
	return s.doc, nil
}

func noSleep() retry.Policy {
	return retry.Policy{Attempts: 3, Delay: time.Second, Sleep: func(context.Context, time.Duration) error { return nil }}
}

func TestExtractor_RetriesTransientThenSucceeds(t *testing.T) {
	s := &scriptedStrategy{
		errs: []error{errors.New("timeout"), fault.Transientf("server error: 503")},
		doc:  Document{Title: "T", URL: "https://x", Text: "body"},
	}
	e := &Extractor{Strategy: s, Policy: noSleep()}
	src := e.Extract(context.Background(), search.Result{URL: "https://x"})
	if !src.OK() || src.Text != "body" {
		t.Fatalf("expected success, got %#v", src)
	}
	if s.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", s.calls)
	}
	if research.Deref(src.Title) != "T" || src.Date != nil {
		t.Fatalf("unexpected metadata: %#v", src)
	}
}

func TestExtractor_ExhaustsRetries(t *testing.T) {
	transient := fault.Transientf("timeout")
	s := &scriptedStrategy{errs: []error{transient, transient, transient, transient}}
	e := &Extractor{Strategy: s, Policy: noSleep()}
	src := e.Extract(context.Background(), search.Result{URL: "https://slow.example"})
	if src.OK() {
		t.Fatalf("expected failure sentinel")
	}
	if s.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", s.calls)
	}
	if src.Failure != fault.Transient || src.URL != "https://slow.example" {
		t.Fatalf("unexpected source: %#v", src)
	}
}

func TestExtractor_PermanentIsNotRetried(t *testing.T) {
	s := &scriptedStrategy{errs: []error{fault.Permanentf("disambiguation")}}
	e := &Extractor{Strategy: s, Policy: noSleep()}
	src := e.Extract(context.Background(), search.Result{Title: "Mercury"})
	if s.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", s.calls)
	}
	if src.OK() || src.Failure != fault.Permanent {
		t.Fatalf("expected permanent failure, got %#v", src)
	}
	if research.Deref(src.Title) != "Mercury" || src.URL != "" {
		t.Fatalf("expected title from reference, got %#v", src)
	}
}

func TestExtractor_EmptyTextIsPermanent(t *testing.T) {
	s := &scriptedStrategy{doc: Document{Title: "Empty", Text: "  \n "}}
	e := &Extractor{Strategy: s, Policy: noSleep()}
	src := e.Extract(context.Background(), search.Result{URL: "https://empty"})
	if src.OK() || src.Failure != fault.Permanent || s.calls != 1 {
		t.Fatalf("expected permanent no-text failure after one call, got %#v (calls=%d)", src, s.calls)
	}
}

func TestExtractor_TruncatesToCapExactly(t *testing.T) {
	long := strings.Repeat("é", 5000)
	s := &scriptedStrategy{doc: Document{Text: long}}
	e := &Extractor{Strategy: s, Policy: noSleep()}
	src := e.Extract(context.Background(), search.Result{URL: "https://long"})
	if n := len([]rune(src.Text)); n != DefaultMaxChars {
		t.Fatalf("expected %d runes, got %d", DefaultMaxChars, n)
	}

	e = &Extractor{Strategy: &scriptedStrategy{doc: Document{Text: "short"}}, Policy: noSleep(), MaxChars: 100}
	if got := e.Extract(context.Background(), search.Result{URL: "https://short"}).Text; got != "short" {
		t.Fatalf("short text should be untouched, got %q", got)
	}
}

func TestExtractor_NormalizesToNFC(t *testing.T) {
	// "e" + combining acute accent composes to a single rune.
	s := &scriptedStrategy{doc: Document{Text: "cafe\u0301"}}
	e := &Extractor{Strategy: s, Policy: noSleep()}
	if got := e.Extract(context.Background(), search.Result{URL: "https://c"}).Text; got != "caf\u00e9" {
		t.Fatalf("expected NFC text, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 3, "hel"},
		{"hello", 5, "hello"},
		{"hello", 10, "hello"},
		{"héllo", 2, "hé"},
		{"abc", 0, "abc"},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.max); got != c.want {
			t.Errorf("Truncate(%q,%d)=%q want %q", c.in, c.max, got, c.want)
		}
	}
}
