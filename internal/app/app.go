// Package app wires configuration into process-wide clients and the
// research pipeline. Everything built here is read-only after New returns.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hyperifyio/quickresearch/internal/cache"
	"github.com/hyperifyio/quickresearch/internal/extract"
	"github.com/hyperifyio/quickresearch/internal/fetch"
	"github.com/hyperifyio/quickresearch/internal/llm"
	"github.com/hyperifyio/quickresearch/internal/research"
	"github.com/hyperifyio/quickresearch/internal/retry"
	"github.com/hyperifyio/quickresearch/internal/robots"
	"github.com/hyperifyio/quickresearch/internal/search"
	"github.com/hyperifyio/quickresearch/internal/summarize"
)

// summarizerTimeout bounds a single summarization backend call; model
// inference is slower than page fetches.
const summarizerTimeout = 90 * time.Second

type App struct {
	cfg      Config
	pipeline *research.Pipeline
}

// New builds the clients once. A local summarizer that fails its readiness
// probe is not fatal: requests then get the failure sentinel summary.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	hc := newHTTPClient(cfg.RequestTimeout)
	policy := retry.Policy{Attempts: cfg.Retries, Delay: cfg.RetryDelay}
	// Wikipedia search and extraction share one polite pace.
	wikiLimiter := rate.NewLimiter(rate.Every(100*time.Millisecond), 5)

	provider, err := newProvider(cfg, hc, wikiLimiter)
	if err != nil {
		return nil, err
	}
	strategy, err := newStrategy(cfg, hc, wikiLimiter)
	if err != nil {
		return nil, err
	}
	summarizer, err := newSummarizer(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("search", provider.Name()).
		Str("extract", strategy.Name()).
		Str("summarizer", cfg.Summarizer).
		Int("workers", cfg.Workers).
		Msg("pipeline configured")

	return &App{
		cfg: cfg,
		pipeline: &research.Pipeline{
			Searcher:   &search.Retrying{Provider: provider, Policy: policy},
			Extractor:  &extract.Extractor{Strategy: strategy, Policy: policy, MaxChars: cfg.MaxChars},
			Summarizer: summarizer,
			Workers:    cfg.Workers,
			Timeout:    cfg.PipelineTimeout,
		},
	}, nil
}

// Pipeline exposes the configured pipeline for the HTTP server.
func (a *App) Pipeline() *research.Pipeline { return a.pipeline }

// Config returns the effective configuration.
func (a *App) Config() Config { return a.cfg }

// Run executes one query.
func (a *App) Run(ctx context.Context, q research.Query) (research.Result, error) {
	return a.pipeline.Run(ctx, q)
}

func newProvider(cfg Config, hc *http.Client, wikiLimiter *rate.Limiter) (search.Provider, error) {
	switch cfg.SearchProvider {
	case SearchSearxNG:
		return &search.SearxNG{BaseURL: cfg.SearxURL, APIKey: cfg.SearxKey, HTTPClient: hc, UserAgent: cfg.UserAgent}, nil
	case SearchSerpAPI:
		return &search.SerpAPI{APIKey: cfg.SerpAPIKey, HTTPClient: hc, UserAgent: cfg.UserAgent}, nil
	case SearchDuckDuckGo:
		return search.NewDuckDuckGo(hc), nil
	case SearchWikipedia:
		return &search.Wikipedia{APIURL: cfg.WikiAPIURL, HTTPClient: hc, UserAgent: cfg.UserAgent, Limiter: wikiLimiter}, nil
	case SearchNews:
		return &search.News{Feeds: cfg.NewsFeeds, HTTPClient: hc, UserAgent: cfg.UserAgent}, nil
	case SearchFile:
		return &search.FileProvider{Path: cfg.FileSearchPath}, nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.SearchProvider)
}

func newStrategy(cfg Config, hc *http.Client, wikiLimiter *rate.Limiter) (extract.Strategy, error) {
	page := &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.RequestTimeout,
		MaxConcurrent:     cfg.Workers,
	}
	if cfg.RespectRobots {
		page.Robots = &robots.Checker{HTTPClient: hc, UserAgent: cfg.UserAgent}
	}
	if cfg.CacheDir != "" {
		page.Cache = &cache.PageCache{Dir: cfg.CacheDir, MaxAge: cfg.CacheMaxAge}
	}
	switch cfg.ExtractStrategy {
	case ExtractArticle:
		return &extract.Article{Fetcher: page}, nil
	case ExtractParagraphs:
		return &extract.Paragraphs{Fetcher: page, MaxParagraphs: cfg.MaxParagraphs}, nil
	case ExtractMarkdown:
		return &extract.Markdown{Fetcher: page}, nil
	case ExtractWikipedia:
		api := &fetch.Client{
			HTTPClient:        hc,
			UserAgent:         cfg.UserAgent,
			PerRequestTimeout: cfg.RequestTimeout,
			Limiter:           wikiLimiter,
			AcceptAny:         true,
		}
		return &extract.Wikipedia{APIURL: cfg.WikiAPIURL, Fetcher: api}, nil
	}
	return nil, fmt.Errorf("unknown extract strategy %q", cfg.ExtractStrategy)
}

func newSummarizer(ctx context.Context, cfg Config) (research.Summarizer, error) {
	hc := newHTTPClient(summarizerTimeout)
	switch cfg.Summarizer {
	case SummarizerChat:
		client := llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, hc)
		preflightModels(ctx, client)
		return &summarize.Chat{Client: client, Model: cfg.LLMModel}, nil
	case SummarizerLocal:
		l := &summarize.Local{URL: cfg.LocalSummarizerURL, HTTPClient: hc}
		initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_ = l.Init(initCtx)
		return l, nil
	}
	return nil, fmt.Errorf("unknown summarizer %q", cfg.Summarizer)
}

// preflightModels lists models as a best-effort connectivity check.
func preflightModels(ctx context.Context, ml llm.ModelLister) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := ml.ListModels(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
		return
	}
	if len(models.Models) == 0 {
		log.Warn().Msg("LLM returned zero models")
		return
	}
	log.Info().Int("count", len(models.Models)).Msg("LLM models available")
}

// NewSearchProvider builds only the configured search provider. It is used by
// tooling that exercises search without a summarizer.
func NewSearchProvider(cfg Config) (search.Provider, error) {
	ApplyDefaults(&cfg)
	ResolveBackends(&cfg)
	if cfg.SearchProvider == "" {
		return nil, fmt.Errorf("config: no search provider configured")
	}
	hc := newHTTPClient(cfg.RequestTimeout)
	return newProvider(cfg, hc, rate.NewLimiter(rate.Every(100*time.Millisecond), 5))
}
