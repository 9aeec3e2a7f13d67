package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hyperifyio/quickresearch/internal/fetch"
	"github.com/hyperifyio/quickresearch/internal/research"
	"github.com/hyperifyio/quickresearch/internal/retry"
)

// Backend names accepted by the configuration.
const (
	SearchSearxNG    = "searxng"
	SearchSerpAPI    = "serpapi"
	SearchDuckDuckGo = "duckduckgo"
	SearchWikipedia  = "wikipedia"
	SearchNews       = "news"
	SearchFile       = "file"

	ExtractArticle    = "article"
	ExtractParagraphs = "paragraphs"
	ExtractMarkdown   = "markdown"
	ExtractWikipedia  = "wikipedia"

	SummarizerChat  = "chat"
	SummarizerLocal = "local"
)

var (
	searchProviders = []string{SearchSearxNG, SearchSerpAPI, SearchDuckDuckGo, SearchWikipedia, SearchNews, SearchFile}
	extractors      = []string{ExtractArticle, ExtractParagraphs, ExtractMarkdown, ExtractWikipedia}
	summarizers     = []string{SummarizerChat, SummarizerLocal}
)

// Config holds runtime configuration for the application.
type Config struct {
	// Search
	SearchProvider string
	SearxURL       string
	SearxKey       string
	SerpAPIKey     string
	WikiAPIURL     string
	NewsFeeds      []string
	FileSearchPath string
	UserAgent      string

	// Extraction
	ExtractStrategy string
	MaxChars        int
	MaxParagraphs   int
	RespectRobots   bool

	// Page cache, enabled when CacheDir is set
	CacheDir    string
	CacheMaxAge time.Duration

	// Summarization
	Summarizer         string
	LLMBaseURL         string
	LLMModel           string
	LLMAPIKey          string
	LocalSummarizerURL string

	// Behavior; PipelineTimeout bounds one whole query, zero leaves it to the caller
	Retries         int
	RetryDelay      time.Duration
	RequestTimeout  time.Duration
	PipelineTimeout time.Duration
	Workers         int
	Verbose         bool
}

// ApplyDefaults fills zero-valued limits. Backend selection is left to
// ResolveBackends.
func ApplyDefaults(cfg *Config) {
	if cfg.Retries == 0 {
		cfg.Retries = retry.DefaultAttempts
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = retry.DefaultDelay
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = fetch.DefaultTimeout
	}
	if cfg.Workers == 0 {
		cfg.Workers = research.DefaultWorkers
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = fetch.DefaultUserAgent
	}
}

// ResolveBackends picks backends that were not named explicitly. There is
// no built-in default: a search provider is inferred only from configured
// credentials, and a summarizer only from a configured model or URL. The
// Wikipedia search provider always pairs with the Wikipedia extractor.
func ResolveBackends(cfg *Config) {
	cfg.SearchProvider = strings.ToLower(strings.TrimSpace(cfg.SearchProvider))
	cfg.ExtractStrategy = strings.ToLower(strings.TrimSpace(cfg.ExtractStrategy))
	cfg.Summarizer = strings.ToLower(strings.TrimSpace(cfg.Summarizer))

	if cfg.SearchProvider == "" {
		switch {
		case cfg.SerpAPIKey != "":
			cfg.SearchProvider = SearchSerpAPI
		case cfg.SearxURL != "":
			cfg.SearchProvider = SearchSearxNG
		case len(cfg.NewsFeeds) > 0:
			cfg.SearchProvider = SearchNews
		case cfg.FileSearchPath != "":
			cfg.SearchProvider = SearchFile
		}
	}
	if cfg.SearchProvider == SearchWikipedia && cfg.ExtractStrategy == "" {
		cfg.ExtractStrategy = ExtractWikipedia
	}
	if cfg.ExtractStrategy == "" {
		cfg.ExtractStrategy = ExtractArticle
	}
	if cfg.Summarizer == "" {
		switch {
		case cfg.LLMModel != "":
			cfg.Summarizer = SummarizerChat
		case cfg.LocalSummarizerURL != "":
			cfg.Summarizer = SummarizerLocal
		}
	}
}

// ValidateConfig performs minimal schema validation for required settings.
func ValidateConfig(cfg Config) error {
	if cfg.SearchProvider == "" {
		return errors.New("config: no search provider selected (set SEARCH_PROVIDER or provider credentials)")
	}
	if !oneOf(cfg.SearchProvider, searchProviders) {
		return fmt.Errorf("config: unknown search provider %q", cfg.SearchProvider)
	}
	if !oneOf(cfg.ExtractStrategy, extractors) {
		return fmt.Errorf("config: unknown extract strategy %q", cfg.ExtractStrategy)
	}
	// Wikipedia search yields page titles without URLs; only the wikipedia
	// strategy can resolve them.
	if cfg.SearchProvider == SearchWikipedia && cfg.ExtractStrategy != ExtractWikipedia {
		return fmt.Errorf("config: the wikipedia search provider requires the wikipedia extract strategy, got %q", cfg.ExtractStrategy)
	}
	if cfg.Summarizer == "" {
		return errors.New("config: no summarizer selected (set SUMMARIZER, LLM_MODEL or LOCAL_SUMMARIZER_URL)")
	}
	if !oneOf(cfg.Summarizer, summarizers) {
		return fmt.Errorf("config: unknown summarizer %q", cfg.Summarizer)
	}
	switch cfg.SearchProvider {
	case SearchSearxNG:
		if strings.TrimSpace(cfg.SearxURL) == "" {
			return errors.New("config: searx.url is required for the searxng provider (or set SEARX_URL)")
		}
	case SearchSerpAPI:
		if strings.TrimSpace(cfg.SerpAPIKey) == "" {
			return errors.New("config: serpapi key is required (or set SERPAPI_KEY)")
		}
	case SearchNews:
		if len(cfg.NewsFeeds) == 0 {
			return errors.New("config: news provider needs at least one feed (or set NEWS_FEEDS)")
		}
	case SearchFile:
		if strings.TrimSpace(cfg.FileSearchPath) == "" {
			return errors.New("config: search.file is required for the file provider (or set SEARCH_FILE)")
		}
	}
	switch cfg.Summarizer {
	case SummarizerChat:
		if strings.TrimSpace(cfg.LLMModel) == "" {
			return errors.New("config: llm.model is required (or set LLM_MODEL)")
		}
	case SummarizerLocal:
		if strings.TrimSpace(cfg.LocalSummarizerURL) == "" {
			return errors.New("config: local summarizer URL is required (or set LOCAL_SUMMARIZER_URL)")
		}
	}
	if cfg.Retries < 0 || cfg.Workers < 0 || cfg.MaxChars < 0 || cfg.MaxParagraphs < 0 ||
		cfg.RetryDelay < 0 || cfg.RequestTimeout < 0 || cfg.PipelineTimeout < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadConfig resolves the effective configuration. flags carries only values
// set explicitly on the command line; environment variables fill what flags
// left unset, then the optional config file, then defaults.
func LoadConfig(flags Config, configPath string) (Config, error) {
	cfg := flags
	ApplyEnvToConfig(&cfg)
	if strings.TrimSpace(configPath) != "" {
		fc, err := LoadConfigFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		ApplyFileConfig(&cfg, fc)
	}
	ApplyDefaults(&cfg)
	ResolveBackends(&cfg)
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
