package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.SearchProvider, "SEARCH_PROVIDER")
	setString(&cfg.SearxURL, "SEARX_URL", "SEARXNG_URL")
	setString(&cfg.SearxKey, "SEARX_KEY", "SEARXNG_KEY")
	setString(&cfg.SerpAPIKey, "SERPAPI_KEY", "SERPAPI_API_KEY")
	setString(&cfg.WikiAPIURL, "WIKI_API_URL")
	setString(&cfg.FileSearchPath, "SEARCH_FILE")
	setString(&cfg.ExtractStrategy, "EXTRACT_STRATEGY")
	setString(&cfg.Summarizer, "SUMMARIZER")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.LocalSummarizerURL, "LOCAL_SUMMARIZER_URL")
	setString(&cfg.CacheDir, "CACHE_DIR")
	if len(cfg.NewsFeeds) == 0 {
		cfg.NewsFeeds = splitList(os.Getenv("NEWS_FEEDS"))
	}

	setInt := func(dst *int, key string) {
		if *dst != 0 {
			return
		}
		if n, ok := envInt(key); ok {
			*dst = n
		}
	}
	setInt(&cfg.Retries, "RETRIES")
	setInt(&cfg.Workers, "WORKERS")
	setInt(&cfg.MaxChars, "MAX_CHARS")
	setInt(&cfg.MaxParagraphs, "MAX_PARAGRAPHS")

	setDuration := func(dst *time.Duration, key string) {
		if *dst != 0 {
			return
		}
		if d, ok := envDuration(key); ok {
			*dst = d
		}
	}
	setDuration(&cfg.RetryDelay, "RETRY_DELAY")
	setDuration(&cfg.RequestTimeout, "REQUEST_TIMEOUT")
	setDuration(&cfg.PipelineTimeout, "PIPELINE_TIMEOUT")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	if !cfg.Verbose {
		if b, ok := envBool("VERBOSE"); ok {
			cfg.Verbose = b
		}
	}
	if !cfg.RespectRobots {
		if b, ok := envBool("RESPECT_ROBOTS"); ok {
			cfg.RespectRobots = b
		}
	}
}

func envInt(key string) (int, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// envDuration accepts Go durations ("1500ms") or plain seconds ("2").
func envDuration(key string) (time.Duration, bool) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(f * float64(time.Second)), true
	}
	return 0, false
}

func envBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	}
	return false, false
}
