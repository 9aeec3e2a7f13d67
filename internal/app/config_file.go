package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema (YAML or JSON).
type FileConfig struct {
	Search struct {
		Provider string   `yaml:"provider" json:"provider"`
		File     string   `yaml:"file" json:"file"`
		Feeds    []string `yaml:"feeds" json:"feeds"`
		UA       string   `yaml:"ua" json:"ua"`
	} `yaml:"search" json:"search"`

	Searx struct {
		URL string `yaml:"url" json:"url"`
		Key string `yaml:"key" json:"key"`
	} `yaml:"searx" json:"searx"`

	SerpAPI struct {
		Key string `yaml:"key" json:"key"`
	} `yaml:"serpapi" json:"serpapi"`

	Wikipedia struct {
		API string `yaml:"api" json:"api"`
	} `yaml:"wikipedia" json:"wikipedia"`

	Extract struct {
		Strategy      string `yaml:"strategy" json:"strategy"`
		MaxChars      int    `yaml:"maxChars" json:"maxChars"`
		MaxParagraphs int    `yaml:"maxParagraphs" json:"maxParagraphs"`
	} `yaml:"extract" json:"extract"`

	Fetch struct {
		Robots      bool          `yaml:"robots" json:"robots"`
		CacheDir    string        `yaml:"cacheDir" json:"cacheDir"`
		CacheMaxAge time.Duration `yaml:"cacheMaxAge" json:"cacheMaxAge"`
	} `yaml:"fetch" json:"fetch"`

	Summarizer struct {
		Backend  string `yaml:"backend" json:"backend"`
		LocalURL string `yaml:"localURL" json:"localURL"`
	} `yaml:"summarizer" json:"summarizer"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Retries         int           `yaml:"retries" json:"retries"`
	RetryDelay      time.Duration `yaml:"retryDelay" json:"retryDelay"`
	RequestTimeout  time.Duration `yaml:"requestTimeout" json:"requestTimeout"`
	PipelineTimeout time.Duration `yaml:"pipelineTimeout" json:"pipelineTimeout"`
	Workers         int           `yaml:"workers" json:"workers"`
	Verbose         bool          `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays file values onto fields that are still zero in cfg.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	str := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	num := func(dst *int, v int) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}
	dur := func(dst *time.Duration, v time.Duration) {
		if *dst == 0 && v > 0 {
			*dst = v
		}
	}
	str(&cfg.SearchProvider, fc.Search.Provider)
	str(&cfg.FileSearchPath, fc.Search.File)
	str(&cfg.UserAgent, fc.Search.UA)
	if len(cfg.NewsFeeds) == 0 && len(fc.Search.Feeds) > 0 {
		cfg.NewsFeeds = append([]string{}, fc.Search.Feeds...)
	}
	str(&cfg.SearxURL, fc.Searx.URL)
	str(&cfg.SearxKey, fc.Searx.Key)
	str(&cfg.SerpAPIKey, fc.SerpAPI.Key)
	str(&cfg.WikiAPIURL, fc.Wikipedia.API)

	str(&cfg.ExtractStrategy, fc.Extract.Strategy)
	num(&cfg.MaxChars, fc.Extract.MaxChars)
	num(&cfg.MaxParagraphs, fc.Extract.MaxParagraphs)

	str(&cfg.CacheDir, fc.Fetch.CacheDir)
	dur(&cfg.CacheMaxAge, fc.Fetch.CacheMaxAge)
	if !cfg.RespectRobots && fc.Fetch.Robots {
		cfg.RespectRobots = true
	}

	str(&cfg.Summarizer, fc.Summarizer.Backend)
	str(&cfg.LocalSummarizerURL, fc.Summarizer.LocalURL)
	str(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	str(&cfg.LLMModel, fc.LLM.Model)
	str(&cfg.LLMAPIKey, fc.LLM.APIKey)

	num(&cfg.Retries, fc.Retries)
	num(&cfg.Workers, fc.Workers)
	dur(&cfg.RetryDelay, fc.RetryDelay)
	dur(&cfg.RequestTimeout, fc.RequestTimeout)
	dur(&cfg.PipelineTimeout, fc.PipelineTimeout)
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}
