package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/app"
	"github.com/hyperifyio/quickresearch/internal/render"
	"github.com/hyperifyio/quickresearch/internal/research"
	"github.com/hyperifyio/quickresearch/internal/server"
)

type options struct {
	configPath string
	envFiles   string
	query      string
	numResults int
	style      string
	format     string
	outputPath string
	serveAddr  string
	// flags holds only values given on the command line; zero means unset.
	flags app.Config
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	opts, err := parseOptions(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Error().Err(err).Msg("run failed")
		stop()
		os.Exit(1)
	}
}

func parseOptions(args []string) (options, error) {
	var (
		o         options
		newsFeeds string
	)
	fs := flag.NewFlagSet("quickresearch", flag.ContinueOnError)
	fs.StringVar(&o.configPath, "config", os.Getenv("QUICKRESEARCH_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&o.envFiles, "env", ".env", "Comma-separated dotenv files to load (missing files are skipped)")
	fs.StringVar(&o.query, "query", "", "Research query to run once")
	fs.IntVar(&o.numResults, "n", research.DefaultMaxResults, "Number of candidate sources (1-10)")
	fs.StringVar(&o.style, "style", string(research.StyleBullet), "Summary style: bullet, paragraph or table")
	fs.StringVar(&o.format, "format", render.FormatJSON, "Output format: json, markdown, pdf or docx")
	fs.StringVar(&o.outputPath, "output", "", "Output file (stdout when empty; required for pdf/docx)")
	fs.StringVar(&o.serveAddr, "serve", "", "Serve the HTTP API on this address, e.g. :8000")

	c := &o.flags
	fs.StringVar(&c.SearchProvider, "search.provider", "", "Search provider: searxng, serpapi, duckduckgo, wikipedia, news, file")
	fs.StringVar(&c.SearxURL, "searx.url", "", "SearxNG base URL")
	fs.StringVar(&c.SearxKey, "searx.key", "", "SearxNG API key (optional)")
	fs.StringVar(&c.SerpAPIKey, "serpapi.key", "", "SerpAPI key")
	fs.StringVar(&c.WikiAPIURL, "wiki.api", "", "MediaWiki API URL (default en.wikipedia.org)")
	fs.StringVar(&newsFeeds, "news.feeds", "", "Comma-separated RSS/Atom feed URLs for the news provider")
	fs.StringVar(&c.FileSearchPath, "search.file", "", "Path to JSON file for offline file-based search provider")
	fs.StringVar(&c.UserAgent, "ua", "", "Custom User-Agent for outbound requests")
	fs.StringVar(&c.ExtractStrategy, "extract.strategy", "", "Extraction strategy: article, paragraphs, markdown, wikipedia")
	fs.IntVar(&c.MaxChars, "max.chars", 0, "Maximum characters per extracted source (default 2000)")
	fs.IntVar(&c.MaxParagraphs, "max.paragraphs", 0, "Paragraphs kept by the paragraphs strategy (default 5)")
	fs.BoolVar(&c.RespectRobots, "robots", false, "Skip pages disallowed by robots.txt")
	fs.StringVar(&c.CacheDir, "cache.dir", "", "Directory for the on-disk page cache (disabled when empty)")
	fs.DurationVar(&c.CacheMaxAge, "cache.maxAge", 0, "Serve cached pages younger than this without revalidation")
	fs.StringVar(&c.Summarizer, "summarizer", "", "Summarizer backend: chat or local")
	fs.StringVar(&c.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	fs.StringVar(&c.LLMModel, "llm.model", "", "Model name")
	fs.StringVar(&c.LLMAPIKey, "llm.key", "", "API key for OpenAI-compatible server")
	fs.StringVar(&c.LocalSummarizerURL, "local.url", "", "Local summarization model endpoint")
	fs.IntVar(&c.Retries, "retries", 0, "Attempts per search/extraction call (default 3)")
	fs.DurationVar(&c.RetryDelay, "retry.delay", 0, "Delay between attempts (default 1s)")
	fs.DurationVar(&c.RequestTimeout, "timeout", 0, "Per-request timeout for outbound calls (default 10s)")
	fs.DurationVar(&c.PipelineTimeout, "deadline", 0, "Deadline for one whole query (none when zero)")
	fs.IntVar(&c.Workers, "workers", 0, "Concurrent extractions per query (default 4)")
	fs.BoolVar(&c.Verbose, "v", false, "Verbose logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if newsFeeds != "" {
		for _, f := range strings.Split(newsFeeds, ",") {
			if f = strings.TrimSpace(f); f != "" {
				c.NewsFeeds = append(c.NewsFeeds, f)
			}
		}
	}
	if o.query == "" && fs.NArg() > 0 {
		o.query = strings.Join(fs.Args(), " ")
	}
	return o, nil
}

func run(ctx context.Context, o options, stdout io.Writer) error {
	if err := app.LoadEnvFiles(strings.Split(o.envFiles, ",")...); err != nil {
		return err
	}
	cfg, err := app.LoadConfig(o.flags, o.configPath)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if o.serveAddr != "" {
		srv := &server.Server{Runner: a.Pipeline()}
		return srv.ListenAndServe(ctx, o.serveAddr)
	}

	q, err := research.NewQuery(o.query, o.numResults, o.style)
	if err != nil {
		return fmt.Errorf("query: %w (use -query or -serve)", err)
	}
	res, err := a.Run(ctx, q)
	if err != nil {
		return err
	}
	if err := render.Write(o.format, res, o.outputPath, stdout); err != nil {
		return err
	}
	if o.outputPath != "" {
		log.Info().Str("path", o.outputPath).Int("sources", len(res.Sources)).Msg("report written")
	}
	return nil
}
