package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/app"
	"github.com/hyperifyio/quickresearch/internal/fault"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var cfg app.Config
	var n int
	flag.StringVar(&cfg.SearchProvider, "provider", "", "Search provider (defaults to the one inferred from env)")
	flag.StringVar(&cfg.SearxURL, "searx.url", "", "SearxNG base URL")
	flag.StringVar(&cfg.FileSearchPath, "search.file", "", "Offline results file")
	flag.IntVar(&n, "n", 5, "Number of results")
	flag.Parse()

	if err := app.LoadEnvFiles(".env"); err != nil {
		log.Fatal().Err(err).Msg("load env")
	}
	app.ApplyEnvToConfig(&cfg)
	if cfg.SearchProvider == "" && cfg.SearxURL == "" && cfg.SerpAPIKey == "" && len(cfg.NewsFeeds) == 0 && cfg.FileSearchPath == "" {
		cfg.SearxURL = "http://localhost:8888"
	}
	prov, err := app.NewSearchProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("provider")
	}

	q := "What is love?"
	if flag.NArg() > 0 {
		q = strings.Join(flag.Args(), " ")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	start := time.Now()
	res, err := prov.Search(ctx, q, n)
	log.Info().Str("provider", prov.Name()).Dur("took", time.Since(start)).Stringer("kind", fault.KindOf(err)).Err(err).Msg("search")
	for i, r := range res {
		fmt.Printf("%d. %s — %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Printf("   %s\n", r.Snippet)
		}
	}
}
