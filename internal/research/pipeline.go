package research

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/search"
)

// DefaultWorkers bounds concurrent extractions per query.
const DefaultWorkers = 4

// Searcher discovers candidate references. It never fails; an empty slice
// means nothing was found.
type Searcher interface {
	Find(ctx context.Context, query string, limit int) []search.Result
}

// ContentExtractor resolves one reference. Failures come back as a Source
// with empty Text.
type ContentExtractor interface {
	Extract(ctx context.Context, ref search.Result) Source
}

// Summarizer condenses texts. It returns a sentinel string instead of failing.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string, style Style) string
}

// Pipeline runs search, extraction and summarization for one query.
type Pipeline struct {
	Searcher   Searcher
	Extractor  ContentExtractor
	Summarizer Summarizer
	// Workers is the extraction pool size. Zero means DefaultWorkers.
	Workers int
	// Timeout, when positive, bounds a single Run.
	Timeout time.Duration
}

// Run executes the pipeline. The only errors it returns are *fault.Error
// values of kind Unexpected: a recovered panic or an expired request context.
func (p *Pipeline) Run(ctx context.Context, q Query) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, unexpected(r)
		}
	}()
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	start := time.Now()

	refs := p.Searcher.Find(ctx, q.Text, q.MaxResults)
	if len(refs) > q.MaxResults {
		refs = refs[:q.MaxResults]
	}
	log.Info().Str("query", q.Text).Int("candidates", len(refs)).Msg("search done")

	valid := []Source{}
	if len(refs) > 0 {
		sources, err := p.extractAll(ctx, refs)
		if err != nil {
			return Result{}, err
		}
		for _, s := range sources {
			if s.OK() {
				valid = append(valid, s)
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, fault.New(fault.Unexpected, "research", err)
	}

	texts := make([]string, len(valid))
	for i, s := range valid {
		texts[i] = s.Text
	}
	summary := p.Summarizer.Summarize(ctx, texts, q.Style)
	if err := ctx.Err(); err != nil {
		return Result{}, fault.New(fault.Unexpected, "research", err)
	}

	log.Info().
		Str("query", q.Text).
		Int("candidates", len(refs)).
		Int("sources", len(valid)).
		Dur("elapsed", time.Since(start)).
		Msg("research complete")
	return Result{Query: q.Text, Summary: summary, Sources: valid}, nil
}

// extractAll extracts every reference on a bounded pool. Each worker writes
// only its own slot, so order follows refs regardless of completion order.
func (p *Pipeline) extractAll(ctx context.Context, refs []search.Result) ([]Source, error) {
	out := make([]Source, len(refs))
	var g errgroup.Group
	g.SetLimit(p.workers())
	for i, ref := range refs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = unexpected(r)
				}
			}()
			out[i] = p.Extractor.Extract(ctx, ref)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Pipeline) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return DefaultWorkers
}

func unexpected(r any) error {
	log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("pipeline panic recovered")
	return fault.New(fault.Unexpected, "research", fmt.Errorf("panic: %v", r))
}
