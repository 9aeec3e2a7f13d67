package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/fetch"
	"github.com/hyperifyio/quickresearch/internal/research"
)

const (
	DefaultMinLength     = 50
	DefaultMaxLength     = 150
	DefaultMaxInputChars = 4000
	defaultLocalTimeout  = 60 * time.Second
)

// Local calls a locally served abstractive summarization model using the
// Hugging Face inference request shape:
//
//	POST {"inputs": "...", "parameters": {"min_length": 50, "max_length": 150, "truncation": true}}
//	→ [{"summary_text": "..."}]
//
// The model is loaded once per process; Init probes it and every later call
// short-circuits to Failed if the probe did not succeed.
type Local struct {
	URL           string
	HTTPClient    *http.Client
	MinLength     int
	MaxLength     int
	MaxInputChars int

	once    sync.Once
	initErr error
}

type localRequest struct {
	Inputs     string          `json:"inputs"`
	Parameters localParameters `json:"parameters"`
}

type localParameters struct {
	MinLength  int  `json:"min_length"`
	MaxLength  int  `json:"max_length"`
	Truncation bool `json:"truncation"`
}

type localSummary struct {
	SummaryText string `json:"summary_text"`
}

// Init probes the backend with a GET. It runs once; later calls return the
// first result.
func (l *Local) Init(ctx context.Context) error {
	l.once.Do(func() {
		l.initErr = l.probe(ctx)
		if l.initErr != nil {
			log.Error().Err(l.initErr).Str("url", l.URL).Msg("local summarizer unavailable")
			return
		}
		log.Info().Str("url", l.URL).Msg("local summarizer ready")
	})
	return l.initErr
}

func (l *Local) probe(ctx context.Context) error {
	if strings.TrimSpace(l.URL) == "" {
		return fault.New(fault.BackendUnavailable, "local summarizer", fmt.Errorf("no URL configured"))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return fault.New(fault.BackendUnavailable, "local summarizer", err)
	}
	resp, err := l.client().Do(req)
	if err != nil {
		return fault.New(fault.BackendUnavailable, "local summarizer", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fault.New(fault.BackendUnavailable, "local summarizer", fmt.Errorf("probe status %d", resp.StatusCode))
	}
	return nil
}

func (l *Local) Summarize(ctx context.Context, texts []string, style research.Style) string {
	texts = nonBlank(texts)
	if len(texts) == 0 {
		return NoContent
	}
	if err := l.Init(ctx); err != nil {
		log.Warn().Str("kind", fault.BackendUnavailable.String()).Msg("skipping summarization; backend not initialized")
		return Failed
	}
	input, truncated := truncatePrefix(strings.Join(texts, " "), l.maxInputChars())
	if truncated {
		log.Debug().Bool("Truncated", true).Int("sources", len(texts)).Msg("summarizer input truncated")
	}
	out, err := l.call(ctx, input)
	if err != nil {
		log.Warn().Err(err).Str("url", l.URL).Str("style", string(style)).Msg("local summarization failed")
		return Failed
	}
	return out
}

func (l *Local) call(ctx context.Context, input string) (string, error) {
	payload, err := json.Marshal(localRequest{
		Inputs: input,
		Parameters: localParameters{
			MinLength:  orDefault(l.MinLength, DefaultMinLength),
			MaxLength:  orDefault(l.MaxLength, DefaultMaxLength),
			Truncation: true,
		},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := l.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	if err := fetch.CheckStatus(resp.StatusCode); err != nil {
		return "", err
	}
	var out []localSummary
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out) == 0 || strings.TrimSpace(out[0].SummaryText) == "" {
		return "", fmt.Errorf("empty summary")
	}
	return strings.TrimSpace(out[0].SummaryText), nil
}

func (l *Local) client() *http.Client {
	if l.HTTPClient != nil {
		return l.HTTPClient
	}
	return &http.Client{Timeout: defaultLocalTimeout}
}

func (l *Local) maxInputChars() int {
	return orDefault(l.MaxInputChars, DefaultMaxInputChars)
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
