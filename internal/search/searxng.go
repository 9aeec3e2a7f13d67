package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

// SearxNG implements Provider against a SearxNG instance's /search endpoint.
type SearxNG struct {
	BaseURL    string
	APIKey     string // optional
	HTTPClient *http.Client
	UserAgent  string // optional custom UA
}

func (s *SearxNG) Name() string { return "searxng" }

func (s *SearxNG) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if s.BaseURL == "" {
		return nil, fault.Permanentf("missing searxng base url")
	}
	limit = limitOrDefault(limit)
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fault.Permanentf("parse searxng url: %w", err)
	}
	// Ensure path
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("language", "auto")
	q.Set("safesearch", "1")
	q.Set("categories", "general")
	q.Set("count", itoa(limit))
	if s.APIKey != "" {
		q.Set("apikey", s.APIKey)
	}
	u.RawQuery = q.Encode()

	var sr searxResponse
	if err := getJSON(ctx, s.HTTPClient, nil, s.UserAgent, u.String(), &sr); err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		out = append(out, Result{
			Title:    strings.TrimSpace(r.Title),
			URL:      strings.TrimSpace(r.URL),
			Snippet:  strings.TrimSpace(r.Content),
			Date:     strings.TrimSpace(r.PublishedDate),
			Provider: s.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type searxResponse struct {
	Results []struct {
		Title         string `json:"title"`
		URL           string `json:"url"`
		Content       string `json:"content"`
		PublishedDate string `json:"publishedDate"`
	} `json:"results"`
}
