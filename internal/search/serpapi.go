package search

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hyperifyio/quickresearch/internal/fault"
)

const serpAPIDefaultURL = "https://serpapi.com/search.json"

// SerpAPI queries the SerpAPI Google engine and returns organic results.
type SerpAPI struct {
	APIKey     string
	BaseURL    string // defaults to serpapi.com
	Engine     string // defaults to "google"
	HTTPClient *http.Client
	UserAgent  string
}

func (s *SerpAPI) Name() string { return "serpapi" }

func (s *SerpAPI) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(s.APIKey) == "" {
		return nil, fault.Permanentf("serpapi: missing api key")
	}
	limit = limitOrDefault(limit)
	base := s.BaseURL
	if base == "" {
		base = serpAPIDefaultURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fault.Permanentf("parse serpapi url: %w", err)
	}
	engine := s.Engine
	if engine == "" {
		engine = "google"
	}
	q := u.Query()
	q.Set("engine", engine)
	q.Set("q", query)
	q.Set("num", itoa(limit))
	q.Set("api_key", s.APIKey)
	u.RawQuery = q.Encode()

	var sr serpResponse
	if err := getJSON(ctx, s.HTTPClient, nil, s.UserAgent, u.String(), &sr); err != nil {
		return nil, err
	}
	if sr.Error != "" {
		// "Google hasn't returned any results" is reported as an error
		// payload; treat it as an empty page rather than a failure.
		if strings.Contains(strings.ToLower(sr.Error), "any results") {
			return []Result{}, nil
		}
		return nil, fault.Permanentf("serpapi: %s", sr.Error)
	}
	out := make([]Result, 0, len(sr.OrganicResults))
	for _, r := range sr.OrganicResults {
		link := strings.TrimSpace(r.Link)
		if link == "" {
			continue
		}
		out = append(out, Result{
			Title:    strings.TrimSpace(r.Title),
			URL:      link,
			Snippet:  strings.TrimSpace(r.Snippet),
			Date:     strings.TrimSpace(r.Date),
			Provider: s.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type serpResponse struct {
	Error          string `json:"error"`
	OrganicResults []struct {
		Position int    `json:"position"`
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Date     string `json:"date"`
	} `json:"organic_results"`
}
