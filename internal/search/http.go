package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/fetch"
)

const defaultTimeout = 10 * time.Second

func httpClientOrDefault(hc *http.Client) *http.Client {
	if hc != nil {
		return hc
	}
	return &http.Client{Timeout: defaultTimeout}
}

// do executes req after pacing through limiter and returns the body of a
// 2xx response. Failures are classified for the retry loop.
func do(ctx context.Context, hc *http.Client, limiter *rate.Limiter, req *http.Request) ([]byte, error) {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, fault.New(fault.Permanent, "search", err)
		}
	}
	resp, err := httpClientOrDefault(hc).Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fault.New(fault.Permanent, "search", ctx.Err())
		}
		return nil, fault.New(fault.Transient, "search", err)
	}
	defer resp.Body.Close()
	if err := fetch.CheckStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fault.Transientf("read body: %w", err)
	}
	return b, nil
}

func getJSON(ctx context.Context, hc *http.Client, limiter *rate.Limiter, ua string, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fault.Permanentf("new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	b, err := do(ctx, hc, limiter, req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		// A garbled payload is usually a proxy or upstream hiccup.
		return fault.Transientf("decode response: %w", err)
	}
	return nil
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return 10
	}
	return limit
}

func itoa(n int) string { return fmt.Sprintf("%d", n) }
