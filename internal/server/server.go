// Package server exposes the research pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/quickresearch/internal/research"
)

const (
	defaultRequestTimeout = 2 * time.Minute
	maxRequestBytes       = 64 << 10
)

// Runner runs one research query.
type Runner interface {
	Run(ctx context.Context, q research.Query) (research.Result, error)
}

// Server serves the research API.
type Server struct {
	Runner Runner
	// RequestTimeout bounds each research request. Zero means two minutes.
	RequestTimeout time.Duration
	// Name appears in the root health message.
	Name string
}

type researchRequest struct {
	Query       string `json:"query"`
	NumResults  *int   `json:"num_results"`
	SummaryType string `json:"summary_type"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler returns the routed handler wrapped with request-id logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /research/research", s.handleResearch)
	return withRequestID(mux)
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.timeout() + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	name := s.Name
	if name == "" {
		name = "quickresearch"
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": name + " is running"})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	var req researchRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	n := research.DefaultMaxResults
	if req.NumResults != nil {
		n = *req.NumResults
	}
	style := req.SummaryType
	if strings.TrimSpace(style) == "" {
		style = string(research.StyleBullet)
	}
	q, err := research.NewQuery(req.Query, n, style)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeout())
	defer cancel()
	res, err := s.Runner.Run(ctx, q)
	if err != nil {
		logger.Error().Err(err).Str("query", q.Text).Msg("research failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	logger.Info().Str("query", q.Text).Int("sources", len(res.Sources)).Msg("research served")
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) timeout() time.Duration {
	if s.RequestTimeout > 0 {
		return s.RequestTimeout
	}
	return defaultRequestTimeout
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestID tags each request with an id, attaches a child logger to
// the request context and logs the outcome.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		logger := log.With().Str("request_id", id).Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}
