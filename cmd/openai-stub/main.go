package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

type localRequest struct {
	Inputs     string `json:"inputs"`
	Parameters struct {
		MinLength int `json:"min_length"`
		MaxLength int `json:"max_length"`
	} `json:"parameters"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	model := os.Getenv("MODEL_ID")
	if strings.TrimSpace(model) == "" {
		model = "test-model"
	}
	addr := os.Getenv("ADDR")
	if strings.TrimSpace(addr) == "" {
		addr = ":8081"
	}
	log.Info().Str("addr", addr).Str("model", model).Msg("openai-stub listening")
	if err := http.ListenAndServe(addr, newMux(model)); err != nil {
		log.Fatal().Err(err).Msg("serve")
	}
}

// newMux serves an OpenAI-compatible chat API plus a local summarization
// endpoint at /summarize, both returning deterministic text.
func newMux(model string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"data": []map[string]any{{"id": model, "object": "model"}},
		})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		sys, user := "", ""
		for _, m := range req.Messages {
			switch m.Role {
			case "system":
				sys = strings.TrimSpace(m.Content)
			case "user":
				user = m.Content
			}
		}
		if !strings.Contains(sys, "careful research assistant") {
			http.Error(w, "unexpected system", http.StatusBadRequest)
			return
		}
		writeJSON(w, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": chatSummary(user)}},
			},
		})
	})
	mux.HandleFunc("/summarize", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, map[string]string{"status": "ready"})
			return
		}
		defer r.Body.Close()
		var req localRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		words := strings.Fields(req.Inputs)
		if max := req.Parameters.MaxLength; max > 0 && len(words) > max {
			words = words[:max]
		}
		writeJSON(w, []map[string]string{{"summary_text": strings.Join(words, " ")}})
	})
	return mux
}

// chatSummary echoes the first line of each numbered source in the style the
// prompt asks for.
func chatSummary(user string) string {
	var lines []string
	for _, line := range strings.Split(user, "\n") {
		line = strings.TrimSpace(line)
		if len(line) > 3 && line[0] == '[' {
			if i := strings.Index(line, "] "); i > 0 {
				lines = append(lines, line[i+2:])
			}
		}
	}
	if len(lines) == 0 {
		return "No sources were provided."
	}
	switch {
	case strings.Contains(user, "in table format"):
		var sb strings.Builder
		sb.WriteString("| # | Point |\n|---|---|\n")
		for i, l := range lines {
			fmt.Fprintf(&sb, "| %d | %s |\n", i+1, l)
		}
		return strings.TrimSpace(sb.String())
	case strings.Contains(user, "in paragraph format"):
		return strings.Join(lines, " ")
	default:
		return "- " + strings.Join(lines, "\n- ")
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
