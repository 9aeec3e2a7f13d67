// Package budget estimates token usage so summarizer input can be bounded
// to what a model's context window accepts.
package budget

import (
	"math"
	"strings"
)

// charsPerToken is the conservative English heuristic used throughout.
const charsPerToken = 4

// EstimateTokensFromChars converts a character count into an estimated token
// count (~4 chars per token, rounded up). The result is at least 1 when
// chars > 0.
func EstimateTokensFromChars(charCount int) int {
	if charCount <= 0 {
		return 0
	}
	return int(math.Ceil(float64(charCount) / charsPerToken))
}

// EstimateTokens returns the estimated token count of a string.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(len([]rune(s)))
}

// ModelContextTokens returns an estimated maximum context window for a given
// model name. Unknown models fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if name == "" {
		return 8192
	}
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range []struct {
		suffix string
		tokens int
	}{
		{"1m", 1_000_000},
		{"512k", 512_000},
		{"200k", 200_000},
		{"128k", 128_000},
		{"32k", 32_768},
	} {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// RemainingContext computes the input token budget left after reserving
// output tokens and the prompt. Never negative.
func RemainingContext(modelName string, reservedForOutput int, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	remaining := ModelContextTokens(modelName) - reservedForOutput - promptTokens
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HeadroomTokens is the safety margin for tokenizer and message framing
// overheads: the larger of 5% of the context or 512 tokens.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// RemainingContextWithHeadroom is RemainingContext minus HeadroomTokens.
func RemainingContextWithHeadroom(modelName string, reservedForOutput int, promptTokens int) int {
	return RemainingContext(modelName, reservedForOutput+HeadroomTokens(modelName), promptTokens)
}

// InputChars converts the remaining token budget for a fixed prompt into a
// character allowance for source text.
func InputChars(modelName string, reservedForOutput int, fixedPrompt string) int {
	return RemainingContextWithHeadroom(modelName, reservedForOutput, EstimateTokens(fixedPrompt)) * charsPerToken
}

var knownModelMax = map[string]int{
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4.1":            1_000_000,
	"gpt-4.1-mini":       1_000_000,
	"gpt-4-turbo":        128_000,
	"gpt-3.5-turbo":      16_384,
	"llama-3":            8_192,
	"llama-3.1":          128_000,
	"mistral-7b":         32_768,
	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}
