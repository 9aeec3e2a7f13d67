package summarize

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/quickresearch/internal/budget"
	"github.com/hyperifyio/quickresearch/internal/fault"
	"github.com/hyperifyio/quickresearch/internal/llm"
	"github.com/hyperifyio/quickresearch/internal/research"
)

const defaultReservedOutputTokens = 1024

const chatSystemPrompt = "You are a careful research assistant. Summarize ONLY the provided source texts. Do not add facts that are not present in them. Keep the result concise and factual."

// Chat summarizes through a remote chat-completion backend. One request is
// made per call.
type Chat struct {
	Client llm.Client
	Model  string
	// ReservedOutputTokens is held back from the context window for the
	// answer. Zero means 1024.
	ReservedOutputTokens int
	// MaxInputChars, when positive, overrides the budget derived from the
	// model's context window.
	MaxInputChars int
}

func (c *Chat) Summarize(ctx context.Context, texts []string, style research.Style) string {
	texts = nonBlank(texts)
	if len(texts) == 0 {
		return NoContent
	}
	if c.Client == nil || strings.TrimSpace(c.Model) == "" {
		log.Warn().Str("kind", fault.BackendUnavailable.String()).Msg("chat summarizer not configured")
		return Failed
	}
	header := buildChatHeader(style)
	body, truncated := truncatePrefix(numberTexts(texts), c.inputChars(header))
	if truncated {
		log.Debug().Bool("Truncated", true).Int("sources", len(texts)).Str("model", c.Model).Msg("summarizer input truncated")
	}

	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: chatSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: header + body},
		},
		Temperature: 0.1,
		N:           1,
	}
	resp, err := c.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		log.Warn().Err(err).Str("model", c.Model).Msg("chat summarization failed")
		return Failed
	}
	if len(resp.Choices) == 0 {
		log.Warn().Str("model", c.Model).Msg("chat summarization returned no choices")
		return Failed
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		log.Warn().Str("model", c.Model).Msg("chat summarization returned empty content")
		return Failed
	}
	return out
}

func (c *Chat) inputChars(header string) int {
	if c.MaxInputChars > 0 {
		return c.MaxInputChars
	}
	reserved := c.ReservedOutputTokens
	if reserved <= 0 {
		reserved = defaultReservedOutputTokens
	}
	n := budget.InputChars(c.Model, reserved, chatSystemPrompt+header)
	if n <= 0 {
		// Keep at least a sliver so the request is never empty.
		n = 1000
	}
	return n
}

func buildChatHeader(style research.Style) string {
	if style == "" {
		style = research.StyleBullet
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the following content in %s format:\n", style)
	sb.WriteString(styleInstruction(style))
	sb.WriteString("\n\nSources:\n\n")
	return sb.String()
}

func numberTexts(texts []string) string {
	var sb strings.Builder
	for i, t := range texts {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[%d] %s", i+1, t)
	}
	return sb.String()
}
