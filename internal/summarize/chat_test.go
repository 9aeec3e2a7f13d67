package summarize

import (
	"context"
	"errors"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/quickresearch/internal/research"
)

type capturingClient struct {
	calls   int
	lastReq openai.ChatCompletionRequest
	content string
	err     error
}

func (c *capturingClient) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	c.calls++
	c.lastReq = req
	if c.err != nil {
		return openai.ChatCompletionResponse{}, c.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: c.content},
		}},
	}, nil
}

func TestChat_EmptyInputReturnsSentinelWithoutCalling(t *testing.T) {
	cc := &capturingClient{content: "x"}
	s := &Chat{Client: cc, Model: "m"}
	for _, in := range [][]string{nil, {}, {"", "   "}} {
		if got := s.Summarize(context.Background(), in, research.StyleBullet); got != NoContent {
			t.Fatalf("expected NoContent for %q, got %q", in, got)
		}
	}
	if cc.calls != 0 {
		t.Fatalf("backend should not be called, got %d calls", cc.calls)
	}
}

func TestChat_PromptCarriesStyleAndOrderedSources(t *testing.T) {
	cc := &capturingClient{content: "- point"}
	s := &Chat{Client: cc, Model: "m"}
	got := s.Summarize(context.Background(), []string{"first text", "", "second text"}, research.StyleTable)
	if got != "- point" {
		t.Fatalf("unexpected summary %q", got)
	}
	if cc.calls != 1 {
		t.Fatalf("expected exactly one request, got %d", cc.calls)
	}
	user := cc.lastReq.Messages[1].Content
	if !strings.Contains(user, "Summarize the following content in table format:") {
		t.Fatalf("missing style header: %q", user)
	}
	i1, i2 := strings.Index(user, "[1] first text"), strings.Index(user, "[2] second text")
	if i1 < 0 || i2 < 0 || i1 > i2 {
		t.Fatalf("sources missing or out of order: %q", user)
	}
}

func TestChat_BackendFailuresReturnFailedSentinel(t *testing.T) {
	cases := map[string]*capturingClient{
		"error":         {err: errors.New("503 service unavailable")},
		"empty content": {content: "   "},
	}
	for name, cc := range cases {
		t.Run(name, func(t *testing.T) {
			s := &Chat{Client: cc, Model: "m"}
			if got := s.Summarize(context.Background(), []string{"text"}, research.StyleBullet); got != Failed {
				t.Fatalf("expected Failed, got %q", got)
			}
		})
	}
	if got := (&Chat{}).Summarize(context.Background(), []string{"text"}, ""); got != Failed {
		t.Fatalf("unconfigured chat should fail soft, got %q", got)
	}
}

func TestChat_TruncatesKeepingPrefix(t *testing.T) {
	cc := &capturingClient{content: "ok"}
	s := &Chat{Client: cc, Model: "m", MaxInputChars: 20}
	s.Summarize(context.Background(), []string{"AAAAAAAAAA", "BBBBBBBBBB", "CCCCCCCCCC"}, research.StyleParagraph)
	user := cc.lastReq.Messages[1].Content
	if !strings.Contains(user, "[1] AAAAAAAAAA") {
		t.Fatalf("expected the first source intact: %q", user)
	}
	if strings.Contains(user, "CCC") || strings.Contains(user, "BBB") {
		t.Fatalf("expected the tail to be dropped: %q", user)
	}
}

func TestTruncatePrefix(t *testing.T) {
	if got, cut := truncatePrefix("abcdef", 3); got != "abc" || !cut {
		t.Fatalf("got %q %v", got, cut)
	}
	if got, cut := truncatePrefix("abc", 3); got != "abc" || cut {
		t.Fatalf("got %q %v", got, cut)
	}
}
