package generator

import (
	"context"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	aoption "github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicCompleter struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

// NewAnthropic returns an LLM backed by the Messages API.
func NewAnthropic(apiKey, baseURL, model string, maxTokens int, hc *http.Client) *LLM {
	opts := []aoption.RequestOption{aoption.WithAPIKey(strings.TrimSpace(apiKey)), aoption.WithMaxRetries(1)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, aoption.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	if hc != nil {
		opts = append(opts, aoption.WithHTTPClient(hc))
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &LLM{
		provider: "anthropic",
		model:    model,
		c: &anthropicCompleter{
			client:    anthropic.NewClient(opts...),
			model:     model,
			maxTokens: int64(maxTokens),
		},
	}
}

func (a *anthropicCompleter) complete(ctx context.Context, system, user string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(strings.TrimSpace(a.model)),
		MaxTokens: a.maxTokens,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(tb.Text)
		}
	}
	return b.String(), nil
}
