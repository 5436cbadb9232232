package generator

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

type openAICompleter struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAI returns an LLM backed by the chat completions API. baseURL may
// point at any OpenAI-compatible server.
func NewOpenAI(apiKey, baseURL, model string, maxTokens int, hc *http.Client) *LLM {
	opts := []option.RequestOption{option.WithAPIKey(strings.TrimSpace(apiKey)), option.WithMaxRetries(1)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSpace(baseURL)))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}
	return &LLM{
		provider: "openai",
		model:    model,
		c: &openAICompleter{
			client:    openai.NewClient(opts...),
			model:     model,
			maxTokens: int64(maxTokens),
		},
	}
}

func (o *openAICompleter) complete(ctx context.Context, system, user string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Model:       o.model,
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{Type: "json_object"},
		},
	}
	if o.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(o.maxTokens)
	}
	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in completion")
	}
	return resp.Choices[0].Message.Content, nil
}
