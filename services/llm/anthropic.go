package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// anthropicDefaultTopP is the configured top-p that is left to the API.
// Claude models accept temperature or top_p, not both.
const anthropicDefaultTopP = 0.9

type AnthropicClient struct {
	client *anthropic.Client
	opts   Options
}

func NewAnthropic(apiKey string, opts Options, extra ...option.RequestOption) *AnthropicClient {
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, extra...)
	client := anthropic.NewClient(reqOpts...)
	return &AnthropicClient{client: &client, opts: opts}
}

func (c *AnthropicClient) Name() string {
	return "anthropic:" + c.opts.Model
}

func (c *AnthropicClient) Complete(ctx context.Context, prompt string) (string, error) {
	zap.S().Debugf("Generating response with %s (prompt length: %d chars)", c.Name(), len(prompt))

	response, err := c.client.Messages.New(ctx, c.params(prompt))
	if err != nil {
		zap.S().Errorf("Failed to call Anthropic API: %v", err)
		return "", completionError(c.Name(), err)
	}

	var sb strings.Builder
	for _, block := range response.Content {
		if text, ok := block.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(text.Text)
		}
	}

	content := strings.TrimSpace(sb.String())
	if content == "" {
		return "", completionError(c.Name(), errors.New("empty response"))
	}
	return content, nil
}

// params sends top_p only when it was changed from the default, and
// temperature otherwise.
func (c *AnthropicClient) params(prompt string) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: int64(c.opts.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: c.opts.System},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.opts.TopP > 0 && c.opts.TopP != anthropicDefaultTopP {
		params.TopP = anthropic.Float(c.opts.TopP)
	} else {
		params.Temperature = anthropic.Float(c.opts.Temperature)
	}
	return params
}
