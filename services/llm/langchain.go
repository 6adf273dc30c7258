package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

// LangChainClient adapts any langchaingo model to Client.
type LangChainClient struct {
	model llms.Model
	name  string
	opts  Options
}

func NewLangChainClient(name string, model llms.Model, opts Options) *LangChainClient {
	return &LangChainClient{model: model, name: name, opts: opts}
}

// NewOpenAICompatible targets OpenAI or any endpoint speaking its chat API,
// such as Groq when baseURL is set.
func NewOpenAICompatible(provider, apiKey, baseURL string, opts Options) (*LangChainClient, error) {
	clientOpts := []openai.Option{
		openai.WithModel(opts.Model),
		openai.WithToken(apiKey),
	}
	if baseURL != "" {
		clientOpts = append(clientOpts, openai.WithBaseURL(baseURL))
	}

	model, err := openai.New(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", provider, err)
	}
	return NewLangChainClient(provider+":"+opts.Model, model, opts), nil
}

func NewOllama(serverURL string, opts Options) (*LangChainClient, error) {
	model, err := ollama.New(
		ollama.WithModel(opts.Model),
		ollama.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}
	return NewLangChainClient("ollama:"+opts.Model, model, opts), nil
}

func (c *LangChainClient) Name() string {
	return c.name
}

func (c *LangChainClient) Complete(ctx context.Context, prompt string) (string, error) {
	zap.S().Debugf("Generating response with %s (prompt length: %d chars)", c.name, len(prompt))

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, c.opts.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := c.model.GenerateContent(ctx, messages,
		llms.WithTemperature(c.opts.Temperature),
		llms.WithMaxTokens(c.opts.MaxTokens),
		llms.WithTopP(c.opts.TopP),
	)
	if err != nil {
		zap.S().Errorf("Failed to generate response with %s: %v", c.name, err)
		return "", completionError(c.name, err)
	}

	if len(resp.Choices) == 0 {
		return "", completionError(c.name, errors.New("no choices returned"))
	}

	content := strings.TrimSpace(resp.Choices[0].Content)
	if content == "" {
		return "", completionError(c.name, errors.New("empty response"))
	}

	zap.S().Debugf("%s responded (length: %d chars)", c.name, len(content))
	return content, nil
}
