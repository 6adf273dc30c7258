package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

type GeminiClient struct {
	client *genai.Client
	opts   Options
}

func NewGemini(ctx context.Context, apiKey string, opts Options) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiClient{client: client, opts: opts}, nil
}

func (c *GeminiClient) Name() string {
	return "gemini:" + c.opts.Model
}

func (c *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	zap.S().Debugf("Generating response with %s (prompt length: %d chars)", c.Name(), len(prompt))

	result, err := c.client.Models.GenerateContent(ctx, c.opts.Model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.opts.System, genai.RoleUser),
		Temperature:       genai.Ptr(float32(c.opts.Temperature)),
		TopP:              genai.Ptr(float32(c.opts.TopP)),
		MaxOutputTokens:   int32(c.opts.MaxTokens),
	})
	if err != nil {
		zap.S().Errorf("Failed to call Gemini API: %v", err)
		return "", completionError(c.Name(), err)
	}

	content := strings.TrimSpace(result.Text())
	if content == "" {
		return "", completionError(c.Name(), errors.New("empty response"))
	}
	return content, nil
}
