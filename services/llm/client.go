// Package llm sends composed prompts to a hosted or local language model.
package llm

import (
	"context"
	"errors"
	"fmt"

	"studybuddy/config"

	"go.uber.org/zap"
)

var (
	ErrCompletion = errors.New("llm completion failed")
	ErrNoBackend  = errors.New("no language model backend available")
	errMissingKey = errors.New("api key not configured")
)

// Client completes a single prompt. Every request is the configured system
// prompt followed by one user message.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Name() string
}

type Options struct {
	System      string
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

const (
	localMaxTokens = 1024
	localTopP      = 0.95
)

// New builds the configured remote backend, falling back to the local
// Ollama model when the remote one cannot be constructed.
func New(ctx context.Context, cfg config.LLMConfig, system string) (Client, error) {
	base := Options{
		System:      system,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		TopP:        cfg.TopP,
	}

	if cfg.Provider != config.ProviderOllama {
		client, err := newRemote(ctx, cfg, base)
		if err == nil {
			zap.S().Infof("Using remote language model %s", client.Name())
			return client, nil
		}
		zap.S().Warnf("Remote language model %s unavailable, falling back to local model: %v", cfg.Provider, err)
	}

	local := base
	local.Model = cfg.OllamaModel
	local.MaxTokens = min(base.MaxTokens, localMaxTokens)
	local.TopP = localTopP

	client, err := NewOllama(cfg.OllamaURL, local)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoBackend, err)
	}
	zap.S().Infof("Using local language model %s", client.Name())
	return client, nil
}

func newRemote(ctx context.Context, cfg config.LLMConfig, opts Options) (Client, error) {
	switch cfg.Provider {
	case config.ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, errMissingKey
		}
		opts.Model = cfg.GroqModel
		return NewOpenAICompatible(config.ProviderGroq, cfg.GroqAPIKey, cfg.GroqBaseURL, opts)
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errMissingKey
		}
		opts.Model = cfg.OpenAIModel
		return NewOpenAICompatible(config.ProviderOpenAI, cfg.OpenAIAPIKey, "", opts)
	case config.ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, errMissingKey
		}
		opts.Model = cfg.AnthropicModel
		return NewAnthropic(cfg.AnthropicAPIKey, opts), nil
	case config.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, errMissingKey
		}
		opts.Model = cfg.GeminiModel
		return NewGemini(ctx, cfg.GeminiAPIKey, opts)
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

func completionError(backend string, err error) error {
	return fmt.Errorf("%w (%s): %w", ErrCompletion, backend, err)
}
