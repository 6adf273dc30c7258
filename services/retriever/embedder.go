package retriever

import (
	"context"
	"errors"
	"fmt"

	"studybuddy/config"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	defaultOpenAIEmbeddingModel = "text-embedding-3-small"
	defaultGeminiEmbeddingModel = "gemini-embedding-001"
	defaultOllamaEmbeddingModel = "nomic-embed-text"

	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// NewEmbedder builds the embedder named by cfg.Embedding. It returns a nil
// embedder, not an error, when embeddings are disabled or the provider has
// no credentials, so uploads degrade to raw-text mode.
func NewEmbedder(ctx context.Context, cfg *config.Config) (embeddings.Embedder, error) {
	model := cfg.Embedding.Model

	switch cfg.Embedding.Provider {
	case config.ProviderNone:
		zap.S().Infof("Embeddings disabled, documents will be used as raw text")
		return nil, nil

	case config.ProviderOpenAI:
		if cfg.LLM.OpenAIAPIKey == "" {
			zap.S().Warnf("OPENAI_API_KEY not set, embeddings unavailable")
			return nil, nil
		}
		if model == "" {
			model = defaultOpenAIEmbeddingModel
		}
		client, err := openai.New(
			openai.WithToken(cfg.LLM.OpenAIAPIKey),
			openai.WithEmbeddingModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
		}
		return newLangChainEmbedder(client)

	case config.ProviderOllama:
		if model == "" {
			model = defaultOllamaEmbeddingModel
		}
		client, err := ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(cfg.LLM.OllamaURL),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return newLangChainEmbedder(client)

	case config.ProviderGemini:
		if cfg.LLM.GeminiAPIKey == "" {
			zap.S().Warnf("GEMINI_API_KEY not set, embeddings unavailable")
			return nil, nil
		}
		return NewGenAIEmbedder(ctx, cfg.LLM.GeminiAPIKey, model)

	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

func newLangChainEmbedder(client embeddings.EmbedderClient) (embeddings.Embedder, error) {
	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

// GenAIEmbedder implements embeddings.Embedder on the Gemini API, using
// distinct task types for documents and queries.
type GenAIEmbedder struct {
	client *genai.Client
	model  string
}

func NewGenAIEmbedder(ctx context.Context, apiKey, model string) (*GenAIEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("GenAI API key is required")
	}
	if model == "" {
		model = defaultGeminiEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GenAIEmbedder{client: client, model: model}, nil
}

func (e *GenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return e.embed(ctx, texts, taskRetrievalDocument)
}

func (e *GenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (e *GenAIEmbedder) embed(ctx context.Context, texts []string, task string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	result, err := e.client.Models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType: task,
	})
	if err != nil {
		return nil, fmt.Errorf("GenAI embed failed: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("GenAI returned %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}

	vectors := make([][]float32, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		vectors[i] = emb.Values
	}
	return vectors, nil
}
