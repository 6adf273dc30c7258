// Package config loads Study Buddy settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	LogLevel string

	LLM       LLMConfig
	Embedding EmbeddingConfig

	VectorStore string
	Pinecone    PineconeConfig

	SessionStore string
	DatabaseURL  string
	SQLitePath   string

	MemoryMaxTurns int
	AgentReflect   bool
	AgentReason    bool
	AgentRecover   bool
	AgentSuggest   bool
}

// LLMConfig selects and tunes the completion backend.
type LLMConfig struct {
	Provider    string
	Temperature float64
	MaxTokens   int
	TopP        float64

	GroqAPIKey  string
	GroqModel   string
	GroqBaseURL string

	OpenAIAPIKey string
	OpenAIModel  string

	AnthropicAPIKey string
	AnthropicModel  string

	GeminiAPIKey string
	GeminiModel  string

	OllamaURL   string
	OllamaModel string
}

type EmbeddingConfig struct {
	Provider string
	Model    string
}

type PineconeConfig struct {
	APIKey    string
	IndexName string
	Dimension int
}

const (
	ProviderGroq      = "groq"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderNone      = "none"

	VectorStoreMemory   = "memory"
	VectorStorePinecone = "pinecone"

	SessionStoreNone     = "none"
	SessionStoreSQLite   = "sqlite"
	SessionStorePostgres = "postgres"
)

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		LLM: LLMConfig{
			Provider:        strings.ToLower(getEnv("LLM_PROVIDER", ProviderGroq)),
			Temperature:     getEnvFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:       getEnvInt("LLM_MAX_TOKENS", 2048),
			TopP:            getEnvFloat("LLM_TOP_P", 0.9),
			GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
			GroqModel:       getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
			GroqBaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
			OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
			AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
			GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
			GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			OllamaURL:       getEnv("OLLAMA_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "tinyllama"),
		},
		Embedding: EmbeddingConfig{
			Provider: strings.ToLower(getEnv("EMBEDDING_PROVIDER", ProviderOpenAI)),
			Model:    getEnv("EMBEDDING_MODEL", ""),
		},
		VectorStore: strings.ToLower(getEnv("VECTOR_STORE", VectorStoreMemory)),
		Pinecone: PineconeConfig{
			APIKey:    getEnv("PINECONE_API_KEY", ""),
			IndexName: getEnv("PINECONE_INDEX_NAME", "studybuddy-docs"),
			Dimension: getEnvInt("PINECONE_DIMENSION", 1536),
		},
		SessionStore:   strings.ToLower(getEnv("SESSION_STORE", SessionStoreNone)),
		DatabaseURL:    getEnv("DB_URL", ""),
		SQLitePath:     getEnv("SQLITE_PATH", "./data/studybuddy.db"),
		MemoryMaxTurns: getEnvInt("MEMORY_MAX_TURNS", 10),
		AgentReflect:   getEnvBool("AGENT_REFLECT", false),
		AgentReason:    getEnvBool("AGENT_REASON", false),
		AgentRecover:   getEnvBool("AGENT_RECOVER", false),
		AgentSuggest:   getEnvBool("AGENT_MODEL_SUGGESTIONS", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks enumerated values and the credentials each selection needs.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGroq, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderOllama:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLM.Provider)
	}

	switch c.Embedding.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderOllama, ProviderNone:
	default:
		return fmt.Errorf("unknown EMBEDDING_PROVIDER %q", c.Embedding.Provider)
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be within [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		return fmt.Errorf("LLM_TOP_P must be within (0, 1], got %v", c.LLM.TopP)
	}
	if c.LLM.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.MemoryMaxTurns <= 0 {
		return fmt.Errorf("MEMORY_MAX_TURNS must be positive, got %d", c.MemoryMaxTurns)
	}

	switch c.VectorStore {
	case VectorStoreMemory:
	case VectorStorePinecone:
		if c.Pinecone.APIKey == "" {
			return fmt.Errorf("PINECONE_API_KEY is required when VECTOR_STORE=pinecone")
		}
		if c.Pinecone.Dimension <= 0 {
			return fmt.Errorf("PINECONE_DIMENSION must be positive, got %d", c.Pinecone.Dimension)
		}
	default:
		return fmt.Errorf("unknown VECTOR_STORE %q", c.VectorStore)
	}

	switch c.SessionStore {
	case SessionStoreNone, SessionStoreSQLite:
	case SessionStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DB_URL is required when SESSION_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown SESSION_STORE %q", c.SessionStore)
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
