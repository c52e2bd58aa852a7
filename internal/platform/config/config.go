// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	AI            AIConfig
	Auth          AuthConfig
	Generation    GenerationConfig
	Comprehension ComprehensionConfig
	Budget        BudgetConfig
	Log           LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	Host           string
	AllowedOrigins []string
	MaxUploadBytes int64
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds PostgreSQL connection settings. An empty URL selects
// the in-memory stores.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
	Migrate  bool
}

// CacheConfig holds Dragonfly/Redis connection settings. An empty URL keeps
// token budgets in process memory.
type CacheConfig struct {
	URL string
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	Groq       GroqConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	DeepSeek   DeepSeekConfig
	Google     GoogleConfig
	Ollama     OllamaConfig
	OpenRouter OpenRouterConfig
	// Model overrides the provider default model for every request.
	Model string
}

// GroqConfig holds Groq provider settings (OpenAI-compatible).
type GroqConfig struct {
	APIKey string
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  int // hours
}

// TokenDuration returns TokenTTL as a duration.
func (a AuthConfig) TokenDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Hour
}

// GenerationConfig tunes the course generation pipeline.
type GenerationConfig struct {
	ChapterConcurrency  int
	OutlineContextChars int
	ChapterContextChars int
	OutlineMaxTokens    int
	ProfilesPath        string // optional YAML override of the embedded profiles
}

// ComprehensionConfig tunes document and video chat.
type ComprehensionConfig struct {
	MaxContextChars int
	AnswerMaxTokens int
}

// BudgetConfig holds per-user AI token limits.
type BudgetConfig struct {
	DailyTokens int64 // 0 = unlimited
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           envInt("LEARN_SERVER_PORT", 8080),
			Host:           envStr("LEARN_SERVER_HOST", "0.0.0.0"),
			AllowedOrigins: envList("LEARN_SERVER_ALLOWED_ORIGINS", []string{"*"}),
			MaxUploadBytes: int64(envInt("LEARN_SERVER_MAX_UPLOAD_BYTES", 10<<20)),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 5),
			Migrate:  envBool("LEARN_DATABASE_MIGRATE", true),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
		},
		AI: AIConfig{
			Groq: GroqConfig{
				APIKey: envStr("LEARN_AI_GROQ_API_KEY", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey: envStr("LEARN_AI_OPENAI_API_KEY", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey: envStr("LEARN_AI_DEEPSEEK_API_KEY", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("LEARN_AI_GOOGLE_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("LEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("LEARN_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("LEARN_AI_OPENROUTER_API_KEY", ""),
			},
			Model: envStr("LEARN_AI_MODEL", ""),
		},
		Auth: AuthConfig{
			JWTSecret: envStr("LEARN_AUTH_JWT_SECRET", "change-me-in-production"),
			TokenTTL:  envInt("LEARN_AUTH_TOKEN_TTL", 24),
		},
		Generation: GenerationConfig{
			ChapterConcurrency:  envInt("LEARN_GENERATION_CHAPTER_CONCURRENCY", 3),
			OutlineContextChars: envInt("LEARN_GENERATION_OUTLINE_CONTEXT_CHARS", 6000),
			ChapterContextChars: envInt("LEARN_GENERATION_CHAPTER_CONTEXT_CHARS", 2000),
			OutlineMaxTokens:    envInt("LEARN_GENERATION_OUTLINE_MAX_TOKENS", 512),
			ProfilesPath:        envStr("LEARN_COURSE_PROFILES_PATH", ""),
		},
		Comprehension: ComprehensionConfig{
			MaxContextChars: envInt("LEARN_COMPREHENSION_MAX_CONTEXT_CHARS", 12000),
			AnswerMaxTokens: envInt("LEARN_COMPREHENSION_ANSWER_MAX_TOKENS", 1024),
		},
		Budget: BudgetConfig{
			DailyTokens: int64(envInt("LEARN_BUDGET_DAILY_TOKENS", 0)),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("LEARN_AUTH_JWT_SECRET is required")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("LEARN_AUTH_TOKEN_TTL must be positive, got %d", c.Auth.TokenTTL)
	}

	if c.Generation.ChapterConcurrency < 1 {
		return fmt.Errorf("LEARN_GENERATION_CHAPTER_CONCURRENCY must be at least 1, got %d", c.Generation.ChapterConcurrency)
	}

	if c.Generation.OutlineContextChars <= 0 || c.Generation.ChapterContextChars <= 0 || c.Comprehension.MaxContextChars <= 0 {
		return fmt.Errorf("context character limits must be positive")
	}

	if c.Budget.DailyTokens < 0 {
		return fmt.Errorf("LEARN_BUDGET_DAILY_TOKENS must not be negative, got %d", c.Budget.DailyTokens)
	}

	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.Groq.APIKey != "" ||
		c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
