package appconfig

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-collection-boot/linq"
)

const (
	ProviderHosted = "hosted"
	ProviderOllama = "ollama"

	DefaultEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
	DefaultModel    = "qwen-turbo"
)

var ErrMissingAPIKey = errors.New("API_KEY must be set when llm_provider is hosted")

type AppConfig struct {
	config.BootConfig `ini:",extends"`

	HTTPPort int `env:"HTTP-PORT" ini:"http_port"`
	GRPCPort int `ini:"grpc_port"`

	LLMProvider       string  `env:"LLM-PROVIDER" ini:"llm_provider"`
	LLMEndpoint       string  `env:"LLM-ENDPOINT" ini:"llm_endpoint"`
	LLMModel          string  `env:"LLM-MODEL" ini:"llm_model"`
	LLMTimeoutSeconds int     `ini:"llm_timeout_seconds"`
	LLMTemperature    float64 `ini:"llm_temperature"`
	LLMMaxTokens      int     `ini:"llm_max_tokens"`

	// Credentials and the prompt override only come from the environment.
	APIKey       string `ini:"-"`
	SystemPrompt string `ini:"-"`

	MaxHistory            int    `ini:"max_history"`
	MaxMessageRunes       int    `ini:"max_message_runes"`
	DefaultUserID         string `ini:"default_user_id"`
	SessionIdleTTLMinutes int    `ini:"session_idle_ttl_minutes"`

	AllowedOrigins     string  `ini:"allowed_origins"`
	RateLimitPerSecond float64 `ini:"rate_limit_per_second"`

	OwnerName  string `ini:"owner_name"`
	OwnerEmail string `ini:"owner_email"`
}

// Load reads the ini file, applies environment overrides and defaults, and
// validates the result.
func Load(path string) (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := config.LoadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("error loading %s: %w", path, err)
	}

	cfg.ApplyEnv(os.Getenv)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) ApplyEnv(getenv func(string) string) {
	if v := getenv("API_KEY"); v != "" {
		c.APIKey = v
	}
	if v := getenv("SYSTEM_PROMPT"); v != "" {
		c.SystemPrompt = v
	}
}

func (c *AppConfig) ApplyDefaults() {
	if c.HTTPPort == 0 {
		c.HTTPPort = 8080
	}
	if c.GRPCPort == 0 {
		c.GRPCPort = 50051
	}
	if c.LLMProvider == "" {
		c.LLMProvider = ProviderHosted
	}
	if c.LLMEndpoint == "" && c.LLMProvider == ProviderHosted {
		c.LLMEndpoint = DefaultEndpoint
	}
	if c.LLMModel == "" {
		c.LLMModel = DefaultModel
	}
	if c.LLMTimeoutSeconds == 0 {
		c.LLMTimeoutSeconds = 30
	}
	if c.MaxHistory == 0 {
		c.MaxHistory = 10
	}
	if c.MaxMessageRunes == 0 {
		c.MaxMessageRunes = 2000
	}
	if c.DefaultUserID == "" {
		c.DefaultUserID = "anonymous"
	}
}

func (c *AppConfig) Validate() error {
	switch c.LLMProvider {
	case ProviderHosted:
		if c.APIKey == "" {
			return ErrMissingAPIKey
		}
		if c.LLMEndpoint == "" {
			return errors.New("llm_endpoint must be set when llm_provider is hosted")
		}
	case ProviderOllama:
	default:
		return fmt.Errorf("unknown llm_provider %q", c.LLMProvider)
	}

	if c.MaxHistory < 2 {
		return fmt.Errorf("max_history must be at least 2, got %d", c.MaxHistory)
	}
	if c.MaxMessageRunes < 0 {
		return fmt.Errorf("max_message_runes must not be negative, got %d", c.MaxMessageRunes)
	}
	if c.LLMTimeoutSeconds < 0 || c.SessionIdleTTLMinutes < 0 || c.RateLimitPerSecond < 0 {
		return errors.New("timeouts, ttl and rate limit must not be negative")
	}
	if strings.TrimSpace(c.SystemPrompt) == "" && strings.TrimSpace(c.OwnerName) == "" {
		return errors.New("owner_name must be set unless SYSTEM_PROMPT is provided (is ENV set to a config.ini section such as dev or prod?)")
	}

	return nil
}

func (c *AppConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *AppConfig) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLMinutes) * time.Minute
}

// Origins splits allowed_origins. An empty setting allows every origin.
func (c *AppConfig) Origins() []string {
	origins, err := linq.Pipe3(
		linq.FromSlice(context.Background(), strings.Split(c.AllowedOrigins, ",")),
		linq.Select(strings.TrimSpace),
		linq.Where(func(origin string) bool { return origin != "" }),
		linq.ToSlice[string](),
	)

	if err != nil || len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
