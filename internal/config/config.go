package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every runtime setting of the service.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Static StaticConfig
	Log    LogConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Static: StaticConfig{Dir: getEnvOrDefault("STATIC_DIR", "static")},
		Log: LogConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Pretty: strings.TrimSpace(os.Getenv("LOG_PRETTY")) == "true",
		},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// StaticConfig locates the front-end assets.
type StaticConfig struct {
	Dir string
}

// LogConfig controls process logging.
type LogConfig struct {
	Level  string
	Pretty bool
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}

	if strings.Contains(port, ":") {
		// Accept ":8000" or "127.0.0.1:8000" verbatim.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the upstream completion API.
type AIConfig struct {
	APIKey          string
	Model           string
	BaseURL         string
	Temperature     float64
	TopP            *float64
	MaxTokens       int
	PresencePenalty float64
	StreamResponse  bool
}

func loadAIConfig() (AIConfig, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return AIConfig{}, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
	}

	temperature := 0.8
	if override, err := parseOptionalFloatEnv("OPENAI_TEMPERATURE"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		temperature = *override
	}

	topP, err := parseOptionalFloatEnv("OPENAI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens := 800
	if override, err := parseOptionalIntEnv("OPENAI_MAX_TOKENS"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		maxTokens = *override
	}

	presencePenalty := 0.6
	if override, err := parseOptionalFloatEnv("OPENAI_PRESENCE_PENALTY"); err != nil {
		return AIConfig{}, err
	} else if override != nil {
		presencePenalty = *override
	}

	stream, err := parseBoolEnv("OPENAI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:          apiKey,
		Model:           getEnvOrDefault("OPENAI_MODEL", "gpt-4o-2024-08-06"),
		BaseURL:         strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Temperature:     temperature,
		TopP:            topP,
		MaxTokens:       maxTokens,
		PresencePenalty: presencePenalty,
		StreamResponse:  stream,
	}, nil
}

// NewChatModel builds the upstream chat model from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	temperature := float32(c.Temperature)
	presencePenalty := float32(c.PresencePenalty)
	maxTokens := c.MaxTokens

	cfg := &openai.ChatModelConfig{
		APIKey:          c.APIKey,
		BaseURL:         c.BaseURL,
		Model:           c.Model,
		MaxTokens:       &maxTokens,
		Temperature:     &temperature,
		PresencePenalty: &presencePenalty,
	}

	if c.TopP != nil {
		topP := float32(*c.TopP)
		cfg.TopP = &topP
	}

	return openai.NewChatModel(ctx, cfg)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
