package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service needs.
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Brain  BrainConfig
	Search SearchConfig
	Image  ImageConfig
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	brain, err := loadBrainConfig()
	if err != nil {
		return nil, err
	}

	search, err := loadSearchConfig()
	if err != nil {
		return nil, err
	}

	image, err := loadImageConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Brain: brain, Search: search, Image: image}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// Accept ":8080" or "127.0.0.1:8080" as-is.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AIConfig describes the chat model shared by the classification chains and
// the generation handlers.
type AIConfig struct {
	APIKey      string
	AccessKey   string
	SecretKey   string
	Model       string
	BaseURL     string
	Region      string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credentials are present.
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel builds a model instance from the configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("model credentials missing: provide ARK_API_KEY + Model, or the AK/SK pair")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("ARK_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("ARK_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("ARK_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		AccessKey:   strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		SecretKey:   strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		Model:       strings.TrimSpace(os.Getenv("Model")),
		BaseURL:     getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		Region:      getEnvOrDefault("ARK_REGION", "cn-beijing"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// BrainConfig tunes the routing core itself.
type BrainConfig struct {
	UserName       string
	AssistantName  string
	WindowSize     int
	HistoryLimit   int
	LogPath        string
	HandlerTimeout int
	ContentDir     string
}

func loadBrainConfig() (BrainConfig, error) {
	windowSize := 12
	if override, err := parseOptionalIntEnv("BRAIN_WINDOW_SIZE"); err != nil {
		return BrainConfig{}, err
	} else if override != nil && *override > 0 {
		windowSize = *override
	}

	historyLimit := 6
	if override, err := parseOptionalIntEnv("BRAIN_HISTORY_LIMIT"); err != nil {
		return BrainConfig{}, err
	} else if override != nil && *override > 0 {
		historyLimit = *override
	}

	timeout := 60
	if override, err := parseOptionalIntEnv("BRAIN_HANDLER_TIMEOUT"); err != nil {
		return BrainConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return BrainConfig{
		UserName:       getEnvOrDefault("USER_NAME", "User"),
		AssistantName:  getEnvOrDefault("ASSISTANT_NAME", "Aura"),
		WindowSize:     windowSize,
		HistoryLimit:   historyLimit,
		LogPath:        getEnvOrDefault("BRAIN_LOG_PATH", "data/turns.db"),
		HandlerTimeout: timeout,
		ContentDir:     strings.TrimSpace(os.Getenv("CONTENT_DIR")),
	}, nil
}

// SearchConfig describes the web search provider.
type SearchConfig struct {
	BaseURL    string
	MaxResults int
	Timeout    int
}

func loadSearchConfig() (SearchConfig, error) {
	maxResults := 5
	if override, err := parseOptionalIntEnv("SEARCH_MAX_RESULTS"); err != nil {
		return SearchConfig{}, err
	} else if override != nil && *override > 0 {
		maxResults = *override
	}

	timeout := 15
	if override, err := parseOptionalIntEnv("SEARCH_TIMEOUT"); err != nil {
		return SearchConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return SearchConfig{
		BaseURL:    getEnvOrDefault("SEARCH_BASE_URL", "https://searx.be/search"),
		MaxResults: maxResults,
		Timeout:    timeout,
	}, nil
}

// ImageConfig describes the image generation endpoint.
type ImageConfig struct {
	BaseURL string
	OutDir  string
	Count   int
	Timeout int
}

func loadImageConfig() (ImageConfig, error) {
	count := 1
	if override, err := parseOptionalIntEnv("IMAGE_COUNT"); err != nil {
		return ImageConfig{}, err
	} else if override != nil && *override > 0 {
		count = *override
	}

	timeout := 60
	if override, err := parseOptionalIntEnv("IMAGE_TIMEOUT"); err != nil {
		return ImageConfig{}, err
	} else if override != nil && *override > 0 {
		timeout = *override
	}

	return ImageConfig{
		BaseURL: getEnvOrDefault("IMAGE_BASE_URL", "https://image.pollinations.ai"),
		OutDir:  getEnvOrDefault("IMAGE_OUT_DIR", "data/images"),
		Count:   count,
		Timeout: timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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
