package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Environment        string
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string

	// Authentication
	JWTSigningMethod   string
	JWTSecret          string
	JWTPublicKey       string
	JWTIssuer          string
	JWTAudience        []string
	RateLimitPerMinute int

	// Store
	StoreBackend     string
	SQLitePath       string
	AWSRegion        string
	DynamoDBTable    string
	DynamoDBEndpoint string

	// Language model
	LLMProvider         string
	LLMModel            string
	LLMTimeout          time.Duration
	LLMMaxTokens        int
	LLMTemperature      float64
	AnthropicAPIKey     string
	OpenAIAPIKey        string
	GeminiAPIKey        string
	OllamaHost          string
	BreakerFailureRatio float64
	BreakerMinRequests  int
	BreakerTimeout      time.Duration

	// Retrieval
	RAGEnabled        bool
	EmbeddingProvider string
	EmbeddingModel    string
	RAGTopK           int
	RAGMaxTokens      int

	PromptsFile string

	// Concurrency
	OptimisticMaxRetries   int
	OpportunityTagRequired bool

	// Events
	EventsBackend string
	EventBusName  string

	// Tracing
	OTLPEndpoint string
	ServiceName  string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Environment:        getEnv("ENVIRONMENT", "development"),
		Port:               getEnvInt("PORT", 8080),
		ReadTimeout:        getEnvDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       getEnvDuration("WRITE_TIMEOUT", 120*time.Second),
		ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),

		JWTSigningMethod:   getEnv("JWT_SIGNING_METHOD", "HS256"),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWTPublicKey:       getEnv("JWT_PUBLIC_KEY", ""),
		JWTIssuer:          getEnv("JWT_ISSUER", ""),
		JWTAudience:        getEnvList("JWT_AUDIENCE", nil),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		StoreBackend:     getEnv("STORE_BACKEND", "memory"),
		SQLitePath:       getEnv("SQLITE_PATH", "ideagraph.db"),
		AWSRegion:        getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable:    getEnv("DYNAMODB_TABLE", ""),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),

		LLMProvider:         getEnv("LLM_PROVIDER", "mock"),
		LLMModel:            getEnv("LLM_MODEL", ""),
		LLMTimeout:          getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		LLMMaxTokens:        getEnvInt("LLM_MAX_TOKENS", 2048),
		LLMTemperature:      getEnvFloat("LLM_TEMPERATURE", 0.7),
		AnthropicAPIKey:     getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		OllamaHost:          getEnv("OLLAMA_HOST", ""),
		BreakerFailureRatio: getEnvFloat("LLM_BREAKER_FAILURE_RATIO", 0.6),
		BreakerMinRequests:  getEnvInt("LLM_BREAKER_MIN_REQUESTS", 5),
		BreakerTimeout:      getEnvDuration("LLM_BREAKER_TIMEOUT", 30*time.Second),

		RAGEnabled:        getEnvBool("RAG_ENABLED", false),
		EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", ""),
		RAGTopK:           getEnvInt("RAG_TOP_K", 4),
		RAGMaxTokens:      getEnvInt("RAG_MAX_TOKENS", 1500),

		PromptsFile: getEnv("PROMPTS_FILE", ""),

		OptimisticMaxRetries:   getEnvInt("OPTIMISTIC_MAX_RETRIES", 3),
		OpportunityTagRequired: getEnvBool("OPPORTUNITY_TAG_REQUIRED", false),

		EventsBackend: getEnv("EVENTS_BACKEND", "log"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "ideagraph-events"),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("SERVICE_NAME", "ideagraph"),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that the settings are consistent
func (c *Config) Validate() error {
	switch c.JWTSigningMethod {
	case "HS256":
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required for HS256")
		}
	case "RS256":
		if c.JWTPublicKey == "" {
			return fmt.Errorf("JWT_PUBLIC_KEY is required for RS256")
		}
	default:
		return fmt.Errorf("unsupported JWT_SIGNING_METHOD: %s", c.JWTSigningMethod)
	}

	switch c.StoreBackend {
	case "memory":
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	case "dynamodb":
		if c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required for the dynamodb store")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND: %s", c.StoreBackend)
	}

	switch c.LLMProvider {
	case "mock", "ollama":
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for the openai provider")
		}
	case "gemini":
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for the gemini provider")
		}
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER: %s", c.LLMProvider)
	}

	if c.RAGEnabled {
		switch c.EmbeddingProvider {
		case "ollama":
		case "openai":
			if c.OpenAIAPIKey == "" {
				return fmt.Errorf("OPENAI_API_KEY is required for openai embeddings")
			}
		default:
			return fmt.Errorf("unsupported EMBEDDING_PROVIDER: %s", c.EmbeddingProvider)
		}
	}

	switch c.EventsBackend {
	case "log":
	case "eventbridge":
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required for eventbridge")
		}
	default:
		return fmt.Errorf("unsupported EVENTS_BACKEND: %s", c.EventsBackend)
	}

	if c.OptimisticMaxRetries < 1 {
		return fmt.Errorf("OPTIMISTIC_MAX_RETRIES must be at least 1")
	}
	if c.RateLimitPerMinute < 1 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be at least 1")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Address returns the listen address
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("30s") or a bare number of seconds
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getEnvList splits a comma-separated value
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
