package config

import (
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type Config struct {
	Port        int
	Environment string
	DatabaseURL string
	RedisURL    string

	OpenAIAPIKey        string
	OpenAIBaseURL       string
	OpenAIModel         string
	AnalysisMaxAttempts int
	AnalysisTimeoutSecs int
	MaxUploadMB         int

	StatsCacheTTLSecs int
	StatsWarmSecs     int

	TelegramBotToken string

	MCPTransport          string
	MCPHTTPEnabled        bool
	MCPHTTPBind           string
	MCPHTTPPort           int
	MCPAuthToken          string
	MCPRequestTimeoutSecs int
	MCPRateLimitPerMin    int
	MCPAnalysesPerMin     int

	JournalSSHBind           string
	JournalSSHPort           int
	JournalSSHHostKey        string
	JournalSSHAuthorizedKeys string

	SentryDSN        string
	SentrySampleRate float64
}

func Load() *Config {
	log := zap.L().Named("config")

	cfg := &Config{
		Environment:      strings.TrimSpace(os.Getenv("ENVIRONMENT")),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		MCPAuthToken:     os.Getenv("MCP_AUTH_TOKEN"),
		SentryDSN:        os.Getenv("SENTRY_DSN"),
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, bot disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set, trade journal disabled")
	}
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.Port = positiveInt("PORT", 8080)

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY not set, chart analysis will fail")
	}
	cfg.OpenAIBaseURL = strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o"
	}
	cfg.AnalysisMaxAttempts = positiveInt("ANALYSIS_MAX_ATTEMPTS", 5)
	cfg.AnalysisTimeoutSecs = positiveInt("ANALYSIS_TIMEOUT_SECS", 120)
	cfg.MaxUploadMB = positiveInt("MAX_UPLOAD_MB", 16)

	cfg.StatsCacheTTLSecs = positiveInt("STATS_CACHE_TTL_SECS", 60)
	cfg.StatsWarmSecs = positiveInt("STATS_WARM_SECS", 300)

	cfg.MCPTransport = strings.ToLower(strings.TrimSpace(os.Getenv("MCP_TRANSPORT")))
	if cfg.MCPTransport == "" {
		cfg.MCPTransport = "stdio"
	}
	if cfg.MCPTransport != "stdio" && cfg.MCPTransport != "http" {
		log.Warn("unsupported MCP_TRANSPORT, defaulting to stdio", zap.String("value", cfg.MCPTransport))
		cfg.MCPTransport = "stdio"
	}
	cfg.MCPHTTPEnabled = strings.EqualFold(strings.TrimSpace(os.Getenv("MCP_HTTP_ENABLED")), "true")
	cfg.MCPHTTPBind = stringOr("MCP_HTTP_BIND", "127.0.0.1")
	cfg.MCPHTTPPort = positiveInt("MCP_HTTP_PORT", 8090)
	cfg.MCPRequestTimeoutSecs = positiveInt("MCP_REQUEST_TIMEOUT_SECS", 5)
	cfg.MCPRateLimitPerMin = positiveInt("MCP_RATE_LIMIT_PER_MIN", 60)
	cfg.MCPAnalysesPerMin = positiveInt("MCP_ANALYSES_PER_MIN", 10)

	cfg.JournalSSHBind = stringOr("JOURNAL_SSH_BIND", "0.0.0.0")
	cfg.JournalSSHPort = positiveInt("JOURNAL_SSH_PORT", 23234)
	cfg.JournalSSHHostKey = stringOr("JOURNAL_SSH_HOST_KEY", ".ssh/journal_ed25519")
	cfg.JournalSSHAuthorizedKeys = strings.TrimSpace(os.Getenv("JOURNAL_SSH_AUTHORIZED_KEYS"))

	cfg.SentrySampleRate = 1.0
	if v := strings.TrimSpace(os.Getenv("SENTRY_SAMPLE_RATE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n >= 0 && n <= 1 {
			cfg.SentrySampleRate = n
		}
	}

	return cfg
}

func positiveInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func stringOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
