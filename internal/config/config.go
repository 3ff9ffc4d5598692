package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Provider ProviderConfig `yaml:"provider"`
	Quota    QuotaConfig    `yaml:"quota"`
	Cache    CacheConfig    `yaml:"cache"`
	Retry    RetryConfig    `yaml:"retry"`
	Safety   SafetyConfig   `yaml:"safety"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"60s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	RateLimitPerMin int           `yaml:"rate_limit_per_min" env:"SERVER_RATE_LIMIT_PER_MIN" env-default:"60"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"DATABASE_MIGRATE_ON_START"   env-default:"true"`
}

// AuthConfig holds bearer-token validation settings.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" env:"AUTH_JWT_SECRET" env-required:"true"`
	JWTIssuer string `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"lumina"`
}

// ProviderConfig holds upstream generative-provider settings.
type ProviderConfig struct {
	AnthropicAPIKey string        `yaml:"anthropic_api_key" env:"PROVIDER_ANTHROPIC_API_KEY" env-required:"true"`
	TextModel       string        `yaml:"text_model"        env:"PROVIDER_TEXT_MODEL"        env-default:"claude-sonnet-4-5"`
	MaxTokens       int           `yaml:"max_tokens"        env:"PROVIDER_MAX_TOKENS"        env-default:"4096"`
	GeminiAPIKey    string        `yaml:"gemini_api_key"    env:"PROVIDER_GEMINI_API_KEY"`
	ImageModel      string        `yaml:"image_model"       env:"PROVIDER_IMAGE_MODEL"       env-default:"gemini-2.5-flash-image"`
	AudioModel      string        `yaml:"audio_model"       env:"PROVIDER_AUDIO_MODEL"       env-default:"gemini-2.5-flash-preview-tts"`
	AudioVoice      string        `yaml:"audio_voice"       env:"PROVIDER_AUDIO_VOICE"       env-default:"Kore"`
	RequestTimeout  time.Duration `yaml:"request_timeout"   env:"PROVIDER_REQUEST_TIMEOUT"   env-default:"45s"`
}

// QuotaConfig holds daily-quota settings. The reference deployment keeps the
// limit effectively unbounded; the enforcement point still exists.
type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit" env:"QUOTA_DAILY_LIMIT" env-default:"999999999"`
}

// CacheConfig holds content-cache settings. Bumping Version logically
// invalidates every previously cached result.
type CacheConfig struct {
	Version         string  `yaml:"version"           env:"CACHE_VERSION"           env-default:"v2"`
	FullHitProb     float64 `yaml:"full_hit_prob"     env:"CACHE_FULL_HIT_PROB"     env-default:"0.3"`
	DiscoveryLength int     `yaml:"discovery_length"  env:"CACHE_DISCOVERY_LENGTH"  env-default:"5"`
	MixFreshCount   int     `yaml:"mix_fresh_count"   env:"CACHE_MIX_FRESH_COUNT"   env-default:"2"`
}

// RetryConfig holds upstream retry/backoff settings.
type RetryConfig struct {
	MaxAttempts   int           `yaml:"max_attempts"    env:"RETRY_MAX_ATTEMPTS"    env-default:"3"`
	RateLimitBase time.Duration `yaml:"rate_limit_base" env:"RETRY_RATE_LIMIT_BASE" env-default:"2s"`
	OverloadBase  time.Duration `yaml:"overload_base"   env:"RETRY_OVERLOAD_BASE"   env-default:"1s"`
}

// SafetyConfig holds content-safety settings.
// Mode "sanitize" redacts violating sentences and serves the remainder;
// mode "strict" fails the request instead.
type SafetyConfig struct {
	Mode string `yaml:"mode" env:"SAFETY_MODE" env-default:"sanitize"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Authorization,Content-Type"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"true"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}
