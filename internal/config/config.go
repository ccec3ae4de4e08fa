package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string   `mapstructure:"PORT"`
	Env              string   `mapstructure:"ENV"`
	DatabaseURL      string   `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32    `mapstructure:"DB_MIN_CONNS"`
	RedisAddr        string   `mapstructure:"REDIS_ADDR"`
	RedisPassword    string   `mapstructure:"REDIS_PASSWORD"`
	RedisDB          int      `mapstructure:"REDIS_DB"`
	JWTSecret        string   `mapstructure:"JWT_SECRET"`
	CORSOrigins      []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int      `mapstructure:"RATE_LIMIT_BURST"`
	DraftMaxAgeDays  int      `mapstructure:"DRAFT_MAX_AGE_DAYS"`
	AIBaseURL        string   `mapstructure:"AI_BASE_URL"`
	AIAPIKey         string   `mapstructure:"AI_API_KEY"`
	AITimeoutSeconds int      `mapstructure:"AI_TIMEOUT_SECONDS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("DRAFT_MAX_AGE_DAYS", 7)
	v.SetDefault("AI_TIMEOUT_SECONDS", 10)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_ADDR")
	v.BindEnv("REDIS_PASSWORD")
	v.BindEnv("REDIS_DB")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("DRAFT_MAX_AGE_DAYS")
	v.BindEnv("AI_BASE_URL")
	v.BindEnv("AI_API_KEY")
	v.BindEnv("AI_TIMEOUT_SECONDS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: DevAuthMiddleware is active. All requests get admin access.")
		log.Println("WARNING: Do NOT use this configuration in production.")
		log.Println("WARNING: Set ENV=production and configure JWT_SECRET for production.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. In production
// JWT_SECRET must be set so that real authentication is enforced; short
// secrets are rejected because HS256 tokens signed with them can be brute
// forced offline.
func (c *Config) Validate() error {
	if c.IsProduction() {
		if c.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in production. " +
				"Refusing to start without authentication configuration")
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters, got %d", len(c.JWTSecret))
		}
	}

	if c.RateLimitRPS <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be positive, got %v", c.RateLimitRPS)
	}
	if c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be positive, got %d", c.RateLimitBurst)
	}

	if c.DraftMaxAgeDays < 0 {
		return fmt.Errorf("DRAFT_MAX_AGE_DAYS must not be negative, got %d", c.DraftMaxAgeDays)
	}

	// Diagnosis suggestions are optional; when enabled the key must come too.
	if c.AIBaseURL != "" && c.AIAPIKey == "" {
		return fmt.Errorf("AI_API_KEY is required when AI_BASE_URL is set")
	}
	if c.AITimeoutSeconds <= 0 {
		return fmt.Errorf("AI_TIMEOUT_SECONDS must be positive, got %d", c.AITimeoutSeconds)
	}

	return nil
}
