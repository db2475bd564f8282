package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string        `mapstructure:"PORT"`
	Env              string        `mapstructure:"ENV"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	DBMaxConns       int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns       int32         `mapstructure:"DB_MIN_CONNS"`
	MigrationsDir    string        `mapstructure:"MIGRATIONS_DIR"`
	RedisURL         string        `mapstructure:"REDIS_URL"`
	CacheTTL         time.Duration `mapstructure:"CACHE_TTL"`
	ConfirmTTL       time.Duration `mapstructure:"CONFIRM_TTL"`
	AuthIssuer       string        `mapstructure:"AUTH_ISSUER"`
	AuthJWKSURL      string        `mapstructure:"AUTH_JWKS_URL"`
	AuthAudience     string        `mapstructure:"AUTH_AUDIENCE"`
	AuthSigningKey   string        `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins      []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS     float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst   int           `mapstructure:"RATE_LIMIT_BURST"`
	BodyLimit        string        `mapstructure:"BODY_LIMIT"`
	UploadLimit      string        `mapstructure:"UPLOAD_LIMIT"`
	AWSRegion        string        `mapstructure:"AWS_REGION"`
	S3Bucket         string        `mapstructure:"S3_BUCKET"`
	S3Endpoint       string        `mapstructure:"S3_ENDPOINT"`
	S3AccessKey      string        `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey      string        `mapstructure:"S3_SECRET_KEY"`
	SESFromEmail     string        `mapstructure:"SES_FROM_EMAIL"`
	StaffNotifyEmail string        `mapstructure:"STAFF_NOTIFY_EMAIL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CONFIRM_TTL", "5m")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("UPLOAD_LIMIT", "15M")
	v.SetDefault("AWS_REGION", "us-east-1")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "MIGRATIONS_DIR",
		"REDIS_URL", "CACHE_TTL", "CONFIRM_TTL",
		"AUTH_ISSUER", "AUTH_JWKS_URL", "AUTH_AUDIENCE", "AUTH_SIGNING_KEY",
		"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "BODY_LIMIT", "UPLOAD_LIMIT",
		"AWS_REGION", "S3_BUCKET", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY",
		"SES_FROM_EMAIL", "STAFF_NOTIFY_EMAIL",
	} {
		_ = v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); every request is treated as a staff admin.")
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

// S3Enabled reports whether case documents go to an S3-compatible bucket
// rather than the in-process store.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// SESEnabled reports whether submission e-mails are delivered through SES.
func (c *Config) SESEnabled() bool {
	return c.SESFromEmail != ""
}

// Validate checks that the configuration is safe to run. Outside development
// a token verification source is mandatory.
func (c *Config) Validate() error {
	if !c.IsDev() && c.AuthSigningKey == "" && c.AuthJWKSURL == "" && c.AuthIssuer == "" {
		return fmt.Errorf("one of AUTH_SIGNING_KEY, AUTH_JWKS_URL or AUTH_ISSUER must be set when ENV=%q", c.Env)
	}
	if c.IsProduction() && c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required in production")
	}
	if c.S3Enabled() && (c.S3AccessKey == "") != (c.S3SecretKey == "") {
		return fmt.Errorf("S3_ACCESS_KEY and S3_SECRET_KEY must be set together")
	}
	if c.CacheTTL < 0 || c.ConfirmTTL < 0 {
		return fmt.Errorf("CACHE_TTL and CONFIRM_TTL must not be negative")
	}
	return nil
}
