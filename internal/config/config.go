package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string   `mapstructure:"PORT"`
	Env         string   `mapstructure:"ENV"`
	LogLevel    string   `mapstructure:"LOG_LEVEL"`
	DatabaseURL string   `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32    `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins []string `mapstructure:"CORS_ORIGINS"`

	RequestTimeoutSeconds int `mapstructure:"REQUEST_TIMEOUT_SECONDS"`

	// Rule data: "file" loads RulesDir at startup, "postgres" reads
	// the rule tables.
	RulesSource string `mapstructure:"RULES_SOURCE"`
	RulesDir    string `mapstructure:"RULES_DIR"`

	// Reasoning service.
	ReasoningURL            string `mapstructure:"REASONING_URL"`
	ReasoningAPIKey         string `mapstructure:"REASONING_API_KEY"`
	ReasoningModel          string `mapstructure:"REASONING_MODEL"`
	ReasoningTimeoutSeconds int    `mapstructure:"REASONING_TIMEOUT_SECONDS"`

	AuthEnabled  bool   `mapstructure:"AUTH_ENABLED"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	AuthIssuer   string `mapstructure:"AUTH_ISSUER"`
	AuthAudience string `mapstructure:"AUTH_AUDIENCE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("REQUEST_TIMEOUT_SECONDS", 60)
	v.SetDefault("RULES_SOURCE", "file")
	v.SetDefault("RULES_DIR", "data/rules")
	v.SetDefault("REASONING_TIMEOUT_SECONDS", 30)
	v.SetDefault("AUTH_ENABLED", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("LOG_LEVEL")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("REQUEST_TIMEOUT_SECONDS")
	v.BindEnv("RULES_SOURCE")
	v.BindEnv("RULES_DIR")
	v.BindEnv("REASONING_URL")
	v.BindEnv("REASONING_API_KEY")
	v.BindEnv("REASONING_MODEL")
	v.BindEnv("REASONING_TIMEOUT_SECONDS")
	v.BindEnv("AUTH_ENABLED")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")

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

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() && !cfg.AuthEnabled {
		log.Println("WARNING: running in development mode without authentication; all requests get admin access")
	}

	return cfg, nil
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.RulesSource {
	case "file", "postgres":
	default:
		return fmt.Errorf("RULES_SOURCE must be \"file\" or \"postgres\", got %q", c.RulesSource)
	}
	if c.RulesSource == "file" && c.RulesDir == "" {
		return fmt.Errorf("RULES_DIR is required when RULES_SOURCE is \"file\"")
	}
	if c.ReasoningURL == "" {
		return fmt.Errorf("REASONING_URL is required")
	}
	if c.ReasoningTimeoutSeconds <= 0 {
		return fmt.Errorf("REASONING_TIMEOUT_SECONDS must be positive")
	}
	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive")
	}
	if c.AuthEnabled && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	if c.IsProduction() && !c.AuthEnabled {
		return fmt.Errorf("AUTH_ENABLED must be true in production")
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
