package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OIDC      OIDCConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Share     ShareConfig
}

type ServerConfig struct {
	Port         string `validate:"required"`
	Host         string `validate:"required"`
	Environment  string `validate:"oneof=development staging production"`
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type OIDCConfig struct {
	Issuer   string
	ClientID string
}

type JWTConfig struct {
	Secret         string
	AccessTokenTTL time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64 `validate:"gte=0"`
	Burst         int     `validate:"gte=0"`
	WindowSeconds int     `validate:"gte=0"`
}

// ShareConfig carries the sharing policy knobs. The validity window is fixed
// at grant creation; changing it never shortens already-issued grants.
type ShareConfig struct {
	ValidityDays        int `validate:"gt=0"`
	ListIncludeInactive bool
	TicketTTL           time.Duration `validate:"gt=0"`
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5001")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_DATABASE", "familyvault")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("JWT_ACCESS_TOKEN_TTL", 15)
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("SHARE_VALIDITY_DAYS", 30)
	viper.SetDefault("SHARE_LIST_INCLUDE_INACTIVE", true)
	viper.SetDefault("SHARE_TICKET_TTL_MINUTES", 10)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		OIDC: OIDCConfig{
			Issuer:   viper.GetString("OIDC_ISSUER"),
			ClientID: viper.GetString("OIDC_CLIENT_ID"),
		},
		JWT: JWTConfig{
			Secret:         os.Getenv("JWT_SECRET"),
			AccessTokenTTL: time.Duration(viper.GetInt("JWT_ACCESS_TOKEN_TTL")) * time.Minute,
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Share: ShareConfig{
			ValidityDays:        viper.GetInt("SHARE_VALIDITY_DAYS"),
			ListIncludeInactive: viper.GetBool("SHARE_LIST_INCLUDE_INACTIVE"),
			TicketTTL:           time.Duration(viper.GetInt("SHARE_TICKET_TTL_MINUTES")) * time.Minute,
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ShareValidityWindow returns the grant validity window as a duration.
func (c *Config) ShareValidityWindow() time.Duration {
	return time.Duration(c.Share.ValidityDays) * 24 * time.Hour
}
