// Package config loads the process configuration from the environment.
//
// Variables use the ROUTEKIT_ prefix; a double underscore separates nesting
// levels, so ROUTEKIT_SERVER__PORT becomes server.port and
// ROUTEKIT_RATE_LIMIT__PUBLIC_POINTS becomes rate_limit.public_points.
// A .env file in the working directory is loaded first when present.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every variable read by LoadConfig.
const EnvPrefix = "ROUTEKIT_"

type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Redis         RedisConfig          `koanf:"redis"`
	RateLimit     *RateLimitConfig     `koanf:"rate_limit"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
}

// RedisConfig is optional. An empty address keeps rate limiting in memory.
type RedisConfig struct {
	Address string `koanf:"address" validate:"omitempty,hostname_port"`
}

// Enabled reports whether a Redis address was configured.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

type RateLimitConfig struct {
	ServiceName     string        `koanf:"service_name" validate:"required"`
	PublicPoints    int           `koanf:"public_points" validate:"required,min=1"`
	PublicDuration  time.Duration `koanf:"public_duration" validate:"required"`
	PrivatePoints   int           `koanf:"private_points" validate:"required,min=1"`
	PrivateDuration time.Duration `koanf:"private_duration" validate:"required"`

	// PublicKeyParam names the path parameter keying anonymous callers.
	// Empty falls back to the client IP.
	PublicKeyParam string `koanf:"public_key_param"`
}

func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		ServiceName:     "routekit",
		PublicPoints:    60,
		PublicDuration:  time.Minute,
		PrivatePoints:   600,
		PrivateDuration: time.Minute,
	}
}

// listKeys hold comma separated values.
var listKeys = map[string]bool{
	"server.cors_allowed_origins": true,
}

// envKey maps ROUTEKIT_RATE_LIMIT__PUBLIC_POINTS to rate_limit.public_points.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

func envValue(key, value string) (string, any) {
	key = envKey(key)
	if !listKeys[key] {
		return key, value
	}

	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return key, parts
}

// LoadConfig reads, defaults and validates the configuration.
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := &Config{}

	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal config: %w", err)
	}

	if mainConfig.RateLimit == nil {
		mainConfig.RateLimit = DefaultRateLimitConfig()
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	if mainConfig.Observability.Environment == "" {
		mainConfig.Observability.Environment = mainConfig.Primary.Env
	}

	validate := validator.New()

	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}
