package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable the loader reads.
const EnvPrefix = "COPYCRAFT"

// ErrInvalidConfig is wrapped by every validation failure returned from Load.
var ErrInvalidConfig = errors.New("configuration validation failed")

var defaults = map[string]any{
	"server.port":                    8080,
	"server.log_level":               "info",
	"server.request_timeout_seconds": 60,
	"llm.provider":                   ProviderGemini,
	"llm.model_name":                 "gemini-2.0-flash",
	"llm.max_retries":                0,
	"llm.retry_delay_seconds":        2,
	"llm.timeout_seconds":            30,
	"llm.max_concurrent_calls":       0,
	"cache.enabled":                  false,
	"cache.path":                     "copycraft-cache.db",
	"cache.ttl_minutes":              1440,
}

// keys lists every setting so each one can be bound to its environment
// variable even when no config file mentions it.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.request_timeout_seconds",
	"llm.provider",
	"llm.gemini_api_key",
	"llm.openai_api_key",
	"llm.openai_base_url",
	"llm.model_name",
	"llm.max_retries",
	"llm.retry_delay_seconds",
	"llm.timeout_seconds",
	"llm.max_concurrent_calls",
	"cache.enabled",
	"cache.path",
	"cache.ttl_minutes",
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. A .env file, when present, is loaded into the
// process environment first without overriding variables that are already set.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom behaves like Load but reads the given config file instead of
// searching the working directory. The file must exist when a path is given.
func LoadFrom(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks a configuration built by hand or by Load.
func Validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
