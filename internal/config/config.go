package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"

	"github.com/hospitalops/ward-api/internal/model"
)

type Config struct {
	LogLevel  string                          `mapstructure:"log_level"`
	Autosave  AutosaveConfig                  `mapstructure:"autosave"`
	Storage   StorageConfig                   `mapstructure:"storage"`
	RoomTypes map[string]model.RoomTypeConfig `mapstructure:"room_types"`
}

type AutosaveConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type StorageConfig struct {
	Backend      string `mapstructure:"backend" envconfig:"WARD_STORAGE_BACKEND"`
	Key          string `mapstructure:"key" envconfig:"WARD_STORAGE_KEY"`
	FilePath     string `mapstructure:"file_path" envconfig:"WARD_STORAGE_FILE_PATH"`
	RedisURL     string `mapstructure:"redis_url" envconfig:"WARD_REDIS_URL"`
	RedisRetries int    `mapstructure:"redis_retries" envconfig:"WARD_REDIS_RETRIES"`
}

// LoadConfig reads config.yaml from the given paths (defaulting to "." and
// "./config"), applies WARD_* environment overrides for storage settings
// and falls back to the default ward table when no room types are
// configured. A missing config file is not an error.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "./config"}
	}
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	v.SetDefault("log_level", "info")
	v.SetDefault("autosave.interval", 30*time.Second)
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.key", "hospitalPatients")
	v.SetDefault("storage.file_path", "ward-data.json")
	v.SetDefault("storage.redis_url", "redis://localhost:6379/0")
	v.SetDefault("storage.redis_retries", 3)

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("", &config.Storage); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if len(config.RoomTypes) == 0 {
		config.RoomTypes = DefaultRoomTypes()
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "file", "redis", "memory":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage key is required")
	}
	if c.Autosave.Interval <= 0 {
		return fmt.Errorf("autosave interval must be positive, got %v", c.Autosave.Interval)
	}
	return nil
}

// DefaultRoomTypes returns the standard ward table used when no room
// types are configured.
func DefaultRoomTypes() map[string]model.RoomTypeConfig {
	return map[string]model.RoomTypeConfig{
		"General Ward": {
			DisplayName:  "General Ward",
			Capacity:     15,
			PricePerStay: 500,
			NumberPrefix: "GW",
		},
		"Private Room": {
			DisplayName:  "Private Room",
			Capacity:     10,
			PricePerStay: 1500,
			NumberPrefix: "PR",
		},
		"ICU": {
			DisplayName:  "ICU (Intensive Care Unit)",
			Capacity:     8,
			PricePerStay: 3000,
			NumberPrefix: "IC",
		},
		"Emergency": {
			DisplayName:  "Emergency Ward",
			Capacity:     12,
			PricePerStay: 800,
			NumberPrefix: "ER",
		},
		"Maternity": {
			DisplayName:  "Maternity Ward",
			Capacity:     6,
			PricePerStay: 2000,
			NumberPrefix: "MT",
		},
		"Pediatric": {
			DisplayName:  "Pediatric Ward",
			Capacity:     8,
			PricePerStay: 1200,
			NumberPrefix: "PD",
		},
	}
}
