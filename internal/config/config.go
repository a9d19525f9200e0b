package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Library  LibraryConfig  `yaml:"library"`
	Database DatabaseConfig `yaml:"database"`
	Stream   StreamConfig   `yaml:"stream"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Host         string        `yaml:"host" envconfig:"MEDIAGATE_HOST"`
	Port         int           `yaml:"port" envconfig:"MEDIAGATE_PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" envconfig:"MEDIAGATE_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" envconfig:"MEDIAGATE_WRITE_TIMEOUT"`
}

type LibraryConfig struct {
	Root    string   `yaml:"root" envconfig:"MEDIAGATE_LIBRARY_ROOT" validate:"required"`
	Name    string   `yaml:"name" envconfig:"MEDIAGATE_LIBRARY_NAME"`
	Exclude []string `yaml:"exclude" envconfig:"MEDIAGATE_LIBRARY_EXCLUDE"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" envconfig:"MEDIAGATE_DATABASE_PATH"`
}

type StreamConfig struct {
	CacheMaxAge int `yaml:"cache_max_age" envconfig:"MEDIAGATE_CACHE_MAX_AGE" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"MEDIAGATE_LOG_LEVEL"`
	Pretty bool   `yaml:"pretty" envconfig:"MEDIAGATE_LOG_PRETTY"`
}

// Load builds the config in three layers: compiled-in defaults, then the
// yaml file, then MEDIAGATE_* environment variables. A missing file is not
// an error, the defaults simply stand.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         6540,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 0,
		},
		Library: LibraryConfig{
			Root: "",
			Name: "Media Library",
		},
		Database: DatabaseConfig{
			Path: "data/mediagate.db",
		},
		Stream: StreamConfig{
			CacheMaxAge: 3600,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	return cfg, nil
}

// Validate rejects configs the server cannot start with.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
