package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "TASKBOARD"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Blob       BlobConfig       `mapstructure:"blob"`
	Display    DisplayConfig    `mapstructure:"display"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitRPM    int           `mapstructure:"rate_limit_rpm"`
	RateLimitBurst  int           `mapstructure:"rate_limit_burst"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int32         `mapstructure:"max_connections"`
	MinConnections int32         `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	SQLitePath     string        `mapstructure:"sqlite_path"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "inmemory", "sqlite" или "postgres"
}

type BlobConfig struct {
	Type    string    `mapstructure:"type"` // "local" или "gcs"
	Dir     string    `mapstructure:"dir"`
	BaseURL string    `mapstructure:"base_url"`
	GCS     GCSConfig `mapstructure:"gcs"`
}

type GCSConfig struct {
	Bucket          string `mapstructure:"bucket"`
	CredentialsFile string `mapstructure:"credentials_file"`
	Endpoint        string `mapstructure:"endpoint"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
	ChunkSize       int    `mapstructure:"chunk_size"`
}

type DisplayConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type WorkerConfig struct {
	ExpiryInterval time.Duration `mapstructure:"expiry_interval"`
}

var defaults = map[string]any{
	"server.host":             "",
	"server.port":             "8080",
	"server.read_timeout":     "15s",
	"server.write_timeout":    "30s",
	"server.shutdown_timeout": "10s",
	"server.rate_limit_rpm":   300,
	"server.rate_limit_burst": 50,
	"server.max_upload_bytes": 10 << 20,

	"database.url":             "",
	"database.max_connections": 10,
	"database.min_connections": 2,
	"database.idle_timeout":    "5m",
	"database.sqlite_path":     "taskboard.db",

	"logging.development": false,
	"repository.type":     "inmemory",

	"blob.type":                 "local",
	"blob.dir":                  "data/blobs",
	"blob.base_url":             "http://localhost:8080/blobs",
	"blob.gcs.bucket":           "",
	"blob.gcs.credentials_file": "",
	"blob.gcs.endpoint":         "",
	"blob.gcs.public_base_url":  "",
	"blob.gcs.chunk_size":       8 << 20,

	"display.timezone":       "UTC",
	"worker.expiry_interval": "1m",
}

// Load reads the YAML file at path, falling back to defaults when it does
// not exist. TASKBOARD_<SECTION>_<KEY> environment variables win over both.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("ошибка парсинга %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Repository.Type {
	case "inmemory", "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("repository.type=postgres требует database.url")
		}
	default:
		return fmt.Errorf("неизвестный repository.type %q", c.Repository.Type)
	}

	switch c.Blob.Type {
	case "local":
		if c.Blob.Dir == "" {
			return errors.New("blob.type=local требует blob.dir")
		}
	case "gcs":
		if c.Blob.GCS.Bucket == "" {
			return errors.New("blob.type=gcs требует blob.gcs.bucket")
		}
	default:
		return fmt.Errorf("неизвестный blob.type %q", c.Blob.Type)
	}

	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Worker.ExpiryInterval <= 0 {
		return errors.New("worker.expiry_interval должен быть положительным")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return errors.New("server.max_upload_bytes должен быть положительным")
	}
	return nil
}

// Location is the time zone in which "today" is evaluated.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Display.Timezone)
	if err != nil {
		return nil, fmt.Errorf("неверный display.timezone %q: %w", c.Display.Timezone, err)
	}
	return loc, nil
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

