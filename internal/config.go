package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kexin94yyds/RI-Flow/internal/storage"
)

func init() {
	// report validation errors with the yaml key names users write
	validation.ErrorTag = "yaml"
}

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Storage  StorageConfig     `yaml:"storage"`
	Metadata MetadataConfig    `yaml:"metadata"`
	Desktop  DesktopConfig     `yaml:"desktop"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Metadata.Validate(); err != nil {
		return fmt.Errorf("metadata: %w", err)
	}
	if err := c.Desktop.Validate(); err != nil {
		return fmt.Errorf("desktop: %w", err)
	}
	return nil
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects the persistence backend.
//
// Driver "auto" probes Redis (when an address is set), then SQLite (when a
// path is set), then falls back to JSON files under Dir.
type StorageConfig struct {
	Driver     string      `yaml:"driver"`
	Dir        string      `yaml:"dir"`
	SQLitePath string      `yaml:"sqlite_path"`
	Redis      RedisConfig `yaml:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if c.Driver == "" {
		c.Driver = storage.DriverAuto
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(storage.DriverAuto, storage.DriverFile, storage.DriverSQLite, storage.DriverRedis)),
		validation.Field(&c.Dir, validation.When(c.Driver == storage.DriverFile || c.Driver == storage.DriverAuto, validation.Required)),
		validation.Field(&c.SQLitePath, validation.When(c.Driver == storage.DriverSQLite, validation.Required)),
	); err != nil {
		return err
	}
	if c.Driver == storage.DriverRedis && c.Redis.Addr == "" {
		return errors.New("driver is redis but redis.addr is empty")
	}
	return validation.ValidateStruct(&c.Redis,
		validation.Field(&c.Redis.DB, validation.Min(0)),
	)
}

// Options converts the configuration into storage.Options.
func (c *StorageConfig) Options() storage.Options {
	return storage.Options{
		Driver:     c.Driver,
		Dir:        c.Dir,
		SQLitePath: c.SQLitePath,
		Redis: storage.RedisOptions{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		},
	}
}

// MetadataConfig tunes page scraping for the add flow.
type MetadataConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// Validate validates the metadata configuration.
func (c *MetadataConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond), validation.Max(time.Minute)),
	)
}

// DesktopConfig configures pulls from a desktop host.
type DesktopConfig struct {
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
	Hosts   []string      `yaml:"hosts"`
}

// Validate validates the desktop configuration.
func (c *DesktopConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Timeout, validation.Required, validation.Min(100*time.Millisecond)),
		validation.Field(&c.Hosts, validation.Each(validation.Required)),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 3000,
			},
		},
		Storage: StorageConfig{
			Driver: storage.DriverAuto,
			Dir:    "./data",
		},
		Metadata: MetadataConfig{
			Timeout:   10 * time.Second,
			UserAgent: "info-filter/1.0",
		},
		Desktop: DesktopConfig{
			Port:    3000,
			Timeout: 5 * time.Second,
		},
	}
}
