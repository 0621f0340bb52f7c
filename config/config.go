// Package config loads the service configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// EnvPath overrides the config file location.
const EnvPath = "CHURNSCOPE_CONFIG"

// DefaultPath is used when EnvPath is unset.
const DefaultPath = "config.yaml"

type Config struct {
	Service struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
	} `yaml:"service"`
	HTTP struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		RequestTimeout  time.Duration `yaml:"request_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"http"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Batch struct {
		MaxUploadBytes int64         `yaml:"max_upload_bytes"`
		PreviewRows    int           `yaml:"preview_rows"`
		ExportTTL      time.Duration `yaml:"export_ttl"`
		ExportCapacity int           `yaml:"export_capacity"`
	} `yaml:"batch"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
	} `yaml:"log"`
}

// Default returns the configuration used for any key the file leaves out.
func Default() *Config {
	var c Config
	c.Service.Name = "churnscope"
	c.Service.Environment = "development"
	c.HTTP.Port = 8080
	c.HTTP.ReadTimeout = 15 * time.Second
	c.HTTP.WriteTimeout = 60 * time.Second
	c.HTTP.RequestTimeout = 30 * time.Second
	c.HTTP.ShutdownTimeout = 10 * time.Second
	c.HTTP.AllowedOrigins = []string{"*"}
	c.Model.Path = "models/churn_tree.json"
	c.Batch.MaxUploadBytes = 10 << 20
	c.Batch.PreviewRows = 10
	c.Batch.ExportTTL = 15 * time.Minute
	c.Batch.ExportCapacity = 64
	c.Database.Path = "churnscope.db"
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 50
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 14
	return &c
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, config.Validate()
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := yaml.NewDecoder(file).Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Model.Path == "" {
		errs = append(errs, errors.New("model.path is required"))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.Batch.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("batch.max_upload_bytes must be positive"))
	}
	if c.Batch.PreviewRows < 0 {
		errs = append(errs, errors.New("batch.preview_rows must not be negative"))
	}
	if c.Batch.ExportTTL <= 0 {
		errs = append(errs, errors.New("batch.export_ttl must be positive"))
	}
	if c.Batch.ExportCapacity <= 0 {
		errs = append(errs, errors.New("batch.export_capacity must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	return errors.Join(errs...)
}
