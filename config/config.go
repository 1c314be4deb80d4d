package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultBucket is used when OUTPUT_BUCKET is not set.
const DefaultBucket = "pdf2img-outputs"

type Config struct {
	OutputBucket   string  `mapstructure:"output_bucket"`
	AWSRegion      string  `mapstructure:"aws_region"`
	RenderDPI      float64 `mapstructure:"render_dpi"`
	MaxPages       int     `mapstructure:"max_pages"`
	MaxUploadBytes int64   `mapstructure:"max_upload_bytes"`
	ScanBarcodes   bool    `mapstructure:"scan_barcodes"`
	TempDir        string  `mapstructure:"temp_dir"`
	LogLevel       string  `mapstructure:"log_level"`
	LogFile        string  `mapstructure:"log_file"`
	ListenAddr     string  `mapstructure:"listen_addr"`
}

var keys = []string{
	"output_bucket",
	"aws_region",
	"render_dpi",
	"max_pages",
	"max_upload_bytes",
	"scan_barcodes",
	"temp_dir",
	"log_level",
	"log_file",
	"listen_addr",
}

// Load reads configuration from CONFIG_PATH (if set) and the environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv("CONFIG_PATH"))
}

// LoadFrom reads configuration from the YAML file at path, then applies
// environment overrides. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("output_bucket", DefaultBucket)
	v.SetDefault("aws_region", "")
	v.SetDefault("render_dpi", 200)
	v.SetDefault("max_pages", 0)
	v.SetDefault("max_upload_bytes", 0)
	v.SetDefault("scan_barcodes", false)
	v.SetDefault("temp_dir", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("listen_addr", ":8080")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// OUTPUT_BUCKET, RENDER_DPI, ...
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range keys {
		if err := v.BindEnv(k, strings.ToUpper(k)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", k, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.OutputBucket == "" {
		cfg.OutputBucket = DefaultBucket
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.RenderDPI <= 0 {
		return fmt.Errorf("render_dpi must be positive, got %v", c.RenderDPI)
	}
	if c.MaxPages < 0 {
		return fmt.Errorf("max_pages must not be negative, got %d", c.MaxPages)
	}
	if c.MaxUploadBytes < 0 {
		return fmt.Errorf("max_upload_bytes must not be negative, got %d", c.MaxUploadBytes)
	}
	return nil
}
