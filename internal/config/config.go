package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Web contains settings for the local web interface.
type Web struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	OpenBrowser bool   `toml:"open_browser"`
}

// Config holds defaults for every run mode.
type Config struct {
	Recursive bool   `toml:"recursive"`
	OutputDir string `toml:"output_dir"`
	Workers   int    `toml:"workers"`
	LogLevel  string `toml:"log_level"`
	LogFile   string `toml:"log_file"`
	Creator   string `toml:"creator"`
	Web       Web    `toml:"web"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Workers:  1,
		LogLevel: "info",
		Creator:  "PixTrail",
		Web: Web{
			Host:        "127.0.0.1",
			Port:        5000,
			OpenBrowser: true,
		},
	}
}

// DefaultPath returns ~/.config/pixtrail/config.toml (or the platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "pixtrail", "config.toml"), nil
}

// Load builds the effective configuration: defaults, then the TOML file, then
// the .env file in the working directory, then PIXTRAIL_* variables.
//
// An empty path means DefaultPath, which may be absent. An explicit path must exist.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := LoadEnvFile(".env"); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.OutputDir = strings.TrimSpace(c.OutputDir)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFile = strings.TrimSpace(c.LogFile)
	c.Creator = strings.TrimSpace(c.Creator)
	c.Web.Host = strings.TrimSpace(c.Web.Host)

	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Creator == "" {
		c.Creator = "PixTrail"
	}
	if c.Web.Host == "" {
		c.Web.Host = "127.0.0.1"
	}
}

// Validate reports configuration values that can never work.
func (c Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warning", "error", "fatal":
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
	if c.Web.Port < 0 || c.Web.Port > 65535 {
		return fmt.Errorf("invalid web.port %d", c.Web.Port)
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

// SampleConfig returns the commented sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// WriteSample writes the sample configuration to path unless a file already exists.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
