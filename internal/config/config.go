// Package config loads imagekit settings from defaults, an optional TOML
// file, IMAGEKIT_* environment variables and command-line flags, in that
// order of increasing priority.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "imagekit.toml"

// Config is the complete imagekit configuration.
type Config struct {
	Logging LoggingConfig `toml:"logging"`
	Server  ServerConfig  `toml:"server"`
	HTTP    HTTPConfig    `toml:"http"`
	Output  OutputConfig  `toml:"output"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig configures the MCP tool server.
type ServerConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	// MaxHandles bounds the number of images a session may hold open.
	MaxHandles int `toml:"max_handles"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Addr string `toml:"addr"`
	// Root is the directory images are served from. Names never escape it.
	Root        string `toml:"root"`
	CacheMaxAge int    `toml:"cache_max_age"` // seconds
	Metrics     bool   `toml:"metrics"`
}

// OutputConfig holds defaults applied when saving from the CLI.
type OutputConfig struct {
	// DefaultDPI is stamped on saved images when non-zero and no --dpi is given.
	DefaultDPI int  `toml:"default_dpi"`
	Overwrite  bool `toml:"overwrite"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Name:       "imagekit",
			Version:    "dev",
			MaxHandles: 64,
		},
		HTTP: HTTPConfig{
			Addr:        "127.0.0.1:8080",
			Root:        ".",
			CacheMaxAge: 3600,
			Metrics:     true,
		},
	}
}

// Load builds a Config. configPath may be empty, in which case DefaultPath is
// tried; a missing file is not an error. flags holds command-line overrides
// keyed by flag name.
func Load(configPath string, flags map[string]string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := applyFlags(cfg, flags); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are in range.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	if c.Server.Name == "" {
		return fmt.Errorf("server.name is required")
	}
	if c.Server.MaxHandles < 1 {
		return fmt.Errorf("server.max_handles must be at least 1, got %d", c.Server.MaxHandles)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.HTTP.Root == "" {
		return fmt.Errorf("http.root is required")
	}
	if c.HTTP.CacheMaxAge < 0 {
		return fmt.Errorf("http.cache_max_age cannot be negative, got %d", c.HTTP.CacheMaxAge)
	}
	if c.Output.DefaultDPI < 0 || c.Output.DefaultDPI > 65535 {
		return fmt.Errorf("output.default_dpi must be between 0 and 65535, got %d", c.Output.DefaultDPI)
	}
	return nil
}

// ToTOML returns the config serialized as TOML.
func (c *Config) ToTOML() (string, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GenerateDefault writes a commented default imagekit.toml to path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o644)
}

// envInt reads an integer from the named environment variable.
// Returns an error if the value is set but not a valid integer.
func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q is not an integer", name, v)
	}
	*dest = n
	return nil
}

func envBool(name string, dest *bool) {
	if v := os.Getenv(name); v != "" {
		*dest = v == "true" || v == "1"
	}
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("IMAGEKIT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("IMAGEKIT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("IMAGEKIT_SERVER_NAME"); v != "" {
		cfg.Server.Name = v
	}
	if err := envInt("IMAGEKIT_SERVER_MAX_HANDLES", &cfg.Server.MaxHandles); err != nil {
		return err
	}
	if v := os.Getenv("IMAGEKIT_HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("IMAGEKIT_HTTP_ROOT"); v != "" {
		cfg.HTTP.Root = v
	}
	if err := envInt("IMAGEKIT_HTTP_CACHE_MAX_AGE", &cfg.HTTP.CacheMaxAge); err != nil {
		return err
	}
	envBool("IMAGEKIT_HTTP_METRICS", &cfg.HTTP.Metrics)
	if err := envInt("IMAGEKIT_OUTPUT_DEFAULT_DPI", &cfg.Output.DefaultDPI); err != nil {
		return err
	}
	envBool("IMAGEKIT_OUTPUT_OVERWRITE", &cfg.Output.Overwrite)
	return nil
}

func applyFlags(cfg *Config, flags map[string]string) error {
	if flags == nil {
		return nil
	}
	if v, ok := flags["log-level"]; ok && v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v, ok := flags["log-format"]; ok && v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v, ok := flags["addr"]; ok && v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := flags["root"]; ok && v != "" {
		cfg.HTTP.Root = v
	}
	if v, ok := flags["max-handles"]; ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for --max-handles: %q is not an integer", v)
		}
		cfg.Server.MaxHandles = n
	}
	return nil
}

const defaultTOML = `# imagekit configuration

[logging]
# debug, info, warn or error.
level = "info"
# text or json. Logs always go to stderr.
format = "text"

[server]
# Name reported to MCP clients.
name = "imagekit"
# Maximum number of open image handles per MCP session.
max_handles = 64

[http]
addr = "127.0.0.1:8080"
# Directory served under /images/. Requests cannot leave it.
root = "."
# Cache-Control max-age for rendered images, in seconds.
cache_max_age = 3600
# Expose route timings at /metrics.
metrics = true

[output]
# Resolution stamped on files written by "imagekit apply" (0 keeps the source's).
default_dpi = 0
# Allow "imagekit apply" to replace an existing output file.
overwrite = false
`
