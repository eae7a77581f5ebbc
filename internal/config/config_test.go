package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "imagekit", cfg.Server.Name)
	assert.Equal(t, 64, cfg.Server.MaxHandles)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr)
	assert.Equal(t, ".", cfg.HTTP.Root)
	assert.Equal(t, 3600, cfg.HTTP.CacheMaxAge)
	assert.True(t, cfg.HTTP.Metrics)
	assert.Equal(t, 0, cfg.Output.DefaultDPI)
	assert.False(t, cfg.Output.Overwrite)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagekit.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[logging]
level = "debug"
format = "json"

[server]
max_handles = 8

[http]
root = "/srv/images"
metrics = false

[output]
default_dpi = 300
`), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 8, cfg.Server.MaxHandles)
	assert.Equal(t, "imagekit", cfg.Server.Name, "unset keys keep defaults")
	assert.Equal(t, "/srv/images", cfg.HTTP.Root)
	assert.False(t, cfg.HTTP.Metrics)
	assert.Equal(t, 300, cfg.Output.DefaultDPI)
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagekit.toml")
	require.NoError(t, os.WriteFile(path, []byte("[logging\nlevel ="), 0o644))

	_, err := Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing "+path)
}

func TestLoad_Priority(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagekit.toml")
	require.NoError(t, os.WriteFile(path, []byte("[http]\naddr = \"file:1\"\nroot = \"file\"\n"), 0o644))

	t.Setenv("IMAGEKIT_HTTP_ADDR", "env:2")
	t.Setenv("IMAGEKIT_HTTP_ROOT", "env")
	t.Setenv("IMAGEKIT_LOG_LEVEL", "WARN")

	cfg, err := Load(path, map[string]string{"root": "flag"})
	require.NoError(t, err)
	assert.Equal(t, "env:2", cfg.HTTP.Addr, "env beats file")
	assert.Equal(t, "flag", cfg.HTTP.Root, "flag beats env")
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_EnvInts(t *testing.T) {
	t.Setenv("IMAGEKIT_SERVER_MAX_HANDLES", "3")
	t.Setenv("IMAGEKIT_OUTPUT_DEFAULT_DPI", "72")
	t.Setenv("IMAGEKIT_OUTPUT_OVERWRITE", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Server.MaxHandles)
	assert.Equal(t, 72, cfg.Output.DefaultDPI)
	assert.True(t, cfg.Output.Overwrite)
}

func TestLoad_EnvNotInteger(t *testing.T) {
	t.Setenv("IMAGEKIT_HTTP_CACHE_MAX_AGE", "forever")

	_, err := Load(filepath.Join(t.TempDir(), "none.toml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMAGEKIT_HTTP_CACHE_MAX_AGE")
}

func TestLoad_FlagNotInteger(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"), map[string]string{"max-handles": "many"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--max-handles")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"no name", func(c *Config) { c.Server.Name = "" }, "server.name"},
		{"zero handles", func(c *Config) { c.Server.MaxHandles = 0 }, "server.max_handles"},
		{"no addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr"},
		{"no root", func(c *Config) { c.HTTP.Root = "" }, "http.root"},
		{"negative max age", func(c *Config) { c.HTTP.CacheMaxAge = -1 }, "http.cache_max_age"},
		{"dpi too large", func(c *Config) { c.Output.DefaultDPI = 70000 }, "output.default_dpi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ValidationWrapped(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"), map[string]string{"log-level": "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation:")
}

func TestGenerateDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "imagekit.toml")
	require.NoError(t, GenerateDefault(path))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg, "the generated file restates the defaults")
}

func TestToTOML(t *testing.T) {
	cfg := Default()
	cfg.Server.MaxHandles = 5

	out, err := cfg.ToTOML()
	require.NoError(t, err)

	var back Config
	require.NoError(t, toml.Unmarshal([]byte(out), &back))
	assert.Equal(t, *cfg, back)
}
