package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), defaultConfigFile)

	cfg, err := loadConfig(missing, false)
	require.NoError(t, err)
	assert.Equal(t, defaultFileConfig(), cfg)

	_, err = loadConfig(missing, true)
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "redoscheck.yml", `
strict: true
include: ["*.rb"]
exclude: [vendor, "spec/fixtures"]
workers: 3
max_pattern_len: 512
log_format: json
`)

	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.True(t, cfg.Strict)
	assert.Equal(t, []string{"*.rb"}, cfg.Include)
	assert.Equal(t, []string{"vendor", "spec/fixtures"}, cfg.Exclude)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, 512, cfg.MaxPatternLen)
	assert.Equal(t, "json", cfg.LogFormat)
	// Unset fields keep their defaults.
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadConfigEmptyFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yml", "")
	cfg, err := loadConfig(path, true)
	require.NoError(t, err)
	assert.Equal(t, defaultFileConfig(), cfg)
}

func TestLoadConfigUnknownField(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yml", "stricct: true\n")
	_, err := loadConfig(path, true)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("REDOSCHECK_STRICT", "true")
	t.Setenv("REDOSCHECK_WORKERS", "5")
	t.Setenv("REDOSCHECK_EXCLUDE", "a, b,,c")
	t.Setenv("REDOSCHECK_LOG_LEVEL", "debug")
	t.Setenv("REDOSCHECK_ADDR", "127.0.0.1:9000")

	cfg := defaultFileConfig()
	require.NoError(t, cfg.applyEnv())
	assert.True(t, cfg.Strict)
	assert.Equal(t, 5, cfg.Workers)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Exclude)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
}

func TestApplyEnvInvalid(t *testing.T) {
	for _, name := range []string{"REDOSCHECK_STRICT", "REDOSCHECK_WORKERS", "REDOSCHECK_MAX_FILE_SIZE"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, "lots")
			cfg := defaultFileConfig()
			assert.ErrorContains(t, cfg.applyEnv(), name)
		})
	}
}

func TestValidateFileConfig(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*fileConfig)
	}{
		{"negative workers", func(c *fileConfig) { c.Workers = -1 }},
		{"zero max file size", func(c *fileConfig) { c.MaxFileSize = 0 }},
		{"zero max pattern len", func(c *fileConfig) { c.MaxPatternLen = 0 }},
		{"no include", func(c *fileConfig) { c.Include = nil }},
	}

	require.NoError(t, defaultFileConfig().validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultFileConfig()
			tt.modify(&cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "info", "json")
	require.NoError(t, err)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)

	_, err = newLogger(&buf, "loud", "text")
	assert.Error(t, err)
	_, err = newLogger(&buf, "info", "xml")
	assert.Error(t, err)
}
