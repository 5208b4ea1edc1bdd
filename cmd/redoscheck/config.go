package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coregx/redoscheck"
	"github.com/coregx/redoscheck/rubysrc"
)

const defaultConfigFile = ".redoscheck.yml"

// fileConfig is the CLI configuration. Priority: flags > environment >
// file > defaults.
//
// Example .redoscheck.yml:
//
//	strict: true
//	include: ["*.rb", "*.rake"]
//	exclude: [vendor, spec/fixtures]
//	workers: 8
type fileConfig struct {
	// Strict reports regexps that could not be analyzed.
	Strict bool `yaml:"strict" json:"strict"`

	// Include lists the file name globs checked when walking directories.
	Include []string `yaml:"include" json:"include"`

	// Exclude lists file and directory globs skipped when walking.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Workers is the number of files scanned concurrently. Zero means
	// GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`

	// MaxFileSize is the largest source file scanned, in bytes.
	MaxFileSize int `yaml:"max_file_size" json:"max_file_size"`

	// MaxPatternLen is the longest pattern analyzed, in bytes.
	MaxPatternLen int `yaml:"max_pattern_len" json:"max_pattern_len"`

	LogLevel  string `yaml:"log_level" json:"log_level"`
	LogFormat string `yaml:"log_format" json:"log_format"`

	// Addr is the listen address of the serve command.
	Addr string `yaml:"addr" json:"addr"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Include:       []string{"*.rb", "*.rake", "Gemfile", "Rakefile"},
		Exclude:       []string{".git", "vendor", "node_modules", "tmp"},
		MaxFileSize:   rubysrc.DefaultMaxFileSize,
		MaxPatternLen: redoscheck.DefaultConfig().MaxPatternLen,
		LogLevel:      "warn",
		LogFormat:     "text",
		Addr:          ":8080",
	}
}

// loadConfig reads path over the defaults. A missing file is only an error
// when it was asked for explicitly.
func loadConfig(path string, explicit bool) (fileConfig, error) {
	cfg := defaultFileConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

// applyEnv overrides fields from REDOSCHECK_* environment variables.
func (c *fileConfig) applyEnv() error {
	if v := os.Getenv("REDOSCHECK_STRICT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("REDOSCHECK_STRICT: %w", err)
		}
		c.Strict = b
	}
	if v := os.Getenv("REDOSCHECK_INCLUDE"); v != "" {
		c.Include = splitList(v)
	}
	if v := os.Getenv("REDOSCHECK_EXCLUDE"); v != "" {
		c.Exclude = splitList(v)
	}
	for _, env := range []struct {
		name string
		dst  *int
	}{
		{"REDOSCHECK_WORKERS", &c.Workers},
		{"REDOSCHECK_MAX_FILE_SIZE", &c.MaxFileSize},
		{"REDOSCHECK_MAX_PATTERN_LEN", &c.MaxPatternLen},
	} {
		if v := os.Getenv(env.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", env.name, err)
			}
			*env.dst = n
		}
	}
	if v := os.Getenv("REDOSCHECK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("REDOSCHECK_LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv("REDOSCHECK_ADDR"); v != "" {
		c.Addr = v
	}
	return nil
}

func (c fileConfig) validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be > 0, got %d", c.MaxFileSize)
	}
	if err := c.checkerConfig().Validate(); err != nil {
		return err
	}
	if len(c.Include) == 0 {
		return errors.New("include must list at least one pattern")
	}
	return nil
}

// checkerConfig returns the analyzer configuration.
func (c fileConfig) checkerConfig() redoscheck.Config {
	config := redoscheck.DefaultConfig()
	config.MaxPatternLen = c.MaxPatternLen
	return config
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
