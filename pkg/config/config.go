// Package config loads interpreter settings from YAML files.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oarkflow/errors"
	"github.com/oarkflow/log"
	"gopkg.in/yaml.v3"
)

// ProjectFile is the name of the per-project configuration file.
const ProjectFile = ".lox.yaml"

// Config is the effective configuration.
type Config struct {
	Log     LogConfig     `yaml:"log"`
	REPL    REPLConfig    `yaml:"repl"`
	Runtime RuntimeConfig `yaml:"runtime"`
	Server  ServerConfig  `yaml:"server"`

	// Source is the file the configuration was read from, empty for defaults.
	Source string `yaml:"-"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type REPLConfig struct {
	Prompt       string `yaml:"prompt"`
	Continuation string `yaml:"continuation"`
	HistoryFile  string `yaml:"history_file"`
}

type RuntimeConfig struct {
	// MaxCallDepth bounds nested calls; 0 means unlimited.
	MaxCallDepth int `yaml:"max_call_depth"`
	// CacheSize is the number of parsed programs kept; 0 disables the cache.
	CacheSize int `yaml:"cache_size"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	Timeout        string `yaml:"timeout"`
	MaxSourceBytes int    `yaml:"max_source_bytes"`
	MaxCallDepth   int    `yaml:"max_call_depth"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "warn"},
		REPL: REPLConfig{
			Prompt:       "> ",
			Continuation: ". ",
			HistoryFile:  "~/.lox_history",
		},
		Runtime: RuntimeConfig{
			MaxCallDepth: 100000,
			CacheSize:    256,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			Timeout:        "5s",
			MaxSourceBytes: 64 << 10,
			MaxCallDepth:   1000,
		},
	}
}

// Load reads configuration for a project directory.
// Precedence: project (.lox.yaml) → user (~/.config/lox/config.yaml) → defaults.
// A file that exists but cannot be decoded is an error.
func Load(projectDir string) (*Config, error) {
	candidates := []string{filepath.Join(projectDir, ProjectFile)}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", "lox", "config.yaml"))
	}
	for _, path := range candidates {
		cfg, err := LoadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// LoadFile reads a single configuration file on top of the defaults.
// Environment references ($VAR, ${VAR}) are expanded before decoding.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	content := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var levels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true,
}

// Validate rejects negative limits, unknown log levels and bad durations.
func (c *Config) Validate() error {
	var problems []string
	if !levels[strings.ToLower(c.Log.Level)] {
		problems = append(problems, fmt.Sprintf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Runtime.MaxCallDepth < 0 {
		problems = append(problems, "runtime.max_call_depth: must not be negative")
	}
	if c.Runtime.CacheSize < 0 {
		problems = append(problems, "runtime.cache_size: must not be negative")
	}
	if c.Server.MaxSourceBytes < 0 {
		problems = append(problems, "server.max_source_bytes: must not be negative")
	}
	if c.Server.MaxCallDepth < 0 {
		problems = append(problems, "server.max_call_depth: must not be negative")
	}
	if _, err := time.ParseDuration(c.Server.Timeout); err != nil {
		problems = append(problems, fmt.Sprintf("server.timeout: %v", err))
	}
	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// ServerTimeout returns the parsed server timeout.
func (c *Config) ServerTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Server.Timeout)
	return d
}

// HistoryPath returns the REPL history file with a leading ~ expanded.
func (c *Config) HistoryPath() string {
	p := c.REPL.HistoryFile
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
		}
	}
	return p
}

// YAML renders the configuration.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewLogger builds a logger at the configured level writing to w.
func (c *Config) NewLogger(w io.Writer) *log.Logger {
	return &log.Logger{
		Level:  log.ParseLevel(strings.ToLower(c.Log.Level)),
		Writer: &log.IOWriter{Writer: w},
	}
}
