// Package config resolves where pime keeps its dictionaries from the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

const (
	defaultHomeDir      = ".pime"
	defaultPersonalFile = "personal.dict"
	defaultReference    = "cedict.dict"
	defaultSourcesDir   = "sources"
	defaultDBFile       = "pime.db"
	defaultLogLevel     = "info"
)

// Config captures runtime configuration.
type Config struct {
	// Home is the base directory relative paths below default into.
	Home string
	// Personal is the user's own dictionary; edits are saved here.
	Personal string
	// Reference is the bundled dictionary, e.g. converted CC-CEDICT.
	Reference string
	// Sources lists directories scanned for additional *.dict files.
	Sources []string
	// DB is the SQLite file used by export.
	DB string
	// Freq is an optional frequency table used to rank results.
	Freq     string
	LogLevel string
	// Workers bounds bulk conversion concurrency.
	Workers int
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envMap       map[string]string
	useSystemEnv bool
	homeDir      func() (string, error)
}

// WithEnvMap injects an explicit key/value map for environment lookups.
// Values in the map take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		useSystemEnv: true,
		homeDir:      os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(&options)
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		return "", false
	}

	home := stringWithDefault(lookup, "PIME_HOME", "")
	if home == "" {
		userHome, err := options.homeDir()
		if err != nil {
			return Config{}, fmt.Errorf("config: resolve home directory: %w", err)
		}
		home = filepath.Join(userHome, defaultHomeDir)
	}

	cfg := Config{
		Home:      home,
		Personal:  pathWithDefault(lookup, home, "PIME_PERSONAL", defaultPersonalFile),
		Reference: pathWithDefault(lookup, home, "PIME_REFERENCE", defaultReference),
		Sources:   listWithDefault(lookup, "PIME_SOURCES", []string{filepath.Join(home, defaultSourcesDir)}),
		DB:        pathWithDefault(lookup, home, "PIME_DB", defaultDBFile),
		Freq:      stringWithDefault(lookup, "PIME_FREQ", ""),
		LogLevel:  strings.ToLower(stringWithDefault(lookup, "LOG_LEVEL", defaultLogLevel)),
		Workers:   intWithDefault(lookup, "PIME_WORKERS", runtime.NumCPU()),
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ValidationError lists the settings that failed validation.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "config: invalid configuration: " + strings.Join(e.Issues, "; ")
}

func validateConfig(cfg Config) error {
	var issues []string
	if strings.TrimSpace(cfg.Personal) == "" {
		issues = append(issues, "personal dictionary path must be set")
	}
	if cfg.Workers <= 0 {
		issues = append(issues, "PIME_WORKERS must be positive")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

// pathWithDefault resolves the fallback file name against home.
func pathWithDefault(lookup func(string) (string, bool), home, key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return filepath.Join(home, fallback)
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// listWithDefault splits an OS path list (":" on Unix, ";" on Windows).
func listWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return fallback
	}
	out := []string{}
	for _, part := range filepath.SplitList(raw) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
