package config

import (
	"errors"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func withHome(dir string) Option {
	return func(o *loaderOptions) {
		o.homeDir = func() (string, error) { return dir, nil }
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(WithoutSystemEnv(), withHome("/home/user"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	home := filepath.Join("/home/user", ".pime")
	if cfg.Home != home {
		t.Fatalf("expected home %q, got %q", home, cfg.Home)
	}
	if cfg.Personal != filepath.Join(home, "personal.dict") {
		t.Errorf("unexpected personal path %q", cfg.Personal)
	}
	if cfg.Reference != filepath.Join(home, "cedict.dict") {
		t.Errorf("unexpected reference path %q", cfg.Reference)
	}
	if len(cfg.Sources) != 1 || cfg.Sources[0] != filepath.Join(home, "sources") {
		t.Errorf("unexpected sources %v", cfg.Sources)
	}
	if cfg.DB != filepath.Join(home, "pime.db") {
		t.Errorf("unexpected db path %q", cfg.DB)
	}
	if cfg.Freq != "" {
		t.Errorf("expected no frequency table, got %q", cfg.Freq)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("expected info log level, got %q", cfg.LogLevel)
	}
	if cfg.Workers != runtime.NumCPU() {
		t.Errorf("expected %d workers, got %d", runtime.NumCPU(), cfg.Workers)
	}
}

func TestLoadFromEnv(t *testing.T) {
	sources := strings.Join([]string{"/a", " ", "/b"}, string(filepath.ListSeparator))
	cfg, err := Load(WithoutSystemEnv(), WithEnvMap(map[string]string{
		"PIME_HOME":      "/srv/pime",
		"PIME_REFERENCE": "/data/cedict.dict",
		"PIME_SOURCES":   sources,
		"PIME_FREQ":      "/data/frequency.txt",
		"LOG_LEVEL":      "DEBUG",
		"PIME_WORKERS":   "3",
	}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Personal != filepath.Join("/srv/pime", "personal.dict") {
		t.Errorf("unexpected personal path %q", cfg.Personal)
	}
	if cfg.Reference != "/data/cedict.dict" {
		t.Errorf("unexpected reference path %q", cfg.Reference)
	}
	if len(cfg.Sources) != 2 || cfg.Sources[0] != "/a" || cfg.Sources[1] != "/b" {
		t.Errorf("unexpected sources %v", cfg.Sources)
	}
	if cfg.Freq != "/data/frequency.txt" || cfg.LogLevel != "debug" || cfg.Workers != 3 {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadSystemEnv(t *testing.T) {
	t.Setenv("PIME_HOME", "/from/env")
	t.Setenv("PIME_DB", "/tmp/mirror.db")
	cfg, err := Load(WithEnvMap(map[string]string{"PIME_DB": "/override.db"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Home != "/from/env" {
		t.Errorf("expected home from env, got %q", cfg.Home)
	}
	if cfg.DB != "/override.db" {
		t.Errorf("expected env map to win, got %q", cfg.DB)
	}
}

func TestLoadValidation(t *testing.T) {
	_, err := Load(WithoutSystemEnv(), WithEnvMap(map[string]string{
		"PIME_HOME":    "/srv/pime",
		"PIME_WORKERS": "0",
	}))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Issues) != 1 {
		t.Fatalf("unexpected issues %v", verr.Issues)
	}
}

func TestLoadHomeError(t *testing.T) {
	boom := errors.New("no home")
	_, err := Load(WithoutSystemEnv(), func(o *loaderOptions) {
		o.homeDir = func() (string, error) { return "", boom }
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped home error, got %v", err)
	}
}
