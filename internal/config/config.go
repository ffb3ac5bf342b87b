// Package config loads server settings from the environment and optional
// tuning overrides from a YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/talgya/cityforge/internal/sim"
)

// Config holds everything the server needs at startup.
type Config struct {
	DBPath     string
	Port       int
	Seed       int64
	GridWidth  int
	GridHeight int

	TickInterval  time.Duration
	MayorInterval time.Duration

	AnthropicKey string
	AdminKey     string

	// TuningPath points at an optional YAML file overriding simulation
	// constants. Empty means defaults.
	TuningPath string

	Tuning sim.Tuning
}

// Load reads configuration from the environment, then applies the tuning
// file if one is configured.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        envOrDefault("CITYFORGE_DB", "data/cityforge.db"),
		Port:          envIntOrDefault("CITYFORGE_PORT", 8080),
		Seed:          int64(envIntOrDefault("CITYFORGE_SEED", 42)),
		GridWidth:     envIntOrDefault("CITYFORGE_GRID_W", 40),
		GridHeight:    envIntOrDefault("CITYFORGE_GRID_H", 40),
		TickInterval:  time.Duration(envIntOrDefault("CITYFORGE_TICK_MS", 1000)) * time.Millisecond,
		MayorInterval: time.Duration(envIntOrDefault("CITYFORGE_MAYOR_INTERVAL", 60)) * time.Second,
		AnthropicKey:  os.Getenv("ANTHROPIC_API_KEY"),
		AdminKey:      os.Getenv("CITYFORGE_ADMIN_KEY"),
		TuningPath:    os.Getenv("CITYFORGE_TUNING"),
		Tuning:        sim.DefaultTuning(),
	}

	if cfg.GridWidth < 10 || cfg.GridHeight < 10 {
		return nil, fmt.Errorf("grid must be at least 10x10, got %dx%d", cfg.GridWidth, cfg.GridHeight)
	}
	if cfg.TickInterval < 10*time.Millisecond {
		return nil, fmt.Errorf("tick interval too small: %s", cfg.TickInterval)
	}

	if cfg.TuningPath != "" {
		if err := loadTuning(cfg.TuningPath, &cfg.Tuning); err != nil {
			return nil, fmt.Errorf("tuning file: %w", err)
		}
		slog.Info("tuning overrides loaded", "path", cfg.TuningPath)
	}

	return cfg, nil
}

// loadTuning applies YAML overrides on top of the defaults already in t,
// so a file only has to name the fields it changes.
func loadTuning(path string, t *sim.Tuning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, t); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOrDefault(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring non-integer env value", "key", key, "value", v)
	}
	return defaultVal
}
