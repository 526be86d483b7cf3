package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Config holds user-configurable defaults. Command-line flags override
// whatever is loaded from disk.
type Config struct {
	IntervalSec int        `json:"interval_sec"`
	DataDir     string     `json:"data_dir"`
	LogLevel    string     `json:"log_level"`
	ShowHidden  bool       `json:"show_hidden"` // include devices normally filtered from the dashboard
	HTTP        HTTPConfig `json:"http"`
}

type HTTPConfig struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

// Default returns a config with sensible defaults.
func Default() Config {
	return Config{
		IntervalSec: 30,
		DataDir:     defaultDataDir(),
		LogLevel:    "info",
		HTTP: HTTPConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9815",
		},
	}
}

// defaultDataDir is ~/.diskwatch; empty when home cannot be determined, in
// which case persistence is disabled rather than falling back to /tmp.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".diskwatch")
}

// Path returns ~/.config/diskwatch/config.json (or XDG_CONFIG_HOME).
// Returns empty string if home directory cannot be determined.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "diskwatch", "config.json")
}

// Load loads config from disk; returns defaults on error.
func Load() Config {
	cfg := Default()
	p := Path()
	if p == "" {
		return cfg
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		log.Printf("diskwatch: warning: config parse error: %v", err)
	}
	return cfg
}

// Save writes the config to disk.
func Save(cfg Config) error {
	path := Path()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
