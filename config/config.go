// Copyright (c) 2024 The BitFS developers
// Use of this source code is governed by the Open BSV License v5
// that can be found in the LICENSE file.

// Package config loads and validates stakehouse node settings.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings shared by the stakehouse CLI and library users.
type Config struct {
	DataDir    string `env:"STAKEHOUSE_DATADIR"`
	Network    string `env:"STAKEHOUSE_NETWORK"`
	LogLevel   string `env:"STAKEHOUSE_LOGLEVEL"`
	LogFile    string `env:"STAKEHOUSE_LOGFILE"`
	LedgerURL  string `env:"STAKEHOUSE_LEDGER_URL"` // empty selects the local ledger
	LedgerUser string `env:"STAKEHOUSE_LEDGER_USER"`
	LedgerPass string `env:"STAKEHOUSE_LEDGER_PASS"`
}

// DefaultDataDir returns ~/.stakehouse, or .stakehouse when the home
// directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stakehouse"
	}
	return filepath.Join(home, ".stakehouse")
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Network:  "mainnet",
		LogLevel: "info",
	}
}

// ConfigPath returns the config file location inside dataDir.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads a "key = value" file on top of DefaultConfig. Blank
// lines and lines starting with '#' are skipped; unknown keys are ignored.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		applyKey(&cfg, key, value)
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read: %w", err)
	}
	return cfg, nil
}

// parseKeyValue splits on the first '='.
func parseKeyValue(line string) (string, string, error) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return "", "", ErrInvalidConfigLine
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return "", "", ErrInvalidConfigLine
	}
	return key, strings.TrimSpace(value), nil
}

func applyKey(cfg *Config, key, value string) {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "network":
		cfg.Network = value
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	case "ledger.url":
		cfg.LedgerURL = value
	case "ledger.user":
		cfg.LedgerUser = value
	case "ledger.pass":
		cfg.LedgerPass = value
	}
}

// SaveConfig writes cfg to path, creating parent directories.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# Stakehouse Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "network = %s\n", cfg.Network)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(&b, "ledger.url = %s\n", cfg.LedgerURL)
	fmt.Fprintf(&b, "ledger.user = %s\n", cfg.LedgerUser)
	fmt.Fprintf(&b, "ledger.pass = %s\n", cfg.LedgerPass)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from STAKEHOUSE_* environment variables.
// Variables that are unset leave the current value untouched.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}
