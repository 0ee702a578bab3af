package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const envConfigPath = "DSOTOOLS_CONFIG"

// Config represents the dsotools configuration file
// (~/.config/dsotools/config.yaml). Pointer fields distinguish "not set"
// from zero values.
type Config struct {
	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Patch
	Backup *bool `yaml:"backup"`

	// Server
	ServerAddress string `yaml:"server_address"`
	MaxBodyBytes  *int64 `yaml:"max_body_bytes"`
}

// configPath resolves the config file location: the --config flag, then
// $DSOTOOLS_CONFIG, then the user config directory.
func configPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	if p := strings.TrimSpace(os.Getenv(envConfigPath)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "dsotools", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't
// exist or cannot be parsed.
func LoadConfig(path string) Config {
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyLoggingConfig applies config file defaults to the global logging
// flags when they were not set explicitly.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyPatchConfig applies config file defaults to patch command variables.
func applyPatchConfig(c *cli.Command, cfg Config, backup *bool) {
	if cfg.Backup != nil && !c.IsSet("backup") {
		*backup = *cfg.Backup
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string, maxBody *int64) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.MaxBodyBytes != nil && !c.IsSet("max-body") {
		*maxBody = *cfg.MaxBodyBytes
	}
}
