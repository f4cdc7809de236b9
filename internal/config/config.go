// Package config provides configuration management for the Skyhook
// authorization manager. It handles loading and parsing YAML configuration
// files and provides structured access to the app registration, locale,
// storage, proxy, and logging settings a host embeds the manager with.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadConfig when the file leaves fields unset.
const (
	DefaultLocale       = "en_US"
	DefaultCallbackPort = 8912
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// AppKey is the app registration key issued by the provider. It also
	// derives the app's custom redirect URL scheme ("skh-<app-key>").
	AppKey string `yaml:"app-key"`

	// Locale is forwarded to the authorization server so consent pages are
	// rendered in the user's language.
	Locale string `yaml:"locale"`

	// AuthDir is the directory backing the credential keystore.
	AuthDir string `yaml:"auth-dir"`

	// RegisteredSchemes lists the custom URL schemes the host app is
	// registered to handle. Authorization refuses to start when the app's
	// own redirect scheme is missing from this list.
	RegisteredSchemes []string `yaml:"registered-schemes"`

	// ProxyURL is the URL of an optional proxy server (http, https or
	// socks5) used for the token-exchange request.
	ProxyURL string `yaml:"proxy-url"`

	// CallbackPort is the local port the host's redirect bridge listens on.
	CallbackPort int `yaml:"callback-port"`

	// Debug enables debug-level logging and caller reporting.
	Debug bool `yaml:"debug"`

	// LoggingToFile redirects logs to rotated files under LogsDir instead
	// of stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// LogsDir is the directory used for rotated log files.
	LogsDir string `yaml:"logs-dir"`

	// LogsMaxTotalSizeMB caps the total size of the logs directory. Zero
	// disables the background cleaner.
	LogsMaxTotalSizeMB int `yaml:"logs-max-total-size-mb"`
}

// LoadConfig reads and parses the configuration file at the given path,
// applying defaults for unset fields.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("config: read %s failed: %w", configFile, err)
	}
	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s failed: %w", configFile, err)
	}
	cfg.applyDefaults()
	if strings.TrimSpace(cfg.AppKey) == "" {
		return nil, fmt.Errorf("config: app-key is required")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = DefaultLocale
	}
	if c.CallbackPort <= 0 {
		c.CallbackPort = DefaultCallbackPort
	}
	if strings.TrimSpace(c.AuthDir) == "" {
		c.AuthDir = defaultAuthDir()
	}
	if strings.TrimSpace(c.LogsDir) == "" {
		c.LogsDir = filepath.Join(filepath.Dir(c.AuthDir), "logs")
	}
}

func defaultAuthDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".skyhook"
	}
	return filepath.Join(home, ".skyhook")
}
