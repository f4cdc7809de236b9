package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, `
app-key: abc123
locale: de_DE
auth-dir: /tmp/skyhook-test
registered-schemes:
  - skh-abc123
proxy-url: socks5://127.0.0.1:1080
callback-port: 9001
debug: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.AppKey != "abc123" || cfg.Locale != "de_DE" || cfg.CallbackPort != 9001 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.RegisteredSchemes, []string{"skh-abc123"}) {
		t.Errorf("RegisteredSchemes = %v", cfg.RegisteredSchemes)
	}
	if cfg.ProxyURL != "socks5://127.0.0.1:1080" {
		t.Errorf("ProxyURL = %q", cfg.ProxyURL)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "app-key: abc123\n")
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Locale != DefaultLocale {
		t.Errorf("Locale = %q, want %q", cfg.Locale, DefaultLocale)
	}
	if cfg.CallbackPort != DefaultCallbackPort {
		t.Errorf("CallbackPort = %d, want %d", cfg.CallbackPort, DefaultCallbackPort)
	}
	if cfg.AuthDir == "" || cfg.LogsDir == "" {
		t.Errorf("directory defaults not applied: %+v", cfg)
	}
}

func TestLoadConfigRequiresAppKey(t *testing.T) {
	t.Parallel()
	path := writeConfig(t, "locale: en_US\n")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig() without app-key succeeded, want error")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Parallel()
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("LoadConfig(missing) succeeded, want error")
	}
}
