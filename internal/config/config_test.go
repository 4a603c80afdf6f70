package config

import (
	"strings"
	"testing"
)

func TestLoadConfigFile(t *testing.T) {
	yaml := `
port: "9090"
relay_timeout_seconds: 30
cors_allowed_origins: "https://app.example.com"
`

	config := &Config{Port: "8080", RelayTimeoutSeconds: 15}
	if err := LoadConfigFile(strings.NewReader(yaml), config); err != nil {
		t.Fatalf("failed to load config file: %v", err)
	}

	if config.Port != "9090" {
		t.Errorf("expected port 9090, got %s", config.Port)
	}
	if config.RelayTimeoutSeconds != 30 {
		t.Errorf("expected relay timeout 30, got %d", config.RelayTimeoutSeconds)
	}
	if config.CORSAllowedOrigins != "https://app.example.com" {
		t.Errorf("unexpected CORS origin: %s", config.CORSAllowedOrigins)
	}
}

func TestLoadConfigFileCannotSetSecret(t *testing.T) {
	yaml := `
secretkey: "should-not-stick"
`

	config := &Config{}
	if err := LoadConfigFile(strings.NewReader(yaml), config); err != nil {
		t.Fatalf("failed to load config file: %v", err)
	}

	if config.SecretKey != "" {
		t.Error("the secret key must only come from the environment")
	}
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("RELAY_TEST_STR", "value")
	t.Setenv("RELAY_TEST_INT", "42")
	t.Setenv("RELAY_TEST_BAD_INT", "not-a-number")

	if got := getEnvOrDefault("RELAY_TEST_STR", "fallback"); got != "value" {
		t.Errorf("expected value, got %s", got)
	}
	if got := getEnvOrDefault("RELAY_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
	if got := getEnvAsInt("RELAY_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := getEnvAsInt("RELAY_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("expected default 7 for unparseable value, got %d", got)
	}
	if got := getEnvAsInt64("RELAY_TEST_INT", 7); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
}
